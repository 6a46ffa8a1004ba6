package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/DesmondSol/speedops/pkg/models"
)

func newMilestoneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "milestone",
		Short: "Manage milestones",
	}
	cmd.AddCommand(newMilestoneAddCmd())
	cmd.AddCommand(newMilestoneListCmd())
	return cmd
}

func newMilestoneAddCmd() *cobra.Command {
	var ws, id, title, project, deadline, owner, urgency string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Place a milestone on the schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ws == "" || title == "" || deadline == "" {
				return fmt.Errorf("--workspace, --title, and --deadline are required")
			}
			if _, err := time.Parse("2006-01-02", deadline); err != nil {
				return fmt.Errorf("--deadline must be YYYY-MM-DD")
			}
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			if id == "" {
				id = fmt.Sprintf("ms-%d", time.Now().UnixNano())
			}
			if urgency == "" {
				urgency = models.UrgencyMedium
			}
			ms := models.Milestone{ID: id, ProjectID: project, Title: title, Deadline: deadline, OwnerID: owner, Urgency: urgency}
			if err := st.PutMilestone(cmd.Context(), ws, ms); err != nil {
				return err
			}
			_, _ = st.AppendActivity(cmd.Context(), ws, models.ActivityEntry{
				Source:  models.SourceSchedule,
				Author:  "SYSTEM",
				Content: "Critical marker placed: " + ms.Title,
			})
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added milestone %s (%s)\n", ms.ID, ms.Deadline)
			return nil
		},
	}
	cmd.Flags().StringVar(&ws, "workspace", "", "Workspace ID")
	cmd.Flags().StringVar(&id, "id", "", "Milestone ID (generated if empty)")
	cmd.Flags().StringVar(&title, "title", "", "Milestone title")
	cmd.Flags().StringVar(&project, "project", "", "Project ID")
	cmd.Flags().StringVar(&deadline, "deadline", "", "Deadline (YYYY-MM-DD)")
	cmd.Flags().StringVar(&owner, "owner", "", "Owner member ID")
	cmd.Flags().StringVar(&urgency, "urgency", "", "Urgency: Low, Medium (default), High")
	_ = cmd.MarkFlagRequired("workspace")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("deadline")
	return cmd
}

func newMilestoneListCmd() *cobra.Command {
	var ws string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List milestones",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ws == "" {
				return fmt.Errorf("--workspace is required")
			}
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			milestones, err := st.ListMilestones(cmd.Context(), ws)
			if err != nil {
				return err
			}
			for _, ms := range milestones {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  due=%s urgency=%s\n", ms.ID, ms.Title, ms.Deadline, ms.Urgency)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&ws, "workspace", "", "Workspace ID")
	_ = cmd.MarkFlagRequired("workspace")
	return cmd
}
