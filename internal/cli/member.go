package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/DesmondSol/speedops/pkg/models"
)

func newMemberCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage the workspace roster",
	}
	cmd.AddCommand(newMemberAddCmd())
	cmd.AddCommand(newMemberListCmd())
	return cmd
}

func newMemberAddCmd() *cobra.Command {
	var ws, id, name, timezone string
	var roles []string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a member to the roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ws == "" || name == "" {
				return fmt.Errorf("--workspace and --name are required")
			}
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			if id == "" {
				id = fmt.Sprintf("m-%d", time.Now().UnixNano())
			}
			m := models.TeamMember{ID: id, Name: name, Roles: roles, Timezone: timezone, JoinDate: time.Now().UTC()}
			if err := st.PutMember(cmd.Context(), ws, m); err != nil {
				return err
			}
			_, _ = st.AppendActivity(cmd.Context(), ws, models.ActivityEntry{
				Source:  models.SourcePersonnel,
				Author:  "ADMIN",
				Content: "Operator " + m.Name + " integrated",
			})
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added member %s (%s)\n", m.ID, m.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&ws, "workspace", "", "Workspace ID")
	cmd.Flags().StringVar(&id, "id", "", "Member ID (generated if empty)")
	cmd.Flags().StringVar(&name, "name", "", "Member name")
	cmd.Flags().StringSliceVar(&roles, "roles", nil, "Roles (comma-separated)")
	cmd.Flags().StringVar(&timezone, "timezone", "", "Timezone")
	_ = cmd.MarkFlagRequired("workspace")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newMemberListCmd() *cobra.Command {
	var ws string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List roster members",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ws == "" {
				return fmt.Errorf("--workspace is required")
			}
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			members, err := st.ListMembers(cmd.Context(), ws)
			if err != nil {
				return err
			}
			for _, m := range members {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  roles=%v\n", m.ID, m.Name, m.Roles)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&ws, "workspace", "", "Workspace ID")
	_ = cmd.MarkFlagRequired("workspace")
	return cmd
}
