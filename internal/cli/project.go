package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/DesmondSol/speedops/pkg/models"
)

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
	cmd.AddCommand(newProjectCreateCmd())
	cmd.AddCommand(newProjectListCmd())
	return cmd
}

func newProjectCreateCmd() *cobra.Command {
	var ws, id, name, lead, clientName, description string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
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
				id = "p-" + fmt.Sprintf("%d", time.Now().UnixNano())
			}
			p := models.Project{
				ID:          id,
				Name:        name,
				Lead:        lead,
				Client:      clientName,
				Description: description,
				Status:      models.ProjectActive,
				CreatedAt:   time.Now().UTC(),
			}
			if err := st.PutProject(cmd.Context(), ws, p); err != nil {
				return err
			}
			author := lead
			if author == "" {
				author = "SYSTEM"
			}
			_, _ = st.AppendActivity(cmd.Context(), ws, models.ActivityEntry{
				Source:  models.SourceProject,
				Author:  author,
				Content: "New mission initiated: " + p.Name,
			})
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created project %s in workspace %s\n", p.ID, ws)
			return nil
		},
	}
	cmd.Flags().StringVar(&ws, "workspace", "", "Workspace ID")
	cmd.Flags().StringVar(&id, "id", "", "Project ID (generated if empty)")
	cmd.Flags().StringVar(&name, "name", "", "Project name")
	cmd.Flags().StringVar(&lead, "lead", "", "Project lead")
	cmd.Flags().StringVar(&clientName, "client", "", "Client name")
	cmd.Flags().StringVar(&description, "description", "", "Project description")
	_ = cmd.MarkFlagRequired("workspace")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newProjectListCmd() *cobra.Command {
	var ws string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects in a workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ws == "" {
				return fmt.Errorf("--workspace is required")
			}
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			projects, err := st.ListProjects(cmd.Context(), ws)
			if err != nil {
				return err
			}
			for _, p := range projects {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  [%s]  lead=%s\n", p.ID, p.Name, p.Status, p.Lead)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&ws, "workspace", "", "Workspace ID")
	_ = cmd.MarkFlagRequired("workspace")
	return cmd
}
