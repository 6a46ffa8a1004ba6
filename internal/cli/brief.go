package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DesmondSol/speedops/internal/brief"
	"github.com/DesmondSol/speedops/internal/config"
)

func newBriefCmd() *cobra.Command {
	var ws, projectID string
	cmd := &cobra.Command{
		Use:   "brief",
		Short: "Generate (and persist) a project brief",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ws == "" || projectID == "" {
				return fmt.Errorf("--workspace and --project are required")
			}
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			home := config.MustHomeFrom(cmd.Context())
			settings, err := config.LoadSettings(home)
			if err != nil {
				return err
			}
			svc, err := brief.NewService("", settings.AIModel, nil)
			if err != nil {
				return err
			}

			p, err := st.GetProject(cmd.Context(), ws, projectID)
			if err != nil {
				return err
			}
			members, _ := st.ListMembers(cmd.Context(), ws)
			text := svc.GenerateBrief(cmd.Context(), *p, members)
			p.Brief = text
			if err := st.PutProject(cmd.Context(), ws, *p); err != nil {
				return err
			}
			if !svc.Enabled() {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "note: ANTHROPIC_API_KEY not set; wrote a placeholder brief")
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().StringVar(&ws, "workspace", "", "Workspace ID")
	cmd.Flags().StringVar(&projectID, "project", "", "Project ID")
	_ = cmd.MarkFlagRequired("workspace")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
