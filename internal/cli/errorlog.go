package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/DesmondSol/speedops/internal/ingest"
	"github.com/DesmondSol/speedops/pkg/models"
)

func newErrorlogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "errorlog",
		Short: "Manage the error queue",
	}
	cmd.AddCommand(newErrorlogFileCmd())
	cmd.AddCommand(newErrorlogListCmd())
	cmd.AddCommand(newErrorlogResolveCmd())
	return cmd
}

func newErrorlogFileCmd() *cobra.Command {
	var ws, id, title, description, project, author, severity string
	cmd := &cobra.Command{
		Use:   "file",
		Short: "File a native error record",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ws == "" || title == "" {
				return fmt.Errorf("--workspace and --title are required")
			}
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			if id == "" {
				id = fmt.Sprintf("e-%d", time.Now().UnixNano())
			}
			if ingest.IsSynthetic(id) {
				return fmt.Errorf("id prefix %q is reserved for derived entries", "ingested-")
			}
			if severity == "" {
				severity = models.SeverityMedium
			}
			e := models.ErrorLog{
				ID:          id,
				ProjectID:   project,
				Title:       title,
				Description: description,
				AuthorID:    author,
				Severity:    severity,
				Status:      models.ErrorActive,
				Timestamp:   time.Now().UTC(),
			}
			if err := st.PutErrorLog(cmd.Context(), ws, e); err != nil {
				return err
			}
			reporter := "SYSTEM"
			if author != "" {
				if m, err := st.GetMember(cmd.Context(), ws, author); err == nil && m.Name != "" {
					reporter = m.Name
				}
			}
			_, _ = st.AppendActivity(cmd.Context(), ws, models.ActivityEntry{
				Source:  models.SourceError,
				Author:  reporter,
				Content: "Threat marker signaled: " + e.Title,
			})
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Filed error %s\n", e.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&ws, "workspace", "", "Workspace ID")
	cmd.Flags().StringVar(&id, "id", "", "Error ID (generated if empty)")
	cmd.Flags().StringVar(&title, "title", "", "Error title")
	cmd.Flags().StringVar(&description, "description", "", "Error description")
	cmd.Flags().StringVar(&project, "project", "", "Project ID")
	cmd.Flags().StringVar(&author, "author", "", "Reporter member ID")
	cmd.Flags().StringVar(&severity, "severity", "", "Severity: Low, Medium (default), High, Critical")
	_ = cmd.MarkFlagRequired("workspace")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newErrorlogListCmd() *cobra.Command {
	var ws string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the unified error queue (native + entries derived from Error/Bug comments)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ws == "" {
				return fmt.Errorf("--workspace is required")
			}
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			native, err := st.ListErrorLogs(cmd.Context(), ws)
			if err != nil {
				return err
			}
			tasks, err := st.ListTasks(cmd.Context(), ws, false)
			if err != nil {
				return err
			}
			for _, entry := range ingest.Queue(native, tasks) {
				e := entry.Error
				suffix := ""
				if entry.Kind == models.ErrorKindSynthetic {
					suffix = "  task=" + entry.TaskID
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  [%s/%s]  %s (%s)%s\n",
					e.ID, e.Severity, e.Status, e.Title, entry.Kind, suffix)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&ws, "workspace", "", "Workspace ID")
	_ = cmd.MarkFlagRequired("workspace")
	return cmd
}

func newErrorlogResolveCmd() *cobra.Command {
	var ws, id, resolvedBy, commitLink string
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a native error record",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ws == "" || id == "" {
				return fmt.Errorf("--workspace and --id are required")
			}
			if ingest.IsSynthetic(id) {
				return fmt.Errorf("synthetic entries are resolved by editing the source comment")
			}
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			e, err := st.UpdateErrorLogFields(cmd.Context(), ws, id, map[string]any{
				"status":      models.ErrorResolved,
				"resolved_by": resolvedBy,
				"commit_link": commitLink,
			})
			if err != nil {
				return err
			}
			resolver := "SYSTEM"
			if resolvedBy != "" {
				if m, err := st.GetMember(cmd.Context(), ws, resolvedBy); err == nil && m.Name != "" {
					resolver = m.Name
				}
			}
			_, _ = st.AppendActivity(cmd.Context(), ws, models.ActivityEntry{
				Source:  models.SourceError,
				Author:  resolver,
				Content: "Threat neutralized: " + e.Title,
			})
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Resolved error %s\n", e.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&ws, "workspace", "", "Workspace ID")
	cmd.Flags().StringVar(&id, "id", "", "Error ID")
	cmd.Flags().StringVar(&resolvedBy, "by", "", "Resolver member ID")
	cmd.Flags().StringVar(&commitLink, "commit", "", "Fix commit link")
	_ = cmd.MarkFlagRequired("workspace")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
