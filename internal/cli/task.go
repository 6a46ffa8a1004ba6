package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/DesmondSol/speedops/internal/activity"
	"github.com/DesmondSol/speedops/internal/config"
	"github.com/DesmondSol/speedops/internal/stage"
	"github.com/DesmondSol/speedops/internal/workflow"
	"github.com/DesmondSol/speedops/pkg/models"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}
	cmd.AddCommand(newTaskCreateCmd())
	cmd.AddCommand(newTaskListCmd())
	cmd.AddCommand(newTaskMoveCmd())
	cmd.AddCommand(newTaskCommentCmd())
	cmd.AddCommand(newTaskArchiveCmd())
	return cmd
}

// pipelineGraph loads the configured pipeline, or the built-in six stages.
func pipelineGraph(cmd *cobra.Command) (*stage.Graph, error) {
	home := config.MustHomeFrom(cmd.Context())
	settings, err := config.LoadSettings(home)
	if err != nil {
		return nil, err
	}
	if settings.PipelineYML != "" {
		return stage.Load(settings.PipelineYML)
	}
	return stage.Default(), nil
}

func newTaskCreateCmd() *cobra.Command {
	var ws, id, name, project, assignee, description string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task in the pipeline's first stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ws == "" || name == "" {
				return fmt.Errorf("--workspace and --name are required")
			}
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()
			graph, err := pipelineGraph(cmd)
			if err != nil {
				return err
			}

			if id == "" {
				id = fmt.Sprintf("t-%d", time.Now().UnixNano())
			}
			task, err := st.PutTask(cmd.Context(), ws, models.Task{
				ID:          id,
				ProjectID:   project,
				Name:        name,
				Description: description,
				AssigneeID:  assignee,
				Status:      graph.Initial(),
			}, nil)
			if err != nil {
				return err
			}
			author := "SYSTEM"
			if assignee != "" {
				if m, err := st.GetMember(cmd.Context(), ws, assignee); err == nil && m.Name != "" {
					author = m.Name
				}
			}
			_, _ = st.AppendActivity(cmd.Context(), ws, models.ActivityEntry{
				Source:  models.SourceTask,
				Author:  author,
				Content: "Unit " + task.Name + " launched",
			})
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created task %s (%s)\n", task.ID, task.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&ws, "workspace", "", "Workspace ID")
	cmd.Flags().StringVar(&id, "id", "", "Task ID (generated if empty)")
	cmd.Flags().StringVar(&name, "name", "", "Task name")
	cmd.Flags().StringVar(&project, "project", "", "Project ID")
	cmd.Flags().StringVar(&assignee, "assignee", "", "Assignee member ID")
	cmd.Flags().StringVar(&description, "description", "", "Task description")
	_ = cmd.MarkFlagRequired("workspace")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newTaskListCmd() *cobra.Command {
	var ws string
	var includeArchived bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks in a workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ws == "" {
				return fmt.Errorf("--workspace is required")
			}
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			tasks, err := st.ListTasks(cmd.Context(), ws, includeArchived)
			if err != nil {
				return err
			}
			for _, t := range tasks {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  [%s]  assignee=%s proofs=%d\n",
					t.ID, t.Name, t.Status, t.AssigneeID, len(t.Proofs))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&ws, "workspace", "", "Workspace ID")
	cmd.Flags().BoolVar(&includeArchived, "archived", false, "Include archived tasks")
	_ = cmd.MarkFlagRequired("workspace")
	return cmd
}

func newTaskMoveCmd() *cobra.Command {
	var ws, id, to, proof, note, nextAssignee string
	var requireProof bool
	cmd := &cobra.Command{
		Use:   "move",
		Short: "Move a task to another stage, stamping a proof for the stage being exited",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ws == "" || id == "" || to == "" {
				return fmt.Errorf("--workspace, --id, and --to are required")
			}
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()
			graph, err := pipelineGraph(cmd)
			if err != nil {
				return err
			}

			rec := activity.NewRecorder(st, nil)
			gate := &workflow.Gate{Store: st, Graph: graph, Recorder: rec, RequireProof: requireProof}
			task, err := gate.Transition(cmd.Context(), ws, id, to, workflow.Evidence{
				ProofLink:    proof,
				Note:         note,
				NextAssignee: nextAssignee,
			}, nil)
			rec.Close() // flush the feed entry before exiting
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Task %s moved to %s (%d proofs)\n", task.ID, task.Status, len(task.Proofs))
			return nil
		},
	}
	cmd.Flags().StringVar(&ws, "workspace", "", "Workspace ID")
	cmd.Flags().StringVar(&id, "id", "", "Task ID")
	cmd.Flags().StringVar(&to, "to", "", "Target stage")
	cmd.Flags().StringVar(&proof, "proof", "", "Proof link (recorded as N/A if empty)")
	cmd.Flags().StringVar(&note, "note", "", "Handoff note")
	cmd.Flags().StringVar(&nextAssignee, "next-assignee", "", "Reassign on transition")
	cmd.Flags().BoolVar(&requireProof, "require-proof", false, "Fail instead of degrading to an N/A proof")
	_ = cmd.MarkFlagRequired("workspace")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newTaskCommentCmd() *cobra.Command {
	var ws, id, author, content, tag string
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Add a tagged comment to a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ws == "" || id == "" || content == "" {
				return fmt.Errorf("--workspace, --id, and --content are required")
			}
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()
			graph, err := pipelineGraph(cmd)
			if err != nil {
				return err
			}

			gate := &workflow.Gate{Store: st, Graph: graph}
			task, err := gate.AppendComment(cmd.Context(), ws, id, models.TaskComment{
				AuthorID: author,
				Content:  content,
				Tag:      tag,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Commented on task %s (%d comments)\n", task.ID, len(task.Comments))
			return nil
		},
	}
	cmd.Flags().StringVar(&ws, "workspace", "", "Workspace ID")
	cmd.Flags().StringVar(&id, "id", "", "Task ID")
	cmd.Flags().StringVar(&author, "author", "", "Author member ID")
	cmd.Flags().StringVar(&content, "content", "", "Comment text")
	cmd.Flags().StringVar(&tag, "tag", "", "Tag: Error, Bug, Incomplete, UI/UX, Improvement, Note (default)")
	_ = cmd.MarkFlagRequired("workspace")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

func newTaskArchiveCmd() *cobra.Command {
	var ws, id string
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Archive a task (hidden from default listings)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ws == "" || id == "" {
				return fmt.Errorf("--workspace and --id are required")
			}
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			if _, err := st.UpdateTaskFields(cmd.Context(), ws, id, map[string]any{"archived": true}); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Archived task %s\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&ws, "workspace", "", "Workspace ID")
	cmd.Flags().StringVar(&id, "id", "", "Task ID")
	_ = cmd.MarkFlagRequired("workspace")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
