package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DesmondSol/speedops/pkg/models"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestWorkspaceLifecycle(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	ws, err := s.CreateWorkspace(ctx, "acme", "owner-1")
	require.NoError(t, err)
	assert.NotEmpty(t, ws.ID)
	assert.Len(t, ws.InviteCode, 8)
	assert.Equal(t, []string{"owner-1"}, ws.Members)

	got, err := s.GetWorkspace(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, ws.Name, got.Name)

	byCode, err := s.GetWorkspaceByInviteCode(ctx, ws.InviteCode)
	require.NoError(t, err)
	assert.Equal(t, ws.ID, byCode.ID)

	require.NoError(t, s.AddWorkspaceMember(ctx, ws.ID, "dev-2"))
	// Joining twice is a no-op.
	require.NoError(t, s.AddWorkspaceMember(ctx, ws.ID, "dev-2"))
	got, err = s.GetWorkspace(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"owner-1", "dev-2"}, got.Members)

	all, err := s.ListWorkspaces(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, s.DeleteWorkspace(ctx, ws.ID))
	_, err = s.GetWorkspace(ctx, ws.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteWorkspace(ctx, ws.ID), ErrNotFound)
}

func TestPutTask_versioning(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	ws, err := s.CreateWorkspace(ctx, "acme", "owner-1")
	require.NoError(t, err)

	task, err := s.PutTask(ctx, ws.ID, models.Task{Name: "ship it", Status: models.StatusBacklog}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.EqualValues(t, 1, task.Version)
	assert.False(t, task.CreatedAt.IsZero())

	task.Status = models.StatusInProgress
	task, err = s.PutTask(ctx, ws.ID, task, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, task.Version)

	// Stale precondition loses.
	stale := int64(1)
	_, err = s.PutTask(ctx, ws.ID, task, &stale)
	assert.ErrorIs(t, err, ErrVersionConflict)

	// Matching precondition wins.
	cur := task.Version
	task.Status = models.StatusTesting
	task, err = s.PutTask(ctx, ws.ID, task, &cur)
	require.NoError(t, err)
	assert.EqualValues(t, 3, task.Version)

	// expectedVersion 0 asserts the document must not exist yet.
	zero := int64(0)
	_, err = s.PutTask(ctx, ws.ID, task, &zero)
	assert.ErrorIs(t, err, ErrVersionConflict)

	_, err = s.PutTask(ctx, "nope", models.Task{Name: "x"}, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskRoundTrip_preservesNestedDocuments(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	ws, err := s.CreateWorkspace(ctx, "acme", "owner-1")
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	in := models.Task{
		ID:        "t1",
		ProjectID: "p1",
		Name:      "login flow",
		Status:    models.StatusReview,
		Proofs: []models.TaskProof{
			{Stage: models.StatusTesting, Link: "N/A", Timestamp: now},
		},
		Comments: []models.TaskComment{
			{ID: "c1", AuthorID: "dev-2", Content: "crash on submit", Tag: models.TagBug, Timestamp: now},
		},
		Timeline: models.Timeline{Start: now, End: now.Add(48 * time.Hour)},
	}
	_, err = s.PutTask(ctx, ws.ID, in, nil)
	require.NoError(t, err)

	got, err := s.GetTask(ctx, ws.ID, "t1")
	require.NoError(t, err)
	assert.Equal(t, in.Proofs, got.Proofs)
	assert.Equal(t, in.Comments, got.Comments)
	assert.True(t, got.Timeline.End.Equal(in.Timeline.End))

	_, err = s.GetTask(ctx, ws.ID, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateTaskFields_patchAndDelete(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	ws, err := s.CreateWorkspace(ctx, "acme", "owner-1")
	require.NoError(t, err)

	_, err = s.PutTask(ctx, ws.ID, models.Task{ID: "t1", Name: "n", Status: models.StatusBacklog, AssigneeID: "dev-2"}, nil)
	require.NoError(t, err)

	got, err := s.UpdateTaskFields(ctx, ws.ID, "t1", map[string]any{
		"status":      models.StatusQA,
		"assignee_id": nil, // nil fields are stripped, i.e. deleted
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusQA, got.Status)
	assert.Empty(t, got.AssigneeID)
	assert.EqualValues(t, 2, got.Version)

	_, err = s.UpdateTaskFields(ctx, ws.ID, "missing", map[string]any{"status": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListTasks_archivedFilter(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	ws, err := s.CreateWorkspace(ctx, "acme", "owner-1")
	require.NoError(t, err)

	_, err = s.PutTask(ctx, ws.ID, models.Task{ID: "live", Name: "live", Status: models.StatusBacklog}, nil)
	require.NoError(t, err)
	_, err = s.PutTask(ctx, ws.ID, models.Task{ID: "old", Name: "old", Status: models.StatusCompleted, Archived: true}, nil)
	require.NoError(t, err)

	active, err := s.ListTasks(ctx, ws.ID, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "live", active[0].ID)

	all, err := s.ListTasks(ctx, ws.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestErrorLogCRUD(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	ws, err := s.CreateWorkspace(ctx, "acme", "owner-1")
	require.NoError(t, err)

	e := models.ErrorLog{ID: "e1", Title: "prod crash", Severity: models.SeverityHigh, Status: models.ErrorActive}
	require.NoError(t, s.PutErrorLog(ctx, ws.ID, e))

	got, err := s.UpdateErrorLogFields(ctx, ws.ID, "e1", map[string]any{
		"status":      models.ErrorResolved,
		"resolved_by": "dev-2",
		"commit_link": "https://example.com/c/abc",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ErrorResolved, got.Status)
	assert.Equal(t, "dev-2", got.ResolvedBy)

	list, err := s.ListErrorLogs(ctx, ws.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteErrorLog(ctx, ws.ID, "e1"))
	assert.ErrorIs(t, s.DeleteErrorLog(ctx, ws.ID, "e1"), ErrNotFound)
	_, err = s.GetErrorLog(ctx, ws.ID, "e1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestActivity_reverseChronCapped(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	ws, err := s.CreateWorkspace(ctx, "acme", "owner-1")
	require.NoError(t, err)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 55; i++ {
		_, err := s.AppendActivity(ctx, ws.ID, models.ActivityEntry{
			Source:    models.SourceTask,
			Author:    "SYSTEM",
			Content:   fmt.Sprintf("event %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	got, err := s.ListActivity(ctx, ws.ID, 0)
	require.NoError(t, err)
	require.Len(t, got, models.DefaultActivityListLimit)
	assert.Equal(t, "event 54", got[0].Content)
	assert.Equal(t, "event 5", got[len(got)-1].Content)

	few, err := s.ListActivity(ctx, ws.ID, 3)
	require.NoError(t, err)
	assert.Len(t, few, 3)

	// Requests above the cap are clamped.
	many, err := s.ListActivity(ctx, ws.ID, 500)
	require.NoError(t, err)
	assert.Len(t, many, models.DefaultActivityListLimit)
}

func TestAppendActivity_fillsDefaults(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	ws, err := s.CreateWorkspace(ctx, "acme", "owner-1")
	require.NoError(t, err)

	e, err := s.AppendActivity(ctx, ws.ID, models.ActivityEntry{Source: models.SourceProject, Author: "SYSTEM", Content: "Project kickoff"})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.CreatedAt.IsZero())
	assert.Equal(t, e.CreatedAt.Format("15:04"), e.Timestamp)
}
