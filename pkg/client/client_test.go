package client

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DesmondSol/speedops/internal/httpapi"
	"github.com/DesmondSol/speedops/pkg/models"
)

func newServer(t *testing.T, opts httpapi.ServerOptions) (*httpapi.App, *Client) {
	t.Helper()
	t.Setenv("ANTHROPIC_API_KEY", "")
	if opts.Home == "" {
		opts.Home = t.TempDir()
	}
	app, err := httpapi.NewApp(opts)
	require.NoError(t, err)
	srv := httptest.NewServer(app.Server.Handler)
	t.Cleanup(func() {
		srv.Close()
		app.Recorder.Close()
		_ = app.Store.Close()
	})
	return app, New(srv.URL, opts.APIKey)
}

func TestClient_workspaceRoundTrip(t *testing.T) {
	_, c := newServer(t, httpapi.ServerOptions{})
	ctx := context.Background()

	ok, err := c.Health(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ws, err := c.CreateWorkspace(ctx, "acme", "owner-1")
	require.NoError(t, err)
	assert.NotEmpty(t, ws.InviteCode)

	joined, err := c.JoinWorkspace(ctx, ws.InviteCode, "m-2")
	require.NoError(t, err)
	assert.Contains(t, joined.Members, "m-2")

	list, err := c.ListWorkspaces(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, c.DeleteWorkspace(ctx, ws.ID))
	_, err = c.GetWorkspace(ctx, ws.ID)
	assert.Error(t, err)
}

func TestClient_taskLifecycle(t *testing.T) {
	_, c := newServer(t, httpapi.ServerOptions{})
	ctx := context.Background()
	ws, err := c.CreateWorkspace(ctx, "acme", "owner-1")
	require.NoError(t, err)

	task, err := c.CreateTask(ctx, ws.ID, models.Task{ID: "t1", Name: "login flow"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusBacklog, task.Status)

	moved, err := c.Transition(ctx, ws.ID, "t1", TransitionRequest{
		To:        models.StatusInProgress,
		ProofLink: "https://example.com/pr/1",
		Note:      "kickoff",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, moved.Status)
	require.Len(t, moved.Proofs, 1)
	assert.Equal(t, models.StatusBacklog, moved.Proofs[0].Stage)

	// Stale CAS surfaces as an error carrying the server message.
	stale := task.Version
	_, err = c.Transition(ctx, ws.ID, "t1", TransitionRequest{To: models.StatusTesting, ExpectedVersion: &stale})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflict")

	withComment, err := c.AppendComment(ctx, ws.ID, "t1", models.TaskComment{AuthorID: "qa-1", Content: "broken", Tag: models.TagError})
	require.NoError(t, err)
	require.Len(t, withComment.Comments, 1)

	queue, err := c.Errors(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, models.ErrorKindSynthetic, queue[0].Kind)
	assert.Equal(t, "t1", queue[0].TaskID)

	patched, err := c.PatchTask(ctx, ws.ID, "t1", map[string]any{"description": "x"})
	require.NoError(t, err)
	assert.Equal(t, "x", patched.Description)

	_, err = c.ArchiveTask(ctx, ws.ID, "t1")
	require.NoError(t, err)
	tasks, err := c.ListTasks(ctx, ws.ID, false)
	require.NoError(t, err)
	assert.Empty(t, tasks)
	tasks, err = c.ListTasks(ctx, ws.ID, true)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestClient_errorQueueAndActivity(t *testing.T) {
	_, c := newServer(t, httpapi.ServerOptions{})
	ctx := context.Background()
	ws, err := c.CreateWorkspace(ctx, "acme", "owner-1")
	require.NoError(t, err)

	filed, err := c.FileError(ctx, ws.ID, models.ErrorLog{ID: "e1", Title: "prod crash"})
	require.NoError(t, err)
	assert.Equal(t, models.ErrorActive, filed.Status)

	resolved, err := c.ResolveError(ctx, ws.ID, "e1", "dev-1", "https://example.com/c/9")
	require.NoError(t, err)
	assert.Equal(t, models.ErrorResolved, resolved.Status)

	_, err = c.ResolveError(ctx, ws.ID, "ingested-c1", "dev-1", "")
	assert.Error(t, err, "synthetic entries cannot be resolved")

	require.NoError(t, c.DeleteError(ctx, ws.ID, "e1"))
}

func TestClient_apiKeyHeader(t *testing.T) {
	_, c := newServer(t, httpapi.ServerOptions{APIKey: "sekrit"})
	ctx := context.Background()

	_, err := c.CreateWorkspace(ctx, "acme", "owner-1")
	require.NoError(t, err)

	bare := New(c.BaseURL, "")
	_, err = bare.ListWorkspaces(ctx)
	assert.Error(t, err)
}

func TestClient_bootstrapAndBrief(t *testing.T) {
	_, c := newServer(t, httpapi.ServerOptions{})
	ctx := context.Background()
	ws, err := c.CreateWorkspace(ctx, "acme", "owner-1")
	require.NoError(t, err)
	_, err = c.CreateProject(ctx, ws.ID, models.Project{ID: "p1", Name: "apollo"}, nil)
	require.NoError(t, err)

	boot, err := c.Bootstrap(ctx)
	require.NoError(t, err)
	require.NotNil(t, boot.InitialWorkspace)
	assert.Equal(t, ws.ID, *boot.InitialWorkspace)
	assert.Len(t, boot.Projects, 1)

	res, err := c.GenerateBrief(ctx, ws.ID, "p1")
	require.NoError(t, err)
	assert.False(t, res.AI)
	assert.Contains(t, res.Brief, "apollo")
}
