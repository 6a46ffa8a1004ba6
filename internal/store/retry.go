package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/DesmondSol/speedops/pkg/models"
)

// retryingStore decorates a Store with exponential backoff on transient
// failures (SQLite busy/locked, dropped Postgres connections). Domain errors
// like ErrNotFound and ErrVersionConflict are never retried.
type retryingStore struct {
	inner Store
}

// WithRetry wraps s so that transient backend errors are retried with
// exponential backoff, bounded by the caller's context.
func WithRetry(s Store) Store {
	if _, ok := s.(*retryingStore); ok {
		return s
	}
	return &retryingStore{inner: s}
}

// newBackOff returns a fresh policy per operation; backoff state must not be
// shared across concurrent calls.
func newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = 10 * time.Second
	return bo
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrVersionConflict) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, frag := range []string{
		"database is locked",
		"database table is locked",
		"sqlite_busy",
		"connection refused",
		"connection reset",
		"broken pipe",
		"conn closed",
		"unexpected eof",
	} {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}

func retry(ctx context.Context, op func() error) error {
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(newBackOff(), ctx))
}

func retryValue[T any](ctx context.Context, op func() (T, error)) (T, error) {
	var out T
	err := retry(ctx, func() error {
		var err error
		out, err = op()
		return err
	})
	return out, err
}

func (r *retryingStore) CreateWorkspace(ctx context.Context, name, ownerID string) (models.Workspace, error) {
	return retryValue(ctx, func() (models.Workspace, error) { return r.inner.CreateWorkspace(ctx, name, ownerID) })
}

func (r *retryingStore) GetWorkspace(ctx context.Context, id string) (models.Workspace, error) {
	return retryValue(ctx, func() (models.Workspace, error) { return r.inner.GetWorkspace(ctx, id) })
}

func (r *retryingStore) GetWorkspaceByInviteCode(ctx context.Context, code string) (models.Workspace, error) {
	return retryValue(ctx, func() (models.Workspace, error) { return r.inner.GetWorkspaceByInviteCode(ctx, code) })
}

func (r *retryingStore) ListWorkspaces(ctx context.Context) ([]models.Workspace, error) {
	return retryValue(ctx, func() ([]models.Workspace, error) { return r.inner.ListWorkspaces(ctx) })
}

func (r *retryingStore) AddWorkspaceMember(ctx context.Context, id, memberID string) error {
	return retry(ctx, func() error { return r.inner.AddWorkspaceMember(ctx, id, memberID) })
}

func (r *retryingStore) DeleteWorkspace(ctx context.Context, id string) error {
	return retry(ctx, func() error { return r.inner.DeleteWorkspace(ctx, id) })
}

func (r *retryingStore) PutTask(ctx context.Context, ws string, t models.Task, expectedVersion *int64) (models.Task, error) {
	return retryValue(ctx, func() (models.Task, error) { return r.inner.PutTask(ctx, ws, t, expectedVersion) })
}

func (r *retryingStore) UpdateTaskFields(ctx context.Context, ws, id string, fields map[string]any) (*models.Task, error) {
	return retryValue(ctx, func() (*models.Task, error) { return r.inner.UpdateTaskFields(ctx, ws, id, fields) })
}

func (r *retryingStore) GetTask(ctx context.Context, ws, id string) (*models.Task, error) {
	return retryValue(ctx, func() (*models.Task, error) { return r.inner.GetTask(ctx, ws, id) })
}

func (r *retryingStore) ListTasks(ctx context.Context, ws string, includeArchived bool) ([]models.Task, error) {
	return retryValue(ctx, func() ([]models.Task, error) { return r.inner.ListTasks(ctx, ws, includeArchived) })
}

func (r *retryingStore) PutProject(ctx context.Context, ws string, p models.Project) error {
	return retry(ctx, func() error { return r.inner.PutProject(ctx, ws, p) })
}

func (r *retryingStore) GetProject(ctx context.Context, ws, id string) (*models.Project, error) {
	return retryValue(ctx, func() (*models.Project, error) { return r.inner.GetProject(ctx, ws, id) })
}

func (r *retryingStore) ListProjects(ctx context.Context, ws string) ([]models.Project, error) {
	return retryValue(ctx, func() ([]models.Project, error) { return r.inner.ListProjects(ctx, ws) })
}

func (r *retryingStore) PutMember(ctx context.Context, ws string, m models.TeamMember) error {
	return retry(ctx, func() error { return r.inner.PutMember(ctx, ws, m) })
}

func (r *retryingStore) GetMember(ctx context.Context, ws, id string) (*models.TeamMember, error) {
	return retryValue(ctx, func() (*models.TeamMember, error) { return r.inner.GetMember(ctx, ws, id) })
}

func (r *retryingStore) ListMembers(ctx context.Context, ws string) ([]models.TeamMember, error) {
	return retryValue(ctx, func() ([]models.TeamMember, error) { return r.inner.ListMembers(ctx, ws) })
}

func (r *retryingStore) PutMilestone(ctx context.Context, ws string, m models.Milestone) error {
	return retry(ctx, func() error { return r.inner.PutMilestone(ctx, ws, m) })
}

func (r *retryingStore) ListMilestones(ctx context.Context, ws string) ([]models.Milestone, error) {
	return retryValue(ctx, func() ([]models.Milestone, error) { return r.inner.ListMilestones(ctx, ws) })
}

func (r *retryingStore) PutClient(ctx context.Context, ws string, c models.Client) error {
	return retry(ctx, func() error { return r.inner.PutClient(ctx, ws, c) })
}

func (r *retryingStore) ListClients(ctx context.Context, ws string) ([]models.Client, error) {
	return retryValue(ctx, func() ([]models.Client, error) { return r.inner.ListClients(ctx, ws) })
}

func (r *retryingStore) PutErrorLog(ctx context.Context, ws string, e models.ErrorLog) error {
	return retry(ctx, func() error { return r.inner.PutErrorLog(ctx, ws, e) })
}

func (r *retryingStore) UpdateErrorLogFields(ctx context.Context, ws, id string, fields map[string]any) (*models.ErrorLog, error) {
	return retryValue(ctx, func() (*models.ErrorLog, error) { return r.inner.UpdateErrorLogFields(ctx, ws, id, fields) })
}

func (r *retryingStore) GetErrorLog(ctx context.Context, ws, id string) (*models.ErrorLog, error) {
	return retryValue(ctx, func() (*models.ErrorLog, error) { return r.inner.GetErrorLog(ctx, ws, id) })
}

func (r *retryingStore) ListErrorLogs(ctx context.Context, ws string) ([]models.ErrorLog, error) {
	return retryValue(ctx, func() ([]models.ErrorLog, error) { return r.inner.ListErrorLogs(ctx, ws) })
}

func (r *retryingStore) DeleteErrorLog(ctx context.Context, ws, id string) error {
	return retry(ctx, func() error { return r.inner.DeleteErrorLog(ctx, ws, id) })
}

func (r *retryingStore) AppendActivity(ctx context.Context, ws string, e models.ActivityEntry) (models.ActivityEntry, error) {
	return retryValue(ctx, func() (models.ActivityEntry, error) { return r.inner.AppendActivity(ctx, ws, e) })
}

func (r *retryingStore) ListActivity(ctx context.Context, ws string, limit int) ([]models.ActivityEntry, error) {
	return retryValue(ctx, func() ([]models.ActivityEntry, error) { return r.inner.ListActivity(ctx, ws, limit) })
}

func (r *retryingStore) Close() error { return r.inner.Close() }
