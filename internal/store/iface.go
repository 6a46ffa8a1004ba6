package store

import (
	"context"
	"errors"

	"github.com/DesmondSol/speedops/pkg/models"
)

// ErrNotFound is returned when a workspace or document does not exist.
var ErrNotFound = errors.New("not found")

// ErrVersionConflict is returned by PutTask when expectedVersion is set and
// the stored task has moved on. With a nil expectedVersion writes are
// last-write-wins, matching the store's default contract.
var ErrVersionConflict = errors.New("version conflict")

// Store is the persistence gateway for workspaces and their entity
// collections. Implementations: the SQLite store in this package and
// *postgres.Store. Documents are written whole (full upsert) except for the
// explicit partial-patch operations; no transactional guarantee exists across
// documents (a task write and its activity entry are independent).
type Store interface {
	// Workspaces
	CreateWorkspace(ctx context.Context, name, ownerID string) (models.Workspace, error)
	GetWorkspace(ctx context.Context, id string) (models.Workspace, error)
	GetWorkspaceByInviteCode(ctx context.Context, code string) (models.Workspace, error)
	ListWorkspaces(ctx context.Context) ([]models.Workspace, error)
	AddWorkspaceMember(ctx context.Context, id, memberID string) error
	DeleteWorkspace(ctx context.Context, id string) error

	// Tasks. PutTask is a full-document upsert that bumps the version stamp;
	// a non-nil expectedVersion turns it into a compare-and-swap.
	PutTask(ctx context.Context, ws string, t models.Task, expectedVersion *int64) (models.Task, error)
	UpdateTaskFields(ctx context.Context, ws, id string, fields map[string]any) (*models.Task, error)
	GetTask(ctx context.Context, ws, id string) (*models.Task, error)
	ListTasks(ctx context.Context, ws string, includeArchived bool) ([]models.Task, error)

	// Projects
	PutProject(ctx context.Context, ws string, p models.Project) error
	GetProject(ctx context.Context, ws, id string) (*models.Project, error)
	ListProjects(ctx context.Context, ws string) ([]models.Project, error)

	// Members
	PutMember(ctx context.Context, ws string, m models.TeamMember) error
	GetMember(ctx context.Context, ws, id string) (*models.TeamMember, error)
	ListMembers(ctx context.Context, ws string) ([]models.TeamMember, error)

	// Milestones
	PutMilestone(ctx context.Context, ws string, m models.Milestone) error
	ListMilestones(ctx context.Context, ws string) ([]models.Milestone, error)

	// Clients
	PutClient(ctx context.Context, ws string, c models.Client) error
	ListClients(ctx context.Context, ws string) ([]models.Client, error)

	// Error logs (natively filed records only; synthetic entries are derived
	// on read by the ingestion bridge and never stored).
	PutErrorLog(ctx context.Context, ws string, e models.ErrorLog) error
	UpdateErrorLogFields(ctx context.Context, ws, id string, fields map[string]any) (*models.ErrorLog, error)
	GetErrorLog(ctx context.Context, ws, id string) (*models.ErrorLog, error)
	ListErrorLogs(ctx context.Context, ws string) ([]models.ErrorLog, error)
	DeleteErrorLog(ctx context.Context, ws, id string) error

	// Activity (append-only, reverse-chronological reads, capped at 50)
	AppendActivity(ctx context.Context, ws string, e models.ActivityEntry) (models.ActivityEntry, error)
	ListActivity(ctx context.Context, ws string, limit int) ([]models.ActivityEntry, error)

	Close() error
}

// Collection names used by the document table and SSE event payloads.
const (
	CollTasks      = "tasks"
	CollProjects   = "projects"
	CollMembers    = "members"
	CollMilestones = "milestones"
	CollClients    = "clients"
	CollErrors     = "errors"
	CollActivity   = "activity"
)
