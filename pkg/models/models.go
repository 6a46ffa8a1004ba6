// Package models provides shared types for the speedOps HTTP API and external tools.
// These types mirror the API JSON and are stable for use by pkg/client and other consumers.
package models

import "time"

// Workspace is the tenant boundary; every entity collection is scoped under one.
type Workspace struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	OwnerID    string    `json:"owner_id"`
	Members    []string  `json:"members,omitempty"`
	InviteCode string    `json:"invite_code,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// TaskProof is the evidence record appended on every completed stage transition.
// Stage is the state being exited, not the one being entered.
type TaskProof struct {
	Stage     string    `json:"stage"`
	Link      string    `json:"link"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

// TaskComment is a tagged remark on a task. The comment list is newest-first.
type TaskComment struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	AuthorRole string    `json:"author_role,omitempty"`
	Content    string    `json:"content"`
	Tag        string    `json:"tag"`
	Timestamp  time.Time `json:"timestamp"`
}

// Timeline is an informational start/end window. Zero times mean the task is
// not scheduled.
type Timeline struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Task is the unit of trackable work. Version is bumped by the store on every
// full write; it backs the optional compare-and-swap precondition and is not
// part of the observed last-write-wins contract.
type Task struct {
	ID                 string        `json:"id"`
	ProjectID          string        `json:"project_id"`
	Name               string        `json:"name"`
	Description        string        `json:"description,omitempty"`
	AssigneeID         string        `json:"assignee_id,omitempty"`
	Status             string        `json:"status"`
	AcceptanceCriteria []string      `json:"acceptance_criteria,omitempty"`
	FeatureOrigin      string        `json:"feature_origin,omitempty"`
	Proofs             []TaskProof   `json:"proofs,omitempty"`
	Comments           []TaskComment `json:"comments,omitempty"`
	Timeline           Timeline      `json:"timeline"`
	Archived           bool          `json:"archived,omitempty"`
	Version            int64         `json:"version,omitempty"`
	CreatedAt          time.Time     `json:"created_at,omitempty"`
	UpdatedAt          time.Time     `json:"updated_at,omitempty"`
}

// TeamAssignment binds a member to a project with roles.
type TeamAssignment struct {
	MemberID       string   `json:"member_id"`
	Roles          []string `json:"roles,omitempty"`
	Responsibility string   `json:"responsibility,omitempty"`
}

// Project is a client engagement grouping tasks and milestones.
type Project struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Client          string           `json:"client,omitempty"`
	ClientID        string           `json:"client_id,omitempty"`
	Status          string           `json:"status"`
	Stage           string           `json:"stage,omitempty"`
	Progress        int              `json:"progress,omitempty"`
	Lead            string           `json:"lead,omitempty"`
	DealOwner       string           `json:"deal_owner,omitempty"`
	Description     string           `json:"description,omitempty"`
	Objectives      []string         `json:"objectives,omitempty"`
	TeamAssignments []TeamAssignment `json:"team_assignments,omitempty"`
	Brief           string           `json:"brief,omitempty"`
	CreatedAt       time.Time        `json:"created_at,omitempty"`
}

// TeamMember is a person in the workspace roster.
type TeamMember struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Roles        []string  `json:"roles,omitempty"`
	Status       string    `json:"status,omitempty"`
	CurrentTask  string    `json:"current_task,omitempty"`
	Availability string    `json:"availability,omitempty"`
	Timezone     string    `json:"timezone,omitempty"`
	Specialties  []string  `json:"specialties,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	JoinDate     time.Time `json:"join_date,omitempty"`
	Archived     bool      `json:"archived,omitempty"`
}

// Milestone is a dated marker on a project schedule.
type Milestone struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Deadline    string    `json:"deadline"` // YYYY-MM-DD
	OwnerID     string    `json:"owner_id,omitempty"`
	Urgency     string    `json:"urgency,omitempty"`
	Archived    bool      `json:"archived,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// Client is an external customer record.
type Client struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Industry      string    `json:"industry,omitempty"`
	ContactPerson string    `json:"contact_person,omitempty"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Status        string    `json:"status,omitempty"`
	Description   string    `json:"description,omitempty"`
	TotalBudget   string    `json:"total_budget,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
}

// ErrorLog is a natively filed error-queue record. Synthetic entries derived
// from task comments share this shape but are never persisted.
type ErrorLog struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"project_id,omitempty"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	AuthorID     string    `json:"author_id,omitempty"`
	AssignedToID string    `json:"assigned_to_id,omitempty"`
	Severity     string    `json:"severity"`
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	ResolvedBy   string    `json:"resolved_by,omitempty"`
	CommitLink   string    `json:"commit_link,omitempty"`
}

// ActivityEntry is one line of the append-only audit feed.
type ActivityEntry struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Timestamp string    `json:"timestamp,omitempty"` // display time (HH:MM)
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// ErrorEntry is one row of the unified error queue: either a persisted native
// record or a synthetic entry derived from a tagged task comment.
type ErrorEntry struct {
	Kind   string   `json:"kind"` // "native" or "synthetic"
	Error  ErrorLog `json:"error"`
	TaskID string   `json:"task_id,omitempty"` // owning task for synthetic entries
}

// ErrorEntry kinds.
const (
	ErrorKindNative    = "native"
	ErrorKindSynthetic = "synthetic"
)

// Breakdown is the structured output of the AI task-breakdown call.
type Breakdown struct {
	Features   []Feature       `json:"features"`
	Milestones []MilestonePlan `json:"milestones"`
}

// Feature groups planned tasks under a feature name.
type Feature struct {
	FeatureName string     `json:"featureName"`
	Tasks       []TaskPlan `json:"tasks"`
}

// TaskPlan is one planned task inside a feature.
type TaskPlan struct {
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	AssigneeID         string   `json:"assigneeId"`
	AcceptanceCriteria []string `json:"acceptanceCriteria"`
	StartDay           int      `json:"startDay"`
	EndDay             int      `json:"endDay"`
}

// MilestonePlan is one planned milestone; DayOffset is days from now.
type MilestonePlan struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DayOffset   int    `json:"dayOffset"`
	Urgency     string `json:"urgency"`
}

// Config is the /config API response.
type Config struct {
	HumanName   string `json:"human_name,omitempty"`
	Home        string `json:"home,omitempty"`
	BootstrapID string `json:"bootstrap_id,omitempty"`
}

// Bootstrap is the /bootstrap API response.
type Bootstrap struct {
	Config           Config          `json:"config"`
	Workspaces       []Workspace     `json:"workspaces"`
	InitialWorkspace *string         `json:"initial_workspace,omitempty"`
	Projects         []Project       `json:"projects,omitempty"`
	Tasks            []Task          `json:"tasks,omitempty"`
	Members          []TeamMember    `json:"members,omitempty"`
	Milestones       []Milestone     `json:"milestones,omitempty"`
	Clients          []Client        `json:"clients,omitempty"`
	Errors           []ErrorEntry    `json:"errors,omitempty"`
	Activity         []ActivityEntry `json:"activity,omitempty"`
}
