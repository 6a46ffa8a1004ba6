// Package client provides a Go SDK for the speedOps HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/DesmondSol/speedops/pkg/models"
)

// Client calls the speedOps HTTP API. It is safe for concurrent use.
type Client struct {
	BaseURL    string       // e.g. "http://localhost:4519"
	APIKey     string       // optional; set for X-API-Key
	HTTPClient *http.Client // optional; nil uses http.DefaultClient
}

// New returns a client for the given base URL (e.g. "http://localhost:4519").
// APIKey is optional; when set, requests carry the X-API-Key header.
func New(baseURL, apiKey string) *Client {
	return &Client{BaseURL: baseURL, APIKey: apiKey}
}

func (c *Client) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}
	return c.client().Do(req)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if errBody.Error != "" {
			return fmt.Errorf("api %s %s: %s", method, path, errBody.Error)
		}
		return fmt.Errorf("api %s %s: status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func wsPath(ws, rest string) string {
	return "/workspaces/" + url.PathEscape(ws) + rest
}

// Health returns the /health response (ok: true).
func (c *Client) Health(ctx context.Context) (ok bool, err error) {
	var out struct {
		OK bool `json:"ok"`
	}
	err = c.doJSON(ctx, http.MethodGet, "/health", nil, &out)
	return out.OK, err
}

// Config returns the /config response.
func (c *Client) Config(ctx context.Context) (*models.Config, error) {
	var out models.Config
	err := c.doJSON(ctx, http.MethodGet, "/config", nil, &out)
	return &out, err
}

// Bootstrap returns the full /bootstrap payload.
func (c *Client) Bootstrap(ctx context.Context) (*models.Bootstrap, error) {
	var out models.Bootstrap
	err := c.doJSON(ctx, http.MethodGet, "/bootstrap", nil, &out)
	return &out, err
}

// ListWorkspaces returns all workspaces.
func (c *Client) ListWorkspaces(ctx context.Context) ([]models.Workspace, error) {
	var out []models.Workspace
	err := c.doJSON(ctx, http.MethodGet, "/workspaces", nil, &out)
	return out, err
}

// CreateWorkspace creates a workspace and returns it (with its invite code).
func (c *Client) CreateWorkspace(ctx context.Context, name, ownerID string) (*models.Workspace, error) {
	var out models.Workspace
	err := c.doJSON(ctx, http.MethodPost, "/workspaces",
		map[string]string{"name": name, "owner_id": ownerID}, &out)
	return &out, err
}

// GetWorkspace fetches one workspace by ID.
func (c *Client) GetWorkspace(ctx context.Context, ws string) (*models.Workspace, error) {
	var out models.Workspace
	err := c.doJSON(ctx, http.MethodGet, wsPath(ws, ""), nil, &out)
	return &out, err
}

// JoinWorkspace adds a member via invite code and returns the workspace.
func (c *Client) JoinWorkspace(ctx context.Context, inviteCode, memberID string) (*models.Workspace, error) {
	var out models.Workspace
	err := c.doJSON(ctx, http.MethodPost, "/workspaces/join",
		map[string]string{"invite_code": inviteCode, "member_id": memberID}, &out)
	return &out, err
}

// DeleteWorkspace removes a workspace and everything under it.
func (c *Client) DeleteWorkspace(ctx context.Context, ws string) error {
	return c.doJSON(ctx, http.MethodDelete, wsPath(ws, ""), nil, nil)
}

// ListProjects returns a workspace's projects.
func (c *Client) ListProjects(ctx context.Context, ws string) ([]models.Project, error) {
	var out []models.Project
	err := c.doJSON(ctx, http.MethodGet, wsPath(ws, "/projects"), nil, &out)
	return out, err
}

// GetProject fetches one project.
func (c *Client) GetProject(ctx context.Context, ws, id string) (*models.Project, error) {
	var out models.Project
	err := c.doJSON(ctx, http.MethodGet, wsPath(ws, "/projects/"+url.PathEscape(id)), nil, &out)
	return &out, err
}

// CreateProject creates a project. A non-nil breakdown also spawns its
// planned tasks and milestones.
func (c *Client) CreateProject(ctx context.Context, ws string, p models.Project, breakdown *models.Breakdown) (*models.Project, error) {
	body := struct {
		models.Project
		Breakdown *models.Breakdown `json:"breakdown,omitempty"`
	}{Project: p, Breakdown: breakdown}
	var out models.Project
	err := c.doJSON(ctx, http.MethodPost, wsPath(ws, "/projects"), body, &out)
	return &out, err
}

// ListTasks returns a workspace's tasks; archived ones only when asked for.
func (c *Client) ListTasks(ctx context.Context, ws string, includeArchived bool) ([]models.Task, error) {
	path := wsPath(ws, "/tasks")
	if includeArchived {
		path += "?include_archived=1"
	}
	var out []models.Task
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// GetTask fetches one task.
func (c *Client) GetTask(ctx context.Context, ws, id string) (*models.Task, error) {
	var out models.Task
	err := c.doJSON(ctx, http.MethodGet, wsPath(ws, "/tasks/"+url.PathEscape(id)), nil, &out)
	return &out, err
}

// CreateTask creates a task; an empty status defaults to the pipeline's first stage.
func (c *Client) CreateTask(ctx context.Context, ws string, t models.Task) (*models.Task, error) {
	var out models.Task
	err := c.doJSON(ctx, http.MethodPost, wsPath(ws, "/tasks"), t, &out)
	return &out, err
}

// PatchTask applies a partial field update. A nil field value deletes the field.
func (c *Client) PatchTask(ctx context.Context, ws, id string, fields map[string]any) (*models.Task, error) {
	var out models.Task
	err := c.doJSON(ctx, http.MethodPatch, wsPath(ws, "/tasks/"+url.PathEscape(id)), fields, &out)
	return &out, err
}

// ArchiveTask hides a task from default listings.
func (c *Client) ArchiveTask(ctx context.Context, ws, id string) (*models.Task, error) {
	var out models.Task
	err := c.doJSON(ctx, http.MethodPost, wsPath(ws, "/tasks/"+url.PathEscape(id)+"/archive"), nil, &out)
	return &out, err
}

// TransitionRequest carries the evidence for a stage move.
type TransitionRequest struct {
	To              string `json:"to"`
	ProofLink       string `json:"proof_link,omitempty"`
	Note            string `json:"note,omitempty"`
	NextAssignee    string `json:"next_assignee,omitempty"`
	ExpectedVersion *int64 `json:"expected_version,omitempty"`
}

// Transition moves a task to the target stage, stamping a proof.
func (c *Client) Transition(ctx context.Context, ws, id string, req TransitionRequest) (*models.Task, error) {
	var out models.Task
	err := c.doJSON(ctx, http.MethodPost, wsPath(ws, "/tasks/"+url.PathEscape(id)+"/transition"), req, &out)
	return &out, err
}

// AppendComment adds a tagged comment to a task (newest first).
func (c *Client) AppendComment(ctx context.Context, ws, id string, comment models.TaskComment) (*models.Task, error) {
	var out models.Task
	err := c.doJSON(ctx, http.MethodPost, wsPath(ws, "/tasks/"+url.PathEscape(id)+"/comments"),
		map[string]string{
			"author_id":   comment.AuthorID,
			"author_role": comment.AuthorRole,
			"content":     comment.Content,
			"tag":         comment.Tag,
		}, &out)
	return &out, err
}

// ListMembers returns the workspace roster.
func (c *Client) ListMembers(ctx context.Context, ws string) ([]models.TeamMember, error) {
	var out []models.TeamMember
	err := c.doJSON(ctx, http.MethodGet, wsPath(ws, "/members"), nil, &out)
	return out, err
}

// PutMember adds or updates a roster member.
func (c *Client) PutMember(ctx context.Context, ws string, m models.TeamMember) (*models.TeamMember, error) {
	var out models.TeamMember
	err := c.doJSON(ctx, http.MethodPost, wsPath(ws, "/members"), m, &out)
	return &out, err
}

// ListMilestones returns the workspace's milestones.
func (c *Client) ListMilestones(ctx context.Context, ws string) ([]models.Milestone, error) {
	var out []models.Milestone
	err := c.doJSON(ctx, http.MethodGet, wsPath(ws, "/milestones"), nil, &out)
	return out, err
}

// PutMilestone adds or updates a milestone.
func (c *Client) PutMilestone(ctx context.Context, ws string, m models.Milestone) (*models.Milestone, error) {
	var out models.Milestone
	err := c.doJSON(ctx, http.MethodPost, wsPath(ws, "/milestones"), m, &out)
	return &out, err
}

// ListClients returns the workspace's client records.
func (c *Client) ListClients(ctx context.Context, ws string) ([]models.Client, error) {
	var out []models.Client
	err := c.doJSON(ctx, http.MethodGet, wsPath(ws, "/clients"), nil, &out)
	return out, err
}

// PutClient adds or updates a client record.
func (c *Client) PutClient(ctx context.Context, ws string, cl models.Client) (*models.Client, error) {
	var out models.Client
	err := c.doJSON(ctx, http.MethodPost, wsPath(ws, "/clients"), cl, &out)
	return &out, err
}

// Errors returns the unified error queue: native records plus synthetic
// entries derived from Error/Bug task comments.
func (c *Client) Errors(ctx context.Context, ws string) ([]models.ErrorEntry, error) {
	var out []models.ErrorEntry
	err := c.doJSON(ctx, http.MethodGet, wsPath(ws, "/errors"), nil, &out)
	return out, err
}

// FileError files a native error record.
func (c *Client) FileError(ctx context.Context, ws string, e models.ErrorLog) (*models.ErrorLog, error) {
	var out models.ErrorLog
	err := c.doJSON(ctx, http.MethodPost, wsPath(ws, "/errors"), e, &out)
	return &out, err
}

// ResolveError marks a native error resolved. Synthetic IDs are rejected.
func (c *Client) ResolveError(ctx context.Context, ws, id, resolvedBy, commitLink string) (*models.ErrorLog, error) {
	var out models.ErrorLog
	err := c.doJSON(ctx, http.MethodPost, wsPath(ws, "/errors/"+url.PathEscape(id)+"/resolve"),
		map[string]string{"resolved_by": resolvedBy, "commit_link": commitLink}, &out)
	return &out, err
}

// DeleteError removes a native error record. Synthetic IDs are rejected.
func (c *Client) DeleteError(ctx context.Context, ws, id string) error {
	return c.doJSON(ctx, http.MethodDelete, wsPath(ws, "/errors/"+url.PathEscape(id)), nil, nil)
}

// Activity returns the newest feed entries, capped server-side at 50.
func (c *Client) Activity(ctx context.Context, ws string, limit int) ([]models.ActivityEntry, error) {
	path := wsPath(ws, "/activity")
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []models.ActivityEntry
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// BriefResult is the /brief response.
type BriefResult struct {
	ProjectID string `json:"project_id"`
	Brief     string `json:"brief"`
	AI        bool   `json:"ai"`
}

// GenerateBrief generates (and persists) a project brief.
func (c *Client) GenerateBrief(ctx context.Context, ws, projectID string) (*BriefResult, error) {
	var out BriefResult
	err := c.doJSON(ctx, http.MethodPost, wsPath(ws, "/brief"),
		map[string]string{"project_id": projectID}, &out)
	return &out, err
}

// GenerateBreakdown asks for a structured feature/task/milestone plan.
func (c *Client) GenerateBreakdown(ctx context.Context, ws, description string) (*models.Breakdown, error) {
	var out models.Breakdown
	err := c.doJSON(ctx, http.MethodPost, wsPath(ws, "/breakdown"),
		map[string]string{"description": description}, &out)
	return &out, err
}
