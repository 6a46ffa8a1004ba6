package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/DesmondSol/speedops/internal/ingest"
	"github.com/DesmondSol/speedops/internal/otel"
	"github.com/DesmondSol/speedops/internal/store"
	"github.com/DesmondSol/speedops/internal/workflow"
	"github.com/DesmondSol/speedops/pkg/models"
)

// record feeds the activity stream; best-effort by construction.
func (a *App) record(ws, source, author, content string) {
	if author == "" {
		author = "SYSTEM"
	}
	a.Recorder.Record(ws, models.ActivityEntry{Source: source, Author: author, Content: content})
}

// memberName resolves a roster member's display name, falling back to SYSTEM.
func (a *App) memberName(r *http.Request, ws, memberID string) string {
	if memberID == "" {
		return "SYSTEM"
	}
	m, err := a.Store.GetMember(r.Context(), ws, memberID)
	if err != nil || m.Name == "" {
		return "SYSTEM"
	}
	return m.Name
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrVersionConflict):
		writeJSONError(w, http.StatusConflict, err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}

// handleWorkspaces serves the exact /workspaces path.
func (a *App) handleWorkspaces(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		workspaces, err := a.Store.ListWorkspaces(r.Context())
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if workspaces == nil {
			workspaces = []models.Workspace{}
		}
		writeJSON(w, workspaces)
	case http.MethodPost:
		var body struct {
			Name    string `json:"name"`
			OwnerID string `json:"owner_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if body.Name == "" {
			writeJSONError(w, http.StatusBadRequest, "name required")
			return
		}
		ws, err := a.Store.CreateWorkspace(r.Context(), body.Name, body.OwnerID)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		a.Hub.Invalidate("", "workspaces")
		writeJSON(w, ws)
	default:
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleWorkspaceScoped dispatches /workspaces/{ws}/... and /workspaces/join.
func (a *App) handleWorkspaceScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/workspaces/")
	parts := strings.Split(rest, "/")
	if len(parts) < 1 || parts[0] == "" {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}

	if parts[0] == "join" {
		a.handleJoin(w, r)
		return
	}
	ws := parts[0]

	// /workspaces/{ws}
	if len(parts) == 1 || parts[1] == "" {
		switch r.Method {
		case http.MethodGet:
			got, err := a.Store.GetWorkspace(r.Context(), ws)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, got)
		case http.MethodDelete:
			if err := a.Store.DeleteWorkspace(r.Context(), ws); err != nil {
				writeStoreError(w, err)
				return
			}
			a.Hub.Invalidate("", "workspaces")
			writeJSON(w, map[string]any{"ok": true})
		default:
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	switch parts[1] {
	case "projects":
		a.handleProjects(w, r, ws, parts[2:])
	case "tasks":
		a.handleTasks(w, r, ws, parts[2:])
	case "members":
		a.handleMembers(w, r, ws, parts[2:])
	case "milestones":
		a.handleMilestones(w, r, ws)
	case "clients":
		a.handleClients(w, r, ws)
	case "errors":
		a.handleErrors(w, r, ws, parts[2:])
	case "activity":
		a.handleActivity(w, r, ws)
	case "brief":
		a.handleBrief(w, r, ws)
	case "breakdown":
		a.handleBreakdown(w, r, ws)
	default:
		writeJSONError(w, http.StatusNotFound, "not found")
	}
}

func (a *App) handleJoin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body struct {
		InviteCode string `json:"invite_code"`
		MemberID   string `json:"member_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.InviteCode == "" || body.MemberID == "" {
		writeJSONError(w, http.StatusBadRequest, "invite_code and member_id required")
		return
	}
	ws, err := a.Store.GetWorkspaceByInviteCode(r.Context(), body.InviteCode)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if err := a.Store.AddWorkspaceMember(r.Context(), ws.ID, body.MemberID); err != nil {
		writeStoreError(w, err)
		return
	}
	got, err := a.Store.GetWorkspace(r.Context(), ws.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	a.Hub.Invalidate("", "workspaces")
	writeJSON(w, got)
}

func (a *App) handleProjects(w http.ResponseWriter, r *http.Request, ws string, rest []string) {
	if len(rest) > 0 && rest[0] != "" {
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		p, err := a.Store.GetProject(r.Context(), ws, rest[0])
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, p)
		return
	}

	switch r.Method {
	case http.MethodGet:
		projects, err := a.Store.ListProjects(r.Context(), ws)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if projects == nil {
			projects = []models.Project{}
		}
		writeJSON(w, projects)
	case http.MethodPost:
		var body struct {
			models.Project
			Breakdown *models.Breakdown `json:"breakdown,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid json")
			return
		}
		p := body.Project
		if p.Name == "" {
			writeJSONError(w, http.StatusBadRequest, "name required")
			return
		}
		if p.ID == "" {
			p.ID = "p-" + randomHex(8)
		}
		if p.Status == "" {
			p.Status = models.ProjectActive
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now().UTC()
		}
		if err := a.Store.PutProject(r.Context(), ws, p); err != nil {
			writeStoreError(w, err)
			return
		}
		a.record(ws, models.SourceProject, p.Lead, "New mission initiated: "+p.Name)
		if body.Breakdown != nil {
			a.applyBreakdown(w, r, ws, p, *body.Breakdown)
		}
		a.Hub.Invalidate(ws, store.CollProjects)
		writeJSON(w, p)
	default:
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// applyBreakdown spawns planned tasks and milestones under a freshly created
// project. Day offsets are counted from now.
func (a *App) applyBreakdown(w http.ResponseWriter, r *http.Request, ws string, p models.Project, bd models.Breakdown) {
	ctx := r.Context()
	now := time.Now().UTC()

	for _, feature := range bd.Features {
		for _, plan := range feature.Tasks {
			task := models.Task{
				ID:                 "t-ai-" + randomHex(8),
				ProjectID:          p.ID,
				Name:               plan.Name,
				Description:        plan.Description,
				AssigneeID:         plan.AssigneeID,
				Status:             a.Graph.Initial(),
				AcceptanceCriteria: plan.AcceptanceCriteria,
				FeatureOrigin:      feature.FeatureName,
				Timeline: models.Timeline{
					Start: now.AddDate(0, 0, plan.StartDay-1),
					End:   now.AddDate(0, 0, plan.EndDay),
				},
			}
			if _, err := a.Store.PutTask(ctx, ws, task, nil); err != nil {
				writeStoreError(w, err)
				return
			}
		}
	}

	ownerID := ""
	if members, err := a.Store.ListMembers(ctx, ws); err == nil {
		for _, m := range members {
			if m.Name == p.Lead {
				ownerID = m.ID
				break
			}
		}
		if ownerID == "" && len(members) > 0 {
			ownerID = members[0].ID
		}
	}
	for _, plan := range bd.Milestones {
		urgency := plan.Urgency
		if urgency == "" {
			urgency = models.UrgencyMedium
		}
		ms := models.Milestone{
			ID:          "ms-ai-" + randomHex(8),
			ProjectID:   p.ID,
			Title:       plan.Title,
			Description: plan.Description,
			Deadline:    now.AddDate(0, 0, plan.DayOffset).Format("2006-01-02"),
			OwnerID:     ownerID,
			Urgency:     urgency,
		}
		if err := a.Store.PutMilestone(ctx, ws, ms); err != nil {
			writeStoreError(w, err)
			return
		}
	}
	a.Hub.Invalidate(ws, store.CollTasks)
	a.Hub.Invalidate(ws, store.CollMilestones)
}

func (a *App) handleTasks(w http.ResponseWriter, r *http.Request, ws string, rest []string) {
	// /workspaces/{ws}/tasks
	if len(rest) == 0 || rest[0] == "" {
		switch r.Method {
		case http.MethodGet:
			includeArchived := r.URL.Query().Get("include_archived") == "1"
			tasks, err := a.Store.ListTasks(r.Context(), ws, includeArchived)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			if tasks == nil {
				tasks = []models.Task{}
			}
			writeJSON(w, tasks)
		case http.MethodPost:
			var task models.Task
			if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid json")
				return
			}
			if task.Name == "" {
				writeJSONError(w, http.StatusBadRequest, "name required")
				return
			}
			if task.Status == "" {
				task.Status = a.Graph.Initial()
			} else if !a.Graph.Contains(task.Status) {
				writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("unknown stage %q", task.Status))
				return
			}
			created, err := a.Store.PutTask(r.Context(), ws, task, nil)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			a.record(ws, models.SourceTask, a.memberName(r, ws, created.AssigneeID), "Unit "+created.Name+" launched")
			a.Hub.Invalidate(ws, store.CollTasks)
			writeJSON(w, created)
		default:
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	taskID := rest[0]

	// /workspaces/{ws}/tasks/{id}
	if len(rest) == 1 {
		switch r.Method {
		case http.MethodGet:
			task, err := a.Store.GetTask(r.Context(), ws, taskID)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, task)
		case http.MethodPatch:
			var fields map[string]any
			if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid json")
				return
			}
			if status, ok := fields["status"].(string); ok && !a.Graph.Contains(status) {
				writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("unknown stage %q", status))
				return
			}
			task, err := a.Store.UpdateTaskFields(r.Context(), ws, taskID, fields)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			a.Hub.Invalidate(ws, store.CollTasks)
			writeJSON(w, task)
		default:
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	switch rest[1] {
	case "transition":
		a.handleTransition(w, r, ws, taskID)
	case "comments":
		a.handleComments(w, r, ws, taskID)
	case "archive":
		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		task, err := a.Store.UpdateTaskFields(r.Context(), ws, taskID, map[string]any{"archived": true})
		if err != nil {
			writeStoreError(w, err)
			return
		}
		a.Hub.Invalidate(ws, store.CollTasks)
		writeJSON(w, task)
	default:
		writeJSONError(w, http.StatusNotFound, "not found")
	}
}

func (a *App) handleTransition(w http.ResponseWriter, r *http.Request, ws, taskID string) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body struct {
		To              string `json:"to"`
		ProofLink       string `json:"proof_link"`
		Note            string `json:"note"`
		NextAssignee    string `json:"next_assignee"`
		ExpectedVersion *int64 `json:"expected_version"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.To == "" {
		writeJSONError(w, http.StatusBadRequest, "to required")
		return
	}
	before, err := a.Store.GetTask(r.Context(), ws, taskID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	from := before.Status

	task, err := a.Gate.Transition(r.Context(), ws, taskID, body.To, workflow.Evidence{
		ProofLink:    body.ProofLink,
		Note:         body.Note,
		NextAssignee: body.NextAssignee,
	}, body.ExpectedVersion)
	switch {
	case err == nil:
	case errors.Is(err, workflow.ErrUnknownStage), errors.Is(err, workflow.ErrProofRequired):
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	default:
		writeStoreError(w, err)
		return
	}
	if from != task.Status {
		otel.RecordTransition(r.Context(), ws, from, task.Status)
		a.Hub.Invalidate(ws, store.CollTasks)
	}
	writeJSON(w, task)
}

func (a *App) handleComments(w http.ResponseWriter, r *http.Request, ws, taskID string) {
	switch r.Method {
	case http.MethodGet:
		task, err := a.Store.GetTask(r.Context(), ws, taskID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		comments := task.Comments
		if comments == nil {
			comments = []models.TaskComment{}
		}
		writeJSON(w, comments)
	case http.MethodPost:
		var body struct {
			AuthorID   string `json:"author_id"`
			AuthorRole string `json:"author_role"`
			Content    string `json:"content"`
			Tag        string `json:"tag"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid json")
			return
		}
		task, err := a.Gate.AppendComment(r.Context(), ws, taskID, models.TaskComment{
			AuthorID:   body.AuthorID,
			AuthorRole: body.AuthorRole,
			Content:    body.Content,
			Tag:        body.Tag,
		})
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeStoreError(w, err)
				return
			}
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(body.Content) != "" {
			tag := body.Tag
			if tag == "" {
				tag = models.TagNote
			}
			otel.RecordComment(r.Context(), ws, tag)
			a.Hub.Invalidate(ws, store.CollTasks)
			if tag == models.TagError || tag == models.TagBug {
				// The derived error queue changed too.
				a.Hub.Invalidate(ws, store.CollErrors)
			}
		}
		writeJSON(w, task)
	default:
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (a *App) handleMembers(w http.ResponseWriter, r *http.Request, ws string, rest []string) {
	if len(rest) > 0 && rest[0] != "" {
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		m, err := a.Store.GetMember(r.Context(), ws, rest[0])
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, m)
		return
	}

	switch r.Method {
	case http.MethodGet:
		members, err := a.Store.ListMembers(r.Context(), ws)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if members == nil {
			members = []models.TeamMember{}
		}
		writeJSON(w, members)
	case http.MethodPost:
		var m models.TeamMember
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if m.Name == "" {
			writeJSONError(w, http.StatusBadRequest, "name required")
			return
		}
		if m.ID == "" {
			m.ID = "m-" + randomHex(8)
		}
		if err := a.Store.PutMember(r.Context(), ws, m); err != nil {
			writeStoreError(w, err)
			return
		}
		a.record(ws, models.SourcePersonnel, "ADMIN", "Operator "+m.Name+" integrated")
		a.Hub.Invalidate(ws, store.CollMembers)
		writeJSON(w, m)
	default:
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (a *App) handleMilestones(w http.ResponseWriter, r *http.Request, ws string) {
	switch r.Method {
	case http.MethodGet:
		milestones, err := a.Store.ListMilestones(r.Context(), ws)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if milestones == nil {
			milestones = []models.Milestone{}
		}
		writeJSON(w, milestones)
	case http.MethodPost:
		var ms models.Milestone
		if err := json.NewDecoder(r.Body).Decode(&ms); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if ms.Title == "" || ms.Deadline == "" {
			writeJSONError(w, http.StatusBadRequest, "title and deadline required")
			return
		}
		if _, err := time.Parse("2006-01-02", ms.Deadline); err != nil {
			writeJSONError(w, http.StatusBadRequest, "deadline must be YYYY-MM-DD")
			return
		}
		if ms.ID == "" {
			ms.ID = "ms-" + randomHex(8)
		}
		if err := a.Store.PutMilestone(r.Context(), ws, ms); err != nil {
			writeStoreError(w, err)
			return
		}
		a.record(ws, models.SourceSchedule, "SYSTEM", "Critical marker placed: "+ms.Title)
		a.Hub.Invalidate(ws, store.CollMilestones)
		writeJSON(w, ms)
	default:
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (a *App) handleClients(w http.ResponseWriter, r *http.Request, ws string) {
	switch r.Method {
	case http.MethodGet:
		clients, err := a.Store.ListClients(r.Context(), ws)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if clients == nil {
			clients = []models.Client{}
		}
		writeJSON(w, clients)
	case http.MethodPost:
		var c models.Client
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if c.Name == "" {
			writeJSONError(w, http.StatusBadRequest, "name required")
			return
		}
		if c.ID == "" {
			c.ID = "cl-" + randomHex(8)
		}
		if err := a.Store.PutClient(r.Context(), ws, c); err != nil {
			writeStoreError(w, err)
			return
		}
		a.record(ws, models.SourceClient, "SYSTEM", "New corporate entity catalogued: "+c.Name)
		a.Hub.Invalidate(ws, store.CollClients)
		writeJSON(w, c)
	default:
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (a *App) handleErrors(w http.ResponseWriter, r *http.Request, ws string, rest []string) {
	// /workspaces/{ws}/errors
	if len(rest) == 0 || rest[0] == "" {
		switch r.Method {
		case http.MethodGet:
			native, err := a.Store.ListErrorLogs(r.Context(), ws)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			tasks, err := a.Store.ListTasks(r.Context(), ws, false)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			queue := ingest.Queue(native, tasks)
			otel.RecordDerivedErrors(r.Context(), ws, len(queue)-len(native))
			writeJSON(w, queue)
		case http.MethodPost:
			var e models.ErrorLog
			if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid json")
				return
			}
			if e.Title == "" {
				writeJSONError(w, http.StatusBadRequest, "title required")
				return
			}
			if e.ID == "" {
				e.ID = "e-" + randomHex(8)
			}
			if ingest.IsSynthetic(e.ID) {
				writeJSONError(w, http.StatusBadRequest, "reserved id prefix")
				return
			}
			if e.Severity == "" {
				e.Severity = models.SeverityMedium
			}
			if e.Status == "" {
				e.Status = models.ErrorActive
			}
			if e.Timestamp.IsZero() {
				e.Timestamp = time.Now().UTC()
			}
			if err := a.Store.PutErrorLog(r.Context(), ws, e); err != nil {
				writeStoreError(w, err)
				return
			}
			a.record(ws, models.SourceError, a.memberName(r, ws, e.AuthorID), "Threat marker signaled: "+e.Title)
			a.Hub.Invalidate(ws, store.CollErrors)
			writeJSON(w, e)
		default:
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	errID := rest[0]

	// /workspaces/{ws}/errors/{id}/resolve
	if len(rest) >= 2 && rest[1] == "resolve" {
		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if ingest.IsSynthetic(errID) {
			writeJSONError(w, http.StatusConflict, "synthetic entries are resolved by editing the source comment")
			return
		}
		var body struct {
			ResolvedBy string `json:"resolved_by"`
			CommitLink string `json:"commit_link"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid json")
			return
		}
		e, err := a.Store.UpdateErrorLogFields(r.Context(), ws, errID, map[string]any{
			"status":      models.ErrorResolved,
			"resolved_by": body.ResolvedBy,
			"commit_link": body.CommitLink,
		})
		if err != nil {
			writeStoreError(w, err)
			return
		}
		a.record(ws, models.SourceError, a.memberName(r, ws, body.ResolvedBy), "Threat neutralized: "+e.Title)
		a.Hub.Invalidate(ws, store.CollErrors)
		writeJSON(w, e)
		return
	}

	// /workspaces/{ws}/errors/{id}
	if r.Method != http.MethodDelete {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if ingest.IsSynthetic(errID) {
		writeJSONError(w, http.StatusConflict, "synthetic entries are removed by editing the source comment")
		return
	}
	if err := a.Store.DeleteErrorLog(r.Context(), ws, errID); err != nil {
		writeStoreError(w, err)
		return
	}
	a.Hub.Invalidate(ws, store.CollErrors)
	writeJSON(w, map[string]any{"ok": true})
}

func (a *App) handleActivity(w http.ResponseWriter, r *http.Request, ws string) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit := 0
	if q := r.URL.Query().Get("limit"); q != "" {
		_, _ = fmt.Sscanf(q, "%d", &limit)
	}
	entries, err := a.Store.ListActivity(r.Context(), ws, limit)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if entries == nil {
		entries = []models.ActivityEntry{}
	}
	writeJSON(w, entries)
}

// handleBrief generates (and stores) a project brief.
func (a *App) handleBrief(w http.ResponseWriter, r *http.Request, ws string) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body struct {
		ProjectID string `json:"project_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.ProjectID == "" {
		writeJSONError(w, http.StatusBadRequest, "project_id required")
		return
	}
	p, err := a.Store.GetProject(r.Context(), ws, body.ProjectID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	members, _ := a.Store.ListMembers(r.Context(), ws)
	text := a.Brief.GenerateBrief(r.Context(), *p, members)
	p.Brief = text
	if err := a.Store.PutProject(r.Context(), ws, *p); err != nil {
		writeStoreError(w, err)
		return
	}
	a.Hub.Invalidate(ws, store.CollProjects)
	writeJSON(w, map[string]any{"project_id": p.ID, "brief": text, "ai": a.Brief.Enabled()})
}

// handleBreakdown returns a structured plan for a prospective project.
func (a *App) handleBreakdown(w http.ResponseWriter, r *http.Request, ws string) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body struct {
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(body.Description) == "" {
		writeJSONError(w, http.StatusBadRequest, "description required")
		return
	}
	members, _ := a.Store.ListMembers(r.Context(), ws)
	bd := a.Brief.GenerateBreakdown(r.Context(), body.Description, members)
	writeJSON(w, bd)
}
