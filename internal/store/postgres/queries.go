package postgres

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/DesmondSol/speedops/internal/sanitize"
	"github.com/DesmondSol/speedops/internal/store"
	"github.com/DesmondSol/speedops/pkg/models"
)

// --- workspaces ---

func (s *Store) CreateWorkspace(ctx context.Context, name, ownerID string) (models.Workspace, error) {
	if name == "" {
		return models.Workspace{}, errors.New("workspace name required")
	}
	ws := models.Workspace{
		ID:         randomID(),
		Name:       name,
		OwnerID:    ownerID,
		InviteCode: randomInviteCode(),
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
	if ownerID != "" {
		ws.Members = []string{ownerID}
	}
	members, err := json.Marshal(ws.Members)
	if err != nil {
		return models.Workspace{}, err
	}
	if ws.Members == nil {
		members = []byte("[]")
	}
	_, err = s.Pool.Exec(ctx,
		`INSERT INTO workspaces(workspace_id, name, owner_id, invite_code, members, created_at) VALUES($1, $2, $3, $4, $5, $6)`,
		ws.ID, ws.Name, ws.OwnerID, ws.InviteCode, members, ws.CreatedAt.Unix())
	if err != nil {
		return models.Workspace{}, err
	}
	return ws, nil
}

func scanWorkspace(row pgx.Row) (models.Workspace, error) {
	var (
		ws        models.Workspace
		members   []byte
		createdAt int64
	)
	if err := row.Scan(&ws.ID, &ws.Name, &ws.OwnerID, &ws.InviteCode, &members, &createdAt); err != nil {
		return models.Workspace{}, err
	}
	if err := json.Unmarshal(members, &ws.Members); err != nil {
		return models.Workspace{}, fmt.Errorf("workspace %s members: %w", ws.ID, err)
	}
	ws.CreatedAt = time.Unix(createdAt, 0).UTC()
	return ws, nil
}

func (s *Store) GetWorkspace(ctx context.Context, id string) (models.Workspace, error) {
	ws, err := scanWorkspace(s.Pool.QueryRow(ctx,
		`SELECT workspace_id, name, owner_id, invite_code, members, created_at FROM workspaces WHERE workspace_id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Workspace{}, fmt.Errorf("workspace %s: %w", id, store.ErrNotFound)
	}
	return ws, err
}

func (s *Store) GetWorkspaceByInviteCode(ctx context.Context, code string) (models.Workspace, error) {
	ws, err := scanWorkspace(s.Pool.QueryRow(ctx,
		`SELECT workspace_id, name, owner_id, invite_code, members, created_at FROM workspaces WHERE invite_code = $1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Workspace{}, fmt.Errorf("invite code %s: %w", code, store.ErrNotFound)
	}
	return ws, err
}

func (s *Store) ListWorkspaces(ctx context.Context) ([]models.Workspace, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT workspace_id, name, owner_id, invite_code, members, created_at FROM workspaces ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Workspace
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}

func (s *Store) AddWorkspaceMember(ctx context.Context, id, memberID string) error {
	if memberID == "" {
		return errors.New("member id required")
	}
	ws, err := s.GetWorkspace(ctx, id)
	if err != nil {
		return err
	}
	for _, m := range ws.Members {
		if m == memberID {
			return nil
		}
	}
	members, err := json.Marshal(append(ws.Members, memberID))
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `UPDATE workspaces SET members = $1 WHERE workspace_id = $2`, members, id)
	return err
}

func (s *Store) DeleteWorkspace(ctx context.Context, id string) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM workspaces WHERE workspace_id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workspace %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// --- generic documents ---

func (s *Store) putDoc(ctx context.Context, ws, coll, id string, v any, expectedVersion *int64) (int64, error) {
	if id == "" {
		return 0, errors.New("doc id required")
	}
	doc, err := sanitize.MarshalDocument(v)
	if err != nil {
		return 0, err
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM workspaces WHERE workspace_id = $1`, ws).Scan(&exists); err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, fmt.Errorf("workspace %s: %w", ws, store.ErrNotFound)
	}

	now := time.Now().UTC().Unix()
	var cur int64
	err = tx.QueryRow(ctx,
		`SELECT version FROM documents WHERE workspace_id = $1 AND collection = $2 AND doc_id = $3 FOR UPDATE`, ws, coll, id).Scan(&cur)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if expectedVersion != nil && *expectedVersion != 0 {
			return 0, fmt.Errorf("%s/%s expected v%d, not found: %w", coll, id, *expectedVersion, store.ErrVersionConflict)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO documents(workspace_id, collection, doc_id, doc, version, created_at, updated_at) VALUES($1, $2, $3, $4, 1, $5, $6)`,
			ws, coll, id, doc, now, now); err != nil {
			return 0, err
		}
		cur = 1
	case err != nil:
		return 0, err
	default:
		if expectedVersion != nil && *expectedVersion != cur {
			return 0, fmt.Errorf("%s/%s expected v%d, have v%d: %w", coll, id, *expectedVersion, cur, store.ErrVersionConflict)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE documents SET doc = $1, version = version + 1, updated_at = $2 WHERE workspace_id = $3 AND collection = $4 AND doc_id = $5`,
			doc, now, ws, coll, id); err != nil {
			return 0, err
		}
		cur++
	}
	return cur, tx.Commit(ctx)
}

func (s *Store) patchDoc(ctx context.Context, ws, coll, id string, fields map[string]any) ([]byte, int64, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		raw []byte
		cur int64
	)
	err = tx.QueryRow(ctx,
		`SELECT doc, version FROM documents WHERE workspace_id = $1 AND collection = $2 AND doc_id = $3 FOR UPDATE`, ws, coll, id).Scan(&raw, &cur)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, fmt.Errorf("%s/%s: %w", coll, id, store.ErrNotFound)
	}
	if err != nil {
		return nil, 0, err
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, 0, fmt.Errorf("%s/%s: %w", coll, id, err)
	}
	for k, v := range fields {
		doc[k] = v
	}
	merged, err := sanitize.MarshalDocument(doc)
	if err != nil {
		return nil, 0, err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE documents SET doc = $1, version = version + 1, updated_at = $2 WHERE workspace_id = $3 AND collection = $4 AND doc_id = $5`,
		merged, time.Now().UTC().Unix(), ws, coll, id); err != nil {
		return nil, 0, err
	}
	return merged, cur + 1, tx.Commit(ctx)
}

func (s *Store) getDoc(ctx context.Context, ws, coll, id string, dest any) (int64, error) {
	var (
		raw     []byte
		version int64
	)
	err := s.Pool.QueryRow(ctx,
		`SELECT doc, version FROM documents WHERE workspace_id = $1 AND collection = $2 AND doc_id = $3`, ws, coll, id).Scan(&raw, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%s/%s: %w", coll, id, store.ErrNotFound)
	}
	if err != nil {
		return 0, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return 0, fmt.Errorf("%s/%s: %w", coll, id, err)
	}
	return version, nil
}

func (s *Store) listDocs(ctx context.Context, ws, coll string, each func(raw []byte, version int64) error) error {
	rows, err := s.Pool.Query(ctx,
		`SELECT doc, version FROM documents WHERE workspace_id = $1 AND collection = $2 ORDER BY created_at ASC`, ws, coll)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			raw     []byte
			version int64
		)
		if err := rows.Scan(&raw, &version); err != nil {
			return err
		}
		if err := each(raw, version); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *Store) deleteDoc(ctx context.Context, ws, coll, id string) error {
	tag, err := s.Pool.Exec(ctx,
		`DELETE FROM documents WHERE workspace_id = $1 AND collection = $2 AND doc_id = $3`, ws, coll, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s/%s: %w", coll, id, store.ErrNotFound)
	}
	return nil
}

// --- tasks ---

func (s *Store) PutTask(ctx context.Context, ws string, t models.Task, expectedVersion *int64) (models.Task, error) {
	if t.ID == "" {
		t.ID = randomID()
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	v, err := s.putDoc(ctx, ws, store.CollTasks, t.ID, t, expectedVersion)
	if err != nil {
		return models.Task{}, err
	}
	t.Version = v
	return t, nil
}

func (s *Store) UpdateTaskFields(ctx context.Context, ws, id string, fields map[string]any) (*models.Task, error) {
	raw, v, err := s.patchDoc(ctx, ws, store.CollTasks, id, fields)
	if err != nil {
		return nil, err
	}
	var t models.Task
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, err
	}
	t.Version = v
	return &t, nil
}

func (s *Store) GetTask(ctx context.Context, ws, id string) (*models.Task, error) {
	var t models.Task
	v, err := s.getDoc(ctx, ws, store.CollTasks, id, &t)
	if err != nil {
		return nil, err
	}
	t.Version = v
	return &t, nil
}

func (s *Store) ListTasks(ctx context.Context, ws string, includeArchived bool) ([]models.Task, error) {
	var out []models.Task
	err := s.listDocs(ctx, ws, store.CollTasks, func(raw []byte, version int64) error {
		var t models.Task
		if err := json.Unmarshal(raw, &t); err != nil {
			return err
		}
		if t.Archived && !includeArchived {
			return nil
		}
		t.Version = version
		out = append(out, t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// --- projects ---

func (s *Store) PutProject(ctx context.Context, ws string, p models.Project) error {
	if p.ID == "" {
		return errors.New("project id required")
	}
	_, err := s.putDoc(ctx, ws, store.CollProjects, p.ID, p, nil)
	return err
}

func (s *Store) GetProject(ctx context.Context, ws, id string) (*models.Project, error) {
	var p models.Project
	if _, err := s.getDoc(ctx, ws, store.CollProjects, id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListProjects(ctx context.Context, ws string) ([]models.Project, error) {
	var out []models.Project
	err := s.listDocs(ctx, ws, store.CollProjects, func(raw []byte, _ int64) error {
		var p models.Project
		if err := json.Unmarshal(raw, &p); err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

// --- members ---

func (s *Store) PutMember(ctx context.Context, ws string, m models.TeamMember) error {
	if m.ID == "" {
		return errors.New("member id required")
	}
	_, err := s.putDoc(ctx, ws, store.CollMembers, m.ID, m, nil)
	return err
}

func (s *Store) GetMember(ctx context.Context, ws, id string) (*models.TeamMember, error) {
	var m models.TeamMember
	if _, err := s.getDoc(ctx, ws, store.CollMembers, id, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) ListMembers(ctx context.Context, ws string) ([]models.TeamMember, error) {
	var out []models.TeamMember
	err := s.listDocs(ctx, ws, store.CollMembers, func(raw []byte, _ int64) error {
		var m models.TeamMember
		if err := json.Unmarshal(raw, &m); err != nil {
			return err
		}
		out = append(out, m)
		return nil
	})
	return out, err
}

// --- milestones ---

func (s *Store) PutMilestone(ctx context.Context, ws string, m models.Milestone) error {
	if m.ID == "" {
		return errors.New("milestone id required")
	}
	_, err := s.putDoc(ctx, ws, store.CollMilestones, m.ID, m, nil)
	return err
}

func (s *Store) ListMilestones(ctx context.Context, ws string) ([]models.Milestone, error) {
	var out []models.Milestone
	err := s.listDocs(ctx, ws, store.CollMilestones, func(raw []byte, _ int64) error {
		var m models.Milestone
		if err := json.Unmarshal(raw, &m); err != nil {
			return err
		}
		out = append(out, m)
		return nil
	})
	return out, err
}

// --- clients ---

func (s *Store) PutClient(ctx context.Context, ws string, c models.Client) error {
	if c.ID == "" {
		return errors.New("client id required")
	}
	_, err := s.putDoc(ctx, ws, store.CollClients, c.ID, c, nil)
	return err
}

func (s *Store) ListClients(ctx context.Context, ws string) ([]models.Client, error) {
	var out []models.Client
	err := s.listDocs(ctx, ws, store.CollClients, func(raw []byte, _ int64) error {
		var c models.Client
		if err := json.Unmarshal(raw, &c); err != nil {
			return err
		}
		out = append(out, c)
		return nil
	})
	return out, err
}

// --- error logs ---

func (s *Store) PutErrorLog(ctx context.Context, ws string, e models.ErrorLog) error {
	if e.ID == "" {
		return errors.New("error log id required")
	}
	_, err := s.putDoc(ctx, ws, store.CollErrors, e.ID, e, nil)
	return err
}

func (s *Store) UpdateErrorLogFields(ctx context.Context, ws, id string, fields map[string]any) (*models.ErrorLog, error) {
	raw, _, err := s.patchDoc(ctx, ws, store.CollErrors, id, fields)
	if err != nil {
		return nil, err
	}
	var e models.ErrorLog
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) GetErrorLog(ctx context.Context, ws, id string) (*models.ErrorLog, error) {
	var e models.ErrorLog
	if _, err := s.getDoc(ctx, ws, store.CollErrors, id, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) ListErrorLogs(ctx context.Context, ws string) ([]models.ErrorLog, error) {
	var out []models.ErrorLog
	err := s.listDocs(ctx, ws, store.CollErrors, func(raw []byte, _ int64) error {
		var e models.ErrorLog
		if err := json.Unmarshal(raw, &e); err != nil {
			return err
		}
		out = append(out, e)
		return nil
	})
	return out, err
}

func (s *Store) DeleteErrorLog(ctx context.Context, ws, id string) error {
	return s.deleteDoc(ctx, ws, store.CollErrors, id)
}

// --- activity ---

func (s *Store) AppendActivity(ctx context.Context, ws string, e models.ActivityEntry) (models.ActivityEntry, error) {
	if e.ID == "" {
		e.ID = randomID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Timestamp == "" {
		e.Timestamp = e.CreatedAt.Format("15:04")
	}
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO activity(activity_id, workspace_id, source, author, content, display_time, created_at) VALUES($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, ws, e.Source, e.Author, e.Content, e.Timestamp, e.CreatedAt.UnixNano())
	if err != nil {
		return models.ActivityEntry{}, err
	}
	return e, nil
}

func (s *Store) ListActivity(ctx context.Context, ws string, limit int) ([]models.ActivityEntry, error) {
	if limit <= 0 || limit > models.DefaultActivityListLimit {
		limit = models.DefaultActivityListLimit
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT activity_id, source, author, content, display_time, created_at FROM activity WHERE workspace_id = $1 ORDER BY created_at DESC, activity_id DESC LIMIT $2`, ws, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ActivityEntry
	for rows.Next() {
		var (
			e         models.ActivityEntry
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.Source, &e.Author, &e.Content, &e.Timestamp, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(0, createdAt).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func randomID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("d-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

func randomInviteCode() string {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("INV%d", time.Now().UnixNano()%100000)
	}
	for i := range b {
		b[i] = alphabet[int(b[i])%len(alphabet)]
	}
	return string(b)
}
