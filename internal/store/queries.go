package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DesmondSol/speedops/internal/sanitize"
	"github.com/DesmondSol/speedops/pkg/models"
)

// --- workspaces ---

func (s *sqliteStore) CreateWorkspace(ctx context.Context, name, ownerID string) (models.Workspace, error) {
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
	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO workspaces(workspace_id, name, owner_id, invite_code, members, created_at) VALUES(?, ?, ?, ?, ?, ?)`,
		ws.ID, ws.Name, ws.OwnerID, ws.InviteCode, string(members), ws.CreatedAt.Unix())
	if err != nil {
		return models.Workspace{}, err
	}
	return ws, nil
}

func scanWorkspace(row interface{ Scan(...any) error }) (models.Workspace, error) {
	var (
		ws        models.Workspace
		members   string
		createdAt int64
	)
	if err := row.Scan(&ws.ID, &ws.Name, &ws.OwnerID, &ws.InviteCode, &members, &createdAt); err != nil {
		return models.Workspace{}, err
	}
	if err := json.Unmarshal([]byte(members), &ws.Members); err != nil {
		return models.Workspace{}, fmt.Errorf("workspace %s members: %w", ws.ID, err)
	}
	ws.CreatedAt = time.Unix(createdAt, 0).UTC()
	return ws, nil
}

func (s *sqliteStore) GetWorkspace(ctx context.Context, id string) (models.Workspace, error) {
	ws, err := scanWorkspace(s.stmtGetWorkspace.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Workspace{}, fmt.Errorf("workspace %s: %w", id, ErrNotFound)
	}
	return ws, err
}

func (s *sqliteStore) GetWorkspaceByInviteCode(ctx context.Context, code string) (models.Workspace, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT workspace_id, name, owner_id, invite_code, members, created_at FROM workspaces WHERE invite_code = ?`, code)
	ws, err := scanWorkspace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Workspace{}, fmt.Errorf("invite code %s: %w", code, ErrNotFound)
	}
	return ws, err
}

func (s *sqliteStore) ListWorkspaces(ctx context.Context) ([]models.Workspace, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT workspace_id, name, owner_id, invite_code, members, created_at FROM workspaces ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

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

func (s *sqliteStore) AddWorkspaceMember(ctx context.Context, id, memberID string) error {
	if memberID == "" {
		return errors.New("member id required")
	}
	ws, err := s.GetWorkspace(ctx, id)
	if err != nil {
		return err
	}
	for _, m := range ws.Members {
		if m == memberID {
			return nil // already a member; joining twice is a no-op
		}
	}
	members, err := json.Marshal(append(ws.Members, memberID))
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `UPDATE workspaces SET members = ? WHERE workspace_id = ?`, string(members), id)
	return err
}

func (s *sqliteStore) DeleteWorkspace(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM workspaces WHERE workspace_id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("workspace %s: %w", id, ErrNotFound)
	}
	return nil
}

// --- generic documents ---

// putDoc upserts a sanitized JSON document and returns the new version.
// expectedVersion, when non-nil, must match the stored version (0 means
// "must not exist yet").
func (s *sqliteStore) putDoc(ctx context.Context, ws, coll, id string, v any, expectedVersion *int64) (int64, error) {
	if id == "" {
		return 0, errors.New("doc id required")
	}
	doc, err := sanitize.MarshalDocument(v)
	if err != nil {
		return 0, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM workspaces WHERE workspace_id = ?`, ws).Scan(&exists); err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, fmt.Errorf("workspace %s: %w", ws, ErrNotFound)
	}

	now := time.Now().UTC().Unix()
	var cur int64
	err = tx.QueryRowContext(ctx,
		`SELECT version FROM documents WHERE workspace_id = ? AND collection = ? AND doc_id = ?`, ws, coll, id).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if expectedVersion != nil && *expectedVersion != 0 {
			return 0, fmt.Errorf("%s/%s expected v%d, not found: %w", coll, id, *expectedVersion, ErrVersionConflict)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents(workspace_id, collection, doc_id, doc, version, created_at, updated_at) VALUES(?, ?, ?, ?, 1, ?, ?)`,
			ws, coll, id, string(doc), now, now); err != nil {
			return 0, err
		}
		cur = 1
	case err != nil:
		return 0, err
	default:
		if expectedVersion != nil && *expectedVersion != cur {
			return 0, fmt.Errorf("%s/%s expected v%d, have v%d: %w", coll, id, *expectedVersion, cur, ErrVersionConflict)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE documents SET doc = ?, version = version + 1, updated_at = ? WHERE workspace_id = ? AND collection = ? AND doc_id = ?`,
			string(doc), now, ws, coll, id); err != nil {
			return 0, err
		}
		cur++
	}
	return cur, tx.Commit()
}

// patchDoc merges top-level fields into an existing document. Fields set to
// nil are stripped by the sanitizer, which effectively deletes them.
func (s *sqliteStore) patchDoc(ctx context.Context, ws, coll, id string, fields map[string]any) ([]byte, int64, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		raw string
		cur int64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT doc, version FROM documents WHERE workspace_id = ? AND collection = ? AND doc_id = ?`, ws, coll, id).Scan(&raw, &cur)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("%s/%s: %w", coll, id, ErrNotFound)
	}
	if err != nil {
		return nil, 0, err
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, 0, fmt.Errorf("%s/%s: %w", coll, id, err)
	}
	for k, v := range fields {
		doc[k] = v
	}
	merged, err := sanitize.MarshalDocument(doc)
	if err != nil {
		return nil, 0, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET doc = ?, version = version + 1, updated_at = ? WHERE workspace_id = ? AND collection = ? AND doc_id = ?`,
		string(merged), time.Now().UTC().Unix(), ws, coll, id); err != nil {
		return nil, 0, err
	}
	return merged, cur + 1, tx.Commit()
}

func (s *sqliteStore) getDoc(ctx context.Context, ws, coll, id string, dest any) (int64, error) {
	var (
		raw                  string
		version              int64
		createdAt, updatedAt int64
	)
	err := s.stmtGetDoc.QueryRowContext(ctx, ws, coll, id).Scan(&raw, &version, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%s/%s: %w", coll, id, ErrNotFound)
	}
	if err != nil {
		return 0, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return 0, fmt.Errorf("%s/%s: %w", coll, id, err)
	}
	return version, nil
}

func (s *sqliteStore) listDocs(ctx context.Context, ws, coll string, each func(raw []byte, version int64) error) error {
	rows, err := s.stmtListDocs.QueryContext(ctx, ws, coll)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			raw                  string
			version              int64
			createdAt, updatedAt int64
		)
		if err := rows.Scan(&raw, &version, &createdAt, &updatedAt); err != nil {
			return err
		}
		if err := each([]byte(raw), version); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *sqliteStore) deleteDoc(ctx context.Context, ws, coll, id string) error {
	res, err := s.stmtDeleteDoc.ExecContext(ctx, ws, coll, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s/%s: %w", coll, id, ErrNotFound)
	}
	return nil
}

// --- tasks ---

func (s *sqliteStore) PutTask(ctx context.Context, ws string, t models.Task, expectedVersion *int64) (models.Task, error) {
	if t.ID == "" {
		t.ID = randomID()
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	v, err := s.putDoc(ctx, ws, CollTasks, t.ID, t, expectedVersion)
	if err != nil {
		return models.Task{}, err
	}
	t.Version = v
	return t, nil
}

func (s *sqliteStore) UpdateTaskFields(ctx context.Context, ws, id string, fields map[string]any) (*models.Task, error) {
	raw, v, err := s.patchDoc(ctx, ws, CollTasks, id, fields)
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

func (s *sqliteStore) GetTask(ctx context.Context, ws, id string) (*models.Task, error) {
	var t models.Task
	v, err := s.getDoc(ctx, ws, CollTasks, id, &t)
	if err != nil {
		return nil, err
	}
	t.Version = v
	return &t, nil
}

func (s *sqliteStore) ListTasks(ctx context.Context, ws string, includeArchived bool) ([]models.Task, error) {
	var out []models.Task
	err := s.listDocs(ctx, ws, CollTasks, func(raw []byte, version int64) error {
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

func (s *sqliteStore) PutProject(ctx context.Context, ws string, p models.Project) error {
	if p.ID == "" {
		return errors.New("project id required")
	}
	_, err := s.putDoc(ctx, ws, CollProjects, p.ID, p, nil)
	return err
}

func (s *sqliteStore) GetProject(ctx context.Context, ws, id string) (*models.Project, error) {
	var p models.Project
	if _, err := s.getDoc(ctx, ws, CollProjects, id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *sqliteStore) ListProjects(ctx context.Context, ws string) ([]models.Project, error) {
	var out []models.Project
	err := s.listDocs(ctx, ws, CollProjects, func(raw []byte, _ int64) error {
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

func (s *sqliteStore) PutMember(ctx context.Context, ws string, m models.TeamMember) error {
	if m.ID == "" {
		return errors.New("member id required")
	}
	_, err := s.putDoc(ctx, ws, CollMembers, m.ID, m, nil)
	return err
}

func (s *sqliteStore) GetMember(ctx context.Context, ws, id string) (*models.TeamMember, error) {
	var m models.TeamMember
	if _, err := s.getDoc(ctx, ws, CollMembers, id, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *sqliteStore) ListMembers(ctx context.Context, ws string) ([]models.TeamMember, error) {
	var out []models.TeamMember
	err := s.listDocs(ctx, ws, CollMembers, func(raw []byte, _ int64) error {
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

func (s *sqliteStore) PutMilestone(ctx context.Context, ws string, m models.Milestone) error {
	if m.ID == "" {
		return errors.New("milestone id required")
	}
	_, err := s.putDoc(ctx, ws, CollMilestones, m.ID, m, nil)
	return err
}

func (s *sqliteStore) ListMilestones(ctx context.Context, ws string) ([]models.Milestone, error) {
	var out []models.Milestone
	err := s.listDocs(ctx, ws, CollMilestones, func(raw []byte, _ int64) error {
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

func (s *sqliteStore) PutClient(ctx context.Context, ws string, c models.Client) error {
	if c.ID == "" {
		return errors.New("client id required")
	}
	_, err := s.putDoc(ctx, ws, CollClients, c.ID, c, nil)
	return err
}

func (s *sqliteStore) ListClients(ctx context.Context, ws string) ([]models.Client, error) {
	var out []models.Client
	err := s.listDocs(ctx, ws, CollClients, func(raw []byte, _ int64) error {
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

func (s *sqliteStore) PutErrorLog(ctx context.Context, ws string, e models.ErrorLog) error {
	if e.ID == "" {
		return errors.New("error log id required")
	}
	_, err := s.putDoc(ctx, ws, CollErrors, e.ID, e, nil)
	return err
}

func (s *sqliteStore) UpdateErrorLogFields(ctx context.Context, ws, id string, fields map[string]any) (*models.ErrorLog, error) {
	raw, _, err := s.patchDoc(ctx, ws, CollErrors, id, fields)
	if err != nil {
		return nil, err
	}
	var e models.ErrorLog
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *sqliteStore) GetErrorLog(ctx context.Context, ws, id string) (*models.ErrorLog, error) {
	var e models.ErrorLog
	if _, err := s.getDoc(ctx, ws, CollErrors, id, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *sqliteStore) ListErrorLogs(ctx context.Context, ws string) ([]models.ErrorLog, error) {
	var out []models.ErrorLog
	err := s.listDocs(ctx, ws, CollErrors, func(raw []byte, _ int64) error {
		var e models.ErrorLog
		if err := json.Unmarshal(raw, &e); err != nil {
			return err
		}
		out = append(out, e)
		return nil
	})
	return out, err
}

func (s *sqliteStore) DeleteErrorLog(ctx context.Context, ws, id string) error {
	return s.deleteDoc(ctx, ws, CollErrors, id)
}

// --- activity ---

func (s *sqliteStore) AppendActivity(ctx context.Context, ws string, e models.ActivityEntry) (models.ActivityEntry, error) {
	if e.ID == "" {
		e.ID = randomID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Timestamp == "" {
		e.Timestamp = e.CreatedAt.Format("15:04")
	}
	_, err := s.stmtInsertActivity.ExecContext(ctx,
		e.ID, ws, e.Source, e.Author, e.Content, e.Timestamp, e.CreatedAt.UnixNano())
	if err != nil {
		return models.ActivityEntry{}, err
	}
	return e, nil
}

func (s *sqliteStore) ListActivity(ctx context.Context, ws string, limit int) ([]models.ActivityEntry, error) {
	if limit <= 0 || limit > models.DefaultActivityListLimit {
		limit = models.DefaultActivityListLimit
	}
	rows, err := s.stmtListActivity.QueryContext(ctx, ws, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

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

// randomInviteCode returns a short human-shareable code. The ambiguous
// characters 0/O and 1/I are excluded.
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
