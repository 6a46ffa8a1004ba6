// Package workflow implements the task lifecycle: stage transitions with
// proof capture, and review comments.
package workflow

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/DesmondSol/speedops/internal/activity"
	"github.com/DesmondSol/speedops/internal/stage"
	"github.com/DesmondSol/speedops/internal/store"
	"github.com/DesmondSol/speedops/pkg/models"
)

// ErrUnknownStage is returned when a transition targets a stage outside the
// pipeline.
var ErrUnknownStage = errors.New("unknown stage")

// ErrProofRequired is returned when the gate runs in strict mode and the
// transition carries no proof link.
var ErrProofRequired = errors.New("proof required")

// Evidence is what a developer hands over when moving a task to its next
// stage.
type Evidence struct {
	ProofLink    string
	Note         string
	NextAssignee string
}

// Complete reports whether a non-empty proof link was provided.
func (e Evidence) Complete() bool {
	return strings.TrimSpace(e.ProofLink) != ""
}

// Gate moves tasks through the pipeline. Every transition appends a proof
// stamped with the stage being exited; missing links are recorded as "N/A"
// unless RequireProof is set.
type Gate struct {
	Store    store.Store
	Graph    *stage.Graph
	Recorder *activity.Recorder
	Log      *slog.Logger

	// RequireProof rejects transitions without a proof link. Off by
	// default: an empty link degrades to an "N/A" proof entry.
	RequireProof bool

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

func (g *Gate) now() time.Time {
	if g.Now != nil {
		return g.Now().UTC()
	}
	return time.Now().UTC()
}

func (g *Gate) logger() *slog.Logger {
	if g.Log != nil {
		return g.Log
	}
	return slog.Default()
}

// Transition moves the task to target. Moving a task to its current stage is
// a no-op that writes nothing. expectedVersion, when non-nil, makes the
// write conditional; nil means last-write-wins.
func (g *Gate) Transition(ctx context.Context, ws, taskID, target string, ev Evidence, expectedVersion *int64) (*models.Task, error) {
	task, err := g.Store.GetTask(ctx, ws, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status == target {
		return task, nil
	}
	if !g.Graph.Contains(target) {
		return nil, fmt.Errorf("stage %q: %w", target, ErrUnknownStage)
	}
	if g.Graph.Contains(task.Status) && !g.Graph.IsLegalTransition(task.Status, target) {
		return nil, fmt.Errorf("%s -> %s: %w", task.Status, target, ErrUnknownStage)
	}
	if g.RequireProof && !ev.Complete() {
		return nil, fmt.Errorf("transition to %s: %w", target, ErrProofRequired)
	}

	link := strings.TrimSpace(ev.ProofLink)
	if link == "" {
		link = "N/A"
	}
	// The proof is stamped with the stage being exited, not the target.
	task.Proofs = append(task.Proofs, models.TaskProof{
		Stage:     task.Status,
		Link:      link,
		Timestamp: g.now(),
		Note:      strings.TrimSpace(ev.Note),
	})
	task.Status = target
	if ev.NextAssignee != "" {
		task.AssigneeID = ev.NextAssignee
	}

	updated, err := g.Store.PutTask(ctx, ws, *task, expectedVersion)
	if err != nil {
		return nil, err
	}

	g.recordTransition(ctx, ws, &updated, target)
	return &updated, nil
}

// recordTransition feeds the activity stream. Failures are logged, never
// surfaced: the transition has already committed.
func (g *Gate) recordTransition(ctx context.Context, ws string, task *models.Task, target string) {
	if g.Recorder == nil {
		return
	}
	author := "SYSTEM"
	if task.AssigneeID != "" {
		if m, err := g.Store.GetMember(ctx, ws, task.AssigneeID); err == nil && m.Name != "" {
			author = m.Name
		} else if err != nil && !errors.Is(err, store.ErrNotFound) {
			g.logger().Warn("member lookup for activity failed", "workspace", ws, "member", task.AssigneeID, "err", err)
		}
	}
	content := fmt.Sprintf("Unit %s migrated to %s", task.Name, target)
	if target == g.Graph.Terminal() {
		content = fmt.Sprintf("Unit %s mission complete", task.Name)
	}
	g.Recorder.Record(ws, models.ActivityEntry{
		Source:    models.SourceTask,
		Author:    author,
		Content:   content,
		CreatedAt: g.now(),
	})
}

// AppendComment prepends a review comment to the task. Blank content is
// silently ignored; an empty tag defaults to Note. Comments do not touch the
// activity feed.
func (g *Gate) AppendComment(ctx context.Context, ws, taskID string, c models.TaskComment) (*models.Task, error) {
	task, err := g.Store.GetTask(ctx, ws, taskID)
	if err != nil {
		return nil, err
	}
	c.Content = strings.TrimSpace(c.Content)
	if c.Content == "" {
		return task, nil
	}
	if c.Tag == "" {
		c.Tag = models.TagNote
	}
	if !models.ValidCommentTag(c.Tag) {
		return nil, fmt.Errorf("unknown comment tag %q", c.Tag)
	}
	if c.ID == "" {
		c.ID = newCommentID()
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = g.now()
	}

	// Newest first.
	task.Comments = append([]models.TaskComment{c}, task.Comments...)
	updated, err := g.Store.PutTask(ctx, ws, *task, nil)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func newCommentID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("c-%d", time.Now().UnixNano())
	}
	return "c-" + hex.EncodeToString(b)
}
