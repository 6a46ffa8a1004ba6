// Package ingest derives synthetic error-queue entries from review comments.
// Derived entries live only in API responses; they are never persisted.
package ingest

import (
	"fmt"
	"strings"

	"github.com/DesmondSol/speedops/pkg/models"
)

// syntheticPrefix marks entry IDs minted from comments. The suffix is the
// source comment ID, which makes derivation idempotent.
const syntheticPrefix = "ingested-"

// flagged reports whether a comment tag feeds the error queue.
func flagged(tag string) bool {
	return tag == models.TagError || tag == models.TagBug
}

// IsSynthetic reports whether an error ID was minted by Derive.
func IsSynthetic(id string) bool {
	return strings.HasPrefix(id, syntheticPrefix)
}

func fromComment(t models.Task, c models.TaskComment) models.ErrorLog {
	return models.ErrorLog{
		ID:           syntheticPrefix + c.ID,
		ProjectID:    t.ProjectID,
		Title:        fmt.Sprintf("%s: %s flagged in review", t.Name, c.Tag),
		Description:  c.Content,
		AuthorID:     c.AuthorID,
		AssignedToID: t.AssigneeID,
		Severity:     models.SeverityMedium,
		Status:       models.ErrorActive,
		Timestamp:    c.Timestamp,
	}
}

// Derive scans task comments and mints one synthetic error per Error- or
// Bug-tagged comment. Calling it twice over the same tasks yields the same
// IDs, so merged views stay stable across refreshes.
func Derive(tasks []models.Task) []models.ErrorLog {
	var out []models.ErrorLog
	for _, t := range tasks {
		for _, c := range t.Comments {
			if flagged(c.Tag) {
				out = append(out, fromComment(t, c))
			}
		}
	}
	return out
}

// Queue merges natively filed errors with entries derived from the given
// tasks. Native entries come first, each tagged with its kind; synthetic
// entries carry the owning task ID.
func Queue(native []models.ErrorLog, tasks []models.Task) []models.ErrorEntry {
	out := make([]models.ErrorEntry, 0, len(native))
	for _, e := range native {
		out = append(out, models.ErrorEntry{Kind: models.ErrorKindNative, Error: e})
	}
	for _, t := range tasks {
		for _, c := range t.Comments {
			if flagged(c.Tag) {
				out = append(out, models.ErrorEntry{
					Kind:   models.ErrorKindSynthetic,
					Error:  fromComment(t, c),
					TaskID: t.ID,
				})
			}
		}
	}
	return out
}
