package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DesmondSol/speedops/pkg/models"
)

func sampleTasks() []models.Task {
	ts := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	return []models.Task{
		{
			ID:         "t1",
			ProjectID:  "p1",
			Name:       "login flow",
			AssigneeID: "dev-7",
			Comments: []models.TaskComment{
				{ID: "c3", AuthorID: "qa-1", Content: "panics on empty email", Tag: models.TagBug, Timestamp: ts},
				{ID: "c2", AuthorID: "qa-1", Content: "button misaligned", Tag: models.TagUIUX, Timestamp: ts},
				{ID: "c1", AuthorID: "dev-2", Content: "500 from the session endpoint", Tag: models.TagError, Timestamp: ts},
			},
		},
		{ID: "t2", ProjectID: "p1", Name: "billing", Comments: []models.TaskComment{
			{ID: "c4", Content: "tidy later", Tag: models.TagNote, Timestamp: ts},
		}},
	}
}

func TestDerive_onlyErrorAndBugComments(t *testing.T) {
	t.Parallel()
	got := Derive(sampleTasks())
	require.Len(t, got, 2)

	assert.Equal(t, "ingested-c3", got[0].ID)
	assert.Equal(t, "login flow: Bug flagged in review", got[0].Title)
	assert.Equal(t, "panics on empty email", got[0].Description)
	assert.Equal(t, models.SeverityMedium, got[0].Severity)
	assert.Equal(t, models.ErrorActive, got[0].Status)
	assert.Equal(t, "qa-1", got[0].AuthorID)
	assert.Equal(t, "dev-7", got[0].AssignedToID)

	assert.Equal(t, "ingested-c1", got[1].ID)
	assert.Equal(t, "login flow: Error flagged in review", got[1].Title)
	assert.Equal(t, "dev-7", got[1].AssignedToID)
}

func TestDerive_idempotentOverSameInput(t *testing.T) {
	t.Parallel()
	first := Derive(sampleTasks())
	second := Derive(sampleTasks())
	assert.Equal(t, first, second)
}

func TestDerive_emptyInputs(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Derive(nil))
	assert.Empty(t, Derive([]models.Task{{ID: "t1", Name: "no comments"}}))
}

func TestQueue_mergesNativeFirst(t *testing.T) {
	t.Parallel()
	native := []models.ErrorLog{{ID: "e1", Title: "prod crash", Severity: models.SeverityHigh, Status: models.ErrorActive}}

	got := Queue(native, sampleTasks())
	require.Len(t, got, 3)

	assert.Equal(t, models.ErrorKindNative, got[0].Kind)
	assert.Equal(t, "e1", got[0].Error.ID)
	assert.Empty(t, got[0].TaskID)

	assert.Equal(t, models.ErrorKindSynthetic, got[1].Kind)
	assert.Equal(t, "t1", got[1].TaskID)
	assert.Equal(t, models.ErrorKindSynthetic, got[2].Kind)
}

func TestQueue_noNativeNoFlagged(t *testing.T) {
	t.Parallel()
	got := Queue(nil, nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestIsSynthetic(t *testing.T) {
	t.Parallel()
	assert.True(t, IsSynthetic("ingested-c3"))
	assert.False(t, IsSynthetic("e1"))
	assert.False(t, IsSynthetic(""))
}
