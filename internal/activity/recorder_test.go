package activity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DesmondSol/speedops/internal/store"
	"github.com/DesmondSol/speedops/pkg/models"
)

func TestRecord_landsInStore(t *testing.T) {
	t.Parallel()
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ws, err := s.CreateWorkspace(context.Background(), "acme", "owner-1")
	require.NoError(t, err)

	r := NewRecorder(s, nil)
	r.Record(ws.ID, models.ActivityEntry{Source: models.SourceTask, Author: "SYSTEM", Content: "Unit login flow migrated to QA"})

	require.Eventually(t, func() bool {
		got, err := s.ListActivity(context.Background(), ws.ID, 10)
		return err == nil && len(got) == 1
	}, 2*time.Second, 10*time.Millisecond)
	r.Close()
}

func TestClose_drainsQueue(t *testing.T) {
	t.Parallel()
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ws, err := s.CreateWorkspace(context.Background(), "acme", "owner-1")
	require.NoError(t, err)

	r := NewRecorder(s, nil)
	for i := 0; i < 10; i++ {
		r.Record(ws.ID, models.ActivityEntry{Source: models.SourceError, Author: "SYSTEM", Content: "New error logged"})
	}
	r.Close()

	got, err := s.ListActivity(context.Background(), ws.ID, 50)
	require.NoError(t, err)
	assert.Len(t, got, 10)
}

func TestRecord_afterCloseIsNoop(t *testing.T) {
	t.Parallel()
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ws, err := s.CreateWorkspace(context.Background(), "acme", "owner-1")
	require.NoError(t, err)

	r := NewRecorder(s, nil)
	r.Close()
	r.Record(ws.ID, models.ActivityEntry{Source: models.SourceTask, Author: "SYSTEM", Content: "late"})
	r.Close() // double close is safe

	got, err := s.ListActivity(context.Background(), ws.ID, 50)
	require.NoError(t, err)
	assert.Empty(t, got)
}
