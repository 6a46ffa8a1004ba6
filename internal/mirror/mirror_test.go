package mirror

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_lastWriteWins(t *testing.T) {
	t.Parallel()
	c := New()

	s1 := c.Apply("ws1", "tasks", json.RawMessage(`[{"id":"t1"}]`))
	s2 := c.Apply("ws1", "tasks", json.RawMessage(`[{"id":"t1"},{"id":"t2"}]`))
	assert.Greater(t, s2, s1)

	got, ok := c.Get("ws1", "tasks")
	require.True(t, ok)
	assert.JSONEq(t, `[{"id":"t1"},{"id":"t2"}]`, string(got))
}

func TestApply_duplicateSnapshotStillBumpsSeq(t *testing.T) {
	t.Parallel()
	c := New()
	snap := json.RawMessage(`[{"id":"t1"}]`)
	s1 := c.Apply("ws1", "tasks", snap)
	s2 := c.Apply("ws1", "tasks", snap)
	assert.Equal(t, s1+1, s2)
	assert.Equal(t, s2, c.Seq())
}

func TestGet_missing(t *testing.T) {
	t.Parallel()
	c := New()
	_, ok := c.Get("ws1", "tasks")
	assert.False(t, ok)
}

func TestCollectionsAreIndependent(t *testing.T) {
	t.Parallel()
	c := New()
	c.Apply("ws1", "tasks", json.RawMessage(`["a"]`))
	c.Apply("ws1", "errors", json.RawMessage(`["b"]`))
	c.Apply("ws2", "tasks", json.RawMessage(`["c"]`))

	got, ok := c.Get("ws1", "errors")
	require.True(t, ok)
	assert.JSONEq(t, `["b"]`, string(got))

	c.Drop("ws1")
	_, ok = c.Get("ws1", "tasks")
	assert.False(t, ok)
	_, ok = c.Get("ws2", "tasks")
	assert.True(t, ok)
}

func TestApply_concurrentSeqMonotonic(t *testing.T) {
	t.Parallel()
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Apply("ws1", "tasks", json.RawMessage(`[]`))
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 50, c.Seq())
}
