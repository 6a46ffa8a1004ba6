package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean_nestedNulls(t *testing.T) {
	t.Parallel()
	in := map[string]any{
		"name": "task-1",
		"gone": nil,
		"nested": map[string]any{
			"keep":   42.0,
			"absent": nil,
			"list": []any{
				"a",
				map[string]any{"x": nil, "y": "z"},
				nil, // array elements are cleaned, not dropped
			},
		},
	}
	got := Clean(in)
	want := map[string]any{
		"name": "task-1",
		"nested": map[string]any{
			"keep": 42.0,
			"list": []any{"a", map[string]any{"y": "z"}, nil},
		},
	}
	assert.Equal(t, want, got)
}

func TestClean_idempotent(t *testing.T) {
	t.Parallel()
	in := map[string]any{"a": nil, "b": []any{map[string]any{"c": nil, "d": 1.0}}}
	once := Clean(in)
	twice := Clean(once)
	assert.Equal(t, once, twice)
}

func TestClean_primitivesUnchanged(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "s", Clean("s"))
	assert.Equal(t, 3.5, Clean(3.5))
	assert.Equal(t, true, Clean(true))
	assert.Nil(t, Clean(nil))
}

func TestDocument_stripsOmittedFields(t *testing.T) {
	t.Parallel()
	type inner struct {
		Note *string `json:"note"`
	}
	type doc struct {
		Name  string  `json:"name"`
		Owner *string `json:"owner"`
		Inner inner   `json:"inner"`
	}
	got, err := Document(doc{Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "x", "inner": map[string]any{}}, got)
}

func TestDocument_rejectsNonObject(t *testing.T) {
	t.Parallel()
	_, err := Document([]string{"not", "an", "object"})
	require.Error(t, err)
}
