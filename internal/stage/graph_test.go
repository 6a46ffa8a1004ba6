package stage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DesmondSol/speedops/pkg/models"
)

func TestDefault_pipelineOrder(t *testing.T) {
	t.Parallel()
	g := Default()
	assert.Equal(t, []string{"Backlog", "In Progress", "Testing", "QA", "Review", "Completed"}, g.States())
	assert.Equal(t, models.StatusBacklog, g.Initial())
	assert.Equal(t, models.StatusCompleted, g.Terminal())
}

func TestIsLegalTransition_anyToAny(t *testing.T) {
	t.Parallel()
	g := Default()
	for _, from := range g.States() {
		for _, to := range g.States() {
			legal := g.IsLegalTransition(from, to)
			if from == to {
				assert.False(t, legal, "self transition %s must be illegal", from)
			} else {
				assert.True(t, legal, "%s -> %s must be legal", from, to)
			}
		}
	}
	// Regression out of Completed is explicitly supported.
	assert.True(t, g.IsLegalTransition(models.StatusCompleted, models.StatusInProgress))
	assert.False(t, g.IsLegalTransition(models.StatusBacklog, "Shipped"))
	assert.False(t, g.IsLegalTransition("Unknown", models.StatusBacklog))
}

func TestNew_validation(t *testing.T) {
	t.Parallel()
	_, err := New([]string{"Only"})
	require.Error(t, err)
	_, err = New([]string{"A", ""})
	require.Error(t, err)
	_, err = New([]string{"A", "B", "A"})
	require.Error(t, err)
}

func TestLoad_customPipeline(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "stages.yaml")
	require.NoError(t, os.WriteFile(path, []byte("states:\n  - Triage\n  - Build\n  - Ship\n"), 0o644))

	g, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Triage", g.Initial())
	assert.Equal(t, "Ship", g.Terminal())
	assert.True(t, g.IsLegalTransition("Ship", "Triage"))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
