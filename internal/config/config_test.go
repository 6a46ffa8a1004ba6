package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveHome_override(t *testing.T) {
	got, err := ResolveHome("/tmp/custom")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom", got)
}

func TestResolveHome_env(t *testing.T) {
	t.Setenv("SPEEDOPS_HOME", "/tmp/from-env")
	got, err := ResolveHome("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-env", got)
}

func TestResolveHome_default(t *testing.T) {
	t.Setenv("SPEEDOPS_HOME", "")
	got, err := ResolveHome("")
	require.NoError(t, err)
	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, ".speedops"), got)
}

func TestHomeContext(t *testing.T) {
	t.Parallel()
	ctx := WithHome(context.Background(), "/data/speedops")
	h, ok := HomeFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, "/data/speedops", h)
	assert.Equal(t, "/data/speedops", MustHomeFrom(ctx))
}

func TestMustHomeFrom_panics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { MustHomeFrom(context.Background()) })
}

func TestLoadSettings_defaultsAndFile(t *testing.T) {
	home := t.TempDir()
	s, err := LoadSettings(home)
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, s.Port)
	assert.Equal(t, "sqlite", s.DBDriver)

	err = os.WriteFile(filepath.Join(home, "config.yaml"), []byte("port: 9001\ndb_driver: postgres\npipeline: stages.yaml\nai_model: claude-sonnet-4-5\nai_api_key: sk-ant-test\n"), 0o644)
	require.NoError(t, err)
	s, err = LoadSettings(home)
	require.NoError(t, err)
	assert.Equal(t, 9001, s.Port)
	assert.Equal(t, "postgres", s.DBDriver)
	assert.Equal(t, filepath.Join(home, "stages.yaml"), s.PipelineYML)
	assert.Equal(t, "claude-sonnet-4-5", s.AIModel)
	assert.Equal(t, "sk-ant-test", s.AIAPIKey)
}
