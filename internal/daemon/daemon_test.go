package daemon

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartForeground_emptyHome(t *testing.T) {
	err := StartForeground(context.Background(), StartOptions{Home: ""})
	require.Error(t, err)
}

func TestStatus_noPidFile(t *testing.T) {
	st, err := Status(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.False(t, st.Running)
}

func TestStatus_garbagePidFile(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(protectedDir(home), 0o755))
	require.NoError(t, os.WriteFile(pidPath(home), []byte("not-a-pid\n"), 0o644))

	st, err := Status(context.Background(), home)
	require.NoError(t, err)
	assert.False(t, st.Running)
}

func TestStatus_stalePidIsCleaned(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(protectedDir(home), 0o755))
	// PIDs wrap below ~4 million on Linux; this one can't exist.
	require.NoError(t, os.WriteFile(pidPath(home), []byte("999999999\n"), 0o644))

	st, err := Status(context.Background(), home)
	require.NoError(t, err)
	assert.False(t, st.Running)
	_, statErr := os.Stat(pidPath(home))
	assert.True(t, os.IsNotExist(statErr), "stale pid file is removed")
}

func TestStatus_runningProcessReadsAddr(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(protectedDir(home), 0o755))
	// Our own pid always exists.
	require.NoError(t, os.WriteFile(pidPath(home), []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644))
	require.NoError(t, os.WriteFile(addrPath(home), []byte("0.0.0.0:4519\n"), 0o644))

	st, err := Status(context.Background(), home)
	require.NoError(t, err)
	assert.True(t, st.Running)
	assert.Equal(t, os.Getpid(), st.PID)
	assert.Equal(t, "0.0.0.0:4519", st.Addr)
}

func TestAcquireLock_secondAcquireFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "protected", "daemon.lock")

	first, err := acquireLock(path)
	require.NoError(t, err)
	defer first.release()

	_, err = acquireLock(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestAcquireLock_releasedLockCanBeReacquired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "protected", "daemon.lock")

	first, err := acquireLock(path)
	require.NoError(t, err)
	first.release()

	second, err := acquireLock(path)
	require.NoError(t, err)
	second.release()
}

func TestBackgroundArgs_forwardsResolvedOptions(t *testing.T) {
	args := backgroundArgs(StartOptions{
		Home:         "/tmp/home",
		Port:         4519,
		DBDriver:     "sqlite",
		PipelineYML:  "/tmp/pipeline.yml",
		RequireProof: true,
		AIModel:      "claude-sonnet-4-5",
		EnableOtel:   true,
	})

	assert.Equal(t, "daemon", args[0])
	assert.Contains(t, args, "--require-proof")
	assert.Contains(t, args, "--otel")
	for _, pair := range [][2]string{
		{"--home", "/tmp/home"},
		{"--port", "4519"},
		{"--db-driver", "sqlite"},
		{"--pipeline", "/tmp/pipeline.yml"},
		{"--ai-model", "claude-sonnet-4-5"},
	} {
		i := slices.Index(args, pair[0])
		require.GreaterOrEqual(t, i, 0, pair[0])
		require.Less(t, i+1, len(args))
		assert.Equal(t, pair[1], args[i+1])
	}
}

func TestBackgroundArgs_omitsUnsetOptions(t *testing.T) {
	args := backgroundArgs(StartOptions{Home: "/tmp/home", Port: 4519})
	assert.NotContains(t, args, "--ai-model")
	assert.NotContains(t, args, "--db-url")
	assert.NotContains(t, args, "--require-proof")
}

func TestStop_notRunning(t *testing.T) {
	stopped, err := Stop(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.False(t, stopped)
}
