package cli

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DesmondSol/speedops/pkg/models"
)

func TestNewRootCmd_hasSubcommands(t *testing.T) {
	root := NewRootCmd("test")
	require.NotNil(t, root)
	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"start", "stop", "status", "doctor", "workspace", "project", "task", "member", "milestone", "client", "errorlog", "brief", "apikey", "nuke"} {
		assert.True(t, names[want], "expected subcommand %q", want)
	}
}

func TestNewRootCmd_versionFlag(t *testing.T) {
	root := NewRootCmd("1.2.3")
	assert.Equal(t, "1.2.3", root.Version)
}

func TestNewRootCmd_hasHomeFlag(t *testing.T) {
	root := NewRootCmd("")
	require.NotNil(t, root.PersistentFlags().Lookup("home"))
}

func TestApikeyGenerate(t *testing.T) {
	root := NewRootCmd("")
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"apikey", "generate"})
	require.NoError(t, root.Execute())

	out := buf.String()
	assert.Regexp(t, regexp.MustCompile(`(?m)^  ([a-f0-9]{64})$`), out)
	assert.Contains(t, out, "SPEEDOPS_API_KEY")
	assert.Contains(t, out, "X-API-Key")
}

// run executes the command tree against a temp home and returns stdout.
func run(t *testing.T, home string, args ...string) string {
	t.Helper()
	root := NewRootCmd("")
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(append([]string{"--home", home}, args...))
	require.NoError(t, root.Execute(), "command %v failed: %s", args, buf.String())
	return buf.String()
}

func wsIDFromCreate(t *testing.T, out string) string {
	t.Helper()
	m := regexp.MustCompile(`workspace (\S+) `).FindStringSubmatch(out)
	require.NotNil(t, m, "no workspace id in %q", out)
	return m[1]
}

func TestWorkspaceAndTaskFlow(t *testing.T) {
	home := t.TempDir()

	out := run(t, home, "workspace", "create", "--name", "acme", "--owner", "owner-1")
	ws := wsIDFromCreate(t, out)

	out = run(t, home, "workspace", "list")
	assert.Contains(t, out, "acme")

	run(t, home, "task", "create", "--workspace", ws, "--id", "t1", "--name", "login flow")
	out = run(t, home, "task", "list", "--workspace", ws)
	assert.Contains(t, out, "t1")
	assert.Contains(t, out, models.StatusBacklog)

	run(t, home, "task", "move", "--workspace", ws, "--id", "t1", "--to", models.StatusInProgress, "--proof", "https://example.com/pr/1")
	out = run(t, home, "task", "list", "--workspace", ws)
	assert.Contains(t, out, models.StatusInProgress)
	assert.Contains(t, out, "proofs=1")

	run(t, home, "task", "comment", "--workspace", ws, "--id", "t1", "--content", "crashes on submit", "--tag", models.TagError)

	out = run(t, home, "errorlog", "list", "--workspace", ws)
	assert.Contains(t, out, "ingested-")
	assert.Contains(t, out, "synthetic")

	run(t, home, "task", "archive", "--workspace", ws, "--id", "t1")
	out = run(t, home, "task", "list", "--workspace", ws)
	assert.NotContains(t, out, "t1")
	out = run(t, home, "task", "list", "--workspace", ws, "--archived")
	assert.Contains(t, out, "t1")
}

func TestTaskMove_unknownStageFails(t *testing.T) {
	home := t.TempDir()
	ws := wsIDFromCreate(t, run(t, home, "workspace", "create", "--name", "acme"))
	run(t, home, "task", "create", "--workspace", ws, "--id", "t1", "--name", "n")

	root := NewRootCmd("")
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"--home", home, "task", "move", "--workspace", ws, "--id", "t1", "--to", "Shipped"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stage")
}

func TestErrorlogFileAndResolve(t *testing.T) {
	home := t.TempDir()
	ws := wsIDFromCreate(t, run(t, home, "workspace", "create", "--name", "acme"))

	run(t, home, "errorlog", "file", "--workspace", ws, "--id", "e1", "--title", "prod crash")
	out := run(t, home, "errorlog", "list", "--workspace", ws)
	assert.Contains(t, out, "e1")
	assert.Contains(t, out, "active")

	run(t, home, "errorlog", "resolve", "--workspace", ws, "--id", "e1", "--by", "dev-1", "--commit", "https://example.com/c/1")
	out = run(t, home, "errorlog", "list", "--workspace", ws)
	assert.Contains(t, out, "resolved")
}

func TestMemberMilestoneClientCommands(t *testing.T) {
	home := t.TempDir()
	ws := wsIDFromCreate(t, run(t, home, "workspace", "create", "--name", "acme"))

	run(t, home, "member", "add", "--workspace", ws, "--id", "m1", "--name", "Abel", "--roles", "dev,qa")
	out := run(t, home, "member", "list", "--workspace", ws)
	assert.Contains(t, out, "Abel")

	run(t, home, "milestone", "add", "--workspace", ws, "--title", "beta", "--deadline", "2026-10-01")
	out = run(t, home, "milestone", "list", "--workspace", ws)
	assert.Contains(t, out, "beta")
	assert.Contains(t, out, models.UrgencyMedium)

	run(t, home, "client", "add", "--workspace", ws, "--name", "Globex")
	out = run(t, home, "client", "list", "--workspace", ws)
	assert.Contains(t, out, "Globex")
}

func TestDoctor_freshHome(t *testing.T) {
	out := run(t, t.TempDir(), "doctor")
	assert.Equal(t, "ok", strings.TrimSpace(out))
}

func TestNuke_requiresConfirmation(t *testing.T) {
	home := t.TempDir()
	run(t, home, "workspace", "create", "--name", "acme")

	root := NewRootCmd("")
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetIn(strings.NewReader("no\n"))
	root.SetArgs([]string{"--home", home, "nuke"})
	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "Aborted.")
}
