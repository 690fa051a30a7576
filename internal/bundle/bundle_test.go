package bundle

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/bbug/internal/config"
	"github.com/oshokin/bbug/internal/domain/module"
)

// requireShell skips tests that need a POSIX shell.
func requireShell(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh is not available")
	}
}

func testPlan(t *testing.T) *Plan {
	t.Helper()

	root := t.TempDir()

	return &Plan{
		RootPath:   root,
		Entries:    []module.Entry{{Name: module.EntryLauncher, Script: module.LauncherScript}},
		Mode:       "production",
		Library:    "jrni-app-demo",
		OutputPath: filepath.Join(root, "build"),
	}
}

// TestNewPlan derives the plan from the configuration.
func TestNewPlan(t *testing.T) {
	t.Parallel()

	cfg := &config.Configuration{
		RootPath: "/work/demo",
		Manifest: &module.Manifest{UniqueName: "demo"},
		DevMode:  true,
	}
	entries := []module.Entry{{Name: module.EntryPanel, Script: module.EntryScript}}

	plan := NewPlan(cfg, entries)
	require.Equal(t, "/work/demo", plan.RootPath)
	require.Equal(t, entries, plan.Entries)
	require.Equal(t, "development", plan.Mode)
	require.Equal(t, "jrni-app-demo", plan.Library)
	require.Equal(t, filepath.Join("/work/demo", "build"), plan.OutputPath)
}

// TestExecProducer_Success passes the plan through the environment and collects warnings.
func TestExecProducer_Success(t *testing.T) {
	t.Parallel()
	requireShell(t)

	plan := testPlan(t)

	stale := filepath.Join(plan.OutputPath, "stale.js")
	require.NoError(t, os.MkdirAll(plan.OutputPath, 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o600))

	script := `printf '%s' "$BBUG_ENTRIES" > "$BBUG_OUTPUT_PATH/entries.json"
echo "$BBUG_MODE $BBUG_LIBRARY" > "$BBUG_OUTPUT_PATH/meta.txt"
echo "asset launcher.js 12 KiB"
echo "WARNING in ./launcher.js: large asset" 1>&2`

	report, err := NewExecProducer([]string{"sh", "-c", script}).Produce(context.Background(), plan)
	require.NoError(t, err)
	require.False(t, report.Failed())
	require.Equal(t, []string{"WARNING in ./launcher.js: large asset"}, report.Warnings)

	_, err = os.Stat(stale)
	require.ErrorIs(t, err, os.ErrNotExist)

	raw, err := os.ReadFile(filepath.Join(plan.OutputPath, "entries.json"))
	require.NoError(t, err)

	var entries map[string][]string
	require.NoError(t, json.Unmarshal(raw, &entries))
	require.Equal(t, map[string][]string{
		module.EntryLauncher: {filepath.Join(plan.RootPath, module.LauncherScript)},
	}, entries)

	meta, err := os.ReadFile(filepath.Join(plan.OutputPath, "meta.txt"))
	require.NoError(t, err)
	require.Equal(t, "production jrni-app-demo\n", string(meta))
}

// TestExecProducer_ErrorLines fails the build and keeps every reported error.
func TestExecProducer_ErrorLines(t *testing.T) {
	t.Parallel()
	requireShell(t)

	script := `echo "ERROR in ./entry.js: Module not found"
echo "ERROR: Compilation failed"
echo "error in ./panel.vue: syntax"
echo "WARNING: slow"`

	report, err := NewExecProducer([]string{"sh", "-c", script}).Produce(context.Background(), testPlan(t))
	require.ErrorIs(t, err, ErrBuildFailed)
	require.True(t, report.Failed())
	require.Len(t, report.Errors, 2)
	require.Len(t, report.Warnings, 1)
}

// TestExecProducer_AssetRows keeps asset names that look like markers out of the report.
func TestExecProducer_AssetRows(t *testing.T) {
	t.Parallel()
	requireShell(t)

	script := `echo "           Asset      Size  Chunks  Chunk Names"
echo "       errors.js   1.2 KiB   panel  [emitted]  panel"
echo "warnings-list.js     2 KiB   panel  [emitted]  panel"
echo "ERRORS.md 1 KiB"
echo "WARNINGS 0"`

	report, err := NewExecProducer([]string{"sh", "-c", script}).Produce(context.Background(), testPlan(t))
	require.NoError(t, err)
	require.False(t, report.Failed())
	require.Empty(t, report.Errors)
	require.Empty(t, report.Warnings)
}

// TestHasMarker matches upper-case markers at the start of a line only.
func TestHasMarker(t *testing.T) {
	t.Parallel()

	cases := []struct {
		line string
		want bool
	}{
		{line: "ERROR in ./entry.js", want: true},
		{line: "ERROR: Compilation failed", want: true},
		{line: "ERROR", want: true},
		{line: "error in ./entry.js", want: false},
		{line: "ERRORS.md 1 KiB", want: false},
		{line: "    ERROR in ./entry.js", want: false},
		{line: "errors.js   1.2 KiB", want: false},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, hasMarker(tc.line, errorPrefix), tc.line)
	}
}

// TestExecProducer_NonZeroExit treats a failing command as a build failure.
func TestExecProducer_NonZeroExit(t *testing.T) {
	t.Parallel()
	requireShell(t)

	_, err := NewExecProducer([]string{"sh", "-c", "exit 3"}).Produce(context.Background(), testPlan(t))
	require.ErrorIs(t, err, ErrBuildFailed)

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 3, exitErr.ExitCode())
}

// TestExecProducer_MissingCommand reports commands that cannot start.
func TestExecProducer_MissingCommand(t *testing.T) {
	t.Parallel()

	_, err := NewExecProducer([]string{"bbug-no-such-bundler"}).Produce(context.Background(), testPlan(t))
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrBuildFailed)

	require.Equal(t, DefaultCommand(), NewExecProducer(nil).command)
}
