package installer

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

// skipWithoutProcessTable skips where PID 1 is not a meaningful live process.
func skipWithoutProcessTable(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("PID 1 is not guaranteed to exist on windows")
	}
}

// TestAcquireLock_CreatesAndReleases writes our PID and removes it on release.
func TestAcquireLock_CreatesAndReleases(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "app.zip"+lockSuffix)

	lock, err := acquireLock(context.Background(), path)
	require.NoError(t, err)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, strconv.Itoa(os.Getpid()), string(contents))

	lock.release(context.Background())
	require.NoFileExists(t, path)
}

// TestAcquireLock_RemovesStale replaces markers of dead or unknown owners.
func TestAcquireLock_RemovesStale(t *testing.T) {
	t.Parallel()

	for _, contents := range []string{"999999999", "not-a-pid", ""} {
		path := filepath.Join(t.TempDir(), "app.zip"+lockSuffix)
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

		lock, err := acquireLock(context.Background(), path)
		require.NoError(t, err, contents)

		lock.release(context.Background())
	}
}

// TestAcquireLock_LiveOwnerBlocks keeps the marker of a running process.
func TestAcquireLock_LiveOwnerBlocks(t *testing.T) {
	t.Parallel()

	skipWithoutProcessTable(t)

	path := filepath.Join(t.TempDir(), "app.zip"+lockSuffix)
	require.NoError(t, os.WriteFile(path, []byte("1"), 0o600))

	_, err := acquireLock(context.Background(), path)
	require.ErrorIs(t, err, errInstallAlreadyRunning)
	require.FileExists(t, path)
}
