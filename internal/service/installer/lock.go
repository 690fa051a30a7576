package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/bbug/internal/logger"
)

const (
	// lockSuffix is appended to the archive path to name the run lock.
	lockSuffix = ".lock"

	// lockFileMode is the permission of the run lock.
	lockFileMode os.FileMode = 0o600
)

var errInstallAlreadyRunning = errors.New("another install is running")

// runLock marks that an install owns the shared archive path.
type runLock struct {
	// path is the marker file holding the owner PID.
	path string
}

// acquireLock creates the marker. A marker whose owner is still alive blocks
// the run; one left behind by a dead process is removed.
func acquireLock(ctx context.Context, path string) (*runLock, error) {
	logger.DebugKV(ctx, "Checking for the presence of an install lock", "path", path)

	contents, err := os.ReadFile(filepath.Clean(path))

	switch {
	case err == nil:
		if pid, alive := lockOwner(contents); alive {
			return nil, fmt.Errorf("%w (pid %d)", errInstallAlreadyRunning, pid)
		}

		logger.Info(ctx, "The install lock is stale, removing it")

		if err = os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale install lock: %w", err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read install lock: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:mnd // Directory mode.
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	marker, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_EXCL|os.O_WRONLY, lockFileMode)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, errInstallAlreadyRunning
		}

		return nil, fmt.Errorf("create install lock: %w", err)
	}

	_, err = marker.WriteString(strconv.Itoa(os.Getpid()))
	if closeErr := marker.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write install lock: %w", err)
	}

	return &runLock{path: path}, nil
}

// release removes the marker.
func (l *runLock) release(ctx context.Context) {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WarnKV(ctx, "Unable to remove install lock", "path", l.path, "error", err)
	}
}

// lockOwner parses the marker and reports whether its owner is another live process.
func lockOwner(contents []byte) (int, bool) {
	pid, err := strconv.Atoi(strings.TrimSpace(string(contents)))
	if err != nil || pid <= 0 || pid == os.Getpid() {
		return pid, false
	}

	process, err := ps.FindProcess(pid)
	if err != nil {
		// Unknown state, assume the owner is alive.
		return pid, true
	}

	return pid, process != nil
}
