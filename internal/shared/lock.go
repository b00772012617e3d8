package shared

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// RunLock guards a sync run against concurrent runs sharing the same lock file.
type RunLock struct {
	path string
	lock *flock.Flock
}

// AcquireLock takes the exclusive run lock at path without blocking.
//
// Returns [ErrRunInProgress] when another process holds it.
func AcquireLock(path string) (*RunLock, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: sync.lock_path is empty", ErrInvalidConfig)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create lock directory: %w", err)
		}
	}

	l := flock.New(path)
	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: lock held at %s", ErrRunInProgress, path)
	}
	return &RunLock{path: path, lock: l}, nil
}

// Path returns the lock file location.
func (l *RunLock) Path() string {
	return l.path
}

// Release unlocks the run lock. Safe to call more than once.
func (l *RunLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
