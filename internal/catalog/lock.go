package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// StaleLockAge is how old a lock file must be before it is considered
// abandoned by a crashed run.
const StaleLockAge = 10 * time.Minute

// LockPath returns the lock file guarding a catalog file.
func LockPath(catalogPath string) string {
	return catalogPath + ".lock"
}

// AcquireLock takes the run lock for a catalog using an O_EXCL lock file.
// A lock older than staleAfter is removed and retaken. The returned func
// releases the lock.
func AcquireLock(catalogPath string, staleAfter time.Duration) (func(), error) {
	const maxRetries = 3
	const retryDelay = 50 * time.Millisecond
	lockPath := LockPath(catalogPath)
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	for i := 0; i < maxRetries; i++ {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return func() { os.Remove(lockPath) }, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create lock: %w", err)
		}
		if info, statErr := os.Stat(lockPath); statErr == nil && time.Since(info.ModTime()) > staleAfter {
			if rmErr := os.Remove(lockPath); rmErr != nil && !os.IsNotExist(rmErr) {
				return nil, fmt.Errorf("remove stale lockfile: %w", rmErr)
			}
			continue
		}
		time.Sleep(retryDelay)
	}
	holder := ""
	if data, err := os.ReadFile(lockPath); err == nil {
		holder = strings.TrimSpace(string(data))
	}
	if holder != "" {
		return nil, fmt.Errorf("%w: %s held by pid %s", ErrLocked, lockPath, holder)
	}
	return nil, fmt.Errorf("%w: %s", ErrLocked, lockPath)
}
