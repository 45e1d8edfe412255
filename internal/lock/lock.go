// Package lock serialises operations across ovl processes with flock.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// FileName is the lock file kept in the metadata root.
const FileName = ".ovl.lock"

const pollInterval = 50 * time.Millisecond

// FileLock is an exclusive lock on a file.
type FileLock struct {
	path string
	file *os.File
}

// New returns a lock on path. The file is created on first use.
func New(path string) *FileLock {
	return &FileLock{path: path}
}

// Lock blocks until the lock is held or ctx is done.
func (l *FileLock) Lock(ctx context.Context) error {
	if l.file != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("open lock: %w", err)
	}

	for {
		err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			l.file = f
			return nil
		}
		if !errors.Is(err, syscall.EWOULDBLOCK) {
			f.Close()
			return fmt.Errorf("lock %s: %w", l.path, err)
		}

		select {
		case <-ctx.Done():
			f.Close()
			return fmt.Errorf("waiting for lock %s: %w", l.path, ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

// Unlock releases the lock. Unlocking a lock that isn't held is a no-op.
func (l *FileLock) Unlock() error {
	if l.file == nil {
		return nil
	}
	f := l.file
	l.file = nil

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Acquire locks path and returns the function releasing it.
func Acquire(ctx context.Context, path string) (func(), error) {
	l := New(path)
	if err := l.Lock(ctx); err != nil {
		return nil, err
	}
	return func() { l.Unlock() }, nil
}
