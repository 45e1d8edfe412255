package lock

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestFileLock_LockUnlock(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "nested", FileName)
	l := New(lockPath)

	if err := l.Lock(context.Background()); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if _, err := os.Stat(lockPath); err != nil {
		t.Errorf("lock file should exist after locking: %v", err)
	}
	if err := l.Unlock(); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	// Second unlock is a no-op
	if err := l.Unlock(); err != nil {
		t.Errorf("second Unlock() error = %v", err)
	}
}

func TestFileLock_UnlockWithoutLock(t *testing.T) {
	t.Parallel()

	if err := New("/nonexistent/never-locked.lock").Unlock(); err != nil {
		t.Errorf("Unlock() without Lock() should not error, got %v", err)
	}
}

func TestFileLock_Serialises(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), FileName)
	ctx := context.Background()

	release, err := Acquire(ctx, lockPath)
	if err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		release2, err := Acquire(ctx, lockPath)
		if err != nil {
			t.Errorf("second Acquire() error = %v", err)
			return
		}
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
		release2()
	}()

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	order = append(order, 1)
	mu.Unlock()
	release()
	wg.Wait()

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("expected order [1 2], got %v", order)
	}
}

func TestFileLock_ContextCancel(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), FileName)
	release, err := Acquire(context.Background(), lockPath)
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = Acquire(ctx, lockPath)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Acquire() error = %v, want DeadlineExceeded", err)
	}
}
