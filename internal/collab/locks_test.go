package collab

import (
	"context"
	"testing"
	"time"
)

func TestMultipleReadersConcurrent(t *testing.T) {
	m := NewLockManager()
	ctx := context.Background()

	h1, err := m.RequestReadLock(ctx, "res")
	if err != nil {
		t.Fatalf("first read lock: %v", err)
	}
	h2, err := m.RequestReadLock(ctx, "res")
	if err != nil {
		t.Fatalf("second read lock: %v", err)
	}
	h1.Release()
	h2.Release()
}

func TestWriteLockExcludesReaders(t *testing.T) {
	m := NewLockManager()
	ctx := context.Background()

	w, err := m.RequestWriteLock(ctx, "res")
	if err != nil {
		t.Fatalf("write lock: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		rctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		h, err := m.RequestReadLock(rctx, "res")
		if err == nil {
			h.Release()
			close(acquired)
		}
	}()

	select {
	case <-acquired:
		t.Fatalf("read lock should not be granted while write lock is held")
	case <-time.After(100 * time.Millisecond):
	}

	w.Release()
}

func TestReleaseIsIdempotent(t *testing.T) {
	m := NewLockManager()
	h, err := m.RequestWriteLock(context.Background(), "res")
	if err != nil {
		t.Fatalf("write lock: %v", err)
	}
	h.Release()
	h.Release() // must not panic or double-unlock
}

func TestWriteLockReleaseUnblocksWaitingReader(t *testing.T) {
	m := NewLockManager()
	w, err := m.RequestWriteLock(context.Background(), "res")
	if err != nil {
		t.Fatalf("write lock: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		h, err := m.RequestReadLock(context.Background(), "res")
		if err == nil {
			h.Release()
		}
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	w.Release()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected read lock to be granted after write release, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for read lock after write release")
	}
}
