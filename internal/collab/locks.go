package collab

import (
	"context"
	"fmt"
	"sync"
)

// lockState tracks one resource's current holders, per spec §4.M's
// read/write fairness requirement: a pending writer blocks new readers
// from joining so writers are not starved.
type lockState struct {
	mu            sync.Mutex
	readers       int
	writerWaiting bool
	writerActive  bool
	cond          *sync.Cond
}

func newLockState() *lockState {
	s := &lockState{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// LockHandle represents one acquired lock; Release is idempotent.
type LockHandle struct {
	state    *lockState
	write    bool
	released bool
	mu       sync.Mutex
}

// Release gives the lock back. Safe to call more than once.
func (h *LockHandle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return
	}
	h.released = true

	s := h.state
	s.mu.Lock()
	if h.write {
		s.writerActive = false
	} else {
		s.readers--
	}
	s.cond.Broadcast()
	s.mu.Unlock()
}

// LockManager grants read/write locks on named resources (workspace
// paths, shared artifacts) across concurrently running agents.
type LockManager struct {
	mu    sync.Mutex
	locks map[string]*lockState
}

// NewLockManager returns an empty LockManager.
func NewLockManager() *LockManager {
	return &LockManager{locks: make(map[string]*lockState)}
}

func (m *LockManager) stateFor(resource string) *lockState {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.locks[resource]
	if !ok {
		s = newLockState()
		m.locks[resource] = s
	}
	return s
}

// RequestReadLock blocks until a read lock on resource is granted, ctx
// is cancelled, or a timeout set via context deadline elapses.
func (m *LockManager) RequestReadLock(ctx context.Context, resource string) (*LockHandle, error) {
	s := m.stateFor(resource)
	return m.acquire(ctx, s, false)
}

// RequestWriteLock blocks until an exclusive write lock on resource is
// granted.
func (m *LockManager) RequestWriteLock(ctx context.Context, resource string) (*LockHandle, error) {
	s := m.stateFor(resource)
	return m.acquire(ctx, s, true)
}

func (m *LockManager) acquire(ctx context.Context, s *lockState, write bool) (*LockHandle, error) {
	done := make(chan *LockHandle, 1)
	errCh := make(chan error, 1)

	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if write {
			s.writerWaiting = true
			for s.writerActive || s.readers > 0 {
				if ctxDone(ctx) {
					s.writerWaiting = false
					errCh <- ctx.Err()
					return
				}
				s.cond.Wait()
			}
			s.writerWaiting = false
			s.writerActive = true
		} else {
			for s.writerActive || s.writerWaiting {
				if ctxDone(ctx) {
					errCh <- ctx.Err()
					return
				}
				s.cond.Wait()
			}
			s.readers++
		}
		done <- &LockHandle{state: s, write: write}
	}()

	select {
	case h := <-done:
		return h, nil
	case err := <-errCh:
		return nil, fmt.Errorf("collab: acquire lock: %w", err)
	case <-ctx.Done():
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
		return nil, fmt.Errorf("collab: acquire lock: %w", ctx.Err())
	}
}

func ctxDone(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
