package flow

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session pairs a flow with its activity timestamps.
type Session struct {
	ID        string
	Flow      *Flow
	StartedAt time.Time

	mu        sync.Mutex
	updatedAt time.Time
}

// Touch records activity on the session.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updatedAt = time.Now()
}

// IsExpired checks if the session has been idle longer than timeout.
func (s *Session) IsExpired(timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.updatedAt) > timeout
}

// Sessions manages booking dialog sessions keyed by id.
type Sessions struct {
	opts    Options
	timeout time.Duration

	mu sync.RWMutex
	m  map[string]*Session
}

// NewSessions creates a session store. Sessions idle longer than timeout
// are dropped by Cleanup.
func NewSessions(opts Options, timeout time.Duration) *Sessions {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &Sessions{
		opts:    opts,
		timeout: timeout,
		m:       make(map[string]*Session),
	}
}

// Create starts a fresh dialog and returns its session.
func (ss *Sessions) Create() *Session {
	now := time.Now()
	session := &Session{
		ID:        uuid.NewString(),
		Flow:      New(ss.opts),
		StartedAt: now,
		updatedAt: now,
	}

	ss.mu.Lock()
	ss.m[session.ID] = session
	ss.mu.Unlock()
	return session
}

// Get returns the session, or nil when unknown or expired.
func (ss *Sessions) Get(id string) *Session {
	ss.mu.RLock()
	session := ss.m[id]
	ss.mu.RUnlock()

	if session == nil || session.IsExpired(ss.timeout) {
		return nil
	}
	session.Touch()
	return session
}

// Delete removes a session.
func (ss *Sessions) Delete(id string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.m, id)
}

// Cleanup removes expired sessions and returns how many were dropped.
func (ss *Sessions) Cleanup() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	removed := 0
	for id, session := range ss.m {
		if session.IsExpired(ss.timeout) {
			delete(ss.m, id)
			removed++
		}
	}
	return removed
}

// Run cleans up expired sessions until the context ends.
func (ss *Sessions) Run(done <-chan struct{}, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			ss.Cleanup()
		}
	}
}
