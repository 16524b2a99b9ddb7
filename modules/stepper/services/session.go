package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type session struct {
	ctrl     *Controller
	lastUsed time.Time
}

// SessionStore holds live wizard instances by id. Instances idle for longer
// than the TTL are dropped by Sweep.
type SessionStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

func NewSessionStore(ttl time.Duration, now func() time.Time) *SessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &SessionStore{ttl: ttl, now: now, sessions: map[uuid.UUID]*session{}}
}

func (s *SessionStore) Put(c *Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[c.InstanceID()] = &session{ctrl: c, lastUsed: s.now()}
}

// Get returns the instance and marks it used.
func (s *SessionStore) Get(id uuid.UUID) (*Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.lastUsed = s.now()
	return sess.ctrl, nil
}

func (s *SessionStore) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep cancels and removes idle instances and reports how many went.
func (s *SessionStore) Sweep() int {
	cutoff := s.now().Add(-s.ttl)
	var idle []*Controller
	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.lastUsed.Before(cutoff) {
			idle = append(idle, sess.ctrl)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()
	for _, c := range idle {
		c.Cancel()
	}
	return len(idle)
}

// Run sweeps every interval until done is closed.
func (s *SessionStore) Run(interval time.Duration, done <-chan struct{}) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			s.Sweep()
		}
	}
}
