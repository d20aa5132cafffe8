package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"pos-terminal/internal/logging"
	"pos-terminal/internal/metrics"
	"pos-terminal/internal/pos"
)

// session is one open terminal. lastUsed is guarded by the store's mutex.
type session struct {
	ID         string
	OperatorID int
	Terminal   *pos.Terminal
	lastUsed   time.Time
}

func (s *session) result(snap pos.Snapshot) *SessionResult {
	return &SessionResult{SessionID: s.ID, OperatorID: s.OperatorID, Snapshot: snap}
}

// sessionStore is a thread-safe in-memory store with idle expiry.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func newSessionStore(ttl time.Duration, m *metrics.Metrics, log *zap.Logger) *sessionStore {
	return &sessionStore{
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      time.Now,
		metrics:  m,
		log:      log,
	}
}

func (s *sessionStore) put(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.lastUsed = s.now()
	s.sessions[sess.ID] = sess
	s.updateGaugeLocked()
}

// get returns the session and marks it used. Expired sessions are dropped.
func (s *sessionStore) get(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if now.Sub(sess.lastUsed) > s.ttl {
		s.expireLocked(id)
		return nil, false
	}
	sess.lastUsed = now
	return sess, true
}

func (s *sessionStore) delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	s.updateGaugeLocked()
	return true
}

func (s *sessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// purge evicts every session idle for longer than the TTL.
func (s *sessionStore) purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, sess := range s.sessions {
		if now.Sub(sess.lastUsed) > s.ttl {
			s.expireLocked(id)
		}
	}
}

// startPurge starts a background goroutine that evicts expired sessions every 5 minutes.
func (s *sessionStore) startPurge(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.purge()
			}
		}
	}()
}

func (s *sessionStore) expireLocked(id string) {
	delete(s.sessions, id)
	s.updateGaugeLocked()
	s.log.Info("session expired", logging.SessionID(id))
}

func (s *sessionStore) updateGaugeLocked() {
	if s.metrics != nil {
		s.metrics.Sessions.Set(float64(len(s.sessions)))
	}
}
