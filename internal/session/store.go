package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultIdleTTL is how long an untouched session survives before the
// janitor evicts it. Zero disables eviction.
const DefaultIdleTTL = 30 * time.Minute

// janitorInterval is how often the eviction sweep runs.
const janitorInterval = time.Minute

// Store is the injectable session registry. It owns session lifecycle:
// get-or-create on first message, explicit delete on end or replacement,
// and TTL eviction of idle sessions.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session

	idleTTL time.Duration
	onEvict func(*Session)

	done     chan struct{}
	stopOnce sync.Once

	now func() time.Time // injectable clock for tests
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithIdleTTL overrides the eviction TTL. Zero disables eviction.
func WithIdleTTL(ttl time.Duration) StoreOption {
	return func(s *Store) { s.idleTTL = ttl }
}

// WithEvictHook registers a callback fired for every session removed from
// the registry, whether by End, Replace, or the janitor.
func WithEvictHook(fn func(*Session)) StoreOption {
	return func(s *Store) { s.onEvict = fn }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty registry and starts its eviction janitor.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		idleTTL:  DefaultIdleTTL,
		done:     make(chan struct{}),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.idleTTL > 0 {
		go s.janitor()
	}
	return s
}

// GetOrCreate returns the session for id, creating it when absent. An
// empty id mints a fresh identifier. The second return reports whether
// the session was created by this call.
func (s *Store) GetOrCreate(id, userID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if sess, ok := s.sessions[id]; ok {
			return sess, false
		}
	} else {
		id = uuid.NewString()
	}

	sess := newSession(id, userID, s.now())
	s.sessions[id] = sess
	return sess, true
}

// Get returns the session for id, or nil when unknown.
func (s *Store) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

// Delete removes and returns the session for id, or nil when unknown.
func (s *Store) Delete(id string) *Session {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if ok && s.onEvict != nil {
		s.onEvict(sess)
	}
	return sess
}

// Len returns the number of active sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close stops the eviction janitor. Sessions remain readable.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *Store) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.evictIdle()
		}
	}
}

// evictIdle removes sessions whose last activity is older than the TTL.
func (s *Store) evictIdle() {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	var evicted []*Session
	for id, sess := range s.sessions {
		// LastActive is written under the session lock on the turn path.
		sess.Lock()
		idle := sess.LastActive.Before(cutoff)
		sess.Unlock()
		if idle {
			delete(s.sessions, id)
			evicted = append(evicted, sess)
		}
	}
	s.mu.Unlock()

	for _, sess := range evicted {
		slog.Info("evicted idle session", "session_id", sess.ID, "turns", sess.State.TurnIndex)
		if s.onEvict != nil {
			s.onEvict(sess)
		}
	}
}
