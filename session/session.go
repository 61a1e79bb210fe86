// Package session tracks per-conversation state. Each session owns a bounded
// memory window and a mutex serializing its exchanges; the store evicts
// sessions by idle age and by total count.
package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/neilh44/cryptobot/memory"
)

// Session is one conversation. Exchange serializes concurrent requests for
// the same session id so history stays interleaved as whole exchanges.
type Session struct {
	ID     string
	Memory *memory.Window

	mu         sync.Mutex
	lastActive atomic.Int64 // unix nanos
}

// Exchange runs fn while holding the session's exchange lock and refreshes
// the idle timestamp.
func (s *Session) Exchange(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return fn()
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// LastActive returns the time of the session's most recent exchange.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// StoreOptions configure session retention.
type StoreOptions struct {
	Window      int           // memory window per session, default 10 exchanges
	TTL         time.Duration // idle eviction age, default 30m
	MaxSessions int           // store size cap, default 1000
	Logger      *slog.Logger
}

// Store holds live sessions keyed by id.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	window      int
	ttl         time.Duration
	maxSessions int
	logger      *slog.Logger
}

// NewStore creates an empty session store.
func NewStore(optFns ...func(o *StoreOptions)) *Store {
	opts := StoreOptions{
		Window:      10,
		TTL:         30 * time.Minute,
		MaxSessions: 1000,
		Logger:      slog.Default(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{
		sessions:    make(map[string]*Session),
		window:      opts.Window,
		ttl:         opts.TTL,
		maxSessions: opts.MaxSessions,
		logger:      opts.Logger,
	}
}

// GetOrCreate returns the session for id, creating it when absent. An empty
// id allocates a fresh session under a generated UUID. The second return
// reports whether the session was created by this call.
func (s *Store) GetOrCreate(id string) (*Session, bool) {
	if id != "" {
		s.mu.RLock()
		sess, ok := s.sessions[id]
		s.mu.RUnlock()
		if ok {
			sess.touch()
			return sess, false
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		id = uuid.NewString()
	} else if sess, ok := s.sessions[id]; ok {
		sess.touch()
		return sess, false
	}

	if len(s.sessions) >= s.maxSessions {
		s.evictOldestLocked(len(s.sessions) - s.maxSessions + 1)
	}

	sess := &Session{ID: id, Memory: memory.NewWindow(s.window)}
	sess.touch()
	s.sessions[id] = sess
	return sess, true
}

// Get returns the session for id, or nil when unknown.
func (s *Store) Get(id string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

// Delete removes a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// EvictExpired removes sessions idle longer than the TTL and returns how many
// were dropped.
func (s *Store) EvictExpired() int {
	cutoff := time.Now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, sess := range s.sessions {
		if sess.LastActive().Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

// evictOldestLocked drops the n least recently active sessions. Caller holds
// the write lock.
func (s *Store) evictOldestLocked(n int) {
	if n <= 0 {
		return
	}
	all := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		all = append(all, sess)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].lastActive.Load() < all[j].lastActive.Load()
	})
	if n > len(all) {
		n = len(all)
	}
	for _, sess := range all[:n] {
		delete(s.sessions, sess.ID)
	}
	s.logger.Info("session.evicted.capacity", "count", n)
}

// StartJanitor evicts expired sessions on the given interval until ctx is
// canceled.
func (s *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.EvictExpired(); n > 0 {
					s.logger.Info("session.evicted.expired", "count", n)
				}
			}
		}
	}()
}
