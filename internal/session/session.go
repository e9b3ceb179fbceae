// Package session bundles the per-browser state containers: navigation,
// permission, and the scan request lifecycle. Sessions live in memory only;
// a new session is the only way to reset the permission gate.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/vulnx/internal/logging"
	"github.com/raysh454/vulnx/internal/navigation"
	"github.com/raysh454/vulnx/internal/permission"
	"github.com/raysh454/vulnx/internal/scan"
)

// Recorder persists successful scans. history.Store implements it.
type Recorder interface {
	Record(ctx context.Context, sessionID string, st scan.State) error
}

// Session is one user's console state.
type Session struct {
	ID        string
	CreatedAt time.Time

	Nav  *navigation.Navigator
	Gate *permission.Gate
	Scan *scan.Lifecycle

	mu       sync.Mutex
	lastSeen time.Time

	recording sync.WaitGroup
	stopObs   func()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen is the time of the most recent Store.Get for this session.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Wait blocks until in-flight scans and their history writes are done.
func (s *Session) Wait() {
	s.Scan.Wait()
	s.recording.Wait()
}

// Config controls session bookkeeping.
type Config struct {
	// IdleTTL is how long an untouched session is kept. Zero keeps
	// sessions until the process exits.
	IdleTTL time.Duration
}

// Store holds live sessions keyed by ID.
type Store struct {
	cfg      Config
	svc      scan.Service
	recorder Recorder
	logger   logging.Logger
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty store. recorder may be nil.
func NewStore(cfg Config, svc scan.Service, recorder Recorder, logger logging.Logger) *Store {
	return &Store{
		cfg:      cfg,
		svc:      svc,
		recorder: recorder,
		logger:   logger.With(logging.Field{Key: "component", Value: "sessions"}),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session: home page, gate closed, lifecycle idle.
func (st *Store) Create() *Session {
	id := uuid.New().String()
	now := st.now().UTC()
	logger := st.logger.With(logging.Field{Key: "session", Value: id})

	s := &Session{
		ID:        id,
		CreatedAt: now,
		Nav:       navigation.New(),
		Gate:      permission.New(),
		Scan:      scan.NewLifecycle(st.svc, logger),
		lastSeen:  now,
	}
	if st.recorder != nil {
		s.stopObs = s.Scan.Observe(st.recordObserver(s, logger))
	}

	st.mu.Lock()
	st.sessions[id] = s
	st.mu.Unlock()

	logger.Info("session created")
	return s
}

func (st *Store) recordObserver(s *Session, logger logging.Logger) func(scan.State) {
	return func(state scan.State) {
		if !state.Succeeded() {
			return
		}
		s.recording.Add(1)
		go func() {
			defer s.recording.Done()
			if err := st.recorder.Record(context.Background(), s.ID, state); err != nil {
				logger.Warn("recording scan history", logging.Field{Key: "error", Value: err.Error()})
			}
		}()
	}
}

// Get returns the session with id and marks it as seen.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, false
	}
	s.touch(st.now().UTC())
	return s, true
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Prune removes sessions idle for longer than IdleTTL, except those with a
// scan still pending. It returns how many were removed.
func (st *Store) Prune() int {
	if st.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := st.now().UTC().Add(-st.cfg.IdleTTL)

	st.mu.Lock()
	var removed []*Session
	for id, s := range st.sessions {
		if s.LastSeen().Before(cutoff) && !s.Scan.State().Pending() {
			delete(st.sessions, id)
			removed = append(removed, s)
		}
	}
	st.mu.Unlock()

	for _, s := range removed {
		if s.stopObs != nil {
			s.stopObs()
		}
	}
	if len(removed) > 0 {
		st.logger.Info("pruned idle sessions", logging.Field{Key: "count", Value: len(removed)})
	}
	return len(removed)
}

// Close waits for every session's in-flight work.
func (st *Store) Close() {
	st.mu.RLock()
	all := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		all = append(all, s)
	}
	st.mu.RUnlock()

	for _, s := range all {
		s.Wait()
	}
}
