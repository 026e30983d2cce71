// Package session holds the process-wide authenticated session: the
// principal, the bearer credential, and the durable copy of both.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"healthcare-portal/internal/model"
	"healthcare-portal/pkg/logging"
)

type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "uninitialized"
	}
}

// Session is a read-only snapshot of the store. The credential itself is
// never part of a snapshot; it is only attached to outgoing requests.
type Session struct {
	State     State
	Principal model.Principal
}

// well-known persistence entries, always written and removed together
const (
	tokenFile     = "token"
	principalFile = "user.json"
)

// Store is the single owner of session state. One writer (the auth
// gateway), many readers (views, the API client's token source).
type Store struct {
	dir    string
	logger *logging.Logger

	mu        sync.RWMutex
	state     State
	principal model.Principal
	token     string
	subs      map[int]func(Session)
	nextSub   int
}

func New(dir string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		dir:    dir,
		logger: logger,
		state:  StateUninitialized,
		subs:   make(map[int]func(Session)),
	}
}

// Current returns a snapshot of the session.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Session{State: s.state, Principal: s.principal}
}

// Token returns the bearer credential, or "" when not authenticated.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Subscribe registers fn to run after every transition. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(Session)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Restore loads the persisted principal and credential. It always ends
// in a definite state: authenticated when both entries are present and
// well-formed, anonymous otherwise. A malformed persisted session is
// discarded, not retried.
func (s *Store) Restore() Session {
	s.set(StateLoading, model.Principal{}, "")

	token, err := os.ReadFile(filepath.Join(s.dir, tokenFile))
	if err != nil || len(token) == 0 {
		s.discard()
		return s.set(StateAnonymous, model.Principal{}, "")
	}

	raw, err := os.ReadFile(filepath.Join(s.dir, principalFile))
	if err != nil {
		s.discard()
		return s.set(StateAnonymous, model.Principal{}, "")
	}

	var p model.Principal
	if err := json.Unmarshal(raw, &p); err != nil || p.Email == "" {
		s.logger.Warn("discarding malformed persisted session", "error", err)
		s.discard()
		return s.set(StateAnonymous, model.Principal{}, "")
	}

	return s.set(StateAuthenticated, p, string(token))
}

// SetAuthenticated persists the principal and credential and transitions
// to authenticated. Persistence is best effort: a write failure keeps the
// in-memory session usable for the rest of the process.
func (s *Store) SetAuthenticated(p model.Principal, token string) Session {
	if err := s.persist(p, token); err != nil {
		s.logger.Warn("session persist failed", "error", err)
	}
	return s.set(StateAuthenticated, p, token)
}

// Clear removes the persisted entries and transitions to anonymous.
func (s *Store) Clear() Session {
	s.discard()
	return s.set(StateAnonymous, model.Principal{}, "")
}

func (s *Store) persist(p model.Principal, token string) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(s.dir, tokenFile), []byte(token), 0o600); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, principalFile), raw, 0o600)
}

func (s *Store) discard() {
	// both entries go together, never independently
	_ = os.Remove(filepath.Join(s.dir, tokenFile))
	_ = os.Remove(filepath.Join(s.dir, principalFile))
}

func (s *Store) set(state State, p model.Principal, token string) Session {
	s.mu.Lock()
	s.state = state
	s.principal = p
	s.token = token
	snap := Session{State: state, Principal: p}
	subs := make([]func(Session), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return snap
}
