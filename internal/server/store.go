package server

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/Sandapan/Yishimo-Kawazaki/internal/game"
)

var errSessionNotFound = errors.New("session not found")

// sessionEntry pairs one session with the mutex that serializes every
// operation on it. Broadcasts for an operation complete before the mutex is
// released, so no client can observe turn N+1 state before turn N's fanout.
type sessionEntry struct {
	mu   sync.Mutex
	sess *game.Session
}

// Store is the registry of live sessions, keyed by join code. The store
// mutex only guards the map; sessions are independently schedulable.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	catalog  *game.Catalog
	rules    game.Config
}

func NewStore(rules game.Config) *Store {
	return &Store{
		sessions: make(map[string]*sessionEntry),
		catalog:  game.DefaultCatalog(),
		rules:    rules,
	}
}

// CreateSession mints a session under a join code unique among live ones.
func (s *Store) CreateSession() *sessionEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := newJoinCode()
	for {
		if _, taken := s.sessions[code]; !taken {
			break
		}
		code = newJoinCode()
	}
	entry := &sessionEntry{sess: game.NewSession(code, s.catalog, s.rules, nil)}
	s.sessions[code] = entry
	return entry
}

// Get looks a session up by join code, case-insensitively.
func (s *Store) Get(code string) (*sessionEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[strings.ToUpper(code)]
	return entry, ok
}

// Remove forgets a session. Only the lifecycle owner calls this; nothing in
// normal play discards a session.
func (s *Store) Remove(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, strings.ToUpper(code))
}

type SessionSummary struct {
	Code    string `json:"session_id"`
	Phase   string `json:"phase"`
	Turn    int    `json:"turn"`
	Players int    `json:"players"`
}

func (s *Store) ListSummaries() []SessionSummary {
	s.mu.Lock()
	entries := make([]*sessionEntry, 0, len(s.sessions))
	for _, entry := range s.sessions {
		entries = append(entries, entry)
	}
	s.mu.Unlock()

	list := make([]SessionSummary, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		list = append(list, SessionSummary{
			Code:    entry.sess.Code,
			Phase:   string(entry.sess.Phase),
			Turn:    entry.sess.Turn,
			Players: len(entry.sess.Players),
		})
		entry.mu.Unlock()
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Code < list[j].Code
	})
	return list
}

// withSession runs fn serialized against the session, then delivers every
// broadcast the operation queued before releasing the session to the next
// operation. fn's error does not suppress delivery: a rejected action may
// still have queued a notice for the offending player.
func (s *Server) withSession(code string, fn func(*game.Session) error) error {
	entry, ok := s.store.Get(code)
	if !ok {
		return errSessionNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	err := fn(entry.sess)
	s.deliver(entry.sess)
	return err
}
