// Package session holds conversation history in memory.
//
// Invariants:
//   - History for an identifier is append-only until Clear removes it.
//   - Callers only ever receive copies; nothing outside Store touches its map.
//   - Operations on one identifier are serialized; different identifiers
//     only contend on the index lock while a history is looked up or created.
//
// Sessions live for the process lifetime. There is no TTL or eviction, so a
// client that keeps inventing identifiers grows the store without bound.
package session

import (
	"sort"
	"sync"
	"time"

	"github.com/Joach27/chatt/internal/chatt"
)

// history is the message list of one identifier and its lock.
// removed is set by Clear so that an Append that looked the history up
// before the removal retries against a fresh one instead of writing into
// a detached list.
type history struct {
	mu       sync.Mutex
	messages []chatt.Message
	removed  bool
}

// Store is a concurrency-safe append-only history per conversation identifier
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*history
	now      func() time.Time
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*history),
		now:      time.Now,
	}
}

// lookup returns the history for id, or nil when absent
func (s *Store) lookup(id string) *history {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

// getOrCreate returns the history for id, creating it if absent
func (s *Store) getOrCreate(id string) *history {
	if h := s.lookup(id); h != nil {
		return h
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if h, exists := s.sessions[id]; exists {
		return h
	}
	h := &history{}
	s.sessions[id] = h
	return h
}

// Append adds one message to the session, creating the session if absent
func (s *Store) Append(id string, role chatt.Role, content string) {
	msg := chatt.Message{Role: role, Content: content, Timestamp: s.now()}
	for {
		h := s.getOrCreate(id)
		h.mu.Lock()
		if h.removed {
			h.mu.Unlock()
			continue
		}
		h.messages = append(h.messages, msg)
		h.mu.Unlock()
		return
	}
}

// Snapshot returns an independent copy of the session history in append order.
// An unknown identifier yields an empty, non-nil slice.
func (s *Store) Snapshot(id string) []chatt.Message {
	h := s.lookup(id)
	if h == nil {
		return []chatt.Message{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.removed {
		return []chatt.Message{}
	}
	out := make([]chatt.Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Clear removes all history for the identifier; no-op if absent
func (s *Store) Clear(id string) {
	s.mu.Lock()
	h, exists := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !exists {
		return
	}
	h.mu.Lock()
	h.removed = true
	h.messages = nil
	h.mu.Unlock()
}

// Len returns the number of messages in the session
func (s *Store) Len(id string) int {
	h := s.lookup(id)
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.removed {
		return 0
	}
	return len(h.messages)
}

// Sessions returns the identifiers currently held, sorted
func (s *Store) Sessions() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	return ids
}
