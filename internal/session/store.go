package session

import (
	"sync"
	"time"

	"github.com/stagehandhq/stagehand/internal/chat"
)

// Clock abstracts time so expiry can be tested by advancing a virtual clock
// instead of sleeping.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

type entry[V any] struct {
	value     V
	ref       chat.MessageRef
	expiresAt time.Time
}

// Store is a keyed store of ephemeral session records with TTL expiry and a
// secondary (channel, ts) index. Instantiated three times: confirmations
// (fixed expiry), triage and workflows (sliding expiry, extended on every
// handled event). An expired-but-unswept entry is not-found on read; Sweep
// only reclaims memory.
type Store[V any] struct {
	mu        sync.Mutex
	clock     Clock
	ttl       time.Duration
	sliding   bool
	entries   map[string]*entry[V]
	byMessage map[chat.MessageRef]string
}

func NewStore[V any](ttl time.Duration, sliding bool, clock Clock) *Store[V] {
	if clock == nil {
		clock = RealClock()
	}
	return &Store[V]{
		clock:     clock,
		ttl:       ttl,
		sliding:   sliding,
		entries:   make(map[string]*entry[V]),
		byMessage: make(map[chat.MessageRef]string),
	}
}

// Put stores (or replaces) the record under key, bound to ref. A replaced
// record's message binding is dropped first so the index never points at a
// dead key.
func (s *Store[V]) Put(key string, value V, ref chat.MessageRef) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[key]; ok {
		delete(s.byMessage, old.ref)
	}
	s.entries[key] = &entry[V]{
		value:     value,
		ref:       ref,
		expiresAt: s.clock.Now().Add(s.ttl),
	}
	if !ref.IsZero() {
		s.byMessage[ref] = key
	}
}

// Get returns the live record for key. Sliding stores extend the expiry.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(key)
}

func (s *Store[V]) getLocked(key string) (V, bool) {
	var zero V
	e, ok := s.entries[key]
	if !ok {
		return zero, false
	}
	if s.clock.Now().After(e.expiresAt) {
		s.deleteLocked(key, e)
		return zero, false
	}
	if s.sliding {
		e.expiresAt = s.clock.Now().Add(s.ttl)
	}
	return e.value, true
}

// GetByMessage resolves an inbound reaction's message identity to its session.
func (s *Store[V]) GetByMessage(ref chat.MessageRef) (string, V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V
	key, ok := s.byMessage[ref]
	if !ok {
		return "", zero, false
	}
	v, ok := s.getLocked(key)
	if !ok {
		return "", zero, false
	}
	return key, v, true
}

// Update mutates the record under the store lock. Returns false when the key
// is absent or expired. Sliding stores extend the expiry.
func (s *Store[V]) Update(key string, fn func(*V)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	if s.clock.Now().After(e.expiresAt) {
		s.deleteLocked(key, e)
		return false
	}
	fn(&e.value)
	if s.sliding {
		e.expiresAt = s.clock.Now().Add(s.ttl)
	}
	return true
}

// Rebind moves the session's message binding, e.g. when triage posts the next
// card and decisions should follow the new message.
func (s *Store[V]) Rebind(key string, ref chat.MessageRef) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || s.clock.Now().After(e.expiresAt) {
		return false
	}
	delete(s.byMessage, e.ref)
	e.ref = ref
	if !ref.IsZero() {
		s.byMessage[ref] = key
	}
	return true
}

func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		s.deleteLocked(key, e)
	}
}

func (s *Store[V]) deleteLocked(key string, e *entry[V]) {
	delete(s.byMessage, e.ref)
	delete(s.entries, key)
}

// Sweep removes expired entries and returns how many were reclaimed.
func (s *Store[V]) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	count := 0
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			s.deleteLocked(key, e)
			count++
		}
	}
	return count
}

// Len counts live (unexpired) entries.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	n := 0
	for _, e := range s.entries {
		if !now.After(e.expiresAt) {
			n++
		}
	}
	return n
}
