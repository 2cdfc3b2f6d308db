// Package session provides the session collaborator handed to the strategy
// host: a per-request Session, pluggable Stores (memory and Redis) and a
// cookie based Manager that loads and commits sessions around a request.
package session

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// Session holds values for one client across requests. Flash values are
// returned by Get once and then dropped.
type Session struct {
	mu      sync.Mutex
	id      string
	values  map[string]any
	flashes map[string]any
	dirty   bool
}

// New creates an empty session with a fresh random ID. It is not dirty
// until something is written to it, so an untouched session is never
// persisted.
func New() *Session {
	return &Session{
		id:      uuid.NewString(),
		values:  map[string]any{},
		flashes: map[string]any{},
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Get returns the value stored under key. A flash value takes precedence
// and is consumed by the read.
func (s *Session) Get(key string) any {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.flashes[key]; ok {
		delete(s.flashes, key)
		s.dirty = true
		return v
	}
	return s.values[key]
}

// Has reports whether key holds a value or a flash value.
func (s *Session) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, inValues := s.values[key]
	_, inFlashes := s.flashes[key]
	return inValues || inFlashes
}

// Set stores value under key.
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	s.dirty = true
}

// Flash stores value under key until it is read once.
func (s *Session) Flash(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flashes[key] = value
	s.dirty = true
}

// Unset removes key.
func (s *Session) Unset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	delete(s.flashes, key)
	s.dirty = true
}

// Dirty reports whether the session changed since it was loaded.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

type record struct {
	Values  map[string]any `json:"values"`
	Flashes map[string]any `json:"flashes,omitempty"`
}

// MarshalJSON encodes the session data. The ID is not part of the encoding;
// stores keep it as the key.
func (s *Session) MarshalJSON() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Marshal(record{Values: s.values, Flashes: s.flashes})
}

func decode(id string, data []byte) (*Session, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	s := &Session{id: id, values: rec.Values, flashes: rec.Flashes}
	if s.values == nil {
		s.values = map[string]any{}
	}
	if s.flashes == nil {
		s.flashes = map[string]any{}
	}
	return s, nil
}
