// Package config holds the session's Kafka client configuration.
//
// The store is a flat key→value mapping in librdkafka key style
// ("bootstrap.servers", "security.protocol", ...), merged incrementally
// from JSON files with override-wins semantics: every key present in a
// newly loaded document replaces the prior value, keys absent from the
// document are untouched. A document either merges completely or not at
// all.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"dario.cat/mergo"
)

var (
	// ErrNotObject reports a document whose top level is not a JSON object.
	ErrNotObject = errors.New("configuration document must be an object")

	// ErrNotFlat reports a document with nested objects. Configuration
	// values are scalars or arrays of bootstrap candidates, never objects.
	ErrNotFlat = errors.New("configuration values must be scalars or arrays")
)

// Entry is one (key, value) pair for display.
type Entry struct {
	Key   string
	Value any
}

// Store is the mutable configuration mapping. It is created empty at
// session start and mutated only by Load and Set; it is never replaced
// wholesale. Not safe for concurrent use; the session serializes access.
type Store struct {
	values map[string]any
}

// NewStore returns an empty configuration store.
func NewStore() *Store {
	return &Store{values: make(map[string]any)}
}

// Load reads a JSON document from path and merges it into the store with
// override-wins semantics. On success it returns the merged delta (the
// document's own entries) for display. On any failure the store is left
// entirely unchanged.
func (s *Store) Load(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	delta, ok := doc.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	for key, value := range delta {
		if _, nested := value.(map[string]any); nested {
			return nil, fmt.Errorf("%w: key %q holds an object", ErrNotFlat, key)
		}
	}

	// Merge into a copy first so a merge failure cannot leave the store
	// partially updated.
	merged := make(map[string]any, len(s.values)+len(delta))
	for key, value := range s.values {
		merged[key] = value
	}
	if err := mergo.Merge(&merged, delta, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("merge %s: %w", path, err)
	}
	s.values = merged

	return delta, nil
}

// Describe returns the store's entries sorted by key.
func (s *Store) Describe() []Entry {
	return Sorted(s.values)
}

// Empty reports whether the store holds no configuration at all. This is
// a distinct operator-visible state, not just a zero-row table.
func (s *Store) Empty() bool {
	return len(s.values) == 0
}

// Get returns the value for key and whether it is present.
func (s *Store) Get(key string) (any, bool) {
	value, ok := s.values[key]
	return value, ok
}

// Has reports whether key is present.
func (s *Store) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Set stores value under key, replacing any prior value.
func (s *Store) Set(key string, value any) {
	s.values[key] = value
}

// Snapshot returns a shallow copy of the mapping for client construction,
// so handle builders cannot mutate the store behind the session's back.
func (s *Store) Snapshot() map[string]any {
	snapshot := make(map[string]any, len(s.values))
	for key, value := range s.values {
		snapshot[key] = value
	}
	return snapshot
}

// Sorted returns the entries of an arbitrary configuration mapping sorted
// by key, for display.
func Sorted(values map[string]any) []Entry {
	entries := make([]Entry, 0, len(values))
	for key, value := range values {
		entries = append(entries, Entry{Key: key, Value: value})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}
