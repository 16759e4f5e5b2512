// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package source abstracts the external store holding tag overrides.
//
// The engine only ever reads the full entry set and, best-effort, writes
// back computed defaults; the concrete encoding (YAML file, SQLite
// database, in-memory map) is entirely the store's concern.
package source

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrNotFound is returned by Load when the named entry does not exist.
var ErrNotFound = errors.New("tag entry not found")

// Entry is one stored tag override: a name and a raw integer value.
//
// The value is deliberately untyped here; range validation happens in the
// loader so that out-of-range stored values can be detected and repaired.
type Entry struct {
	Name  string `yaml:"name" json:"name"`
	Value int    `yaml:"value" json:"value"`
}

// Source loads and persists tag entries.
//
// LoadAll returns entries in store order; the loader preserves that order
// for tags that are not part of the default set. Both operations must be
// safe for concurrent use.
type Source interface {
	// LoadAll returns every stored entry, in store order.
	LoadAll(ctx context.Context) ([]Entry, error)

	// Persist replaces the stored entries with the given set. Best
	// effort: callers ignore the returned error.
	Persist(ctx context.Context, entries []Entry) error
}

// Loader is the optional single-entry read extension of Source.
type Loader interface {
	// Load returns the entry with the given name (case-insensitive),
	// or ErrNotFound.
	Load(ctx context.Context, name string) (Entry, error)
}

// Static is an in-memory Source, primarily for tests and embedders that
// manage tag state themselves.
type Static struct {
	mu      sync.RWMutex
	entries []Entry
	loadErr error
}

// NewStatic creates a Static source seeded with entries.
func NewStatic(entries ...Entry) *Static {
	s := &Static{}
	s.entries = append(s.entries, entries...)
	return s
}

// LoadAll returns a copy of the current entries.
func (s *Static) LoadAll(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// Load returns the named entry, ignoring case.
func (s *Static) Load(ctx context.Context, name string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loadErr != nil {
		return Entry{}, s.loadErr
	}
	for _, e := range s.entries {
		if strings.EqualFold(e.Name, name) {
			return e, nil
		}
	}
	return Entry{}, ErrNotFound
}

// Persist replaces the stored entries.
func (s *Static) Persist(ctx context.Context, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make([]Entry, len(entries))
	copy(s.entries, entries)
	return nil
}

// FailLoads makes subsequent loads return err (nil restores normal
// behavior). Used to exercise the loader's fallback path in tests.
func (s *Static) FailLoads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
}
