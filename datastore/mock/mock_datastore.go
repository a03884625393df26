/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory SnapshotStore for testing
package mock

import (
	"context"
	"sync"

	"github.com/suparena/entityfile/codec"
	"github.com/suparena/entityfile/errors"
)

// Store is an in-memory implementation of datastore.SnapshotStore for testing.
// Documents are deep-copied on the way in and out so callers cannot alias them.
type Store struct {
	mu        sync.RWMutex
	doc       codec.Document
	saves     int
	loadError error
	saveError error
}

// New creates an empty mock Store; Load reports NotFound until the first Save.
func New() *Store {
	return &Store{}
}

// WithLoadError makes Load operations return an error
func (m *Store) WithLoadError(err error) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadError = err
	return m
}

// WithSaveError makes Save operations return an error
func (m *Store) WithSaveError(err error) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
	return m
}

// Describe implements datastore.SnapshotStore.
func (m *Store) Describe() string {
	return "memory"
}

// Load returns a copy of the stored document
func (m *Store) Load(ctx context.Context) (codec.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.loadError != nil {
		return nil, m.loadError
	}
	if m.doc == nil {
		return nil, errors.NewNotFoundError("snapshot", "memory")
	}
	return copyDocument(m.doc), nil
}

// Save replaces the stored document
func (m *Store) Save(ctx context.Context, doc codec.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveError != nil {
		return m.saveError
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.doc = copyDocument(doc)
	m.saves++
	return nil
}

// Helper methods for testing

// SetDocument directly sets the stored document
func (m *Store) SetDocument(doc codec.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = copyDocument(doc)
}

// Document returns a copy of the stored document, nil if nothing was saved
func (m *Store) Document() codec.Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.doc == nil {
		return nil
	}
	return copyDocument(m.doc)
}

// SaveCount returns the number of successful saves
func (m *Store) SaveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// Clear removes the stored document
func (m *Store) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = nil
}

func copyDocument(doc codec.Document) codec.Document {
	out := make(codec.Document, len(doc))
	for key, rec := range doc {
		c := make(codec.Record, len(rec))
		for k, v := range rec {
			c[k] = v
		}
		out[key] = c
	}
	return out
}
