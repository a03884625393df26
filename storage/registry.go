/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/suparena/entityfile/codec"
	"github.com/suparena/entityfile/datastore"
	"github.com/suparena/entityfile/errors"
	"github.com/suparena/entityfile/model"
	"github.com/suparena/entityfile/registry"
)

// Registry is the in-memory object registry: composite key to entity.
// It is the single source of truth during a session; the snapshot store only
// holds the last saved copy.
type Registry struct {
	mu      sync.RWMutex
	objects map[string]*model.Entity
	store   datastore.SnapshotStore
	types   *registry.TypeRegistry
	logger  *zap.Logger
	clock   func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger; the default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithClock replaces time.Now for timestamps.
func WithClock(clock func() time.Time) Option {
	return func(r *Registry) {
		r.clock = clock
	}
}

// NewRegistry creates an empty registry persisting through store and
// reconstructing entities through types.
func NewRegistry(store datastore.SnapshotStore, types *registry.TypeRegistry, opts ...Option) *Registry {
	r := &Registry{
		objects: make(map[string]*model.Entity),
		store:   store,
		types:   types,
		logger:  zap.NewNop(),
		clock:   model.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Types returns the type registry used for reconstruction.
func (r *Registry) Types() *registry.TypeRegistry {
	return r.types
}

// All returns the live object map, not a copy. Callers may delete from it
// directly; doing so is not safe concurrently with other Registry methods.
func (r *Registry) All() map[string]*model.Entity {
	return r.objects
}

// New inserts e under its composite key, replacing any entry with the same key.
func (r *Registry) New(e *model.Entity) {
	if e == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects[e.Key()] = e
}

// Create constructs a new entity of kind and registers it. It does not persist.
func (r *Registry) Create(kind string) (*model.Entity, error) {
	if !r.types.Has(kind) {
		return nil, errors.NewUnknownTypeError(kind)
	}
	e := model.New(kind, r.now())
	r.New(e)
	return e, nil
}

// Get returns the entity stored under key.
func (r *Registry) Get(key string) (*model.Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.objects[key]
	return e, ok
}

// Delete removes key and reports whether it was present.
func (r *Registry) Delete(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.objects[key]; !ok {
		return false
	}
	delete(r.objects, key)
	return true
}

// Keys returns every composite key in sorted order. A non-empty kind limits
// the result to that type tag.
func (r *Registry) Keys(kind string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.objects))
	for key := range r.objects {
		if kind == "" || strings.HasPrefix(key, kind+".") {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Count returns the number of entities of kind, or of all kinds when kind is empty.
func (r *Registry) Count(kind string) int {
	if kind == "" {
		r.mu.RLock()
		defer r.mu.RUnlock()
		return len(r.objects)
	}
	return len(r.Keys(kind))
}

// Reset drops every entity from memory without touching the snapshot.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects = make(map[string]*model.Entity)
}

// Touch refreshes e's updated_at and persists the whole registry.
func (r *Registry) Touch(ctx context.Context, e *model.Entity) error {
	r.mu.Lock()
	e.Touch(r.now())
	r.mu.Unlock()
	return r.Save(ctx)
}

// Save serializes every entity and replaces the stored snapshot.
func (r *Registry) Save(ctx context.Context) error {
	r.mu.RLock()
	doc := codec.Encode(r.objects)
	r.mu.RUnlock()

	if err := r.store.Save(ctx, doc); err != nil {
		r.logger.Error("failed to save snapshot",
			zap.String("store", r.store.Describe()),
			zap.Int("entities", len(doc)),
			zap.Error(err))
		return errors.NewPersistenceError("save", r.store.Describe(), err)
	}

	r.logger.Debug("snapshot saved",
		zap.String("store", r.store.Describe()),
		zap.Int("entities", len(doc)))
	return nil
}

// Reload merges the stored snapshot into memory, overwriting entries with the
// same key. A missing snapshot is the first-run state and leaves the registry
// as it is. A corrupt snapshot also leaves the registry untouched and is
// returned as a CorruptDocumentError. Records of unknown kinds are skipped.
func (r *Registry) Reload(ctx context.Context) error {
	doc, err := r.store.Load(ctx)
	if err != nil {
		if errors.IsNotFound(err) {
			r.logger.Debug("no snapshot found", zap.String("store", r.store.Describe()))
			return nil
		}
		r.logger.Warn("failed to load snapshot",
			zap.String("store", r.store.Describe()),
			zap.Error(err))
		return err
	}

	objects, skipped, err := codec.Decode(r.store.Describe(), doc, r.types)
	if err != nil {
		r.logger.Warn("snapshot rejected",
			zap.String("store", r.store.Describe()),
			zap.Error(err))
		return err
	}
	for _, key := range skipped {
		r.logger.Debug("skipping record of unknown type",
			zap.String("store", r.store.Describe()),
			zap.String("key", key))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for key, e := range objects {
		r.objects[key] = e
	}

	r.logger.Debug("snapshot loaded",
		zap.String("store", r.store.Describe()),
		zap.Int("entities", len(objects)),
		zap.Int("skipped", len(skipped)))
	return nil
}

func (r *Registry) now() time.Time {
	return r.clock().UTC().Truncate(time.Microsecond)
}
