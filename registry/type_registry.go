/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"sort"

	"github.com/suparena/entityfile/model"
)

// Factory reconstructs an entity from its serialized attribute map.
type Factory func(attrs map[string]any) (*model.Entity, error)

// TypeRegistry maps a type tag (like "User" or "Place") to its factory.
// It is populated once at construction and only read afterwards.
type TypeRegistry struct {
	factories map[string]Factory
}

// New returns an empty TypeRegistry.
func New() *TypeRegistry {
	return &TypeRegistry{factories: make(map[string]Factory)}
}

// Default returns a registry holding every kind in model.Kinds.
func Default() *TypeRegistry {
	r := New()
	for _, kind := range model.Kinds {
		r.Register(kind, FactoryFor(kind))
	}
	return r
}

// FactoryFor returns the standard factory for kind, which delegates to model.FromMap.
func FactoryFor(kind string) Factory {
	return func(attrs map[string]any) (*model.Entity, error) {
		return model.FromMap(kind, attrs)
	}
}

// Register registers a factory for the given type tag.
// If a factory is already registered for the tag, it panics to prevent accidental overrides.
func (r *TypeRegistry) Register(kind string, fn Factory) {
	if _, exists := r.factories[kind]; exists {
		panic(fmt.Sprintf("type registry: type %q already registered", kind))
	}
	r.factories[kind] = fn
}

// Lookup returns the factory registered for kind.
func (r *TypeRegistry) Lookup(kind string) (Factory, bool) {
	fn, ok := r.factories[kind]
	return fn, ok
}

// Has reports whether kind is registered.
func (r *TypeRegistry) Has(kind string) bool {
	_, ok := r.factories[kind]
	return ok
}

// Kinds returns the registered type tags in sorted order.
func (r *TypeRegistry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
