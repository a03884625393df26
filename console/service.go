/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package console

import (
	"context"

	"github.com/suparena/entityfile/errors"
	"github.com/suparena/entityfile/model"
	"github.com/suparena/entityfile/storage"
)

// Service implements the console operations over an object registry.
// Every mutation is persisted immediately. When persisting fails the
// in-memory change is undone and the PersistenceError returned, so memory
// never runs ahead of the snapshot.
type Service struct {
	objects *storage.Registry
}

// NewService creates a Service driving objects.
func NewService(objects *storage.Registry) *Service {
	return &Service{objects: objects}
}

// Registry returns the object registry the service operates on.
func (s *Service) Registry() *storage.Registry {
	return s.objects
}

// Create makes a new entity of kind, persists it, and returns its id.
func (s *Service) Create(ctx context.Context, kind string) (string, error) {
	e, err := s.objects.Create(kind)
	if err != nil {
		return "", err
	}
	if err := s.objects.Save(ctx); err != nil {
		s.objects.Delete(e.Key())
		return "", err
	}
	return e.ID, nil
}

// Show renders the entity kind.id.
func (s *Service) Show(kind, id string) (string, error) {
	e, err := s.lookup(kind, id)
	if err != nil {
		return "", err
	}
	return e.String(), nil
}

// Destroy removes kind.id and persists the registry.
func (s *Service) Destroy(ctx context.Context, kind, id string) error {
	e, err := s.lookup(kind, id)
	if err != nil {
		return err
	}
	s.objects.Delete(e.Key())
	if err := s.objects.Save(ctx); err != nil {
		s.objects.New(e)
		return err
	}
	return nil
}

// List renders every entity of kind, or every entity when kind is empty,
// ordered by composite key.
func (s *Service) List(kind string) ([]string, error) {
	if err := s.checkKind(kind); err != nil {
		return nil, err
	}
	keys := s.objects.Keys(kind)
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if e, ok := s.objects.Get(key); ok {
			out = append(out, e.String())
		}
	}
	return out, nil
}

// Count returns the number of entities of kind, or of every kind when kind is empty.
func (s *Service) Count(kind string) (int, error) {
	if err := s.checkKind(kind); err != nil {
		return 0, err
	}
	return s.objects.Count(kind), nil
}

// Update sets attr on kind.id to the coerced form of raw, refreshes
// updated_at and persists. Reserved fields are rejected unchanged.
func (s *Service) Update(ctx context.Context, kind, id, attr, raw string) (model.Value, error) {
	e, err := s.lookup(kind, id)
	if err != nil {
		return model.Value{}, err
	}
	if attr == "" {
		return model.Value{}, errors.NewValidationError("attribute", "name missing")
	}
	if model.IsReserved(attr) {
		return model.Value{}, errors.NewValidationError(attr, "reserved field cannot be updated")
	}

	v := ParseValue(raw)
	prev := e.Clone()
	if err := e.Set(attr, v); err != nil {
		return model.Value{}, err
	}
	if err := s.objects.Touch(ctx, e); err != nil {
		*e = *prev
		return model.Value{}, err
	}
	return v, nil
}

func (s *Service) checkKind(kind string) error {
	if kind != "" && !s.objects.Types().Has(kind) {
		return errors.NewUnknownTypeError(kind)
	}
	return nil
}

func (s *Service) lookup(kind, id string) (*model.Entity, error) {
	if err := s.checkKind(kind); err != nil {
		return nil, err
	}
	if kind == "" {
		return nil, errors.NewValidationError("class", "name missing")
	}
	if id == "" {
		return nil, errors.NewValidationError("id", "instance id missing")
	}
	e, ok := s.objects.Get(model.Key(kind, id))
	if !ok {
		return nil, errors.NewNotFoundError(kind, id)
	}
	return e, nil
}
