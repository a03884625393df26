/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package model

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/suparena/entityfile/errors"
)

// Reserved attribute names. They are carried as typed fields on Entity and
// never live in the attribute bag.
const (
	FieldID        = "id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
	FieldClass     = "__class__"
)

// IsReserved reports whether name is one of the reserved attribute names.
func IsReserved(name string) bool {
	switch name {
	case FieldID, FieldCreatedAt, FieldUpdatedAt, FieldClass:
		return true
	}
	return false
}

// Key builds the composite registry key "<Type>.<ID>".
func Key(kind, id string) string {
	return kind + "." + id
}

// Entity is a typed, identity-bearing record with timestamps and an open attribute bag.
type Entity struct {
	Type      string
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	Attrs     map[string]Value
}

// New creates an entity of the given kind with a fresh identity and both
// timestamps set to now.
func New(kind string, now time.Time) *Entity {
	now = now.UTC().Truncate(time.Microsecond)
	return &Entity{
		Type:      kind,
		ID:        uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
		Attrs:     make(map[string]Value),
	}
}

// FromMap reconstructs an entity of the given kind from its serialized attribute map.
// The id and both timestamps are required; every other key except __class__ is
// copied into the attribute bag.
func FromMap(kind string, attrs map[string]any) (*Entity, error) {
	e := &Entity{Type: kind, Attrs: make(map[string]Value, len(attrs))}

	id, ok := attrs[FieldID].(string)
	if !ok || id == "" {
		return nil, errors.NewValidationError(FieldID, "required string field missing")
	}
	e.ID = id

	var err error
	if e.CreatedAt, err = timeField(attrs, FieldCreatedAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = timeField(attrs, FieldUpdatedAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt.Before(e.CreatedAt) {
		return nil, errors.NewValidationError(FieldUpdatedAt, "earlier than created_at")
	}

	for name, raw := range attrs {
		if IsReserved(name) {
			continue
		}
		v, err := ValueOf(raw)
		if err != nil {
			return nil, errors.NewValidationError(name, err.Error())
		}
		e.Attrs[name] = v
	}
	return e, nil
}

func timeField(attrs map[string]any, name string) (time.Time, error) {
	s, ok := attrs[name].(string)
	if !ok {
		return time.Time{}, errors.NewValidationError(name, "required string field missing")
	}
	t, err := ParseTime(s)
	if err != nil {
		return time.Time{}, errors.NewValidationError(name, err.Error())
	}
	return t, nil
}

// Key returns the composite registry key of e.
func (e *Entity) Key() string {
	return Key(e.Type, e.ID)
}

// ToMap serializes e into a flat attribute map: the bag, the reserved fields
// rendered as text, and the type tag under __class__.
func (e *Entity) ToMap() map[string]any {
	m := make(map[string]any, len(e.Attrs)+4)
	for name, v := range e.Attrs {
		m[name] = v
	}
	m[FieldID] = e.ID
	m[FieldCreatedAt] = FormatTime(e.CreatedAt)
	m[FieldUpdatedAt] = FormatTime(e.UpdatedAt)
	m[FieldClass] = e.Type
	return m
}

// Get returns the named attribute from the bag.
func (e *Entity) Get(name string) (Value, bool) {
	v, ok := e.Attrs[name]
	return v, ok
}

// Set stores v under name. Reserved names are rejected and leave e unchanged.
func (e *Entity) Set(name string, v Value) error {
	if name == "" {
		return errors.NewValidationError("", "attribute name missing")
	}
	if IsReserved(name) {
		return errors.NewValidationError(name, "reserved attribute cannot be updated")
	}
	if e.Attrs == nil {
		e.Attrs = make(map[string]Value)
	}
	e.Attrs[name] = v
	return nil
}

// Touch refreshes UpdatedAt. It never moves UpdatedAt before CreatedAt.
func (e *Entity) Touch(now time.Time) {
	now = now.UTC().Truncate(time.Microsecond)
	if now.Before(e.CreatedAt) {
		now = e.CreatedAt
	}
	e.UpdatedAt = now
}

// Clone returns a deep copy of e.
func (e *Entity) Clone() *Entity {
	c := *e
	c.Attrs = make(map[string]Value, len(e.Attrs))
	for k, v := range e.Attrs {
		c.Attrs[k] = v
	}
	return &c
}

// String renders e for display: "[Type] (id) {attrs}" with the attributes,
// reserved fields included, in sorted key order.
func (e *Entity) String() string {
	fields := make(map[string]string, len(e.Attrs)+3)
	for name, v := range e.Attrs {
		fields[name] = v.Repr()
	}
	fields[FieldID] = fmt.Sprintf("%q", e.ID)
	fields[FieldCreatedAt] = fmt.Sprintf("%q", FormatTime(e.CreatedAt))
	fields[FieldUpdatedAt] = fmt.Sprintf("%q", FormatTime(e.UpdatedAt))

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] (%s) {", e.Type, e.ID)
	for i, name := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q: %s", name, fields[name])
	}
	b.WriteString("}")
	return b.String()
}
