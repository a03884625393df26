/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package file stores the registry snapshot as a JSON file.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/suparena/entityfile/codec"
	"github.com/suparena/entityfile/errors"
)

// DefaultPath is the backing file used when none is configured, relative to
// the working directory.
const DefaultPath = "file.json"

// Store implements datastore.SnapshotStore on top of an afero filesystem.
type Store struct {
	fs     afero.Fs
	path   string
	perm   os.FileMode
	direct bool
}

// Option configures a Store.
type Option func(*Store)

// WithFs replaces the OS filesystem, typically with afero.NewMemMapFs() in tests.
func WithFs(fs afero.Fs) Option {
	return func(s *Store) {
		s.fs = fs
	}
}

// WithDirectWrite truncates and rewrites the target in place instead of
// writing a temp file and renaming it. A crash mid-write leaves a corrupt file.
func WithDirectWrite() Option {
	return func(s *Store) {
		s.direct = true
	}
}

// WithPerm sets the mode of the written file.
func WithPerm(perm os.FileMode) Option {
	return func(s *Store) {
		s.perm = perm
	}
}

// New creates a Store for path, or DefaultPath when path is empty.
func New(path string, opts ...Option) *Store {
	if path == "" {
		path = DefaultPath
	}
	s := &Store{
		fs:   afero.NewOsFs(),
		path: path,
		perm: 0o644,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Describe implements datastore.SnapshotStore.
func (s *Store) Describe() string {
	return "file:" + s.path
}

// Load reads and parses the backing file.
func (s *Store) Load(ctx context.Context) (codec.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("snapshot", s.path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	return codec.Unmarshal(s.path, data)
}

// Save writes doc to the backing file, replacing its previous content.
func (s *Store) Save(ctx context.Context, doc codec.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := codec.Marshal(doc)
	if err != nil {
		return err
	}

	if s.direct {
		if err := afero.WriteFile(s.fs, s.path, data, s.perm); err != nil {
			return fmt.Errorf("failed to write %s: %w", s.path, err)
		}
		return nil
	}
	return s.writeAtomic(data)
}

// writeAtomic writes data to a sibling temp file and renames it over the
// target, so readers only ever see a complete snapshot.
func (s *Store) writeAtomic(data []byte) (err error) {
	dir, base := filepath.Split(s.path)
	if dir == "" {
		dir = "."
	}

	tmp, err := afero.TempFile(s.fs, dir, "."+base+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", s.path, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = s.fs.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err = s.fs.Chmod(tmpName, s.perm); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", tmpName, err)
	}
	if err = s.fs.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}
