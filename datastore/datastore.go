/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/entityfile/codec"
)

// SnapshotStore persists and restores the whole object registry as one document.
type SnapshotStore interface {
	// Load returns the last saved document, or a NotFoundError when none exists yet.
	Load(ctx context.Context) (codec.Document, error)

	// Save replaces the stored document with doc.
	Save(ctx context.Context, doc codec.Document) error

	// Describe names the store's target for logs and error messages.
	Describe() string
}
