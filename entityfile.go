/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entityfile

import (
	"context"

	"go.uber.org/zap"

	"github.com/suparena/entityfile/config"
	"github.com/suparena/entityfile/errors"
	"github.com/suparena/entityfile/registry"
	"github.com/suparena/entityfile/storage"
)

// Open builds the object registry described by cfg and loads its snapshot.
//
// A corrupt snapshot is not fatal: the registry is returned empty together
// with the CorruptDocumentError so the caller can report it and carry on.
// Any other failure returns a nil registry.
func Open(ctx context.Context, backends Backends, cfg *config.Config, logger *zap.Logger) (*storage.Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := backends.Open(ctx, cfg.Backend, cfg, logger)
	if err != nil {
		return nil, err
	}

	objects := storage.NewRegistry(store, registry.Default(), storage.WithLogger(logger))
	if err := objects.Reload(ctx); err != nil {
		if errors.IsCorruptDocument(err) {
			return objects, err
		}
		return nil, err
	}

	logger.Info("registry opened",
		zap.String("store", store.Describe()),
		zap.Int("entities", objects.Count("")))
	return objects, nil
}
