/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entityfile

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/suparena/entityfile/config"
	"github.com/suparena/entityfile/datastore"
	"github.com/suparena/entityfile/datastore/ddb"
	"github.com/suparena/entityfile/datastore/file"
	"github.com/suparena/entityfile/datastore/mock"
)

// BackendFactory builds a snapshot store from the configuration.
type BackendFactory func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (datastore.SnapshotStore, error)

// Backends is a named collection of snapshot store factories.
type Backends interface {
	// Register adds a factory under name (for example, "file" or "dynamodb").
	Register(name string, f BackendFactory) error
	// Open builds the store registered under name.
	Open(ctx context.Context, name string, cfg *config.Config, logger *zap.Logger) (datastore.SnapshotStore, error)
	// Names lists the registered backends in sorted order.
	Names() []string
}

// backendManager is a thread-safe implementation of the Backends interface.
type backendManager struct {
	mu        sync.RWMutex
	factories map[string]BackendFactory
}

// NewBackends creates an empty Backends collection.
func NewBackends() Backends {
	return &backendManager{
		factories: make(map[string]BackendFactory),
	}
}

// DefaultBackends returns a collection holding the file, dynamodb and memory backends.
func DefaultBackends() Backends {
	b := NewBackends()
	_ = b.Register(config.BackendFile, openFile)
	_ = b.Register(config.BackendDynamoDB, openDynamoDB)
	_ = b.Register(config.BackendMemory, openMemory)
	return b
}

// Register stores the factory under the given name.
func (bm *backendManager) Register(name string, f BackendFactory) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if _, exists := bm.factories[name]; exists {
		return fmt.Errorf("backend %q already registered", name)
	}
	bm.factories[name] = f
	return nil
}

// Open builds the store registered under name.
func (bm *backendManager) Open(ctx context.Context, name string, cfg *config.Config, logger *zap.Logger) (datastore.SnapshotStore, error) {
	bm.mu.RLock()
	f, exists := bm.factories[name]
	bm.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("backend %q not registered", name)
	}
	return f(ctx, cfg, logger)
}

func (bm *backendManager) Names() []string {
	bm.mu.RLock()
	defer bm.mu.RUnlock()

	names := make([]string, 0, len(bm.factories))
	for name := range bm.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func openFile(_ context.Context, cfg *config.Config, _ *zap.Logger) (datastore.SnapshotStore, error) {
	var opts []file.Option
	if cfg.WriteMode == config.WriteDirect {
		opts = append(opts, file.WithDirectWrite())
	}
	return file.New(cfg.File, opts...), nil
}

func openDynamoDB(ctx context.Context, cfg *config.Config, logger *zap.Logger) (datastore.SnapshotStore, error) {
	client, err := ddb.NewClient(ctx, ddb.ClientConfig{
		Region:    cfg.DynamoDB.Region,
		Endpoint:  cfg.DynamoDB.Endpoint,
		AccessKey: cfg.DynamoDB.AccessKey,
		SecretKey: cfg.DynamoDB.SecretKey,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("dynamodb client ready",
		zap.String("table", cfg.DynamoDB.Table),
		zap.String("region", cfg.DynamoDB.Region),
		zap.String("endpoint", cfg.DynamoDB.Endpoint))
	return ddb.New(client, cfg.DynamoDB.Table).WithLogger(logger), nil
}

func openMemory(context.Context, *config.Config, *zap.Logger) (datastore.SnapshotStore, error) {
	return mock.New(), nil
}
