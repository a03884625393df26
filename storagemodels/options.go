/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import "time"

// MaxBatchSize is the most write requests DynamoDB accepts in one BatchWriteItem call.
const MaxBatchSize = 25

// StoreOptions configures how a remote snapshot store pages and batches its I/O
type StoreOptions struct {
	PageSize        int32              // Items per Scan page (default: 100)
	BatchSize       int                // Write requests per batch (default: 25, max: 25)
	MaxRetries      int                // Retry attempts for throttled or unprocessed requests (default: 3)
	RetryBackoff    time.Duration      // Backoff unit between retries, multiplied by the attempt (default: 200ms)
	ProgressHandler func(SaveProgress) // Optional progress callback, called after each batch
}

// SaveProgress tracks the progress of a snapshot rewrite
type SaveProgress struct {
	ItemsWritten   int64     // Records put so far
	ItemsDeleted   int64     // Stale records deleted so far
	BatchesWritten int       // Batches completed so far
	Retries        int       // Retried batches so far
	StartTime      time.Time // When the save started
}

// StoreOption is a functional option for configuring a store
type StoreOption func(*StoreOptions)

// DefaultStoreOptions returns default store options
func DefaultStoreOptions() StoreOptions {
	return StoreOptions{
		PageSize:     100,
		BatchSize:    MaxBatchSize,
		MaxRetries:   3,
		RetryBackoff: 200 * time.Millisecond,
	}
}

// Apply returns the defaults with opts applied and out-of-range values clamped
func Apply(opts ...StoreOption) StoreOptions {
	options := DefaultStoreOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.BatchSize <= 0 || options.BatchSize > MaxBatchSize {
		options.BatchSize = MaxBatchSize
	}
	if options.PageSize <= 0 {
		options.PageSize = 100
	}
	if options.MaxRetries < 0 {
		options.MaxRetries = 0
	}
	return options
}

// WithPageSize sets the Scan page size
func WithPageSize(size int32) StoreOption {
	return func(opts *StoreOptions) {
		opts.PageSize = size
	}
}

// WithBatchSize sets the number of write requests per batch
func WithBatchSize(size int) StoreOption {
	return func(opts *StoreOptions) {
		opts.BatchSize = size
	}
}

// WithMaxRetries sets the maximum retry attempts
func WithMaxRetries(retries int) StoreOption {
	return func(opts *StoreOptions) {
		opts.MaxRetries = retries
	}
}

// WithRetryBackoff sets the retry backoff duration
func WithRetryBackoff(backoff time.Duration) StoreOption {
	return func(opts *StoreOptions) {
		opts.RetryBackoff = backoff
	}
}

// WithProgressHandler sets a progress callback
func WithProgressHandler(handler func(SaveProgress)) StoreOption {
	return func(opts *StoreOptions) {
		opts.ProgressHandler = handler
	}
}
