// Package ignite provides a high-performance key/value data store
// designed for fast read and write operations, inspired by Bitcask.
// It combines an in-memory hash table (the index) with an append-only log
// structure on disk to achieve high throughput. It is designed for applications
// requiring fast read and write operations, such as caching, session management,
// and real-time data processing, aiming to provide a simple, efficient, and
// reliable solution for durable key-value storage in Go applications.
package ignite

import (
	"context"

	"github.com/ignitedb/ignitedb/internal/engine"
	"github.com/ignitedb/ignitedb/pkg/logger"
	"github.com/ignitedb/ignitedb/pkg/options"
)

// Instance represents an instance of the IgniteDB key/value data store.
// It encapsulates the core engine responsible for data handling and
// the configuration options for this specific database instance.
//
// Instance is the primary entry point for interacting with the store,
// providing methods for setting, getting, and removing key-value pairs.
type Instance struct {
	engine  *engine.Engine   // The underlying database engine handling read/write operations.
	options *options.Options // Configuration options applied to this DB instance.
}

// NewInstance opens a store instance, replaying its data directory and
// applying any functional options over the package defaults.
func NewInstance(ctx context.Context, service string, opts ...options.OptionFunc) (*Instance, error) {
	// Initialize a logger for the given service.
	log := logger.New(service)

	// Initialize default options.
	resolved := options.NewDefaultOptions()

	// Apply any provided functional options to override defaults.
	for _, opt := range opts {
		opt(&resolved)
	}

	// Create a new internal engine with the initialized logger.
	eng, err := engine.New(ctx, &engine.Config{Logger: log, Options: &resolved})
	if err != nil {
		return nil, err
	}

	return &Instance{engine: eng, options: &resolved}, nil
}

// Set stores a key-value pair in the database.
// If the key already exists, its value is replaced at a new version.
// The operation is durable: it is appended to the log before returning.
func (i *Instance) Set(ctx context.Context, key string, value []byte) error {
	return i.engine.Set(ctx, key, value)
}

// Get retrieves the value associated with the given key, returning a
// KeyNotFound error if it is absent.
func (i *Instance) Get(ctx context.Context, key string) ([]byte, error) {
	return i.engine.Get(ctx, key)
}

// Remove deletes a key-value pair from the database, returning a
// KeyNotFound error if the key was already absent. The deletion is
// durable: a tombstone record is appended to the log before returning,
// and the space it frees is reclaimed by a later compaction.
func (i *Instance) Remove(ctx context.Context, key string) error {
	return i.engine.Remove(ctx, key)
}

// Close gracefully shuts down the instance, closing every open segment
// handle and releasing the in-memory index.
func (i *Instance) Close(ctx context.Context) error {
	return i.engine.Close()
}
