// Package storage defines the graph storage contract and selects a backend.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ludo-technologies/jsgraph/domain"
	"github.com/ludo-technologies/jsgraph/internal/storage/bolt"
	"github.com/ludo-technologies/jsgraph/internal/storage/memory"
	"github.com/sirupsen/logrus"
)

// Backend names accepted by Open
const (
	BackendMemory     = "memory"
	BackendPersistent = "persistent"
	BackendBolt       = "bolt"
)

// GraphStorage stores modules and dependency edges.
//
// StoreModule is an upsert keyed by module id. AddDependency is idempotent:
// repeated calls never produce duplicate ids in GetDependencies or GetDependents.
// Missing keys are not errors: GetModule returns (nil, nil) and list operations
// return empty slices. All list results are ordered by module id.
type GraphStorage interface {
	StoreModule(ctx context.Context, module *domain.Module) error
	GetModule(ctx context.Context, id domain.ModuleID) (*domain.Module, error)
	GetAllModules(ctx context.Context) ([]*domain.Module, error)

	AddDependency(ctx context.Context, from, to domain.ModuleID) error
	GetDependencies(ctx context.Context, id domain.ModuleID) ([]domain.ModuleID, error)
	GetDependents(ctx context.Context, id domain.ModuleID) ([]domain.ModuleID, error)

	GetEntryPoints(ctx context.Context) ([]domain.ModuleID, error)

	StoreExternalDependency(ctx context.Context, dep *domain.ExternalDependency) error
	GetExternalDependencies(ctx context.Context) ([]*domain.ExternalDependency, error)

	// Clear removes every record
	Clear(ctx context.Context) error

	io.Closer
}

// Options selects and configures a backend
type Options struct {
	// Backend is one of BackendMemory, BackendPersistent or BackendBolt
	Backend string

	// Path is the database file for the persistent backend; empty means an ephemeral temp file
	Path string

	// CacheSize is the decoded-module cache size of the persistent backend
	CacheSize int

	// Logger receives debug output; nil discards it
	Logger logrus.FieldLogger
}

// Open creates the backend named by opts.Backend.
// Initialization failures are returned as *domain.ConfigError.
func Open(ctx context.Context, opts Options) (GraphStorage, error) {
	switch strings.ToLower(opts.Backend) {
	case "", BackendMemory:
		return memory.New(), nil

	case BackendPersistent, BackendBolt:
		store, err := bolt.Open(ctx, bolt.Options{
			Path:      opts.Path,
			CacheSize: opts.CacheSize,
			Logger:    opts.Logger,
		})
		if err != nil {
			return nil, domain.NewConfigError("storage", "failed to initialize persistent storage", err)
		}
		return store, nil

	default:
		return nil, domain.NewConfigError("storage.backend",
			fmt.Sprintf("unknown backend %q, must be one of: %s, %s", opts.Backend, BackendMemory, BackendPersistent), nil)
	}
}
