// Package bolt is the persistent graph store backed by a bbolt database file.
package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hashicorp/golang-lru/v2"
	"github.com/ludo-technologies/jsgraph/domain"
	"github.com/sirupsen/logrus"
	bbolt "go.etcd.io/bbolt"
)

// SchemaVersion is written to new databases and checked on open
const SchemaVersion = "1"

// DefaultCacheSize is the number of decoded modules kept in memory
const DefaultCacheSize = 1024

var (
	bucketMeta         = []byte("meta")
	bucketModules      = []byte("modules")
	bucketEntries      = []byte("entries")
	bucketDependencies = []byte("dependencies")
	bucketDependents   = []byte("dependents")
	bucketExternal     = []byte("external")

	keySchemaVersion = []byte("schema_version")
	edgeMarker       = []byte{1}

	allBuckets = [][]byte{
		bucketMeta, bucketModules, bucketEntries,
		bucketDependencies, bucketDependents, bucketExternal,
	}
)

// ErrSchemaMismatch is returned when an existing database was written with another schema
var ErrSchemaMismatch = errors.New("database schema version mismatch")

// Options configures the persistent store
type Options struct {
	// Path is the database file; empty creates a temp file removed on Close
	Path string

	// CacheSize bounds the decoded-module cache; <= 0 uses DefaultCacheSize
	CacheSize int

	// Timeout is how long Open waits for the file lock; <= 0 means one second
	Timeout time.Duration

	// Logger receives debug output; nil discards it
	Logger logrus.FieldLogger
}

// Store persists modules as JSON records, and edges as nested buckets keyed by module id
type Store struct {
	db        *bbolt.DB
	path      string
	ephemeral bool
	cache     *lru.Cache[domain.ModuleID, *domain.Module]
	log       logrus.FieldLogger
}

// Open opens or creates the database and its buckets
func Open(ctx context.Context, opts Options) (*Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}

	path, ephemeral := opts.Path, false
	if path == "" {
		f, err := os.CreateTemp("", "jsgraph-*.db")
		if err != nil {
			return nil, fmt.Errorf("failed to create ephemeral database: %w", err)
		}
		path = f.Name()
		_ = f.Close()
		ephemeral = true
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Second
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: timeout})
	if err != nil {
		if ephemeral {
			_ = os.Remove(path)
		}
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	cacheSize := opts.CacheSize
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[domain.ModuleID, *domain.Module](cacheSize)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create module cache: %w", err)
	}

	s := &Store{
		db:        db,
		path:      path,
		ephemeral: ephemeral,
		cache:     cache,
		log:       log.WithFields(logrus.Fields{"backend": "bolt", "path": path}),
	}

	if err := s.init(); err != nil {
		_ = s.Close()
		return nil, err
	}

	s.log.Debug("persistent storage opened")
	return s, nil
}

func (s *Store) init() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}

		meta := tx.Bucket(bucketMeta)
		version := meta.Get(keySchemaVersion)
		if version == nil {
			return meta.Put(keySchemaVersion, []byte(SchemaVersion))
		}
		if string(version) != SchemaVersion {
			return fmt.Errorf("%w: found %s, want %s", ErrSchemaMismatch, version, SchemaVersion)
		}
		return nil
	})
}

// Path returns the database file location
func (s *Store) Path() string {
	return s.path
}

// StoreModule upserts a module and maintains the entry-point index
func (s *Store) StoreModule(ctx context.Context, module *domain.Module) error {
	data, err := json.Marshal(module)
	if err != nil {
		return domain.NewStorageError("store_module", module.ID, err)
	}

	key := []byte(module.ID.String())
	err = s.update(ctx, "store_module", module.ID, func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketModules).Put(key, data); err != nil {
			return err
		}
		entries := tx.Bucket(bucketEntries)
		if module.IsEntry {
			return entries.Put(key, edgeMarker)
		}
		return entries.Delete(key)
	})
	if err != nil {
		return err
	}

	s.cache.Add(module.ID, module.Clone())
	return nil
}

// GetModule returns the module, or nil when absent
func (s *Store) GetModule(ctx context.Context, id domain.ModuleID) (*domain.Module, error) {
	if cached, ok := s.cache.Get(id); ok {
		return cached.Clone(), nil
	}

	var module *domain.Module
	err := s.view(ctx, "get_module", id, func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketModules).Get([]byte(id.String()))
		if data == nil {
			return nil
		}
		decoded, err := decodeModule(data)
		if err != nil {
			return err
		}
		module = decoded
		return nil
	})
	if err != nil || module == nil {
		return nil, err
	}

	s.cache.Add(id, module)
	return module.Clone(), nil
}

// GetAllModules returns every module ordered by id
func (s *Store) GetAllModules(ctx context.Context) ([]*domain.Module, error) {
	modules := make([]*domain.Module, 0)
	err := s.view(ctx, "get_all_modules", domain.ModuleID{}, func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketModules).ForEach(func(k, v []byte) error {
			id, err := domain.ParseModuleID(string(k))
			if err != nil {
				return err
			}
			if cached, ok := s.cache.Get(id); ok {
				modules = append(modules, cached.Clone())
				return nil
			}
			decoded, err := decodeModule(v)
			if err != nil {
				return fmt.Errorf("decode %s: %w", k, err)
			}
			s.cache.Add(id, decoded)
			modules = append(modules, decoded.Clone())
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return modules, nil
}

// AddDependency records the edge from -> to and its reverse in one transaction
func (s *Store) AddDependency(ctx context.Context, from, to domain.ModuleID) error {
	return s.update(ctx, "add_dependency", from, func(tx *bbolt.Tx) error {
		if err := putEdge(tx.Bucket(bucketDependencies), from, to); err != nil {
			return err
		}
		return putEdge(tx.Bucket(bucketDependents), to, from)
	})
}

// GetDependencies returns the modules id imports
func (s *Store) GetDependencies(ctx context.Context, id domain.ModuleID) ([]domain.ModuleID, error) {
	return s.edges(ctx, "get_dependencies", bucketDependencies, id)
}

// GetDependents returns the modules importing id
func (s *Store) GetDependents(ctx context.Context, id domain.ModuleID) ([]domain.ModuleID, error) {
	return s.edges(ctx, "get_dependents", bucketDependents, id)
}

// GetEntryPoints returns the ids of modules flagged as entries
func (s *Store) GetEntryPoints(ctx context.Context) ([]domain.ModuleID, error) {
	entries := make([]domain.ModuleID, 0)
	err := s.view(ctx, "get_entry_points", domain.ModuleID{}, func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEntries).ForEach(func(k, _ []byte) error {
			id, err := domain.ParseModuleID(string(k))
			if err != nil {
				return err
			}
			entries = append(entries, id)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// StoreExternalDependency upserts an external dependency keyed by specifier
func (s *Store) StoreExternalDependency(ctx context.Context, dep *domain.ExternalDependency) error {
	stored := dep.Clone()
	stored.Normalize()

	data, err := json.Marshal(stored)
	if err != nil {
		return &domain.StorageError{Op: "store_external_dependency", ID: dep.Specifier, Err: err}
	}
	return s.update(ctx, "store_external_dependency", domain.ModuleID{}, func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketExternal).Put([]byte(stored.Specifier), data)
	})
}

// GetExternalDependencies returns every external dependency ordered by specifier
func (s *Store) GetExternalDependencies(ctx context.Context) ([]*domain.ExternalDependency, error) {
	deps := make([]*domain.ExternalDependency, 0)
	err := s.view(ctx, "get_external_dependencies", domain.ModuleID{}, func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketExternal).ForEach(func(k, v []byte) error {
			var dep domain.ExternalDependency
			if err := json.Unmarshal(v, &dep); err != nil {
				return fmt.Errorf("decode %s: %w", k, err)
			}
			deps = append(deps, &dep)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return deps, nil
}

// Clear drops every record but keeps the schema
func (s *Store) Clear(ctx context.Context) error {
	err := s.update(ctx, "clear", domain.ModuleID{}, func(tx *bbolt.Tx) error {
		for _, name := range allBuckets {
			if string(name) == string(bucketMeta) {
				continue
			}
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.cache.Purge()
	return nil
}

// Close closes the database and removes it when it was ephemeral
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if s.ephemeral {
		if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}
	s.log.Debug("persistent storage closed")
	return err
}

func (s *Store) edges(ctx context.Context, op string, bucket []byte, id domain.ModuleID) ([]domain.ModuleID, error) {
	ids := make([]domain.ModuleID, 0)
	err := s.view(ctx, op, id, func(tx *bbolt.Tx) error {
		set := tx.Bucket(bucket).Bucket([]byte(id.String()))
		if set == nil {
			return nil
		}
		return set.ForEach(func(k, _ []byte) error {
			other, err := domain.ParseModuleID(string(k))
			if err != nil {
				return err
			}
			ids = append(ids, other)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) view(ctx context.Context, op string, id domain.ModuleID, fn func(tx *bbolt.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return domain.NewStorageError(op, id, err)
	}
	if s.db == nil {
		return domain.NewStorageError(op, id, bbolt.ErrDatabaseNotOpen)
	}
	if err := s.db.View(fn); err != nil {
		return domain.NewStorageError(op, id, err)
	}
	return nil
}

func (s *Store) update(ctx context.Context, op string, id domain.ModuleID, fn func(tx *bbolt.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return domain.NewStorageError(op, id, err)
	}
	if s.db == nil {
		return domain.NewStorageError(op, id, bbolt.ErrDatabaseNotOpen)
	}
	if err := s.db.Update(fn); err != nil {
		return domain.NewStorageError(op, id, err)
	}
	return nil
}

func putEdge(index *bbolt.Bucket, from, to domain.ModuleID) error {
	set, err := index.CreateBucketIfNotExists([]byte(from.String()))
	if err != nil {
		return err
	}
	return set.Put([]byte(to.String()), edgeMarker)
}

func decodeModule(data []byte) (*domain.Module, error) {
	var m domain.Module
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
