package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ludo-technologies/jsgraph/domain"
	"github.com/ludo-technologies/jsgraph/internal/storage/bolt"
	"github.com/ludo-technologies/jsgraph/internal/storage/memory"
)

func TestOpen_SelectsBackend(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantMem bool
	}{
		{"default", Options{}, true},
		{"memory", Options{Backend: "memory"}, true},
		{"persistent", Options{Backend: "persistent", Path: filepath.Join(t.TempDir(), "a.db")}, false},
		{"bolt alias", Options{Backend: "BOLT", Path: filepath.Join(t.TempDir(), "b.db")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(context.Background(), tt.opts)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			defer s.Close()

			_, isMem := s.(*memory.Store)
			_, isBolt := s.(*bolt.Store)
			if tt.wantMem && !isMem {
				t.Errorf("expected memory backend, got %T", s)
			}
			if !tt.wantMem && !isBolt {
				t.Errorf("expected bolt backend, got %T", s)
			}
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Options{Backend: "surreal"})
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if !domain.IsConfigError(err) {
		t.Errorf("expected ConfigError, got %T: %v", err, err)
	}
}

func TestOpen_InitFailureIsConfigError(t *testing.T) {
	// a directory cannot be opened as a database file
	_, err := Open(context.Background(), Options{Backend: BackendPersistent, Path: t.TempDir()})
	if err == nil {
		t.Fatal("expected error opening a directory as database")
	}
	if !domain.IsConfigError(err) {
		t.Errorf("expected ConfigError, got %T: %v", err, err)
	}
}
