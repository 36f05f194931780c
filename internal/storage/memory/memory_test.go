package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/ludo-technologies/jsgraph/internal/storage"
	"github.com/ludo-technologies/jsgraph/internal/storage/memory"
	"github.com/ludo-technologies/jsgraph/internal/storage/storagetest"
)

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.GraphStorage {
		return memory.New()
	})
}

func TestStore_ConcurrentReadersAndWriters(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.StoreModule(ctx, storagetest.Module("a.ts"))
			_ = s.AddDependency(ctx, storagetest.ID("a.ts"), storagetest.ID("b.ts"))
		}()
		go func() {
			defer wg.Done()
			_, _ = s.GetAllModules(ctx)
			_, _ = s.GetDependents(ctx, storagetest.ID("b.ts"))
		}()
	}
	wg.Wait()

	deps, err := s.GetDependencies(ctx, storagetest.ID("a.ts"))
	if err != nil {
		t.Fatalf("GetDependencies failed: %v", err)
	}
	if len(deps) != 1 {
		t.Errorf("expected 1 dependency after concurrent writes, got %d", len(deps))
	}
}
