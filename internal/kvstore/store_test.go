package kvstore_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/p-n-ai/pai-quiz/internal/kvstore"
)

// exerciseStore runs the Store contract against any backend.
func exerciseStore(t *testing.T, store kvstore.Store) {
	t.Helper()
	ctx := t.Context()

	if _, found, err := store.Get(ctx, "missing"); err != nil || found {
		t.Fatalf("Get(missing) = found %v, err %v; want absent, nil", found, err)
	}

	if err := store.Set(ctx, "selectedAnswers", `{"1":"A"}`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, found, err := store.Get(ctx, "selectedAnswers")
	if err != nil || !found {
		t.Fatalf("Get() = found %v, err %v; want present", found, err)
	}
	if got != `{"1":"A"}` {
		t.Errorf("Get() = %q, want {\"1\":\"A\"}", got)
	}

	// Last write wins.
	if err := store.Set(ctx, "selectedAnswers", `{"1":"B"}`); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	got, _, _ = store.Get(ctx, "selectedAnswers")
	if got != `{"1":"B"}` {
		t.Errorf("Get() after overwrite = %q, want {\"1\":\"B\"}", got)
	}

	if err := store.Delete(ctx, "selectedAnswers"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, found, _ := store.Get(ctx, "selectedAnswers"); found {
		t.Error("Get() after Delete() should be absent")
	}

	// Deleting an absent key is not an error.
	if err := store.Delete(ctx, "never-set"); err != nil {
		t.Errorf("Delete(never-set) error = %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, kvstore.NewMemoryStore())
}

func TestMemoryStore_Closed(t *testing.T) {
	store := kvstore.NewMemoryStore()
	_ = store.Close()

	ctx := context.Background()
	if err := store.Set(ctx, "k", "v"); !errors.Is(err, kvstore.ErrClosed) {
		t.Errorf("Set() after Close() error = %v, want ErrClosed", err)
	}
	if _, _, err := store.Get(ctx, "k"); !errors.Is(err, kvstore.ErrClosed) {
		t.Errorf("Get() after Close() error = %v, want ErrClosed", err)
	}
	if err := store.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() after Close() should fail")
	}
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.db")
	store, err := kvstore.NewSQLiteStore(path, "device-1")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	exerciseStore(t, store)
}

func TestSQLiteStore_NamespacesAreIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.db")
	a, err := kvstore.NewSQLiteStore(path, "a")
	if err != nil {
		t.Fatalf("NewSQLiteStore(a) error = %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	b, err := kvstore.NewSQLiteStore(path, "b")
	if err != nil {
		t.Fatalf("NewSQLiteStore(b) error = %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })

	ctx := t.Context()
	if err := a.Set(ctx, "bookmarkedQuestions", `{"3":true}`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, found, _ := b.Get(ctx, "bookmarkedQuestions"); found {
		t.Error("namespace b should not see keys written in namespace a")
	}
}

func TestSQLiteStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.db")
	store, err := kvstore.NewSQLiteStore(path, "")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	if err := store.Set(t.Context(), "completedQuestions", "[1,2]"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	_ = store.Close()

	reopened, err := kvstore.NewSQLiteStore(path, "")
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })

	got, found, err := reopened.Get(t.Context(), "completedQuestions")
	if err != nil || !found || got != "[1,2]" {
		t.Errorf("Get() after reopen = %q, %v, %v; want [1,2]", got, found, err)
	}
}

func TestPostgresStore_NilPool(t *testing.T) {
	if _, err := kvstore.NewPostgresStore(nil, "quiz"); err == nil {
		t.Fatal("expected error for nil pool")
	}
}
