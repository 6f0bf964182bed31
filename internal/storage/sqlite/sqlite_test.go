package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fdg312/diet-planner/internal/storage"
)

func TestSQLiteStore(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "diet-planner-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "nested", "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	t.Run("Get on missing key returns ErrNotFound", func(t *testing.T) {
		if _, err := store.Get(ctx, "diet-planner-v1"); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Put then Get round-trips", func(t *testing.T) {
		if err := store.Put(ctx, "diet-planner-v1", []byte(`{"v":1}`)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, err := store.Get(ctx, "diet-planner-v1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got) != `{"v":1}` {
			t.Errorf("expected {\"v\":1}, got %q", got)
		}
	})

	t.Run("Put overwrites", func(t *testing.T) {
		if err := store.Put(ctx, "diet-planner-v1", []byte(`{"v":2}`)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, _ := store.Get(ctx, "diet-planner-v1")
		if string(got) != `{"v":2}` {
			t.Errorf("expected overwritten value, got %q", got)
		}
	})

	t.Run("Delete removes key", func(t *testing.T) {
		if err := store.Delete(ctx, "diet-planner-v1"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := store.Get(ctx, "diet-planner-v1"); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
	})
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	first, err := New(dbPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := first.Put(ctx, "profile", []byte(`{"user_name":"Ann"}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	first.Close()

	second, err := New(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	got, err := second.Get(ctx, "profile")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if string(got) != `{"user_name":"Ann"}` {
		t.Fatalf("unexpected value after reopen: %q", got)
	}
}
