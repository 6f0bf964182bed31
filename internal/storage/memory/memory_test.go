package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/fdg312/diet-planner/internal/storage"
)

func TestMemoryStorage_GetPutDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	value := []byte(`{"a":1}`)
	if err := s.Put(ctx, "k", value); err != nil {
		t.Fatalf("Put: %v", err)
	}
	value[0] = 'x'

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("stored value changed through caller slice: %q", got)
	}

	got[0] = 'y'
	again, _ := s.Get(ctx, "k")
	if string(again) != `{"a":1}` {
		t.Fatalf("stored value changed through returned slice: %q", again)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete of absent key: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestLoadSaveJSON(t *testing.T) {
	ctx := context.Background()
	s := New()

	type payload struct {
		Name string `json:"name"`
	}

	var dst payload
	found, err := storage.LoadJSON(ctx, s, "p", &dst)
	if err != nil || found {
		t.Fatalf("expected not found without error, got found=%v err=%v", found, err)
	}

	if err := storage.SaveJSON(ctx, s, "p", payload{Name: "rice"}); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}
	found, err = storage.LoadJSON(ctx, s, "p", &dst)
	if err != nil || !found {
		t.Fatalf("expected found, got found=%v err=%v", found, err)
	}
	if dst.Name != "rice" {
		t.Fatalf("expected rice, got %q", dst.Name)
	}

	_ = s.Put(ctx, "broken", []byte("{not json"))
	if _, err := storage.LoadJSON(ctx, s, "broken", &dst); !errors.Is(err, storage.ErrDecode) {
		t.Fatalf("expected ErrDecode for corrupt payload, got %v", err)
	}
}
