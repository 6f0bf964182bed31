package mealplan

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/fdg312/diet-planner/internal/catalog"
	"github.com/fdg312/diet-planner/internal/models"
	"github.com/fdg312/diet-planner/internal/storage"
	"github.com/fdg312/diet-planner/internal/storage/memory"
)

type fakeFoods map[models.FoodID]models.FoodItem

func (f fakeFoods) Food(id models.FoodID) (models.FoodItem, bool) {
	item, ok := f[id]
	return item, ok
}

var testFoods = fakeFoods{
	"f-rice":  {ID: "f-rice", Name: "Rice", Unit: models.UnitGram, KcalPerUnit: 1.3, DefaultPortion: 80},
	"f-shake": {ID: "f-shake", Name: "Shake", Unit: models.UnitPiece, KcalPerUnit: 265, DefaultPortion: 1},
}

func newTestStore(t *testing.T, kv storage.KV, foods FoodResolver) *Store {
	t.Helper()
	return Load(context.Background(), Options{
		KV:       kv,
		Defaults: catalog.Builtin(),
		Foods:    foods,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestLoad_DefaultSlots(t *testing.T) {
	s := newTestStore(t, memory.New(), testFoods)
	p := s.Snapshot()

	for _, id := range []models.MealID{"breakfast", "lunch", "postworkout", "dinner"} {
		entries, ok := p.Meals[id]
		if !ok || len(entries) != 0 {
			t.Fatalf("expected empty slot %s, got %v (ok=%v)", id, entries, ok)
		}
	}
	if p.SelectedDayType != catalog.TargetIDFor("FULL") {
		t.Fatalf("expected FULL day type, got %s", p.SelectedDayType)
	}
}

func TestAddEntryToMeal(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil, testFoods)

	e, ok := s.AddEntryToMeal(ctx, "lunch", "f-rice", nil)
	if !ok {
		t.Fatal("expected entry to be added")
	}
	if e.Portion != 80 {
		t.Errorf("expected default portion 80, got %v", e.Portion)
	}
	if e.ID == "" || string(e.ID) == string(e.FoodID) {
		t.Errorf("entry id must be fresh and distinct from food id, got %q", e.ID)
	}

	portion := 150.0
	e2, _ := s.AddEntryToMeal(ctx, "lunch", "f-rice", &portion)
	if e2.Portion != 150 {
		t.Errorf("expected explicit portion 150, got %v", e2.Portion)
	}

	lunch := s.Snapshot().Meals["lunch"]
	if len(lunch) != 2 || lunch[0].ID != e.ID || lunch[1].ID != e2.ID {
		t.Fatalf("entries not appended in order: %+v", lunch)
	}

	if _, ok := s.AddEntryToMeal(ctx, "lunch", "f-missing", nil); ok {
		t.Fatal("unknown food must be a no-op")
	}
	if _, ok := s.AddEntryToMeal(ctx, "brunch", "f-rice", nil); ok {
		t.Fatal("unknown slot must be a no-op")
	}
	if len(s.Snapshot().Meals["lunch"]) != 2 {
		t.Fatal("no-op calls changed the plan")
	}
}

func TestRemoveEntryFromMeal(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil, testFoods)
	a, _ := s.AddEntryToMeal(ctx, "dinner", "f-rice", nil)
	b, _ := s.AddEntryToMeal(ctx, "dinner", "f-shake", nil)

	if !s.RemoveEntryFromMeal(ctx, "dinner", a.ID) {
		t.Fatal("expected removal")
	}
	dinner := s.Snapshot().Meals["dinner"]
	if len(dinner) != 1 || dinner[0].ID != b.ID {
		t.Fatalf("unexpected dinner: %+v", dinner)
	}
	if s.RemoveEntryFromMeal(ctx, "dinner", a.ID) {
		t.Fatal("second removal must be a no-op")
	}
	if s.RemoveEntryFromMeal(ctx, "breakfast", b.ID) {
		t.Fatal("removal from the wrong slot must be a no-op")
	}
}

func TestMoveEntry_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil, testFoods)
	portion := 123.0
	e, _ := s.AddEntryToMeal(ctx, "breakfast", "f-rice", &portion)

	if !s.MoveEntry(ctx, "breakfast", "dinner", e.ID) {
		t.Fatal("expected move")
	}
	if _, ok := s.Entry("breakfast", e.ID); ok {
		t.Fatal("entry still in source slot")
	}
	if !s.MoveEntry(ctx, "dinner", "breakfast", e.ID) {
		t.Fatal("expected move back")
	}

	back, ok := s.Entry("breakfast", e.ID)
	if !ok || back != e {
		t.Fatalf("round trip changed the entry: %+v -> %+v", e, back)
	}
	if len(s.Snapshot().Meals["dinner"]) != 0 {
		t.Fatal("destination not emptied by move back")
	}
}

func TestMoveEntry_NoOps(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil, testFoods)
	e, _ := s.AddEntryToMeal(ctx, "lunch", "f-rice", nil)
	before := s.Snapshot()

	tests := []struct {
		name     string
		from, to models.MealID
		entry    models.EntryID
	}{
		{"same slot", "lunch", "lunch", e.ID},
		{"entry not in source", "dinner", "lunch", e.ID},
		{"unknown destination", "lunch", "brunch", e.ID},
		{"unknown entry", "lunch", "dinner", "entry_missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if s.MoveEntry(ctx, tt.from, tt.to, tt.entry) {
				t.Fatal("expected no-op")
			}
			if !reflect.DeepEqual(s.Snapshot(), before) {
				t.Fatal("plan changed on no-op")
			}
		})
	}
}

func TestSetEntryPortion(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil, testFoods)
	e, _ := s.AddEntryToMeal(ctx, "lunch", "f-rice", nil)

	if !s.SetEntryPortion(ctx, "lunch", e.ID, 42.5) {
		t.Fatal("expected portion update")
	}
	got, _ := s.Entry("lunch", e.ID)
	if got.Portion != 42.5 {
		t.Fatalf("portion must be stored as given, got %v", got.Portion)
	}
	if s.SetEntryPortion(ctx, "dinner", e.ID, 1) {
		t.Fatal("wrong slot must be a no-op")
	}
}

func TestRemoveEntriesForFood(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil, testFoods)
	s.AddEntryToMeal(ctx, "breakfast", "f-rice", nil)
	s.AddEntryToMeal(ctx, "lunch", "f-rice", nil)
	keep, _ := s.AddEntryToMeal(ctx, "lunch", "f-shake", nil)

	if n := s.RemoveEntriesForFood(ctx, "f-rice"); n != 2 {
		t.Fatalf("expected 2 removed, got %d", n)
	}
	for slot, entries := range s.Snapshot().Meals {
		for _, e := range entries {
			if e.FoodID == "f-rice" {
				t.Fatalf("slot %s still references removed food", slot)
			}
		}
	}
	if _, ok := s.Entry("lunch", keep.ID); !ok {
		t.Fatal("unrelated entry removed")
	}
}

func TestRemoveUnresolved(t *testing.T) {
	ctx := context.Background()
	foods := fakeFoods{"f-rice": testFoods["f-rice"], "f-shake": testFoods["f-shake"]}
	s := newTestStore(t, nil, foods)
	s.AddEntryToMeal(ctx, "lunch", "f-rice", nil)
	s.AddEntryToMeal(ctx, "lunch", "f-shake", nil)

	delete(foods, "f-shake")
	if n := s.RemoveUnresolved(ctx); n != 1 {
		t.Fatalf("expected 1 removed, got %d", n)
	}
	if len(s.Snapshot().Meals["lunch"]) != 1 {
		t.Fatal("expected one entry left")
	}
}

func TestClearAllMeals(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil, testFoods)
	s.AddEntryToMeal(ctx, "lunch", "f-rice", nil)
	s.AddEntryToMeal(ctx, "dinner", "f-shake", nil)

	s.ClearAllMeals(ctx)
	p := s.Snapshot()
	if len(p.Meals) != 4 {
		t.Fatalf("slots must survive clear, got %d", len(p.Meals))
	}
	for slot, entries := range p.Meals {
		if entries == nil || len(entries) != 0 {
			t.Fatalf("slot %s not empty: %v", slot, entries)
		}
	}
}

func TestEnsureSlots(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil, testFoods)

	if !s.EnsureSlots(ctx, []models.MealID{"lunch", "snack"}) {
		t.Fatal("expected new slot")
	}
	if _, ok := s.Snapshot().Meals["snack"]; !ok {
		t.Fatal("snack slot missing")
	}
	if s.EnsureSlots(ctx, []models.MealID{"snack", "bad:id"}) {
		t.Fatal("existing or invalid ids must not count as changes")
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	s := newTestStore(t, kv, testFoods)
	e, _ := s.AddEntryToMeal(ctx, "lunch", "f-shake", nil)
	s.SetDayType(ctx, catalog.TargetIDFor("REST"))

	reloaded := newTestStore(t, kv, testFoods).Snapshot()
	if got := reloaded.Meals["lunch"]; len(got) != 1 || got[0] != e {
		t.Fatalf("entry not persisted: %+v", got)
	}
	if reloaded.SelectedDayType != catalog.TargetIDFor("REST") {
		t.Fatalf("day type not persisted: %s", reloaded.SelectedDayType)
	}
}

func TestLoad_VersionMismatchYieldsEmptyPlan(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	raw, _ := json.Marshal(map[string]any{
		"format_version":    catalog.FormatVersion + 1,
		"selected_day_type": "target:REST",
		"meals": map[string]any{
			"lunch": []map[string]any{{"entry_id": "e1", "food_id": "f-rice", "portion": 10}},
		},
	})
	_ = kv.Put(ctx, DefaultStorageKey, raw)

	got := newTestStore(t, kv, testFoods).Snapshot()
	if !reflect.DeepEqual(got, Empty(catalog.Builtin())) {
		t.Fatalf("expected exactly the default plan, got %+v", got)
	}
	if _, err := kv.Get(ctx, DefaultStorageKey); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("stale snapshot must be discarded, got err=%v", err)
	}
}

func TestLoad_CorruptPayloadYieldsEmptyPlan(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	_ = kv.Put(ctx, DefaultStorageKey, []byte("[]"))

	got := newTestStore(t, kv, testFoods).Snapshot()
	if !reflect.DeepEqual(got, Empty(catalog.Builtin())) {
		t.Fatalf("expected default plan, got %+v", got)
	}
	if _, err := kv.Get(ctx, DefaultStorageKey); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("corrupt snapshot must be discarded, got err=%v", err)
	}
}
