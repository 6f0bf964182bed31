package planner

import (
	"context"
	"testing"

	"github.com/fdg312/diet-planner/internal/models"
)

func TestParseDrop(t *testing.T) {
	tests := []struct {
		name   string
		active string
		over   string
		want   DropAction
		ok     bool
	}{
		{
			name:   "library food",
			active: "lib:food:rice",
			over:   "drop:lunch",
			want:   DropAction{Kind: DropAdd, FoodID: "food:rice", To: "lunch"},
			ok:     true,
		},
		{
			name:   "placed entry",
			active: "meal:breakfast:entry_1",
			over:   "drop:dinner",
			want:   DropAction{Kind: DropMove, From: "breakfast", EntryID: "entry_1", To: "dinner"},
			ok:     true,
		},
		{
			name:   "entry id keeps later colons",
			active: "meal:breakfast:a:b",
			over:   "drop:dinner",
			want:   DropAction{Kind: DropMove, From: "breakfast", EntryID: "a:b", To: "dinner"},
			ok:     true,
		},
		{name: "missing target", active: "lib:food:rice", over: ""},
		{name: "target without drop prefix", active: "lib:food:rice", over: "lunch"},
		{name: "empty target slot", active: "lib:food:rice", over: "drop:"},
		{name: "unknown source prefix", active: "cat:Proteins", over: "drop:lunch"},
		{name: "empty food id", active: "lib:", over: "drop:lunch"},
		{name: "meal tag without entry", active: "meal:breakfast", over: "drop:lunch"},
		{name: "meal tag with empty slot", active: "meal::entry_1", over: "drop:lunch"},
		{name: "meal tag with empty entry", active: "meal:breakfast:", over: "drop:lunch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDrop(tt.active, tt.over)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTagBuildersRoundTrip(t *testing.T) {
	action, ok := ParseDrop(MealTag("lunch", "entry_9"), DropTag("dinner"))
	if !ok || action.From != "lunch" || action.EntryID != "entry_9" || action.To != "dinner" {
		t.Fatalf("unexpected action %+v ok=%v", action, ok)
	}
	action, ok = ParseDrop(LibraryTag("food:rice"), DropTag("lunch"))
	if !ok || action.FoodID != "food:rice" {
		t.Fatalf("unexpected action %+v ok=%v", action, ok)
	}
}

func TestDrop(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t, nil)

	action, ok := p.Drop(ctx, LibraryTag(rice), DropTag("lunch"))
	if !ok || action.Kind != DropAdd {
		t.Fatalf("expected add, got %+v ok=%v", action, ok)
	}
	lunch := p.Snapshot().Plan.Meals["lunch"]
	if len(lunch) != 1 || lunch[0].Portion != 80 {
		t.Fatalf("expected one entry with default portion 80, got %+v", lunch)
	}

	entry := lunch[0]
	if _, ok := p.Drop(ctx, MealTag("lunch", entry.ID), DropTag("dinner")); !ok {
		t.Fatal("expected move")
	}
	v := p.Snapshot()
	if len(v.Plan.Meals["lunch"]) != 0 || len(v.Plan.Meals["dinner"]) != 1 || v.Plan.Meals["dinner"][0] != entry {
		t.Fatalf("entry not moved intact: %+v", v.Plan.Meals)
	}
}

func TestDrop_NoOps(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t, nil)
	e, _ := p.AddEntryToMeal(ctx, "lunch", rice, nil)
	before := p.Snapshot().Plan

	cases := [][2]string{
		{LibraryTag(rice), ""},
		{LibraryTag("food:missing"), DropTag("lunch")},
		{LibraryTag(rice), DropTag("brunch")},
		{MealTag("lunch", e.ID), DropTag("lunch")},
		{MealTag("dinner", e.ID), DropTag("lunch")},
		{MealTag("lunch", e.ID), DropTag("brunch")},
		{"meal:lunch", DropTag("dinner")},
		{"food:" + string(rice), DropTag("dinner")},
	}
	for _, c := range cases {
		if _, ok := p.Drop(ctx, c[0], c[1]); ok {
			t.Errorf("Drop(%q, %q) applied, want no-op", c[0], c[1])
		}
	}

	after := p.Snapshot().Plan
	for slot, entries := range before.Meals {
		if len(after.Meals[slot]) != len(entries) {
			t.Fatalf("slot %s changed on no-op drops", slot)
		}
	}
	if len(after.Meals[models.MealID("lunch")]) != 1 {
		t.Fatal("lunch entry lost")
	}
}
