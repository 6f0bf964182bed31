package planner

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/fdg312/diet-planner/internal/catalog"
	"github.com/fdg312/diet-planner/internal/mealplan"
	"github.com/fdg312/diet-planner/internal/models"
	"github.com/fdg312/diet-planner/internal/nutrition"
	"github.com/fdg312/diet-planner/internal/profile"
	"github.com/fdg312/diet-planner/internal/storage"
	"github.com/fdg312/diet-planner/internal/storage/memory"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPlanner(t *testing.T, kv storage.KV) *Planner {
	t.Helper()
	return Load(context.Background(), Options{
		KV:       kv,
		Defaults: catalog.Builtin(),
		Logger:   quietLogger(),
	})
}

var (
	rice    = catalog.FoodIDFor("Rice")
	chicken = catalog.FoodIDFor("Chicken")
	shakes  = catalog.FoodIDFor("Shakes")
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestLoad_Defaults(t *testing.T) {
	p := newTestPlanner(t, memory.New())
	v := p.Snapshot()

	if len(v.MealDefinitions) != 4 {
		t.Fatalf("expected 4 slots, got %d", len(v.MealDefinitions))
	}
	if v.Target == nil || v.Target.Name != "FULL" {
		t.Fatalf("expected FULL target, got %+v", v.Target)
	}
	if v.Totals != (nutrition.Totals{}) {
		t.Fatalf("expected zero totals, got %+v", v.Totals)
	}
	if v.StillNeed != 1500 {
		t.Fatalf("expected still need 1500, got %v", v.StillNeed)
	}
	if v.ProteinPerKg != nil {
		t.Fatal("protein ratio must be undefined without weight")
	}
}

func TestRemoveFood_Cascades(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t, nil)

	p.AddEntryToMeal(ctx, "breakfast", rice, nil)
	p.AddEntryToMeal(ctx, "dinner", rice, nil)
	p.AddEntryToMeal(ctx, "dinner", chicken, nil)

	if !p.RemoveFood(ctx, rice) {
		t.Fatal("expected food removal")
	}
	if _, ok := p.Food(rice); ok {
		t.Fatal("food still resolvable")
	}
	for slot, entries := range p.Snapshot().Plan.Meals {
		for _, e := range entries {
			if e.FoodID == rice {
				t.Fatalf("slot %s still references removed food", slot)
			}
		}
	}
	if len(p.Snapshot().Plan.Meals["dinner"]) != 1 {
		t.Fatal("unrelated entries must survive the cascade")
	}
}

func TestMoveEntry_RoundTrip(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t, nil)
	portion := 250.0
	e, ok := p.AddEntryToMeal(ctx, "lunch", chicken, &portion)
	if !ok {
		t.Fatal("expected entry")
	}

	if !p.MoveEntry(ctx, "lunch", "dinner", e.ID) || !p.MoveEntry(ctx, "dinner", "lunch", e.ID) {
		t.Fatal("expected both moves to apply")
	}
	lunch := p.Snapshot().Plan.Meals["lunch"]
	if len(lunch) != 1 || lunch[0] != e {
		t.Fatalf("round trip changed the entry: %+v", lunch)
	}
}

func TestClearAllMeals_ZeroTotals(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t, nil)
	p.AddEntryToMeal(ctx, "lunch", chicken, nil)
	p.AddEntryToMeal(ctx, "postworkout", shakes, nil)

	if p.Snapshot().Totals.Kcal == 0 {
		t.Fatal("expected non-zero totals before clear")
	}
	p.ClearAllMeals(ctx)
	if got := p.Snapshot().Totals; got != (nutrition.Totals{}) {
		t.Fatalf("expected zero totals after clear, got %+v", got)
	}
}

func TestSnapshot_TotalsAndStillNeed(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t, nil)

	meat := p.AddFood(ctx, models.FoodDraft{Name: "Meat", Unit: models.UnitGram, KcalPerUnit: 3.0, ProteinPerUnit: 0.25, DefaultPortion: 100})
	portion := 150.0
	p.AddEntryToMeal(ctx, "dinner", meat.ID, &portion)

	v := p.Snapshot()
	if !approx(v.MealTotals["dinner"].Kcal, 450) || !approx(v.MealTotals["dinner"].Protein, 37.5) {
		t.Fatalf("unexpected dinner totals %+v", v.MealTotals["dinner"])
	}
	if v.MealTotals["breakfast"] != (nutrition.Totals{}) {
		t.Fatal("empty slot must report zeros")
	}
	if !approx(v.StillNeed, 1050) {
		t.Fatalf("expected still need 1050, got %v", v.StillNeed)
	}

	weight := 75.0
	p.UpdateIdentity(ctx, models.IdentityPatch{WeightKg: &weight})
	v = p.Snapshot()
	if v.ProteinPerKg == nil || !approx(*v.ProteinPerKg, 0.5) || v.ProteinInRange {
		t.Fatalf("unexpected protein ratio %v in_range=%v", v.ProteinPerKg, v.ProteinInRange)
	}
}

func TestAddEntryToMeal_RejectsUndefinedSlot(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t, nil)

	if _, ok := p.AddEntryToMeal(ctx, "brunch", rice, nil); ok {
		t.Fatal("undefined slot must be a no-op")
	}
	if _, ok := p.AddEntryToMeal(ctx, "lunch", "food:missing", nil); ok {
		t.Fatal("unknown food must be a no-op")
	}
}

func TestAddMealDefinition_OpensSlot(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t, nil)

	m, ok := p.AddMealDefinition(ctx, models.MealDraft{ID: "snack", Name: "Snack"})
	if !ok {
		t.Fatal("expected slot")
	}
	if _, ok := p.AddEntryToMeal(ctx, m.ID, rice, nil); !ok {
		t.Fatal("new slot must accept entries")
	}
	if _, ok := p.Snapshot().MealTotals["snack"]; !ok {
		t.Fatal("new slot must be reported in meal totals")
	}
}

func TestSetDayType(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t, nil)

	if !p.SetDayType(ctx, catalog.TargetIDFor("REST")) {
		t.Fatal("expected day type change")
	}
	if p.Snapshot().Target.Name != "REST" {
		t.Fatal("REST not selected")
	}
	if p.SetDayType(ctx, "target:NOPE") {
		t.Fatal("unknown target must be rejected")
	}
}

func TestResetProfile_DropsOrphanedEntries(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t, nil)

	custom := p.AddFood(ctx, models.FoodDraft{Name: "Tofu", KcalPerUnit: 1.2})
	p.AddEntryToMeal(ctx, "lunch", custom.ID, nil)
	p.AddEntryToMeal(ctx, "lunch", rice, nil)

	p.ResetProfile(ctx)
	lunch := p.Snapshot().Plan.Meals["lunch"]
	if len(lunch) != 1 || lunch[0].FoodID != rice {
		t.Fatalf("expected only the default food to remain, got %+v", lunch)
	}
}

func TestResetAll_RestoresProfileAndPlan(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	p := newTestPlanner(t, kv)

	p.AddEntryToMeal(ctx, "dinner", rice, nil)
	p.SetDayType(ctx, catalog.TargetIDFor("REST"))
	p.AddMealDefinition(ctx, models.MealDraft{Name: "Snack"})

	p.ResetAll(ctx)
	v := p.Snapshot()
	if len(v.Plan.Meals["dinner"]) != 0 || v.Plan.SelectedDayType != catalog.TargetIDFor("FULL") {
		t.Fatalf("plan not reset: %+v", v.Plan)
	}
	if len(v.MealDefinitions) != len(catalog.Builtin().Meals) {
		t.Fatalf("expected default slots, got %d", len(v.MealDefinitions))
	}

	reloaded := newTestPlanner(t, kv).Snapshot()
	if len(reloaded.Plan.Meals["dinner"]) != 0 || reloaded.Plan.SelectedDayType != catalog.TargetIDFor("FULL") {
		t.Fatalf("reset not persisted: %+v", reloaded.Plan)
	}
}

func TestLoad_VersionMismatchYieldsDefaults(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()

	prof := profile.FromDefaults(catalog.Builtin())
	prof.FormatVersion = 99
	prof.UserName = "Stale"
	_ = storage.SaveJSON(ctx, kv, profile.DefaultStorageKey, prof)

	plan := mealplan.Empty(catalog.Builtin())
	plan.FormatVersion = 99
	plan.Meals["lunch"] = []models.MealEntry{{ID: "e1", FoodID: rice, Portion: 100}}
	_ = storage.SaveJSON(ctx, kv, mealplan.DefaultStorageKey, plan)

	v := newTestPlanner(t, kv).Snapshot()
	if v.Profile.UserName != catalog.DefaultUserName {
		t.Fatal("stale profile must be discarded")
	}
	if len(v.Plan.Meals["lunch"]) != 0 {
		t.Fatal("stale plan must be discarded")
	}
}

func TestLoad_RestoresFromStorage(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()

	first := newTestPlanner(t, kv)
	food := first.AddFood(ctx, models.FoodDraft{Name: "Oats", KcalPerUnit: 3.8, DefaultPortion: 40})
	e, _ := first.AddEntryToMeal(ctx, "breakfast", food.ID, nil)

	second := newTestPlanner(t, kv).Snapshot()
	got := second.Plan.Meals["breakfast"]
	if len(got) != 1 || got[0] != e {
		t.Fatalf("entry not restored: %+v", got)
	}
	if _, ok := second.Profile.Foods[food.ID]; !ok {
		t.Fatal("food not restored")
	}
}

func TestLoad_UnknownDayTypeFallsBack(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()

	plan := mealplan.Empty(catalog.Builtin())
	plan.SelectedDayType = "target:GONE"
	_ = storage.SaveJSON(ctx, kv, mealplan.DefaultStorageKey, plan)

	v := newTestPlanner(t, kv).Snapshot()
	if v.Plan.SelectedDayType != catalog.TargetIDFor("FULL") {
		t.Fatalf("expected fallback to FULL, got %s", v.Plan.SelectedDayType)
	}
}

func TestView_JSONShape(t *testing.T) {
	p := newTestPlanner(t, nil)
	raw, err := json.Marshal(p.Snapshot())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"profile", "plan", "meal_definitions", "targets", "totals", "meal_totals", "target", "still_need"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
}
