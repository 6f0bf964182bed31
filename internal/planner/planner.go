// Package planner ties the profile and meal-plan stores together. It owns
// the cross-store rules (food deletion cascade, slot validation, drag and
// drop reconciliation) and serializes access for concurrent HTTP callers.
package planner

import (
	"context"
	"log/slog"
	"sync"

	"github.com/fdg312/diet-planner/internal/catalog"
	"github.com/fdg312/diet-planner/internal/mealplan"
	"github.com/fdg312/diet-planner/internal/models"
	"github.com/fdg312/diet-planner/internal/profile"
	"github.com/fdg312/diet-planner/internal/storage"
)

// Planner is the only mutation surface of the profile and the meal plan.
type Planner struct {
	mu       sync.Mutex
	profile  *profile.Store
	plan     *mealplan.Store
	defaults catalog.Defaults
	logger   *slog.Logger
}

// Options configures Load.
type Options struct {
	KV         storage.KV
	ProfileKey string
	PlanKey    string
	Defaults   catalog.Defaults
	Logger     *slog.Logger
}

// Load restores both aggregates from storage and reconciles them.
func Load(ctx context.Context, opts Options) *Planner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ps := profile.Load(ctx, profile.Options{
		KV:       opts.KV,
		Key:      opts.ProfileKey,
		Defaults: opts.Defaults,
		Logger:   logger,
	})
	ms := mealplan.Load(ctx, mealplan.Options{
		KV:       opts.KV,
		Key:      opts.PlanKey,
		Defaults: opts.Defaults,
		Foods:    ps,
		Logger:   logger,
	})

	p := New(ps, ms, opts.Defaults, logger)
	p.mu.Lock()
	p.reconcile(ctx)
	p.mu.Unlock()
	return p
}

// New wraps already loaded stores. Use Load to restore from storage.
func New(ps *profile.Store, ms *mealplan.Store, defaults catalog.Defaults, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{
		profile:  ps,
		plan:     ms,
		defaults: defaults,
		logger:   logger.With("component", "planner"),
	}
}

// reconcile makes the plan consistent with the profile: every defined slot
// has a list, no entry points at a missing food and the day type resolves.
// Caller holds p.mu.
func (p *Planner) reconcile(ctx context.Context) {
	defs := p.profile.MealDefinitions()
	ids := make([]models.MealID, len(defs))
	for i, d := range defs {
		ids[i] = d.ID
	}
	p.plan.EnsureSlots(ctx, ids)

	if n := p.plan.RemoveUnresolved(ctx); n > 0 {
		p.logger.Info("dropped meal entries with unknown foods", "count", n)
	}

	if _, ok := p.profile.Target(p.plan.Snapshot().SelectedDayType); !ok {
		p.plan.SetDayType(ctx, p.fallbackDayType())
	}
}

func (p *Planner) fallbackDayType() models.TargetID {
	if _, ok := p.profile.Target(p.defaults.DayType); ok {
		return p.defaults.DayType
	}
	if targets := p.profile.Targets(); len(targets) > 0 {
		return targets[0].ID
	}
	return ""
}

func (p *Planner) AddFood(ctx context.Context, draft models.FoodDraft) models.FoodItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profile.AddFood(ctx, draft)
}

func (p *Planner) UpdateFood(ctx context.Context, id models.FoodID, patch models.FoodPatch) (models.FoodItem, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profile.UpdateFood(ctx, id, patch)
}

// RemoveFood deletes a food and every meal entry that references it.
func (p *Planner) RemoveFood(ctx context.Context, id models.FoodID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	removed := p.profile.RemoveFood(ctx, id)
	if n := p.plan.RemoveEntriesForFood(ctx, id); n > 0 {
		p.logger.Debug("cascaded food removal", "food_id", id, "entries", n)
	}
	return removed
}

func (p *Planner) UpdateTarget(ctx context.Context, id models.TargetID, patch models.TargetPatch) (models.Target, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profile.UpdateTarget(ctx, id, patch)
}

func (p *Planner) UpdateMealDefinition(ctx context.Context, id models.MealID, patch models.MealPatch) (models.MealDefinition, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profile.UpdateMealDefinition(ctx, id, patch)
}

// AddMealDefinition defines a new slot and opens it in the meal plan.
func (p *Planner) AddMealDefinition(ctx context.Context, draft models.MealDraft) (models.MealDefinition, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, ok := p.profile.AddMealDefinition(ctx, draft)
	if ok {
		p.plan.EnsureSlots(ctx, []models.MealID{m.ID})
	}
	return m, ok
}

func (p *Planner) AddCategory(ctx context.Context, draft models.CategoryDraft) models.FoodCategory {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profile.AddCategory(ctx, draft)
}

func (p *Planner) UpdateCategory(ctx context.Context, id models.CategoryID, patch models.CategoryPatch) (models.FoodCategory, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profile.UpdateCategory(ctx, id, patch)
}

func (p *Planner) UpdateIdentity(ctx context.Context, patch models.IdentityPatch) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profile.UpdateIdentity(ctx, patch)
}

// ResetProfile restores the default profile. Entries whose food disappeared
// with the reset are dropped.
func (p *Planner) ResetProfile(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.profile.Reset(ctx)
	p.reconcile(ctx)
}

// ResetAll restores both the default profile and an empty default plan.
func (p *Planner) ResetAll(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.profile.Reset(ctx)
	p.plan.Reset(ctx)
	p.reconcile(ctx)
}

// AddEntryToMeal places a food into a defined slot.
func (p *Planner) AddEntryToMeal(ctx context.Context, mealID models.MealID, foodID models.FoodID, portion *float64) (models.MealEntry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.profile.HasMeal(mealID) {
		return models.MealEntry{}, false
	}
	return p.plan.AddEntryToMeal(ctx, mealID, foodID, portion)
}

func (p *Planner) RemoveEntryFromMeal(ctx context.Context, mealID models.MealID, entryID models.EntryID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.plan.RemoveEntryFromMeal(ctx, mealID, entryID)
}

// MoveEntry moves an entry into another defined slot.
func (p *Planner) MoveEntry(ctx context.Context, from, to models.MealID, entryID models.EntryID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.profile.HasMeal(to) {
		return false
	}
	return p.plan.MoveEntry(ctx, from, to, entryID)
}

func (p *Planner) SetEntryPortion(ctx context.Context, mealID models.MealID, entryID models.EntryID, portion float64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.plan.SetEntryPortion(ctx, mealID, entryID, portion)
}

// Entry finds an entry in a slot.
func (p *Planner) Entry(mealID models.MealID, entryID models.EntryID) (models.MealEntry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.plan.Entry(mealID, entryID)
}

func (p *Planner) ClearAllMeals(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plan.ClearAllMeals(ctx)
}

// SetDayType selects a target. Unknown targets are ignored.
func (p *Planner) SetDayType(ctx context.Context, id models.TargetID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.profile.Target(id); !ok {
		return false
	}
	p.plan.SetDayType(ctx, id)
	return true
}

// Food resolves a food id.
func (p *Planner) Food(id models.FoodID) (models.FoodItem, bool) {
	return p.profile.Food(id)
}
