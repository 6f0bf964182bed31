package mealplan

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/fdg312/diet-planner/internal/catalog"
	"github.com/fdg312/diet-planner/internal/models"
	"github.com/fdg312/diet-planner/internal/storage"
)

const defaultWriteTimeout = 3 * time.Second

// Options configures a Store.
type Options struct {
	// KV may be nil, in which case nothing is persisted.
	KV       storage.KV
	Key      string
	Defaults catalog.Defaults
	Foods    FoodResolver
	Logger   *slog.Logger
}

// Store owns the meal plan of the current planning session. Unknown slot,
// entry or food ids make an operation a silent no-op.
type Store struct {
	mu       sync.RWMutex
	plan     Plan
	defaults catalog.Defaults
	foods    FoodResolver

	kv     storage.KV
	key    string
	logger *slog.Logger
}

// Load restores the plan from opts.KV or builds an empty one with a slot per
// default meal definition.
func Load(ctx context.Context, opts Options) *Store {
	s := &Store{
		defaults: opts.Defaults,
		foods:    opts.Foods,
		kv:       opts.KV,
		key:      opts.Key,
		logger:   opts.Logger,
	}
	if s.key == "" {
		s.key = DefaultStorageKey
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "mealplan")
	s.plan = s.restore(ctx)
	return s
}

// Empty returns a plan with one empty slot per default meal definition.
func Empty(d catalog.Defaults) Plan {
	p := Plan{
		Meals:           make(models.Meals, len(d.Meals)),
		SelectedDayType: d.DayType,
		FormatVersion:   d.Version,
	}
	for _, m := range d.Meals {
		p.Meals[m.ID] = []models.MealEntry{}
	}
	return p
}

func (s *Store) restore(ctx context.Context) Plan {
	if s.kv == nil {
		return Empty(s.defaults)
	}

	var sp storedPlan
	found, err := storage.LoadJSON(ctx, s.kv, s.key, &sp)
	switch {
	case errors.Is(err, storage.ErrDecode):
		s.logger.Info("meal plan snapshot unreadable, resetting to defaults", "error", err)
		s.discard(ctx)
		return Empty(s.defaults)
	case err != nil:
		s.logger.Warn("meal plan snapshot unavailable, using defaults", "key", s.key, "error", err)
		return Empty(s.defaults)
	case !found:
		return Empty(s.defaults)
	}

	stored := 0
	if sp.FormatVersion != nil {
		stored = *sp.FormatVersion
	}
	if stored != s.defaults.Version {
		s.logger.Info("meal plan format changed, resetting to defaults",
			"stored_version", stored, "expected_version", s.defaults.Version)
		s.discard(ctx)
		return Empty(s.defaults)
	}

	p := Empty(s.defaults)
	if sp.Meals != nil {
		p.Meals = make(models.Meals, len(sp.Meals))
		for id, entries := range sp.Meals {
			if !models.ValidSlotID(id) {
				continue
			}
			if entries == nil {
				entries = []models.MealEntry{}
			}
			p.Meals[id] = entries
		}
	}
	if sp.SelectedDayType != nil && *sp.SelectedDayType != "" {
		p.SelectedDayType = *sp.SelectedDayType
	}
	return p
}

// discard drops a stale snapshot so the next start does not trip over it.
func (s *Store) discard(ctx context.Context) {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		s.logger.Warn("failed to discard stale meal plan snapshot", "key", s.key, "error", err)
	}
}

// persist writes the current plan, logging failures. Caller holds s.mu.
func (s *Store) persist(ctx context.Context) {
	if s.kv == nil {
		return
	}
	// A cancelled request must not abort the write.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultWriteTimeout)
	defer cancel()

	if err := storage.SaveJSON(ctx, s.kv, s.key, s.plan); err != nil {
		s.logger.Warn("failed to persist meal plan", "key", s.key, "error", err)
	}
}

// AddEntryToMeal appends a new entry for foodID to the slot. A nil portion
// means the food's default portion.
func (s *Store) AddEntryToMeal(ctx context.Context, mealID models.MealID, foodID models.FoodID, portion *float64) (models.MealEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.plan.Meals[mealID]
	if !ok {
		return models.MealEntry{}, false
	}
	food, ok := s.foods.Food(foodID)
	if !ok {
		return models.MealEntry{}, false
	}

	entry := models.MealEntry{
		ID:      models.NewEntryID(),
		FoodID:  foodID,
		Portion: food.DefaultPortion,
	}
	if portion != nil {
		entry.Portion = *portion
	}

	s.plan.Meals[mealID] = append(entries, entry)
	s.persist(ctx)
	return entry, true
}

func (s *Store) RemoveEntryFromMeal(ctx context.Context, mealID models.MealID, entryID models.EntryID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.plan.Meals[mealID]
	idx := indexOf(entries, entryID)
	if idx < 0 {
		return false
	}

	s.plan.Meals[mealID] = append(entries[:idx:idx], entries[idx+1:]...)
	s.persist(ctx)
	return true
}

// MoveEntry relocates an entry to the end of another slot, keeping its id
// and portion.
func (s *Store) MoveEntry(ctx context.Context, from, to models.MealID, entryID models.EntryID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if from == to {
		return false
	}
	dst, ok := s.plan.Meals[to]
	if !ok {
		return false
	}
	src := s.plan.Meals[from]
	idx := indexOf(src, entryID)
	if idx < 0 {
		return false
	}

	entry := src[idx]
	s.plan.Meals[from] = append(src[:idx:idx], src[idx+1:]...)
	s.plan.Meals[to] = append(dst, entry)
	s.persist(ctx)
	return true
}

// SetEntryPortion stores portion as given; validation is the caller's job.
func (s *Store) SetEntryPortion(ctx context.Context, mealID models.MealID, entryID models.EntryID, portion float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.plan.Meals[mealID]
	idx := indexOf(entries, entryID)
	if idx < 0 {
		return false
	}

	entries[idx].Portion = portion
	s.persist(ctx)
	return true
}

// RemoveEntriesForFood deletes every entry referencing foodID and returns
// how many were removed.
func (s *Store) RemoveEntriesForFood(ctx context.Context, foodID models.FoodID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.removeWhere(func(e models.MealEntry) bool { return e.FoodID == foodID })
	if n > 0 {
		s.persist(ctx)
	}
	return n
}

// RemoveUnresolved deletes entries whose food no longer resolves, e.g. after
// the profile was reset to defaults.
func (s *Store) RemoveUnresolved(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.removeWhere(func(e models.MealEntry) bool {
		_, ok := s.foods.Food(e.FoodID)
		return !ok
	})
	if n > 0 {
		s.persist(ctx)
	}
	return n
}

func (s *Store) removeWhere(drop func(models.MealEntry) bool) int {
	removed := 0
	for id, entries := range s.plan.Meals {
		kept := make([]models.MealEntry, 0, len(entries))
		for _, e := range entries {
			if drop(e) {
				removed++
				continue
			}
			kept = append(kept, e)
		}
		s.plan.Meals[id] = kept
	}
	return removed
}

// ClearAllMeals empties every known slot.
func (s *Store) ClearAllMeals(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.plan.Meals {
		s.plan.Meals[id] = []models.MealEntry{}
	}
	s.persist(ctx)
}

// SetDayType selects the target band the day is measured against.
func (s *Store) SetDayType(ctx context.Context, id models.TargetID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.plan.SelectedDayType = id
	s.persist(ctx)
}

// EnsureSlots creates an empty list for every id without one. It reports
// whether anything changed.
func (s *Store) EnsureSlots(ctx context.Context, ids []models.MealID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, id := range ids {
		if _, ok := s.plan.Meals[id]; ok || !models.ValidSlotID(id) {
			continue
		}
		s.plan.Meals[id] = []models.MealEntry{}
		changed = true
	}
	if changed {
		s.persist(ctx)
	}
	return changed
}

// Reset replaces the plan by an empty default plan.
func (s *Store) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.plan = Empty(s.defaults)
	s.persist(ctx)
}

// Entry finds an entry in a slot.
func (s *Store) Entry(mealID models.MealID, entryID models.EntryID) (models.MealEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.plan.Meals[mealID]
	if idx := indexOf(entries, entryID); idx >= 0 {
		return entries[idx], true
	}
	return models.MealEntry{}, false
}

// Snapshot returns a deep copy of the plan.
func (s *Store) Snapshot() Plan {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.plan.Clone()
}

func indexOf(entries []models.MealEntry, id models.EntryID) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
