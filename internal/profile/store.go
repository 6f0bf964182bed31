package profile

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
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
	Logger   *slog.Logger
}

// Store is the single source of truth for the user's catalog. Reference
// errors (unknown ids) are silent no-ops reported through the bool results.
type Store struct {
	mu       sync.RWMutex
	profile  Profile
	defaults catalog.Defaults

	kv     storage.KV
	key    string
	logger *slog.Logger
}

// Load restores the profile from opts.KV, falling back to defaults when the
// snapshot is absent, corrupt or written by another format version.
func Load(ctx context.Context, opts Options) *Store {
	s := &Store{
		defaults: opts.Defaults,
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
	s.logger = s.logger.With("component", "profile")
	s.profile = s.restore(ctx)
	return s
}

func (s *Store) restore(ctx context.Context) Profile {
	if s.kv == nil {
		return FromDefaults(s.defaults)
	}

	var sp storedProfile
	found, err := storage.LoadJSON(ctx, s.kv, s.key, &sp)
	switch {
	case errors.Is(err, storage.ErrDecode):
		s.logger.Info("profile snapshot unreadable, resetting to defaults", "error", err)
		s.discard(ctx)
		return FromDefaults(s.defaults)
	case err != nil:
		s.logger.Warn("profile snapshot unavailable, using defaults", "key", s.key, "error", err)
		return FromDefaults(s.defaults)
	case !found:
		return FromDefaults(s.defaults)
	}

	p, err := fromStored(sp, s.defaults)
	if err != nil {
		var vm errVersionMismatch
		if errors.As(err, &vm) {
			s.logger.Info("profile format changed, resetting to defaults",
				"stored_version", vm.stored, "expected_version", vm.expected)
		}
		s.discard(ctx)
		return FromDefaults(s.defaults)
	}
	return p
}

// discard drops a stale snapshot so the next start does not trip over it.
func (s *Store) discard(ctx context.Context) {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		s.logger.Warn("failed to discard stale profile snapshot", "key", s.key, "error", err)
	}
}

// persist writes the current profile. Failures are logged and ignored; the
// in-memory state stays authoritative. Caller holds s.mu.
func (s *Store) persist(ctx context.Context) {
	if s.kv == nil {
		return
	}
	// A cancelled request must not abort the write.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultWriteTimeout)
	defer cancel()

	if err := storage.SaveJSON(ctx, s.kv, s.key, s.profile); err != nil {
		s.logger.Warn("failed to persist profile", "key", s.key, "error", err)
	}
}

// AddFood creates a food with a fresh id. It always succeeds.
func (s *Store) AddFood(ctx context.Context, draft models.FoodDraft) models.FoodItem {
	food := models.FoodItem{
		ID:             models.NewFoodID(),
		Name:           strings.TrimSpace(draft.Name),
		CategoryID:     draft.CategoryID,
		Unit:           models.ParseUnit(string(draft.Unit)),
		KcalPerUnit:    models.NonNegative(draft.KcalPerUnit),
		ProteinPerUnit: models.NonNegative(draft.ProteinPerUnit),
		DefaultPortion: models.ClampPortion(draft.DefaultPortion),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.profile.Foods[food.ID] = food
	s.profile.FoodOrder = append(s.profile.FoodOrder, food.ID)
	s.persist(ctx)
	return food
}

// UpdateFood merges patch into the food. Unknown ids are ignored.
func (s *Store) UpdateFood(ctx context.Context, id models.FoodID, patch models.FoodPatch) (models.FoodItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	food, ok := s.profile.Foods[id]
	if !ok {
		return models.FoodItem{}, false
	}
	if patch.Name != nil {
		if name := strings.TrimSpace(*patch.Name); name != "" {
			food.Name = name
		}
	}
	if patch.CategoryID != nil {
		food.CategoryID = *patch.CategoryID
	}
	if patch.Unit != nil {
		food.Unit = models.ParseUnit(string(*patch.Unit))
	}
	if patch.KcalPerUnit != nil {
		food.KcalPerUnit = models.NonNegative(*patch.KcalPerUnit)
	}
	if patch.ProteinPerUnit != nil {
		food.ProteinPerUnit = models.NonNegative(*patch.ProteinPerUnit)
	}
	if patch.DefaultPortion != nil {
		food.DefaultPortion = models.ClampPortion(*patch.DefaultPortion)
	}

	s.profile.Foods[id] = food
	s.persist(ctx)
	return food, true
}

// RemoveFood deletes the food. The meal plan cascade is the caller's job.
func (s *Store) RemoveFood(ctx context.Context, id models.FoodID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profile.Foods[id]; !ok {
		return false
	}
	delete(s.profile.Foods, id)
	order := s.profile.FoodOrder[:0]
	for _, fid := range s.profile.FoodOrder {
		if fid != id {
			order = append(order, fid)
		}
	}
	s.profile.FoodOrder = order
	s.persist(ctx)
	return true
}

func (s *Store) UpdateTarget(ctx context.Context, id models.TargetID, patch models.TargetPatch) (models.Target, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.profile.Targets[id]
	if !ok {
		return models.Target{}, false
	}
	if patch.Name != nil {
		if name := strings.TrimSpace(*patch.Name); name != "" {
			t.Name = name
		}
	}
	if patch.MinKcal != nil {
		t.MinKcal = models.NonNegative(*patch.MinKcal)
	}
	if patch.MaxKcal != nil {
		t.MaxKcal = models.NonNegative(*patch.MaxKcal)
	}

	s.profile.Targets[id] = t
	s.persist(ctx)
	return t, true
}

func (s *Store) UpdateMealDefinition(ctx context.Context, id models.MealID, patch models.MealPatch) (models.MealDefinition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.profile.Meals[id]
	if !ok {
		return models.MealDefinition{}, false
	}
	if patch.Name != nil {
		if name := strings.TrimSpace(*patch.Name); name != "" {
			m.Name = name
		}
	}
	if patch.Order != nil {
		m.Order = *patch.Order
	}
	if patch.Enabled != nil {
		m.Enabled = *patch.Enabled
	}

	s.profile.Meals[id] = m
	s.persist(ctx)
	return m, true
}

// AddMealDefinition registers a new slot. It reports false when the id is
// not a valid slot id or is already taken.
func (s *Store) AddMealDefinition(ctx context.Context, draft models.MealDraft) (models.MealDefinition, bool) {
	id := models.MealID(strings.TrimSpace(string(draft.ID)))
	if id == "" {
		id = models.NewMealID()
	}
	if !models.ValidSlotID(id) {
		return models.MealDefinition{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.profile.Meals[id]; exists {
		return models.MealDefinition{}, false
	}

	m := models.MealDefinition{
		ID:      id,
		Name:    strings.TrimSpace(draft.Name),
		Order:   s.nextMealOrder(),
		Enabled: draft.Enabled == nil || *draft.Enabled,
	}
	if m.Name == "" {
		m.Name = string(id)
	}
	if draft.Order != nil {
		m.Order = *draft.Order
	}

	s.profile.Meals[id] = m
	s.persist(ctx)
	return m, true
}

func (s *Store) nextMealOrder() int {
	next := 0
	for _, m := range s.profile.Meals {
		if m.Order >= next {
			next = m.Order + 1
		}
	}
	return next
}

// AddCategory creates a category. Categories are never hard-deleted; disable
// them instead.
func (s *Store) AddCategory(ctx context.Context, draft models.CategoryDraft) models.FoodCategory {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := models.FoodCategory{
		ID:      models.NewCategoryID(),
		Name:    strings.TrimSpace(draft.Name),
		Enabled: draft.Enabled == nil || *draft.Enabled,
	}
	if draft.Order != nil {
		c.Order = *draft.Order
	} else {
		for _, existing := range s.profile.Categories {
			if existing.Order >= c.Order {
				c.Order = existing.Order + 1
			}
		}
	}

	s.profile.Categories[c.ID] = c
	s.profile.CategoryOrder = append(s.profile.CategoryOrder, c.ID)
	s.persist(ctx)
	return c
}

func (s *Store) UpdateCategory(ctx context.Context, id models.CategoryID, patch models.CategoryPatch) (models.FoodCategory, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.profile.Categories[id]
	if !ok {
		return models.FoodCategory{}, false
	}
	if patch.Name != nil {
		if name := strings.TrimSpace(*patch.Name); name != "" {
			c.Name = name
		}
	}
	if patch.Order != nil {
		c.Order = *patch.Order
	}
	if patch.Enabled != nil {
		c.Enabled = *patch.Enabled
	}

	s.profile.Categories[id] = c
	s.persist(ctx)
	return c, true
}

// UpdateIdentity sets the user name and/or body weight.
func (s *Store) UpdateIdentity(ctx context.Context, patch models.IdentityPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.UserName != nil {
		s.profile.UserName = strings.TrimSpace(*patch.UserName)
	}
	if patch.WeightKg != nil {
		s.profile.WeightKg = models.NonNegative(*patch.WeightKg)
	}
	s.persist(ctx)
}

// Reset replaces the whole profile by the defaults.
func (s *Store) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profile = FromDefaults(s.defaults)
	s.persist(ctx)
}

// Food resolves a food id. Store satisfies mealplan.FoodResolver.
func (s *Store) Food(id models.FoodID) (models.FoodItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.profile.Foods[id]
	return f, ok
}

// Target resolves a target id.
func (s *Store) Target(id models.TargetID) (models.Target, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.profile.Targets[id]
	return t, ok
}

// HasMeal reports whether id is a defined slot.
func (s *Store) HasMeal(id models.MealID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.profile.Meals[id]
	return ok
}

// Snapshot returns a deep copy of the profile.
func (s *Store) Snapshot() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.Clone()
}

// Targets returns all targets sorted by name.
func (s *Store) Targets() []models.Target {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SortedTargets(s.profile)
}

// MealDefinitions returns all slots ordered by display order.
func (s *Store) MealDefinitions() []models.MealDefinition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SortedMeals(s.profile)
}

// VisibleCategories returns the enabled categories in display order.
func (s *Store) VisibleCategories() []models.FoodCategory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return VisibleCategories(s.profile)
}

// FoodsByCategory groups foods for the library view.
func (s *Store) FoodsByCategory() []CategoryGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FoodsByCategory(s.profile)
}

// SortedTargets returns p's targets sorted by name, then id.
func SortedTargets(p Profile) []models.Target {
	out := make([]models.Target, 0, len(p.Targets))
	for _, t := range p.Targets {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SortedMeals returns p's slots by order, then id.
func SortedMeals(p Profile) []models.MealDefinition {
	out := make([]models.MealDefinition, 0, len(p.Meals))
	for _, m := range p.Meals {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// VisibleCategories returns the enabled categories of p by order, ties broken
// by insertion order.
func VisibleCategories(p Profile) []models.FoodCategory {
	pos := make(map[models.CategoryID]int, len(p.CategoryOrder))
	for i, id := range p.CategoryOrder {
		pos[id] = i
	}

	out := make([]models.FoodCategory, 0, len(p.Categories))
	for _, c := range p.Categories {
		if c.Enabled {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return pos[out[i].ID] < pos[out[j].ID]
	})
	return out
}

// FoodsByCategory groups p's foods under their visible category in display
// order. Foods of a disabled category are hidden; foods whose category is
// missing land in a trailing uncategorized group, omitted when empty.
func FoodsByCategory(p Profile) []CategoryGroup {
	cats := VisibleCategories(p)
	idx := make(map[models.CategoryID]int, len(cats))
	groups := make([]CategoryGroup, len(cats))
	for i := range cats {
		groups[i] = CategoryGroup{Category: &cats[i], Foods: []models.FoodItem{}}
		idx[cats[i].ID] = i
	}

	var uncategorized []models.FoodItem
	for _, id := range p.FoodOrder {
		f, ok := p.Foods[id]
		if !ok {
			continue
		}
		if i, ok := idx[f.CategoryID]; ok {
			groups[i].Foods = append(groups[i].Foods, f)
			continue
		}
		if _, exists := p.Categories[f.CategoryID]; !exists {
			uncategorized = append(uncategorized, f)
		}
	}
	if len(uncategorized) > 0 {
		groups = append(groups, CategoryGroup{Foods: uncategorized})
	}
	return groups
}
