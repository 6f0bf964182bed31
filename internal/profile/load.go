package profile

import (
	"fmt"
	"sort"

	"github.com/fdg312/diet-planner/internal/catalog"
	"github.com/fdg312/diet-planner/internal/models"
)

// errVersionMismatch reports a stored snapshot written by another format version.
type errVersionMismatch struct {
	stored   int
	expected int
}

func (e errVersionMismatch) Error() string {
	return fmt.Sprintf("profile format version %d, expected %d", e.stored, e.expected)
}

// fromStored turns a stored payload into a profile. Any error means the
// caller must fall back to defaults as a whole.
func fromStored(sp storedProfile, d catalog.Defaults) (Profile, error) {
	stored := 0
	if sp.FormatVersion != nil {
		stored = *sp.FormatVersion
	}
	if stored != d.Version {
		return Profile{}, errVersionMismatch{stored: stored, expected: d.Version}
	}

	p := merge(sp, d)
	normalize(&p)
	if len(p.Meals) == 0 {
		p.setMeals(d)
	}
	return p, nil
}

// merge overlays the stored top-level fields on defaults. Empty collections
// count as absent.
func merge(sp storedProfile, d catalog.Defaults) Profile {
	p := FromDefaults(d)

	if sp.UserID != nil && *sp.UserID != "" {
		p.UserID = *sp.UserID
	}
	if sp.UserName != nil {
		p.UserName = *sp.UserName
	}
	if sp.WeightKg != nil {
		p.WeightKg = models.NonNegative(*sp.WeightKg)
	}
	if len(sp.Targets) > 0 {
		p.Targets = sp.Targets
	}
	if len(sp.Meals) > 0 {
		p.Meals = sp.Meals
	}
	if len(sp.Categories) > 0 {
		p.Categories = sp.Categories
		p.CategoryOrder = sp.CategoryOrder
	}
	if len(sp.Foods) > 0 {
		p.Foods = sp.Foods
		p.FoodOrder = sp.FoodOrder
	}

	if !hasCategorizedFood(p) {
		p.setCategories(d)
		p.setFoods(d)
	}
	return p
}

// hasCategorizedFood reports whether at least one food points at an existing
// category. A catalog where none does is treated as broken.
func hasCategorizedFood(p Profile) bool {
	if len(p.Foods) == 0 {
		return true
	}
	for _, f := range p.Foods {
		if _, ok := p.Categories[f.CategoryID]; ok {
			return true
		}
	}
	return false
}

// normalize repairs keys, ids, numeric ranges and the insertion-order lists
// of a merged profile.
func normalize(p *Profile) {
	for id, f := range p.Foods {
		f.ID = id
		f.Unit = models.ParseUnit(string(f.Unit))
		f.KcalPerUnit = models.NonNegative(f.KcalPerUnit)
		f.ProteinPerUnit = models.NonNegative(f.ProteinPerUnit)
		f.DefaultPortion = models.ClampPortion(f.DefaultPortion)
		p.Foods[id] = f
	}
	for id, c := range p.Categories {
		c.ID = id
		p.Categories[id] = c
	}
	for id, t := range p.Targets {
		t.ID = id
		t.MinKcal = models.NonNegative(t.MinKcal)
		t.MaxKcal = models.NonNegative(t.MaxKcal)
		p.Targets[id] = t
	}
	for id, m := range p.Meals {
		if !models.ValidSlotID(id) {
			delete(p.Meals, id)
			continue
		}
		m.ID = id
		p.Meals[id] = m
	}

	p.FoodOrder = reconcileOrder(p.FoodOrder, p.Foods)
	p.CategoryOrder = reconcileOrder(p.CategoryOrder, p.Categories)
}

// reconcileOrder drops unknown and duplicate ids from order and appends the
// keys of m it does not mention, sorted for determinism.
func reconcileOrder[K ~string, V any](order []K, m map[K]V) []K {
	out := make([]K, 0, len(m))
	seen := make(map[K]bool, len(m))
	for _, id := range order {
		if _, ok := m[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	var missing []K
	for id := range m {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return append(out, missing...)
}
