// Package nutrition computes calorie and protein totals from a food catalog
// and a meal plan. All arithmetic is floating point; rounding is left to the
// presentation layer.
package nutrition

import "github.com/fdg312/diet-planner/internal/models"

// Protein-per-kg band considered healthy.
const (
	MinProteinPerKg = 0.8
	MaxProteinPerKg = 2.2
)

// Totals is a kcal/protein pair.
type Totals struct {
	Kcal    float64 `json:"kcal"`
	Protein float64 `json:"protein"`
}

func (t Totals) Add(o Totals) Totals {
	return Totals{Kcal: t.Kcal + o.Kcal, Protein: t.Protein + o.Protein}
}

// EntryTotals is the contribution of portion units of food.
func EntryTotals(food models.FoodItem, portion float64) Totals {
	return Totals{
		Kcal:    portion * food.KcalPerUnit,
		Protein: portion * food.ProteinPerUnit,
	}
}

// ComputeTotals sums every entry of every slot. Entries whose food is not in
// foods are skipped.
func ComputeTotals(foods map[models.FoodID]models.FoodItem, meals models.Meals) Totals {
	var total Totals
	for _, entries := range meals {
		total = total.Add(sumEntries(foods, entries))
	}
	return total
}

// ComputeMealTotals reports totals per slot for every definition in defs.
// Slots without entries report zeros.
func ComputeMealTotals(foods map[models.FoodID]models.FoodItem, meals models.Meals, defs []models.MealDefinition) map[models.MealID]Totals {
	out := make(map[models.MealID]Totals, len(defs))
	for _, d := range defs {
		out[d.ID] = sumEntries(foods, meals[d.ID])
	}
	return out
}

func sumEntries(foods map[models.FoodID]models.FoodItem, entries []models.MealEntry) Totals {
	var t Totals
	for _, e := range entries {
		food, ok := foods[e.FoodID]
		if !ok {
			continue
		}
		t = t.Add(EntryTotals(food, e.Portion))
	}
	return t
}

// StillNeed returns the kcal missing to reach target's band: positive under
// the band, negative (surplus) over it, zero within.
func StillNeed(kcal float64, target models.Target) float64 {
	switch {
	case kcal < target.MinKcal:
		return target.MinKcal - kcal
	case kcal > target.MaxKcal:
		return target.MaxKcal - kcal
	default:
		return 0
	}
}

// ProteinPerKg returns grams of protein per kg of body weight. ok is false
// when the weight is unknown.
func ProteinPerKg(protein, weightKg float64) (ratio float64, ok bool) {
	if weightKg <= 0 {
		return 0, false
	}
	return protein / weightKg, true
}

// ProteinInRange reports whether ratio lies in the healthy band.
func ProteinInRange(ratio float64) bool {
	return ratio >= MinProteinPerKg && ratio <= MaxProteinPerKg
}
