package mealplan

import "github.com/fdg312/diet-planner/internal/models"

// DefaultStorageKey is the key the meal-plan snapshot is stored under.
const DefaultStorageKey = "diet-planner-v1"

// Plan is the placement of entries into meal slots plus the selected day type.
type Plan struct {
	Meals           models.Meals    `json:"meals"`
	SelectedDayType models.TargetID `json:"selected_day_type"`
	FormatVersion   int             `json:"format_version"`
}

// Clone returns a deep copy.
func (p Plan) Clone() Plan {
	p.Meals = p.Meals.Clone()
	return p
}

// FoodResolver looks up foods by id. The profile store satisfies it.
type FoodResolver interface {
	Food(id models.FoodID) (models.FoodItem, bool)
}

type storedPlan struct {
	Meals           models.Meals     `json:"meals"`
	SelectedDayType *models.TargetID `json:"selected_day_type"`
	FormatVersion   *int             `json:"format_version"`
}
