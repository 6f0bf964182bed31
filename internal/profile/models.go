package profile

import (
	"github.com/fdg312/diet-planner/internal/catalog"
	"github.com/fdg312/diet-planner/internal/models"
)

// DefaultStorageKey is the key the profile snapshot is stored under.
const DefaultStorageKey = "diet_planner:userProfile:v1"

// Profile is the aggregate root of the user's customisable catalog.
type Profile struct {
	FormatVersion int                                       `json:"format_version"`
	UserID        string                                    `json:"user_id"`
	UserName      string                                    `json:"user_name"`
	WeightKg      float64                                   `json:"weight_kg"`
	Targets       map[models.TargetID]models.Target         `json:"targets"`
	Meals         map[models.MealID]models.MealDefinition   `json:"meals"`
	Categories    map[models.CategoryID]models.FoodCategory `json:"categories"`
	Foods         map[models.FoodID]models.FoodItem         `json:"foods"`
	FoodOrder     []models.FoodID                           `json:"food_order"`
	CategoryOrder []models.CategoryID                       `json:"category_order"`
}

// storedProfile mirrors Profile with every top-level field optional, so that
// fields absent from a stored payload keep their default value.
type storedProfile struct {
	FormatVersion *int                                      `json:"format_version"`
	UserID        *string                                   `json:"user_id"`
	UserName      *string                                   `json:"user_name"`
	WeightKg      *float64                                  `json:"weight_kg"`
	Targets       map[models.TargetID]models.Target         `json:"targets"`
	Meals         map[models.MealID]models.MealDefinition   `json:"meals"`
	Categories    map[models.CategoryID]models.FoodCategory `json:"categories"`
	Foods         map[models.FoodID]models.FoodItem         `json:"foods"`
	FoodOrder     []models.FoodID                           `json:"food_order"`
	CategoryOrder []models.CategoryID                       `json:"category_order"`
}

// CategoryGroup is one section of the food library. Category is nil for the
// uncategorized bucket.
type CategoryGroup struct {
	Category *models.FoodCategory `json:"category"`
	Foods    []models.FoodItem    `json:"foods"`
}

// FromDefaults builds a fresh profile from d.
func FromDefaults(d catalog.Defaults) Profile {
	p := Profile{
		FormatVersion: d.Version,
		UserID:        d.UserID,
		UserName:      d.UserName,
		WeightKg:      d.WeightKg,
		Targets:       make(map[models.TargetID]models.Target, len(d.Targets)),
		Categories:    make(map[models.CategoryID]models.FoodCategory, len(d.Categories)),
		Foods:         make(map[models.FoodID]models.FoodItem, len(d.Foods)),
	}
	for _, t := range d.Targets {
		p.Targets[t.ID] = t
	}
	p.setMeals(d)
	p.setCategories(d)
	p.setFoods(d)
	return p
}

func (p *Profile) setMeals(d catalog.Defaults) {
	p.Meals = make(map[models.MealID]models.MealDefinition, len(d.Meals))
	for _, m := range d.Meals {
		p.Meals[m.ID] = m
	}
}

func (p *Profile) setCategories(d catalog.Defaults) {
	p.Categories = make(map[models.CategoryID]models.FoodCategory, len(d.Categories))
	p.CategoryOrder = make([]models.CategoryID, 0, len(d.Categories))
	for _, c := range d.Categories {
		p.Categories[c.ID] = c
		p.CategoryOrder = append(p.CategoryOrder, c.ID)
	}
}

func (p *Profile) setFoods(d catalog.Defaults) {
	p.Foods = make(map[models.FoodID]models.FoodItem, len(d.Foods))
	p.FoodOrder = make([]models.FoodID, 0, len(d.Foods))
	for _, f := range d.Foods {
		p.Foods[f.ID] = f
		p.FoodOrder = append(p.FoodOrder, f.ID)
	}
}

// Clone returns a deep copy.
func (p Profile) Clone() Profile {
	out := p
	out.Targets = make(map[models.TargetID]models.Target, len(p.Targets))
	for k, v := range p.Targets {
		out.Targets[k] = v
	}
	out.Meals = make(map[models.MealID]models.MealDefinition, len(p.Meals))
	for k, v := range p.Meals {
		out.Meals[k] = v
	}
	out.Categories = make(map[models.CategoryID]models.FoodCategory, len(p.Categories))
	for k, v := range p.Categories {
		out.Categories[k] = v
	}
	out.Foods = make(map[models.FoodID]models.FoodItem, len(p.Foods))
	for k, v := range p.Foods {
		out.Foods[k] = v
	}
	out.FoodOrder = append([]models.FoodID(nil), p.FoodOrder...)
	out.CategoryOrder = append([]models.CategoryID(nil), p.CategoryOrder...)
	return out
}
