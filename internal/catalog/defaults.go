// Package catalog holds the built-in planner defaults: food categories, the
// starter food list, meal slots and the day-type targets.
package catalog

import (
	"regexp"
	"strings"

	"github.com/fdg312/diet-planner/internal/models"
)

// FormatVersion is the snapshot format/seed version the stores expect.
// Stored snapshots carrying any other version are discarded.
const FormatVersion = 1

const (
	DefaultUserID   = "local"
	DefaultUserName = "Me"
)

// Defaults is the complete seed a fresh profile and meal plan are built from.
type Defaults struct {
	Version    int
	UserID     string
	UserName   string
	WeightKg   float64
	Categories []models.FoodCategory
	Foods      []models.FoodItem
	Meals      []models.MealDefinition
	Targets    []models.Target
	DayType    models.TargetID
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and collapses every run of non-alphanumerics into "-".
func Slugify(s string) string {
	s = slugRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	return strings.Trim(s, "-")
}

func CategoryIDFor(name string) models.CategoryID { return models.CategoryID("cat:" + name) }

func FoodIDFor(name string) models.FoodID { return models.FoodID("food:" + Slugify(name)) }

func TargetIDFor(name string) models.TargetID { return models.TargetID("target:" + name) }

var defaultCategoryNames = []string{"Proteins", "Veggies", "Carbs", "Others"}

type foodSeed struct {
	name     string
	category string
	unit     models.Unit
	kcal     float64
	protein  float64
	portion  float64
}

var defaultFoodSeeds = []foodSeed{
	{"Beef A", "Proteins", models.UnitGram, 3.19, 0.26, 100},
	{"Chicken", "Proteins", models.UnitGram, 2.39, 0.27, 110},
	{"Shakes", "Proteins", models.UnitPiece, 265, 23, 1},
	{"Broccoli", "Veggies", models.UnitGram, 0.34, 0.028, 100},
	{"PakChoi", "Veggies", models.UnitGram, 0.13, 0.015, 100},
	{"Mixed", "Veggies", models.UnitGram, 0.25, 0.015, 100},
	{"Rice", "Carbs", models.UnitGram, 1.3, 0.028, 80},
	{"Dumplings", "Carbs", models.UnitGram, 1.9, 0.078, 40},
	{"Crackers", "Carbs", models.UnitPiece, 35, 0.7, 2},
	{"Babybel", "Others", models.UnitPiece, 70, 5, 1},
	{"Crisps", "Others", models.UnitPiece, 150, 2, 1},
	{"Bread Roll", "Carbs", models.UnitPiece, 128, 2.8, 1},
	{"Arla Yogurt", "Proteins", models.UnitPiece, 142, 25, 1},
}

var defaultMeals = []models.MealDefinition{
	{ID: "breakfast", Name: "Breakfast", Order: 0, Enabled: true},
	{ID: "lunch", Name: "Lunch", Order: 1, Enabled: true},
	{ID: "postworkout", Name: "Post-workout", Order: 2, Enabled: true},
	{ID: "dinner", Name: "Dinner", Order: 3, Enabled: true},
}

var defaultTargets = []struct {
	name     string
	min, max float64
}{
	{"FULL", 1500, 1600},
	{"HALF", 1400, 1500},
	{"REST", 1350, 1450},
}

// Builtin returns a fresh copy of the built-in defaults.
func Builtin() Defaults {
	cats := make([]models.FoodCategory, len(defaultCategoryNames))
	for i, name := range defaultCategoryNames {
		cats[i] = models.FoodCategory{ID: CategoryIDFor(name), Name: name, Order: i, Enabled: true}
	}

	foods := make([]models.FoodItem, len(defaultFoodSeeds))
	for i, f := range defaultFoodSeeds {
		foods[i] = models.FoodItem{
			ID:             FoodIDFor(f.name),
			Name:           f.name,
			CategoryID:     CategoryIDFor(f.category),
			Unit:           f.unit,
			KcalPerUnit:    f.kcal,
			ProteinPerUnit: f.protein,
			DefaultPortion: f.portion,
		}
	}

	meals := make([]models.MealDefinition, len(defaultMeals))
	copy(meals, defaultMeals)

	targets := make([]models.Target, len(defaultTargets))
	for i, t := range defaultTargets {
		targets[i] = models.Target{ID: TargetIDFor(t.name), Name: t.name, MinKcal: t.min, MaxKcal: t.max}
	}

	return Defaults{
		Version:    FormatVersion,
		UserID:     DefaultUserID,
		UserName:   DefaultUserName,
		Categories: cats,
		Foods:      foods,
		Meals:      meals,
		Targets:    targets,
		DayType:    targets[0].ID,
	}
}
