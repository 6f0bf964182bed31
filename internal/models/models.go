package models

import "strings"

// Unit is the semantic unit a food's per-unit nutrition refers to.
type Unit string

const (
	UnitGram  Unit = "g"
	UnitPiece Unit = "pc"
)

// ParseUnit normalises user input. "pcs" and "piece(s)" map to UnitPiece,
// anything unrecognised falls back to grams.
func ParseUnit(s string) Unit {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pc", "pcs", "piece", "pieces":
		return UnitPiece
	default:
		return UnitGram
	}
}

type FoodItem struct {
	ID             FoodID     `json:"id"`
	Name           string     `json:"name"`
	CategoryID     CategoryID `json:"category_id"`
	Unit           Unit       `json:"unit"`
	KcalPerUnit    float64    `json:"kcal_per_unit"`
	ProteinPerUnit float64    `json:"protein_per_unit"`
	DefaultPortion float64    `json:"default_portion"`
}

// FoodDraft is a FoodItem without its id, as produced by the food form.
type FoodDraft struct {
	Name           string     `json:"name"`
	CategoryID     CategoryID `json:"category_id"`
	Unit           Unit       `json:"unit"`
	KcalPerUnit    float64    `json:"kcal_per_unit"`
	ProteinPerUnit float64    `json:"protein_per_unit"`
	DefaultPortion float64    `json:"default_portion"`
}

// FoodPatch carries the fields to merge into an existing FoodItem. Nil fields
// are left untouched.
type FoodPatch struct {
	Name           *string     `json:"name,omitempty"`
	CategoryID     *CategoryID `json:"category_id,omitempty"`
	Unit           *Unit       `json:"unit,omitempty"`
	KcalPerUnit    *float64    `json:"kcal_per_unit,omitempty"`
	ProteinPerUnit *float64    `json:"protein_per_unit,omitempty"`
	DefaultPortion *float64    `json:"default_portion,omitempty"`
}

type FoodCategory struct {
	ID      CategoryID `json:"id"`
	Name    string     `json:"name"`
	Order   int        `json:"order"`
	Enabled bool       `json:"enabled"`
}

type CategoryPatch struct {
	Name    *string `json:"name,omitempty"`
	Order   *int    `json:"order,omitempty"`
	Enabled *bool   `json:"enabled,omitempty"`
}

// MealDefinition defines a slot (e.g. breakfast) that entries are placed into.
type MealDefinition struct {
	ID      MealID `json:"id"`
	Name    string `json:"name"`
	Order   int    `json:"order"`
	Enabled bool   `json:"enabled"`
}

type MealPatch struct {
	Name    *string `json:"name,omitempty"`
	Order   *int    `json:"order,omitempty"`
	Enabled *bool   `json:"enabled,omitempty"`
}

// MealEntry places a food with a chosen portion into exactly one slot.
type MealEntry struct {
	ID      EntryID `json:"entry_id"`
	FoodID  FoodID  `json:"food_id"`
	Portion float64 `json:"portion"`
}

// Target is the min/max kcal band of a day type.
type Target struct {
	ID      TargetID `json:"id"`
	Name    string   `json:"name"`
	MinKcal float64  `json:"min_kcal"`
	MaxKcal float64  `json:"max_kcal"`
}

type TargetPatch struct {
	Name    *string  `json:"name,omitempty"`
	MinKcal *float64 `json:"min_kcal,omitempty"`
	MaxKcal *float64 `json:"max_kcal,omitempty"`
}

// Meals maps a slot id to its ordered entries.
type Meals map[MealID][]MealEntry

// Clone returns a deep copy.
func (m Meals) Clone() Meals {
	out := make(Meals, len(m))
	for k, entries := range m {
		cp := make([]MealEntry, len(entries))
		copy(cp, entries)
		out[k] = cp
	}
	return out
}

// CategoryDraft is a new category as submitted by the client. A nil Order
// places the category last; a nil Enabled means enabled.
type CategoryDraft struct {
	Name    string `json:"name"`
	Order   *int   `json:"order,omitempty"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// MealDraft is a new meal slot. ID may be empty, in which case one is
// generated.
type MealDraft struct {
	ID      MealID `json:"id,omitempty"`
	Name    string `json:"name"`
	Order   *int   `json:"order,omitempty"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// IdentityPatch updates the user fields of a profile.
type IdentityPatch struct {
	UserName *string  `json:"user_name,omitempty"`
	WeightKg *float64 `json:"weight_kg,omitempty"`
}
