package models

import (
	"strings"

	"github.com/google/uuid"
)

type (
	FoodID     string
	CategoryID string
	MealID     string
	TargetID   string
	EntryID    string
)

// NewFoodID returns a fresh opaque food id.
func NewFoodID() FoodID { return FoodID(newID("food")) }

// NewCategoryID returns a fresh opaque category id.
func NewCategoryID() CategoryID { return CategoryID(newID("cat")) }

// NewMealID returns a fresh opaque meal slot id. Slot ids never contain ':'
// because drag tags embed them as "meal:<slot>:<entry>".
func NewMealID() MealID { return MealID(newID("meal")) }


// NewEntryID returns a fresh opaque meal entry id.
func NewEntryID() EntryID { return EntryID(newID("entry")) }

func newID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ValidSlotID reports whether id can be used as a meal slot id.
func ValidSlotID(id MealID) bool {
	s := string(id)
	return strings.TrimSpace(s) != "" && !strings.Contains(s, ":")
}
