package planner

import (
	"context"
	"strings"

	"github.com/fdg312/diet-planner/internal/models"
)

// Drag tag prefixes. Sources are "lib:<foodId>" and "meal:<slotId>:<entryId>",
// targets are "drop:<slotId>".
const (
	libTagPrefix  = "lib:"
	mealTagPrefix = "meal:"
	dropTagPrefix = "drop:"
)

type DropKind string

const (
	DropAdd  DropKind = "add"
	DropMove DropKind = "move"
)

// DropAction is a parsed drag-and-drop gesture.
type DropAction struct {
	Kind    DropKind       `json:"kind"`
	FoodID  models.FoodID  `json:"food_id,omitempty"`
	From    models.MealID  `json:"from,omitempty"`
	EntryID models.EntryID `json:"entry_id,omitempty"`
	To      models.MealID  `json:"to"`
}

// LibraryTag, MealTag and DropTag build the tags ParseDrop understands.
func LibraryTag(id models.FoodID) string { return libTagPrefix + string(id) }

func MealTag(slot models.MealID, entry models.EntryID) string {
	return mealTagPrefix + string(slot) + ":" + string(entry)
}

func DropTag(slot models.MealID) string { return dropTagPrefix + string(slot) }

// ParseDrop decodes an (active, over) tag pair. It reports false for a
// missing or malformed target, an unknown source prefix or a malformed meal
// tag.
func ParseDrop(active, over string) (DropAction, bool) {
	to, ok := strings.CutPrefix(over, dropTagPrefix)
	if !ok || to == "" {
		return DropAction{}, false
	}

	if foodID, ok := strings.CutPrefix(active, libTagPrefix); ok {
		if foodID == "" {
			return DropAction{}, false
		}
		return DropAction{Kind: DropAdd, FoodID: models.FoodID(foodID), To: models.MealID(to)}, true
	}

	if rest, ok := strings.CutPrefix(active, mealTagPrefix); ok {
		from, entry, found := strings.Cut(rest, ":")
		if !found || from == "" || entry == "" {
			return DropAction{}, false
		}
		return DropAction{
			Kind:    DropMove,
			From:    models.MealID(from),
			EntryID: models.EntryID(entry),
			To:      models.MealID(to),
		}, true
	}

	return DropAction{}, false
}

// Drop reconciles a drag-and-drop gesture: a library food dropped on a slot
// adds an entry with its default portion, a placed entry dropped on another
// slot is moved. Anything else is a no-op.
func (p *Planner) Drop(ctx context.Context, active, over string) (DropAction, bool) {
	action, ok := ParseDrop(active, over)
	if !ok {
		return DropAction{}, false
	}

	switch action.Kind {
	case DropAdd:
		_, applied := p.AddEntryToMeal(ctx, action.To, action.FoodID, nil)
		return action, applied
	case DropMove:
		return action, p.MoveEntry(ctx, action.From, action.To, action.EntryID)
	}
	return action, false
}
