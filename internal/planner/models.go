package planner

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/fdg312/diet-planner/internal/models"
	"github.com/fdg312/diet-planner/internal/nutrition"
	"github.com/fdg312/diet-planner/internal/profile"
)

// MutationResponse wraps the result of every mutating endpoint. Applied is
// false when the request referenced an unknown id; State is returned either way.
type MutationResponse struct {
	Applied bool `json:"applied"`
	Result  any  `json:"result,omitempty"`
	State   View `json:"state"`
}

type LibraryResponse struct {
	Categories []models.FoodCategory   `json:"categories"`
	Groups     []profile.CategoryGroup `json:"groups"`
}

type TotalsResponse struct {
	Totals         nutrition.Totals                   `json:"totals"`
	MealTotals     map[models.MealID]nutrition.Totals `json:"meal_totals"`
	Target         *models.Target                     `json:"target"`
	StillNeed      float64                            `json:"still_need"`
	ProteinPerKg   *float64                           `json:"protein_per_kg"`
	ProteinInRange bool                               `json:"protein_in_range"`
}

// LenientNumber decodes a JSON number or numeric string. Anything else,
// including NaN and infinities, decodes to 0.
type LenientNumber float64

func (n *LenientNumber) UnmarshalJSON(data []byte) error {
	*n = 0
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		var s string
		if json.Unmarshal(data, &s) != nil {
			return nil
		}
		if f, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return nil
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	*n = LenientNumber(f)
	return nil
}

// AddFoodRequest is the POST /v1/foods body. Numeric fields never reject the
// request.
type AddFoodRequest struct {
	Name           string            `json:"name"`
	CategoryID     models.CategoryID `json:"category_id"`
	Unit           models.Unit       `json:"unit"`
	KcalPerUnit    LenientNumber     `json:"kcal_per_unit"`
	ProteinPerUnit LenientNumber     `json:"protein_per_unit"`
	DefaultPortion LenientNumber     `json:"default_portion"`
}

func (r AddFoodRequest) Draft() models.FoodDraft {
	return models.FoodDraft{
		Name:           r.Name,
		CategoryID:     r.CategoryID,
		Unit:           r.Unit,
		KcalPerUnit:    float64(r.KcalPerUnit),
		ProteinPerUnit: float64(r.ProteinPerUnit),
		DefaultPortion: float64(r.DefaultPortion),
	}
}

type AddEntryRequest struct {
	MealID  models.MealID `json:"meal_id"`
	FoodID  models.FoodID `json:"food_id"`
	Portion *float64      `json:"portion,omitempty"`
}

type UpdateEntryRequest struct {
	Portion *float64 `json:"portion"`
}

type MoveEntryRequest struct {
	From    models.MealID  `json:"from"`
	To      models.MealID  `json:"to"`
	EntryID models.EntryID `json:"entry_id"`
}

// DropRequest carries the two drag tags: the dragged source and the drop
// target under it.
type DropRequest struct {
	Active string `json:"active"`
	Over   string `json:"over"`
}

type DayTypeRequest struct {
	TargetID models.TargetID `json:"target_id"`
}
