package planner

import (
	"github.com/fdg312/diet-planner/internal/mealplan"
	"github.com/fdg312/diet-planner/internal/models"
	"github.com/fdg312/diet-planner/internal/nutrition"
	"github.com/fdg312/diet-planner/internal/profile"
)

// View is a consistent read-only snapshot of the planner with every derived
// value the clients and the exporters need.
type View struct {
	Profile         profile.Profile                    `json:"profile"`
	Plan            mealplan.Plan                      `json:"plan"`
	MealDefinitions []models.MealDefinition            `json:"meal_definitions"`
	Targets         []models.Target                    `json:"targets"`
	Totals          nutrition.Totals                   `json:"totals"`
	MealTotals      map[models.MealID]nutrition.Totals `json:"meal_totals"`
	Target          *models.Target                     `json:"target"`
	StillNeed       float64                            `json:"still_need"`
	ProteinPerKg    *float64                           `json:"protein_per_kg"`
	ProteinInRange  bool                               `json:"protein_in_range"`
}

// Snapshot returns the current View.
func (p *Planner) Snapshot() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return buildView(p.profile.Snapshot(), p.plan.Snapshot())
}

func buildView(prof profile.Profile, plan mealplan.Plan) View {
	defs := profile.SortedMeals(prof)
	v := View{
		Profile:         prof,
		Plan:            plan,
		MealDefinitions: defs,
		Targets:         profile.SortedTargets(prof),
		Totals:          nutrition.ComputeTotals(prof.Foods, plan.Meals),
		MealTotals:      nutrition.ComputeMealTotals(prof.Foods, plan.Meals, defs),
	}

	if t, ok := prof.Targets[plan.SelectedDayType]; ok {
		v.Target = &t
		v.StillNeed = nutrition.StillNeed(v.Totals.Kcal, t)
	}
	if ratio, ok := nutrition.ProteinPerKg(v.Totals.Protein, prof.WeightKg); ok {
		v.ProteinPerKg = &ratio
		v.ProteinInRange = nutrition.ProteinInRange(ratio)
	}
	return v
}

// EnabledMeals returns the enabled slots in display order.
func (v View) EnabledMeals() []models.MealDefinition {
	out := make([]models.MealDefinition, 0, len(v.MealDefinitions))
	for _, d := range v.MealDefinitions {
		if d.Enabled {
			out = append(out, d)
		}
	}
	return out
}
