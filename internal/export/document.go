// Package export renders a planner snapshot into a printable PDF or a CSV
// sheet and optionally uploads the file to object storage.
package export

import (
	"sort"
	"strings"

	"github.com/fdg312/diet-planner/internal/models"
	"github.com/fdg312/diet-planner/internal/nutrition"
	"github.com/fdg312/diet-planner/internal/planner"
)

const documentTitle = "Diet Planner - Meal Export"

// Row is one placed food with its computed nutrition.
type Row struct {
	Name    string
	Portion float64
	Unit    models.Unit
	Kcal    float64
	Protein float64
}

// Section is one slot with its rows.
type Section struct {
	MealID models.MealID
	Title  string
	Rows   []Row
	Totals nutrition.Totals
}

// Document is the renderer-independent projection of a View.
type Document struct {
	Title        string
	UserName     string
	DayType      string
	Target       *models.Target
	Totals       nutrition.Totals
	StillNeed    *float64
	ProteinPerKg *float64
	Sections     []Section
}

// BuildDocument projects v into sections: every enabled slot in display
// order, then disabled or undefined slots that still hold entries, so the
// listed rows always add up to the day totals. Entries whose food no longer
// resolves are left out.
func BuildDocument(v planner.View) Document {
	doc := Document{
		Title:        documentTitle,
		UserName:     v.Profile.UserName,
		DayType:      string(v.Plan.SelectedDayType),
		Totals:       v.Totals,
		ProteinPerKg: v.ProteinPerKg,
	}
	if v.Target != nil {
		t := *v.Target
		doc.Target = &t
		doc.DayType = t.Name
		need := v.StillNeed
		doc.StillNeed = &need
	}

	listed := make(map[models.MealID]bool, len(v.Plan.Meals))
	for _, def := range v.EnabledMeals() {
		listed[def.ID] = true
		doc.Sections = append(doc.Sections, buildSection(v, def.ID, def.Name))
	}

	for _, def := range v.MealDefinitions {
		if listed[def.ID] {
			continue
		}
		listed[def.ID] = true
		if sec := buildSection(v, def.ID, def.Name); len(sec.Rows) > 0 {
			doc.Sections = append(doc.Sections, sec)
		}
	}

	orphans := make([]models.MealID, 0)
	for id := range v.Plan.Meals {
		if !listed[id] {
			orphans = append(orphans, id)
		}
	}
	sort.Slice(orphans, func(i, j int) bool { return orphans[i] < orphans[j] })
	for _, id := range orphans {
		if sec := buildSection(v, id, ""); len(sec.Rows) > 0 {
			doc.Sections = append(doc.Sections, sec)
		}
	}
	return doc
}

func buildSection(v planner.View, id models.MealID, name string) Section {
	title := strings.TrimSpace(name)
	if title == "" {
		title = string(id)
	}
	sec := Section{
		MealID: id,
		Title:  strings.ToUpper(title),
	}
	for _, e := range v.Plan.Meals[id] {
		food, ok := v.Profile.Foods[e.FoodID]
		if !ok {
			continue
		}
		t := nutrition.EntryTotals(food, e.Portion)
		sec.Rows = append(sec.Rows, Row{
			Name:    food.Name,
			Portion: e.Portion,
			Unit:    food.Unit,
			Kcal:    t.Kcal,
			Protein: t.Protein,
		})
		sec.Totals = sec.Totals.Add(t)
	}
	return sec
}
