package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fdg312/diet-planner/internal/models"
)

// seedFile is the on-disk YAML layout of a catalog seed. Sections left out
// keep their built-in value.
type seedFile struct {
	Version int `yaml:"version"`
	User    *struct {
		ID       string  `yaml:"id"`
		Name     string  `yaml:"name"`
		WeightKg float64 `yaml:"weight_kg"`
	} `yaml:"user"`
	Categories []struct {
		Name    string `yaml:"name"`
		Enabled *bool  `yaml:"enabled"`
	} `yaml:"categories"`
	Foods []struct {
		Name           string  `yaml:"name"`
		Category       string  `yaml:"category"`
		Unit           string  `yaml:"unit"`
		KcalPerUnit    float64 `yaml:"kcal_per_unit"`
		ProteinPerUnit float64 `yaml:"protein_per_unit"`
		DefaultPortion float64 `yaml:"default_portion"`
	} `yaml:"foods"`
	Meals []struct {
		ID      string `yaml:"id"`
		Name    string `yaml:"name"`
		Enabled *bool  `yaml:"enabled"`
	} `yaml:"meals"`
	Targets []struct {
		Name    string  `yaml:"name"`
		MinKcal float64 `yaml:"min_kcal"`
		MaxKcal float64 `yaml:"max_kcal"`
	} `yaml:"targets"`
	DayType string `yaml:"day_type"`
}

// LoadSeed reads a YAML catalog seed from path and overlays it on Builtin().
// Bumping the seed's version invalidates every stored snapshot.
func LoadSeed(path string) (Defaults, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Defaults{}, fmt.Errorf("read catalog seed: %w", err)
	}
	return ParseSeed(raw)
}

// ParseSeed is LoadSeed without the file access.
func ParseSeed(raw []byte) (Defaults, error) {
	var sf seedFile
	if err := yaml.Unmarshal(raw, &sf); err != nil {
		return Defaults{}, fmt.Errorf("parse catalog seed: %w", err)
	}

	d := Builtin()
	if sf.Version < 0 {
		return Defaults{}, fmt.Errorf("catalog seed: version must be positive")
	}
	if sf.Version > 0 {
		d.Version = sf.Version
	}

	if sf.User != nil {
		if strings.TrimSpace(sf.User.ID) != "" {
			d.UserID = strings.TrimSpace(sf.User.ID)
		}
		d.UserName = strings.TrimSpace(sf.User.Name)
		if sf.User.WeightKg > 0 {
			d.WeightKg = sf.User.WeightKg
		}
	}

	if len(sf.Categories) > 0 {
		d.Categories = d.Categories[:0]
		for i, c := range sf.Categories {
			name := strings.TrimSpace(c.Name)
			if name == "" {
				return Defaults{}, fmt.Errorf("catalog seed: categories[%d]: name is required", i)
			}
			d.Categories = append(d.Categories, models.FoodCategory{
				ID:      CategoryIDFor(name),
				Name:    name,
				Order:   i,
				Enabled: c.Enabled == nil || *c.Enabled,
			})
		}
	}

	known := make(map[models.CategoryID]bool, len(d.Categories))
	for _, c := range d.Categories {
		known[c.ID] = true
	}

	if len(sf.Foods) > 0 {
		d.Foods = d.Foods[:0]
		seen := make(map[models.FoodID]bool, len(sf.Foods))
		for i, f := range sf.Foods {
			name := strings.TrimSpace(f.Name)
			if name == "" {
				return Defaults{}, fmt.Errorf("catalog seed: foods[%d]: name is required", i)
			}
			catID := CategoryIDFor(strings.TrimSpace(f.Category))
			if !known[catID] {
				return Defaults{}, fmt.Errorf("catalog seed: foods[%d]: unknown category %q", i, f.Category)
			}
			if f.KcalPerUnit < 0 || f.ProteinPerUnit < 0 {
				return Defaults{}, fmt.Errorf("catalog seed: foods[%d]: nutrition values must be >= 0", i)
			}
			id := FoodIDFor(name)
			if seen[id] {
				return Defaults{}, fmt.Errorf("catalog seed: foods[%d]: duplicate food %q", i, name)
			}
			seen[id] = true
			d.Foods = append(d.Foods, models.FoodItem{
				ID:             id,
				Name:           name,
				CategoryID:     catID,
				Unit:           models.ParseUnit(f.Unit),
				KcalPerUnit:    f.KcalPerUnit,
				ProteinPerUnit: f.ProteinPerUnit,
				DefaultPortion: f.DefaultPortion,
			})
		}
	} else if len(sf.Categories) > 0 {
		// Built-in foods only make sense with the built-in categories.
		kept := d.Foods[:0]
		for _, f := range d.Foods {
			if known[f.CategoryID] {
				kept = append(kept, f)
			}
		}
		d.Foods = kept
	}

	if len(sf.Meals) > 0 {
		d.Meals = d.Meals[:0]
		for i, m := range sf.Meals {
			id := models.MealID(strings.TrimSpace(m.ID))
			if !models.ValidSlotID(id) {
				return Defaults{}, fmt.Errorf("catalog seed: meals[%d]: invalid id %q", i, m.ID)
			}
			name := strings.TrimSpace(m.Name)
			if name == "" {
				name = string(id)
			}
			d.Meals = append(d.Meals, models.MealDefinition{
				ID:      id,
				Name:    name,
				Order:   i,
				Enabled: m.Enabled == nil || *m.Enabled,
			})
		}
	}

	if len(sf.Targets) > 0 {
		d.Targets = d.Targets[:0]
		for i, t := range sf.Targets {
			name := strings.TrimSpace(t.Name)
			if name == "" {
				return Defaults{}, fmt.Errorf("catalog seed: targets[%d]: name is required", i)
			}
			if t.MinKcal < 0 || t.MaxKcal < t.MinKcal {
				return Defaults{}, fmt.Errorf("catalog seed: targets[%d]: invalid kcal band", i)
			}
			d.Targets = append(d.Targets, models.Target{
				ID:      TargetIDFor(name),
				Name:    name,
				MinKcal: t.MinKcal,
				MaxKcal: t.MaxKcal,
			})
		}
		d.DayType = d.Targets[0].ID
	}

	if sf.DayType != "" {
		id := TargetIDFor(strings.TrimSpace(sf.DayType))
		found := false
		for _, t := range d.Targets {
			if t.ID == id {
				found = true
				break
			}
		}
		if !found {
			return Defaults{}, fmt.Errorf("catalog seed: unknown day_type %q", sf.DayType)
		}
		d.DayType = id
	}

	return d, nil
}
