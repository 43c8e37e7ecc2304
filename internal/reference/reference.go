// Package reference holds the static chemical and grass tables that the rate
// calculator and seasonal advisor read from. Tables are loaded once and are
// read-only afterwards, so they may be shared freely between goroutines.
package reference

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultTables []byte

var (
	// ErrInvalidReference is returned when a table fails validation.
	ErrInvalidReference = errors.New("invalid reference data")
	// ErrUnknownChemical is returned by lookups for names not in the table.
	ErrUnknownChemical = errors.New("chemical not found")
)

var validate = validator.New()

// Season classifies a grass by the climate it thrives in.
type Season string

const (
	SeasonWarm       Season = "warm"
	SeasonCool       Season = "cool"
	SeasonTransition Season = "transition"
)

// Rate is an amount of product per 1,000 sq ft.
type Rate struct {
	Amount float64 `yaml:"amount" json:"amount" validate:"gt=0"`
	Unit   string  `yaml:"unit" json:"unit" validate:"required,oneof=lb oz ml"`
}

// AlternateRate is a secondary rate for the same product, e.g. curative vs preventative.
type AlternateRate struct {
	Label string `yaml:"label" json:"label" validate:"required"`
	Rate  Rate   `yaml:"rate" json:"rate"`
}

// Chemical is one product in the chemical table.
type Chemical struct {
	Name            string         `yaml:"name" json:"name" validate:"required"`
	IntervalDays    int            `yaml:"interval_days" json:"intervalDays" validate:"gt=0"`
	Granular        *Rate          `yaml:"granular" json:"granular,omitempty" validate:"omitempty"`
	Liquid          *Rate          `yaml:"liquid" json:"liquid,omitempty" validate:"omitempty"`
	WaterGalPer1000 *float64       `yaml:"water_gal_per_1000" json:"waterGalPer1000,omitempty" validate:"omitempty,gt=0"`
	Alternate       *AlternateRate `yaml:"alternate" json:"alternate,omitempty" validate:"omitempty"`
	Notes           string         `yaml:"notes" json:"notes,omitempty"`
}

// Usable reports whether the calculator can do anything with this product.
func (c Chemical) Usable() bool {
	return c.Granular != nil || c.Liquid != nil
}

func (c Chemical) check() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: chemical %q: %v", ErrInvalidReference, c.Name, err)
	}
	if !c.Usable() {
		return fmt.Errorf("%w: chemical %q has neither a granular nor a liquid rate", ErrInvalidReference, c.Name)
	}
	if c.Granular != nil && c.Granular.Unit != "lb" {
		return fmt.Errorf("%w: chemical %q granular rate must be in lb, got %q", ErrInvalidReference, c.Name, c.Granular.Unit)
	}
	if c.Liquid != nil && c.Liquid.Unit == "lb" {
		return fmt.Errorf("%w: chemical %q liquid rate must be a volume unit", ErrInvalidReference, c.Name)
	}
	return nil
}

// Grass describes a grass species' growth calendar.
type Grass struct {
	Name          string `yaml:"name" json:"name" validate:"required"`
	Season        Season `yaml:"season" json:"season" validate:"required,oneof=warm cool transition"`
	PeakMonths    []int  `yaml:"peak_months" json:"peakMonths" validate:"required,dive,min=1,max=12"`
	DormantMonths []int  `yaml:"dormant_months" json:"dormantMonths" validate:"dive,min=1,max=12"`
}

// IsPeak reports whether month falls in the grass' peak growth window.
func (g Grass) IsPeak(month int) bool { return containsMonth(g.PeakMonths, month) }

// IsDormant reports whether month falls in the grass' dormant window.
func (g Grass) IsDormant(month int) bool { return containsMonth(g.DormantMonths, month) }

func containsMonth(months []int, month int) bool {
	for _, m := range months {
		if m == month {
			return true
		}
	}
	return false
}

// Tables is the loaded, validated pair of reference tables.
type Tables struct {
	chemicals     map[string]Chemical
	chemicalNames []string
	grasses       map[string]Grass
	grassNames    []string
}

type tableFile struct {
	Chemicals []Chemical `yaml:"chemicals"`
	Grasses   []Grass    `yaml:"grasses"`
}

// Default returns the embedded tables. The embedded data is validated by tests,
// so a failure here is a build defect.
func Default() *Tables {
	t, err := Parse(defaultTables)
	if err != nil {
		panic(fmt.Sprintf("reference: embedded tables: %v", err))
	}
	return t
}

// Load reads tables from a YAML file. An empty path yields the embedded defaults.
func Load(path string) (*Tables, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates YAML table data.
func Parse(raw []byte) (*Tables, error) {
	var f tableFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	return New(f.Chemicals, f.Grasses)
}

// New builds tables from in-memory records.
func New(chemicals []Chemical, grasses []Grass) (*Tables, error) {
	t := &Tables{
		chemicals: make(map[string]Chemical, len(chemicals)),
		grasses:   make(map[string]Grass, len(grasses)),
	}
	for _, c := range chemicals {
		if err := c.check(); err != nil {
			return nil, err
		}
		key := normalize(c.Name)
		if _, dup := t.chemicals[key]; dup {
			return nil, fmt.Errorf("%w: duplicate chemical %q", ErrInvalidReference, c.Name)
		}
		t.chemicals[key] = c
		t.chemicalNames = append(t.chemicalNames, c.Name)
	}
	for _, g := range grasses {
		if err := validate.Struct(g); err != nil {
			return nil, fmt.Errorf("%w: grass %q: %v", ErrInvalidReference, g.Name, err)
		}
		key := normalize(g.Name)
		if _, dup := t.grasses[key]; dup {
			return nil, fmt.Errorf("%w: duplicate grass %q", ErrInvalidReference, g.Name)
		}
		t.grasses[key] = g
		t.grassNames = append(t.grassNames, g.Name)
	}
	sort.Strings(t.chemicalNames)
	sort.Strings(t.grassNames)
	return t, nil
}

// Chemical looks up a product by name, case-insensitively.
func (t *Tables) Chemical(name string) (Chemical, bool) {
	c, ok := t.chemicals[normalize(name)]
	return c, ok
}

// Chemicals returns every product sorted by name.
func (t *Tables) Chemicals() []Chemical {
	out := make([]Chemical, 0, len(t.chemicalNames))
	for _, n := range t.chemicalNames {
		out = append(out, t.chemicals[normalize(n)])
	}
	return out
}

// Grasses returns every grass sorted by name.
func (t *Tables) Grasses() []Grass {
	out := make([]Grass, 0, len(t.grassNames))
	for _, n := range t.grassNames {
		out = append(out, t.grasses[normalize(n)])
	}
	return out
}

// HasGrass reports whether name resolves to a known or custom grass without
// falling back to the default.
func (t *Tables) HasGrass(name string) bool {
	if isCustom(name) {
		return true
	}
	_, ok := t.grasses[normalize(name)]
	return ok
}

// FallbackGrass is used when a grass name is not in the table.
const FallbackGrass = "Bermuda"

const customPrefix = "custom:"

// Grass resolves a grass by name. "Custom:<description>" names build a
// synthetic entry from the description; unknown names fall back to Bermuda.
func (t *Tables) Grass(name string) Grass {
	if isCustom(name) {
		return customGrass(name)
	}
	if g, ok := t.grasses[normalize(name)]; ok {
		return g
	}
	if g, ok := t.grasses[normalize(FallbackGrass)]; ok {
		return g
	}
	return Grass{Name: FallbackGrass, Season: SeasonWarm, PeakMonths: []int{5, 6, 7, 8, 9}, DormantMonths: []int{11, 12, 1, 2}}
}

func isCustom(name string) bool {
	return strings.HasPrefix(normalize(name), customPrefix)
}

func customGrass(name string) Grass {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "warm"):
		return Grass{Name: name, Season: SeasonWarm, PeakMonths: []int{5, 6, 7, 8, 9}, DormantMonths: []int{11, 12, 1, 2}}
	case strings.Contains(lower, "cool"):
		return Grass{Name: name, Season: SeasonCool, PeakMonths: []int{3, 4, 5, 9, 10, 11}, DormantMonths: []int{7, 8}}
	default:
		return Grass{Name: name, Season: SeasonTransition, PeakMonths: []int{4, 5, 6, 9, 10}, DormantMonths: []int{1, 2, 7, 8}}
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
