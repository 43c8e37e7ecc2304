package rate

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EquipmentType is the kind of applicator.
type EquipmentType string

const (
	Sprayer  EquipmentType = "sprayer"
	Spreader EquipmentType = "spreader"
)

// CapacityUnit is the unit an applicator's tank or hopper is rated in.
type CapacityUnit string

const (
	Gallons   CapacityUnit = "gallons"
	Liters    CapacityUnit = "liters"
	Pounds    CapacityUnit = "pounds"
	Kilograms CapacityUnit = "kilograms"
)

// IsVolume reports whether the unit measures liquid volume.
func (u CapacityUnit) IsVolume() bool { return u == Gallons || u == Liters }

// IsMass reports whether the unit measures mass.
func (u CapacityUnit) IsMass() bool { return u == Pounds || u == Kilograms }

// Conversion factors.
const (
	OzPerLb      = 16.0
	LitersPerGal = 3.785411784
	LbPerKg      = 2.20462262
	MlPerFlOz    = 29.5735295625

	flOzPerCup  = 8.0
	flOzPerTbsp = 0.5
	tspPerTbsp  = 3.0
)

// DefaultCarrierGalPer1000 is the water volume assumed when a product does
// not publish its own dilution rate.
const DefaultCarrierGalPer1000 = 1.0

func toGallons(capacity float64, unit CapacityUnit) float64 {
	if unit == Liters {
		return capacity / LitersPerGal
	}
	return capacity
}

func toPounds(capacity float64, unit CapacityUnit) float64 {
	if unit == Kilograms {
		return capacity * LbPerKg
	}
	return capacity
}

// KitchenMeasure expresses a liquid amount in household measures. It is a
// usability aid only; nothing downstream computes from it.
type KitchenMeasure struct {
	Cups        float64 `json:"cups,omitempty"`
	Tablespoons float64 `json:"tablespoons,omitempty"`
	Teaspoons   float64 `json:"teaspoons,omitempty"`
	Display     string  `json:"display"`
}

// Kitchen converts fluid ounces to cups, tablespoons or teaspoons. Amounts of
// a cup or more are whole cups plus unit fractions down to 1/8 cup; smaller
// amounts use tablespoons, and teaspoons only below one tablespoon.
func Kitchen(flOz float64) KitchenMeasure {
	if !positiveFinite(flOz) {
		return KitchenMeasure{Display: "0 tsp"}
	}
	cups := flOz / flOzPerCup
	if cups >= 1 {
		eighths := int(math.Round(cups * 8))
		return KitchenMeasure{Cups: cups, Display: formatCups(eighths)}
	}
	tbsp := flOz / flOzPerTbsp
	if tbsp >= 1 {
		return KitchenMeasure{Tablespoons: tbsp, Display: trimFloat(math.Round(tbsp*2)/2) + " tbsp"}
	}
	tsp := tbsp * tspPerTbsp
	rounded := math.Round(tsp*4) / 4
	if rounded == 0 {
		rounded = 0.25
	}
	return KitchenMeasure{Teaspoons: tsp, Display: trimFloat(rounded) + " tsp"}
}

// formatCups renders a whole number of eighths of a cup. Any remainder is
// spelled as a sum of unit fractions: 3/8 becomes "1/4 + 1/8".
func formatCups(eighths int) string {
	whole, rem := eighths/8, eighths%8
	unit := "cups"
	if whole == 1 && rem == 0 {
		unit = "cup"
	}
	if rem == 0 {
		return fmt.Sprintf("%d %s", whole, unit)
	}

	var parts []string
	for _, den := range []int{2, 4, 8} {
		if part := 8 / den; rem >= part {
			parts = append(parts, "1/"+strconv.Itoa(den))
			rem -= part
		}
	}
	return fmt.Sprintf("%d %s %s", whole, strings.Join(parts, " + "), unit)
}

func trimFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
