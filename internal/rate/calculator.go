// Package rate turns a chemical's published per-1,000-sq-ft rate into the
// quantities of product and water a specific zone and applicator need.
package rate

import (
	"errors"
	"fmt"
	"math"

	"github.com/i474232898/lawn-manager/internal/reference"
)

var (
	// ErrInvalidArea is a caller bug: areas must be positive.
	ErrInvalidArea = errors.New("area must be greater than zero")
	// ErrInvalidCapacity is a caller bug: capacities must be positive.
	ErrInvalidCapacity = errors.New("equipment capacity must be greater than zero")
	// ErrInvalidRate rejects multipliers and override rates that are not finite.
	ErrInvalidRate = errors.New("rate must be a finite number")
)

// positiveFinite reports whether v is a usable quantity. NaN fails every
// comparison, so it is caught by the first test.
func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

// Reason is a machine-readable failure code.
type Reason string

const (
	ReasonChemicalNotFound         Reason = "chemical_not_found"
	ReasonNoApplicableRate         Reason = "no_applicable_rate"
	ReasonIncompatibleCapacityUnit Reason = "incompatible_capacity_unit"
	ReasonUnsupportedEquipmentType Reason = "unsupported_equipment_type"
)

// Failure explains why a calculation could not be produced. It is a value,
// not a Go error, because callers show Message to users verbatim.
type Failure struct {
	Reason  Reason `json:"reason"`
	Message string `json:"message"`
}

// Equipment is the applicator a calculation targets.
type Equipment struct {
	ID       string        `json:"id,omitempty"`
	Name     string        `json:"name,omitempty"`
	Type     EquipmentType `json:"type"`
	Brand    string        `json:"brand,omitempty"`
	Capacity float64       `json:"capacity"`
	Unit     CapacityUnit  `json:"capacityUnit"`
}

// Application types reported in Result.ApplicationType.
const (
	ApplicationLiquid    = "liquid"
	ApplicationConverted = "liquid (converted)"
	ApplicationGranular  = "granular"
)

// Result is the outcome of one calculation. Numeric fields are unrounded;
// Instructions hold the rounded, human-readable rendering.
type Result struct {
	Chemical        string        `json:"chemical"`
	EquipmentID     string        `json:"equipmentId,omitempty"`
	EquipmentType   EquipmentType `json:"equipmentType"`
	Capacity        float64       `json:"capacity"`
	CapacityUnit    CapacityUnit  `json:"capacityUnit"`
	AreaSqFt        int           `json:"areaSqFt"`
	ApplicationType string        `json:"applicationType,omitempty"`
	Converted       bool          `json:"converted,omitempty"`

	RatePer1000 float64 `json:"ratePer1000,omitempty"`
	RateUnit    string  `json:"rateUnit,omitempty"`
	TotalOz     float64 `json:"totalChemicalNeededOz,omitempty"`
	TotalLb     float64 `json:"totalChemicalNeededLb,omitempty"`

	// Sprayer only.
	CarrierGalPer1000     float64         `json:"carrierGalPer1000,omitempty"`
	TotalWaterGal         float64         `json:"totalWaterGal,omitempty"`
	TanksNeeded           float64         `json:"tanksNeeded,omitempty"`
	ConcentrationOzPerGal *float64        `json:"concentrationOzPerGal,omitempty"`
	ProductPerTankOz      float64         `json:"productPerTankOz,omitempty"`
	Kitchen               *KitchenMeasure `json:"kitchen,omitempty"`

	// Spreader only.
	LoadsNeeded float64 `json:"loadsNeeded,omitempty"`

	Instructions []string `json:"instructions,omitempty"`
	Failure      *Failure `json:"error,omitempty"`
}

// OK reports whether the calculation succeeded.
func (r Result) OK() bool { return r.Failure == nil }

// Calculator computes application rates from a chemical table.
type Calculator struct {
	tables *reference.Tables
}

// NewCalculator returns a Calculator reading from tables.
func NewCalculator(tables *reference.Tables) *Calculator {
	return &Calculator{tables: tables}
}

// Calculate works out how much product and water an application of chemical
// over areaSqFt needs with eq. Data problems are reported in Result.Failure;
// the returned error is reserved for invalid arguments.
func (c *Calculator) Calculate(chemical string, eq Equipment, areaSqFt int) (Result, error) {
	if areaSqFt <= 0 {
		return Result{}, ErrInvalidArea
	}
	if !positiveFinite(eq.Capacity) {
		return Result{}, ErrInvalidCapacity
	}

	res := Result{
		Chemical:      chemical,
		EquipmentID:   eq.ID,
		EquipmentType: eq.Type,
		Capacity:      eq.Capacity,
		CapacityUnit:  eq.Unit,
		AreaSqFt:      areaSqFt,
	}

	chem, ok := c.tables.Chemical(chemical)
	if !ok {
		return fail(res, ReasonChemicalNotFound, fmt.Sprintf("Chemical %q is not in the chemical database", chemical)), nil
	}
	res.Chemical = chem.Name

	switch eq.Type {
	case Sprayer:
		return sprayer(res, chem, eq), nil
	case Spreader:
		return spreader(res, chem, eq), nil
	default:
		return fail(res, ReasonUnsupportedEquipmentType, fmt.Sprintf("Equipment type %q is not supported; use sprayer or spreader", eq.Type)), nil
	}
}

func sprayer(res Result, chem reference.Chemical, eq Equipment) Result {
	var ozPer1000 float64
	switch {
	case chem.Liquid != nil:
		ozPer1000 = liquidOz(*chem.Liquid)
		res.ApplicationType = ApplicationLiquid
	case chem.Granular != nil:
		ozPer1000 = chem.Granular.Amount * OzPerLb
		res.ApplicationType = ApplicationConverted
		res.Converted = true
	default:
		return fail(res, ReasonNoApplicableRate, fmt.Sprintf("%s has no liquid or granular rate", chem.Name))
	}
	if !eq.Unit.IsVolume() {
		return fail(res, ReasonIncompatibleCapacityUnit,
			fmt.Sprintf("Sprayer capacity must be in gallons or liters, got %q", eq.Unit))
	}

	area := float64(res.AreaSqFt)
	capGal := toGallons(eq.Capacity, eq.Unit)

	carrier := DefaultCarrierGalPer1000
	if chem.WaterGalPer1000 != nil {
		carrier = *chem.WaterGalPer1000
		conc := ozPer1000 / carrier
		res.ConcentrationOzPerGal = &conc
	}

	res.RatePer1000 = ozPer1000
	res.RateUnit = "oz"
	res.CarrierGalPer1000 = carrier
	res.TotalOz = ozPer1000 * area / 1000
	res.TotalLb = res.TotalOz / OzPerLb
	res.TotalWaterGal = carrier * area / 1000
	res.TanksNeeded = res.TotalWaterGal / capGal

	if res.ConcentrationOzPerGal != nil {
		res.ProductPerTankOz = *res.ConcentrationOzPerGal * capGal
	} else {
		res.ProductPerTankOz = res.TotalOz / res.TanksNeeded
	}
	k := Kitchen(res.ProductPerTankOz)
	res.Kitchen = &k

	res.Instructions = append(res.Instructions,
		fmt.Sprintf("Total product: %.2f oz (%.4f lb) for %d sq ft", res.TotalOz, res.TotalLb, res.AreaSqFt),
		fmt.Sprintf("Total water: %.2f gal (%.2f tanks of %s %s)", res.TotalWaterGal, res.TanksNeeded, trimFloat(eq.Capacity), eq.Unit),
	)
	if res.ConcentrationOzPerGal != nil {
		res.Instructions = append(res.Instructions,
			fmt.Sprintf("Mix %.2f oz per full tank (%.3f oz per gallon)", res.ProductPerTankOz, *res.ConcentrationOzPerGal))
	} else {
		res.Instructions = append(res.Instructions,
			fmt.Sprintf("Mix %.2f oz per full tank", res.ProductPerTankOz))
	}
	res.Instructions = append(res.Instructions, fmt.Sprintf("Kitchen measure per tank: %s", k.Display))
	if res.Converted {
		res.Instructions = append(res.Instructions,
			fmt.Sprintf("Converted from the granular rate of %s lb per 1,000 sq ft; check the label for a true liquid rate", trimFloat(chem.Granular.Amount)))
	}
	return withAlternate(res, chem)
}

func spreader(res Result, chem reference.Chemical, eq Equipment) Result {
	if chem.Granular == nil {
		return fail(res, ReasonNoApplicableRate,
			fmt.Sprintf("%s has no granular rate and cannot be applied with a spreader", chem.Name))
	}
	if !eq.Unit.IsMass() {
		return fail(res, ReasonIncompatibleCapacityUnit,
			fmt.Sprintf("Spreader capacity must be in pounds or kilograms, got %q", eq.Unit))
	}

	area := float64(res.AreaSqFt)
	capLb := toPounds(eq.Capacity, eq.Unit)

	res.ApplicationType = ApplicationGranular
	res.RatePer1000 = chem.Granular.Amount
	res.RateUnit = "lb"
	res.TotalLb = chem.Granular.Amount * area / 1000
	res.TotalOz = res.TotalLb * OzPerLb
	res.LoadsNeeded = res.TotalLb / capLb

	res.Instructions = append(res.Instructions,
		fmt.Sprintf("Total product: %.2f lb for %d sq ft", res.TotalLb, res.AreaSqFt),
		fmt.Sprintf("Loads needed: %.2f with a %s %s hopper", res.LoadsNeeded, trimFloat(eq.Capacity), eq.Unit),
	)
	return withAlternate(res, chem)
}

func withAlternate(res Result, chem reference.Chemical) Result {
	if chem.Alternate == nil {
		return res
	}
	res.Instructions = append(res.Instructions,
		fmt.Sprintf("Alternate %s rate: %s %s per 1,000 sq ft", chem.Alternate.Label, trimFloat(chem.Alternate.Rate.Amount), chem.Alternate.Rate.Unit))
	return res
}

func fail(res Result, reason Reason, msg string) Result {
	res.Failure = &Failure{Reason: reason, Message: msg}
	return res
}

func liquidOz(r reference.Rate) float64 {
	if r.Unit == "ml" {
		return r.Amount / MlPerFlOz
	}
	return r.Amount
}

// DefaultAppliedLbPer1000 is recorded for products missing from the table.
const DefaultAppliedLbPer1000 = 1.0

// Applied is the amount recorded against an application.
type Applied struct {
	LbPer1000 float64 `json:"lbPer1000"`
	OzPer1000 float64 `json:"ozPer1000"`
	TotalLb   float64 `json:"totalLb"`
	Known     bool    `json:"known"`
}

// ApplicationAmount computes what an application put down. The base rate is
// the granular rate, or the liquid rate read as ounces; multiplier scales it
// and overrideLb, when set, replaces it.
func (c *Calculator) ApplicationAmount(chemical string, multiplier float64, overrideLb *float64, areaSqFt int) (Applied, error) {
	if areaSqFt <= 0 {
		return Applied{}, ErrInvalidArea
	}
	if math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		return Applied{}, ErrInvalidRate
	}
	if multiplier <= 0 {
		multiplier = 1
	}
	if overrideLb != nil && (math.IsNaN(*overrideLb) || math.IsInf(*overrideLb, 0)) {
		return Applied{}, ErrInvalidRate
	}

	base := DefaultAppliedLbPer1000
	chem, known := c.tables.Chemical(chemical)
	if known {
		switch {
		case chem.Granular != nil:
			base = chem.Granular.Amount
		case chem.Liquid != nil:
			base = liquidOz(*chem.Liquid) / OzPerLb
		}
	}

	lb := base * multiplier
	if overrideLb != nil && *overrideLb > 0 {
		lb = *overrideLb
	}
	return Applied{
		LbPer1000: lb,
		OzPer1000: lb * OzPerLb,
		TotalLb:   lb * float64(areaSqFt) / 1000,
		Known:     known,
	}, nil
}
