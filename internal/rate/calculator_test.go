package rate

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/lawn-manager/internal/reference"
)

func newTestCalculator(t *testing.T) *Calculator {
	t.Helper()
	return NewCalculator(reference.Default())
}

func TestSpreaderGrubKiller(t *testing.T) {
	calc := newTestCalculator(t)

	res, err := calc.Calculate("Grub Killer", Equipment{Type: Spreader, Capacity: 10, Unit: Pounds}, 5000)
	require.NoError(t, err)
	require.True(t, res.OK(), "unexpected failure: %+v", res.Failure)

	assert.InDelta(t, 15.0, res.TotalLb, 1e-9)
	assert.InDelta(t, 240.0, res.TotalOz, 1e-9)
	assert.InDelta(t, 1.5, res.LoadsNeeded, 1e-9)
	assert.Equal(t, ApplicationGranular, res.ApplicationType)
	assert.Contains(t, res.Instructions[len(res.Instructions)-1], "curative")
}

func TestSprayerWithWaterRate(t *testing.T) {
	calc := newTestCalculator(t)

	res, err := calc.Calculate("T-Nex", Equipment{Type: Sprayer, Capacity: 4, Unit: Gallons}, 2000)
	require.NoError(t, err)
	require.True(t, res.OK())

	assert.InDelta(t, 3.0, res.TotalWaterGal, 1e-9)
	assert.InDelta(t, 0.75, res.TanksNeeded, 1e-9)
	require.NotNil(t, res.ConcentrationOzPerGal)
	assert.InDelta(t, 0.25, *res.ConcentrationOzPerGal, 1e-9)
	assert.InDelta(t, 1.0, res.ProductPerTankOz, 1e-9)
	assert.InDelta(t, 0.75, res.TotalOz, 1e-9)
	require.NotNil(t, res.Kitchen)
	assert.Equal(t, "2 tbsp", res.Kitchen.Display)
	assert.False(t, res.Converted)
}

func TestSprayerTotalsScaleLinearly(t *testing.T) {
	calc := newTestCalculator(t)
	eq := Equipment{Type: Sprayer, Capacity: 2, Unit: Gallons}

	for _, chem := range reference.Default().Chemicals() {
		if chem.Liquid == nil {
			continue
		}
		base, err := calc.Calculate(chem.Name, eq, 1000)
		require.NoError(t, err)
		require.True(t, base.OK(), chem.Name)

		for _, area := range []int{250, 3000, 12750} {
			res, err := calc.Calculate(chem.Name, eq, area)
			require.NoError(t, err)
			factor := float64(area) / 1000
			assert.InDelta(t, base.TotalOz*factor, res.TotalOz, 1e-9, chem.Name)
			assert.InDelta(t, res.TotalOz/16.0, res.TotalLb, 1e-12, chem.Name)
		}
	}
}

func TestTanksNeededIsUnrounded(t *testing.T) {
	calc := newTestCalculator(t)

	res, err := calc.Calculate("Liquid Iron", Equipment{Type: Sprayer, Capacity: 4, Unit: Gallons}, 7300)
	require.NoError(t, err)
	assert.Equal(t, res.TotalWaterGal/4, res.TanksNeeded)
}

func TestSprayerConvertsGranularOnlyProduct(t *testing.T) {
	calc := newTestCalculator(t)

	res, err := calc.Calculate("Urea", Equipment{Type: Sprayer, Capacity: 1, Unit: Gallons}, 1000)
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.True(t, res.Converted)
	assert.Equal(t, ApplicationConverted, res.ApplicationType)
	assert.InDelta(t, 2.17*16, res.RatePer1000, 1e-9)
	assert.Nil(t, res.ConcentrationOzPerGal)
	assert.InDelta(t, DefaultCarrierGalPer1000, res.CarrierGalPer1000, 1e-9)
	// Uniform distribution over tanks when no dilution rate is published.
	assert.InDelta(t, res.TotalOz/res.TanksNeeded, res.ProductPerTankOz, 1e-9)
}

func TestSprayerLitersCapacity(t *testing.T) {
	calc := newTestCalculator(t)

	res, err := calc.Calculate("T-Nex", Equipment{Type: Sprayer, Capacity: LitersPerGal * 4, Unit: Liters}, 2000)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, res.TanksNeeded, 1e-9)
	assert.InDelta(t, 1.0, res.ProductPerTankOz, 1e-9)
}

func TestFailures(t *testing.T) {
	calc := newTestCalculator(t)

	tests := []struct {
		name     string
		chemical string
		eq       Equipment
		reason   Reason
	}{
		{"unknown chemical", "Snake Oil", Equipment{Type: Sprayer, Capacity: 1, Unit: Gallons}, ReasonChemicalNotFound},
		{"spreader liquid only", "T-Nex", Equipment{Type: Spreader, Capacity: 10, Unit: Pounds}, ReasonNoApplicableRate},
		{"spreader volume unit", "Grub Killer", Equipment{Type: Spreader, Capacity: 10, Unit: Gallons}, ReasonIncompatibleCapacityUnit},
		{"sprayer mass unit", "T-Nex", Equipment{Type: Sprayer, Capacity: 10, Unit: Pounds}, ReasonIncompatibleCapacityUnit},
		{"unsupported type", "Urea", Equipment{Type: "duster", Capacity: 1, Unit: Pounds}, ReasonUnsupportedEquipmentType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := calc.Calculate(tt.chemical, tt.eq, 1000)
			require.NoError(t, err)
			require.False(t, res.OK())
			assert.Equal(t, tt.reason, res.Failure.Reason)
			assert.NotEmpty(t, res.Failure.Message)
		})
	}
}

func TestGranularOnlyProductsWithVolumeSpreaderFail(t *testing.T) {
	calc := newTestCalculator(t)
	for _, chem := range reference.Default().Chemicals() {
		if chem.Granular == nil || chem.Liquid != nil {
			continue
		}
		res, err := calc.Calculate(chem.Name, Equipment{Type: Spreader, Capacity: 5, Unit: Liters}, 1000)
		require.NoError(t, err)
		require.NotNil(t, res.Failure, chem.Name)
		assert.Equal(t, ReasonIncompatibleCapacityUnit, res.Failure.Reason, chem.Name)

		res, err = calc.Calculate(chem.Name, Equipment{Type: Sprayer, Capacity: 5, Unit: Gallons}, 1000)
		require.NoError(t, err)
		assert.True(t, res.OK(), chem.Name)
		assert.Equal(t, ApplicationConverted, res.ApplicationType)
	}
}

func TestInvalidArguments(t *testing.T) {
	calc := newTestCalculator(t)

	_, err := calc.Calculate("Urea", Equipment{Type: Spreader, Capacity: 10, Unit: Pounds}, 0)
	assert.ErrorIs(t, err, ErrInvalidArea)

	for _, capacity := range []float64{0, -5, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err = calc.Calculate("Urea", Equipment{Type: Spreader, Capacity: capacity, Unit: Pounds}, 1000)
		assert.ErrorIs(t, err, ErrInvalidCapacity, "capacity %v", capacity)
	}

	_, err = calc.ApplicationAmount("Urea", math.NaN(), nil, 1000)
	assert.ErrorIs(t, err, ErrInvalidRate)
	inf := math.Inf(1)
	_, err = calc.ApplicationAmount("Urea", 1, &inf, 1000)
	assert.ErrorIs(t, err, ErrInvalidRate)
}

func TestCalculateIsIdempotent(t *testing.T) {
	calc := newTestCalculator(t)
	eq := Equipment{ID: "backpack", Type: Sprayer, Capacity: 4, Unit: Gallons}

	first, err := calc.Calculate("Disease Preventer", eq, 6400)
	require.NoError(t, err)
	second, err := calc.Calculate("Disease Preventer", eq, 6400)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestKitchen(t *testing.T) {
	tests := []struct {
		oz   float64
		want string
	}{
		{8, "1 cup"},
		{12, "1 1/2 cups"},
		{20, "2 1/2 cups"},
		{17, "2 1/8 cups"},
		{10, "1 1/4 cups"},
		{11, "1 1/4 + 1/8 cups"},
		{13, "1 1/2 + 1/8 cups"},
		{15, "1 1/2 + 1/4 + 1/8 cups"},
		{7.9, "16 tbsp"},
		{1, "2 tbsp"},
		{0.75, "1.5 tbsp"},
		{0.25, "1.5 tsp"},
		{0.01, "0.25 tsp"},
		{math.NaN(), "0 tsp"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Kitchen(tt.oz).Display, "oz=%v", tt.oz)
	}
}

func TestApplicationAmount(t *testing.T) {
	calc := newTestCalculator(t)

	got, err := calc.ApplicationAmount("Grub Killer", 1, nil, 5000)
	require.NoError(t, err)
	assert.True(t, got.Known)
	assert.InDelta(t, 3.0, got.LbPer1000, 1e-9)
	assert.InDelta(t, 48.0, got.OzPer1000, 1e-9)
	assert.InDelta(t, 15.0, got.TotalLb, 1e-9)

	got, err = calc.ApplicationAmount("Grub Killer", 0.5, nil, 1000)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, got.LbPer1000, 1e-9)

	override := 2.0
	got, err = calc.ApplicationAmount("Grub Killer", 3, &override, 1000)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, got.LbPer1000, 1e-9)

	got, err = calc.ApplicationAmount("Compost Tea", 1, nil, 2000)
	require.NoError(t, err)
	assert.False(t, got.Known)
	assert.InDelta(t, DefaultAppliedLbPer1000, got.LbPer1000, 1e-9)
	assert.InDelta(t, 16.0, got.OzPer1000, 1e-9)
	assert.InDelta(t, 2.0, got.TotalLb, 1e-9)
}
