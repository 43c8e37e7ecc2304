package reference

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTablesLoad(t *testing.T) {
	tables, err := Parse(defaultTables)
	require.NoError(t, err)

	grub, ok := tables.Chemical("grub killer")
	require.True(t, ok)
	require.NotNil(t, grub.Granular)
	assert.InDelta(t, 3.0, grub.Granular.Amount, 1e-9)
	assert.Equal(t, 120, grub.IntervalDays)
	require.NotNil(t, grub.Alternate)
	assert.Equal(t, "curative", grub.Alternate.Label)

	tnex, ok := tables.Chemical("T-Nex")
	require.True(t, ok)
	require.NotNil(t, tnex.Liquid)
	require.NotNil(t, tnex.WaterGalPer1000)
	assert.InDelta(t, 0.375, tnex.Liquid.Amount, 1e-9)
	assert.InDelta(t, 1.5, *tnex.WaterGalPer1000, 1e-9)

	for _, c := range tables.Chemicals() {
		assert.True(t, c.Usable(), c.Name)
	}
	assert.NotEmpty(t, tables.Grasses())
}

func TestChemicalsSortedByName(t *testing.T) {
	chems := Default().Chemicals()
	for i := 1; i < len(chems); i++ {
		assert.LessOrEqual(t, chems[i-1].Name, chems[i].Name)
	}
}

func TestNewRejectsProductWithoutRates(t *testing.T) {
	_, err := New([]Chemical{{Name: "Mystery", IntervalDays: 30}}, nil)
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestNewRejectsGranularInVolumeUnit(t *testing.T) {
	_, err := New([]Chemical{{Name: "Bad", IntervalDays: 30, Granular: &Rate{Amount: 1, Unit: "oz"}}}, nil)
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestNewRejectsDuplicates(t *testing.T) {
	c := Chemical{Name: "Urea", IntervalDays: 30, Granular: &Rate{Amount: 2, Unit: "lb"}}
	_, err := New([]Chemical{c, c}, nil)
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestNewRejectsBadMonths(t *testing.T) {
	_, err := New(nil, []Grass{{Name: "Odd", Season: SeasonWarm, PeakMonths: []int{13}}})
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestGrassResolution(t *testing.T) {
	tables := Default()

	tests := []struct {
		name   string
		input  string
		season Season
		peakJy bool
	}{
		{"exact", "Tall Fescue", SeasonCool, false},
		{"case insensitive", "bermuda", SeasonWarm, true},
		{"custom warm", "Custom: warm mix", SeasonWarm, true},
		{"custom cool", "Custom: Cool blend", SeasonCool, false},
		{"custom transition", "Custom: zoysia-fescue", SeasonTransition, false},
		{"unknown falls back", "Astroturf", SeasonWarm, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := tables.Grass(tt.input)
			assert.Equal(t, tt.season, g.Season)
			assert.Equal(t, tt.peakJy, g.IsPeak(7))
		})
	}

	assert.Equal(t, FallbackGrass, tables.Grass("Astroturf").Name)
	assert.False(t, tables.HasGrass("Astroturf"))
	assert.True(t, tables.HasGrass("Custom: anything"))
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tables.yaml")
	data := []byte(`
chemicals:
  - name: Custom Mix
    interval_days: 14
    liquid: { amount: 2.5, unit: oz }
grasses:
  - { name: Bermuda, season: warm, peak_months: [6, 7], dormant_months: [1] }
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	tables, err := Load(path)
	require.NoError(t, err)
	_, ok := tables.Chemical("Urea")
	assert.False(t, ok, "file replaces defaults")
	c, ok := tables.Chemical("custom mix")
	require.True(t, ok)
	assert.Equal(t, 14, c.IntervalDays)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	tables, err := Load("")
	require.NoError(t, err)
	_, ok := tables.Chemical("Urea")
	assert.True(t, ok)
}
