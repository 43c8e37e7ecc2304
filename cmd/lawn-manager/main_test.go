package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/lawn-manager/internal/rate"
	"github.com/i474232898/lawn-manager/internal/season"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRateText(t *testing.T) {
	out, err := run(t, "rate", "--chemical", "Fertilizer", "--type", "spreader", "--capacity", "50", "--unit", "pounds", "--area", "5000")
	require.NoError(t, err)
	assert.Contains(t, out, "Fertilizer for 5000 sq ft with a 50 pounds spreader (granular)")
	assert.Contains(t, out, "Total product: 20.00 lb for 5000 sq ft")
}

func TestRateJSON(t *testing.T) {
	out, err := run(t, "rate", "-c", "T-Nex", "--capacity", "1", "--area", "1000", "--json")
	require.NoError(t, err)

	var res rate.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.OK())
	assert.Equal(t, rate.Sprayer, res.EquipmentType)
}

func TestRateFailureExitsNonZero(t *testing.T) {
	out, err := run(t, "rate", "-c", "T-Nex", "--type", "spreader", "--capacity", "50", "--unit", "pounds", "--area", "1000")
	require.Error(t, err)
	assert.Equal(t, string(rate.ReasonNoApplicableRate), err.Error())
	assert.Contains(t, out, "Cannot calculate T-Nex")
}

func TestSeasonText(t *testing.T) {
	out, err := run(t, "season", "--grass", "Bermuda", "--date", "2025-07-10", "--temp", "75")
	require.NoError(t, err)
	assert.Contains(t, out, "Bermuda (warm-season) on 2025-07-10: Summer")
	assert.Contains(t, out, "Soil: ~72°F")
	assert.Contains(t, out, "Mow every 5 days")
}

func TestSeasonJSONWithHistory(t *testing.T) {
	out, err := run(t, "season", "-g", "Bermuda", "-d", "2025-03-10", "--applied", "Weed Preventer=2025-02-20", "--json")
	require.NoError(t, err)

	var report season.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, season.StageApplied, report.PreEmergent.Stage)
}

func TestSeasonRejectsBadDate(t *testing.T) {
	_, err := run(t, "season", "--grass", "Bermuda", "--date", "July 4")
	assert.Error(t, err)
}

func TestListCommands(t *testing.T) {
	out, err := run(t, "chemicals")
	require.NoError(t, err)
	assert.Contains(t, out, "Grub Killer")

	out, err = run(t, "grasses")
	require.NoError(t, err)
	assert.Contains(t, out, "Kentucky Bluegrass")
	assert.Contains(t, out, "Cool-season")
}

func TestRateRejectsNonFiniteCapacity(t *testing.T) {
	for _, capacity := range []string{"NaN", "+Inf"} {
		_, err := run(t, "rate", "-c", "T-Nex", "--capacity", capacity, "--area", "1000", "--json")
		assert.ErrorIs(t, err, rate.ErrInvalidCapacity, capacity)
	}
}

func writeTables(t *testing.T, chemical string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tables.yaml")
	data := []byte(`
chemicals:
  - name: ` + chemical + `
    interval_days: 14
    granular: { amount: 2, unit: lb }
grasses:
  - { name: Bermuda, season: warm, peak_months: [6, 7], dormant_months: [1] }
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestReferenceFileFromEnvironment(t *testing.T) {
	t.Setenv("REFERENCE_FILE", writeTables(t, "Env Mix"))

	out, err := run(t, "chemicals")
	require.NoError(t, err)
	assert.Contains(t, out, "Env Mix")
	assert.NotContains(t, out, "Grub Killer")

	out, err = run(t, "rate", "-c", "Env Mix", "--type", "spreader", "--capacity", "10", "--unit", "pounds", "--area", "1000")
	require.NoError(t, err)
	assert.Contains(t, out, "Total product: 2.00 lb")
}

func TestReferenceFlagBeatsEnvironment(t *testing.T) {
	t.Setenv("REFERENCE_FILE", writeTables(t, "Env Mix"))

	out, err := run(t, "--reference", writeTables(t, "Flag Mix"), "chemicals")
	require.NoError(t, err)
	assert.Contains(t, out, "Flag Mix")
	assert.NotContains(t, out, "Env Mix")
}
