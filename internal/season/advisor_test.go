package season

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/lawn-manager/internal/reference"
)

func newTestAdvisor() *Advisor {
	return NewAdvisor(reference.Default(), nil)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 30, 0, 0, time.UTC)
}

func ptr(v float64) *float64 { return &v }

func findRec(recs []ChemicalRecommendation, name string) (ChemicalRecommendation, bool) {
	for _, r := range recs {
		if r.Chemical == name {
			return r, true
		}
	}
	return ChemicalRecommendation{}, false
}

func TestFromMonth(t *testing.T) {
	want := map[int]Season{
		1: Winter, 2: Winter, 3: Spring, 4: Spring, 5: Spring, 6: Summer,
		7: Summer, 8: Summer, 9: Fall, 10: Fall, 11: Fall, 12: Winter,
	}
	for m, s := range want {
		assert.Equal(t, s, FromMonth(m), "month %d", m)
	}
}

func TestWarmGrassInJulyWithoutWeather(t *testing.T) {
	r := newTestAdvisor().Summarize(Input{GrassType: "Bermuda", AsOf: day(2025, time.July, 15)})

	assert.Equal(t, Summer, r.Season)
	assert.True(t, r.GrowingSeason)
	assert.False(t, r.DormantSeason)
	assert.Equal(t, 5, r.MowFrequency.FrequencyDays)
	assert.False(t, r.WeatherAvailable)
	assert.Nil(t, r.SoilTemperature)
	assert.Empty(t, r.TemperatureWarnings)
	assert.Equal(t, "2025-07-15", r.AsOf)
}

func TestWarmSoilEscalatesMowFrequency(t *testing.T) {
	a := newTestAdvisor()

	hot := a.Summarize(Input{GrassType: "Bermuda", AsOf: day(2025, time.July, 15), Weather: &Conditions{TemperatureF: 88}})
	require.NotNil(t, hot.SoilTemperature)
	assert.InDelta(t, 85.0, hot.SoilTemperature.TemperatureF, 1e-9)
	assert.Equal(t, SoilEstimateMethod, hot.SoilTemperature.Method)
	assert.Equal(t, 4, hot.MowFrequency.FrequencyDays)

	mild := a.Summarize(Input{GrassType: "Bermuda", AsOf: day(2025, time.July, 15), Weather: &Conditions{TemperatureF: 82}})
	assert.Equal(t, 5, mild.MowFrequency.FrequencyDays)
}

func TestDormantAndModerateMowing(t *testing.T) {
	a := newTestAdvisor()

	dormant := a.Summarize(Input{GrassType: "Bermuda", AsOf: day(2025, time.January, 10)})
	assert.Equal(t, 21, dormant.MowFrequency.FrequencyDays)
	assert.False(t, dormant.MowFrequency.Active)

	moderate := a.Summarize(Input{GrassType: "Bermuda", AsOf: day(2025, time.April, 10)})
	assert.Equal(t, 7, moderate.MowFrequency.FrequencyDays)

	coolSummer := a.Summarize(Input{GrassType: "Tall Fescue", AsOf: day(2025, time.August, 1)})
	assert.True(t, coolSummer.DormantSeason)
	assert.Equal(t, 21, coolSummer.MowFrequency.FrequencyDays)
}

func TestSoilOffsets(t *testing.T) {
	a := newTestAdvisor()
	tests := []struct {
		month time.Month
		want  float64
	}{
		{time.April, 62},
		{time.July, 67},
		{time.October, 75},
		{time.January, 65},
	}
	for _, tt := range tests {
		r := a.Summarize(Input{GrassType: "Zoysia", AsOf: day(2025, tt.month, 1), Weather: &Conditions{TemperatureF: 70}})
		require.NotNil(t, r.SoilTemperature)
		assert.InDelta(t, tt.want, r.SoilTemperature.TemperatureF, 1e-9, tt.month.String())
	}
}

func TestRecentWeedPreventerSuppressesPreEmergent(t *testing.T) {
	a := newTestAdvisor()

	for m := time.January; m <= time.December; m++ {
		asOf := day(2025, m, 20)
		history := map[string]LastApplied{
			"Weed Preventer": {Date: asOf.AddDate(0, 0, -10).Format("2006-01-02")},
		}
		for _, grass := range []string{"Bermuda", "Kentucky Bluegrass"} {
			r := a.Summarize(Input{GrassType: grass, AsOf: asOf, History: history})
			assert.False(t, r.PreEmergent.Needed, "%s %s", grass, m)
			assert.Equal(t, StageApplied, r.PreEmergent.Stage)
			_, found := findRec(r.ChemicalRecommendations, "Pre-emergent")
			assert.False(t, found)
		}
	}
}

func TestPreEmergentEscalation(t *testing.T) {
	a := newTestAdvisor()

	early := a.Summarize(Input{GrassType: "Bermuda", AsOf: day(2025, time.February, 1)})
	assert.Equal(t, StageApproaching, early.PreEmergent.Stage)
	assert.Equal(t, PriorityMedium, early.PreEmergent.Urgency)

	prime := a.Summarize(Input{GrassType: "Bermuda", AsOf: day(2025, time.March, 5), Weather: &Conditions{TemperatureF: 55}})
	assert.Equal(t, StagePrime, prime.PreEmergent.Stage)
	assert.Equal(t, PriorityHigh, prime.PreEmergent.Urgency)

	critical := a.Summarize(Input{GrassType: "Bermuda", AsOf: day(2025, time.March, 20), Weather: &Conditions{TemperatureF: 61}})
	assert.Equal(t, StageCritical, critical.PreEmergent.Stage)
	assert.Equal(t, PriorityCritical, critical.PreEmergent.Urgency)
	assert.Contains(t, critical.PreEmergent.Reason, "~53°F")

	late := a.Summarize(Input{GrassType: "Bermuda", AsOf: day(2025, time.April, 20)})
	assert.Equal(t, StageLateWindow, late.PreEmergent.Stage)

	none := a.Summarize(Input{GrassType: "Bermuda", AsOf: day(2025, time.June, 20)})
	assert.False(t, none.PreEmergent.Needed)
	assert.Equal(t, StageNone, none.PreEmergent.Stage)

	fall := a.Summarize(Input{GrassType: "Tall Fescue", AsOf: day(2025, time.October, 2)})
	assert.Equal(t, StageFallWindow, fall.PreEmergent.Stage)
}

func TestOldWeedPreventerDoesNotSuppress(t *testing.T) {
	r := newTestAdvisor().Summarize(Input{
		GrassType: "Bermuda",
		AsOf:      day(2025, time.March, 10),
		History:   map[string]LastApplied{"Weed Preventer": {Date: "2024-09-01"}},
	})
	assert.True(t, r.PreEmergent.Needed)
}

func TestCoolGrassNotScalped(t *testing.T) {
	r := newTestAdvisor().Summarize(Input{GrassType: "Kentucky Bluegrass", AsOf: day(2025, time.March, 1), Weather: &Conditions{TemperatureF: 50}})
	assert.False(t, r.Scalping.Recommended)
	assert.Contains(t, r.Scalping.Reason, "NOT be scalped")
}

func TestWarmScalping(t *testing.T) {
	a := newTestAdvisor()

	cold := a.Summarize(Input{GrassType: "Bermuda", AsOf: day(2025, time.March, 1), Weather: &Conditions{TemperatureF: 55}})
	assert.True(t, cold.Scalping.Recommended)
	assert.Equal(t, PriorityMedium, cold.Scalping.Urgency)

	warm := a.Summarize(Input{GrassType: "Bermuda", AsOf: day(2025, time.March, 1), Weather: &Conditions{TemperatureF: 66}})
	assert.True(t, warm.Scalping.Recommended)
	assert.Equal(t, PriorityHigh, warm.Scalping.Urgency)

	noWeather := a.Summarize(Input{GrassType: "Bermuda", AsOf: day(2025, time.March, 1)})
	assert.False(t, noWeather.Scalping.Recommended)

	var scalpTask bool
	for _, task := range warm.TaskReminders {
		if len(task.Task) > 10 && task.Task[:10] == "Scalp lawn" {
			scalpTask = true
			assert.LessOrEqual(t, len([]rune(task.Task)), len("Scalp lawn - ")+80)
		}
	}
	assert.True(t, scalpTask)
}

func TestDethatchingAndAeration(t *testing.T) {
	a := newTestAdvisor()

	warmMay := a.Summarize(Input{GrassType: "Zoysia", AsOf: day(2025, time.May, 10)})
	assert.True(t, warmMay.Dethatching.Recommended)
	assert.True(t, warmMay.Aeration.Recommended)

	coolSep := a.Summarize(Input{GrassType: "Tall Fescue", AsOf: day(2025, time.September, 10)})
	assert.True(t, coolSep.Dethatching.Recommended)
	assert.True(t, coolSep.Aeration.Recommended)
	assert.NotEmpty(t, coolSep.Dethatching.Alternatives)

	coolApr := a.Summarize(Input{GrassType: "Tall Fescue", AsOf: day(2025, time.April, 10)})
	assert.Equal(t, PriorityLow, coolApr.Aeration.Urgency)

	transition := a.Summarize(Input{GrassType: "Custom: zoysia/fescue", AsOf: day(2025, time.May, 10)})
	assert.Equal(t, "transition", transition.SeasonType)
	assert.False(t, transition.Dethatching.Recommended)
	assert.False(t, transition.Aeration.Recommended)
}

func TestTemperatureWarnings(t *testing.T) {
	a := newTestAdvisor()

	extreme := a.Summarize(Input{GrassType: "Bermuda", AsOf: day(2025, time.July, 1), Weather: &Conditions{TemperatureF: 99}})
	assert.Contains(t, extreme.TemperatureWarnings[0], "EXTREME HEAT")
	var alert bool
	for _, task := range extreme.TaskReminders {
		if task.Reason == "Weather alert" {
			alert = true
			assert.Equal(t, PriorityHigh, task.Priority)
		}
	}
	assert.True(t, alert)

	freeze := a.Summarize(Input{GrassType: "Bermuda", AsOf: day(2025, time.January, 1), Weather: &Conditions{TemperatureF: 20}})
	assert.Contains(t, freeze.TemperatureWarnings, "HARD FREEZE - Do not walk on frozen grass, causes crown damage")

	warmDormancy := a.Summarize(Input{GrassType: "Bermuda", AsOf: day(2025, time.November, 1), Weather: &Conditions{TemperatureF: 45}})
	assert.Contains(t, warmDormancy.TemperatureWarnings, "Below 50°F - warm season grass entering/in dormancy")

	coolNoDormancy := a.Summarize(Input{GrassType: "Tall Fescue", AsOf: day(2025, time.November, 1), Weather: &Conditions{TemperatureF: 45}})
	assert.NotContains(t, coolNoDormancy.TemperatureWarnings, "Below 50°F - warm season grass entering/in dormancy")

	humid := a.Summarize(Input{GrassType: "Tall Fescue", AsOf: day(2025, time.June, 1), Weather: &Conditions{TemperatureF: 80, HumidityPct: ptr(90), WindMph: ptr(18)}})
	assert.Contains(t, humid.TemperatureWarnings, "High humidity + warmth = increased fungal disease risk. Monitor for brown patch.")
	assert.Contains(t, humid.TemperatureWarnings, "Windy (18.0 mph) - Do NOT spray chemicals, drift will occur")
}

func TestChemicalRecommendationsRespectHistory(t *testing.T) {
	a := newTestAdvisor()
	asOf := day(2025, time.July, 10)

	fresh := a.Summarize(Input{GrassType: "Bermuda", AsOf: asOf})
	for _, name := range []string{"Iron Supplement", "Grub Killer", "Insecticide"} {
		_, ok := findRec(fresh.ChemicalRecommendations, name)
		assert.True(t, ok, name)
	}
	assert.Equal(t, PriorityHigh, fresh.ChemicalRecommendations[0].Priority)

	treated := a.Summarize(Input{GrassType: "Bermuda", AsOf: asOf, History: map[string]LastApplied{
		"Liquid Iron": {Date: "2025-06-25"},
		"Grub Killer": {Date: "2025-04-01"},
		"Insecticide": {Date: "2025-03-01"},
	}})
	_, ok := findRec(treated.ChemicalRecommendations, "Iron Supplement")
	assert.False(t, ok)
	_, ok = findRec(treated.ChemicalRecommendations, "Grub Killer")
	assert.False(t, ok)
	_, ok = findRec(treated.ChemicalRecommendations, "Insecticide")
	assert.True(t, ok, "insecticide applied 131 days ago is outside the 90-day window")
}

func TestCoolFallRecommendations(t *testing.T) {
	r := newTestAdvisor().Summarize(Input{GrassType: "Tall Fescue", AsOf: day(2025, time.October, 5)})
	fert, ok := findRec(r.ChemicalRecommendations, "Fertilizer")
	require.True(t, ok)
	assert.Equal(t, PriorityHigh, fert.Priority)
	_, ok = findRec(r.ChemicalRecommendations, "Overseeding")
	assert.True(t, ok)
}

func TestMalformedHistoryIsNeverApplied(t *testing.T) {
	r := newTestAdvisor().Summarize(Input{
		GrassType: "Bermuda",
		AsOf:      day(2025, time.March, 10),
		History: map[string]LastApplied{
			"Weed Preventer": {Date: "last tuesday"},
			"Fertilizer":     {Date: ""},
		},
	})
	assert.True(t, r.PreEmergent.Needed)
	require.Len(t, r.HistoryIssues, 1)
	assert.Equal(t, ReasonInvalidDate, r.HistoryIssues[0].Reason)
	assert.Equal(t, "Weed Preventer", r.HistoryIssues[0].Chemical)
}

func TestSummarizeIsIdempotent(t *testing.T) {
	a := newTestAdvisor()
	in := Input{
		GrassType: "St. Augustine",
		Location:  "Austin, TX",
		AsOf:      day(2025, time.May, 14),
		Weather:   &Conditions{TemperatureF: 84, HumidityPct: ptr(70)},
		History: map[string]LastApplied{
			"Fertilizer":  {Date: "2025-04-20"},
			"Grub Killer": {Date: "2024-06-01"},
		},
	}
	assert.Equal(t, a.Summarize(in), a.Summarize(in))
}

func TestTasksSortedByPriority(t *testing.T) {
	r := newTestAdvisor().Summarize(Input{GrassType: "Bermuda", AsOf: day(2025, time.July, 1), Weather: &Conditions{TemperatureF: 99}})
	for i := 1; i < len(r.TaskReminders); i++ {
		assert.GreaterOrEqual(t, r.TaskReminders[i-1].Priority.rank(), r.TaskReminders[i].Priority.rank())
	}
}
