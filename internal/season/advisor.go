// Package season derives season-aware lawn guidance from a grass type, a
// date, an optional weather reading and the lawn's application history.
//
// The advisor holds no state between calls: every Summarize recomputes the
// report from its Input, so concurrent callers need no coordination.
package season

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/i474232898/lawn-manager/internal/reference"
)

// SoilEstimateMethod labels every soil temperature the advisor reports.
const SoilEstimateMethod = "estimated from air temperature"

// Advisor produces seasonal reports from the grass table.
type Advisor struct {
	tables *reference.Tables
	logger *slog.Logger
}

// NewAdvisor returns an Advisor. A nil logger discards output.
func NewAdvisor(tables *reference.Tables, logger *slog.Logger) *Advisor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Advisor{tables: tables, logger: logger}
}

// call bundles the per-call derived values shared by the rule tables.
type call struct {
	grass   reference.Grass
	month   int
	season  Season
	weather *Conditions
	soil    *float64
	history history
}

func (c call) warm() bool { return c.grass.Season == reference.SeasonWarm }
func (c call) cool() bool { return c.grass.Season == reference.SeasonCool }

// Soil comparisons are false when no estimate exists.
func (c call) soilAtLeast(f float64) bool { return c.soil != nil && *c.soil >= f }
func (c call) soilAbove(f float64) bool   { return c.soil != nil && *c.soil > f }
func (c call) soilBelow(f float64) bool   { return c.soil != nil && *c.soil < f }

// Summarize builds the seasonal report for in. A zero AsOf means today.
func (a *Advisor) Summarize(in Input) Report {
	asOf := in.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}
	asOf = dateOnly(asOf)

	hist, issues := parseHistory(in.History, asOf)
	for _, issue := range issues {
		a.logger.Warn("season: ignoring history entry", "chemical", issue.Chemical, "value", issue.Value)
	}

	c := call{
		grass:   a.tables.Grass(in.GrassType),
		month:   int(asOf.Month()),
		weather: in.Weather,
		history: hist,
	}
	c.season = FromMonth(c.month)
	c.soil = estimateSoil(c.season, in.Weather)

	grassName := in.GrassType
	if grassName == "" {
		grassName = c.grass.Name
	}

	report := Report{
		AsOf:                asOf.Format(dateLayout),
		Location:            in.Location,
		GrassType:           grassName,
		SeasonType:          string(c.grass.Season),
		Season:              c.season,
		GrowingSeason:       c.grass.IsPeak(c.month),
		DormantSeason:       c.grass.IsDormant(c.month),
		MowFrequency:        mowFrequency(c),
		WeatherAvailable:    in.Weather != nil,
		TemperatureWarnings: temperatureWarnings(c),
		PreEmergent:         preEmergent(c),
		Scalping:            scalping(c),
		Dethatching:         dethatching(c),
		Aeration:            aeration(c),
		HistoryIssues:       issues,
	}
	if c.soil != nil {
		report.SoilTemperature = &SoilEstimate{TemperatureF: *c.soil, Method: SoilEstimateMethod}
	}
	report.ChemicalRecommendations = chemicalRecommendations(c, report.PreEmergent)
	report.TaskReminders = taskReminders(c, report)
	return report
}

// FromMonth maps a calendar month to its season.
func FromMonth(month int) Season {
	switch month {
	case 12, 1, 2:
		return Winter
	case 3, 4, 5:
		return Spring
	case 6, 7, 8:
		return Summer
	default:
		return Fall
	}
}

// soilOffsetF is added to air temperature to approximate 4-inch soil
// temperature. Soil lags air, so it runs cooler in spring and warmer in fall.
var soilOffsetF = map[Season]float64{
	Spring: -8,
	Summer: -3,
	Fall:   5,
	Winter: -5,
}

func estimateSoil(s Season, w *Conditions) *float64 {
	if w == nil {
		return nil
	}
	v := w.TemperatureF + soilOffsetF[s]
	return &v
}

func mowFrequency(c call) MowFrequency {
	switch {
	case c.grass.IsDormant(c.month):
		return MowFrequency{
			FrequencyDays: 21,
			Reason:        "Dormant season - reduced growth. Only mow if grass is actively growing.",
			Active:        false,
		}
	case c.grass.IsPeak(c.month):
		if c.soilAbove(80) {
			return MowFrequency{
				FrequencyDays: 4,
				Reason:        "Peak growing season with warm soil - rapid growth expected",
				Active:        true,
			}
		}
		return MowFrequency{
			FrequencyDays: 5,
			Reason:        "Peak growing season - active growth, mow frequently using 1/3 rule",
			Active:        true,
		}
	default:
		return MowFrequency{
			FrequencyDays: 7,
			Reason:        "Moderate growing season - standard weekly mowing",
			Active:        true,
		}
	}
}

func temperatureWarnings(c call) []string {
	warnings := []string{}
	if c.weather == nil {
		return warnings
	}
	t := c.weather.TemperatureF

	switch {
	case t > 95:
		warnings = append(warnings,
			"EXTREME HEAT - Avoid all lawn activities. Water deeply in early morning.",
			"Do NOT apply fertilizer or chemicals in extreme heat - risk of burn.")
	case t > 90:
		warnings = append(warnings,
			"Very hot - avoid mowing during peak heat (10am-4pm)",
			"High heat stress - avoid fertilizer, iron supplements OK early AM")
	case t > 85:
		warnings = append(warnings, "Hot conditions - mow early morning or evening, raise HOC by 0.5 inch")
	}

	switch {
	case t < 28:
		warnings = append(warnings, "HARD FREEZE - Do not walk on frozen grass, causes crown damage")
	case t < 32:
		warnings = append(warnings, "Freezing temperatures - avoid all lawn activities")
	case t < 40:
		warnings = append(warnings, "Very cold - grass dormant, minimal to no growth expected")
	case t < 50 && c.warm():
		warnings = append(warnings, "Below 50°F - warm season grass entering/in dormancy")
	}

	if h := c.weather.HumidityPct; h != nil && *h > 85 && t > 75 {
		warnings = append(warnings, "High humidity + warmth = increased fungal disease risk. Monitor for brown patch.")
	}
	if w := c.weather.WindMph; w != nil && *w > 15 {
		warnings = append(warnings, fmt.Sprintf("Windy (%.1f mph) - Do NOT spray chemicals, drift will occur", *w))
	}

	if c.soil != nil {
		s := *c.soil
		switch {
		case s > 50 && s < 60:
			warnings = append(warnings, fmt.Sprintf("Estimated soil temp ~%d°F - approaching pre-emergent window", int(s)))
		case s >= 60 && s <= 70:
			warnings = append(warnings, fmt.Sprintf("Estimated soil temp ~%d°F - CRITICAL pre-emergent window", int(s)))
		}
	}
	return warnings
}

func sortRecommendations(recs []ChemicalRecommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		if ri, rj := recs[i].Priority.rank(), recs[j].Priority.rank(); ri != rj {
			return ri > rj
		}
		return recs[i].Chemical < recs[j].Chemical
	})
}

func sortTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Priority.rank() > tasks[j].Priority.rank()
	})
}
