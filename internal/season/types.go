package season

import "time"

// Priority orders recommendations and tasks.
type Priority string

const (
	PriorityNone     Priority = "none"
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityCritical:
		return 4
	default:
		return 0
	}
}

// Season is the calendar season, independent of grass type.
type Season string

const (
	Winter Season = "winter"
	Spring Season = "spring"
	Summer Season = "summer"
	Fall   Season = "fall"
)

// Stage tracks where the pre-emergent window currently stands.
type Stage string

const (
	StageNone        Stage = "none"
	StageApplied     Stage = "applied"
	StageApproaching Stage = "approaching"
	StagePrime       Stage = "prime"
	StageCritical    Stage = "critical"
	StageLateWindow  Stage = "late_window"
	StageFallWindow  Stage = "fall_window"
)

// Conditions is a live weather reading. Humidity and wind are optional.
type Conditions struct {
	TemperatureF float64  `json:"temperatureF"`
	HumidityPct  *float64 `json:"humidityPct,omitempty"`
	WindMph      *float64 `json:"windMph,omitempty"`
}

// LastApplied is the most recent application of one chemical. Date uses
// YYYY-MM-DD; anything unparseable is treated as never applied.
type LastApplied struct {
	Date string `json:"lastApplied"`
}

// Input is everything one Summarize call depends on.
type Input struct {
	GrassType string
	Location  string
	AsOf      time.Time
	Weather   *Conditions
	History   map[string]LastApplied
}

// MowFrequency is the recommended mowing cadence.
type MowFrequency struct {
	FrequencyDays int    `json:"frequencyDays"`
	Reason        string `json:"reason"`
	Active        bool   `json:"active"`
}

// SoilEstimate is a soil temperature derived from air temperature with a
// fixed seasonal offset. It is not a measurement.
type SoilEstimate struct {
	TemperatureF float64 `json:"temperatureF"`
	Method       string  `json:"method"`
}

// ChemicalRecommendation is one product the lawn is due for.
type ChemicalRecommendation struct {
	Chemical string   `json:"chemical"`
	Priority Priority `json:"priority"`
	Reason   string   `json:"reason"`
	Timing   string   `json:"timing"`
	Product  string   `json:"product,omitempty"`
}

// Task is a reminder for a piece of lawn work.
type Task struct {
	Task     string   `json:"task"`
	Priority Priority `json:"priority"`
	Reason   string   `json:"reason"`
	Deadline string   `json:"deadline"`
}

// PreEmergent is the pre-emergent herbicide sub-report.
type PreEmergent struct {
	Needed            bool     `json:"needed"`
	Urgency           Priority `json:"urgency"`
	Stage             Stage    `json:"stage"`
	Reason            string   `json:"reason"`
	Timing            string   `json:"timing"`
	ProductSuggestion string   `json:"productSuggestion"`
}

// Advice is the sub-report shape shared by scalping, dethatching and aeration.
type Advice struct {
	Recommended  bool     `json:"recommended"`
	Urgency      Priority `json:"urgency"`
	Reason       string   `json:"reason"`
	Timing       string   `json:"timing"`
	HowTo        string   `json:"howTo"`
	Alternatives string   `json:"alternatives,omitempty"`
}

// HistoryIssue records a history entry that could not be used.
type HistoryIssue struct {
	Chemical string `json:"chemical"`
	Value    string `json:"value"`
	Reason   string `json:"reason"`
	Message  string `json:"message"`
}

// ReasonInvalidDate marks a history entry whose date failed to parse.
const ReasonInvalidDate = "invalid_date"

// Report is the full seasonal picture for one grass on one date.
type Report struct {
	AsOf                    string                   `json:"asOf"`
	Location                string                   `json:"location,omitempty"`
	GrassType               string                   `json:"grassType"`
	SeasonType              string                   `json:"seasonType"`
	Season                  Season                   `json:"season"`
	GrowingSeason           bool                     `json:"growingSeason"`
	DormantSeason           bool                     `json:"dormantSeason"`
	MowFrequency            MowFrequency             `json:"mowFrequency"`
	WeatherAvailable        bool                     `json:"weatherAvailable"`
	SoilTemperature         *SoilEstimate            `json:"estimatedSoilTemp,omitempty"`
	TemperatureWarnings     []string                 `json:"temperatureWarnings"`
	ChemicalRecommendations []ChemicalRecommendation `json:"chemicalRecommendations"`
	TaskReminders           []Task                   `json:"taskReminders"`
	PreEmergent             PreEmergent              `json:"preEmergent"`
	Scalping                Advice                   `json:"scalping"`
	Dethatching             Advice                   `json:"dethatching"`
	Aeration                Advice                   `json:"aeration"`
	HistoryIssues           []HistoryIssue           `json:"historyIssues,omitempty"`
}
