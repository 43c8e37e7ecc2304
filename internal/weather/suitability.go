package weather

import (
	"fmt"
	"strings"
	"time"

	"github.com/i474232898/lawn-manager/internal/common"
)

// Drying and spraying thresholds.
const (
	DryingHours       = 6.0
	RainLeadHours     = 2.0
	RainWarningHours  = 6.0
	MaxSprayWindMph   = 15.0
	saturatedHumidity = 90.0

	// Heuristic answers when history shows humidity or precipitation but no
	// explicit rain reading.
	assumedRecentRainHours = 2.0
	assumedDryHours        = 12.0
)

// Outlook carries rain timing around "now". Nil fields are unknown.
type Outlook struct {
	HoursSinceRain *float64 `json:"hoursSinceRain,omitempty"`
	HoursUntilRain *float64 `json:"hoursUntilRain,omitempty"`
}

// Suitability is a go/no-go answer with the message shown to the user.
type Suitability struct {
	Suitable bool   `json:"suitable"`
	Message  string `json:"message"`
}

// OutlookFromHistory derives hours since rain from snapshots ordered oldest
// first. A wet reading gives its exact age; a saturated or precipitating
// latest reading is taken as rain two hours ago; otherwise twelve hours.
func OutlookFromHistory(snaps []WeatherSnapshot, now time.Time) Outlook {
	if len(snaps) == 0 {
		return Outlook{}
	}
	for i := len(snaps) - 1; i >= 0; i-- {
		if snaps[i].Condition.Wet() {
			h := now.Sub(snaps[i].Timestamp).Hours()
			if h < 0 {
				h = 0
			}
			return Outlook{HoursSinceRain: &h}
		}
	}
	latest := snaps[len(snaps)-1]
	h := assumedDryHours
	if latest.Humidity > saturatedHumidity || latest.PrecipMM > 0 {
		h = assumedRecentRainHours
	}
	return Outlook{HoursSinceRain: &h}
}

// ForMowing decides whether the grass can be cut. Without a snapshot mowing
// is allowed.
func ForMowing(snap *WeatherSnapshot, o Outlook) Suitability {
	if snap == nil {
		return Suitability{Suitable: true, Message: "No weather data available"}
	}
	if snap.Condition.Wet() {
		return Suitability{Suitable: false, Message: "Wait for rain to stop"}
	}
	if h := o.HoursSinceRain; h != nil && *h < DryingHours {
		return Suitability{Suitable: false, Message: fmt.Sprintf("Wait for grass to dry (rain %.1f hours ago)", *h)}
	}
	if h := o.HoursUntilRain; h != nil {
		switch {
		case *h < RainLeadHours:
			return Suitability{Suitable: false, Message: fmt.Sprintf("Rain expected in %.1f hours - wait or finish quickly", *h)}
		case *h < RainWarningHours:
			return Suitability{Suitable: true, Message: fmt.Sprintf("Good conditions now, but rain expected in %.1f hours", *h)}
		}
	}
	if snap.Condition == ConditionClear {
		return Suitability{Suitable: true, Message: "Good conditions for lawn care"}
	}
	return Suitability{Suitable: true, Message: fmt.Sprintf("Current conditions: %s", snap.Condition)}
}

// WateredIn reports whether chemical benefits from rain after application.
func WateredIn(chemical string) bool {
	return common.HasAny(strings.ToLower(chemical), "fertilizer", "iron", "urea")
}

// ForChemical decides whether chemical can be applied now. Fertilizers
// tolerate light rain; everything else needs dry, calm weather.
func ForChemical(snap *WeatherSnapshot, chemical string) Suitability {
	if snap == nil {
		return Suitability{Suitable: true, Message: "No weather data available"}
	}

	if WateredIn(chemical) {
		switch snap.Condition {
		case ConditionStorm:
			return Suitability{Suitable: false, Message: "Wait for heavy rain to stop"}
		case ConditionRain:
			return Suitability{Suitable: true, Message: "Good - rain will help water in the fertilizer"}
		case ConditionClear:
			return Suitability{Suitable: true, Message: "Good conditions - water in after application"}
		}
		return Suitability{Suitable: true, Message: fmt.Sprintf("Current conditions: %s", snap.Condition)}
	}

	switch {
	case snap.Condition.Wet():
		return Suitability{Suitable: false, Message: "Wait for rain to stop"}
	case snap.WindMph() > MaxSprayWindMph:
		return Suitability{Suitable: false, Message: fmt.Sprintf("Avoid application due to wind (%.1f mph)", snap.WindMph())}
	case snap.Condition == ConditionClear:
		return Suitability{Suitable: true, Message: "Good conditions for application"}
	}
	return Suitability{Suitable: true, Message: fmt.Sprintf("Current conditions: %s", snap.Condition)}
}
