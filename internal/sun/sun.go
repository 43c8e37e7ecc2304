// Package sun computes the low-wind, low-evaporation spray windows around
// sunrise and sunset for a coordinate.
package sun

import (
	"fmt"
	"time"

	"github.com/sj14/astral/pkg/astral"
)

// Window lengths.
const (
	MorningWindow = 3 * time.Hour
	EveningWindow = 2 * time.Hour
)

// Window is a half-open time range.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Windows holds the sun times and spray windows for one day, in UTC.
type Windows struct {
	Date    string    `json:"date"`
	Sunrise time.Time `json:"sunrise"`
	Sunset  time.Time `json:"sunset"`
	Morning Window    `json:"morning"`
	Evening Window    `json:"evening"`
}

// Next returns the first window that has not ended at t, or false when both
// are over.
func (w Windows) Next(t time.Time) (Window, bool) {
	switch {
	case t.Before(w.Morning.End):
		return w.Morning, true
	case t.Before(w.Evening.End):
		return w.Evening, true
	default:
		return Window{}, false
	}
}

// SprayWindows returns the morning window (sunrise to sunrise+3h) and the
// evening window (sunset-2h to sunset) for the given day.
func SprayWindows(lat, lon float64, date time.Time) (Windows, error) {
	obs := astral.Observer{Latitude: lat, Longitude: lon}

	sunrise, err := astral.Sunrise(obs, date)
	if err != nil {
		return Windows{}, fmt.Errorf("failed to calculate sunrise: %w", err)
	}
	sunrise = sunrise.UTC()

	// West of Greenwich the UTC calendar day can pair a sunrise with the
	// previous evening's sunset, so take the first sunset after sunrise.
	var sunset time.Time
	for _, d := range []time.Time{date.AddDate(0, 0, -1), date, date.AddDate(0, 0, 1)} {
		s, err := astral.Sunset(obs, d)
		if err != nil {
			return Windows{}, fmt.Errorf("failed to calculate sunset: %w", err)
		}
		s = s.UTC()
		if s.After(sunrise) && (sunset.IsZero() || s.Before(sunset)) {
			sunset = s
		}
	}
	if sunset.IsZero() {
		return Windows{}, fmt.Errorf("no sunset after %s", sunrise.Format(time.RFC3339))
	}

	return Windows{
		Date:    date.Format("2006-01-02"),
		Sunrise: sunrise,
		Sunset:  sunset,
		Morning: Window{Start: sunrise, End: sunrise.Add(MorningWindow)},
		Evening: Window{Start: sunset.Add(-EveningWindow), End: sunset},
	}, nil
}
