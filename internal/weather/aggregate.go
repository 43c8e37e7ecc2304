package weather

import (
	"math"
	"time"
)

// wetness ranks conditions by how much they hold up lawn work.
var wetness = map[Condition]int{
	ConditionStorm:   5,
	ConditionSnow:    4,
	ConditionRain:    3,
	ConditionMist:    2,
	ConditionCloudy:  1,
	ConditionClear:   0,
	ConditionUnknown: -1,
}

// AggregateReadings merges what the providers report for one location.
//
// Temperature, humidity and pressure are averaged. Wind and precipitation
// take the highest reading: drift and wash-off decide whether a spray goes
// down, so the pessimistic provider wins. The condition is the one most
// providers agree on; on a tie the wetter condition wins.
func AggregateReadings(loc Location, readings []ProviderReading) WeatherSnapshot {
	snap := WeatherSnapshot{Location: loc, Condition: ConditionUnknown}
	if len(readings) == 0 {
		snap.Timestamp = time.Now().UTC()
		return snap
	}

	var temp, humidity, pressure float64
	votes := make(map[Condition]int, len(readings))
	snap.Providers = make([]ProviderContribution, 0, len(readings))

	for _, r := range readings {
		temp += r.TemperatureC
		humidity += r.HumidityPct
		pressure += r.PressureHpa
		snap.WindSpeed = math.Max(snap.WindSpeed, r.WindSpeedMS)
		snap.PrecipMM = math.Max(snap.PrecipMM, r.PrecipMm)

		cond := r.Condition
		if _, known := wetness[cond]; !known {
			cond = ConditionUnknown
		}
		votes[cond]++

		if r.Timestamp.After(snap.Timestamp) {
			snap.Timestamp = r.Timestamp
		}
		snap.Providers = append(snap.Providers, ProviderContribution{
			ProviderName: r.ProviderName,
			Timestamp:    r.Timestamp,
		})
	}

	n := float64(len(readings))
	snap.Temperature = temp / n
	snap.Humidity = humidity / n
	snap.Pressure = pressure / n

	best := 0
	for cond, count := range votes {
		if count > best || (count == best && wetness[cond] > wetness[snap.Condition]) {
			best = count
			snap.Condition = cond
		}
	}

	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now()
	}
	snap.Timestamp = snap.Timestamp.UTC()
	return snap
}
