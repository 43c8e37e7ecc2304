package weather

import (
	"fmt"
	"strings"
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// Wet reports whether the condition leaves grass wet.
func (c Condition) Wet() bool {
	return c == ConditionRain || c == ConditionSnow || c == ConditionStorm
}

// Location identifies where a zone's weather comes from. A zone names a
// city/country pair, coordinates, a Home Assistant weather entity, or a mix.
type Location struct {
	City     string   `json:"city,omitempty"`
	Country  string   `json:"country,omitempty"`
	Lat      *float64 `json:"lat,omitempty"`
	Lon      *float64 `json:"lon,omitempty"`
	EntityID string   `json:"entityId,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (l Location) HasCoordinates() bool {
	return l.Lat != nil && l.Lon != nil
}

// IsZero reports whether the location names nothing at all.
func (l Location) IsZero() bool {
	return strings.TrimSpace(l.City) == "" && !l.HasCoordinates() && strings.TrimSpace(l.EntityID) == ""
}

// Key returns a canonical string key for indexing this location in stores.
// The entity wins over the city, and the city over coordinates.
func (l Location) Key() string {
	switch {
	case l.EntityID != "":
		return "entity:" + strings.ToLower(strings.TrimSpace(l.EntityID))
	case strings.TrimSpace(l.City) != "":
		return strings.ToLower(strings.TrimSpace(l.City)) + ":" + strings.ToLower(strings.TrimSpace(l.Country))
	case l.HasCoordinates():
		return fmt.Sprintf("geo:%.4f,%.4f", *l.Lat, *l.Lon)
	default:
		return ""
	}
}

// WeatherSnapshot is the normalized, aggregated weather view at a point in time.
type WeatherSnapshot struct {
	Location    Location  `json:"location"`
	Timestamp   time.Time `json:"timestamp"` // always UTC
	Temperature float64   `json:"temperatureC"`
	Humidity    float64   `json:"humidityPercent"`
	WindSpeed   float64   `json:"windSpeed"` // m/s
	Pressure    float64   `json:"pressureHpa"`
	PrecipMM    float64   `json:"precipMm"`
	Condition   Condition `json:"condition"`

	// Providers contributing to this snapshot.
	Providers []ProviderContribution `json:"providers,omitempty"`
}

// TemperatureF returns the temperature in Fahrenheit.
func (s WeatherSnapshot) TemperatureF() float64 { return CToF(s.Temperature) }

// WindMph returns the wind speed in miles per hour.
func (s WeatherSnapshot) WindMph() float64 { return MSToMph(s.WindSpeed) }

// Forecast is a multi-day forecast, one aggregated snapshot per day,
// ordered by Timestamp ascending.
type Forecast []WeatherSnapshot

// ProviderContribution describes data coming from a single provider used in aggregation.
type ProviderContribution struct {
	ProviderName string    `json:"provider"`
	Timestamp    time.Time `json:"timestamp"`
}

// Unit conversions.
const mphPerMS = 2.2369362920544

func CToF(c float64) float64 { return c*9/5 + 32 }
func FToC(f float64) float64 { return (f - 32) * 5 / 9 }
func MSToMph(ms float64) float64 { return ms * mphPerMS }
func MphToMS(mph float64) float64 { return mph / mphPerMS }
