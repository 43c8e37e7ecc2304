package weather

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnsupportedLocation is returned by providers that cannot serve a
	// location, e.g. a city-only provider asked for an entity.
	ErrUnsupportedLocation = errors.New("location not supported by provider")
	// ErrNoProviders means the service was built without providers.
	ErrNoProviders = errors.New("no weather providers configured")
	// ErrNoForecast means no provider returned forecast data.
	ErrNoForecast = errors.New("no forecast data available")
	// ErrInvalidDays rejects non-positive forecast lengths.
	ErrInvalidDays = errors.New("days must be greater than zero")
)

// ProviderReading represents a single provider's normalized reading
// that can be aggregated into a WeatherSnapshot.
type ProviderReading struct {
	ProviderName string
	Timestamp    time.Time

	TemperatureC float64
	HumidityPct  float64
	WindSpeedMS  float64
	PressureHpa  float64
	PrecipMm     float64
	Condition    Condition
}

// Provider abstracts a weather data source (e.g. OpenWeatherMap, WeatherAPI, Open-Meteo).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (ProviderReading, error)
}

// ForecastProvider is implemented by providers that also serve daily forecasts.
type ForecastProvider interface {
	FetchForecast(ctx context.Context, loc Location, days int) ([]ProviderReading, error)
}

// Store is the contract the snapshot stores must satisfy.
type Store interface {
	SaveSnapshot(loc Location, snapshot WeatherSnapshot)
	GetLatest(loc Location) (WeatherSnapshot, error)
	GetRange(loc Location, from, to time.Time) ([]WeatherSnapshot, error)
}

// FetchObserver is told about every provider call. Metrics hook in here.
type FetchObserver interface {
	ObserveFetch(provider string, err error, elapsed time.Duration)
}
