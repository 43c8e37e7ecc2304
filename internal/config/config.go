package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/lawn-manager/internal/weather"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type AppConfig struct {
	Port      string
	LogLevel  string
	LogFormat string

	// ReferenceFile replaces the built-in chemical and grass tables when set.
	ReferenceFile string

	StoreDriver string
	SQLitePath  string

	OpenWeatherAPIKey string
	WeatherAPIKey     string
	GeocoderAPIKey    string
	HAURL             string
	HAToken           string

	// FetchInterval controls how often weather is refreshed for every zone.
	FetchInterval time.Duration
	HTTPTimeout   time.Duration

	// Extra locations tracked besides the ones zones reference.
	Locations []weather.Location

	// Weather snapshot retention.
	StoreMaxHistory int           // max number of snapshots per location (0 = unlimited)
	StoreMaxAge     time.Duration // max age of snapshots (0 = unlimited)

	// RateCacheTTL is how long the last calculation per zone stays readable.
	RateCacheTTL time.Duration

	MQTTBroker      string
	MQTTTopicPrefix string
	MQTTUsername    string
	MQTTPassword    string
}

// EnvReferenceFile names the YAML file that replaces the built-in tables.
const EnvReferenceFile = "REFERENCE_FILE"

// ReferenceFile returns REFERENCE_FILE, merging a .env file first. The
// offline commands use it without loading the rest of the configuration.
func ReferenceFile() string {
	_ = godotenv.Load()
	return os.Getenv(EnvReferenceFile)
}

// Load reads configuration from the environment, after merging a .env file
// when one exists.
func Load() (*AppConfig, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := &AppConfig{
		Port:              getenvDefault("PORT", "8080"),
		LogLevel:          getenvDefault("LOG_LEVEL", "INFO"),
		LogFormat:         getenvDefault("LOG_FORMAT", "text"),
		ReferenceFile:     os.Getenv(EnvReferenceFile),
		StoreDriver:       strings.ToLower(getenvDefault("STORE_DRIVER", DriverMemory)),
		SQLitePath:        getenvDefault("SQLITE_PATH", "lawn-manager.db"),
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		WeatherAPIKey:     os.Getenv("WEATHERAPI_API_KEY"),
		GeocoderAPIKey:    os.Getenv("GEOCODER_API_KEY"),
		HAURL:             strings.TrimRight(os.Getenv("HA_URL"), "/"),
		HAToken:           os.Getenv("HA_TOKEN"),
		MQTTBroker:        os.Getenv("MQTT_BROKER"),
		MQTTTopicPrefix:   getenvDefault("MQTT_TOPIC_PREFIX", "lawn_manager"),
		MQTTUsername:      os.Getenv("MQTT_USERNAME"),
		MQTTPassword:      os.Getenv("MQTT_PASSWORD"),
		StoreMaxHistory:   getenvInt("STORE_MAX_HISTORY", 96), // roughly 24h at 15-minute intervals
	}

	var err error
	if cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", "15m"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}
	if cfg.RateCacheTTL, err = getenvDuration("RATE_CACHE_TTL", "24h"); err != nil {
		return nil, err
	}

	switch cfg.StoreDriver {
	case DriverMemory, DriverSQLite:
	default:
		return nil, fmt.Errorf("%w: STORE_DRIVER must be %q or %q, got %q", ErrInvalidConfig, DriverMemory, DriverSQLite, cfg.StoreDriver)
	}

	locs, err := loadTrackedLocations()
	if err != nil {
		return nil, err
	}
	cfg.Locations = locs

	return cfg, nil
}

// loadTrackedLocations reads the comma-separated WEATHER_LOCATION_CITY and
// WEATHER_LOCATION_COUNTRY lists, which must pair up one to one.
func loadTrackedLocations() ([]weather.Location, error) {
	city := strings.TrimSpace(os.Getenv("WEATHER_LOCATION_CITY"))
	country := strings.TrimSpace(os.Getenv("WEATHER_LOCATION_COUNTRY"))
	if city == "" && country == "" {
		return nil, nil
	}
	cities := strings.Split(city, ",")
	countries := strings.Split(country, ",")
	if len(cities) != len(countries) {
		return nil, fmt.Errorf("%w: number of cities and countries must be the same", ErrInvalidConfig)
	}
	var locs []weather.Location
	for i := range cities {
		c := strings.TrimSpace(cities[i])
		if c == "" {
			continue
		}
		locs = append(locs, weather.Location{
			City:    c,
			Country: strings.TrimSpace(countries[i]),
		})
	}

	return locs, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
