package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/lawn-manager/internal/weather"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "LOG_LEVEL", "LOG_FORMAT", "REFERENCE_FILE", "STORE_DRIVER", "SQLITE_PATH",
		"FETCH_INTERVAL", "HTTP_TIMEOUT", "STORE_MAX_HISTORY", "STORE_MAX_AGE", "RATE_CACHE_TTL",
		"WEATHER_LOCATION_CITY", "WEATHER_LOCATION_COUNTRY", "HA_URL", "MQTT_TOPIC_PREFIX",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, 15*time.Minute, cfg.FetchInterval)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 96, cfg.StoreMaxHistory)
	assert.Equal(t, 24*time.Hour, cfg.StoreMaxAge)
	assert.Equal(t, 24*time.Hour, cfg.RateCacheTTL)
	assert.Equal(t, "lawn_manager", cfg.MQTTTopicPrefix)
	assert.Empty(t, cfg.Locations)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("FETCH_INTERVAL", "30m")
	t.Setenv("STORE_MAX_HISTORY", "not-a-number")
	t.Setenv("HA_URL", "http://ha.local:8123/")
	t.Setenv("WEATHER_LOCATION_CITY", "Austin, Denver")
	t.Setenv("WEATHER_LOCATION_COUNTRY", "US,US")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, 30*time.Minute, cfg.FetchInterval)
	assert.Equal(t, 96, cfg.StoreMaxHistory)
	assert.Equal(t, "http://ha.local:8123", cfg.HAURL)
	assert.Equal(t, []weather.Location{
		{City: "Austin", Country: "US"},
		{City: "Denver", Country: "US"},
	}, cfg.Locations)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad interval", map[string]string{"FETCH_INTERVAL": "soon"}},
		{"bad driver", map[string]string{"STORE_DRIVER": "postgres"}},
		{"mismatched locations", map[string]string{"WEATHER_LOCATION_CITY": "Austin,Denver", "WEATHER_LOCATION_COUNTRY": "US"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestReferenceFile(t *testing.T) {
	t.Setenv(EnvReferenceFile, "/etc/lawn/tables.yaml")
	assert.Equal(t, "/etc/lawn/tables.yaml", ReferenceFile())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ReferenceFile(), cfg.ReferenceFile)
}
