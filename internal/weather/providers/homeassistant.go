package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/i474232898/lawn-manager/internal/weather"
)

// haState is the REST shape of /api/states/<entity_id>.
type haState struct {
	EntityID    string       `json:"entity_id"`
	State       string       `json:"state"`
	Attributes  haAttributes `json:"attributes"`
	LastUpdated string       `json:"last_updated"`
}

type haAttributes struct {
	Temperature       *float64 `json:"temperature"`
	TemperatureUnit   string   `json:"temperature_unit"`
	Humidity          *float64 `json:"humidity"`
	Pressure          *float64 `json:"pressure"`
	PressureUnit      string   `json:"pressure_unit"`
	WindSpeed         *float64 `json:"wind_speed"`
	WindSpeedUnit     string   `json:"wind_speed_unit"`
	Precipitation     *float64 `json:"precipitation"`
	PrecipitationUnit string   `json:"precipitation_unit"`
	Forecast          []struct {
		Datetime      string   `json:"datetime"`
		Condition     string   `json:"condition"`
		Temperature   *float64 `json:"temperature"`
		TempLow       *float64 `json:"templow"`
		Precipitation *float64 `json:"precipitation"`
		WindSpeed     *float64 `json:"wind_speed"`
		Humidity      *float64 `json:"humidity"`
	} `json:"forecast"`
}

// HomeAssistantProvider reads a Home Assistant weather entity. It only serves
// locations that name an entity.
type HomeAssistantProvider struct {
	base
	token string
}

// NewHomeAssistantProvider targets the instance at baseURL (e.g.
// http://homeassistant.local:8123) with a long-lived access token.
func NewHomeAssistantProvider(client *http.Client, baseURL, token string, opts ...Option) *HomeAssistantProvider {
	all := append([]Option{WithBaseURL(strings.TrimRight(baseURL, "/"))}, opts...)
	return &HomeAssistantProvider{
		base:  newBase("homeassistant", "", client, all),
		token: token,
	}
}

func (p *HomeAssistantProvider) state(ctx context.Context, loc weather.Location) (haState, error) {
	if loc.EntityID == "" {
		return haState{}, weather.ErrUnsupportedLocation
	}
	if p.baseURL == "" || p.token == "" {
		return haState{}, fmt.Errorf("%w: home assistant url or token", ErrNotConfigured)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+p.token)
	header.Set("Content-Type", "application/json")

	resp, err := p.get(ctx, p.baseURL+"/api/states/"+url.PathEscape(loc.EntityID), header)
	if err != nil {
		return haState{}, err
	}
	defer resp.Body.Close()

	var st haState
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return haState{}, err
	}
	if st.State == "unavailable" || st.State == "unknown" {
		return haState{}, fmt.Errorf("entity %s is %s", loc.EntityID, st.State)
	}
	return st, nil
}

func (p *HomeAssistantProvider) Fetch(ctx context.Context, loc weather.Location) (weather.ProviderReading, error) {
	st, err := p.state(ctx, loc)
	if err != nil {
		return weather.ProviderReading{}, err
	}
	a := st.Attributes

	ts, err := time.Parse(time.RFC3339Nano, st.LastUpdated)
	if err != nil {
		ts = time.Now()
	}

	r := weather.ProviderReading{
		ProviderName: p.name,
		Timestamp:    ts.UTC(),
		Condition:    mapHACondition(st.State),
	}
	if a.Temperature != nil {
		r.TemperatureC = toCelsius(*a.Temperature, a.TemperatureUnit)
	}
	if a.Humidity != nil {
		r.HumidityPct = *a.Humidity
	}
	if a.WindSpeed != nil {
		r.WindSpeedMS = toMetersPerSecond(*a.WindSpeed, a.WindSpeedUnit)
	}
	if a.Pressure != nil {
		r.PressureHpa = toHectopascal(*a.Pressure, a.PressureUnit)
	}
	if a.Precipitation != nil {
		r.PrecipMm = toMillimeters(*a.Precipitation, a.PrecipitationUnit)
	}
	return r, nil
}

// FetchForecast reads the legacy forecast attribute when the entity still
// exposes one.
func (p *HomeAssistantProvider) FetchForecast(ctx context.Context, loc weather.Location, days int) ([]weather.ProviderReading, error) {
	st, err := p.state(ctx, loc)
	if err != nil {
		return nil, err
	}
	a := st.Attributes

	var out []weather.ProviderReading
	for _, f := range a.Forecast {
		ts, err := time.Parse(time.RFC3339, f.Datetime)
		if err != nil {
			continue
		}
		r := weather.ProviderReading{ProviderName: p.name, Timestamp: ts.UTC(), Condition: mapHACondition(f.Condition)}
		switch {
		case f.Temperature != nil && f.TempLow != nil:
			r.TemperatureC = toCelsius((*f.Temperature+*f.TempLow)/2, a.TemperatureUnit)
		case f.Temperature != nil:
			r.TemperatureC = toCelsius(*f.Temperature, a.TemperatureUnit)
		}
		if f.Humidity != nil {
			r.HumidityPct = *f.Humidity
		}
		if f.WindSpeed != nil {
			r.WindSpeedMS = toMetersPerSecond(*f.WindSpeed, a.WindSpeedUnit)
		}
		if f.Precipitation != nil {
			r.PrecipMm = toMillimeters(*f.Precipitation, a.PrecipitationUnit)
		}
		out = append(out, r)
	}
	if len(out) > days {
		out = out[:days]
	}
	return out, nil
}

// mapHACondition maps Home Assistant weather states.
func mapHACondition(state string) weather.Condition {
	switch strings.ToLower(state) {
	case "sunny", "clear-night":
		return weather.ConditionClear
	case "cloudy", "partlycloudy", "windy", "windy-variant":
		return weather.ConditionCloudy
	case "rainy", "pouring":
		return weather.ConditionRain
	case "snowy", "snowy-rainy", "hail":
		return weather.ConditionSnow
	case "lightning", "lightning-rainy", "thunderstorm":
		return weather.ConditionStorm
	case "fog":
		return weather.ConditionMist
	default:
		return weather.ConditionUnknown
	}
}

func toCelsius(v float64, unit string) float64 {
	if strings.Contains(unit, "F") {
		return weather.FToC(v)
	}
	return v
}

func toMetersPerSecond(v float64, unit string) float64 {
	switch strings.ToLower(unit) {
	case "mph":
		return weather.MphToMS(v)
	case "km/h", "kmh":
		return v / 3.6
	case "kn", "kt":
		return v * 0.514444
	default: // m/s
		return v
	}
}

func toHectopascal(v float64, unit string) float64 {
	switch strings.ToLower(unit) {
	case "inhg":
		return v * 33.8639
	case "kpa":
		return v * 10
	default: // hPa, mbar
		return v
	}
}

func toMillimeters(v float64, unit string) float64 {
	if strings.EqualFold(unit, "in") {
		return v * 25.4
	}
	return v
}
