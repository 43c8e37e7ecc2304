package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/kelvins/geocoder"

	"github.com/i474232898/lawn-manager/internal/weather"
)

// Coordinates is a resolved latitude/longitude pair.
type Coordinates struct {
	Lat float64
	Lon float64
}

// GeocodeFunc resolves a city and country to coordinates.
type GeocodeFunc func(ctx context.Context, city, country string) (Coordinates, error)

// GoogleGeocoder returns a GeocodeFunc backed by the Google geocoding API.
// An empty key yields nil: the provider then serves coordinate locations only.
func GoogleGeocoder(apiKey string) GeocodeFunc {
	if apiKey == "" {
		return nil
	}
	geocoder.ApiKey = apiKey
	return func(_ context.Context, city, country string) (Coordinates, error) {
		loc, err := geocoder.Geocoding(geocoder.Address{City: city, Country: country})
		if err != nil {
			return Coordinates{}, fmt.Errorf("geocode %s: %w", cityQuery(city, country), err)
		}
		return Coordinates{Lat: loc.Latitude, Lon: loc.Longitude}, nil
	}
}

const geocodeCacheSize = 256

// OpenMeteoProvider implements weather.Provider and weather.ForecastProvider
// for Open-Meteo. It needs no API key but only understands coordinates, so
// city locations go through the geocoder first.
type OpenMeteoProvider struct {
	base
	geocode GeocodeFunc
	cache   *lru.Cache[string, Coordinates]
}

func NewOpenMeteoProvider(client *http.Client, geocode GeocodeFunc, opts ...Option) *OpenMeteoProvider {
	// Only fails for a non-positive size.
	cache, _ := lru.New[string, Coordinates](geocodeCacheSize)
	return &OpenMeteoProvider{
		base:    newBase("openmeteo", "https://api.open-meteo.com/v1/forecast", client, opts),
		geocode: geocode,
		cache:   cache,
	}
}

func (p *OpenMeteoProvider) coordinates(ctx context.Context, loc weather.Location) (Coordinates, error) {
	if loc.HasCoordinates() {
		return Coordinates{Lat: *loc.Lat, Lon: *loc.Lon}, nil
	}
	if loc.City == "" || p.geocode == nil {
		return Coordinates{}, weather.ErrUnsupportedLocation
	}
	key := strings.ToLower(cityQuery(loc.City, loc.Country))
	if c, ok := p.cache.Get(key); ok {
		return c, nil
	}
	c, err := p.geocode(ctx, loc.City, loc.Country)
	if err != nil {
		return Coordinates{}, err
	}
	p.cache.Add(key, c)
	return c, nil
}

func (p *OpenMeteoProvider) values(c Coordinates) url.Values {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(c.Lat, 'f', 4, 64))
	values.Set("longitude", strconv.FormatFloat(c.Lon, 'f', 4, 64))
	values.Set("wind_speed_unit", "ms")
	values.Set("timezone", "UTC")
	return values
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, loc weather.Location) (weather.ProviderReading, error) {
	c, err := p.coordinates(ctx, loc)
	if err != nil {
		return weather.ProviderReading{}, err
	}

	values := p.values(c)
	values.Set("current", "temperature_2m,relative_humidity_2m,wind_speed_10m,precipitation,surface_pressure,weather_code")

	resp, err := p.get(ctx, p.baseURL+"?"+values.Encode(), nil)
	if err != nil {
		return weather.ProviderReading{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Current struct {
			Time        string  `json:"time"`
			Temperature float64 `json:"temperature_2m"`
			Humidity    float64 `json:"relative_humidity_2m"`
			WindSpeed   float64 `json:"wind_speed_10m"`
			Precip      float64 `json:"precipitation"`
			Pressure    float64 `json:"surface_pressure"`
			WeatherCode int     `json:"weather_code"`
		} `json:"current"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.ProviderReading{}, err
	}

	ts, err := time.Parse("2006-01-02T15:04", payload.Current.Time)
	if err != nil {
		ts = time.Now().UTC()
	}

	return weather.ProviderReading{
		ProviderName: p.name,
		Timestamp:    ts.UTC(),
		TemperatureC: payload.Current.Temperature,
		HumidityPct:  payload.Current.Humidity,
		WindSpeedMS:  payload.Current.WindSpeed,
		PressureHpa:  payload.Current.Pressure,
		PrecipMm:     payload.Current.Precip,
		Condition:    mapOpenMeteoCondition(payload.Current.WeatherCode),
	}, nil
}

// FetchForecast returns one reading per day using the daily mean of the
// min and max temperatures.
func (p *OpenMeteoProvider) FetchForecast(ctx context.Context, loc weather.Location, days int) ([]weather.ProviderReading, error) {
	c, err := p.coordinates(ctx, loc)
	if err != nil {
		return nil, err
	}

	values := p.values(c)
	values.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum,wind_speed_10m_max,weather_code")
	values.Set("forecast_days", strconv.Itoa(days))

	resp, err := p.get(ctx, p.baseURL+"?"+values.Encode(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Daily struct {
			Time    []string  `json:"time"`
			TempMax []float64 `json:"temperature_2m_max"`
			TempMin []float64 `json:"temperature_2m_min"`
			Precip  []float64 `json:"precipitation_sum"`
			WindMax []float64 `json:"wind_speed_10m_max"`
			Code    []int     `json:"weather_code"`
		} `json:"daily"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	d := payload.Daily
	out := make([]weather.ProviderReading, 0, len(d.Time))
	for i, day := range d.Time {
		ts, err := time.Parse("2006-01-02", day)
		if err != nil {
			continue
		}
		r := weather.ProviderReading{ProviderName: p.name, Timestamp: ts, Condition: weather.ConditionUnknown}
		if i < len(d.TempMax) && i < len(d.TempMin) {
			r.TemperatureC = (d.TempMax[i] + d.TempMin[i]) / 2
		}
		if i < len(d.Precip) {
			r.PrecipMm = d.Precip[i]
		}
		if i < len(d.WindMax) {
			r.WindSpeedMS = d.WindMax[i]
		}
		if i < len(d.Code) {
			r.Condition = mapOpenMeteoCondition(d.Code[i])
		}
		out = append(out, r)
	}
	return out, nil
}

// mapOpenMeteoCondition maps WMO weather codes.
func mapOpenMeteoCondition(code int) weather.Condition {
	switch {
	case code == 0:
		return weather.ConditionClear
	case code >= 1 && code <= 3:
		return weather.ConditionCloudy
	case code == 45 || code == 48:
		return weather.ConditionMist
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return weather.ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return weather.ConditionSnow
	case code >= 95:
		return weather.ConditionStorm
	default:
		return weather.ConditionUnknown
	}
}
