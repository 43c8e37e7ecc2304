package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/i474232898/lawn-manager/internal/common"
	"github.com/i474232898/lawn-manager/internal/weather"
)

// WeatherAPIProvider implements weather.Provider and weather.ForecastProvider
// for WeatherAPI.com.
type WeatherAPIProvider struct {
	base
	apiKey string
}

func NewWeatherAPIProvider(client *http.Client, apiKey string, opts ...Option) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		base:   newBase("weatherapi", "https://api.weatherapi.com/v1", client, opts),
		apiKey: apiKey,
	}
}

// query builds the "q" parameter; WeatherAPI accepts "city,country" or "lat,lon".
func (p *WeatherAPIProvider) query(loc weather.Location) (string, error) {
	switch {
	case loc.HasCoordinates():
		return fmt.Sprintf("%f,%f", *loc.Lat, *loc.Lon), nil
	case loc.City != "":
		return cityQuery(loc.City, loc.Country), nil
	default:
		return "", weather.ErrUnsupportedLocation
	}
}

type weatherAPICondition struct {
	Text string `json:"text"`
}

func (p *WeatherAPIProvider) Fetch(ctx context.Context, loc weather.Location) (weather.ProviderReading, error) {
	if p.apiKey == "" {
		return weather.ProviderReading{}, fmt.Errorf("%w: weatherapi api key", ErrNotConfigured)
	}
	q, err := p.query(loc)
	if err != nil {
		return weather.ProviderReading{}, err
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	values.Set("q", q)

	resp, err := p.get(ctx, p.baseURL+"/current.json?"+values.Encode(), nil)
	if err != nil {
		return weather.ProviderReading{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Location struct {
			LocaltimeEpoch int64 `json:"localtime_epoch"`
		} `json:"location"`
		Current struct {
			LastUpdatedEpoch int64               `json:"last_updated_epoch"`
			TempC            float64             `json:"temp_c"`
			Humidity         float64             `json:"humidity"`
			WindKph          float64             `json:"wind_kph"`
			PressureMb       float64             `json:"pressure_mb"`
			PrecipMm         float64             `json:"precip_mm"`
			Condition        weatherAPICondition `json:"condition"`
		} `json:"current"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.ProviderReading{}, err
	}

	ts := payload.Current.LastUpdatedEpoch
	if ts == 0 {
		ts = payload.Location.LocaltimeEpoch
	}

	return weather.ProviderReading{
		ProviderName: p.name,
		Timestamp:    unixOrNow(ts),
		TemperatureC: payload.Current.TempC,
		HumidityPct:  payload.Current.Humidity,
		WindSpeedMS:  payload.Current.WindKph / 3.6,
		PressureHpa:  payload.Current.PressureMb,
		PrecipMm:     payload.Current.PrecipMm,
		Condition:    mapWeatherAPICondition(payload.Current.Condition.Text),
	}, nil
}

// FetchForecast returns one reading per forecast day.
func (p *WeatherAPIProvider) FetchForecast(ctx context.Context, loc weather.Location, days int) ([]weather.ProviderReading, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: weatherapi api key", ErrNotConfigured)
	}
	q, err := p.query(loc)
	if err != nil {
		return nil, err
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	values.Set("q", q)
	values.Set("days", strconv.Itoa(days))

	resp, err := p.get(ctx, p.baseURL+"/forecast.json?"+values.Encode(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Forecast struct {
			ForecastDay []struct {
				DateEpoch int64 `json:"date_epoch"`
				Day       struct {
					AvgTempC     float64             `json:"avgtemp_c"`
					AvgHumidity  float64             `json:"avghumidity"`
					MaxWindKph   float64             `json:"maxwind_kph"`
					TotalPrecipM float64             `json:"totalprecip_mm"`
					Condition    weatherAPICondition `json:"condition"`
				} `json:"day"`
			} `json:"forecastday"`
		} `json:"forecast"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	out := make([]weather.ProviderReading, 0, len(payload.Forecast.ForecastDay))
	for _, d := range payload.Forecast.ForecastDay {
		out = append(out, weather.ProviderReading{
			ProviderName: p.name,
			Timestamp:    unixOrNow(d.DateEpoch),
			TemperatureC: d.Day.AvgTempC,
			HumidityPct:  d.Day.AvgHumidity,
			WindSpeedMS:  d.Day.MaxWindKph / 3.6,
			PrecipMm:     d.Day.TotalPrecipM,
			Condition:    mapWeatherAPICondition(d.Day.Condition.Text),
		})
	}
	return out, nil
}

func mapWeatherAPICondition(text string) weather.Condition {
	t := strings.ToLower(text)
	switch {
	case t == "":
		return weather.ConditionUnknown
	case common.HasAny(t, "thunder", "storm"):
		return weather.ConditionStorm
	case common.HasAny(t, "snow", "sleet", "blizzard", "ice pellets"):
		return weather.ConditionSnow
	case common.HasAny(t, "rain", "shower", "drizzle"):
		return weather.ConditionRain
	case common.HasAny(t, "mist", "fog"):
		return weather.ConditionMist
	case common.HasAny(t, "cloud", "overcast"):
		return weather.ConditionCloudy
	case common.HasAny(t, "sunny", "clear"):
		return weather.ConditionClear
	default:
		return weather.ConditionUnknown
	}
}
