package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/lawn-manager/internal/store"
	"github.com/i474232898/lawn-manager/internal/weather"
)

func registerWeather(v1 fiber.Router, service *weather.Service) {
	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		loc, err := parseLocationQuery(c)
		if err != nil {
			return badRequest(err)
		}

		snapshot, err := service.GetLatest(loc)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather data for requested location")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
		}

		return c.JSON(snapshot)
	})

	v1.Get("/weather/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return badRequest(err)
		}

		if err := validate.Struct(req); err != nil {
			return badRequest(err)
		}

		snapshots, err := service.GetRange(req.Location, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather history")
		}

		return c.JSON(fiber.Map{
			"location":  req.Location,
			"from":      req.From,
			"to":        req.To,
			"snapshots": snapshots,
		})
	})

	v1.Get("/weather/forecast", func(c *fiber.Ctx) error {
		loc, err := parseLocationQuery(c)
		if err != nil {
			return badRequest(err)
		}
		q := forecastQuery{Days: c.QueryInt("days", 0)}
		if err := validate.Struct(q); err != nil {
			return badRequest(err)
		}

		forecast, err := service.GetForecast(c.UserContext(), loc, q.Days)
		if err != nil {
			return statusError(err)
		}
		return c.JSON(fiber.Map{
			"location": loc,
			"days":     q.Days,
			"forecast": forecast,
		})
	})
}

// locationQuery holds query parameters for identifying a location: a city
// and country, a coordinate pair, or a Home Assistant weather entity.
type locationQuery struct {
	City     string   `validate:"required_with=Country"`
	Country  string   `validate:"required_with=City"`
	Lat      *float64 `validate:"omitempty,gte=-90,lte=90"`
	Lon      *float64 `validate:"omitempty,gte=-180,lte=180"`
	EntityID string   `validate:"omitempty,startswith=weather."`
}

func (l locationQuery) toLocation() weather.Location {
	return weather.Location{
		City:     l.City,
		Country:  l.Country,
		Lat:      l.Lat,
		Lon:      l.Lon,
		EntityID: l.EntityID,
	}
}

func queryFloat(c *fiber.Ctx, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errors.New(key + " must be a number")
	}
	return &v, nil
}

func parseLocationQuery(c *fiber.Ctx) (weather.Location, error) {
	q := locationQuery{
		City:     c.Query("city"),
		Country:  c.Query("country"),
		EntityID: c.Query("entity"),
	}
	var err error
	if q.Lat, err = queryFloat(c, "lat"); err != nil {
		return weather.Location{}, err
	}
	if q.Lon, err = queryFloat(c, "lon"); err != nil {
		return weather.Location{}, err
	}

	if (q.Lat == nil) != (q.Lon == nil) {
		return weather.Location{}, errors.New("lat and lon must be given together")
	}
	if err := validate.Struct(q); err != nil {
		return weather.Location{}, err
	}

	loc := q.toLocation()
	if loc.IsZero() {
		return weather.Location{}, errors.New("city and country, lat and lon, or entity is required")
	}
	return loc, nil
}

type forecastQuery struct {
	Days int `validate:"required,min=1,max=7"`
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Location weather.Location `validate:"-"`
	From     time.Time        `validate:"required"`
	To       time.Time        `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	loc, err := parseLocationQuery(c)
	if err != nil {
		return err
	}
	h.Location = loc

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
