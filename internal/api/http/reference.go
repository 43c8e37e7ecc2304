package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/lawn-manager/internal/lawn"
	"github.com/i474232898/lawn-manager/internal/rate"
	"github.com/i474232898/lawn-manager/internal/season"
)

type rateRequest struct {
	Chemical      string             `json:"chemical" validate:"required"`
	EquipmentType rate.EquipmentType `json:"equipmentType" validate:"required"`
	Capacity      float64            `json:"capacity" validate:"gt=0"`
	CapacityUnit  rate.CapacityUnit  `json:"capacityUnit" validate:"required"`
	AreaSqFt      int                `json:"areaSqFt" validate:"gt=0"`
}

type seasonRequest struct {
	GrassType string                        `json:"grassType" validate:"required"`
	Location  string                        `json:"location"`
	Date      string                        `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Weather   *season.Conditions            `json:"weather"`
	History   map[string]season.LastApplied `json:"history"`
}

func registerReference(v1 fiber.Router, svc *lawn.Service) {
	v1.Get("/chemicals", func(c *fiber.Ctx) error {
		return c.JSON(svc.Tables().Chemicals())
	})

	v1.Get("/grasses", func(c *fiber.Ctx) error {
		return c.JSON(svc.Tables().Grasses())
	})

	v1.Post("/rate", func(c *fiber.Ctx) error {
		var req rateRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		eq := rate.Equipment{Type: req.EquipmentType, Capacity: req.Capacity, Unit: req.CapacityUnit}
		res, err := svc.Calculate(req.Chemical, eq, req.AreaSqFt)
		if err != nil {
			return statusError(err)
		}
		return rateResponse(c, res)
	})

	v1.Get("/season", func(c *fiber.Ctx) error {
		req, err := seasonFromQuery(c)
		if err != nil {
			return badRequest(err)
		}
		if err := validate.Struct(req); err != nil {
			return badRequest(err)
		}
		return seasonReport(c, svc, req)
	})

	v1.Post("/season", func(c *fiber.Ctx) error {
		var req seasonRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		return seasonReport(c, svc, req)
	})
}

// rateResponse answers 200 for a successful calculation and 422 with the
// same body when the calculator reports a failure.
func rateResponse(c *fiber.Ctx, res rate.Result) error {
	if !res.OK() {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(res)
	}
	return c.JSON(res)
}

func seasonFromQuery(c *fiber.Ctx) (seasonRequest, error) {
	req := seasonRequest{
		GrassType: c.Query("grass"),
		Location:  c.Query("location"),
		Date:      c.Query("date"),
	}
	if raw := c.Query("tempF"); raw != "" {
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, errors.New("tempF must be a number")
		}
		req.Weather = &season.Conditions{TemperatureF: t}
		if req.Weather.HumidityPct, err = queryFloat(c, "humidity"); err != nil {
			return req, err
		}
		if req.Weather.WindMph, err = queryFloat(c, "windMph"); err != nil {
			return req, err
		}
	}
	return req, nil
}

func seasonReport(c *fiber.Ctx, svc *lawn.Service, req seasonRequest) error {
	var asOf time.Time
	if req.Date != "" {
		d, err := time.Parse(lawn.DateLayout, req.Date)
		if err != nil {
			return badRequest(err)
		}
		asOf = d
	}
	report := svc.Advise(season.Input{
		GrassType: req.GrassType,
		Location:  req.Location,
		AsOf:      asOf,
		Weather:   req.Weather,
		History:   req.History,
	})
	return c.JSON(report)
}
