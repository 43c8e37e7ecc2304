package httpapi

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/lawn-manager/internal/lawn"
	"github.com/i474232898/lawn-manager/internal/metrics"
	"github.com/i474232898/lawn-manager/internal/store"
	"github.com/i474232898/lawn-manager/internal/weather"
)

const serviceName = "lawn-manager"

var validate = validator.New()

// Deps are the services the handlers call.
type Deps struct {
	Lawn    *lawn.Service
	Weather *weather.Service
}

// NewApp builds the Fiber app with the shared error handler, panic recovery
// and request metrics.
func NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})
	app.Use(recover.New())
	app.Use(metrics.Middleware())
	return app
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": serviceName,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/api/v1")
	if deps.Lawn != nil {
		registerReference(v1, deps.Lawn)
		registerZones(v1, deps.Lawn)
		registerEquipment(v1, deps.Lawn)
	}
	if deps.Weather != nil {
		registerWeather(v1, deps.Weather)
	}
}

// statusError maps service errors onto HTTP errors.
func statusError(err error) error {
	switch {
	case errors.Is(err, lawn.ErrZoneNotFound),
		errors.Is(err, lawn.ErrEquipmentNotFound),
		errors.Is(err, lawn.ErrNoCalculation),
		errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, lawn.ErrInvalidInput),
		errors.Is(err, lawn.ErrInvalidDate),
		errors.Is(err, weather.ErrInvalidDays):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, weather.ErrNoProviders),
		errors.Is(err, weather.ErrNoForecast):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

func badRequest(err error) error {
	return fiber.NewError(fiber.StatusBadRequest, err.Error())
}

// bindJSON parses and validates the request body into v.
func bindJSON(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return badRequest(err)
	}
	if err := validate.Struct(v); err != nil {
		return badRequest(err)
	}
	return nil
}
