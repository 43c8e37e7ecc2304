package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/i474232898/lawn-manager/internal/weather"
)

const namespace = "lawn_manager"

// Label values.
const (
	OutcomeOK          = "ok"
	OutcomeFailed      = "failed"
	OutcomeUnsupported = "unsupported"

	EquipmentOther = "other"
)

// EquipmentLabel folds a caller-supplied equipment type into the fixed
// label set sprayer, spreader and other.
func EquipmentLabel(equipmentType string) string {
	switch equipmentType {
	case "sprayer", "spreader":
		return equipmentType
	default:
		return EquipmentOther
	}
}

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Domain Metrics
var (
	RateCalculations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_calculations_total",
			Help:      "Rate calculations by equipment type and outcome (ok or failure reason)",
		},
		[]string{"equipment_type", "outcome"},
	)

	SeasonalSummaries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seasonal_summaries_total",
			Help:      "Seasonal summaries produced by season type",
		},
		[]string{"season_type"},
	)

	ApplicationsLogged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "applications_logged_total",
			Help:      "Chemical applications recorded",
		},
		[]string{"method"},
	)

	MowsLogged = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mows_logged_total",
			Help:      "Mowing events recorded",
		},
	)

	SummariesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_published_total",
			Help:      "Zone summaries published over MQTT",
		},
		[]string{"outcome"},
	)
)

// Weather Metrics
var (
	WeatherFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_fetches_total",
			Help:      "Weather provider calls by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	WeatherFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "weather_fetch_duration_seconds",
			Help:      "Weather provider call latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider"},
	)
)

// WeatherObserver records provider calls. It satisfies weather.FetchObserver.
type WeatherObserver struct{}

func (WeatherObserver) ObserveFetch(provider string, err error, elapsed time.Duration) {
	outcome := OutcomeOK
	switch {
	case errors.Is(err, weather.ErrUnsupportedLocation):
		outcome = OutcomeUnsupported
	case err != nil:
		outcome = OutcomeFailed
	}
	WeatherFetches.WithLabelValues(provider, outcome).Inc()
	if outcome != OutcomeUnsupported {
		WeatherFetchDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
	}
}

// Middleware collects HTTP request metrics labelled by route template.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		route := c.Route().Path
		HTTPRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}
