// Package lawn manages zones, equipment and the application and mowing
// history recorded against them, and assembles each zone's seasonal summary.
package lawn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/i474232898/lawn-manager/internal/metrics"
	"github.com/i474232898/lawn-manager/internal/rate"
	"github.com/i474232898/lawn-manager/internal/reference"
	"github.com/i474232898/lawn-manager/internal/season"
	"github.com/i474232898/lawn-manager/internal/weather"
)

// ErrNoCalculation is returned by LastCalculation when nothing is cached.
var ErrNoCalculation = errors.New("no calculation for zone")

// DefaultRateCacheTTL bounds how long the last calculation per zone is kept.
const DefaultRateCacheTTL = 24 * time.Hour

// WeatherReader is the part of weather.Service the lawn service reads.
type WeatherReader interface {
	GetLatest(loc weather.Location) (weather.WeatherSnapshot, error)
	FetchAndStore(ctx context.Context, loc weather.Location) error
	Outlook(loc weather.Location, now time.Time) weather.Outlook
}

// Publisher receives serialized zone summaries.
type Publisher interface {
	Publish(ctx context.Context, zoneID string, payload []byte) error
}

// Service coordinates the repository, the calculators and weather.
type Service struct {
	repo       Repository
	tables     *reference.Tables
	calculator *rate.Calculator
	advisor    *season.Advisor
	weather    WeatherReader
	publisher  Publisher
	logger     *slog.Logger
	now        func() time.Time
	rates      *cache.Cache
	tracked    []weather.Location
}

// Option customizes a Service.
type Option func(*Service)

// WithWeather enables live conditions in summaries.
func WithWeather(w WeatherReader) Option {
	return func(s *Service) { s.weather = w }
}

// WithPublisher enables PublishSummaries.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRateCacheTTL sets how long CalculateForZone results are remembered.
func WithRateCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.rates = cache.New(ttl, 2*ttl)
		}
	}
}

// WithTrackedLocations adds locations refreshed even when no zone uses them.
func WithTrackedLocations(locs []weather.Location) Option {
	return func(s *Service) { s.tracked = append(s.tracked, locs...) }
}

// NewService builds a Service over repo using the given reference tables.
func NewService(repo Repository, tables *reference.Tables, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		tables:     tables,
		calculator: rate.NewCalculator(tables),
		logger:     slog.New(slog.DiscardHandler),
		now:        time.Now,
		rates:      cache.New(DefaultRateCacheTTL, 2*DefaultRateCacheTTL),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.advisor = season.NewAdvisor(tables, s.logger)
	return s
}

// Tables exposes the reference data the service was built with.
func (s *Service) Tables() *reference.Tables { return s.tables }

// Advise runs the seasonal advisor for an ad hoc input.
func (s *Service) Advise(in season.Input) season.Report {
	r := s.advisor.Summarize(in)
	metrics.SeasonalSummaries.WithLabelValues(r.SeasonType).Inc()
	return r
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

// today is the current calendar date at midnight UTC.
func (s *Service) today() time.Time {
	return dateOnly(s.now())
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CreateZone validates in, fills defaults and stores a new zone.
func (s *Service) CreateZone(ctx context.Context, in ZoneInput) (Zone, error) {
	if err := s.checkZone(in); err != nil {
		return Zone{}, err
	}
	now := s.now().UTC()
	z := applyZoneInput(Zone{ID: uuid.NewString(), CreatedAt: now}, in)
	z.UpdatedAt = now
	if err := s.repo.CreateZone(ctx, z); err != nil {
		return Zone{}, err
	}
	s.logger.Info("lawn: zone created", "zone", z.ID, "name", z.Name, "grass", z.GrassType)
	return z, nil
}

// UpdateZone replaces a zone's settings, keeping its id and creation time.
func (s *Service) UpdateZone(ctx context.Context, id string, in ZoneInput) (Zone, error) {
	if err := s.checkZone(in); err != nil {
		return Zone{}, err
	}
	existing, err := s.repo.GetZone(ctx, id)
	if err != nil {
		return Zone{}, err
	}
	z := applyZoneInput(existing, in)
	z.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdateZone(ctx, z); err != nil {
		return Zone{}, err
	}
	s.rates.Delete(id)
	return z, nil
}

// DeleteZone removes a zone and its history.
func (s *Service) DeleteZone(ctx context.Context, id string) error {
	if err := s.repo.DeleteZone(ctx, id); err != nil {
		return err
	}
	s.rates.Delete(id)
	s.logger.Info("lawn: zone deleted", "zone", id)
	return nil
}

func (s *Service) GetZone(ctx context.Context, id string) (Zone, error) {
	return s.repo.GetZone(ctx, id)
}

func (s *Service) ListZones(ctx context.Context) ([]Zone, error) {
	return s.repo.ListZones(ctx)
}

func (s *Service) checkZone(in ZoneInput) error {
	if err := validate.Struct(in); err != nil {
		return invalid(err)
	}
	if !s.tables.HasGrass(in.GrassType) {
		return fmt.Errorf("%w: unknown grass type %q", ErrInvalidInput, in.GrassType)
	}
	return nil
}

func applyZoneInput(z Zone, in ZoneInput) Zone {
	z.Name = strings.TrimSpace(in.Name)
	z.AreaSqFt = in.AreaSqFt
	z.GrassType = strings.TrimSpace(in.GrassType)
	z.Location = strings.TrimSpace(in.Location)
	z.Weather = in.Weather
	z.MowIntervalDays = in.MowIntervalDays
	if z.MowIntervalDays == 0 {
		z.MowIntervalDays = DefaultMowIntervalDays
	}
	z.HeightOfCutIn = in.HeightOfCutIn
	if z.HeightOfCutIn == 0 {
		z.HeightOfCutIn = DefaultHeightOfCutIn
	}
	return z
}

// AddEquipment validates and stores an applicator.
func (s *Service) AddEquipment(ctx context.Context, in EquipmentInput) (Equipment, error) {
	if err := validate.Struct(in); err != nil {
		return Equipment{}, invalid(err)
	}
	e := Equipment{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Type:      in.Type,
		Brand:     strings.TrimSpace(in.Brand),
		Capacity:  in.Capacity,
		Unit:      in.Unit,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.CreateEquipment(ctx, e); err != nil {
		return Equipment{}, err
	}
	return e, nil
}

func (s *Service) ListEquipment(ctx context.Context) ([]Equipment, error) {
	return s.repo.ListEquipment(ctx)
}

func (s *Service) DeleteEquipment(ctx context.Context, id string) error {
	return s.repo.DeleteEquipment(ctx, id)
}
