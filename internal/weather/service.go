package weather

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Service orchestrates fetching from multiple providers and persisting snapshots.
type Service struct {
	store     Store
	providers []Provider
	logger    *slog.Logger
	observer  FetchObserver
	now       func() time.Time
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver reports every provider call to o.
func WithObserver(o FetchObserver) ServiceOption {
	return func(s *Service) { s.observer = o }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a new Service.
func NewService(store Store, providers []Provider, opts ...ServiceOption) *Service {
	s := &Service{
		store:     store,
		providers: providers,
		logger:    slog.New(slog.DiscardHandler),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchAndStore fetches data from all providers concurrently for the given location,
// aggregates successful readings, and stores a snapshot. When every provider
// fails the last good snapshot is kept and nil is returned.
func (s *Service) FetchAndStore(ctx context.Context, loc Location) error {
	if len(s.providers) == 0 {
		return ErrNoProviders
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		readings []ProviderReading
	)

	s.logger.Debug("weather: fetching", "location", loc.Key(), "providers", len(s.providers))

	for _, p := range s.providers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			start := time.Now()
			r, err := p.Fetch(ctx, loc)
			if s.observer != nil {
				s.observer.ObserveFetch(p.Name(), err, time.Since(start))
			}
			if err != nil {
				// Partial success is fine; unsupported locations are expected.
				if !errors.Is(err, ErrUnsupportedLocation) {
					s.logger.Warn("weather: provider fetch failed", "provider", p.Name(), "location", loc.Key(), "error", err)
				}
				return
			}

			mu.Lock()
			readings = append(readings, r)
			mu.Unlock()
		}()
	}

	wg.Wait()

	if len(readings) == 0 {
		s.logger.Info("weather: no successful readings, keeping last good snapshot", "location", loc.Key())
		return nil
	}

	// Provider goroutines finish in any order.
	sort.Slice(readings, func(i, j int) bool { return readings[i].ProviderName < readings[j].ProviderName })

	snapshot := AggregateReadings(loc, readings)
	if snapshot.Timestamp.IsZero() {
		snapshot.Timestamp = s.now().UTC()
	}
	s.store.SaveSnapshot(loc, snapshot)
	return nil
}

// GetForecast fetches multi-day forecasts from providers that support it,
// aggregates them per day, and returns at most days entries.
func (s *Service) GetForecast(ctx context.Context, loc Location, days int) (Forecast, error) {
	if days <= 0 {
		return nil, ErrInvalidDays
	}

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		dayReadings = make(map[string][]ProviderReading)
	)

	for _, p := range s.providers {
		fp, ok := p.(ForecastProvider)
		if !ok {
			continue
		}
		name := p.Name()

		wg.Add(1)
		go func() {
			defer wg.Done()

			readings, err := fp.FetchForecast(ctx, loc, days)
			if err != nil {
				if !errors.Is(err, ErrUnsupportedLocation) {
					s.logger.Warn("weather: provider forecast failed", "provider", name, "location", loc.Key(), "error", err)
				}
				return
			}

			mu.Lock()
			defer mu.Unlock()
			for _, r := range readings {
				k := r.Timestamp.UTC().Format("2006-01-02")
				dayReadings[k] = append(dayReadings[k], r)
			}
		}()
	}

	wg.Wait()

	if len(dayReadings) == 0 {
		return nil, ErrNoForecast
	}

	keys := make([]string, 0, len(dayReadings))
	for k := range dayReadings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	forecast := make(Forecast, 0, days)
	for _, k := range keys {
		if len(forecast) >= days {
			break
		}
		readings := dayReadings[k]
		sort.Slice(readings, func(i, j int) bool { return readings[i].ProviderName < readings[j].ProviderName })

		snapshot := AggregateReadings(loc, readings)
		day, _ := time.Parse("2006-01-02", k)
		snapshot.Timestamp = day
		forecast = append(forecast, snapshot)
	}

	return forecast, nil
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest(loc Location) (WeatherSnapshot, error) {
	return s.store.GetLatest(loc)
}

// GetRange delegates to the underlying store.
func (s *Service) GetRange(loc Location, from, to time.Time) ([]WeatherSnapshot, error) {
	return s.store.GetRange(loc, from, to)
}

// Outlook looks back over the last day of stored snapshots for loc and
// reports how long ago it last rained.
func (s *Service) Outlook(loc Location, now time.Time) Outlook {
	snaps, err := s.store.GetRange(loc, now.Add(-24*time.Hour), now)
	if err != nil || len(snaps) == 0 {
		return Outlook{}
	}
	return OutlookFromHistory(snaps, now)
}
