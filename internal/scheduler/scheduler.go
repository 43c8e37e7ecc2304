package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/lawn-manager/internal/weather"
)

// DefaultInterval is used when no positive interval is configured.
const DefaultInterval = 15 * time.Minute

const (
	// fetchTimeout bounds each location's refresh.
	fetchTimeout = 30 * time.Second
	// maxConcurrentFetches caps provider calls in flight per tick.
	maxConcurrentFetches = 4
)

// Refresher is the work the scheduler drives on every tick.
type Refresher interface {
	WeatherLocations(ctx context.Context) ([]weather.Location, error)
	RefreshWeather(ctx context.Context, loc weather.Location) error
	PublishSummaries(ctx context.Context) error
}

// Scheduler periodically refreshes weather for every zone location and then
// publishes zone summaries.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler. A nil logger discards output.
func New(refresher Refresher, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		refresher: refresher,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the periodic job, runs it once immediately and starts the
// underlying scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).Do(func() {
		s.runOnce(context.Background())
	})
	if err != nil {
		return err
	}
	s.scheduler.StartAsync()
	s.logger.Info("scheduler: started", "interval", s.interval)
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	s.logger.Debug("scheduler: running refresh job")

	locs, err := s.refresher.WeatherLocations(ctx)
	if err != nil {
		s.logger.Error("scheduler: list locations failed", "error", err)
		return
	}

	var failed atomic.Int32
	var g errgroup.Group
	g.SetLimit(maxConcurrentFetches)
	for _, loc := range locs {
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
			defer cancel()

			if err := s.refresher.RefreshWeather(fetchCtx, loc); err != nil {
				failed.Add(1)
				s.logger.Warn("scheduler: fetch failed", "location", loc.Key(), "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := s.refresher.PublishSummaries(ctx); err != nil {
		s.logger.Warn("scheduler: publish failed", "error", err)
	}
	s.logger.Debug("scheduler: completed refresh job", "locations", len(locs), "failed", failed.Load())
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
