package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/lawn-manager/internal/api/http"
	"github.com/i474232898/lawn-manager/internal/config"
	"github.com/i474232898/lawn-manager/internal/lawn"
	"github.com/i474232898/lawn-manager/internal/logger"
	"github.com/i474232898/lawn-manager/internal/metrics"
	"github.com/i474232898/lawn-manager/internal/publish"
	"github.com/i474232898/lawn-manager/internal/scheduler"
	"github.com/i474232898/lawn-manager/internal/store"
	"github.com/i474232898/lawn-manager/internal/weather"
	"github.com/i474232898/lawn-manager/internal/weather/providers"
)

// mqttStartupWait bounds how long serve waits for the broker before it
// starts listening.
const mqttStartupWait = 5 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, weather scheduler and MQTT publisher",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	slog.SetDefault(log)

	tables, err := tablesFrom(cmd, cfg.ReferenceFile)
	if err != nil {
		return err
	}

	// Weather snapshots always live in memory with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	var repo lawn.Repository = memStore
	if cfg.StoreDriver == config.DriverSQLite {
		sqlStore, err := store.OpenSQLite(cfg.SQLitePath, log)
		if err != nil {
			return err
		}
		defer sqlStore.Close()
		repo = sqlStore
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	provs := buildProviders(cfg, httpClient, log)

	weatherSvc := weather.NewService(memStore, provs,
		weather.WithLogger(log),
		weather.WithObserver(metrics.WeatherObserver{}),
	)

	opts := []lawn.Option{
		lawn.WithWeather(weatherSvc),
		lawn.WithLogger(log),
		lawn.WithRateCacheTTL(cfg.RateCacheTTL),
		lawn.WithTrackedLocations(cfg.Locations),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MQTTBroker != "" {
		pub := publish.NewMQTT(publish.Config{
			Broker:      cfg.MQTTBroker,
			Username:    cfg.MQTTUsername,
			Password:    cfg.MQTTPassword,
			TopicPrefix: cfg.MQTTTopicPrefix,
		}, log)
		defer pub.Close()

		connectCtx, cancel := context.WithTimeout(ctx, mqttStartupWait)
		if err := pub.Connect(connectCtx); err != nil {
			log.Warn("mqtt not connected yet; retrying in background", "broker", cfg.MQTTBroker, "error", err)
		}
		cancel()
		opts = append(opts, lawn.WithPublisher(pub))
	}

	lawnSvc := lawn.NewService(repo, tables, opts...)

	// Scheduler that periodically refreshes weather and publishes summaries.
	sched := scheduler.New(lawnSvc, cfg.FetchInterval, log)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	app := httpapi.NewApp()
	app.Use(fiberlogger.New())
	httpapi.RegisterRoutes(app, httpapi.Deps{Lawn: lawnSvc, Weather: weatherSvc})

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "port", cfg.Port, "providers", len(provs), "store", cfg.StoreDriver)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("fiber server stopped: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", "error", err)
	}
	return nil
}

// buildProviders enables every provider that has what it needs to run.
// Open-Meteo needs no key; without a geocoder key it serves coordinate
// locations only.
func buildProviders(cfg *config.AppConfig, client *http.Client, log *slog.Logger) []weather.Provider {
	var provs []weather.Provider
	if cfg.OpenWeatherAPIKey != "" {
		provs = append(provs, providers.NewOpenWeatherProvider(client, cfg.OpenWeatherAPIKey))
	}
	if cfg.WeatherAPIKey != "" {
		provs = append(provs, providers.NewWeatherAPIProvider(client, cfg.WeatherAPIKey))
	}
	provs = append(provs, providers.NewOpenMeteoProvider(client, providers.GoogleGeocoder(cfg.GeocoderAPIKey)))
	if cfg.HAURL != "" && cfg.HAToken != "" {
		provs = append(provs, providers.NewHomeAssistantProvider(client, cfg.HAURL, cfg.HAToken))
	}

	names := make([]string, 0, len(provs))
	for _, p := range provs {
		names = append(names, p.Name())
	}
	log.Info("weather providers configured", "providers", names)
	return provs
}
