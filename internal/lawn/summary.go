package lawn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/i474232898/lawn-manager/internal/metrics"
	"github.com/i474232898/lawn-manager/internal/rate"
	"github.com/i474232898/lawn-manager/internal/season"
	"github.com/i474232898/lawn-manager/internal/sun"
	"github.com/i474232898/lawn-manager/internal/weather"
)

// ApplicationStatus is the latest application of one chemical and when it
// can next go down.
type ApplicationStatus struct {
	Chemical     string              `json:"chemical"`
	LastApplied  string              `json:"lastApplied"`
	NextDue      string              `json:"nextDue"`
	DaysUntilDue int                 `json:"daysUntilDue"`
	Due          bool                `json:"due"`
	Conditions   weather.Suitability `json:"conditions"`
}

// Summary is everything known about a zone on one day.
type Summary struct {
	Zone            Zone                     `json:"zone"`
	AsOf            string                   `json:"asOf"`
	Season          season.Report            `json:"season"`
	Mow             MowStatus                `json:"mow"`
	Weather         *weather.WeatherSnapshot `json:"weather,omitempty"`
	Mowing          weather.Suitability      `json:"mowingConditions"`
	Applications    []ApplicationStatus      `json:"applications"`
	SprayWindows    *sun.Windows             `json:"sprayWindows,omitempty"`
	LastCalculation *rate.Result             `json:"lastCalculation,omitempty"`
}

// Summary builds the zone's report as of asOf. A zero asOf means now.
func (s *Service) Summary(ctx context.Context, zoneID string, asOf time.Time) (Summary, error) {
	z, err := s.repo.GetZone(ctx, zoneID)
	if err != nil {
		return Summary{}, err
	}
	if asOf.IsZero() {
		asOf = s.now()
	}
	day := dateOnly(asOf)

	recs, err := s.repo.ListApplications(ctx, zoneID)
	if err != nil {
		return Summary{}, err
	}
	latest := latestByChemical(recs)
	history := make(map[string]season.LastApplied, len(latest))
	for _, r := range latest {
		history[r.Chemical] = season.LastApplied{Date: r.AppliedOn.Format(DateLayout)}
	}

	loc := z.Weather.Location()
	snap := s.latestWeather(loc)
	var cond *season.Conditions
	if snap != nil {
		humidity, wind := snap.Humidity, snap.WindMph()
		cond = &season.Conditions{TemperatureF: snap.TemperatureF(), HumidityPct: &humidity, WindMph: &wind}
	}

	report := s.Advise(season.Input{
		GrassType: z.GrassType,
		Location:  z.Location,
		AsOf:      day,
		Weather:   cond,
		History:   history,
	})

	mow, err := s.mowStatus(ctx, z, asOf)
	if err != nil {
		return Summary{}, err
	}

	var outlook weather.Outlook
	if s.weather != nil && !loc.IsZero() {
		outlook = s.weather.Outlook(loc, asOf)
	}

	sum := Summary{
		Zone:         z,
		AsOf:         day.Format(DateLayout),
		Season:       report,
		Mow:          mow,
		Weather:      snap,
		Mowing:       weather.ForMowing(snap, outlook),
		Applications: applicationStatuses(latest, snap, day),
	}

	if loc.HasCoordinates() {
		w, err := sun.SprayWindows(*loc.Lat, *loc.Lon, day)
		if err != nil {
			s.logger.Debug("lawn: no spray window", "zone", zoneID, "error", err)
		} else {
			sum.SprayWindows = &w
		}
	}

	if v, ok := s.rates.Get(zoneID); ok {
		res := v.(rate.Result)
		sum.LastCalculation = &res
	}
	return sum, nil
}

func (s *Service) latestWeather(loc weather.Location) *weather.WeatherSnapshot {
	if s.weather == nil || loc.IsZero() {
		return nil
	}
	snap, err := s.weather.GetLatest(loc)
	if err != nil {
		return nil
	}
	return &snap
}

func applicationStatuses(latest map[string]ApplicationRecord, snap *weather.WeatherSnapshot, day time.Time) []ApplicationStatus {
	out := make([]ApplicationStatus, 0, len(latest))
	for _, r := range latest {
		due := dateOnly(r.NextDue())
		until := int(due.Sub(day).Hours() / 24)
		out = append(out, ApplicationStatus{
			Chemical:     r.Chemical,
			LastApplied:  r.AppliedOn.Format(DateLayout),
			NextDue:      due.Format(DateLayout),
			DaysUntilDue: until,
			Due:          until <= 0,
			Conditions:   weather.ForChemical(snap, r.Chemical),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Chemical < out[j].Chemical })
	return out
}

// WeatherLocations returns the distinct weather locations of all zones
// followed by any tracked locations not already listed.
func (s *Service) WeatherLocations(ctx context.Context) ([]weather.Location, error) {
	zones, err := s.repo.ListZones(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []weather.Location
	add := func(loc weather.Location) {
		key := loc.Key()
		if key == "" {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, loc)
	}
	for _, z := range zones {
		add(z.Weather.Location())
	}
	for _, loc := range s.tracked {
		add(loc)
	}
	return out, nil
}

// RefreshWeather fetches and stores fresh readings for loc.
func (s *Service) RefreshWeather(ctx context.Context, loc weather.Location) error {
	if s.weather == nil {
		return nil
	}
	return s.weather.FetchAndStore(ctx, loc)
}

// PublishSummaries sends every zone's current summary to the publisher.
// Failures for one zone do not stop the others.
func (s *Service) PublishSummaries(ctx context.Context) error {
	if s.publisher == nil {
		return nil
	}
	zones, err := s.repo.ListZones(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, z := range zones {
		if err := s.publishZone(ctx, z.ID); err != nil {
			metrics.SummariesPublished.WithLabelValues(metrics.OutcomeFailed).Inc()
			s.logger.Warn("lawn: publish summary failed", "zone", z.ID, "error", err)
			errs = append(errs, fmt.Errorf("zone %s: %w", z.ID, err))
			continue
		}
		metrics.SummariesPublished.WithLabelValues(metrics.OutcomeOK).Inc()
	}
	return errors.Join(errs...)
}

func (s *Service) publishZone(ctx context.Context, zoneID string) error {
	sum, err := s.Summary(ctx, zoneID, time.Time{})
	if err != nil {
		return err
	}
	payload, err := json.Marshal(sum)
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, zoneID, payload)
}
