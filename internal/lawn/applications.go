package lawn

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/lawn-manager/internal/metrics"
	"github.com/i474232898/lawn-manager/internal/rate"
)

// Calculate runs an ad hoc rate calculation and records its outcome.
func (s *Service) Calculate(chemical string, eq rate.Equipment, areaSqFt int) (rate.Result, error) {
	res, err := s.calculator.Calculate(chemical, eq, areaSqFt)
	if err != nil {
		return rate.Result{}, invalid(err)
	}
	outcome := metrics.OutcomeOK
	if !res.OK() {
		outcome = string(res.Failure.Reason)
	}
	metrics.RateCalculations.WithLabelValues(metrics.EquipmentLabel(string(eq.Type)), outcome).Inc()
	return res, nil
}

// CalculateForZone calculates chemical for a stored zone and applicator.
// Successful results are remembered for LastCalculation.
func (s *Service) CalculateForZone(ctx context.Context, zoneID, chemical, equipmentID string) (rate.Result, error) {
	z, err := s.repo.GetZone(ctx, zoneID)
	if err != nil {
		return rate.Result{}, err
	}
	eq, err := s.repo.GetEquipment(ctx, equipmentID)
	if err != nil {
		return rate.Result{}, err
	}
	res, err := s.Calculate(chemical, eq.Spec(), z.AreaSqFt)
	if err != nil {
		return rate.Result{}, err
	}
	if res.OK() {
		s.rates.SetDefault(zoneID, res)
	} else {
		s.logger.Debug("lawn: calculation failed", "zone", zoneID, "chemical", chemical, "reason", res.Failure.Reason)
	}
	return res, nil
}

// LastCalculation returns the zone's most recent successful calculation.
func (s *Service) LastCalculation(ctx context.Context, zoneID string) (rate.Result, error) {
	if _, err := s.repo.GetZone(ctx, zoneID); err != nil {
		return rate.Result{}, err
	}
	v, ok := s.rates.Get(zoneID)
	if !ok {
		return rate.Result{}, ErrNoCalculation
	}
	return v.(rate.Result), nil
}

// parseDate reads an application or mow date. Empty means today. Dates in
// the future or more than MaxApplicationAgeDays ago are rejected.
func (s *Service) parseDate(raw string) (time.Time, error) {
	today := s.today()
	if strings.TrimSpace(raw) == "" {
		return today, nil
	}
	d, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", ErrInvalidDate, raw)
	}
	if d.After(today) {
		return time.Time{}, fmt.Errorf("%w: %s is in the future", ErrInvalidDate, raw)
	}
	if d.Before(today.AddDate(0, 0, -MaxApplicationAgeDays)) {
		return time.Time{}, fmt.Errorf("%w: %s is more than %d days ago", ErrInvalidDate, raw, MaxApplicationAgeDays)
	}
	return d, nil
}

// LogApplication records a chemical application against a zone. The zone
// keeps its most recent MaxApplicationsPerZone records.
func (s *Service) LogApplication(ctx context.Context, zoneID string, in ApplicationInput) (ApplicationRecord, error) {
	if err := validate.Struct(in); err != nil {
		return ApplicationRecord{}, invalid(err)
	}
	z, err := s.repo.GetZone(ctx, zoneID)
	if err != nil {
		return ApplicationRecord{}, err
	}
	appliedOn, err := s.parseDate(in.Date)
	if err != nil {
		return ApplicationRecord{}, err
	}

	chemical := strings.TrimSpace(in.Chemical)
	interval := DefaultChemicalInterval
	if chem, ok := s.tables.Chemical(chemical); ok {
		chemical = chem.Name
		interval = chem.IntervalDays
	}

	amt, err := s.calculator.ApplicationAmount(chemical, in.RateMultiplier, in.OverrideLbPer1000, z.AreaSqFt)
	if err != nil {
		return ApplicationRecord{}, invalid(err)
	}
	multiplier := in.RateMultiplier
	if multiplier <= 0 {
		multiplier = 1
	}
	method := in.Method
	if method == "" {
		method = MethodOther
	}

	rec := ApplicationRecord{
		ID:                uuid.NewString(),
		ZoneID:            zoneID,
		Chemical:          chemical,
		AppliedOn:         appliedOn,
		IntervalDays:      interval,
		RateMultiplier:    multiplier,
		OverrideLbPer1000: in.OverrideLbPer1000,
		LbPer1000:         amt.LbPer1000,
		OzPer1000:         amt.OzPer1000,
		TotalProductLb:    amt.TotalLb,
		Method:            method,
		CreatedAt:         s.now().UTC(),
	}
	if err := s.repo.AppendApplication(ctx, rec, MaxApplicationsPerZone); err != nil {
		return ApplicationRecord{}, err
	}
	metrics.ApplicationsLogged.WithLabelValues(method).Inc()
	if !amt.Known {
		s.logger.Warn("lawn: chemical not in reference table, default rate recorded", "zone", zoneID, "chemical", chemical)
	}
	s.logger.Info("lawn: application logged", "zone", zoneID, "chemical", chemical, "date", appliedOn.Format(DateLayout))
	return rec, nil
}

// ListApplications returns a zone's records, newest first.
func (s *Service) ListApplications(ctx context.Context, zoneID string) ([]ApplicationRecord, error) {
	return s.repo.ListApplications(ctx, zoneID)
}

// latestByChemical keeps the most recent record per chemical, keyed by
// chemical name. recs must be newest first.
func latestByChemical(recs []ApplicationRecord) map[string]ApplicationRecord {
	out := make(map[string]ApplicationRecord)
	for _, r := range recs {
		key := strings.ToLower(r.Chemical)
		if prev, ok := out[key]; !ok || r.AppliedOn.After(prev.AppliedOn) {
			out[key] = r
		}
	}
	return out
}

// LastApplications returns the latest record for each chemical applied to
// the zone, sorted by chemical name.
func (s *Service) LastApplications(ctx context.Context, zoneID string) ([]ApplicationRecord, error) {
	recs, err := s.repo.ListApplications(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	latest := latestByChemical(recs)
	out := make([]ApplicationRecord, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Chemical < out[j].Chemical })
	return out, nil
}

// MowStatus describes where a zone is in its mowing cycle.
type MowStatus struct {
	LastMowed       string  `json:"lastMowed,omitempty"`
	DaysSinceMow    int     `json:"daysSinceMow"`
	NextDue         string  `json:"nextDue"`
	Due             bool    `json:"due"`
	MowIntervalDays int     `json:"mowIntervalDays"`
	HeightOfCutIn   float64 `json:"heightOfCutIn"`
}

// LogMow records a mow. An empty date means today.
func (s *Service) LogMow(ctx context.Context, zoneID, date string) (MowEvent, error) {
	if _, err := s.repo.GetZone(ctx, zoneID); err != nil {
		return MowEvent{}, err
	}
	mowedOn, err := s.parseDate(date)
	if err != nil {
		return MowEvent{}, err
	}
	ev := MowEvent{ID: uuid.NewString(), ZoneID: zoneID, MowedOn: mowedOn, CreatedAt: s.now().UTC()}
	if err := s.repo.RecordMow(ctx, ev); err != nil {
		return MowEvent{}, err
	}
	metrics.MowsLogged.Inc()
	s.logger.Info("lawn: mow logged", "zone", zoneID, "date", mowedOn.Format(DateLayout))
	return ev, nil
}

// MowStatus reports the zone's mowing state as of asOf. A zone that was
// never mowed counts as one day past its interval.
func (s *Service) MowStatus(ctx context.Context, zoneID string, asOf time.Time) (MowStatus, error) {
	z, err := s.repo.GetZone(ctx, zoneID)
	if err != nil {
		return MowStatus{}, err
	}
	return s.mowStatus(ctx, z, asOf)
}

func (s *Service) mowStatus(ctx context.Context, z Zone, asOf time.Time) (MowStatus, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}
	day := dateOnly(asOf)
	st := MowStatus{MowIntervalDays: z.MowIntervalDays, HeightOfCutIn: z.HeightOfCutIn}

	last, err := s.repo.LastMow(ctx, z.ID)
	switch {
	case errors.Is(err, ErrNoMowRecorded):
		st.DaysSinceMow = z.MowIntervalDays + 1
		st.NextDue = day.Format(DateLayout)
		st.Due = true
		return st, nil
	case err != nil:
		return MowStatus{}, err
	}

	mowed := dateOnly(last.MowedOn)
	st.LastMowed = mowed.Format(DateLayout)
	st.DaysSinceMow = int(day.Sub(mowed).Hours() / 24)
	st.NextDue = mowed.AddDate(0, 0, z.MowIntervalDays).Format(DateLayout)
	st.Due = st.DaysSinceMow >= z.MowIntervalDays
	return st, nil
}
