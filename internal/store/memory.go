package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/i474232898/lawn-manager/internal/lawn"
	"github.com/i474232898/lawn-manager/internal/weather"
)

var (
	// ErrNotFound is returned when no weather data is available for a location.
	ErrNotFound = errors.New("no weather data for location")
)

// SnapshotHistory holds a time-ordered list of weather snapshots for a location.
type SnapshotHistory struct {
	Snapshots []weather.WeatherSnapshot
}

// MemoryStore is a concurrency-safe in-memory store for weather snapshots
// and lawn records. It implements weather.Store and lawn.Repository.
type MemoryStore struct {
	mu sync.RWMutex

	// key: location key, value: history
	data map[string]*SnapshotHistory

	zones        map[string]lawn.Zone
	equipment    map[string]lawn.Equipment
	applications map[string][]lawn.ApplicationRecord // zone id -> insertion order
	mows         map[string][]lawn.MowEvent          // zone id -> insertion order

	// retention configuration
	maxHistory int           // max number of snapshots per location
	maxAge     time.Duration // optional max age for snapshots
	now        func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:         make(map[string]*SnapshotHistory),
		zones:        make(map[string]lawn.Zone),
		equipment:    make(map[string]lawn.Equipment),
		applications: make(map[string][]lawn.ApplicationRecord),
		mows:         make(map[string][]lawn.MowEvent),
		maxHistory:   maxHistory,
		maxAge:       maxAge,
		now:          time.Now,
	}
}

// SaveSnapshot appends a new snapshot for a location and enforces retention.
func (s *MemoryStore) SaveSnapshot(loc weather.Location, snapshot weather.WeatherSnapshot) {
	key := loc.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[key]
	if !ok {
		history = &SnapshotHistory{}
		s.data[key] = history
	}

	history.Snapshots = append(history.Snapshots, snapshot)
	history.Snapshots = retain(history.Snapshots, s.maxHistory, s.maxAge, s.now())
}

// retain enforces retention by count, then by age. The newest snapshot is
// always kept.
func retain(snaps []weather.WeatherSnapshot, maxHistory int, maxAge time.Duration, now time.Time) []weather.WeatherSnapshot {
	if maxHistory > 0 && len(snaps) > maxHistory {
		snaps = snaps[len(snaps)-maxHistory:]
	}
	if maxAge > 0 {
		cutoff := now.Add(-maxAge)
		i := 0
		for ; i < len(snaps)-1; i++ {
			if !snaps[i].Timestamp.Before(cutoff) {
				break
			}
		}
		snaps = snaps[i:]
	}
	return snaps
}

// GetLatest returns the most recent snapshot for a location.
func (s *MemoryStore) GetLatest(loc weather.Location) (weather.WeatherSnapshot, error) {
	key := loc.Key()

	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Snapshots) == 0 {
		return weather.WeatherSnapshot{}, ErrNotFound
	}
	return history.Snapshots[len(history.Snapshots)-1], nil
}

// GetRange returns all snapshots for a location between from and to (inclusive).
func (s *MemoryStore) GetRange(loc weather.Location, from, to time.Time) ([]weather.WeatherSnapshot, error) {
	key := loc.Key()

	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Snapshots) == 0 {
		return nil, ErrNotFound
	}

	var result []weather.WeatherSnapshot
	for _, snap := range history.Snapshots {
		if !snap.Timestamp.Before(from) && !snap.Timestamp.After(to) {
			result = append(result, snap)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}

func (s *MemoryStore) CreateZone(_ context.Context, z lawn.Zone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zones[z.ID] = z
	return nil
}

func (s *MemoryStore) UpdateZone(_ context.Context, z lawn.Zone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.zones[z.ID]; !ok {
		return lawn.ErrZoneNotFound
	}
	s.zones[z.ID] = z
	return nil
}

func (s *MemoryStore) DeleteZone(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.zones[id]; !ok {
		return lawn.ErrZoneNotFound
	}
	delete(s.zones, id)
	delete(s.applications, id)
	delete(s.mows, id)
	return nil
}

func (s *MemoryStore) GetZone(_ context.Context, id string) (lawn.Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	z, ok := s.zones[id]
	if !ok {
		return lawn.Zone{}, lawn.ErrZoneNotFound
	}
	return z, nil
}

// ListZones returns zones ordered by name.
func (s *MemoryStore) ListZones(_ context.Context) ([]lawn.Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]lawn.Zone, 0, len(s.zones))
	for _, z := range s.zones {
		out = append(out, z)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) CreateEquipment(_ context.Context, e lawn.Equipment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.equipment[e.ID] = e
	return nil
}

func (s *MemoryStore) GetEquipment(_ context.Context, id string) (lawn.Equipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.equipment[id]
	if !ok {
		return lawn.Equipment{}, lawn.ErrEquipmentNotFound
	}
	return e, nil
}

// ListEquipment returns equipment ordered by name.
func (s *MemoryStore) ListEquipment(_ context.Context) ([]lawn.Equipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]lawn.Equipment, 0, len(s.equipment))
	for _, e := range s.equipment {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) DeleteEquipment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.equipment[id]; !ok {
		return lawn.ErrEquipmentNotFound
	}
	delete(s.equipment, id)
	return nil
}

func (s *MemoryStore) AppendApplication(_ context.Context, rec lawn.ApplicationRecord, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.zones[rec.ZoneID]; !ok {
		return lawn.ErrZoneNotFound
	}
	recs := append(s.applications[rec.ZoneID], rec)
	if limit > 0 && len(recs) > limit {
		recs = append([]lawn.ApplicationRecord(nil), recs[len(recs)-limit:]...)
	}
	s.applications[rec.ZoneID] = recs
	return nil
}

func (s *MemoryStore) ListApplications(_ context.Context, zoneID string) ([]lawn.ApplicationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.zones[zoneID]; !ok {
		return nil, lawn.ErrZoneNotFound
	}
	src := s.applications[zoneID]
	out := make([]lawn.ApplicationRecord, len(src))
	for i, rec := range src {
		out[len(src)-1-i] = rec
	}
	// Newest application date first; insertion order breaks ties.
	sort.SliceStable(out, func(i, j int) bool { return out[i].AppliedOn.After(out[j].AppliedOn) })
	return out, nil
}

func (s *MemoryStore) RecordMow(_ context.Context, ev lawn.MowEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.zones[ev.ZoneID]; !ok {
		return lawn.ErrZoneNotFound
	}
	evs := append(s.mows[ev.ZoneID], ev)
	if len(evs) > lawn.MaxApplicationsPerZone {
		evs = append([]lawn.MowEvent(nil), evs[len(evs)-lawn.MaxApplicationsPerZone:]...)
	}
	s.mows[ev.ZoneID] = evs
	return nil
}

func (s *MemoryStore) LastMow(_ context.Context, zoneID string) (lawn.MowEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.zones[zoneID]; !ok {
		return lawn.MowEvent{}, lawn.ErrZoneNotFound
	}
	evs := s.mows[zoneID]
	if len(evs) == 0 {
		return lawn.MowEvent{}, lawn.ErrNoMowRecorded
	}
	last := evs[0]
	for _, ev := range evs[1:] {
		if !ev.MowedOn.Before(last.MowedOn) {
			last = ev
		}
	}
	return last, nil
}
