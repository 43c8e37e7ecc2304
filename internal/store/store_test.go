package store

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/lawn-manager/internal/lawn"
	"github.com/i474232898/lawn-manager/internal/rate"
	"github.com/i474232898/lawn-manager/internal/weather"
)

func TestMemoryStoreSnapshotRetention(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(3, 2*time.Hour)
	s.now = func() time.Time { return now }
	loc := weather.Location{City: "Austin", Country: "US"}

	_, err := s.GetLatest(loc)
	assert.ErrorIs(t, err, ErrNotFound)

	for i := 5; i >= 0; i-- {
		s.SaveSnapshot(loc, weather.WeatherSnapshot{Timestamp: now.Add(-time.Duration(i) * time.Hour), Temperature: float64(i)})
	}

	latest, err := s.GetLatest(loc)
	require.NoError(t, err)
	assert.Equal(t, 0.0, latest.Temperature)

	all, err := s.GetRange(loc, now.Add(-24*time.Hour), now)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 2.0, all[0].Temperature)

	_, err = s.GetRange(loc, now.Add(time.Hour), now.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRetainKeepsNewestSnapshot(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	snaps := []weather.WeatherSnapshot{{Timestamp: now.Add(-48 * time.Hour)}}
	assert.Len(t, retain(snaps, 0, time.Hour, now), 1)
}

func newSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func forEachRepository(t *testing.T, fn func(t *testing.T, repo lawn.Repository)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryStore(0, 0)) })
	t.Run("sqlite", func(t *testing.T) { fn(t, newSQLStore(t)) })
}

var created = time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)

func zone(id, name string) lawn.Zone {
	lat, lon := 30.2672, -97.7431
	return lawn.Zone{
		ID:              id,
		Name:            name,
		AreaSqFt:        5000,
		GrassType:       "Bermuda",
		Weather:         lawn.WeatherSource{Lat: &lat, Lon: &lon},
		MowIntervalDays: 7,
		HeightOfCutIn:   2,
		CreatedAt:       created,
		UpdatedAt:       created,
	}
}

func day(s string) time.Time {
	d, _ := time.Parse(lawn.DateLayout, s)
	return d
}

func TestRepositoryZones(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo lawn.Repository) {
		ctx := context.Background()
		require.NoError(t, repo.CreateZone(ctx, zone("b", "Back")))
		require.NoError(t, repo.CreateZone(ctx, zone("a", "Front")))

		got, err := repo.GetZone(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, "Back", got.Name)
		require.NotNil(t, got.Weather.Lat)
		assert.InDelta(t, 30.2672, *got.Weather.Lat, 1e-9)
		assert.True(t, created.Equal(got.CreatedAt))

		list, err := repo.ListZones(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Back", list[0].Name)
		assert.Equal(t, "Front", list[1].Name)

		upd := zone("b", "Backyard")
		upd.AreaSqFt = 9000
		require.NoError(t, repo.UpdateZone(ctx, upd))
		got, err = repo.GetZone(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, 9000, got.AreaSqFt)

		assert.ErrorIs(t, repo.UpdateZone(ctx, zone("zz", "Nope")), lawn.ErrZoneNotFound)
		_, err = repo.GetZone(ctx, "zz")
		assert.ErrorIs(t, err, lawn.ErrZoneNotFound)
	})
}

func TestRepositoryEquipment(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo lawn.Repository) {
		ctx := context.Background()
		eq := lawn.Equipment{ID: "e1", Name: "Backpack", Type: rate.Sprayer, Capacity: 4, Unit: rate.Gallons, CreatedAt: created}
		require.NoError(t, repo.CreateEquipment(ctx, eq))

		got, err := repo.GetEquipment(ctx, "e1")
		require.NoError(t, err)
		assert.Equal(t, rate.Sprayer, got.Type)
		assert.Equal(t, rate.Gallons, got.Unit)

		list, err := repo.ListEquipment(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		require.NoError(t, repo.DeleteEquipment(ctx, "e1"))
		_, err = repo.GetEquipment(ctx, "e1")
		assert.ErrorIs(t, err, lawn.ErrEquipmentNotFound)
		assert.ErrorIs(t, repo.DeleteEquipment(ctx, "e1"), lawn.ErrEquipmentNotFound)
	})
}

func TestRepositoryApplicationsCapped(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo lawn.Repository) {
		ctx := context.Background()
		require.NoError(t, repo.CreateZone(ctx, zone("z", "Front")))

		start := day("2025-01-01")
		for i := 0; i < 7; i++ {
			rec := lawn.ApplicationRecord{
				ID:        fmt.Sprintf("r%d", i),
				ZoneID:    "z",
				Chemical:  "Fertilizer",
				AppliedOn: start.AddDate(0, 0, i),
				Method:    lawn.MethodSpreader,
				CreatedAt: created,
			}
			require.NoError(t, repo.AppendApplication(ctx, rec, 5))
		}

		recs, err := repo.ListApplications(ctx, "z")
		require.NoError(t, err)
		require.Len(t, recs, 5)
		assert.Equal(t, "r6", recs[0].ID)
		assert.Equal(t, "r2", recs[4].ID)
		assert.Equal(t, "2025-01-07", recs[0].AppliedOn.Format(lawn.DateLayout))

		err = repo.AppendApplication(ctx, lawn.ApplicationRecord{ID: "x", ZoneID: "missing"}, 5)
		assert.ErrorIs(t, err, lawn.ErrZoneNotFound)
	})
}

func TestRepositoryBackdatedApplicationEvictedFirstByInsertion(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo lawn.Repository) {
		ctx := context.Background()
		require.NoError(t, repo.CreateZone(ctx, zone("z", "Front")))

		dates := []string{"2025-03-01", "2025-01-01", "2025-02-01"}
		for i, d := range dates {
			rec := lawn.ApplicationRecord{ID: fmt.Sprintf("r%d", i), ZoneID: "z", Chemical: "Urea", AppliedOn: day(d)}
			require.NoError(t, repo.AppendApplication(ctx, rec, 2))
		}

		recs, err := repo.ListApplications(ctx, "z")
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "r2", recs[0].ID)
		assert.Equal(t, "r1", recs[1].ID)
	})
}

func TestRepositoryMows(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo lawn.Repository) {
		ctx := context.Background()
		require.NoError(t, repo.CreateZone(ctx, zone("z", "Front")))

		_, err := repo.LastMow(ctx, "z")
		assert.ErrorIs(t, err, lawn.ErrNoMowRecorded)

		require.NoError(t, repo.RecordMow(ctx, lawn.MowEvent{ID: "m1", ZoneID: "z", MowedOn: day("2025-06-10")}))
		require.NoError(t, repo.RecordMow(ctx, lawn.MowEvent{ID: "m2", ZoneID: "z", MowedOn: day("2025-06-03")}))

		last, err := repo.LastMow(ctx, "z")
		require.NoError(t, err)
		assert.Equal(t, "m1", last.ID)

		assert.ErrorIs(t, repo.RecordMow(ctx, lawn.MowEvent{ID: "m3", ZoneID: "missing"}), lawn.ErrZoneNotFound)
	})
}

func TestRepositoryDeleteZoneCascades(t *testing.T) {
	forEachRepository(t, func(t *testing.T, repo lawn.Repository) {
		ctx := context.Background()
		require.NoError(t, repo.CreateZone(ctx, zone("z", "Front")))
		require.NoError(t, repo.AppendApplication(ctx, lawn.ApplicationRecord{ID: "r", ZoneID: "z", AppliedOn: day("2025-06-01")}, 50))
		require.NoError(t, repo.RecordMow(ctx, lawn.MowEvent{ID: "m", ZoneID: "z", MowedOn: day("2025-06-01")}))

		require.NoError(t, repo.DeleteZone(ctx, "z"))
		assert.ErrorIs(t, repo.DeleteZone(ctx, "z"), lawn.ErrZoneNotFound)

		require.NoError(t, repo.CreateZone(ctx, zone("z", "Front again")))
		recs, err := repo.ListApplications(ctx, "z")
		require.NoError(t, err)
		assert.Empty(t, recs)
		_, err = repo.LastMow(ctx, "z")
		assert.ErrorIs(t, err, lawn.ErrNoMowRecorded)
	})
}
