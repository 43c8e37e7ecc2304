package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/i474232898/lawn-manager/internal/lawn"
	"github.com/i474232898/lawn-manager/internal/rate"
)

type zoneRow struct {
	ID              string `gorm:"primaryKey"`
	Name            string `gorm:"index"`
	AreaSqFt        int
	GrassType       string
	Location        string
	WeatherCity     string
	WeatherCountry  string
	WeatherLat      *float64
	WeatherLon      *float64
	WeatherEntityID string
	MowIntervalDays int
	HeightOfCutIn   float64
	CreatedAt       time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime:false"`
}

func (zoneRow) TableName() string { return "zones" }

type equipmentRow struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"index"`
	Type      string
	Brand     string
	Capacity  float64
	Unit      string
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
}

func (equipmentRow) TableName() string { return "equipment" }

type applicationRow struct {
	Seq               uint   `gorm:"primaryKey;autoIncrement"`
	ID                string `gorm:"uniqueIndex"`
	ZoneID            string `gorm:"index"`
	Chemical          string
	AppliedOn         time.Time
	IntervalDays      int
	RateMultiplier    float64
	OverrideLbPer1000 *float64
	LbPer1000         float64
	OzPer1000         float64
	TotalProductLb    float64
	Method            string
	CreatedAt         time.Time `gorm:"autoCreateTime:false"`
}

func (applicationRow) TableName() string { return "applications" }

type mowRow struct {
	Seq       uint   `gorm:"primaryKey;autoIncrement"`
	ID        string `gorm:"uniqueIndex"`
	ZoneID    string `gorm:"index"`
	MowedOn   time.Time
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
}

func (mowRow) TableName() string { return "mows" }

// SQLStore persists lawn records in SQLite through gorm. It implements
// lawn.Repository.
type SQLStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the database at dsn and migrates
// the schema.
func OpenSQLite(dsn string, logger *slog.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dsn, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("store: underlying db: %w", err)
	}
	// SQLite allows one writer at a time.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&zoneRow{}, &equipmentRow{}, &applicationRow{}, &mowRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	logger.Info("store: sqlite ready", "dsn", dsn)
	return &SQLStore{db: db, logger: logger}, nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toZoneRow(z lawn.Zone) zoneRow {
	return zoneRow{
		ID:              z.ID,
		Name:            z.Name,
		AreaSqFt:        z.AreaSqFt,
		GrassType:       z.GrassType,
		Location:        z.Location,
		WeatherCity:     z.Weather.City,
		WeatherCountry:  z.Weather.Country,
		WeatherLat:      z.Weather.Lat,
		WeatherLon:      z.Weather.Lon,
		WeatherEntityID: z.Weather.EntityID,
		MowIntervalDays: z.MowIntervalDays,
		HeightOfCutIn:   z.HeightOfCutIn,
		CreatedAt:       z.CreatedAt,
		UpdatedAt:       z.UpdatedAt,
	}
}

func (r zoneRow) zone() lawn.Zone {
	return lawn.Zone{
		ID:        r.ID,
		Name:      r.Name,
		AreaSqFt:  r.AreaSqFt,
		GrassType: r.GrassType,
		Location:  r.Location,
		Weather: lawn.WeatherSource{
			City:     r.WeatherCity,
			Country:  r.WeatherCountry,
			Lat:      r.WeatherLat,
			Lon:      r.WeatherLon,
			EntityID: r.WeatherEntityID,
		},
		MowIntervalDays: r.MowIntervalDays,
		HeightOfCutIn:   r.HeightOfCutIn,
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
	}
}

func (r equipmentRow) equipment() lawn.Equipment {
	return lawn.Equipment{
		ID:        r.ID,
		Name:      r.Name,
		Type:      rate.EquipmentType(r.Type),
		Brand:     r.Brand,
		Capacity:  r.Capacity,
		Unit:      rate.CapacityUnit(r.Unit),
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func (r applicationRow) record() lawn.ApplicationRecord {
	return lawn.ApplicationRecord{
		ID:                r.ID,
		ZoneID:            r.ZoneID,
		Chemical:          r.Chemical,
		AppliedOn:         r.AppliedOn.UTC(),
		IntervalDays:      r.IntervalDays,
		RateMultiplier:    r.RateMultiplier,
		OverrideLbPer1000: r.OverrideLbPer1000,
		LbPer1000:         r.LbPer1000,
		OzPer1000:         r.OzPer1000,
		TotalProductLb:    r.TotalProductLb,
		Method:            r.Method,
		CreatedAt:         r.CreatedAt.UTC(),
	}
}

func zoneExists(tx *gorm.DB, id string) error {
	var n int64
	if err := tx.Model(&zoneRow{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return lawn.ErrZoneNotFound
	}
	return nil
}

// trim deletes the oldest rows of model for zoneID beyond limit.
func trim(tx *gorm.DB, model any, zoneID string, limit int) error {
	if limit <= 0 {
		return nil
	}
	var n int64
	if err := tx.Model(model).Where("zone_id = ?", zoneID).Count(&n).Error; err != nil {
		return err
	}
	excess := int(n) - limit
	if excess <= 0 {
		return nil
	}
	var seqs []uint
	if err := tx.Model(model).Where("zone_id = ?", zoneID).Order("seq asc").Limit(excess).Pluck("seq", &seqs).Error; err != nil {
		return err
	}
	return tx.Where("seq IN ?", seqs).Delete(model).Error
}

func (s *SQLStore) CreateZone(ctx context.Context, z lawn.Zone) error {
	row := toZoneRow(z)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("store: create zone: %w", err)
	}
	return nil
}

func (s *SQLStore) UpdateZone(ctx context.Context, z lawn.Zone) error {
	row := toZoneRow(z)
	res := s.db.WithContext(ctx).Model(&zoneRow{}).Where("id = ?", z.ID).Select("*").Updates(&row)
	if res.Error != nil {
		return fmt.Errorf("store: update zone: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return lawn.ErrZoneNotFound
	}
	return nil
}

func (s *SQLStore) DeleteZone(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&zoneRow{})
		if res.Error != nil {
			return fmt.Errorf("store: delete zone: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return lawn.ErrZoneNotFound
		}
		if err := tx.Where("zone_id = ?", id).Delete(&applicationRow{}).Error; err != nil {
			return fmt.Errorf("store: delete applications: %w", err)
		}
		if err := tx.Where("zone_id = ?", id).Delete(&mowRow{}).Error; err != nil {
			return fmt.Errorf("store: delete mows: %w", err)
		}
		return nil
	})
}

func (s *SQLStore) GetZone(ctx context.Context, id string) (lawn.Zone, error) {
	var row zoneRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return lawn.Zone{}, lawn.ErrZoneNotFound
	}
	if err != nil {
		return lawn.Zone{}, fmt.Errorf("store: get zone: %w", err)
	}
	return row.zone(), nil
}

func (s *SQLStore) ListZones(ctx context.Context) ([]lawn.Zone, error) {
	var rows []zoneRow
	if err := s.db.WithContext(ctx).Order("name asc, id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: list zones: %w", err)
	}
	out := make([]lawn.Zone, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.zone())
	}
	return out, nil
}

func (s *SQLStore) CreateEquipment(ctx context.Context, e lawn.Equipment) error {
	row := equipmentRow{
		ID:        e.ID,
		Name:      e.Name,
		Type:      string(e.Type),
		Brand:     e.Brand,
		Capacity:  e.Capacity,
		Unit:      string(e.Unit),
		CreatedAt: e.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("store: create equipment: %w", err)
	}
	return nil
}

func (s *SQLStore) GetEquipment(ctx context.Context, id string) (lawn.Equipment, error) {
	var row equipmentRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return lawn.Equipment{}, lawn.ErrEquipmentNotFound
	}
	if err != nil {
		return lawn.Equipment{}, fmt.Errorf("store: get equipment: %w", err)
	}
	return row.equipment(), nil
}

func (s *SQLStore) ListEquipment(ctx context.Context) ([]lawn.Equipment, error) {
	var rows []equipmentRow
	if err := s.db.WithContext(ctx).Order("name asc, id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: list equipment: %w", err)
	}
	out := make([]lawn.Equipment, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.equipment())
	}
	return out, nil
}

func (s *SQLStore) DeleteEquipment(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&equipmentRow{})
	if res.Error != nil {
		return fmt.Errorf("store: delete equipment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return lawn.ErrEquipmentNotFound
	}
	return nil
}

func (s *SQLStore) AppendApplication(ctx context.Context, rec lawn.ApplicationRecord, limit int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := zoneExists(tx, rec.ZoneID); err != nil {
			return err
		}
		row := applicationRow{
			ID:                rec.ID,
			ZoneID:            rec.ZoneID,
			Chemical:          rec.Chemical,
			AppliedOn:         rec.AppliedOn,
			IntervalDays:      rec.IntervalDays,
			RateMultiplier:    rec.RateMultiplier,
			OverrideLbPer1000: rec.OverrideLbPer1000,
			LbPer1000:         rec.LbPer1000,
			OzPer1000:         rec.OzPer1000,
			TotalProductLb:    rec.TotalProductLb,
			Method:            rec.Method,
			CreatedAt:         rec.CreatedAt,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("store: append application: %w", err)
		}
		if err := trim(tx, &applicationRow{}, rec.ZoneID, limit); err != nil {
			return fmt.Errorf("store: trim applications: %w", err)
		}
		return nil
	})
}

func (s *SQLStore) ListApplications(ctx context.Context, zoneID string) ([]lawn.ApplicationRecord, error) {
	db := s.db.WithContext(ctx)
	if err := zoneExists(db, zoneID); err != nil {
		return nil, err
	}
	var rows []applicationRow
	if err := db.Where("zone_id = ?", zoneID).Order("applied_on desc, seq desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: list applications: %w", err)
	}
	out := make([]lawn.ApplicationRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.record())
	}
	return out, nil
}

func (s *SQLStore) RecordMow(ctx context.Context, ev lawn.MowEvent) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := zoneExists(tx, ev.ZoneID); err != nil {
			return err
		}
		row := mowRow{ID: ev.ID, ZoneID: ev.ZoneID, MowedOn: ev.MowedOn, CreatedAt: ev.CreatedAt}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("store: record mow: %w", err)
		}
		return trim(tx, &mowRow{}, ev.ZoneID, lawn.MaxApplicationsPerZone)
	})
}

func (s *SQLStore) LastMow(ctx context.Context, zoneID string) (lawn.MowEvent, error) {
	db := s.db.WithContext(ctx)
	if err := zoneExists(db, zoneID); err != nil {
		return lawn.MowEvent{}, err
	}
	var row mowRow
	err := db.Where("zone_id = ?", zoneID).Order("mowed_on desc, seq desc").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return lawn.MowEvent{}, lawn.ErrNoMowRecorded
	}
	if err != nil {
		return lawn.MowEvent{}, fmt.Errorf("store: last mow: %w", err)
	}
	return lawn.MowEvent{ID: row.ID, ZoneID: row.ZoneID, MowedOn: row.MowedOn.UTC(), CreatedAt: row.CreatedAt.UTC()}, nil
}
