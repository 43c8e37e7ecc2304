package lawn

import "context"

// Repository persists zones, equipment, applications and mows. Missing
// records are reported with ErrZoneNotFound, ErrEquipmentNotFound or
// ErrNoMowRecorded.
type Repository interface {
	CreateZone(ctx context.Context, z Zone) error
	UpdateZone(ctx context.Context, z Zone) error
	// DeleteZone also removes the zone's applications and mows.
	DeleteZone(ctx context.Context, id string) error
	GetZone(ctx context.Context, id string) (Zone, error)
	ListZones(ctx context.Context) ([]Zone, error)

	CreateEquipment(ctx context.Context, e Equipment) error
	GetEquipment(ctx context.Context, id string) (Equipment, error)
	ListEquipment(ctx context.Context) ([]Equipment, error)
	DeleteEquipment(ctx context.Context, id string) error

	// AppendApplication stores rec and evicts the zone's oldest records
	// beyond limit.
	AppendApplication(ctx context.Context, rec ApplicationRecord, limit int) error
	// ListApplications returns the zone's records, newest first.
	ListApplications(ctx context.Context, zoneID string) ([]ApplicationRecord, error)

	RecordMow(ctx context.Context, ev MowEvent) error
	// LastMow returns the mow with the latest MowedOn date.
	LastMow(ctx context.Context, zoneID string) (MowEvent, error)
}
