package lawn

import (
	"errors"
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/lawn-manager/internal/rate"
	"github.com/i474232898/lawn-manager/internal/weather"
)

var (
	ErrZoneNotFound      = errors.New("zone not found")
	ErrEquipmentNotFound = errors.New("equipment not found")
	ErrNoMowRecorded     = errors.New("no mow recorded")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidDate       = errors.New("invalid application date")
)

// Application limits and defaults.
const (
	MaxApplicationsPerZone  = 50
	MaxApplicationAgeDays   = 365
	DefaultMowIntervalDays  = 7
	DefaultHeightOfCutIn    = 2.0
	HeightOfCutStepIn       = 0.125
	DefaultChemicalInterval = 30
	DateLayout              = "2006-01-02"
)

// Application methods.
const (
	MethodSprayer  = "Sprayer"
	MethodSpreader = "Spreader"
	MethodHand     = "Hand Application"
	MethodOther    = "Other"
)

// WeatherSource says where a zone's weather readings come from.
type WeatherSource struct {
	City     string   `json:"city,omitempty" validate:"omitempty,max=100"`
	Country  string   `json:"country,omitempty" validate:"omitempty,max=100"`
	Lat      *float64 `json:"lat,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Lon      *float64 `json:"lon,omitempty" validate:"omitempty,gte=-180,lte=180"`
	EntityID string   `json:"entityId,omitempty" validate:"omitempty,startswith=weather."`
}

// Location converts the source to a weather.Location.
func (w WeatherSource) Location() weather.Location {
	return weather.Location{City: w.City, Country: w.Country, Lat: w.Lat, Lon: w.Lon, EntityID: w.EntityID}
}

// Zone is one managed area of lawn.
type Zone struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	AreaSqFt        int           `json:"areaSqFt"`
	GrassType       string        `json:"grassType"`
	Location        string        `json:"location,omitempty"`
	Weather         WeatherSource `json:"weather"`
	MowIntervalDays int           `json:"mowIntervalDays"`
	HeightOfCutIn   float64       `json:"heightOfCutIn"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// ZoneInput is what callers supply to create or replace a zone.
type ZoneInput struct {
	Name            string        `json:"name" validate:"required,max=100"`
	AreaSqFt        int           `json:"areaSqFt" validate:"gt=0"`
	GrassType       string        `json:"grassType" validate:"required"`
	Location        string        `json:"location" validate:"max=200"`
	Weather         WeatherSource `json:"weather"`
	MowIntervalDays int           `json:"mowIntervalDays" validate:"omitempty,min=1,max=30"`
	HeightOfCutIn   float64       `json:"heightOfCutIn" validate:"omitempty,gte=0.125,lte=6,hocstep"`
}

// Equipment is a stored applicator.
type Equipment struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Type      rate.EquipmentType `json:"type"`
	Brand     string             `json:"brand,omitempty"`
	Capacity  float64            `json:"capacity"`
	Unit      rate.CapacityUnit  `json:"capacityUnit"`
	CreatedAt time.Time          `json:"createdAt"`
}

// Spec returns the calculator's view of the equipment.
func (e Equipment) Spec() rate.Equipment {
	return rate.Equipment{ID: e.ID, Name: e.Name, Type: e.Type, Brand: e.Brand, Capacity: e.Capacity, Unit: e.Unit}
}

// EquipmentInput is what callers supply to register equipment.
type EquipmentInput struct {
	Name     string             `json:"name" validate:"required,max=100"`
	Type     rate.EquipmentType `json:"type" validate:"required,oneof=sprayer spreader"`
	Brand    string             `json:"brand" validate:"max=100"`
	Capacity float64            `json:"capacity" validate:"gt=0"`
	Unit     rate.CapacityUnit  `json:"capacityUnit" validate:"required,oneof=gallons liters pounds kilograms"`
}

// ApplicationRecord is one logged chemical application.
type ApplicationRecord struct {
	ID                string    `json:"id"`
	ZoneID            string    `json:"zoneId"`
	Chemical          string    `json:"chemical"`
	AppliedOn         time.Time `json:"appliedOn"`
	IntervalDays      int       `json:"intervalDays"`
	RateMultiplier    float64   `json:"rateMultiplier"`
	OverrideLbPer1000 *float64  `json:"overrideLbPer1000,omitempty"`
	LbPer1000         float64   `json:"lbPer1000"`
	OzPer1000         float64   `json:"ozPer1000"`
	TotalProductLb    float64   `json:"totalProductLb"`
	Method            string    `json:"method"`
	CreatedAt         time.Time `json:"createdAt"`
}

// NextDue is the date the product can next be applied.
func (a ApplicationRecord) NextDue() time.Time {
	return a.AppliedOn.AddDate(0, 0, a.IntervalDays)
}

// ApplicationInput is what callers supply to log an application.
type ApplicationInput struct {
	Chemical          string   `json:"chemical" validate:"required,max=100"`
	Date              string   `json:"date"`
	RateMultiplier    float64  `json:"rateMultiplier" validate:"gte=0,lte=10"`
	OverrideLbPer1000 *float64 `json:"overrideLbPer1000" validate:"omitempty,gt=0"`
	Method            string   `json:"method" validate:"omitempty,oneof='Sprayer' 'Spreader' 'Hand Application' 'Other'"`
}

// MowEvent is one logged mow.
type MowEvent struct {
	ID        string    `json:"id"`
	ZoneID    string    `json:"zoneId"`
	MowedOn   time.Time `json:"mowedOn"`
	CreatedAt time.Time `json:"createdAt"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("hocstep", func(fl validator.FieldLevel) bool {
		steps := fl.Field().Float() / HeightOfCutStepIn
		return math.Abs(steps-math.Round(steps)) < 1e-9
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		in := sl.Current().Interface().(EquipmentInput)
		switch in.Type {
		case rate.Sprayer:
			if !in.Unit.IsVolume() {
				sl.ReportError(in.Unit, "Unit", "capacityUnit", "sprayerunit", "")
			}
		case rate.Spreader:
			if !in.Unit.IsMass() {
				sl.ReportError(in.Unit, "Unit", "capacityUnit", "spreaderunit", "")
			}
		}
	}, EquipmentInput{})
	return v
}
