package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tripworks/booking-backend/pkg/enums"
)

// ShippingAddress is one of possibly many saved destinations for a tourist.
// At most one address per tourist carries IsDefault; the repository clears
// the previous default inside the same transaction that sets a new one.
type ShippingAddress struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	TouristID    uuid.UUID          `gorm:"column:tourist_id;type:uuid;not null;index"`
	StreetName   string             `gorm:"column:street_name;not null"`
	StreetNumber string             `gorm:"column:street_number;not null"`
	FloorUnit    *string            `gorm:"column:floor_unit"`
	City         string             `gorm:"column:city;not null"`
	State        string             `gorm:"column:state;not null"`
	PostalCode   *string            `gorm:"column:postal_code"`
	Country      string             `gorm:"column:country;not null"`
	Landmark     *string            `gorm:"column:landmark"`
	LocationType enums.LocationType `gorm:"column:location_type;not null"`
	IsDefault    bool               `gorm:"column:is_default;not null;default:false"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the table to the migration name.
func (ShippingAddress) TableName() string { return "shipping_addresses" }
