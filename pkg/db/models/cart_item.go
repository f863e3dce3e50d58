package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem persists one product line of a tourist's cart. Prices are stored
// in minor units of the product's native currency; the display conversion
// happens at quote time and never mutates the stored price.
type CartItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	TouristID      uuid.UUID `gorm:"column:tourist_id;type:uuid;not null;index"`
	ProductRef     string    `gorm:"column:product_ref;not null"`
	ProductName    string    `gorm:"column:product_name;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	Currency       string    `gorm:"column:currency;size:3;not null"`
	LineTotalCents int64     `gorm:"column:line_total_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the table to the migration name.
func (CartItem) TableName() string { return "cart_items" }
