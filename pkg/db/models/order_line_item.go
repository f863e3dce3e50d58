package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderLineItem snapshots one cart line at the moment of purchase.
type OrderLineItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductRef     string    `gorm:"column:product_ref;not null"`
	ProductName    string    `gorm:"column:product_name;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	Currency       string    `gorm:"column:currency;size:3;not null"`
	LineTotalCents int64     `gorm:"column:line_total_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName pins the table to the migration name.
func (OrderLineItem) TableName() string { return "order_line_items" }
