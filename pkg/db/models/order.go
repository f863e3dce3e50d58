package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tripworks/booking-backend/pkg/enums"
)

// Order is a completed purchase submission. Totals are frozen at submission
// time in the display currency's minor units so the receipt never drifts
// with later rate changes.
type Order struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	TouristID         uuid.UUID           `gorm:"column:tourist_id;type:uuid;not null;index"`
	Status            enums.OrderStatus   `gorm:"column:status;not null"`
	PaymentMethod     enums.PaymentMethod `gorm:"column:payment_method;not null"`
	CardRef           *string             `gorm:"column:card_ref"`
	PaymentSessionID  *string             `gorm:"column:payment_session_id;uniqueIndex"`
	SubtotalCents     int64               `gorm:"column:subtotal_cents;not null"`
	DiscountCents     int64               `gorm:"column:discount_cents;not null;default:0"`
	DeliveryFeeCents  int64               `gorm:"column:delivery_fee_cents;not null"`
	TotalCents        int64               `gorm:"column:total_cents;not null"`
	Currency          string              `gorm:"column:currency;size:3;not null"`
	PromoCode         *string             `gorm:"column:promo_code"`
	DeliveryType      enums.DeliveryType  `gorm:"column:delivery_type;not null"`
	DeliveryTime      string              `gorm:"column:delivery_time;not null"`
	DeliveryDate      *time.Time          `gorm:"column:delivery_date"`
	ShippingAddressID uuid.UUID           `gorm:"column:shipping_address_id;type:uuid;not null"`
	LocationType      enums.LocationType  `gorm:"column:location_type;not null"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Items []OrderLineItem `gorm:"foreignKey:OrderID"`
}

// TableName pins the table to the migration name.
func (Order) TableName() string { return "orders" }
