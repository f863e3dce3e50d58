package checkout

import (
	"time"

	"github.com/google/uuid"

	"github.com/tripworks/booking-backend/pkg/db/models"
	"github.com/tripworks/booking-backend/pkg/enums"
)

// UserInfo is the contact block entered at the first wizard step.
type UserInfo struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// FrozenQuote is the cents breakdown captured when the hosted payment page is
// opened. The processor charges exactly this total, so the card-path order is
// built from these figures rather than a recomputation at redirect time.
type FrozenQuote struct {
	SubtotalCents    int64 `json:"subtotal_cents"`
	DiscountCents    int64 `json:"discount_cents"`
	DeliveryFeeCents int64 `json:"delivery_fee_cents"`
	TotalCents       int64 `json:"total_cents"`
}

// Session is the server-held checkout state. It snapshots the cart at start
// so a concurrent cart edit cannot change what the tourist is paying for, and
// it survives the external payment redirect in redis under a TTL.
type Session struct {
	ID        string             `json:"id"`
	TouristID uuid.UUID          `json:"tourist_id"`
	Step      enums.CheckoutStep `json:"step"`

	Items    []models.CartItem `json:"items"`
	Currency string            `json:"currency"`

	UserInfo *UserInfo `json:"user_info,omitempty"`

	DeliveryType enums.DeliveryType `json:"delivery_type,omitempty"`
	DeliveryTime string             `json:"delivery_time,omitempty"`
	DeliveryDate *time.Time         `json:"delivery_date,omitempty"`

	AddressID    *uuid.UUID         `json:"address_id,omitempty"`
	LocationType enums.LocationType `json:"location_type,omitempty"`

	PaymentMethod enums.PaymentMethod `json:"payment_method,omitempty"`
	CardRef       *string             `json:"card_ref,omitempty"`

	PromoCode       *string `json:"promo_code,omitempty"`
	PromoPercentOff int     `json:"promo_percent_off,omitempty"`

	PaymentSessionID *string      `json:"payment_session_id,omitempty"`
	FrozenQuote      *FrozenQuote `json:"frozen_quote,omitempty"`
	OrderID          *uuid.UUID   `json:"order_id,omitempty"`
	FailureReason    string       `json:"failure_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
