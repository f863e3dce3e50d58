package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet holds a tourist's prepaid balance in USD minor units.
type Wallet struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	TouristID    uuid.UUID `gorm:"column:tourist_id;type:uuid;uniqueIndex;not null"`
	BalanceCents int64     `gorm:"column:balance_cents;not null;default:0"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the table to the migration name.
func (Wallet) TableName() string { return "wallets" }
