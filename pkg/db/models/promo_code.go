package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tripworks/booking-backend/pkg/enums"
)

// PromoCode stores a percent-off promotion with activation window and usage
// accounting. TimesUsed only advances when a purchase actually completes.
type PromoCode struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Code       string            `gorm:"column:code;uniqueIndex;not null"`
	PercentOff int               `gorm:"column:percent_off;not null"`
	Status     enums.PromoStatus `gorm:"column:status;not null;default:'active'"`
	StartsAt   time.Time         `gorm:"column:starts_at;not null"`
	EndsAt     time.Time         `gorm:"column:ends_at;not null"`
	UsageLimit int               `gorm:"column:usage_limit;not null"`
	TimesUsed  int               `gorm:"column:times_used;not null;default:0"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the table to the migration name.
func (PromoCode) TableName() string { return "promo_codes" }
