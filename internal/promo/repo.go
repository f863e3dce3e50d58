package promo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tripworks/booking-backend/pkg/db/models"
	pkgerrors "github.com/tripworks/booking-backend/pkg/errors"
)

// Repository loads and mutates promo codes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByCode(ctx context.Context, code string) (*models.PromoCode, error)
	IncrementUsage(ctx context.Context, code string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a gorm-backed promo repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo code is required")
	}

	var record models.PromoCode
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promo code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promo code")
	}
	return &record, nil
}

// IncrementUsage advances times_used, guarded against racing past the limit.
func (r *repository) IncrementUsage(ctx context.Context, code string) error {
	result := r.db.WithContext(ctx).
		Model(&models.PromoCode{}).
		Where("code = ? AND times_used < usage_limit", code).
		UpdateColumn("times_used", gorm.Expr("times_used + 1"))
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "increment promo usage")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodePromoRejected, "promo code usage limit reached")
	}
	return nil
}
