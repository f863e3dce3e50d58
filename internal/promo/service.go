package promo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tripworks/booking-backend/pkg/db/models"
	"github.com/tripworks/booking-backend/pkg/enums"
	pkgerrors "github.com/tripworks/booking-backend/pkg/errors"
)

// Service validates and redeems promo codes.
type Service interface {
	// Lookup returns the promo when the code exists and is currently
	// applicable; otherwise a typed rejection explaining why not.
	Lookup(ctx context.Context, code string, now time.Time) (*models.PromoCode, error)
	// Redeem consumes one use inside the caller's transaction. Validity is
	// re-checked so a code cannot be applied after it lapsed mid-checkout.
	Redeem(ctx context.Context, tx *gorm.DB, code string, now time.Time) (*models.PromoCode, error)
}

type service struct {
	repo Repository
}

// NewService builds the promo service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promo repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Lookup(ctx context.Context, code string, now time.Time) (*models.PromoCode, error) {
	record, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := Validate(record, now); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *service) Redeem(ctx context.Context, tx *gorm.DB, code string, now time.Time) (*models.PromoCode, error) {
	repo := s.repo.WithTx(tx)

	record, err := repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := Validate(record, now); err != nil {
		return nil, err
	}
	if err := repo.IncrementUsage(ctx, code); err != nil {
		return nil, err
	}
	record.TimesUsed++
	return record, nil
}

// Validate applies the promo applicability rule: active status, current date
// inside the window, and remaining uses.
func Validate(record *models.PromoCode, now time.Time) error {
	if record == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "promo code not found")
	}
	if record.Status != enums.PromoStatusActive {
		return pkgerrors.New(pkgerrors.CodePromoRejected, "promo code is inactive")
	}
	if now.Before(record.StartsAt) {
		return pkgerrors.New(pkgerrors.CodePromoRejected, "promo code is not active yet")
	}
	if now.After(record.EndsAt) {
		return pkgerrors.New(pkgerrors.CodePromoRejected, "promo code has expired")
	}
	if record.UsageLimit > 0 && record.TimesUsed >= record.UsageLimit {
		return pkgerrors.New(pkgerrors.CodePromoRejected, "promo code usage limit reached")
	}
	if record.PercentOff < 0 || record.PercentOff > 100 {
		return pkgerrors.New(pkgerrors.CodePromoRejected, "promo code has an invalid discount")
	}
	return nil
}
