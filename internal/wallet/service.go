package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tripworks/booking-backend/pkg/db/models"
	pkgerrors "github.com/tripworks/booking-backend/pkg/errors"
)

// Service manages tourist prepaid balances. Debits happen inside the purchase
// transaction so a failed submission never takes money.
type Service interface {
	Balance(ctx context.Context, touristID uuid.UUID) (int64, error)
	// Debit atomically subtracts amountCents and returns the remaining
	// balance. A balance below the amount fails with an insufficient-funds
	// rejection and leaves the wallet untouched.
	Debit(ctx context.Context, tx *gorm.DB, touristID uuid.UUID, amountCents int64) (int64, error)
	Credit(ctx context.Context, tx *gorm.DB, touristID uuid.UUID, amountCents int64) (int64, error)
}

type service struct {
	db *gorm.DB
}

// NewService builds the wallet service.
func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	return &service{db: db}, nil
}

func (s *service) Balance(ctx context.Context, touristID uuid.UUID) (int64, error) {
	record, err := s.find(ctx, s.db, touristID)
	if err != nil {
		return 0, err
	}
	return record.BalanceCents, nil
}

func (s *service) Debit(ctx context.Context, tx *gorm.DB, touristID uuid.UUID, amountCents int64) (int64, error) {
	if amountCents < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "debit amount may not be negative")
	}
	conn := s.conn(tx)

	// Conditional update keeps the check and the subtraction in one
	// statement, so concurrent debits cannot both pass the balance check.
	result := conn.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("tourist_id = ? AND balance_cents >= ?", touristID, amountCents).
		UpdateColumn("balance_cents", gorm.Expr("balance_cents - ?", amountCents))
	if result.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "debit wallet")
	}
	if result.RowsAffected == 0 {
		record, err := s.find(ctx, conn, touristID)
		if err != nil {
			return 0, err
		}
		return record.BalanceCents, pkgerrors.New(pkgerrors.CodeInsufficientFunds, "wallet balance is insufficient").
			WithDetails(map[string]int64{"balance_cents": record.BalanceCents, "required_cents": amountCents})
	}

	record, err := s.find(ctx, conn, touristID)
	if err != nil {
		return 0, err
	}
	return record.BalanceCents, nil
}

func (s *service) Credit(ctx context.Context, tx *gorm.DB, touristID uuid.UUID, amountCents int64) (int64, error) {
	if amountCents < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "credit amount may not be negative")
	}
	conn := s.conn(tx)

	record, err := s.find(ctx, conn, touristID)
	if err != nil {
		return 0, err
	}
	record.BalanceCents += amountCents
	if err := conn.WithContext(ctx).Save(record).Error; err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit wallet")
	}
	return record.BalanceCents, nil
}

func (s *service) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

func (s *service) find(ctx context.Context, conn *gorm.DB, touristID uuid.UUID) (*models.Wallet, error) {
	var record models.Wallet
	err := conn.WithContext(ctx).Where("tourist_id = ?", touristID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}
	return &record, nil
}
