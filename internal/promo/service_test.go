package promo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tripworks/booking-backend/pkg/db/models"
	"github.com/tripworks/booking-backend/pkg/enums"
	pkgerrors "github.com/tripworks/booking-backend/pkg/errors"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared&_pragma=foreign_keys(1)"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.PromoCode{}))
	return conn
}

func seedPromo(t *testing.T, conn *gorm.DB, mutate func(*models.PromoCode)) *models.PromoCode {
	t.Helper()
	now := time.Now().UTC()
	record := &models.PromoCode{
		ID:         uuid.New(),
		Code:       "SUMMER10",
		PercentOff: 10,
		Status:     enums.PromoStatusActive,
		StartsAt:   now.Add(-time.Hour),
		EndsAt:     now.Add(24 * time.Hour),
		UsageLimit: 5,
		TimesUsed:  0,
	}
	if mutate != nil {
		mutate(record)
	}
	require.NoError(t, conn.Create(record).Error)
	return record
}

func TestLookupReturnsActivePromo(t *testing.T) {
	t.Parallel()

	conn := openTestDB(t)
	seedPromo(t, conn, nil)

	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	record, err := svc.Lookup(context.Background(), "SUMMER10", time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, 10, record.PercentOff)
}

func TestLookupUnknownCodeIsNotFound(t *testing.T) {
	t.Parallel()

	conn := openTestDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	_, err = svc.Lookup(context.Background(), "NOPE", time.Now().UTC())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestValidateRejections(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	base := func() *models.PromoCode {
		return &models.PromoCode{
			ID:         uuid.New(),
			Code:       "SUMMER10",
			PercentOff: 10,
			Status:     enums.PromoStatusActive,
			StartsAt:   now.Add(-time.Hour),
			EndsAt:     now.Add(time.Hour),
			UsageLimit: 2,
		}
	}

	cases := []struct {
		name   string
		mutate func(*models.PromoCode)
	}{
		{"inactive", func(p *models.PromoCode) { p.Status = enums.PromoStatusInactive }},
		{"not started", func(p *models.PromoCode) { p.StartsAt = now.Add(time.Hour) }},
		{"expired", func(p *models.PromoCode) { p.EndsAt = now.Add(-time.Minute) }},
		{"exhausted", func(p *models.PromoCode) { p.TimesUsed = 2 }},
		{"bad percent", func(p *models.PromoCode) { p.PercentOff = 150 }},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			record := base()
			tc.mutate(record)
			err := Validate(record, now)
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			require.Equal(t, pkgerrors.CodePromoRejected, typed.Code())
		})
	}

	require.NoError(t, Validate(base(), now))
}

func TestRedeemIncrementsUsage(t *testing.T) {
	t.Parallel()

	conn := openTestDB(t)
	seedPromo(t, conn, func(p *models.PromoCode) { p.UsageLimit = 1 })

	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	record, err := svc.Redeem(context.Background(), conn, "SUMMER10", time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, 1, record.TimesUsed)

	_, err = svc.Redeem(context.Background(), conn, "SUMMER10", time.Now().UTC())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodePromoRejected, typed.Code())
}
