package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tripworks/booking-backend/pkg/db/models"
	pkgerrors "github.com/tripworks/booking-backend/pkg/errors"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.CartItem{}))
	return conn
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := openTestDB(t)
	svc, err := NewService(NewRepository(conn), nil)
	require.NoError(t, err)
	return svc, conn
}

func TestAddItemComputesLineTotal(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	touristID := uuid.New()

	item, err := svc.AddItem(context.Background(), touristID, AddItemInput{
		ProductRef:     "tour_pyramids",
		ProductName:    "Pyramids Day Tour",
		Quantity:       3,
		UnitPriceCents: 2500,
		Currency:       "usd",
	})
	require.NoError(t, err)
	require.Equal(t, int64(7500), item.LineTotalCents)
	require.Equal(t, "USD", item.Currency)
}

func TestAddItemFoldsDuplicateProduct(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	touristID := uuid.New()
	input := AddItemInput{
		ProductRef:     "tour_pyramids",
		ProductName:    "Pyramids Day Tour",
		Quantity:       2,
		UnitPriceCents: 2500,
		Currency:       "USD",
	}

	first, err := svc.AddItem(context.Background(), touristID, input)
	require.NoError(t, err)
	second, err := svc.AddItem(context.Background(), touristID, input)
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 4, second.Quantity)
	require.Equal(t, int64(10000), second.LineTotalCents)

	items, err := svc.List(context.Background(), touristID)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	touristID := uuid.New()

	item, err := svc.AddItem(context.Background(), touristID, AddItemInput{
		ProductRef:     "tour_nile",
		ProductName:    "Nile Cruise",
		Quantity:       1,
		UnitPriceCents: 9900,
		Currency:       "USD",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateQuantity(context.Background(), touristID, item.ID, 0)
	require.NoError(t, err)
	require.Nil(t, updated)

	items, err := svc.List(context.Background(), touristID)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestUpdateQuantityRecomputesTotal(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	touristID := uuid.New()

	item, err := svc.AddItem(context.Background(), touristID, AddItemInput{
		ProductRef:     "tour_nile",
		ProductName:    "Nile Cruise",
		Quantity:       1,
		UnitPriceCents: 9900,
		Currency:       "USD",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateQuantity(context.Background(), touristID, item.ID, 5)
	require.NoError(t, err)
	require.Equal(t, int64(49500), updated.LineTotalCents)
}

func TestRemoveItemScopedToTourist(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	owner := uuid.New()

	item, err := svc.AddItem(context.Background(), owner, AddItemInput{
		ProductRef:     "tour_nile",
		ProductName:    "Nile Cruise",
		Quantity:       1,
		UnitPriceCents: 9900,
		Currency:       "USD",
	})
	require.NoError(t, err)

	err = svc.RemoveItem(context.Background(), uuid.New(), item.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	require.NoError(t, svc.RemoveItem(context.Background(), owner, item.ID))
}

func TestEmptyClearsEveryLine(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	touristID := uuid.New()

	for _, ref := range []string{"a", "b", "c"} {
		_, err := svc.AddItem(context.Background(), touristID, AddItemInput{
			ProductRef:     ref,
			ProductName:    "Tour " + ref,
			Quantity:       1,
			UnitPriceCents: 1000,
			Currency:       "USD",
		})
		require.NoError(t, err)
	}

	require.NoError(t, svc.Empty(context.Background(), conn, touristID))

	items, err := svc.List(context.Background(), touristID)
	require.NoError(t, err)
	require.Empty(t, items)
}
