package purchase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tripworks/booking-backend/internal/cart"
	"github.com/tripworks/booking-backend/internal/promo"
	"github.com/tripworks/booking-backend/internal/wallet"
	"github.com/tripworks/booking-backend/pkg/db"
	"github.com/tripworks/booking-backend/pkg/db/models"
	"github.com/tripworks/booking-backend/pkg/enums"
	pkgerrors "github.com/tripworks/booking-backend/pkg/errors"
	"github.com/tripworks/booking-backend/pkg/logger"
	"github.com/tripworks/booking-backend/pkg/metrics"
)

// Submission is a fully assembled purchase ready to be committed. The quote
// amounts arrive frozen in the display currency; the wallet charge arrives
// separately in USD minor units because balances are held in USD.
type Submission struct {
	TouristID         uuid.UUID
	Items             []models.CartItem
	SubtotalCents     int64
	DiscountCents     int64
	DeliveryFeeCents  int64
	TotalCents        int64
	Currency          string
	WalletChargeCents int64
	PaymentMethod     enums.PaymentMethod
	CardRef           *string
	PaymentSessionID  *string
	PromoCode         *string
	DeliveryType      enums.DeliveryType
	DeliveryTime      string
	DeliveryDate      *time.Time
	ShippingAddressID uuid.UUID
	LocationType      enums.LocationType
}

// Result reports the committed order. WalletBalanceCents is set only when the
// wallet was charged.
type Result struct {
	Order              *models.Order
	WalletBalanceCents *int64
}

// Service commits purchases. Order insert, promo redemption, wallet debit and
// cart emptying all happen in one transaction, so a rejected wallet debit or
// lapsed promo leaves the cart intact.
type Service interface {
	Submit(ctx context.Context, sub Submission) (*Result, error)
}

type service struct {
	client  *db.Client
	cartSvc cart.Service
	promos  promo.Service
	wallets wallet.Service
	checkm  *metrics.CheckoutMetrics
	logg    *logger.Logger
}

// NewService builds the purchase service.
func NewService(client *db.Client, cartSvc cart.Service, promos promo.Service, wallets wallet.Service, checkm *metrics.CheckoutMetrics, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if cartSvc == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if promos == nil {
		return nil, fmt.Errorf("promo service required")
	}
	if wallets == nil {
		return nil, fmt.Errorf("wallet service required")
	}
	return &service{
		client:  client,
		cartSvc: cartSvc,
		promos:  promos,
		wallets: wallets,
		checkm:  checkm,
		logg:    logg,
	}, nil
}

func (s *service) Submit(ctx context.Context, sub Submission) (*Result, error) {
	started := time.Now()
	result, err := s.submit(ctx, sub)
	s.checkm.ObservePurchaseDuration(time.Since(started))
	if err != nil {
		s.checkm.IncPurchase(sub.PaymentMethod.String(), "failure")
		return nil, err
	}
	s.checkm.IncPurchase(sub.PaymentMethod.String(), "success")
	return result, nil
}

func (s *service) submit(ctx context.Context, sub Submission) (*Result, error) {
	if len(sub.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot purchase an empty cart")
	}
	if !sub.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
	if sub.PaymentMethod.RequiresCard() && (sub.CardRef == nil || *sub.CardRef == "") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "card payment requires a card reference")
	}

	order := buildOrder(sub)
	var walletBalance *int64

	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Create(order).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		if sub.PromoCode != nil && *sub.PromoCode != "" {
			if _, err := s.promos.Redeem(ctx, tx, *sub.PromoCode, time.Now().UTC()); err != nil {
				return err
			}
		}

		if sub.PaymentMethod == enums.PaymentMethodWallet {
			remaining, err := s.wallets.Debit(ctx, tx, sub.TouristID, sub.WalletChargeCents)
			if err != nil {
				return err
			}
			walletBalance = &remaining
		}

		return s.cartSvc.Empty(ctx, tx, sub.TouristID)
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":       order.ID.String(),
			"payment_method": order.PaymentMethod.String(),
			"total_cents":    order.TotalCents,
		})
		s.logg.Info(logCtx, "purchase committed")
	}

	return &Result{Order: order, WalletBalanceCents: walletBalance}, nil
}

func buildOrder(sub Submission) *models.Order {
	status := enums.OrderStatusPlaced
	switch sub.PaymentMethod {
	case enums.PaymentMethodWallet, enums.PaymentMethodCreditCard:
		status = enums.OrderStatusPaid
	}

	orderID := uuid.New()
	lines := make([]models.OrderLineItem, 0, len(sub.Items))
	for _, item := range sub.Items {
		lines = append(lines, models.OrderLineItem{
			ID:             uuid.New(),
			OrderID:        orderID,
			ProductRef:     item.ProductRef,
			ProductName:    item.ProductName,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			Currency:       item.Currency,
			LineTotalCents: item.LineTotalCents,
		})
	}

	return &models.Order{
		ID:                orderID,
		TouristID:         sub.TouristID,
		Status:            status,
		PaymentMethod:     sub.PaymentMethod,
		CardRef:           sub.CardRef,
		PaymentSessionID:  sub.PaymentSessionID,
		SubtotalCents:     sub.SubtotalCents,
		DiscountCents:     sub.DiscountCents,
		DeliveryFeeCents:  sub.DeliveryFeeCents,
		TotalCents:        sub.TotalCents,
		Currency:          sub.Currency,
		PromoCode:         sub.PromoCode,
		DeliveryType:      sub.DeliveryType,
		DeliveryTime:      sub.DeliveryTime,
		DeliveryDate:      sub.DeliveryDate,
		ShippingAddressID: sub.ShippingAddressID,
		LocationType:      sub.LocationType,
		Items:             lines,
	}
}
