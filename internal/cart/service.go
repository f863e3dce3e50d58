package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tripworks/booking-backend/internal/pricing"
	"github.com/tripworks/booking-backend/pkg/db/models"
	pkgerrors "github.com/tripworks/booking-backend/pkg/errors"
	"github.com/tripworks/booking-backend/pkg/logger"
)

const maxLineQuantity = 99

// AddItemInput carries a new cart line. The unit price is what the catalog
// reports for the product; the line total is always recomputed here.
type AddItemInput struct {
	ProductRef     string `json:"product_ref" validate:"required"`
	ProductName    string `json:"product_name" validate:"required"`
	Quantity       int    `json:"quantity" validate:"required,gte=1"`
	UnitPriceCents int64  `json:"unit_price_cents" validate:"required,gte=0"`
	Currency       string `json:"currency" validate:"required,len=3"`
}

// Service owns a tourist's cart contents.
type Service interface {
	List(ctx context.Context, touristID uuid.UUID) ([]models.CartItem, error)
	AddItem(ctx context.Context, touristID uuid.UUID, input AddItemInput) (*models.CartItem, error)
	// UpdateQuantity sets the line's quantity; zero removes the line.
	UpdateQuantity(ctx context.Context, touristID, itemID uuid.UUID, quantity int) (*models.CartItem, error)
	RemoveItem(ctx context.Context, touristID, itemID uuid.UUID) error
	// Empty clears the cart, inside tx when the caller provides one.
	Empty(ctx context.Context, tx *gorm.DB, touristID uuid.UUID) error
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the cart service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) List(ctx context.Context, touristID uuid.UUID) ([]models.CartItem, error) {
	return s.repo.ListByTourist(ctx, touristID)
}

// AddItem inserts a new line, or folds the quantity into an existing line for
// the same product.
func (s *service) AddItem(ctx context.Context, touristID uuid.UUID, input AddItemInput) (*models.CartItem, error) {
	input.ProductRef = strings.TrimSpace(input.ProductRef)
	input.Currency = strings.ToUpper(strings.TrimSpace(input.Currency))
	if input.Quantity > maxLineQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity may not exceed %d", maxLineQuantity))
	}

	existing, err := s.repo.FindByProductRef(ctx, touristID, input.ProductRef)
	if err == nil {
		existing.Quantity += input.Quantity
		if existing.Quantity > maxLineQuantity {
			existing.Quantity = maxLineQuantity
		}
		existing.LineTotalCents = existing.UnitPriceCents * int64(existing.Quantity)
		if err := s.repo.Save(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		return nil, err
	}

	item := &models.CartItem{
		ID:             uuid.New(),
		TouristID:      touristID,
		ProductRef:     input.ProductRef,
		ProductName:    strings.TrimSpace(input.ProductName),
		Quantity:       input.Quantity,
		UnitPriceCents: input.UnitPriceCents,
		Currency:       input.Currency,
		LineTotalCents: input.UnitPriceCents * int64(input.Quantity),
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "product_ref", item.ProductRef), "cart item added")
	}
	return item, nil
}

func (s *service) UpdateQuantity(ctx context.Context, touristID, itemID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity < 0 || quantity > maxLineQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be between 0 and %d", maxLineQuantity))
	}

	item, err := s.repo.FindByID(ctx, touristID, itemID)
	if err != nil {
		return nil, err
	}

	if quantity == 0 {
		if err := s.repo.Delete(ctx, touristID, itemID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	item.Quantity = quantity
	item.LineTotalCents = item.UnitPriceCents * int64(quantity)
	if err := s.repo.Save(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) RemoveItem(ctx context.Context, touristID, itemID uuid.UUID) error {
	return s.repo.Delete(ctx, touristID, itemID)
}

func (s *service) Empty(ctx context.Context, tx *gorm.DB, touristID uuid.UUID) error {
	return s.repo.WithTx(tx).DeleteByTourist(ctx, touristID)
}

// LineItems maps stored cart rows onto the pricing calculator's inputs.
func LineItems(items []models.CartItem) []pricing.LineItem {
	lines := make([]pricing.LineItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, pricing.LineItem{
			UnitPrice: pricing.FromCents(item.UnitPriceCents),
			Currency:  item.Currency,
			Quantity:  item.Quantity,
		})
	}
	return lines
}
