package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tripworks/booking-backend/pkg/db"
	"github.com/tripworks/booking-backend/pkg/db/models"
	pkgerrors "github.com/tripworks/booking-backend/pkg/errors"
)

// Repository persists cart lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListByTourist(ctx context.Context, touristID uuid.UUID) ([]models.CartItem, error)
	FindByProductRef(ctx context.Context, touristID uuid.UUID, productRef string) (*models.CartItem, error)
	FindByID(ctx context.Context, touristID, itemID uuid.UUID) (*models.CartItem, error)
	Create(ctx context.Context, item *models.CartItem) error
	Save(ctx context.Context, item *models.CartItem) error
	Delete(ctx context.Context, touristID, itemID uuid.UUID) error
	DeleteByTourist(ctx context.Context, touristID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a gorm-backed cart repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListByTourist(ctx context.Context, touristID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Where("tourist_id = ?", touristID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
	}
	return items, nil
}

func (r *repository) FindByProductRef(ctx context.Context, touristID uuid.UUID, productRef string) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("tourist_id = ? AND product_ref = ?", touristID, productRef).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	return &item, nil
}

func (r *repository) FindByID(ctx context.Context, touristID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND tourist_id = ?", itemID, touristID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	return &item, nil
}

func (r *repository) Create(ctx context.Context, item *models.CartItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart line already exists for product")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
	}
	return nil
}

func (r *repository) Save(ctx context.Context, item *models.CartItem) error {
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, touristID, itemID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND tourist_id = ?", itemID, touristID).
		Delete(&models.CartItem{})
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "delete cart item")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return nil
}

func (r *repository) DeleteByTourist(ctx context.Context, touristID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Where("tourist_id = ?", touristID).
		Delete(&models.CartItem{}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "empty cart")
	}
	return nil
}
