package addresses

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tripworks/booking-backend/pkg/db/models"
	pkgerrors "github.com/tripworks/booking-backend/pkg/errors"
)

// Repository persists shipping addresses.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListByTourist(ctx context.Context, touristID uuid.UUID) ([]models.ShippingAddress, error)
	FindByID(ctx context.Context, touristID, addressID uuid.UUID) (*models.ShippingAddress, error)
	Create(ctx context.Context, address *models.ShippingAddress) error
	Save(ctx context.Context, address *models.ShippingAddress) error
	Delete(ctx context.Context, touristID, addressID uuid.UUID) error
	ClearDefault(ctx context.Context, touristID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a gorm-backed address repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListByTourist(ctx context.Context, touristID uuid.UUID) ([]models.ShippingAddress, error) {
	var rows []models.ShippingAddress
	err := r.db.WithContext(ctx).
		Where("tourist_id = ?", touristID).
		Order("is_default DESC, created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	return rows, nil
}

func (r *repository) FindByID(ctx context.Context, touristID, addressID uuid.UUID) (*models.ShippingAddress, error) {
	var row models.ShippingAddress
	err := r.db.WithContext(ctx).
		Where("id = ? AND tourist_id = ?", addressID, touristID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	return &row, nil
}

func (r *repository) Create(ctx context.Context, address *models.ShippingAddress) error {
	if err := r.db.WithContext(ctx).Create(address).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
	}
	return nil
}

func (r *repository) Save(ctx context.Context, address *models.ShippingAddress) error {
	if err := r.db.WithContext(ctx).Save(address).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save address")
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, touristID, addressID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND tourist_id = ?", addressID, touristID).
		Delete(&models.ShippingAddress{})
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "delete address")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return nil
}

// ClearDefault drops the default flag from every address of the tourist.
func (r *repository) ClearDefault(ctx context.Context, touristID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Model(&models.ShippingAddress{}).
		Where("tourist_id = ? AND is_default", touristID).
		UpdateColumn("is_default", false).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default address")
	}
	return nil
}
