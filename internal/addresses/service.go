package addresses

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tripworks/booking-backend/pkg/db"
	"github.com/tripworks/booking-backend/pkg/db/models"
	"github.com/tripworks/booking-backend/pkg/enums"
	pkgerrors "github.com/tripworks/booking-backend/pkg/errors"
)

// AddressInput carries the writable fields of a shipping address.
type AddressInput struct {
	StreetName   string  `json:"street_name" validate:"required"`
	StreetNumber string  `json:"street_number" validate:"required"`
	FloorUnit    *string `json:"floor_unit,omitempty"`
	City         string  `json:"city" validate:"required"`
	State        string  `json:"state" validate:"required"`
	PostalCode   *string `json:"postal_code,omitempty"`
	Country      string  `json:"country" validate:"required"`
	Landmark     *string `json:"landmark,omitempty"`
	LocationType string  `json:"location_type" validate:"required"`
	IsDefault    bool    `json:"is_default"`
}

// Service manages a tourist's saved shipping addresses.
type Service interface {
	List(ctx context.Context, touristID uuid.UUID) ([]models.ShippingAddress, error)
	Get(ctx context.Context, touristID, addressID uuid.UUID) (*models.ShippingAddress, error)
	Create(ctx context.Context, touristID uuid.UUID, input AddressInput) (*models.ShippingAddress, error)
	Update(ctx context.Context, touristID, addressID uuid.UUID, input AddressInput) (*models.ShippingAddress, error)
	Delete(ctx context.Context, touristID, addressID uuid.UUID) error
	SetDefault(ctx context.Context, touristID, addressID uuid.UUID) (*models.ShippingAddress, error)
}

type service struct {
	client *db.Client
	repo   Repository
}

// NewService builds the address service.
func NewService(client *db.Client, repo Repository) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	return &service{client: client, repo: repo}, nil
}

func (s *service) List(ctx context.Context, touristID uuid.UUID) ([]models.ShippingAddress, error) {
	return s.repo.ListByTourist(ctx, touristID)
}

func (s *service) Get(ctx context.Context, touristID, addressID uuid.UUID) (*models.ShippingAddress, error) {
	return s.repo.FindByID(ctx, touristID, addressID)
}

// Create saves a new address. The first address a tourist saves becomes the
// default regardless of the flag; an explicit default displaces the previous
// one inside the same transaction.
func (s *service) Create(ctx context.Context, touristID uuid.UUID, input AddressInput) (*models.ShippingAddress, error) {
	locationType, err := parseLocationType(input.LocationType)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.ListByTourist(ctx, touristID)
	if err != nil {
		return nil, err
	}

	address := &models.ShippingAddress{
		ID:           uuid.New(),
		TouristID:    touristID,
		StreetName:   strings.TrimSpace(input.StreetName),
		StreetNumber: strings.TrimSpace(input.StreetNumber),
		FloorUnit:    input.FloorUnit,
		City:         strings.TrimSpace(input.City),
		State:        strings.TrimSpace(input.State),
		PostalCode:   input.PostalCode,
		Country:      strings.TrimSpace(input.Country),
		Landmark:     input.Landmark,
		LocationType: locationType,
		IsDefault:    input.IsDefault || len(existing) == 0,
	}

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if address.IsDefault {
			if err := repo.ClearDefault(ctx, touristID); err != nil {
				return err
			}
		}
		return repo.Create(ctx, address)
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

func (s *service) Update(ctx context.Context, touristID, addressID uuid.UUID, input AddressInput) (*models.ShippingAddress, error) {
	locationType, err := parseLocationType(input.LocationType)
	if err != nil {
		return nil, err
	}

	address, err := s.repo.FindByID(ctx, touristID, addressID)
	if err != nil {
		return nil, err
	}

	address.StreetName = strings.TrimSpace(input.StreetName)
	address.StreetNumber = strings.TrimSpace(input.StreetNumber)
	address.FloorUnit = input.FloorUnit
	address.City = strings.TrimSpace(input.City)
	address.State = strings.TrimSpace(input.State)
	address.PostalCode = input.PostalCode
	address.Country = strings.TrimSpace(input.Country)
	address.Landmark = input.Landmark
	address.LocationType = locationType

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if input.IsDefault && !address.IsDefault {
			if err := repo.ClearDefault(ctx, touristID); err != nil {
				return err
			}
			address.IsDefault = true
		}
		return repo.Save(ctx, address)
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

func (s *service) Delete(ctx context.Context, touristID, addressID uuid.UUID) error {
	return s.repo.Delete(ctx, touristID, addressID)
}

// SetDefault promotes the address, demoting the previous default atomically.
func (s *service) SetDefault(ctx context.Context, touristID, addressID uuid.UUID) (*models.ShippingAddress, error) {
	address, err := s.repo.FindByID(ctx, touristID, addressID)
	if err != nil {
		return nil, err
	}
	if address.IsDefault {
		return address, nil
	}

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.ClearDefault(ctx, touristID); err != nil {
			return err
		}
		address.IsDefault = true
		return repo.Save(ctx, address)
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

func parseLocationType(raw string) (enums.LocationType, error) {
	locationType, err := enums.ParseLocationType(raw)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown location type").
			WithDetails(map[string]string{"location_type": raw})
	}
	return locationType, nil
}
