package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tripworks/booking-backend/api/middleware"
	"github.com/tripworks/booking-backend/api/responses"
	"github.com/tripworks/booking-backend/api/validators"
	addrsvc "github.com/tripworks/booking-backend/internal/addresses"
	"github.com/tripworks/booking-backend/pkg/db/models"
	pkgerrors "github.com/tripworks/booking-backend/pkg/errors"
	"github.com/tripworks/booking-backend/pkg/logger"
)

type addressResponse struct {
	ID           uuid.UUID `json:"id"`
	StreetName   string    `json:"street_name"`
	StreetNumber string    `json:"street_number"`
	FloorUnit    *string   `json:"floor_unit,omitempty"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	PostalCode   *string   `json:"postal_code,omitempty"`
	Country      string    `json:"country"`
	Landmark     *string   `json:"landmark,omitempty"`
	LocationType string    `json:"location_type"`
	IsDefault    bool      `json:"is_default"`
	CreatedAt    time.Time `json:"created_at"`
}

func newAddressResponse(address *models.ShippingAddress) addressResponse {
	return addressResponse{
		ID:           address.ID,
		StreetName:   address.StreetName,
		StreetNumber: address.StreetNumber,
		FloorUnit:    address.FloorUnit,
		City:         address.City,
		State:        address.State,
		PostalCode:   address.PostalCode,
		Country:      address.Country,
		Landmark:     address.Landmark,
		LocationType: address.LocationType.String(),
		IsDefault:    address.IsDefault,
		CreatedAt:    address.CreatedAt,
	}
}

// AddressList returns the tourist's saved addresses, default first.
func AddressList(svc addrsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		touristID := middleware.TouristIDFromContext(r.Context())

		rows, err := svc.List(r.Context(), touristID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]addressResponse, 0, len(rows))
		for i := range rows {
			out = append(out, newAddressResponse(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// AddressCreate saves a new address.
func AddressCreate(svc addrsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		touristID := middleware.TouristIDFromContext(r.Context())

		var payload addrsvc.AddressInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), touristID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newAddressResponse(created))
	}
}

// AddressUpdate rewrites an address's fields.
func AddressUpdate(svc addrsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		touristID := middleware.TouristIDFromContext(r.Context())

		addressID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address id"))
			return
		}

		var payload addrsvc.AddressInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), touristID, addressID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newAddressResponse(updated))
	}
}

// AddressDelete removes an address.
func AddressDelete(svc addrsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		touristID := middleware.TouristIDFromContext(r.Context())

		addressID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address id"))
			return
		}

		if err := svc.Delete(r.Context(), touristID, addressID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// AddressSetDefault promotes an address to the single default.
func AddressSetDefault(svc addrsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		touristID := middleware.TouristIDFromContext(r.Context())

		addressID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address id"))
			return
		}

		promoted, err := svc.SetDefault(r.Context(), touristID, addressID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newAddressResponse(promoted))
	}
}
