package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tripworks/booking-backend/api/middleware"
	"github.com/tripworks/booking-backend/api/responses"
	"github.com/tripworks/booking-backend/api/validators"
	cartsvc "github.com/tripworks/booking-backend/internal/cart"
	"github.com/tripworks/booking-backend/pkg/db/models"
	pkgerrors "github.com/tripworks/booking-backend/pkg/errors"
	"github.com/tripworks/booking-backend/pkg/logger"
)

type cartItemResponse struct {
	ID             uuid.UUID `json:"id"`
	ProductRef     string    `json:"product_ref"`
	ProductName    string    `json:"product_name"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	Currency       string    `json:"currency"`
	LineTotalCents int64     `json:"line_total_cents"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type cartResponse struct {
	Items         []cartItemResponse `json:"items"`
	SubtotalCents int64              `json:"subtotal_cents"`
}

func newCartResponse(items []models.CartItem) cartResponse {
	out := cartResponse{Items: make([]cartItemResponse, 0, len(items))}
	for _, item := range items {
		out.Items = append(out.Items, cartItemResponse{
			ID:             item.ID,
			ProductRef:     item.ProductRef,
			ProductName:    item.ProductName,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			Currency:       item.Currency,
			LineTotalCents: item.LineTotalCents,
			CreatedAt:      item.CreatedAt,
			UpdatedAt:      item.UpdatedAt,
		})
		out.SubtotalCents += item.LineTotalCents
	}
	return out
}

// CartGet returns the tourist's current cart.
func CartGet(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		touristID := middleware.TouristIDFromContext(r.Context())

		items, err := svc.List(r.Context(), touristID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(items))
	}
}

// CartAddItem adds a line and answers with the re-read cart.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		touristID := middleware.TouristIDFromContext(r.Context())

		var payload cartsvc.AddItemInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := svc.AddItem(r.Context(), touristID, payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.List(r.Context(), touristID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCartResponse(items))
	}
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0"`
}

// CartUpdateItem sets a line's quantity; zero removes the line.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		touristID := middleware.TouristIDFromContext(r.Context())

		itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := svc.UpdateQuantity(r.Context(), touristID, itemID, *payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.List(r.Context(), touristID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(items))
	}
}

// CartRemoveItem deletes one line.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		touristID := middleware.TouristIDFromContext(r.Context())

		itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		if err := svc.RemoveItem(r.Context(), touristID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.List(r.Context(), touristID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(items))
	}
}

// CartEmpty clears every line on explicit request.
func CartEmpty(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		touristID := middleware.TouristIDFromContext(r.Context())

		if err := svc.Empty(r.Context(), nil, touristID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(nil))
	}
}
