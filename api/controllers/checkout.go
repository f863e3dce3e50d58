package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tripworks/booking-backend/api/middleware"
	"github.com/tripworks/booking-backend/api/responses"
	"github.com/tripworks/booking-backend/api/validators"
	checkoutsvc "github.com/tripworks/booking-backend/internal/checkout"
	"github.com/tripworks/booking-backend/internal/delivery"
	"github.com/tripworks/booking-backend/internal/pricing"
	"github.com/tripworks/booking-backend/internal/purchase"
	pkgerrors "github.com/tripworks/booking-backend/pkg/errors"
	"github.com/tripworks/booking-backend/pkg/logger"
)

type checkoutSessionResponse struct {
	ID              string                `json:"id"`
	Step            string                `json:"step"`
	Items           []cartItemResponse    `json:"items"`
	Currency        string                `json:"currency"`
	UserInfo        *checkoutsvc.UserInfo `json:"user_info,omitempty"`
	DeliveryType    string                `json:"delivery_type,omitempty"`
	DeliveryTime    string                `json:"delivery_time,omitempty"`
	DeliveryDate    *time.Time            `json:"delivery_date,omitempty"`
	AddressID       *uuid.UUID            `json:"address_id,omitempty"`
	PaymentMethod   string                `json:"payment_method,omitempty"`
	PromoCode       *string               `json:"promo_code,omitempty"`
	PromoPercentOff int                   `json:"promo_percent_off,omitempty"`
	OrderID         *uuid.UUID            `json:"order_id,omitempty"`
	FailureReason   string                `json:"failure_reason,omitempty"`
	Quote           *pricing.DisplayQuote `json:"quote,omitempty"`
}

func newCheckoutSessionResponse(session *checkoutsvc.Session, quote *pricing.Quote) checkoutSessionResponse {
	out := checkoutSessionResponse{
		ID:              session.ID,
		Step:            session.Step.String(),
		Items:           newCartResponse(session.Items).Items,
		Currency:        session.Currency,
		UserInfo:        session.UserInfo,
		DeliveryType:    session.DeliveryType.String(),
		DeliveryTime:    session.DeliveryTime,
		DeliveryDate:    session.DeliveryDate,
		AddressID:       session.AddressID,
		PaymentMethod:   session.PaymentMethod.String(),
		PromoCode:       session.PromoCode,
		PromoPercentOff: session.PromoPercentOff,
		OrderID:         session.OrderID,
		FailureReason:   session.FailureReason,
	}
	if quote != nil {
		display := quote.Display()
		out.Quote = &display
	}
	return out
}

type startCheckoutRequest struct {
	Currency string `json:"currency,omitempty" validate:"omitempty,len=3"`
}

// CheckoutStart snapshots the cart into a new session.
func CheckoutStart(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		touristID := middleware.TouristIDFromContext(r.Context())

		var payload startCheckoutRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		currency := payload.Currency
		if currency == "" {
			currency = middleware.CurrencyFromContext(r.Context())
		}

		session, err := svc.Start(r.Context(), touristID, currency)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutSessionResponse(session, nil))
	}
}

// CheckoutGet returns the session state with the current quote.
func CheckoutGet(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		touristID := middleware.TouristIDFromContext(r.Context())

		session, quote, err := svc.Get(r.Context(), touristID, chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCheckoutSessionResponse(session, quote))
	}
}

// CheckoutAdvance validates the current step's payload and moves forward.
func CheckoutAdvance(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		touristID := middleware.TouristIDFromContext(r.Context())

		var payload checkoutsvc.AdvanceInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Advance(r.Context(), touristID, chi.URLParam(r, "id"), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCheckoutSessionResponse(session, nil))
	}
}

// CheckoutBack steps the wizard backward without dropping entered data.
func CheckoutBack(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		touristID := middleware.TouristIDFromContext(r.Context())

		session, err := svc.Back(r.Context(), touristID, chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCheckoutSessionResponse(session, nil))
	}
}

// CheckoutPaymentSession opens the processor-hosted payment page.
func CheckoutPaymentSession(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		touristID := middleware.TouristIDFromContext(r.Context())

		created, err := svc.CreatePaymentSession(r.Context(), touristID, chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{
			"id":           created.ID,
			"redirect_url": created.RedirectURL,
		})
	}
}

type receiptResponse struct {
	Session            checkoutSessionResponse `json:"session"`
	OrderID            *uuid.UUID              `json:"order_id,omitempty"`
	WalletBalanceCents *int64                  `json:"wallet_balance_cents,omitempty"`
}

func newReceiptResponse(session *checkoutsvc.Session, result *purchase.Result) receiptResponse {
	out := receiptResponse{Session: newCheckoutSessionResponse(session, nil)}
	if result != nil {
		out.OrderID = &result.Order.ID
		out.WalletBalanceCents = result.WalletBalanceCents
	} else {
		out.OrderID = session.OrderID
	}
	return out
}

// CheckoutPaymentReturn finalizes the card path after the processor redirect.
// Identity comes from the signed resume token, not a bearer header, because
// the processor controls this request.
func CheckoutPaymentReturn(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.URL.Query().Get("token"))
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "resume token is required"))
			return
		}

		session, result, err := svc.FinalizeReturn(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newReceiptResponse(session, result))
	}
}

// CheckoutPurchase finalizes the synchronous wallet / cash / debit path.
func CheckoutPurchase(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		touristID := middleware.TouristIDFromContext(r.Context())

		session, result, err := svc.SubmitPurchase(r.Context(), touristID, chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newReceiptResponse(session, result))
	}
}

type deliveryOptionResponse struct {
	Type                  string `json:"type"`
	FeeCents              int64  `json:"fee_cents"`
	EstimatedBusinessDays int    `json:"estimated_business_days"`
}

// DeliveryOptions lists the static tariff, cheapest first.
func DeliveryOptions(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := delivery.Options()
		out := make([]deliveryOptionResponse, 0, len(opts))
		for _, opt := range opts {
			out = append(out, deliveryOptionResponse{
				Type:                  opt.Type.String(),
				FeeCents:              opt.FeeCents,
				EstimatedBusinessDays: opt.EstimatedBusinessDays,
			})
		}
		responses.WriteSuccess(w, out)
	}
}
