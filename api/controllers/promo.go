package controllers

import (
	"net/http"
	"time"

	"github.com/tripworks/booking-backend/api/responses"
	"github.com/tripworks/booking-backend/api/validators"
	promosvc "github.com/tripworks/booking-backend/internal/promo"
	pkgerrors "github.com/tripworks/booking-backend/pkg/errors"
	"github.com/tripworks/booking-backend/pkg/logger"
)

type promoLookupRequest struct {
	Code string `json:"code" validate:"required"`
}

type promoResponse struct {
	Code       string    `json:"code"`
	PercentOff int       `json:"percent_off"`
	Status     string    `json:"status"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
}

// PromoLookup validates a promo code for display. Usage is not consumed here;
// that happens at purchase time.
func PromoLookup(svc promosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promo service unavailable"))
			return
		}

		var payload promoLookupRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Lookup(r.Context(), payload.Code, time.Now().UTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, promoResponse{
			Code:       record.Code,
			PercentOff: record.PercentOff,
			Status:     record.Status.String(),
			StartsAt:   record.StartsAt,
			EndsAt:     record.EndsAt,
		})
	}
}
