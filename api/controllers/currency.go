package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tripworks/booking-backend/api/responses"
	currencysvc "github.com/tripworks/booking-backend/internal/currency"
	pkgerrors "github.com/tripworks/booking-backend/pkg/errors"
	"github.com/tripworks/booking-backend/pkg/logger"
)

// Rates serves the cached exchange-rate table.
func Rates(svc currencysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "currency service unavailable"))
			return
		}

		rates, err := svc.Rates(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"rates": rates})
	}
}

// CurrencyByID resolves code and symbol metadata for a currency id.
func CurrencyByID(svc currencysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "currency service unavailable"))
			return
		}

		meta, err := svc.Currency(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, meta)
	}
}
