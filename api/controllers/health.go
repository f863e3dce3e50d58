package controllers

import (
	"context"
	"net/http"

	"go.uber.org/multierr"

	"github.com/tripworks/booking-backend/api/responses"
	"github.com/tripworks/booking-backend/pkg/config"
	pkgerrors "github.com/tripworks/booking-backend/pkg/errors"
	"github.com/tripworks/booking-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-TripWorks-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every backing store and aggregates the failures.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps ...pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-TripWorks-Env", cfg.App.Env)

		var combined error
		for _, dep := range deps {
			if dep == nil {
				continue
			}
			combined = multierr.Append(combined, dep.Ping(r.Context()))
		}
		if combined != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeDependency, combined, "readiness check failed"))
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
