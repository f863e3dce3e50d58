package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tripworks/booking-backend/api/responses"
	pkgauth "github.com/tripworks/booking-backend/pkg/auth"
	"github.com/tripworks/booking-backend/pkg/config"
	pkgerrors "github.com/tripworks/booking-backend/pkg/errors"
	"github.com/tripworks/booking-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// tourist identity and preferred currency.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.TouristID == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing tourist identity"))
				return
			}

			ctx := WithTouristID(r.Context(), claims.TouristID)
			if claims.PreferredCurrency != "" {
				ctx = WithCurrency(ctx, claims.PreferredCurrency)
			}
			if logg != nil {
				ctx = logg.WithTouristID(ctx, claims.TouristID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
