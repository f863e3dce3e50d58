package checkout

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tripworks/booking-backend/pkg/config"
	pkgerrors "github.com/tripworks/booking-backend/pkg/errors"
)

var resumeSigningMethod = jwt.SigningMethodHS256

// resumeClaims is the signed continuation handed to the payment processor's
// return URL. It carries only references; the session state itself stays
// server-side. A forged or expired token can therefore never mint a purchase,
// it can only fail to resolve a session.
type resumeClaims struct {
	SessionID string    `json:"checkout_session_id"`
	TouristID uuid.UUID `json:"tourist_id"`
	jwt.RegisteredClaims
}

// EncodeResumeToken signs a continuation token for the payment return path.
// The token outlives the session TTL by the configured skew so a slow redirect
// does not strand a paid session.
func EncodeResumeToken(cfg config.JWTConfig, checkout config.CheckoutConfig, now time.Time, sessionID string, touristID uuid.UUID) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if sessionID == "" {
		return "", fmt.Errorf("checkout session id is required")
	}
	if touristID == uuid.Nil {
		return "", fmt.Errorf("tourist id is required")
	}

	claims := resumeClaims{
		SessionID: sessionID,
		TouristID: touristID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(checkout.SessionTTL + checkout.ResumeTokenSkew)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(resumeSigningMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing resume token: %w", err)
	}
	return signed, nil
}

// DecodeResumeToken validates the continuation token and returns the session
// and tourist references it carries.
func DecodeResumeToken(cfg config.JWTConfig, tokenString string) (sessionID string, touristID uuid.UUID, err error) {
	claims := &resumeClaims{}
	_, err = jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != resumeSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{resumeSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	)
	if err != nil {
		return "", uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid resume token")
	}
	if claims.SessionID == "" || claims.TouristID == uuid.Nil {
		return "", uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "resume token is missing references")
	}
	return claims.SessionID, claims.TouristID, nil
}
