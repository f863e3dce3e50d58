package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	TouristID         uuid.UUID
	PreferredCurrency string
	JTI               string
}

// AccessTokenClaims represents the typed JWT issued to clients. The tourist
// identity travels here explicitly instead of through ambient cookie state.
type AccessTokenClaims struct {
	TouristID         uuid.UUID `json:"tourist_id"`
	PreferredCurrency string    `json:"preferred_currency,omitempty"`
	jwt.RegisteredClaims
}
