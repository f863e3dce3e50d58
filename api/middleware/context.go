package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ctxTouristID contextKey = "tourist_id"
	ctxCurrency  contextKey = "preferred_currency"
)

// TouristIDFromContext returns the authenticated tourist id, or uuid.Nil when
// the request is unauthenticated.
func TouristIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxTouristID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// CurrencyFromContext returns the tourist's preferred display currency code.
func CurrencyFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCurrency).(string); ok {
		return v
	}
	return ""
}

// WithTouristID injects the tourist identity into the context.
func WithTouristID(ctx context.Context, touristID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxTouristID, touristID)
}

// WithCurrency injects the preferred display currency into the context.
func WithCurrency(ctx context.Context, code string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCurrency, code)
}
