package checkout

import (
	"context"
	"time"

	pkgerrors "github.com/tripworks/booking-backend/pkg/errors"
	"github.com/tripworks/booking-backend/pkg/redis"
)

const latchScope = "finalize"

// FinalizeLatch is the one-shot guard around payment finalization. The flag is
// checked-and-set atomically before any side-effecting call, so refreshes and
// duplicate redirects for the same payment session perform exactly one
// purchase submission. Release reopens the latch after a failed finalize so
// the tourist can retry.
type FinalizeLatch struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

// NewFinalizeLatch builds the latch with the retention window for settled
// payment session ids.
func NewFinalizeLatch(store redis.IdempotencyStore, ttl time.Duration) *FinalizeLatch {
	return &FinalizeLatch{store: store, ttl: ttl}
}

// CheckAndMark claims the payment session id. It returns true when this caller
// won the claim and false when a finalize already ran or is in flight.
func (l *FinalizeLatch) CheckAndMark(ctx context.Context, paymentSessionID string) (bool, error) {
	if paymentSessionID == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "payment session id is required")
	}
	key := l.store.IdempotencyKey(latchScope, paymentSessionID)
	acquired, err := l.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), l.ttl)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim finalize latch")
	}
	return acquired, nil
}

// Release reopens the latch for the payment session id.
func (l *FinalizeLatch) Release(ctx context.Context, paymentSessionID string) error {
	key := l.store.IdempotencyKey(latchScope, paymentSessionID)
	if err := l.store.Del(ctx, key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release finalize latch")
	}
	return nil
}
