package checkout

import (
	"context"
	"encoding/json"
	"time"

	pkgerrors "github.com/tripworks/booking-backend/pkg/errors"
	"github.com/tripworks/booking-backend/pkg/redis"
)

// SessionStore persists checkout sessions. Each save refreshes the TTL, so a
// session only expires after a stretch with no activity.
type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

type sessionStore struct {
	kv  redis.KV
	ttl time.Duration
}

// NewSessionStore builds a redis-backed session store.
func NewSessionStore(kv redis.KV, ttl time.Duration) SessionStore {
	return &sessionStore{kv: kv, ttl: ttl}
}

func (s *sessionStore) Save(ctx context.Context, session *Session) error {
	session.UpdatedAt = time.Now().UTC()
	encoded, err := json.Marshal(session)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode checkout session")
	}
	key := s.kv.CheckoutSessionKey(session.ID)
	if err := s.kv.Set(ctx, key, string(encoded), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store checkout session")
	}
	return nil
}

func (s *sessionStore) Load(ctx context.Context, id string) (*Session, error) {
	raw, err := s.kv.Get(ctx, s.kv.CheckoutSessionKey(id))
	if err != nil {
		if redis.IsNil(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found or expired")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout session")
	}
	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode checkout session")
	}
	return &session, nil
}

func (s *sessionStore) Delete(ctx context.Context, id string) error {
	if err := s.kv.Del(ctx, s.kv.CheckoutSessionKey(id)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete checkout session")
	}
	return nil
}
