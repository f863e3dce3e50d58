package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tripworks/booking-backend/internal/pricing"
	pkgerrors "github.com/tripworks/booking-backend/pkg/errors"
	"github.com/tripworks/booking-backend/pkg/logger"
	"github.com/tripworks/booking-backend/pkg/redis"
)

// symbolsByCode covers the currencies the storefront sells in. Codes outside
// this table format with a code prefix instead of a symbol.
var symbolsByCode = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"EGP": "E£",
	"AED": "د.إ",
	"SAR": "﷼",
}

type ratesFetcher interface {
	FetchRates(ctx context.Context) (map[string]decimal.Decimal, error)
	FetchCurrency(ctx context.Context, id string) (*Metadata, error)
}

// Service exposes cached exchange-rate and currency-metadata lookups.
type Service interface {
	Rates(ctx context.Context) (pricing.Rates, error)
	Currency(ctx context.Context, id string) (*Metadata, error)
	Display(ctx context.Context, code string) pricing.Currency
}

type service struct {
	fetcher ratesFetcher
	cache   redis.KV
	ttl     time.Duration
	logg    *logger.Logger
}

// NewService builds the currency service backed by the feed client and cache.
func NewService(fetcher ratesFetcher, cache redis.KV, ttl time.Duration, logg *logger.Logger) (Service, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("rates fetcher required")
	}
	return &service{fetcher: fetcher, cache: cache, ttl: ttl, logg: logg}, nil
}

// Rates returns the rate table, serving from cache when fresh.
func (s *service) Rates(ctx context.Context) (pricing.Rates, error) {
	if cached, ok := s.cachedRates(ctx); ok {
		return cached, nil
	}

	fetched, err := s.fetcher.FetchRates(ctx)
	if err != nil {
		return nil, err
	}
	s.storeRates(ctx, fetched)

	rates := make(pricing.Rates, len(fetched))
	for code, rate := range fetched {
		rates[code] = rate
	}
	return rates, nil
}

// Currency resolves metadata for a currency id, cached under the id.
func (s *service) Currency(ctx context.Context, id string) (*Metadata, error) {
	if s.cache != nil {
		key := s.cache.CacheKey("currency", id)
		if raw, err := s.cache.Get(ctx, key); err == nil && raw != "" {
			var meta Metadata
			if unmarshalErr := json.Unmarshal([]byte(raw), &meta); unmarshalErr == nil {
				return &meta, nil
			}
		}
	}

	meta, err := s.fetcher.FetchCurrency(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if encoded, marshalErr := json.Marshal(meta); marshalErr == nil {
			key := s.cache.CacheKey("currency", id)
			if setErr := s.cache.Set(ctx, key, string(encoded), s.ttl); setErr != nil && s.logg != nil {
				s.logg.Warn(ctx, "currency metadata cache write failed")
			}
		}
	}
	return meta, nil
}

// Display maps a currency code onto the formatting pair used by pricing.
// Unknown codes still produce a usable value; formatting falls back to the
// code prefix.
func (s *service) Display(_ context.Context, code string) pricing.Currency {
	if code == "" {
		code = "USD"
	}
	return pricing.Currency{Code: code, Symbol: symbolsByCode[code]}
}

func (s *service) cachedRates(ctx context.Context) (pricing.Rates, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, s.cache.CacheKey("rates"))
	if err != nil || raw == "" {
		return nil, false
	}
	var decoded map[string]decimal.Decimal
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil || len(decoded) == 0 {
		return nil, false
	}
	rates := make(pricing.Rates, len(decoded))
	for code, rate := range decoded {
		rates[code] = rate
	}
	return rates, true
}

func (s *service) storeRates(ctx context.Context, rates map[string]decimal.Decimal) {
	if s.cache == nil {
		return
	}
	encoded, err := json.Marshal(rates)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.CacheKey("rates"), string(encoded), s.ttl); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "rates cache write failed")
	}
}

// ErrRatesUnavailable reports a dependency failure callers may degrade on.
func ErrRatesUnavailable(err error) bool {
	typed := pkgerrors.As(err)
	return typed != nil && typed.Code() == pkgerrors.CodeDependency
}
