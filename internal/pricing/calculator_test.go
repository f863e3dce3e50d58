package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tripworks/booking-backend/internal/delivery"
	"github.com/tripworks/booking-backend/pkg/enums"
)

var usd = Currency{Code: "USD", Symbol: "$"}

func mustOption(t *testing.T, dt enums.DeliveryType) *delivery.Option {
	t.Helper()
	opt, ok := delivery.Lookup(dt)
	if !ok {
		t.Fatalf("missing tariff for %s", dt)
	}
	return &opt
}

func TestComputeStandardNoPromo(t *testing.T) {
	t.Parallel()

	items := []LineItem{
		{UnitPrice: decimal.NewFromFloat(25.00), Currency: "USD", Quantity: 2},
	}
	quote := Compute(items, mustOption(t, enums.DeliveryTypeStandard), nil, Rates{"USD": decimal.NewFromInt(1)}, usd)

	if !quote.Subtotal.Equal(decimal.NewFromFloat(50.00)) {
		t.Fatalf("subtotal = %s, want 50.00", quote.Subtotal)
	}
	if !quote.Total.Equal(decimal.NewFromFloat(52.99)) {
		t.Fatalf("total = %s, want 52.99", quote.Total)
	}
}

func TestComputeExpressWithTenPercentPromo(t *testing.T) {
	t.Parallel()

	items := []LineItem{
		{UnitPrice: decimal.NewFromFloat(100.00), Currency: "USD", Quantity: 1},
	}
	promo := &PromoTerms{Code: "SAVE10", PercentOff: 10}
	quote := Compute(items, mustOption(t, enums.DeliveryTypeExpress), promo, Rates{"USD": decimal.NewFromInt(1)}, usd)

	if !quote.Discount.Equal(decimal.NewFromFloat(10.00)) {
		t.Fatalf("discount = %s, want 10.00", quote.Discount)
	}
	if !quote.DeliveryFee.Equal(decimal.NewFromFloat(4.99)) {
		t.Fatalf("fee = %s, want 4.99", quote.DeliveryFee)
	}
	if !quote.Total.Equal(decimal.NewFromFloat(94.99)) {
		t.Fatalf("total = %s, want 94.99", quote.Total)
	}
}

func TestComputeInvariantAcrossCombinations(t *testing.T) {
	t.Parallel()

	items := []LineItem{
		{UnitPrice: decimal.NewFromFloat(13.37), Currency: "USD", Quantity: 3},
		{UnitPrice: decimal.NewFromFloat(0.99), Currency: "USD", Quantity: 7},
	}
	rates := Rates{"USD": decimal.NewFromInt(1)}
	promos := []*PromoTerms{nil, {Code: "P5", PercentOff: 5}, {Code: "P100", PercentOff: 100}}

	for _, opt := range delivery.Options() {
		opt := opt
		for _, promo := range promos {
			quote := Compute(items, &opt, promo, rates, usd)
			want := quote.Subtotal.Sub(quote.Discount).Add(quote.DeliveryFee).Round(2)
			if !quote.Total.Equal(want) {
				t.Fatalf("total %s != subtotal-discount+fee %s (opt=%s promo=%+v)",
					quote.Total, want, opt.Type, promo)
			}
		}
	}
}

func TestConvertUsesTargetOverSourceRate(t *testing.T) {
	t.Parallel()

	rates := Rates{"X": decimal.NewFromFloat(1.0), "Y": decimal.NewFromFloat(0.5)}
	got := Convert(decimal.NewFromInt(100), "X", "Y", rates)
	if !got.Equal(decimal.NewFromFloat(50)) {
		t.Fatalf("converted = %s, want 50", got)
	}
}

func TestConvertRoundTripWithinTolerance(t *testing.T) {
	t.Parallel()

	rates := Rates{
		"USD": decimal.NewFromInt(1),
		"EUR": decimal.NewFromFloat(0.9132),
		"JPY": decimal.NewFromFloat(149.37),
	}
	tolerance := decimal.NewFromFloat(0.01)

	for _, pair := range [][2]string{{"USD", "EUR"}, {"EUR", "JPY"}, {"JPY", "USD"}} {
		amount := decimal.NewFromFloat(123.45)
		there := Convert(amount, pair[0], pair[1], rates)
		back := Convert(there, pair[1], pair[0], rates)
		if back.Sub(amount).Abs().GreaterThan(tolerance) {
			t.Fatalf("%s->%s->%s drifted: %s vs %s", pair[0], pair[1], pair[0], back, amount)
		}
	}
}

func TestConvertMissingRateDegradesToOne(t *testing.T) {
	t.Parallel()

	rates := Rates{"USD": decimal.NewFromInt(1)}
	got := Convert(decimal.NewFromInt(80), "GBP", "USD", rates)
	if !got.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("missing source rate must degrade to 1, got %s", got)
	}
	got = Convert(decimal.NewFromInt(80), "USD", "GBP", rates)
	if !got.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("missing target rate must degrade to 1, got %s", got)
	}
}

func TestDiscountClampedToSubtotal(t *testing.T) {
	t.Parallel()

	items := []LineItem{{UnitPrice: decimal.NewFromFloat(10.00), Currency: "USD", Quantity: 1}}
	// Percent values beyond 100 are rejected upstream, but the calculator
	// must stay defensive about inputs it did not validate.
	promo := &PromoTerms{Code: "BROKEN", PercentOff: 150}
	quote := Compute(items, nil, promo, Rates{"USD": decimal.NewFromInt(1)}, usd)

	if !quote.Discount.Equal(quote.Subtotal) {
		t.Fatalf("discount %s must be clamped to subtotal %s", quote.Discount, quote.Subtotal)
	}
	if !quote.Total.Equal(decimal.Zero.Round(2)) {
		t.Fatalf("total = %s, want 0.00", quote.Total)
	}
}

func TestEmptyCartQuotesZero(t *testing.T) {
	t.Parallel()

	quote := Compute(nil, nil, nil, Rates{}, usd)
	if !quote.Subtotal.IsZero() || !quote.Total.IsZero() {
		t.Fatalf("empty cart must quote zero, got %+v", quote)
	}
}

func TestCentsRoundTrip(t *testing.T) {
	t.Parallel()

	if got := ToCents(FromCents(5299)); got != 5299 {
		t.Fatalf("cents round trip = %d", got)
	}
}
