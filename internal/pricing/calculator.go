package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/tripworks/booking-backend/internal/delivery"
)

var hundred = decimal.NewFromInt(100)

// Rates maps a currency code to its rate against the feed's base currency.
type Rates map[string]decimal.Decimal

// Currency is the display currency chosen by the tourist.
type Currency struct {
	Code   string
	Symbol string
}

// LineItem is one cart line priced in its product's native currency.
type LineItem struct {
	UnitPrice decimal.Decimal
	Currency  string
	Quantity  int
}

// PromoTerms carries an already-validated percent-off promotion.
type PromoTerms struct {
	Code       string
	PercentOff int
}

// Quote is the authoritative price breakdown for a checkout session.
// total = subtotal - discount + deliveryFee, every component rounded to two
// places in the display currency.
type Quote struct {
	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	DeliveryFee decimal.Decimal
	Total       decimal.Decimal
	Currency    Currency
}

// Convert reprices an amount from one currency to another using
// amount * rate[to] / rate[from]. A missing rate on either side degrades to
// rate 1 so price formatting keeps working on a stale or partial rate table;
// callers that need hard guarantees check rate availability upfront.
func Convert(amount decimal.Decimal, from, to string, rates Rates) decimal.Decimal {
	if from == to {
		return amount
	}
	fromRate, ok := rates[from]
	if !ok || fromRate.IsZero() {
		fromRate = decimal.NewFromInt(1)
	}
	toRate, ok := rates[to]
	if !ok || toRate.IsZero() {
		toRate = decimal.NewFromInt(1)
	}
	return amount.Mul(toRate).Div(fromRate)
}

// Compute produces the quote for the given cart lines, delivery tariff and
// promo state in the preferred display currency. The promo discount applies
// to the pre-delivery subtotal only and is clamped to it; the delivery fee is
// never discounted.
func Compute(items []LineItem, opt *delivery.Option, promo *PromoTerms, rates Rates, preferred Currency) Quote {
	subtotal := decimal.Zero
	for _, item := range items {
		line := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(Convert(line, item.Currency, preferred.Code, rates))
	}
	subtotal = subtotal.Round(2)

	discount := decimal.Zero
	if promo != nil && promo.PercentOff > 0 {
		discount = subtotal.Mul(decimal.NewFromInt(int64(promo.PercentOff))).Div(hundred).Round(2)
		if discount.GreaterThan(subtotal) {
			discount = subtotal
		}
	}

	fee := decimal.Zero
	if opt != nil {
		fee = Convert(decimal.New(opt.FeeCents, -2), "USD", preferred.Code, rates).Round(2)
	}

	total := subtotal.Sub(discount).Add(fee).Round(2)

	return Quote{
		Subtotal:    subtotal,
		Discount:    discount,
		DeliveryFee: fee,
		Total:       total,
		Currency:    preferred,
	}
}

// FromCents converts integer minor units into a two-place decimal.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// ToCents converts a two-place decimal into integer minor units.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Round(2).Shift(2).IntPart()
}
