package pricing

import "github.com/shopspring/decimal"

// DisplayQuote is the formatted rendition of a Quote for receipts and the
// checkout summary.
type DisplayQuote struct {
	Subtotal    string `json:"subtotal"`
	Discount    string `json:"discount"`
	DeliveryFee string `json:"delivery_fee"`
	Total       string `json:"total"`
	Currency    string `json:"currency"`
}

// FormatAmount renders an amount with the currency symbol and exactly two
// decimal places. An empty symbol falls back to the currency code prefix so
// the output is never a bare number.
func FormatAmount(amount decimal.Decimal, currency Currency) string {
	prefix := currency.Symbol
	if prefix == "" {
		prefix = currency.Code + " "
	}
	return prefix + amount.StringFixed(2)
}

// Display formats every quote component.
func (q Quote) Display() DisplayQuote {
	return DisplayQuote{
		Subtotal:    FormatAmount(q.Subtotal, q.Currency),
		Discount:    FormatAmount(q.Discount, q.Currency),
		DeliveryFee: FormatAmount(q.DeliveryFee, q.Currency),
		Total:       FormatAmount(q.Total, q.Currency),
		Currency:    q.Currency.Code,
	}
}
