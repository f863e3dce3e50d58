package delivery

import (
	"sort"

	"github.com/tripworks/booking-backend/pkg/enums"
)

// Option is one row of the static delivery tariff. Fees are expressed in USD
// minor units and converted to the display currency at quote time.
type Option struct {
	Type                  enums.DeliveryType
	FeeCents              int64
	EstimatedBusinessDays int
}

var optionsByType = map[enums.DeliveryType]Option{
	enums.DeliveryTypeStandard: {
		Type:                  enums.DeliveryTypeStandard,
		FeeCents:              299,
		EstimatedBusinessDays: 5,
	},
	enums.DeliveryTypeExpress: {
		Type:                  enums.DeliveryTypeExpress,
		FeeCents:              499,
		EstimatedBusinessDays: 2,
	},
	enums.DeliveryTypeNextSame: {
		Type:                  enums.DeliveryTypeNextSame,
		FeeCents:              799,
		EstimatedBusinessDays: 1,
	},
	enums.DeliveryTypeInternational: {
		Type:                  enums.DeliveryTypeInternational,
		FeeCents:              1499,
		EstimatedBusinessDays: 10,
	},
}

// Lookup returns the tariff row for the given delivery type.
func Lookup(t enums.DeliveryType) (Option, bool) {
	opt, ok := optionsByType[t]
	return opt, ok
}

// Options returns all tariff rows ordered by fee.
func Options() []Option {
	out := make([]Option, 0, len(optionsByType))
	for _, opt := range optionsByType {
		out = append(out, opt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FeeCents < out[j].FeeCents })
	return out
}
