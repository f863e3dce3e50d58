package enums

// PromoStatus marks whether a promo code is currently enabled.
type PromoStatus string

const (
	PromoStatusActive   PromoStatus = "active"
	PromoStatusInactive PromoStatus = "inactive"
)

// String implements fmt.Stringer.
func (p PromoStatus) String() string {
	return string(p)
}

// IsValid reports whether the promo status is recognized.
func (p PromoStatus) IsValid() bool {
	return p == PromoStatusActive || p == PromoStatusInactive
}
