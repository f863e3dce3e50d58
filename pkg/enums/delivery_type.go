package enums

import "fmt"

// DeliveryType identifies the shipping speed chosen at checkout.
type DeliveryType string

const (
	DeliveryTypeStandard      DeliveryType = "standard"
	DeliveryTypeExpress       DeliveryType = "express"
	DeliveryTypeNextSame      DeliveryType = "next_same"
	DeliveryTypeInternational DeliveryType = "international"
)

var validDeliveryTypes = []DeliveryType{
	DeliveryTypeStandard,
	DeliveryTypeExpress,
	DeliveryTypeNextSame,
	DeliveryTypeInternational,
}

// String implements fmt.Stringer.
func (d DeliveryType) String() string {
	return string(d)
}

// IsValid reports whether the delivery type is recognized.
func (d DeliveryType) IsValid() bool {
	for _, candidate := range validDeliveryTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeliveryType converts a raw string into a DeliveryType.
func ParseDeliveryType(value string) (DeliveryType, error) {
	for _, candidate := range validDeliveryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery type %q", value)
}
