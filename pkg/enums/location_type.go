package enums

import "fmt"

// LocationType classifies a shipping address destination.
type LocationType string

const (
	LocationTypeHome      LocationType = "home"
	LocationTypeWork      LocationType = "work"
	LocationTypeApartment LocationType = "apartment"
	LocationTypeHotel     LocationType = "hotel"
	LocationTypeOther     LocationType = "other"
)

var validLocationTypes = []LocationType{
	LocationTypeHome,
	LocationTypeWork,
	LocationTypeApartment,
	LocationTypeHotel,
	LocationTypeOther,
}

// String implements fmt.Stringer.
func (l LocationType) String() string {
	return string(l)
}

// IsValid reports whether the location type is recognized.
func (l LocationType) IsValid() bool {
	for _, candidate := range validLocationTypes {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLocationType converts a raw string into a LocationType.
func ParseLocationType(value string) (LocationType, error) {
	for _, candidate := range validLocationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid location type %q", value)
}
