package enums

// OrderStatus reflects the lifecycle of a submitted purchase.
type OrderStatus string

const (
	OrderStatusPlaced    OrderStatus = "placed"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the order status is recognized.
func (o OrderStatus) IsValid() bool {
	switch o {
	case OrderStatusPlaced, OrderStatusPaid, OrderStatusCancelled:
		return true
	}
	return false
}
