package enums

import "fmt"

// PaymentMethod enumerates how a purchase can be settled.
type PaymentMethod string

const (
	PaymentMethodCreditCard     PaymentMethod = "credit_card"
	PaymentMethodDebitCard      PaymentMethod = "debit_card"
	PaymentMethodWallet         PaymentMethod = "wallet"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCreditCard,
	PaymentMethodDebitCard,
	PaymentMethodWallet,
	PaymentMethodCashOnDelivery,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the payment method is recognized.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// RequiresCard reports whether the method must reference a saved card.
func (p PaymentMethod) RequiresCard() bool {
	return p == PaymentMethodCreditCard || p == PaymentMethodDebitCard
}

// RequiresExternalSession reports whether the processor-hosted page is used.
func (p PaymentMethod) RequiresExternalSession() bool {
	return p == PaymentMethodCreditCard
}

// ParsePaymentMethod converts a raw string into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
