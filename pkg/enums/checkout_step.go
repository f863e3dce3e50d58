package enums

import "fmt"

// CheckoutStep tracks the wizard position of a checkout session.
type CheckoutStep string

const (
	CheckoutStepUserInfo        CheckoutStep = "user_info"
	CheckoutStepDeliveryOptions CheckoutStep = "delivery_options"
	CheckoutStepDeliveryAddress CheckoutStep = "delivery_address"
	CheckoutStepPaymentMethod   CheckoutStep = "payment_method"
	CheckoutStepSubmitting      CheckoutStep = "submitting"
	CheckoutStepSuccess         CheckoutStep = "success"
	CheckoutStepFailure         CheckoutStep = "failure"
)

// orderedCheckoutSteps lists the data-entry states in wizard order. The
// terminal states are reached through submission, never by navigation.
var orderedCheckoutSteps = []CheckoutStep{
	CheckoutStepUserInfo,
	CheckoutStepDeliveryOptions,
	CheckoutStepDeliveryAddress,
	CheckoutStepPaymentMethod,
}

// String implements fmt.Stringer.
func (s CheckoutStep) String() string {
	return string(s)
}

// IsValid reports whether the step is recognized.
func (s CheckoutStep) IsValid() bool {
	switch s {
	case CheckoutStepUserInfo, CheckoutStepDeliveryOptions, CheckoutStepDeliveryAddress,
		CheckoutStepPaymentMethod, CheckoutStepSubmitting, CheckoutStepSuccess, CheckoutStepFailure:
		return true
	}
	return false
}

// IsTerminal reports whether the step ends the wizard.
func (s CheckoutStep) IsTerminal() bool {
	return s == CheckoutStepSuccess || s == CheckoutStepFailure
}

// Next returns the following data-entry step, or false when the step has no
// forward navigation (payment_method hands off to submission).
func (s CheckoutStep) Next() (CheckoutStep, bool) {
	for i, candidate := range orderedCheckoutSteps {
		if candidate == s && i+1 < len(orderedCheckoutSteps) {
			return orderedCheckoutSteps[i+1], true
		}
	}
	return "", false
}

// Prev returns the preceding data-entry step, or false at the first step.
func (s CheckoutStep) Prev() (CheckoutStep, bool) {
	for i, candidate := range orderedCheckoutSteps {
		if candidate == s && i > 0 {
			return orderedCheckoutSteps[i-1], true
		}
	}
	return "", false
}

// ParseCheckoutStep converts a raw string into a CheckoutStep.
func ParseCheckoutStep(value string) (CheckoutStep, error) {
	step := CheckoutStep(value)
	if !step.IsValid() {
		return "", fmt.Errorf("invalid checkout step %q", value)
	}
	return step, nil
}
