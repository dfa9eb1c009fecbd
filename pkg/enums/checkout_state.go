package enums

import "fmt"

// CheckoutState names the wizard's position. Failure during Processing is
// not a state of its own; the wizard returns to Payment so the shopper can
// retry.
type CheckoutState string

const (
	CheckoutStateInformation CheckoutState = "information"
	CheckoutStateShipping    CheckoutState = "shipping"
	CheckoutStatePayment     CheckoutState = "payment"
	CheckoutStateProcessing  CheckoutState = "processing"
	CheckoutStateComplete    CheckoutState = "complete"
)

var validCheckoutStates = []CheckoutState{
	CheckoutStateInformation,
	CheckoutStateShipping,
	CheckoutStatePayment,
	CheckoutStateProcessing,
	CheckoutStateComplete,
}

// String implements fmt.Stringer.
func (c CheckoutState) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckoutState.
func (c CheckoutState) IsValid() bool {
	for _, candidate := range validCheckoutStates {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCheckoutState converts raw input into a CheckoutState.
func ParseCheckoutState(value string) (CheckoutState, error) {
	for _, candidate := range validCheckoutStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout state %q", value)
}
