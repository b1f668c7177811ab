package enums

import "fmt"

// CheckoutState tracks where a terminal session sits in the checkout flow.
type CheckoutState string

const (
	CheckoutStateIdle          CheckoutState = "idle"
	CheckoutStatePaymentSelect CheckoutState = "payment_select"
	CheckoutStateCashFlow      CheckoutState = "cash_flow"
	CheckoutStateQRFlow        CheckoutState = "qr_flow"
	CheckoutStateCardFlow      CheckoutState = "card_flow"
	CheckoutStateTerminalLink  CheckoutState = "terminal_link"
	CheckoutStateReceipt       CheckoutState = "receipt"
)

var validCheckoutStates = []CheckoutState{
	CheckoutStateIdle,
	CheckoutStatePaymentSelect,
	CheckoutStateCashFlow,
	CheckoutStateQRFlow,
	CheckoutStateCardFlow,
	CheckoutStateTerminalLink,
	CheckoutStateReceipt,
}

// String implements fmt.Stringer.
func (s CheckoutState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CheckoutState.
func (s CheckoutState) IsValid() bool {
	for _, candidate := range validCheckoutStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsPaymentFlow reports whether the state is one of the method-specific flows.
func (s CheckoutState) IsPaymentFlow() bool {
	switch s {
	case CheckoutStateCashFlow, CheckoutStateQRFlow, CheckoutStateCardFlow, CheckoutStateTerminalLink:
		return true
	}
	return false
}

// FlowStateFor maps a payment method to its checkout flow state.
func FlowStateFor(method PaymentMethod) (CheckoutState, error) {
	switch method {
	case PaymentMethodCash:
		return CheckoutStateCashFlow, nil
	case PaymentMethodQR:
		return CheckoutStateQRFlow, nil
	case PaymentMethodCard:
		return CheckoutStateCardFlow, nil
	case PaymentMethodTerminal:
		return CheckoutStateTerminalLink, nil
	}
	return "", fmt.Errorf("no checkout flow for payment method %q", method)
}
