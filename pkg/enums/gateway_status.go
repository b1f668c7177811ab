package enums

import "fmt"

// GatewayStatus is the outcome a payment gateway reports for an attempt.
type GatewayStatus string

const (
	GatewayStatusPending GatewayStatus = "pending"
	GatewayStatusSuccess GatewayStatus = "success"
	GatewayStatusFailure GatewayStatus = "failure"
)

var validGatewayStatuses = []GatewayStatus{
	GatewayStatusPending,
	GatewayStatusSuccess,
	GatewayStatusFailure,
}

// String implements fmt.Stringer.
func (g GatewayStatus) String() string {
	return string(g)
}

// IsValid reports whether the value is a known GatewayStatus.
func (g GatewayStatus) IsValid() bool {
	for _, candidate := range validGatewayStatuses {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseGatewayStatus converts raw input into a GatewayStatus.
func ParseGatewayStatus(value string) (GatewayStatus, error) {
	for _, candidate := range validGatewayStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid gateway status %q", value)
}
