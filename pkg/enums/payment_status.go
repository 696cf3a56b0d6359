package enums

import (
	"fmt"
	"strings"
)

// PaymentStatus mirrors the gateway's payment entity status.
type PaymentStatus string

const (
	PaymentStatusCreated    PaymentStatus = "created"
	PaymentStatusAuthorized PaymentStatus = "authorized"
	PaymentStatusCaptured   PaymentStatus = "captured"
	PaymentStatusRefunded   PaymentStatus = "refunded"
	PaymentStatusFailed     PaymentStatus = "failed"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusCreated,
	PaymentStatusAuthorized,
	PaymentStatusCaptured,
	PaymentStatusRefunded,
	PaymentStatusFailed,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsCaptured reports whether funds were captured.
func (p PaymentStatus) IsCaptured() bool {
	return p == PaymentStatusCaptured
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
