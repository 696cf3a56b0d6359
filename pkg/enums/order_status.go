package enums

import (
	"fmt"
	"strings"
)

// OrderStatus tracks fulfillment of a storefront order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// orderTransitions lists the statuses reachable from each status by an admin.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether next is reachable from s.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, candidate := range orderTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus. Matching is case-insensitive.
func ParseOrderStatus(value string) (OrderStatus, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validOrderStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
