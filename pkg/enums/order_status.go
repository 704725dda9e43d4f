package enums

import (
	"fmt"
	"strings"
)

// OrderStatus tracks an order's own lifecycle before and during fulfilment.
type OrderStatus string

const (
	OrderStatusNewPlanned              OrderStatus = "NEW_PLANNED"
	OrderStatusUnderReview             OrderStatus = "UNDER_REVIEW"
	OrderStatusAwaitingMeasurement     OrderStatus = "AWAITING_MEASUREMENT"
	OrderStatusAwaitingInvoice         OrderStatus = "AWAITING_INVOICE"
	OrderStatusReadyForProduction      OrderStatus = "READY_FOR_PRODUCTION"
	OrderStatusCompleted               OrderStatus = "COMPLETED"
	OrderStatusReturnedToComplectation OrderStatus = "RETURNED_TO_COMPLECTATION"
	OrderStatusCancelled               OrderStatus = "CANCELLED"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusNewPlanned,
	OrderStatusUnderReview,
	OrderStatusAwaitingMeasurement,
	OrderStatusAwaitingInvoice,
	OrderStatusReadyForProduction,
	OrderStatusCompleted,
	OrderStatusReturnedToComplectation,
	OrderStatusCancelled,
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

// ParseOrderStatus converts raw input into a OrderStatus. Matching ignores case.
func ParseOrderStatus(value string) (OrderStatus, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validOrderStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
