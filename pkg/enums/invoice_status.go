package enums

import (
	"fmt"
	"strings"
)

// InvoiceStatus tracks the lifecycle of a client invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft                InvoiceStatus = "DRAFT"
	InvoiceStatusSent                 InvoiceStatus = "SENT"
	InvoiceStatusPaid                 InvoiceStatus = "PAID"
	InvoiceStatusOrdered              InvoiceStatus = "ORDERED"
	InvoiceStatusInProduction         InvoiceStatus = "IN_PRODUCTION"
	InvoiceStatusReceivedFromSupplier InvoiceStatus = "RECEIVED_FROM_SUPPLIER"
	InvoiceStatusCompleted            InvoiceStatus = "COMPLETED"
	InvoiceStatusCancelled            InvoiceStatus = "CANCELLED"
)

var validInvoiceStatuses = []InvoiceStatus{
	InvoiceStatusDraft,
	InvoiceStatusSent,
	InvoiceStatusPaid,
	InvoiceStatusOrdered,
	InvoiceStatusInProduction,
	InvoiceStatusReceivedFromSupplier,
	InvoiceStatusCompleted,
	InvoiceStatusCancelled,
}

// String implements fmt.Stringer.
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known InvoiceStatus.
func (s InvoiceStatus) IsValid() bool {
	for _, candidate := range validInvoiceStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseInvoiceStatus converts raw input into a InvoiceStatus. Matching ignores case.
func ParseInvoiceStatus(value string) (InvoiceStatus, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validInvoiceStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid invoice status %q", value)
}
