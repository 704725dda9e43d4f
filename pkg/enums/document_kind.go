package enums

import (
	"fmt"
	"strings"
)

// DocumentKind names the document families that carry a status lifecycle.
type DocumentKind string

const (
	DocumentKindQuote         DocumentKind = "quote"
	DocumentKindInvoice       DocumentKind = "invoice"
	DocumentKindOrder         DocumentKind = "order"
	DocumentKindSupplierOrder DocumentKind = "supplier_order"
)

var validDocumentKinds = []DocumentKind{
	DocumentKindQuote,
	DocumentKindInvoice,
	DocumentKindOrder,
	DocumentKindSupplierOrder,
}

// String implements fmt.Stringer.
func (k DocumentKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known DocumentKind.
func (k DocumentKind) IsValid() bool {
	for _, candidate := range validDocumentKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// NumberPrefix is the human readable prefix used for document numbers.
func (k DocumentKind) NumberPrefix() string {
	switch k {
	case DocumentKindQuote:
		return "QUO"
	case DocumentKindInvoice:
		return "INV"
	case DocumentKindOrder:
		return "ORD"
	case DocumentKindSupplierOrder:
		return "SUP"
	default:
		return "DOC"
	}
}

// ParseDocumentKind converts raw input into a DocumentKind. Plural route
// segments ("orders", "supplier-orders") are accepted as well.
func ParseDocumentKind(value string) (DocumentKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	normalized = strings.TrimSuffix(normalized, "s")
	for _, candidate := range validDocumentKinds {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document kind %q", value)
}
