package lifecycle

import (
	"github.com/domeo/domeo-backend/pkg/enums"
	pkgerrors "github.com/domeo/domeo-backend/pkg/errors"
)

var quoteTransitions = map[enums.QuoteStatus][]enums.QuoteStatus{
	enums.QuoteStatusDraft: {enums.QuoteStatusSent},
	enums.QuoteStatusSent:  {enums.QuoteStatusAccepted, enums.QuoteStatusRejected},
}

var invoiceTransitions = map[enums.InvoiceStatus][]enums.InvoiceStatus{
	enums.InvoiceStatusDraft: {enums.InvoiceStatusSent, enums.InvoiceStatusCancelled},
	enums.InvoiceStatusSent:  {enums.InvoiceStatusPaid, enums.InvoiceStatusCancelled},
	enums.InvoiceStatusPaid:  {enums.InvoiceStatusOrdered, enums.InvoiceStatusCancelled},
	enums.InvoiceStatusOrdered: {
		enums.InvoiceStatusInProduction,
		enums.InvoiceStatusReceivedFromSupplier,
		enums.InvoiceStatusCancelled,
	},
	enums.InvoiceStatusInProduction: {
		enums.InvoiceStatusReceivedFromSupplier,
		enums.InvoiceStatusCompleted,
		enums.InvoiceStatusCancelled,
	},
	enums.InvoiceStatusReceivedFromSupplier: {enums.InvoiceStatusCompleted, enums.InvoiceStatusCancelled},
}

var orderTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusNewPlanned: {enums.OrderStatusUnderReview, enums.OrderStatusCancelled},
	enums.OrderStatusUnderReview: {
		enums.OrderStatusAwaitingMeasurement,
		enums.OrderStatusAwaitingInvoice,
		enums.OrderStatusReturnedToComplectation,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusAwaitingMeasurement: {
		enums.OrderStatusAwaitingInvoice,
		enums.OrderStatusReturnedToComplectation,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusAwaitingInvoice: {
		enums.OrderStatusReadyForProduction,
		enums.OrderStatusReturnedToComplectation,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusReadyForProduction:      {enums.OrderStatusCompleted, enums.OrderStatusCancelled},
	enums.OrderStatusReturnedToComplectation: {enums.OrderStatusUnderReview, enums.OrderStatusCancelled},
}

var supplierOrderTransitions = map[enums.SupplierOrderStatus][]enums.SupplierOrderStatus{
	enums.SupplierOrderStatusPending: {enums.SupplierOrderStatusOrdered, enums.SupplierOrderStatusCancelled},
	enums.SupplierOrderStatusOrdered: {
		enums.SupplierOrderStatusInProduction,
		enums.SupplierOrderStatusReady,
		enums.SupplierOrderStatusCancelled,
	},
	enums.SupplierOrderStatusInProduction: {enums.SupplierOrderStatusReady, enums.SupplierOrderStatusCancelled},
	enums.SupplierOrderStatusReady:        {enums.SupplierOrderStatusCompleted},
}

var blockedInvoiceStatuses = map[enums.InvoiceStatus]struct{}{
	enums.InvoiceStatusOrdered:              {},
	enums.InvoiceStatusInProduction:         {},
	enums.InvoiceStatusReceivedFromSupplier: {},
	enums.InvoiceStatusCompleted:            {},
}

// orderFieldRequirements lists the fields an order must carry before it may
// enter a status.
var orderFieldRequirements = map[enums.OrderStatus]struct {
	projectFile bool
	dimensions  bool
}{
	enums.OrderStatusUnderReview:         {projectFile: true},
	enums.OrderStatusAwaitingMeasurement: {projectFile: true},
	enums.OrderStatusAwaitingInvoice:     {projectFile: true, dimensions: true},
	enums.OrderStatusReadyForProduction:  {projectFile: true, dimensions: true},
	enums.OrderStatusCompleted:           {projectFile: true, dimensions: true},
}

// Guards carries the document facts the machine needs beyond its status.
type Guards struct {
	// ProjectFileURL and HasDoorDimensions gate order transitions.
	ProjectFileURL    string
	HasDoorDimensions bool
	// LinkedInvoiceStatus blocks an order whose invoice is in the blocked set.
	LinkedInvoiceStatus *enums.InvoiceStatus
	// RequireMeasurement resolves UNDER_REVIEW -> UNDER_REVIEW into the next review step.
	RequireMeasurement *bool
	// SupplierName must be set before a supplier order is placed.
	SupplierName string
}

// Check validates a transition and returns the status that should actually
// be written. It never touches storage.
func Check(kind enums.DocumentKind, current, requested string, origin enums.TransitionOrigin, guards Guards) (string, error) {
	if !kind.IsValid() {
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "unknown document kind %q", kind)
	}
	if !IsKnownStatus(kind, requested) {
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "unknown %s status %q", kind, requested).
			WithDetails(map[string]any{"status": requested})
	}

	if origin == enums.TransitionOriginManual && IsBlocked(kind, current, guards) {
		return "", pkgerrors.New(pkgerrors.CodeBlockedStatus, "status is locked by fulfilment").
			WithDetails(map[string]any{"document_kind": kind.String(), "current_status": current})
	}

	target := requested
	if kind == enums.DocumentKindOrder &&
		current == string(enums.OrderStatusUnderReview) &&
		requested == string(enums.OrderStatusUnderReview) &&
		guards.RequireMeasurement != nil {
		if *guards.RequireMeasurement {
			target = string(enums.OrderStatusAwaitingMeasurement)
		} else {
			target = string(enums.OrderStatusAwaitingInvoice)
		}
	}

	if !CanTransition(kind, current, target) {
		return "", pkgerrors.Newf(pkgerrors.CodeInvalidTransition, "cannot move %s from %s to %s", kind, current, target).
			WithDetails(map[string]any{
				"document_kind":  kind.String(),
				"current_status": current,
				"new_status":     target,
				"allowed":        NextStatuses(kind, current),
			})
	}

	switch kind {
	case enums.DocumentKindOrder:
		if err := checkOrderFields(enums.OrderStatus(target), guards); err != nil {
			return "", err
		}
	case enums.DocumentKindSupplierOrder:
		if target == string(enums.SupplierOrderStatusOrdered) && guards.SupplierName == "" {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "supplier name is required to place the order").
				WithDetails(map[string]any{"field": "supplier_name"})
		}
	}
	return target, nil
}

func checkOrderFields(target enums.OrderStatus, guards Guards) error {
	req, ok := orderFieldRequirements[target]
	if !ok {
		return nil
	}
	if req.projectFile && guards.ProjectFileURL == "" {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "project file is required for status %q", OrderLabel(target)).
			WithDetails(map[string]any{"field": "project_file_url"})
	}
	if req.dimensions && !guards.HasDoorDimensions {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "door dimensions are required for status %q", OrderLabel(target)).
			WithDetails(map[string]any{"field": "door_dimensions"})
	}
	return nil
}

// CanTransition reports whether requested is adjacent to current. A status is
// never adjacent to itself.
func CanTransition(kind enums.DocumentKind, current, requested string) bool {
	for _, next := range NextStatuses(kind, current) {
		if next == requested {
			return true
		}
	}
	return false
}

// NextStatuses lists the statuses reachable in one step.
func NextStatuses(kind enums.DocumentKind, current string) []string {
	switch kind {
	case enums.DocumentKindQuote:
		return toStrings(quoteTransitions[enums.QuoteStatus(current)])
	case enums.DocumentKindInvoice:
		return toStrings(invoiceTransitions[enums.InvoiceStatus(current)])
	case enums.DocumentKindOrder:
		return toStrings(orderTransitions[enums.OrderStatus(current)])
	case enums.DocumentKindSupplierOrder:
		return toStrings(supplierOrderTransitions[enums.SupplierOrderStatus(current)])
	default:
		return []string{}
	}
}

// IsTerminal reports whether no transition leaves the status.
func IsTerminal(kind enums.DocumentKind, status string) bool {
	return IsKnownStatus(kind, status) && len(NextStatuses(kind, status)) == 0
}

// IsKnownStatus reports whether status belongs to kind's enum.
func IsKnownStatus(kind enums.DocumentKind, status string) bool {
	switch kind {
	case enums.DocumentKindQuote:
		return enums.QuoteStatus(status).IsValid()
	case enums.DocumentKindInvoice:
		return enums.InvoiceStatus(status).IsValid()
	case enums.DocumentKindOrder:
		return enums.OrderStatus(status).IsValid()
	case enums.DocumentKindSupplierOrder:
		return enums.SupplierOrderStatus(status).IsValid()
	default:
		return false
	}
}

// IsInvoiceBlocked reports whether an invoice status is locked against
// manual changes.
func IsInvoiceBlocked(status enums.InvoiceStatus) bool {
	_, ok := blockedInvoiceStatuses[status]
	return ok
}

// IsBlocked reports whether a document in current may not be changed
// manually. Orders inherit the block from their linked invoice.
func IsBlocked(kind enums.DocumentKind, current string, guards Guards) bool {
	switch kind {
	case enums.DocumentKindInvoice:
		return IsInvoiceBlocked(enums.InvoiceStatus(current))
	case enums.DocumentKindOrder:
		return guards.LinkedInvoiceStatus != nil && IsInvoiceBlocked(*guards.LinkedInvoiceStatus)
	default:
		return false
	}
}

func toStrings[S ~string](values []S) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
