package lifecycle

import (
	"testing"

	"github.com/domeo/domeo-backend/pkg/enums"
	pkgerrors "github.com/domeo/domeo-backend/pkg/errors"
)

func boolPtr(v bool) *bool { return &v }

func invoicePtr(s enums.InvoiceStatus) *enums.InvoiceStatus { return &s }

func TestCheckInvoiceAdjacency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		current  enums.InvoiceStatus
		next     enums.InvoiceStatus
		origin   enums.TransitionOrigin
		wantCode pkgerrors.Code
	}{
		{name: "draft to sent", current: enums.InvoiceStatusDraft, next: enums.InvoiceStatusSent, origin: enums.TransitionOriginManual},
		{name: "paid to ordered", current: enums.InvoiceStatusPaid, next: enums.InvoiceStatusOrdered, origin: enums.TransitionOriginManual},
		{name: "draft to paid skips sent", current: enums.InvoiceStatusDraft, next: enums.InvoiceStatusPaid, origin: enums.TransitionOriginManual, wantCode: pkgerrors.CodeInvalidTransition},
		{name: "self transition", current: enums.InvoiceStatusSent, next: enums.InvoiceStatusSent, origin: enums.TransitionOriginManual, wantCode: pkgerrors.CodeInvalidTransition},
		{name: "terminal", current: enums.InvoiceStatusCancelled, next: enums.InvoiceStatusDraft, origin: enums.TransitionOriginManual, wantCode: pkgerrors.CodeInvalidTransition},
		{name: "manual on blocked", current: enums.InvoiceStatusOrdered, next: enums.InvoiceStatusInProduction, origin: enums.TransitionOriginManual, wantCode: pkgerrors.CodeBlockedStatus},
		{name: "manual on completed reports blocked before adjacency", current: enums.InvoiceStatusCompleted, next: enums.InvoiceStatusDraft, origin: enums.TransitionOriginManual, wantCode: pkgerrors.CodeBlockedStatus},
		{name: "propagation bypasses block", current: enums.InvoiceStatusOrdered, next: enums.InvoiceStatusInProduction, origin: enums.TransitionOriginPropagation},
		{name: "propagation still checks adjacency", current: enums.InvoiceStatusInProduction, next: enums.InvoiceStatusOrdered, origin: enums.TransitionOriginPropagation, wantCode: pkgerrors.CodeInvalidTransition},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			target, err := Check(enums.DocumentKindInvoice, string(tc.current), string(tc.next), tc.origin, Guards{})
			if tc.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if target != string(tc.next) {
					t.Fatalf("expected target %s, got %s", tc.next, target)
				}
				return
			}
			if got := pkgerrors.CodeOf(err); got != tc.wantCode {
				t.Fatalf("expected %s, got %v", tc.wantCode, err)
			}
		})
	}
}

func TestCheckRejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	if _, err := Check(enums.DocumentKindQuote, "DRAFT", "ARCHIVED", enums.TransitionOriginManual, Guards{}); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := Check("folder", "DRAFT", "SENT", enums.TransitionOriginManual, Guards{}); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unknown kind, got %v", err)
	}
}

func TestCheckOrderBlockedByLinkedInvoice(t *testing.T) {
	t.Parallel()

	guards := Guards{ProjectFileURL: "https://files/p.pdf", HasDoorDimensions: true, LinkedInvoiceStatus: invoicePtr(enums.InvoiceStatusInProduction)}
	_, err := Check(enums.DocumentKindOrder, string(enums.OrderStatusAwaitingInvoice), string(enums.OrderStatusReadyForProduction), enums.TransitionOriginManual, guards)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeBlockedStatus {
		t.Fatalf("expected blocked, got %v", err)
	}

	guards.LinkedInvoiceStatus = invoicePtr(enums.InvoiceStatusPaid)
	if _, err := Check(enums.DocumentKindOrder, string(enums.OrderStatusAwaitingInvoice), string(enums.OrderStatusReadyForProduction), enums.TransitionOriginManual, guards); err != nil {
		t.Fatalf("unblocked invoice should allow the move: %v", err)
	}
}

func TestCheckOrderFieldRequirements(t *testing.T) {
	t.Parallel()

	_, err := Check(enums.DocumentKindOrder, string(enums.OrderStatusNewPlanned), string(enums.OrderStatusUnderReview), enums.TransitionOriginManual, Guards{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if details, _ := typed.Details().(map[string]any); details["field"] != "project_file_url" {
		t.Fatalf("expected project_file_url detail, got %+v", typed.Details())
	}

	_, err = Check(enums.DocumentKindOrder, string(enums.OrderStatusAwaitingMeasurement), string(enums.OrderStatusAwaitingInvoice), enums.TransitionOriginManual, Guards{ProjectFileURL: "p"})
	typed = pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected dimensions error")
	}
	if details, _ := typed.Details().(map[string]any); details["field"] != "door_dimensions" {
		t.Fatalf("expected door_dimensions detail, got %+v", typed.Details())
	}

	if _, err := Check(enums.DocumentKindOrder, string(enums.OrderStatusUnderReview), string(enums.OrderStatusCancelled), enums.TransitionOriginManual, Guards{}); err != nil {
		t.Fatalf("cancel needs no fields: %v", err)
	}
}

func TestCheckResolvesMeasurementBranch(t *testing.T) {
	t.Parallel()

	guards := Guards{ProjectFileURL: "p", HasDoorDimensions: true, RequireMeasurement: boolPtr(true)}
	target, err := Check(enums.DocumentKindOrder, string(enums.OrderStatusUnderReview), string(enums.OrderStatusUnderReview), enums.TransitionOriginManual, guards)
	if err != nil || target != string(enums.OrderStatusAwaitingMeasurement) {
		t.Fatalf("expected AWAITING_MEASUREMENT, got %s %v", target, err)
	}

	guards.RequireMeasurement = boolPtr(false)
	target, err = Check(enums.DocumentKindOrder, string(enums.OrderStatusUnderReview), string(enums.OrderStatusUnderReview), enums.TransitionOriginManual, guards)
	if err != nil || target != string(enums.OrderStatusAwaitingInvoice) {
		t.Fatalf("expected AWAITING_INVOICE, got %s %v", target, err)
	}

	guards.RequireMeasurement = nil
	if _, err := Check(enums.DocumentKindOrder, string(enums.OrderStatusUnderReview), string(enums.OrderStatusUnderReview), enums.TransitionOriginManual, guards); pkgerrors.CodeOf(err) != pkgerrors.CodeInvalidTransition {
		t.Fatalf("plain self transition must be invalid, got %v", err)
	}
}

func TestCheckSupplierOrderRequiresSupplier(t *testing.T) {
	t.Parallel()

	if _, err := Check(enums.DocumentKindSupplierOrder, string(enums.SupplierOrderStatusPending), string(enums.SupplierOrderStatusOrdered), enums.TransitionOriginManual, Guards{}); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := Check(enums.DocumentKindSupplierOrder, string(enums.SupplierOrderStatusPending), string(enums.SupplierOrderStatusOrdered), enums.TransitionOriginManual, Guards{SupplierName: "Фабрика"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTerminalStatuses(t *testing.T) {
	t.Parallel()

	terminal := map[enums.DocumentKind][]string{
		enums.DocumentKindQuote:         {"ACCEPTED", "REJECTED"},
		enums.DocumentKindInvoice:       {"COMPLETED", "CANCELLED"},
		enums.DocumentKindOrder:         {"COMPLETED", "CANCELLED"},
		enums.DocumentKindSupplierOrder: {"COMPLETED", "CANCELLED"},
	}
	for kind, statuses := range terminal {
		for _, status := range statuses {
			if !IsTerminal(kind, status) {
				t.Fatalf("%s %s should be terminal", kind, status)
			}
		}
	}
	if IsTerminal(enums.DocumentKindInvoice, "DRAFT") || IsTerminal(enums.DocumentKindInvoice, "BOGUS") {
		t.Fatalf("non terminal statuses reported terminal")
	}
}

func TestBlockedSet(t *testing.T) {
	t.Parallel()

	for _, status := range []enums.InvoiceStatus{
		enums.InvoiceStatusOrdered,
		enums.InvoiceStatusInProduction,
		enums.InvoiceStatusReceivedFromSupplier,
		enums.InvoiceStatusCompleted,
	} {
		if !IsInvoiceBlocked(status) {
			t.Fatalf("%s should be blocked", status)
		}
	}
	for _, status := range []enums.InvoiceStatus{enums.InvoiceStatusDraft, enums.InvoiceStatusSent, enums.InvoiceStatusPaid, enums.InvoiceStatusCancelled} {
		if IsInvoiceBlocked(status) {
			t.Fatalf("%s should not be blocked", status)
		}
	}
	if IsBlocked(enums.DocumentKindOrder, string(enums.OrderStatusNewPlanned), Guards{}) {
		t.Fatalf("order without invoice is never blocked")
	}
}

func TestPropagation(t *testing.T) {
	t.Parallel()

	cases := map[enums.SupplierOrderStatus]enums.InvoiceStatus{
		enums.SupplierOrderStatusOrdered:      enums.InvoiceStatusOrdered,
		enums.SupplierOrderStatusInProduction: enums.InvoiceStatusInProduction,
		enums.SupplierOrderStatusReady:        enums.InvoiceStatusReceivedFromSupplier,
		enums.SupplierOrderStatusCompleted:    enums.InvoiceStatusCompleted,
	}
	for from, want := range cases {
		got, ok := PropagateSupplier(from)
		if !ok || got != want {
			t.Fatalf("supplier %s: expected %s, got %s (%v)", from, want, got, ok)
		}
	}
	for _, status := range []enums.SupplierOrderStatus{enums.SupplierOrderStatusPending, enums.SupplierOrderStatusCancelled} {
		if _, ok := PropagateSupplier(status); ok {
			t.Fatalf("%s must not propagate", status)
		}
	}
	if PropagateInvoice(enums.InvoiceStatusOrdered) != enums.InvoiceStatusOrdered {
		t.Fatalf("invoice status mirrors unchanged")
	}
}

func TestLabelsAndOrderDisplay(t *testing.T) {
	t.Parallel()

	if got := Label(enums.DocumentKindInvoice, "ORDERED"); got != "Заказ размещен" {
		t.Fatalf("unexpected invoice label %q", got)
	}
	if got := Label(enums.DocumentKindQuote, "ACCEPTED"); got != "Согласовано" {
		t.Fatalf("unexpected quote label %q", got)
	}
	if got := Label(enums.DocumentKindOrder, "MYSTERY"); got != "MYSTERY" {
		t.Fatalf("unknown statuses fall back to the raw value, got %q", got)
	}

	display := DisplayOrderStatus(enums.OrderStatusAwaitingInvoice, true, invoicePtr(enums.InvoiceStatusOrdered))
	if display.Label != "Заказ размещен" || display.Source != "invoice" {
		t.Fatalf("linked order should show invoice status, got %+v", display)
	}
	display = DisplayOrderStatus(enums.OrderStatusAwaitingInvoice, false, nil)
	if display.Label != "Ожидает опт. счет" || display.Source != "order" {
		t.Fatalf("unlinked order should show its own status, got %+v", display)
	}
}
