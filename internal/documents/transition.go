package documents

import (
	"context"
	"strings"

	"github.com/domeo/domeo-backend/internal/documents/lifecycle"
	"github.com/domeo/domeo-backend/pkg/db/models"
	"github.com/domeo/domeo-backend/pkg/enums"
	pkgerrors "github.com/domeo/domeo-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Transition validates and applies a status change. The requested write,
// every propagated write and their history rows share one transaction.
// Every check, propagated ones included, runs before the first write, and
// each status write only succeeds against the status it was checked from.
func (s *service) Transition(ctx context.Context, input TransitionInput) (*TransitionResult, error) {
	if !input.Kind.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown document kind %q", input.Kind)
	}
	if input.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document id is required")
	}
	requested := strings.ToUpper(strings.TrimSpace(input.Status))
	if requested == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status is required")
	}
	ctx = s.logg.WithActor(s.logg.WithDocument(ctx, input.Kind.String(), input.ID.String()), input.Actor.ID, input.Actor.Role)

	var result *TransitionResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		t := &transition{ctx: ctx, repo: s.repo.WithTx(tx), actor: input.Actor}

		current, guards, err := t.load(input.Kind, input.ID)
		if err != nil {
			return err
		}
		guards.RequireMeasurement = input.RequireMeasurement

		target, err := lifecycle.Check(input.Kind, current, requested, enums.TransitionOriginManual, guards)
		if err != nil {
			return err
		}
		var step *invoiceStep
		if input.Kind == enums.DocumentKindSupplierOrder {
			if step, err = t.planSupplier(input.ID, enums.SupplierOrderStatus(target)); err != nil {
				return err
			}
		}

		primary, err := t.write(input.Kind, input.ID, current, target, enums.TransitionOriginManual)
		if err != nil {
			return err
		}
		switch {
		case step != nil:
			err = t.applyInvoiceStep(step)
		case input.Kind == enums.DocumentKindInvoice:
			err = t.fromInvoice(input.ID, enums.InvoiceStatus(target))
		}
		if err != nil {
			return err
		}
		result = &TransitionResult{StatusChange: primary, Propagated: t.propagated}
		return nil
	})
	if err != nil {
		s.metrics.IncRejection(input.Kind.String(), string(pkgerrors.CodeOf(err)))
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"requested_status": requested,
			"error":            err.Error(),
		}), "status transition rejected")
		return nil, err
	}

	s.metrics.IncTransition(result.Kind.String(), result.Origin.String(), result.To)
	for _, change := range result.Propagated {
		s.metrics.IncTransition(change.Kind.String(), change.Origin.String(), change.To)
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"from":       result.From,
		"to":         result.To,
		"propagated": len(result.Propagated),
	}), "status transition applied")
	return result, nil
}

// transition carries one Transition call's state inside its transaction.
type transition struct {
	ctx        context.Context
	repo       Repository
	actor      Actor
	propagated []StatusChange
}

func (t *transition) load(kind enums.DocumentKind, id uuid.UUID) (string, lifecycle.Guards, error) {
	switch kind {
	case enums.DocumentKindQuote:
		quote, err := t.repo.FindQuote(t.ctx, id)
		if err != nil {
			return "", lifecycle.Guards{}, err
		}
		return string(quote.Status), lifecycle.Guards{}, nil
	case enums.DocumentKindInvoice:
		invoice, err := t.repo.FindInvoice(t.ctx, id)
		if err != nil {
			return "", lifecycle.Guards{}, err
		}
		return string(invoice.Status), lifecycle.Guards{}, nil
	case enums.DocumentKindOrder:
		order, err := t.repo.FindOrder(t.ctx, id)
		if err != nil {
			return "", lifecycle.Guards{}, err
		}
		var linked *models.Invoice
		if order.InvoiceID != nil {
			if linked, err = t.repo.FindInvoice(t.ctx, *order.InvoiceID); err != nil {
				return "", lifecycle.Guards{}, err
			}
		}
		return string(order.Status), orderGuards(order, linked), nil
	case enums.DocumentKindSupplierOrder:
		so, err := t.repo.FindSupplierOrder(t.ctx, id)
		if err != nil {
			return "", lifecycle.Guards{}, err
		}
		return string(so.Status), lifecycle.Guards{SupplierName: so.SupplierName}, nil
	default:
		return "", lifecycle.Guards{}, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown document kind %q", kind)
	}
}

func (t *transition) write(kind enums.DocumentKind, id uuid.UUID, from, to string, origin enums.TransitionOrigin) (StatusChange, error) {
	if err := t.repo.UpdateStatus(t.ctx, kind, id, from, to); err != nil {
		return StatusChange{}, err
	}
	if err := t.history(kind, id, from, to, origin); err != nil {
		return StatusChange{}, err
	}
	return StatusChange{Kind: kind, ID: id, From: from, To: to, Label: lifecycle.Label(kind, to), Origin: origin}, nil
}

func (t *transition) history(kind enums.DocumentKind, id uuid.UUID, from, to string, origin enums.TransitionOrigin) error {
	return t.repo.CreateHistory(t.ctx, &models.StatusHistory{
		DocumentKind: kind,
		DocumentID:   id,
		FromStatus:   from,
		ToStatus:     to,
		Origin:       origin,
		ActorID:      t.actor.ID,
		ActorRole:    t.actor.Role,
	})
}

// invoiceStep is an already checked invoice move caused by a supplier order.
type invoiceStep struct {
	invoice *models.Invoice
	to      enums.InvoiceStatus
}

// planSupplier finds the invoice linked through the supplier order's client
// order and checks the mapped move. A nil step means nothing to propagate,
// including an invoice already at the mapped status.
func (t *transition) planSupplier(id uuid.UUID, status enums.SupplierOrderStatus) (*invoiceStep, error) {
	target, ok := lifecycle.PropagateSupplier(status)
	if !ok {
		return nil, nil
	}
	so, err := t.repo.FindSupplierOrder(t.ctx, id)
	if err != nil {
		return nil, err
	}
	order, err := t.repo.FindOrder(t.ctx, so.OrderID)
	if err != nil {
		return nil, err
	}
	if order.InvoiceID == nil {
		return nil, nil
	}
	invoice, err := t.repo.FindInvoice(t.ctx, *order.InvoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status == target {
		return nil, nil
	}
	if _, err := lifecycle.Check(enums.DocumentKindInvoice, string(invoice.Status), string(target), enums.TransitionOriginPropagation, lifecycle.Guards{}); err != nil {
		return nil, err
	}
	return &invoiceStep{invoice: invoice, to: target}, nil
}

func (t *transition) applyInvoiceStep(step *invoiceStep) error {
	change, err := t.write(enums.DocumentKindInvoice, step.invoice.ID, string(step.invoice.Status), string(step.to), enums.TransitionOriginPropagation)
	if err != nil {
		return err
	}
	t.propagated = append(t.propagated, change)
	return t.fromInvoice(step.invoice.ID, step.to)
}

// fromInvoice mirrors the invoice status onto every linked order.
func (t *transition) fromInvoice(id uuid.UUID, status enums.InvoiceStatus) error {
	orders, err := t.repo.FindOrdersByInvoice(t.ctx, id)
	if err != nil {
		return err
	}
	mirrored := lifecycle.PropagateInvoice(status)
	for _, order := range orders {
		previous := ""
		if order.InvoiceStatus != nil {
			previous = string(*order.InvoiceStatus)
		}
		if previous == string(mirrored) {
			continue
		}
		if err := t.repo.UpdateOrderInvoiceStatus(t.ctx, order.ID, mirrored); err != nil {
			return err
		}
		if err := t.history(enums.DocumentKindOrder, order.ID, previous, string(mirrored), enums.TransitionOriginPropagation); err != nil {
			return err
		}
		t.propagated = append(t.propagated, StatusChange{
			Kind:   enums.DocumentKindOrder,
			ID:     order.ID,
			From:   previous,
			To:     string(mirrored),
			Label:  lifecycle.InvoiceLabel(mirrored),
			Origin: enums.TransitionOriginPropagation,
		})
	}
	return nil
}

// orderGuards collects the order facts the lifecycle checks. When the linked
// invoice is not loaded the mirrored status stands in for it.
func orderGuards(order *models.Order, linked *models.Invoice) lifecycle.Guards {
	guards := lifecycle.Guards{HasDoorDimensions: order.DoorDimensions.Complete()}
	if order.ProjectFileURL != nil {
		guards.ProjectFileURL = strings.TrimSpace(*order.ProjectFileURL)
	}
	switch {
	case linked != nil:
		status := linked.Status
		guards.LinkedInvoiceStatus = &status
	case order.InvoiceID != nil && order.InvoiceStatus != nil:
		status := *order.InvoiceStatus
		guards.LinkedInvoiceStatus = &status
	}
	return guards
}
