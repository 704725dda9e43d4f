package documents

import (
	"net/http"
	"strings"

	"github.com/domeo/domeo-backend/api/middleware"
	"github.com/domeo/domeo-backend/api/responses"
	"github.com/domeo/domeo-backend/api/validators"
	docsvc "github.com/domeo/domeo-backend/internal/documents"
	"github.com/domeo/domeo-backend/internal/revisions"
	"github.com/domeo/domeo-backend/pkg/enums"
	pkgerrors "github.com/domeo/domeo-backend/pkg/errors"
	"github.com/domeo/domeo-backend/pkg/logger"
	"github.com/domeo/domeo-backend/pkg/pagination"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// CartSource resolves the open cart a document is created from.
type CartSource interface {
	Get(cartID uuid.UUID) (*revisions.Engine, error)
}

// OrderFromCart creates an order from the committed cart. An identical order
// already on file is returned with 200 instead of a new 201.
func OrderFromCart(carts CartSource, svc docsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, ok := cartEngine(w, r, carts, logg)
		if !ok {
			return
		}
		var payload orderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, total, err := engine.Snapshot()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateOrder(r.Context(), docsvc.CreateOrderInput{
			ClientID:       engine.ClientID(),
			CartSessionID:  engine.CartID().String(),
			Items:          items,
			Total:          total,
			ProjectFileURL: strings.TrimSpace(payload.ProjectFileURL),
			DoorDimensions: payload.DoorDimensions,
			Actor:          actorFrom(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusCreated
		if result.Deduplicated {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}

func QuoteFromCart(carts CartSource, svc docsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, ok := cartEngine(w, r, carts, logg)
		if !ok {
			return
		}
		items, total, err := engine.Snapshot()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quote, err := svc.CreateQuote(r.Context(), docsvc.CreateQuoteInput{
			ClientID: engine.ClientID(),
			Items:    items,
			Total:    total,
			Actor:    actorFrom(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, quote)
	}
}

func InvoiceFromCart(carts CartSource, svc docsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, ok := cartEngine(w, r, carts, logg)
		if !ok {
			return
		}
		var payload invoiceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, total, err := engine.Snapshot()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoice, err := svc.CreateInvoice(r.Context(), docsvc.CreateInvoiceInput{
			ClientID: engine.ClientID(),
			QuoteID:  payload.QuoteID,
			OrderID:  payload.OrderID,
			Items:    items,
			Total:    total,
			Actor:    actorFrom(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, invoice)
	}
}

// OrdersList returns a client's orders with their display status.
func OrdersList(svc docsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, err := validators.RequireQueryString(r, "client_id", 64)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListOrders(r.Context(), clientID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func OrderDetailsUpdate(svc docsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload orderDetailsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.UpdateOrderDetails(r.Context(), docsvc.UpdateOrderDetailsInput{
			OrderID:        orderID,
			ProjectFileURL: payload.ProjectFileURL,
			DoorDimensions: payload.DoorDimensions,
			Actor:          actorFrom(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func SupplierOrderCreate(svc docsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload supplierOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var notes *string
		if payload.Notes != nil {
			trimmed := validators.SanitizeString(*payload.Notes, 2000)
			notes = &trimmed
		}
		so, err := svc.CreateSupplierOrder(r.Context(), docsvc.CreateSupplierOrderInput{
			OrderID:      orderID,
			SupplierName: validators.SanitizeString(payload.SupplierName, 255),
			Notes:        notes,
			Actor:        actorFrom(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, so)
	}
}

func DocumentFetch(svc docsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, id, ok := documentRef(w, r, logg)
		if !ok {
			return
		}
		view, err := svc.Get(r.Context(), kind, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func DocumentHistory(svc docsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, id, ok := documentRef(w, r, logg)
		if !ok {
			return
		}
		rows, err := svc.History(r.Context(), kind, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// StatusUpdate applies a manual status change and reports every propagated
// write made in the same transaction.
func StatusUpdate(svc docsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, id, ok := documentRef(w, r, logg)
		if !ok {
			return
		}
		var payload statusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Transition(r.Context(), docsvc.TransitionInput{
			Kind:               kind,
			ID:                 id,
			Status:             payload.Status,
			RequireMeasurement: payload.RequireMeasurement,
			Actor:              actorFrom(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func cartEngine(w http.ResponseWriter, r *http.Request, carts CartSource, logg *logger.Logger) (*revisions.Engine, bool) {
	cartID, err := validators.ParseUUIDParam(r, "cartID")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}
	engine, err := carts.Get(cartID)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}
	return engine, true
}

func documentRef(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (enums.DocumentKind, uuid.UUID, bool) {
	kind, err := enums.ParseDocumentKind(chi.URLParam(r, "kind"))
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown document kind").
			WithDetails(map[string]any{"field": "kind"}))
		return "", uuid.Nil, false
	}
	id, err := validators.ParseUUIDParam(r, "id")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return "", uuid.Nil, false
	}
	return kind, id, true
}

func actorFrom(r *http.Request) docsvc.Actor {
	return docsvc.Actor{
		ID:   middleware.ActorIDFromContext(r.Context()),
		Role: middleware.RoleFromContext(r.Context()),
	}
}
