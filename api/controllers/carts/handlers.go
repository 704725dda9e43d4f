package carts

import (
	"context"
	"net/http"

	"github.com/domeo/domeo-backend/api/responses"
	"github.com/domeo/domeo-backend/api/validators"
	"github.com/domeo/domeo-backend/internal/revisions"
	pkgerrors "github.com/domeo/domeo-backend/pkg/errors"
	"github.com/domeo/domeo-backend/pkg/logger"
	"github.com/google/uuid"
)

// CartStore holds the open cart engines.
type CartStore interface {
	Create(ctx context.Context, clientID string, items []revisions.LineItem) (*revisions.Engine, error)
	Get(cartID uuid.UUID) (*revisions.Engine, error)
	Delete(cartID uuid.UUID) bool
}

type commitResponse struct {
	Revision *revisions.RevisionEntry `json:"revision"`
	Cart     *revisions.CartView      `json:"cart"`
}

type cancelResponse struct {
	Item revisions.LineItem  `json:"item"`
	Cart *revisions.CartView `json:"cart"`
}

// CartCreate opens a cart with an optional priced baseline.
func CartCreate(store CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := toLineItems(payload.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		engine, err := store.Create(r.Context(), validators.SanitizeString(payload.ClientID, 64), items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := engine.View(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

func CartFetch(store CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, ok := lookup(w, r, store, logg)
		if !ok {
			return
		}
		writeView(w, r, engine, logg)
	}
}

func CartDelete(store CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartID, err := validators.ParseUUIDParam(r, "cartID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !store.Delete(cartID) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found"))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ItemAdd(store CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, ok := lookup(w, r, store, logg)
		if !ok {
			return
		}
		var payload itemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := toLineItem(payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := engine.AddItem(r.Context(), item); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := engine.View(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

func ItemRemove(store CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, itemID, ok := lookupItem(w, r, store, logg)
		if !ok {
			return
		}
		if err := engine.RemoveItem(itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeView(w, r, engine, logg)
	}
}

func lookup(w http.ResponseWriter, r *http.Request, store CartStore, logg *logger.Logger) (*revisions.Engine, bool) {
	cartID, err := validators.ParseUUIDParam(r, "cartID")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}
	engine, err := store.Get(cartID)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}
	return engine, true
}

func lookupItem(w http.ResponseWriter, r *http.Request, store CartStore, logg *logger.Logger) (*revisions.Engine, uuid.UUID, bool) {
	engine, ok := lookup(w, r, store, logg)
	if !ok {
		return nil, uuid.Nil, false
	}
	itemID, err := validators.ParseUUIDParam(r, "itemID")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, uuid.Nil, false
	}
	return engine, itemID, true
}

func writeView(w http.ResponseWriter, r *http.Request, engine *revisions.Engine, logg *logger.Logger) {
	view, err := engine.View(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, view)
}
