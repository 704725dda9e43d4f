package carts

import (
	"net/http"

	"github.com/domeo/domeo-backend/api/responses"
	"github.com/domeo/domeo-backend/api/validators"
	"github.com/domeo/domeo-backend/pkg/logger"
)

// ItemEdit proposes a change and returns the repriced preview. The cart
// itself is untouched until the edit is committed.
func ItemEdit(store CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, itemID, ok := lookupItem(w, r, store, logg)
		if !ok {
			return
		}
		var payload editRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		preview, err := engine.ProposeEdit(r.Context(), itemID, payload.changes())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, preview)
	}
}

func ItemCommit(store CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, itemID, ok := lookupItem(w, r, store, logg)
		if !ok {
			return
		}
		entry, err := engine.CommitEdit(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := engine.View(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, commitResponse{Revision: entry, Cart: view})
	}
}

func ItemCancel(store CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, itemID, ok := lookupItem(w, r, store, logg)
		if !ok {
			return
		}
		item, err := engine.CancelEdit(itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := engine.View(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cancelResponse{Item: item, Cart: view})
	}
}

func RevisionsList(store CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, ok := lookup(w, r, store, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, engine.Entries())
	}
}

// RollbackTo restores the cart to its state right after revision index.
func RollbackTo(store CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, ok := lookup(w, r, store, logg)
		if !ok {
			return
		}
		index, err := validators.ParseIntParam(r, "index")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := engine.RollbackTo(index); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeView(w, r, engine, logg)
	}
}

// RollbackAll restores the baseline and clears the revision log.
func RollbackAll(store CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engine, ok := lookup(w, r, store, logg)
		if !ok {
			return
		}
		engine.RollbackAll()
		writeView(w, r, engine, logg)
	}
}
