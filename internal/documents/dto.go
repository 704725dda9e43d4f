package documents

import (
	"time"

	"github.com/domeo/domeo-backend/internal/documents/lifecycle"
	"github.com/domeo/domeo-backend/pkg/db/models"
	"github.com/domeo/domeo-backend/pkg/enums"
	pkgerrors "github.com/domeo/domeo-backend/pkg/errors"
	"github.com/domeo/domeo-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Actor identifies who requested a change.
type Actor struct {
	ID   string
	Role string
}

// CreateOrderInput carries a committed cart snapshot.
type CreateOrderInput struct {
	ClientID       string
	CartSessionID  string
	Items          types.CartLines
	Total          decimal.Decimal
	ProjectFileURL string
	DoorDimensions types.DoorDimensions
	Actor          Actor
}

// OrderResult reports the created order, or the existing one when the
// content was already ordered.
type OrderResult struct {
	Order        *models.Order  `json:"order"`
	Deduplicated bool           `json:"deduplicated"`
	Notice       pkgerrors.Code `json:"notice,omitempty"`
}

// CreateQuoteInput carries a committed cart snapshot.
type CreateQuoteInput struct {
	ClientID string
	Items    types.CartLines
	Total    decimal.Decimal
	Actor    Actor
}

// CreateInvoiceInput carries a committed cart snapshot. OrderID, when set,
// links the invoice to an existing order so its status is mirrored there.
type CreateInvoiceInput struct {
	ClientID string
	QuoteID  *uuid.UUID
	OrderID  *uuid.UUID
	Items    types.CartLines
	Total    decimal.Decimal
	Actor    Actor
}

// CreateSupplierOrderInput places a factory order for a client order.
type CreateSupplierOrderInput struct {
	OrderID      uuid.UUID
	SupplierName string
	Notes        *string
	Actor        Actor
}

// UpdateOrderDetailsInput sets the fields the order lifecycle requires.
type UpdateOrderDetailsInput struct {
	OrderID        uuid.UUID
	ProjectFileURL *string
	DoorDimensions *types.DoorDimensions
	Actor          Actor
}

// TransitionInput requests a status change on any document kind.
type TransitionInput struct {
	Kind               enums.DocumentKind
	ID                 uuid.UUID
	Status             string
	RequireMeasurement *bool
	Actor              Actor
}

// StatusChange is one status write made by a transition.
type StatusChange struct {
	Kind   enums.DocumentKind     `json:"kind"`
	ID     uuid.UUID              `json:"id"`
	From   string                 `json:"from"`
	To     string                 `json:"to"`
	Label  string                 `json:"label"`
	Origin enums.TransitionOrigin `json:"origin"`
}

// TransitionResult lists the requested write followed by every propagated one.
type TransitionResult struct {
	StatusChange
	Propagated []StatusChange `json:"propagated,omitempty"`
}

// DocumentView is the read model shared by every document kind.
type DocumentView struct {
	Kind               enums.DocumentKind      `json:"kind"`
	ID                 uuid.UUID               `json:"id"`
	Number             string                  `json:"number"`
	ClientID           string                  `json:"client_id,omitempty"`
	Status             string                  `json:"status"`
	StatusLabel        string                  `json:"status_label"`
	Display            *lifecycle.OrderDisplay `json:"display_status,omitempty"`
	Blocked            bool                    `json:"blocked"`
	AllowedTransitions []string                `json:"allowed_transitions"`
	TotalAmount        decimal.Decimal         `json:"total_amount"`
	CartData           types.CartLines         `json:"cart_data,omitempty"`
	CreatedAt          time.Time               `json:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at"`
	Document           any                     `json:"document"`
}
