package revisions

import (
	"time"

	"github.com/domeo/domeo-backend/internal/pricing"
	"github.com/domeo/domeo-backend/pkg/enums"
	"github.com/domeo/domeo-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Attributes are the operator-editable properties of a line item.
type Attributes struct {
	Style         string `json:"style,omitempty"`
	Model         string `json:"model,omitempty"`
	Finish        string `json:"finish,omitempty"`
	Color         string `json:"color,omitempty"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	HardwareKitID string `json:"hardware_kit_id,omitempty"`
	HandleID      string `json:"handle_id,omitempty"`
}

// LineItem is one configurable product inside a cart.
type LineItem struct {
	ID         uuid.UUID       `json:"id"`
	Kind       enums.ItemKind  `json:"kind"`
	Attributes Attributes      `json:"attributes"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	SKU        string          `json:"sku,omitempty"`
	HandleName string          `json:"handle_name,omitempty"`
}

// LineTotal is unit price times quantity.
func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Equal compares every field, prices by value.
func (l LineItem) Equal(other LineItem) bool {
	return l.ID == other.ID &&
		l.Kind == other.Kind &&
		l.Attributes == other.Attributes &&
		l.Quantity == other.Quantity &&
		l.UnitPrice.Equal(other.UnitPrice) &&
		l.SKU == other.SKU &&
		l.HandleName == other.HandleName
}

// priceable is the subset of attributes that drives the unit price.
// Style and model identify the product and are fixed once in the cart.
type priceable struct {
	Finish        string
	Color         string
	Width         int
	Height        int
	HardwareKitID string
	HandleID      string
}

func (l LineItem) priceable() priceable {
	return priceable{
		Finish:        l.Attributes.Finish,
		Color:         l.Attributes.Color,
		Width:         l.Attributes.Width,
		Height:        l.Attributes.Height,
		HardwareKitID: l.Attributes.HardwareKitID,
		HandleID:      l.Attributes.HandleID,
	}
}

// PricingItem converts the item into the tuple the pricing service understands.
func (l LineItem) PricingItem() pricing.Item {
	return pricing.Item{
		Kind:          l.Kind,
		Style:         l.Attributes.Style,
		Model:         l.Attributes.Model,
		Finish:        l.Attributes.Finish,
		Color:         l.Attributes.Color,
		Width:         l.Attributes.Width,
		Height:        l.Attributes.Height,
		HardwareKitID: l.Attributes.HardwareKitID,
		HandleID:      l.Attributes.HandleID,
	}
}

// CartLine snapshots the item for document storage.
func (l LineItem) CartLine() types.CartLine {
	return types.CartLine{
		ItemID:        l.ID.String(),
		Kind:          l.Kind.String(),
		Style:         l.Attributes.Style,
		Model:         l.Attributes.Model,
		Finish:        l.Attributes.Finish,
		Color:         l.Attributes.Color,
		Width:         l.Attributes.Width,
		Height:        l.Attributes.Height,
		HardwareKitID: l.Attributes.HardwareKitID,
		HandleID:      l.Attributes.HandleID,
		HandleName:    l.HandleName,
		SKU:           l.SKU,
		Quantity:      l.Quantity,
		UnitPrice:     l.UnitPrice,
	}
}

// Changes is a partial update. Nil fields are left untouched.
type Changes struct {
	Finish        *string `json:"finish,omitempty"`
	Color         *string `json:"color,omitempty"`
	Width         *int    `json:"width,omitempty"`
	Height        *int    `json:"height,omitempty"`
	HardwareKitID *string `json:"hardware_kit_id,omitempty"`
	HandleID      *string `json:"handle_id,omitempty"`
	Quantity      *int    `json:"quantity,omitempty"`
}

// Empty reports whether no field is set.
func (c Changes) Empty() bool {
	return c == Changes{}
}

func (c Changes) apply(item LineItem) LineItem {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&item.Attributes.Finish, c.Finish)
	set(&item.Attributes.Color, c.Color)
	set(&item.Attributes.HardwareKitID, c.HardwareKitID)
	set(&item.Attributes.HandleID, c.HandleID)
	if c.Width != nil {
		item.Attributes.Width = *c.Width
	}
	if c.Height != nil {
		item.Attributes.Height = *c.Height
	}
	if c.Quantity != nil {
		item.Quantity = *c.Quantity
	}
	return item
}

// ItemChange records one item's before/after snapshots inside an entry.
// PriceDelta is the unit price move against the last committed price,
// LineDelta the move of unit price times quantity.
type ItemChange struct {
	Previous   LineItem        `json:"previous"`
	Next       LineItem        `json:"next"`
	PriceDelta decimal.Decimal `json:"price_delta"`
	LineDelta  decimal.Decimal `json:"line_delta"`
}

// RevisionEntry is one committed edit.
type RevisionEntry struct {
	Index      int                      `json:"index"`
	Timestamp  time.Time                `json:"timestamp"`
	Changes    map[uuid.UUID]ItemChange `json:"changes"`
	TotalDelta decimal.Decimal          `json:"total_delta"`
}

func (e RevisionEntry) clone() RevisionEntry {
	changes := make(map[uuid.UUID]ItemChange, len(e.Changes))
	for id, ch := range e.Changes {
		changes[id] = ch
	}
	e.Changes = changes
	return e
}

// Proposal is an uncommitted edit on a single item.
type Proposal struct {
	ItemID        uuid.UUID
	Original      LineItem
	Draft         LineItem
	Generation    uint64
	PriceResolved bool
	Err           error
	Cached        bool
	Breakdown     []BreakdownLine

	pricedFor *priceable
}

// BreakdownLine is one component of a catalog price.
type BreakdownLine struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}
