package carts

import (
	"github.com/domeo/domeo-backend/internal/revisions"
	"github.com/domeo/domeo-backend/pkg/enums"
	pkgerrors "github.com/domeo/domeo-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

type itemRequest struct {
	Kind          string           `json:"kind" validate:"required,item_kind"`
	Style         string           `json:"style"`
	Model         string           `json:"model"`
	Finish        string           `json:"finish"`
	Color         string           `json:"color"`
	Width         int              `json:"width" validate:"omitempty,min=0"`
	Height        int              `json:"height" validate:"omitempty,min=0"`
	HardwareKitID string           `json:"hardware_kit_id"`
	HandleID      string           `json:"handle_id"`
	Quantity      int              `json:"quantity" validate:"omitempty,min=1"`
	UnitPrice     *decimal.Decimal `json:"unit_price,omitempty" validate:"omitempty,money"`
}

type createCartRequest struct {
	ClientID string        `json:"client_id" validate:"required,max=64"`
	Items    []itemRequest `json:"items" validate:"omitempty,dive"`
}

type editRequest struct {
	Finish        *string `json:"finish,omitempty"`
	Color         *string `json:"color,omitempty"`
	Width         *int    `json:"width,omitempty" validate:"omitempty,min=0"`
	Height        *int    `json:"height,omitempty" validate:"omitempty,min=0"`
	HardwareKitID *string `json:"hardware_kit_id,omitempty"`
	HandleID      *string `json:"handle_id,omitempty"`
	Quantity      *int    `json:"quantity,omitempty" validate:"omitempty,min=1"`
}

func toLineItem(req itemRequest) (revisions.LineItem, error) {
	kind, err := enums.ParseItemKind(req.Kind)
	if err != nil {
		return revisions.LineItem{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item kind")
	}
	item := revisions.LineItem{
		Kind: kind,
		Attributes: revisions.Attributes{
			Style:         req.Style,
			Model:         req.Model,
			Finish:        req.Finish,
			Color:         req.Color,
			Width:         req.Width,
			Height:        req.Height,
			HardwareKitID: req.HardwareKitID,
			HandleID:      req.HandleID,
		},
		Quantity: req.Quantity,
	}
	if req.UnitPrice != nil {
		if req.UnitPrice.IsNegative() {
			return revisions.LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
		}
		item.UnitPrice = *req.UnitPrice
	}
	return item, nil
}

func toLineItems(reqs []itemRequest) ([]revisions.LineItem, error) {
	items := make([]revisions.LineItem, 0, len(reqs))
	for _, req := range reqs {
		item, err := toLineItem(req)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r editRequest) changes() revisions.Changes {
	return revisions.Changes{
		Finish:        r.Finish,
		Color:         r.Color,
		Width:         r.Width,
		Height:        r.Height,
		HardwareKitID: r.HardwareKitID,
		HandleID:      r.HandleID,
		Quantity:      r.Quantity,
	}
}
