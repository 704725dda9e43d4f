package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// CartLine is the immutable snapshot of one cart line stored on a document.
type CartLine struct {
	ItemID        string          `json:"item_id"`
	Kind          string          `json:"kind"`
	Style         string          `json:"style,omitempty"`
	Model         string          `json:"model,omitempty"`
	Finish        string          `json:"finish,omitempty"`
	Color         string          `json:"color,omitempty"`
	Width         int             `json:"width,omitempty"`
	Height        int             `json:"height,omitempty"`
	HardwareKitID string          `json:"hardware_kit_id,omitempty"`
	HandleID      string          `json:"handle_id,omitempty"`
	HandleName    string          `json:"handle_name,omitempty"`
	SKU           string          `json:"sku,omitempty"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
}

// LineTotal is unit price times quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartLines is persisted as a JSON array (jsonb on Postgres, text on SQLite).
type CartLines []CartLine

// Total sums every line total.
func (c CartLines) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c {
		total = total.Add(line.LineTotal())
	}
	return total
}

// Value serializes the lines to JSON.
func (c CartLines) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan decodes JSON into the line slice.
func (c *CartLines) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	var decoded CartLines
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("cart lines: %w", err)
	}
	*c = decoded
	return nil
}

// DoorDimension is a measured opening attached to an order.
type DoorDimension struct {
	Width    int `json:"width"`
	Height   int `json:"height"`
	Quantity int `json:"quantity,omitempty"`
}

// DoorDimensions is persisted as a JSON array.
type DoorDimensions []DoorDimension

// Value serializes the dimensions to JSON.
func (d DoorDimensions) Value() (driver.Value, error) {
	if d == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan decodes JSON into the dimension slice.
func (d *DoorDimensions) Scan(value interface{}) error {
	if value == nil {
		*d = nil
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	var decoded DoorDimensions
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("door dimensions: %w", err)
	}
	*d = decoded
	return nil
}

// Complete reports whether at least one opening with both sides is recorded.
func (d DoorDimensions) Complete() bool {
	if len(d) == 0 {
		return false
	}
	for _, dim := range d {
		if dim.Width <= 0 || dim.Height <= 0 {
			return false
		}
	}
	return true
}

func asJSON(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported scan type %T", value)
	}
}
