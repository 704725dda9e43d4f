package pricing

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/domeo/domeo-backend/pkg/catalog"
	"github.com/domeo/domeo-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Item is the priceable attribute tuple of a line item.
type Item struct {
	Kind          enums.ItemKind
	Style         string
	Model         string
	Finish        string
	Color         string
	Width         int
	Height        int
	HardwareKitID string
	HandleID      string
}

// Options tunes a single recalculation.
type Options struct {
	ValidateCombination bool
	UseCache            bool
	Timeout             time.Duration
}

// Result is an authoritative unit price for an item.
type Result struct {
	Price      decimal.Decimal
	SKU        string
	HandleName string
	Breakdown  []catalog.BreakdownLine
	Cached     bool
}

// Fingerprint hashes the full attribute tuple into a stable cache key.
func (i Item) Fingerprint() string {
	parts := []string{
		string(i.Kind),
		strings.TrimSpace(i.Style),
		strings.TrimSpace(i.Model),
		strings.TrimSpace(i.Finish),
		strings.TrimSpace(i.Color),
		strconv.Itoa(i.Width),
		strconv.Itoa(i.Height),
		strings.TrimSpace(i.HardwareKitID),
		strings.TrimSpace(i.HandleID),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}

func (i Item) selection() catalog.Selection {
	sel := catalog.Selection{
		Style:  i.Style,
		Model:  i.Model,
		Finish: i.Finish,
		Color:  i.Color,
		Width:  i.Width,
		Height: i.Height,
	}
	if id := strings.TrimSpace(i.HardwareKitID); id != "" {
		sel.HardwareKit = &catalog.Ref{ID: id}
	}
	if id := strings.TrimSpace(i.HandleID); id != "" {
		sel.Handle = &catalog.Ref{ID: id}
	}
	return sel
}
