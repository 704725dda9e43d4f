package dedup

import (
	"strconv"
	"strings"

	"github.com/domeo/domeo-backend/pkg/enums"
	"github.com/domeo/domeo-backend/pkg/types"
)

// canonicalKey reduces a cart line to the fields that make two lines the
// same product at the same price. Handles compare by id, quantity and price
// only since their display name can change in the catalog.
func canonicalKey(line types.CartLine) string {
	kind := strings.ToLower(strings.TrimSpace(line.Kind))
	if kind == "" {
		kind = string(enums.ItemKindDoor)
	}
	quantity := line.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	price := line.UnitPrice.Round(2).StringFixed(2)
	handleID := strings.TrimSpace(line.HandleID)

	if kind == string(enums.ItemKindHandle) {
		return strings.Join([]string{
			string(enums.ItemKindHandle),
			handleID,
			strconv.Itoa(quantity),
			price,
		}, "|")
	}
	return strings.Join([]string{
		kind,
		norm(line.Style),
		norm(line.Model),
		norm(line.Finish),
		norm(line.Color),
		strconv.Itoa(line.Width),
		strconv.Itoa(line.Height),
		strings.TrimSpace(line.HardwareKitID),
		handleID,
		strconv.Itoa(quantity),
		price,
	}, "|")
}

func norm(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// SameContent reports whether two carts hold the same multiset of lines,
// regardless of order.
func SameContent(a, b types.CartLines) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[string]int, len(a))
	for _, line := range a {
		counts[canonicalKey(line)]++
	}
	for _, line := range b {
		key := canonicalKey(line)
		if counts[key] == 0 {
			return false
		}
		counts[key]--
	}
	return true
}
