package enums

import (
	"fmt"
	"strings"
)

// ItemKind distinguishes configurable doors from catalog handles.
type ItemKind string

const (
	ItemKindDoor   ItemKind = "door"
	ItemKindHandle ItemKind = "handle"
)

var validItemKinds = []ItemKind{
	ItemKindDoor,
	ItemKindHandle,
}

// String implements fmt.Stringer.
func (k ItemKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known ItemKind.
func (k ItemKind) IsValid() bool {
	for _, candidate := range validItemKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseItemKind converts raw input into an ItemKind. Matching ignores case.
func ParseItemKind(value string) (ItemKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validItemKinds {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item kind %q", value)
}
