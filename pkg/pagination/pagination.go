package pagination

import (
	"encoding/base64"
	"strings"
	"time"

	pkgerrors "github.com/domeo/domeo-backend/pkg/errors"
	"github.com/google/uuid"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

// Params are the cursor inputs accepted by list endpoints.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor points at the last row of the previous page in
// (created_at DESC, id DESC) order.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// Page is one slice of a listing plus the cursor for the next one.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// LimitWithBuffer asks for one extra row so the caller can tell whether a
// next page exists.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

func EncodeCursor(cursor Cursor) string {
	payload := cursor.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + cursor.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseCursor decodes a cursor. An empty value means the first page.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	invalid := func() error {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor").WithDetails(map[string]any{"field": "cursor"})
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, invalid()
	}
	createdAt, id, ok := strings.Cut(string(decoded), "|")
	if !ok {
		return nil, invalid()
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, invalid()
	}
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, invalid()
	}
	return &Cursor{CreatedAt: t, ID: parsedID}, nil
}

// Build trims a buffered result set to limit and sets NextCursor when rows
// were left over.
func Build[T any](rows []T, limit int, cursorOf func(T) Cursor) Page[T] {
	limit = NormalizeLimit(limit)
	page := Page[T]{Items: rows}
	if page.Items == nil {
		page.Items = []T{}
	}
	if len(rows) > limit {
		page.Items = rows[:limit]
		page.NextCursor = EncodeCursor(cursorOf(rows[limit-1]))
	}
	return page
}
