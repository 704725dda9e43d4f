package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/domeo/domeo-backend/pkg/errors"
)

// ParseQueryInt reads an optional bounded integer query parameter.
func ParseQueryInt(r *http.Request, key string, defaultVal, minVal, maxVal int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be an integer").
			WithDetails(map[string]any{"field": key, "value": SanitizeString(raw, 32)})
	}
	if value < minVal || value > maxVal {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").
			WithDetails(map[string]any{"field": key, "min": minVal, "max": maxVal})
	}
	return value, nil
}

// RequireQueryString returns a trimmed, length-capped query value and
// rejects a missing one.
func RequireQueryString(r *http.Request, key string, maxLen int) (string, error) {
	value := SanitizeString(r.URL.Query().Get(key), maxLen)
	if value == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, key+" is required").
			WithDetails(map[string]any{"field": key})
	}
	return value, nil
}
