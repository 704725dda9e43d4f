package enums

import "fmt"

// TransitionOrigin records who initiated a status write.
type TransitionOrigin string

const (
	// TransitionOriginManual is an operator request through the API.
	TransitionOriginManual TransitionOrigin = "manual"
	// TransitionOriginPropagation is a write caused by a linked document's change.
	TransitionOriginPropagation TransitionOrigin = "propagation"
	// TransitionOriginSystem is a write made on creation or by background jobs.
	TransitionOriginSystem TransitionOrigin = "system"
)

var validTransitionOrigins = []TransitionOrigin{
	TransitionOriginManual,
	TransitionOriginPropagation,
	TransitionOriginSystem,
}

// String implements fmt.Stringer.
func (o TransitionOrigin) String() string {
	return string(o)
}

// IsValid reports whether the value is a known TransitionOrigin.
func (o TransitionOrigin) IsValid() bool {
	for _, candidate := range validTransitionOrigins {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseTransitionOrigin converts raw input into a TransitionOrigin.
func ParseTransitionOrigin(value string) (TransitionOrigin, error) {
	for _, candidate := range validTransitionOrigins {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transition origin %q", value)
}
