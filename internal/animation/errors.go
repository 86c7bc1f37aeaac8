package animation

import "errors"

// ErrInvalidRequest classifies every request invariant violation.
var ErrInvalidRequest = errors.New("invalid animation request")

// Invariant names the request rule a ValidationError reports.
type Invariant string

const (
	InvariantProjectionNeedsSphere Invariant = "projection_requires_sphere"
	InvariantVectorDimensions      Invariant = "vector_dimensions"
	InvariantPositiveDuration      Invariant = "positive_duration"
)

// ValidationError is returned when a description cannot form a consistent Request.
type ValidationError struct {
	Invariant Invariant
	Message   string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// Is makes every ValidationError match ErrInvalidRequest.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRequest
}

// IsInvariant reports whether err is a ValidationError for the given invariant.
func IsInvariant(err error, inv Invariant) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Invariant == inv
	}
	return false
}
