package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a ServiceError.
type Kind int

const (
	// KindUnspecified is the zero value; it is presented as a bad request.
	KindUnspecified Kind = iota
	// KindRateLimit means the upstream API quota was exhausted.
	KindRateLimit
	// KindNotFound covers unknown users, unparseable responses and
	// failed aggregations.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindRateLimit:
		return "RATE_LIMIT"
	case KindNotFound:
		return "NOT_FOUND"
	default:
		return "UNSPECIFIED"
	}
}

// ServiceError is the terminal error value returned by the query layer.
type ServiceError struct {
	Message string
	Kind    Kind
}

// NewServiceError creates a ServiceError of the given kind.
func NewServiceError(message string, kind Kind) *ServiceError {
	return &ServiceError{Message: message, Kind: kind}
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// AsServiceError extracts the ServiceError from err's chain.
// The second return value is false when err carries none.
func AsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return nil, false
}
