package models

import "errors"

// Domain specific errors shared across the check-in, popularity and search domains.
var (
	ErrNotFound      = errors.New("requested item not found")
	ErrConflict      = errors.New("item already exists or conflict")
	ErrBadRequest    = errors.New("bad request")
	ErrValidation    = errors.New("validation failed")
	ErrUnresolvedRef = errors.New("legacy reference could not be resolved")
	ErrTransient     = errors.New("transient storage error, retry")
)

// ErrorKind labels returned in API error payloads. Internal storage error
// text never crosses the HTTP boundary.
const (
	KindNotFound        = "NotFound"
	KindConflict        = "Conflict"
	KindInvalidArgument = "InvalidArgument"
	KindTransient       = "Transient"
	KindInternal        = "Internal"
)

// APIError is the structured error payload returned by every endpoint.
type APIError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type APIErrorResponse struct {
	Error APIError `json:"error"`
}

// KindOf maps a domain error to its API taxonomy kind.
func KindOf(err error) string {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnresolvedRef):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrValidation):
		return KindInvalidArgument
	case errors.Is(err, ErrTransient):
		return KindTransient
	default:
		return KindInternal
	}
}
