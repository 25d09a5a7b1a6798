package shopgraph

import (
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Sentinels for errors.Is. Every error returned by a Client matches exactly
// one of them.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrRequest         = errors.New("request failed")
	ErrDomain          = errors.New("operation rejected")
)

// InvalidArgumentError reports malformed caller input. It is always
// returned before any request is sent.
type InvalidArgumentError struct {
	Message string
}

func (e *InvalidArgumentError) Error() string { return e.Message }

// Is reports whether target is ErrInvalidArgument.
func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

func invalidArgument(format string, args ...interface{}) error {
	return &InvalidArgumentError{Message: fmt.Sprintf(format, args...)}
}

// RequestError is a transport, HTTP or GraphQL protocol failure.
type RequestError struct {
	Message string
	// Code is the HTTP status for HTTP failures and the OS error number for
	// transport failures when one is known.
	Code int
	// HTTPStatus is zero when no response was received.
	HTTPStatus int
	// GraphQLErrors holds the decoded "errors" array, if that is what failed.
	GraphQLErrors gqlerror.List
	// Body is the raw response body, if any.
	Body []byte

	err error
}

func (e *RequestError) Error() string { return e.Message }

// Is reports whether target is ErrRequest.
func (e *RequestError) Is(target error) bool { return target == ErrRequest }

// Unwrap returns the underlying cause, if any.
func (e *RequestError) Unwrap() error { return e.err }

// DomainError is returned when the API accepted a request but did not
// produce the expected object. Its message is the status reported by the API.
type DomainError struct {
	Operation string
	Status    string
}

func (e *DomainError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("%s failed without a status", e.Operation)
	}
	return e.Status
}

// Is reports whether target is ErrDomain.
func (e *DomainError) Is(target error) bool { return target == ErrDomain }
