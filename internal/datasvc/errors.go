package datasvc

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound matches a StatusError with status 404 via errors.Is.
var ErrNotFound = errors.New("datasvc: not found")

// ErrorCode is the GraphQL error extension code for data service faults.
const ErrorCode = "REMOTE_FETCH"

// StatusError reports a non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("datasvc: %s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Extensions are attached to the GraphQL error for the failed field.
func (e *StatusError) Extensions() map[string]any {
	return map[string]any{"code": ErrorCode, "status": e.StatusCode}
}

// CallError reports a request that produced no usable response: transport
// failure, timeout, or an undecodable body.
type CallError struct {
	Method string
	Path   string
	Err    error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("datasvc: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

func (e *CallError) Extensions() map[string]any {
	return map[string]any{"code": ErrorCode}
}
