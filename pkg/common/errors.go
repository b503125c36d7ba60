package common

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// ErrResponseCommitted is returned by a terminal write on a response that has
// already been written.
var ErrResponseCommitted = errors.New("response already committed")

// HTTPError represents an HTTP error with a status code and message.
// When returned from a handler or interceptor, the router answers with the
// status code and a JSON body of the form {"error": message}.
type HTTPError struct {
	StatusCode int    // HTTP status code (e.g., 400, 404, 500)
	Message    string // Error message to be sent in the response body
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// NewHTTPError creates a new HTTPError with the specified status code and message.
func NewHTTPError(statusCode int, message string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
	}
}

// PanicError wraps a value recovered from a panicking interceptor or handler.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Invoke calls fn and converts a panic into a *PanicError.
func Invoke(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &PanicError{Value: rec, Stack: debug.Stack()}
		}
	}()
	return fn()
}
