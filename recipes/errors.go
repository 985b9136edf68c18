package recipes

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized = errors.New("Unauthorized")
	ErrNotFound     = errors.New("recipe not found")
)

// TransportError means the request never produced an HTTP response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AppError carries the server's reason for a non-2xx response.
type AppError struct {
	Status int
	Reason string
}

func (e *AppError) Error() string {
	return e.Reason
}

// Reason returns the message to show for err: the server's reason for an
// AppError, otherwise fallback.
func Reason(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Reason != "" {
		return appErr.Reason
	}
	return fallback
}
