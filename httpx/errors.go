// File: httpx/errors.go

package httpx

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest reports a malformed request line, header, or a
	// body shorter than its Content-Length.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNotFound reports that the router has no handler for a request.
	ErrNotFound = errors.New("no route matches the request")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
