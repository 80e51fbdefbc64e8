package blossom

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by lookups that matched no record.
var ErrNotFound = errors.New("blossom: not found")

// APIError is a non-200 response from Blossom. It carries the status code and
// (truncated) response body so the failure can be surfaced to the requester,
// and leaves the caller free to retry.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("blossom: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("blossom: unexpected status %d: %s", e.StatusCode, e.Body)
}

// AsAPIError unwraps err into an *APIError if possible.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
