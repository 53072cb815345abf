package dogsapi

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// HTTPError is a non-2xx answer from the remote service other than 404.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("dogs api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("dogs api: status %d, body: %s", e.StatusCode, e.Body)
}

// StatusCode extracts the remote status from err, or 0 when err did not
// come from a remote answer.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	if errors.Is(err, ErrNotFound) {
		return 404
	}
	return 0
}
