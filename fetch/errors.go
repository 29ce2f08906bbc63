package fetch

import (
	"errors"
	"fmt"
)

// ErrEmptyBody indicates a page that parsed but yielded no body text.
var ErrEmptyBody = errors.New("no article text extracted")

// StatusError reports a non-200 HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: status %d", e.URL, e.StatusCode)
}
