package sources

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFile is returned for binary formats that cannot be read as text
	ErrUnsupportedFile = errors.New("unsupported file type")

	// ErrTooLarge is returned when a source exceeds the configured size limit
	ErrTooLarge = errors.New("input exceeds the maximum allowed size")

	// ErrInvalidURL is returned for URLs that are not absolute http or https URLs
	ErrInvalidURL = errors.New("invalid CSV URL")
)

// HTTPStatusError reports a remote source that answered with a non-2xx status.
type HTTPStatusError struct {
	StatusCode int
	URL        string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// UpstreamStatus exposes the remote status code to the API error mapper.
func (e *HTTPStatusError) UpstreamStatus() int {
	return e.StatusCode
}
