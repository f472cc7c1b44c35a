package services

import "errors"

// Dashboard service errors
var (
	// ErrNoDataset is returned by queries before the first successful load
	ErrNoDataset = errors.New("no dataset loaded")

	// ErrMissingURL is returned when a URL load is requested without a URL
	ErrMissingURL = errors.New("no CSV URL provided")

	// ErrInvalidPagination rejects negative offsets or limits
	ErrInvalidPagination = errors.New("offset and limit must not be negative")
)
