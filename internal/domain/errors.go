package domain

import "errors"

var (
	// ErrCatalogUnavailable is returned when the catalog failed to load and
	// a catalog-mode operation was requested
	ErrCatalogUnavailable = errors.New("product catalog unavailable")

	// ErrNoProductsMatched is returned when a catalog-mode filter resolves
	// to zero products; the session stays usable and may retry
	ErrNoProductsMatched = errors.New("no products matched the filter queries")

	// ErrSessionNotInitialized is returned when a filter is set before Init
	ErrSessionNotInitialized = errors.New("scan session not initialized")

	// ErrSessionClosed is returned when an operation hits a closed session
	ErrSessionClosed = errors.New("scan session closed")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrImageDecode is returned when frame bytes cannot be decoded into an image
	ErrImageDecode = errors.New("failed to decode frame image")

	// ErrHistoryUnavailable is returned when the scan-history store is not configured
	ErrHistoryUnavailable = errors.New("scan history unavailable")
)
