package cache

import "fmt"

// LoadError is returned when fetching or decoding a media item fails.
// Failed loads are never cached; a later call retries the load.
type LoadError struct {
	Locator string
	Err     error
}

// Error returns the error message
func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load media %s: %v", e.Locator, e.Err)
}

// Unwrap returns the underlying error
func (e *LoadError) Unwrap() error {
	return e.Err
}
