package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// redacted replaces credential values in URLs that end up in errors and logs
const redacted = "REDACTED"

// credentialParams are the query parameters photo service URLs carry credentials in
var credentialParams = []string{"api_key", "api_sig", "oauth_token", "oauth_signature"}

// HTTPError is returned for any response other than 200 OK
type HTTPError struct {
	StatusCode int
	Message    string
	// URL is the request URL with credentials removed
	URL string
}

// Error returns the error message
func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d %s", e.URL, e.StatusCode, e.Message)
}

// Temporary reports whether the request may succeed when tried again
func (e *HTTPError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// NewHTTPError creates an HTTPError, redacting credentials from rawURL
func NewHTTPError(statusCode int, rawURL, message string) error {
	return &HTTPError{
		StatusCode: statusCode,
		URL:        RedactURL(rawURL),
		Message:    message,
	}
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not an HTTPError
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// RedactURL masks the user password and credential query parameters of rawURL.
// Unparseable input is returned unchanged.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	if u.RawQuery != "" {
		q := u.Query()
		changed := false
		for _, name := range credentialParams {
			if q.Has(name) {
				q.Set(name, redacted)
				changed = true
			}
		}
		if changed {
			u.RawQuery = q.Encode()
		}
	}
	return u.Redacted()
}
