package common

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
)

// mediaKeyLength is the length of a hex encoded SHA-256 sum
const mediaKeyLength = 64

// GetAndValidateURLParam extracts, decodes, and validates a URL parameter from the request.
// The decoded value must not be empty and must not contain whitespace.
func GetAndValidateURLParam(r *http.Request, paramName string) (string, error) {
	decoded, err := url.PathUnescape(chi.URLParam(r, paramName))
	if err != nil {
		return "", fmt.Errorf("invalid URL encoding in %s", paramName)
	}

	if strings.TrimSpace(decoded) == "" {
		return "", fmt.Errorf("%s cannot be empty", paramName)
	}

	if strings.ContainsAny(decoded, " \t\n\r") {
		return "", fmt.Errorf("%s cannot contain whitespace", paramName)
	}

	return decoded, nil
}

// GetMediaKeyParam extracts a media key, a lowercase hex encoded SHA-256 sum, from the request
func GetMediaKeyParam(r *http.Request, paramName string) (string, error) {
	key, err := GetAndValidateURLParam(r, paramName)
	if err != nil {
		return "", err
	}

	if len(key) != mediaKeyLength || strings.ToLower(key) != key {
		return "", fmt.Errorf("%s must be %d lowercase hex characters", paramName, mediaKeyLength)
	}
	if _, err := hex.DecodeString(key); err != nil {
		return "", fmt.Errorf("%s must be %d lowercase hex characters", paramName, mediaKeyLength)
	}
	return key, nil
}
