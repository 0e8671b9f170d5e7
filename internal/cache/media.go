package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	// decoders for the formats served by photo services
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"slices"
	"time"
)

// Attributes holds the metadata of a media item. Keys are iterated in sorted order.
type Attributes map[string]string

// Keys returns the attribute keys in ascending order
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// MediaItem is a decoded, displayable image together with its metadata
type MediaItem struct {
	// Locator is the unique URL the payload was fetched from
	Locator string `json:"locator"`

	// Payload holds the raw encoded image bytes
	Payload []byte `json:"-"`

	// PostedAt is when the image was published by its owner
	PostedAt time.Time `json:"postedAt"`

	Attributes Attributes `json:"attributes"`

	// Width and Height are the intrinsic image dimensions in pixels
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Key returns the stable identifier used to address the item over HTTP
func (m *MediaItem) Key() string {
	return MediaKey(m.Locator)
}

// MediaKey returns the hex encoded SHA-256 of a locator
func MediaKey(locator string) string {
	sum := sha256.Sum256([]byte(locator))
	return hex.EncodeToString(sum[:])
}

// decodeDimensions reads the image header to fill in Width and Height
func (m *MediaItem) decodeDimensions() error {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(m.Payload))
	if err != nil {
		return fmt.Errorf("failed to decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("%s image has invalid dimensions %dx%d", format, cfg.Width, cfg.Height)
	}
	m.Width = cfg.Width
	m.Height = cfg.Height
	return nil
}
