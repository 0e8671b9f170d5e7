package sources

import (
	"context"
	"time"
)

// Size names one rendition of a photo
type Size string

const (
	// SizeLarge is the largest rendition offered for display
	SizeLarge Size = "large"
	// SizeMedium is the medium rendition
	SizeMedium Size = "medium"
	// SizeSmall is the small rendition
	SizeSmall Size = "small"
)

// RenditionPreference lists the sizes in the order they are tried when choosing a locator
var RenditionPreference = []Size{SizeLarge, SizeMedium, SizeSmall}

// Collection is a titled album of media
type Collection struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`

	// MediaCount is the number of media the source reports for the collection
	MediaCount int `json:"mediaCount" yaml:"-"`
}

// MediaRef describes one photo of a collection without its payload
type MediaRef struct {
	ID           string
	CollectionID string

	DateAdded  *time.Time
	DatePosted *time.Time
	DateTaken  *time.Time

	// Renditions maps each available size to the locator its payload is fetched from
	Renditions map[Size]string
}

// PreferredRendition returns the locator of the largest available rendition
func (r *MediaRef) PreferredRendition() (string, bool) {
	for _, size := range RenditionPreference {
		if locator := r.Renditions[size]; locator != "" {
			return locator, true
		}
	}
	return "", false
}

//go:generate mockgen -destination=mocks/mock_source.go -package=mocks -source=types.go CollectionSource

// CollectionSource is an interface with methods to read collections and media from a photo source
type CollectionSource interface {
	// ListCollections returns every collection the configured account exposes
	ListCollections(ctx context.Context) ([]Collection, error)

	// ListMedia returns the media references of one collection
	ListMedia(ctx context.Context, collection Collection) ([]MediaRef, error)

	// FetchMedia downloads the payload stored at locator
	FetchMedia(ctx context.Context, locator string) ([]byte, error)
}

// Settings holds the connection parameters of a source. It is built from the
// remote configuration section and injected into the source.
type Settings struct {
	Endpoint  string
	APIKey    string
	APISecret string
	UserID    string

	// PageSize is the number of entries requested per listing page
	PageSize int

	// RequestsPerSecond limits calls to the API; 0 disables limiting
	RequestsPerSecond float64

	Timeout time.Duration

	// ManifestPath is the manifest read by StaticSource, or its path inside the
	// repository for GitSource
	ManifestPath string

	// Git selects the repository read by GitSource
	Git GitSettings
}

// GitSettings identifies a repository revision and its credentials
type GitSettings struct {
	Repository string
	Branch     string
	Tag        string
	Commit     string
	Username   string
	Password   string
}
