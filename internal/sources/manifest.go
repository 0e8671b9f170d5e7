package sources

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stacklok/mosaic-wall/internal/validators"
	"github.com/stacklok/mosaic-wall/internal/versions"
)

// Manifest is the YAML description of collections read by the file and git sources
type Manifest struct {
	// Version is the manifest format version, empty for the first format
	Version     string               `yaml:"version,omitempty"`
	Collections []ManifestCollection `yaml:"collections"`
}

// ManifestCollection is one collection of a manifest
type ManifestCollection struct {
	ID    string          `yaml:"id"`
	Title string          `yaml:"title"`
	Media []ManifestMedia `yaml:"media"`
}

// ManifestMedia is one photo of a manifest collection. Rendition values are either
// http(s) URLs or paths relative to the manifest.
type ManifestMedia struct {
	ID         string          `yaml:"id"`
	DateAdded  *time.Time      `yaml:"dateAdded,omitempty"`
	DatePosted *time.Time      `yaml:"datePosted,omitempty"`
	DateTaken  *time.Time      `yaml:"dateTaken,omitempty"`
	Renditions map[Size]string `yaml:"renditions"`
}

// parseManifest decodes and version checks a manifest; origin names it in errors
func parseManifest(data []byte, origin string) (*Manifest, error) {
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", origin, err)
	}
	if err := versions.CheckManifestVersion(manifest.Version); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", origin, err)
	}
	if err := manifest.validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", origin, err)
	}
	return &manifest, nil
}

// validate checks ids; collection ids must be unique, media ids only within their collection
func (m *Manifest) validate() error {
	seen := make(map[string]struct{}, len(m.Collections))
	for i := range m.Collections {
		c := &m.Collections[i]
		id, err := validators.ValidateIdentifier("collection", c.ID)
		if err != nil {
			return err
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate collection id %s", id)
		}
		seen[id] = struct{}{}
		c.ID = id

		media := make(map[string]struct{}, len(c.Media))
		for j := range c.Media {
			mid, err := validators.ValidateIdentifier("media", c.Media[j].ID)
			if err != nil {
				return fmt.Errorf("collection %s: %w", id, err)
			}
			if _, dup := media[mid]; dup {
				return fmt.Errorf("collection %s: duplicate media id %s", id, mid)
			}
			media[mid] = struct{}{}
			c.Media[j].ID = mid
		}
	}
	return nil
}

func (m *Manifest) collections() []Collection {
	collections := make([]Collection, 0, len(m.Collections))
	for _, c := range m.Collections {
		collections = append(collections, Collection{
			ID:         c.ID,
			Title:      c.Title,
			MediaCount: len(c.Media),
		})
	}
	return collections
}

// mediaRefs returns the media of collectionID with every local locator passed through resolve
func (m *Manifest) mediaRefs(collectionID string, resolve func(string) string) ([]MediaRef, bool) {
	for _, c := range m.Collections {
		if c.ID != collectionID {
			continue
		}
		refs := make([]MediaRef, 0, len(c.Media))
		for _, media := range c.Media {
			renditions := make(map[Size]string, len(media.Renditions))
			for size, locator := range media.Renditions {
				if locator == "" || isRemote(locator) {
					renditions[size] = locator
					continue
				}
				renditions[size] = resolve(locator)
			}
			refs = append(refs, MediaRef{
				ID:           media.ID,
				CollectionID: c.ID,
				DateAdded:    media.DateAdded,
				DatePosted:   media.DatePosted,
				DateTaken:    media.DateTaken,
				Renditions:   renditions,
			})
		}
		return refs, true
	}
	return nil, false
}

func isRemote(locator string) bool {
	return strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://")
}
