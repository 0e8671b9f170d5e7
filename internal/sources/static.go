package sources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/stacklok/mosaic-wall/internal/httpclient"
)

// StaticSource serves collections described by a YAML manifest
type StaticSource struct {
	path        string
	mediaClient httpclient.Client
}

var _ CollectionSource = (*StaticSource)(nil)

// NewStaticSource creates a source reading the manifest at path. The manifest is
// re-read on every listing so edits are picked up by the next refresh.
func NewStaticSource(path string, timeout time.Duration) (*StaticSource, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest path cannot be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manifest path: %w", err)
	}
	return &StaticSource{
		path:        abs,
		mediaClient: httpclient.NewDefaultClient(timeout, httpclient.WithAccept("image/*")),
	}, nil
}

// ListCollections returns the collections of the manifest
func (s *StaticSource) ListCollections(_ context.Context) ([]Collection, error) {
	manifest, err := s.readManifest()
	if err != nil {
		return nil, err
	}
	return manifest.collections(), nil
}

// ListMedia returns the media of one manifest collection
func (s *StaticSource) ListMedia(_ context.Context, collection Collection) ([]MediaRef, error) {
	manifest, err := s.readManifest()
	if err != nil {
		return nil, err
	}

	if refs, ok := manifest.mediaRefs(collection.ID, s.resolve); ok {
		return refs, nil
	}
	return nil, fmt.Errorf("collection %s not found in manifest %s", collection.ID, s.path)
}

// FetchMedia downloads remote locators and reads local ones from disk
func (s *StaticSource) FetchMedia(ctx context.Context, locator string) ([]byte, error) {
	if isRemote(locator) {
		return s.mediaClient.Get(ctx, locator)
	}

	//nolint:gosec // locators come from the operator supplied manifest
	data, err := os.ReadFile(locator)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", locator)
		}
		return nil, fmt.Errorf("failed to read file %s: %w", locator, err)
	}
	return data, nil
}

func (s *StaticSource) readManifest() (*Manifest, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("manifest not found: %s", s.path)
		}
		return nil, fmt.Errorf("failed to read manifest %s: %w", s.path, err)
	}

	return parseManifest(data, s.path)
}

// resolve turns manifest-relative file paths into absolute ones
func (s *StaticSource) resolve(locator string) string {
	if filepath.IsAbs(locator) {
		return locator
	}
	return filepath.Join(filepath.Dir(s.path), locator)
}
