package sources

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/stacklok/mosaic-wall/internal/git"
	"github.com/stacklok/mosaic-wall/internal/httpclient"
)

// GitSource serves collections described by a manifest committed to a git repository.
// Every ListCollections call clones the configured revision again, so commits pushed
// to a branch are picked up by the next provider run. The manifest is only parsed
// again when HEAD moved.
type GitSource struct {
	cloneConfig  *git.CloneConfig
	manifestPath string
	gitClient    git.Client
	mediaClient  httpclient.Client

	mu       sync.Mutex
	repo     *git.RepositoryInfo
	manifest *Manifest
}

var _ CollectionSource = (*GitSource)(nil)

// GitSourceOption configures a GitSource
type GitSourceOption func(*GitSource)

// WithGitClient replaces the go-git backed client
func WithGitClient(client git.Client) GitSourceOption {
	return func(s *GitSource) {
		s.gitClient = client
	}
}

// NewGitSource creates a source reading settings.ManifestPath from settings.Git.Repository
func NewGitSource(settings Settings, opts ...GitSourceOption) (*GitSource, error) {
	if settings.Git.Repository == "" {
		return nil, fmt.Errorf("git repository cannot be empty")
	}
	manifestPath := cleanRepoPath(settings.ManifestPath)
	if manifestPath == "" {
		return nil, fmt.Errorf("manifest path cannot be empty")
	}

	cloneConfig := &git.CloneConfig{
		URL:    settings.Git.Repository,
		Branch: settings.Git.Branch,
		Tag:    settings.Git.Tag,
		Commit: settings.Git.Commit,
	}
	if settings.Git.Username != "" {
		cloneConfig.Auth = &git.AuthConfig{
			Username: settings.Git.Username,
			Password: settings.Git.Password,
		}
	}

	s := &GitSource{
		cloneConfig:  cloneConfig,
		manifestPath: manifestPath,
		gitClient:    git.NewClient(),
		mediaClient:  httpclient.NewDefaultClient(settings.Timeout, httpclient.WithAccept("image/*")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ListCollections clones the repository and returns the collections of its manifest
func (s *GitSource) ListCollections(ctx context.Context) ([]Collection, error) {
	repo, err := s.gitClient.Clone(ctx, s.cloneConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to clone %s: %w", s.cloneConfig.URL, err)
	}

	s.mu.Lock()
	current, manifest := s.repo, s.manifest
	s.mu.Unlock()

	if current != nil && manifest != nil && current.Commit == repo.Commit {
		s.cleanup(ctx, repo)
		slog.Debug("Git manifest unchanged", "repository", s.cloneConfig.URL, "commit", repo.Commit)
		return manifest.collections(), nil
	}

	data, err := s.gitClient.ReadFile(repo, s.manifestPath)
	if err != nil {
		s.cleanup(ctx, repo)
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	origin := fmt.Sprintf("%s@%s:%s", s.cloneConfig.URL, shortCommit(repo.Commit), s.manifestPath)
	manifest, err = parseManifest(data, origin)
	if err != nil {
		s.cleanup(ctx, repo)
		return nil, err
	}

	s.mu.Lock()
	previous := s.repo
	s.repo = repo
	s.manifest = manifest
	s.mu.Unlock()

	if previous != nil {
		s.cleanup(ctx, previous)
	}

	slog.Debug("Git manifest loaded",
		"repository", s.cloneConfig.URL,
		"branch", repo.Branch,
		"commit", repo.Commit,
		"collections", len(manifest.Collections))
	return manifest.collections(), nil
}

// ListMedia returns the media of one collection of the last cloned manifest
func (s *GitSource) ListMedia(_ context.Context, collection Collection) ([]MediaRef, error) {
	s.mu.Lock()
	manifest := s.manifest
	s.mu.Unlock()

	if manifest == nil {
		return nil, fmt.Errorf("manifest not loaded, list collections first")
	}
	if refs, ok := manifest.mediaRefs(collection.ID, s.resolve); ok {
		return refs, nil
	}
	return nil, fmt.Errorf("collection %s not found in manifest %s", collection.ID, s.manifestPath)
}

// FetchMedia downloads remote locators and reads repository paths from the clone
func (s *GitSource) FetchMedia(ctx context.Context, locator string) ([]byte, error) {
	if isRemote(locator) {
		return s.mediaClient.Get(ctx, locator)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.repo == nil {
		return nil, fmt.Errorf("repository not cloned, list collections first")
	}
	return s.gitClient.ReadFile(s.repo, locator)
}

// Close releases the in-memory clone
func (s *GitSource) Close(ctx context.Context) {
	s.mu.Lock()
	repo := s.repo
	s.repo = nil
	s.manifest = nil
	s.mu.Unlock()

	if repo != nil {
		s.cleanup(ctx, repo)
	}
}

func (s *GitSource) cleanup(ctx context.Context, repo *git.RepositoryInfo) {
	if err := s.gitClient.Cleanup(ctx, repo); err != nil {
		slog.Warn("Failed to clean up git clone", "repository", s.cloneConfig.URL, "error", err)
	}
}

// resolve turns manifest-relative paths into repository paths
func (s *GitSource) resolve(locator string) string {
	if strings.HasPrefix(locator, "/") {
		return cleanRepoPath(locator)
	}
	return cleanRepoPath(path.Join(path.Dir(s.manifestPath), locator))
}

func cleanRepoPath(p string) string {
	if p == "" {
		return ""
	}
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

func shortCommit(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
