package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// DefaultMaxFileSize bounds a single file read out of a clone. Photos above it are
// better served from a remote locator.
const DefaultMaxFileSize = 20 * 1024 * 1024

// ErrFileTooLarge is returned by ReadFile for blobs above the configured limit
var ErrFileTooLarge = errors.New("file exceeds the maximum readable size")

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client

// Client clones repositories into memory and reads files from the checked out revision
type Client interface {
	// Clone clones the revision selected by config
	Clone(ctx context.Context, config *CloneConfig) (*RepositoryInfo, error)

	// ReadFile returns the bytes of path at the cloned revision
	ReadFile(repoInfo *RepositoryInfo, path string) ([]byte, error)

	// Cleanup releases the memory held by a clone
	Cleanup(ctx context.Context, repoInfo *RepositoryInfo) error
}

// ClientOption configures the go-git backed client
type ClientOption func(*memoryClient)

// WithMaxFileSize sets the largest blob ReadFile will return
func WithMaxFileSize(n int64) ClientOption {
	return func(c *memoryClient) {
		c.maxFileSize = n
	}
}

// WithCloneLimits caps the files and bytes a single clone may write
func WithCloneLimits(maxFiles, totalSize int64) ClientOption {
	return func(c *memoryClient) {
		c.maxFiles = maxFiles
		c.totalSize = totalSize
	}
}

type memoryClient struct {
	maxFileSize int64
	maxFiles    int64
	totalSize   int64
}

// NewClient returns a Client that keeps clones entirely in memory
func NewClient(opts ...ClientOption) Client {
	c := &memoryClient{
		maxFileSize: DefaultMaxFileSize,
		maxFiles:    DefaultMaxFiles,
		totalSize:   DefaultTotalFileSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *memoryClient) limited() billy.Filesystem {
	return &LimitedFs{Filesystem: memfs.New(), MaxFiles: c.maxFiles, TotalFileSize: c.totalSize}
}

// Clone clones config.URL. Branch and tag clones are shallow; commit clones fetch
// the full history and check the commit out afterwards.
func (c *memoryClient) Clone(ctx context.Context, config *CloneConfig) (*RepositoryInfo, error) {
	if config == nil || config.URL == "" {
		return nil, fmt.Errorf("clone URL cannot be empty")
	}

	objects := c.limited()
	objectCache := cache.NewObjectLRUDefault()
	repo, err := git.CloneContext(ctx, filesystem.NewStorage(objects, objectCache), c.limited(), cloneOptions(config))
	if err != nil {
		return nil, fmt.Errorf("failed to clone repository: %w", err)
	}

	if config.Commit != "" {
		wt, err := repo.Worktree()
		if err != nil {
			return nil, fmt.Errorf("failed to get worktree: %w", err)
		}
		if err := wt.Checkout(&git.CheckoutOptions{Hash: plumbing.NewHash(config.Commit)}); err != nil {
			return nil, fmt.Errorf("failed to checkout commit %s: %w", config.Commit, err)
		}
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	info := &RepositoryInfo{
		Repository:       repo,
		RemoteURL:        config.URL,
		Commit:           head.Hash().String(),
		storerFilesystem: objects,
		objectCache:      objectCache,
	}
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}
	return info, nil
}

func cloneOptions(config *CloneConfig) *git.CloneOptions {
	opts := &git.CloneOptions{URL: config.URL}
	if config.Auth != nil && config.Auth.Username != "" {
		opts.Auth = &githttp.BasicAuth{Username: config.Auth.Username, Password: config.Auth.Password}
		slog.Debug("Cloning with HTTP basic auth", "url", config.URL, "username", config.Auth.Username)
	}
	if config.Commit != "" {
		return opts
	}

	opts.Depth = 1
	switch {
	case config.Branch != "":
		opts.ReferenceName = plumbing.NewBranchReferenceName(config.Branch)
		opts.SingleBranch = true
	case config.Tag != "":
		opts.ReferenceName = plumbing.NewTagReferenceName(config.Tag)
		opts.SingleBranch = true
	}
	return opts
}

// ReadFile reads path from the HEAD tree of the clone. Content is returned as stored,
// so binary blobs such as images survive unchanged.
func (c *memoryClient) ReadFile(repoInfo *RepositoryInfo, path string) ([]byte, error) {
	if repoInfo == nil || repoInfo.Repository == nil {
		return nil, fmt.Errorf("repository is nil")
	}

	head, err := repoInfo.Repository.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	commit, err := repoInfo.Repository.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to load commit %s: %w", head.Hash(), err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load tree: %w", err)
	}
	file, err := tree.File(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s: %w", path, err)
	}
	if c.maxFileSize > 0 && file.Size > c.maxFileSize {
		return nil, fmt.Errorf("%s is %d bytes: %w", path, file.Size, ErrFileTooLarge)
	}

	r, err := file.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// Cleanup empties the in-memory filesystems of a clone and drops its references.
// go-git keeps both alive for as long as the repository value is reachable.
func (*memoryClient) Cleanup(_ context.Context, repoInfo *RepositoryInfo) error {
	if repoInfo == nil || repoInfo.Repository == nil {
		return fmt.Errorf("repository is nil")
	}

	if repoInfo.objectCache != nil {
		repoInfo.objectCache.Clear()
	}
	if wt, err := repoInfo.Repository.Worktree(); err == nil && wt.Filesystem != nil {
		_ = util.RemoveAll(wt.Filesystem, "/")
	}
	if repoInfo.storerFilesystem != nil {
		_ = util.RemoveAll(repoInfo.storerFilesystem, "/")
	}
	slog.Debug("Released clone", "url", repoInfo.RemoteURL, "commit", repoInfo.Commit)

	repoInfo.objectCache = nil
	repoInfo.storerFilesystem = nil
	repoInfo.Repository = nil

	runtime.GC()
	return nil
}
