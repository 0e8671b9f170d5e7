// Package git clones repositories into memory and reads files from them. It backs
// the git collection source, which reads a photo manifest committed to a repository.
package git

import (
	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
)

// CloneConfig contains configuration for cloning a repository
type CloneConfig struct {
	// URL is the repository URL to clone
	URL string

	// Branch is the specific branch to clone (optional)
	Branch string

	// Tag is the specific tag to clone (optional)
	Tag string

	// Commit is the specific commit to clone (optional)
	Commit string

	// Auth holds HTTP basic credentials (optional)
	Auth *AuthConfig
}

// AuthConfig holds HTTP basic authentication credentials
type AuthConfig struct {
	Username string
	Password string
}

// RepositoryInfo contains information about a cloned repository
type RepositoryInfo struct {
	// Repository is the go-git repository instance
	Repository *git.Repository

	// Branch is the current branch name
	Branch string

	// RemoteURL is the remote repository URL
	RemoteURL string

	// Commit is the hash HEAD resolved to after the clone
	Commit string

	// storerFilesystem is the in-memory object database. go-git never releases it,
	// so Cleanup clears it explicitly.
	storerFilesystem billy.Filesystem

	// objectCache holds decompressed objects and is cleared by Cleanup
	objectCache cache.Object
}
