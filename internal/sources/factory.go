package sources

import (
	"fmt"

	"github.com/stacklok/mosaic-wall/internal/config"
)

// SettingsFromConfig builds source settings from the remote configuration section
func SettingsFromConfig(cfg *config.RemoteConfig) Settings {
	return Settings{
		Endpoint:          cfg.Endpoint,
		APIKey:            cfg.APIKey,
		APISecret:         cfg.APISecret,
		UserID:            cfg.UserID,
		PageSize:          cfg.PageSize,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Timeout:           cfg.TimeoutDuration(),
		ManifestPath:      cfg.ManifestPath,
		Git: GitSettings{
			Repository: cfg.Git.Repository,
			Branch:     cfg.Git.Branch,
			Tag:        cfg.Git.Tag,
			Commit:     cfg.Git.Commit,
			Username:   cfg.Git.Username,
			Password:   cfg.Git.Password,
		},
	}
}

// NewSource creates the collection source selected by the remote configuration
func NewSource(cfg *config.RemoteConfig) (CollectionSource, error) {
	if cfg == nil {
		return nil, fmt.Errorf("remote configuration cannot be nil")
	}

	settings := SettingsFromConfig(cfg)
	switch cfg.Type {
	case config.SourceTypeAPI:
		return NewPhotoServiceSource(settings)
	case config.SourceTypeFile:
		return NewStaticSource(settings.ManifestPath, settings.Timeout)
	case config.SourceTypeGit:
		return NewGitSource(settings)
	default:
		return nil, fmt.Errorf("unsupported source type: %s", cfg.Type)
	}
}
