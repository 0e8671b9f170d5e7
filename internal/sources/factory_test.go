package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/mosaic-wall/internal/config"
)

func TestNewSource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		cfg           *config.RemoteConfig
		expectedType  any
		errorContains string
	}{
		{
			name:         "api source type",
			cfg:          &config.RemoteConfig{Type: config.SourceTypeAPI, Endpoint: "https://api.example.com/services/rest"},
			expectedType: &PhotoServiceSource{},
		},
		{
			name:         "file source type",
			cfg:          &config.RemoteConfig{Type: config.SourceTypeFile, ManifestPath: "photos.yaml"},
			expectedType: &StaticSource{},
		},
		{
			name: "git source type",
			cfg: &config.RemoteConfig{
				Type:         config.SourceTypeGit,
				ManifestPath: "photos.yaml",
				Git:          config.GitConfig{Repository: "https://github.com/example/photos.git"},
			},
			expectedType: &GitSource{},
		},
		{
			name:          "git source without repository",
			cfg:           &config.RemoteConfig{Type: config.SourceTypeGit, ManifestPath: "photos.yaml"},
			errorContains: "repository cannot be empty",
		},
		{
			name:          "api source without endpoint",
			cfg:           &config.RemoteConfig{Type: config.SourceTypeAPI},
			errorContains: "endpoint cannot be empty",
		},
		{
			name:          "unsupported source type",
			cfg:           &config.RemoteConfig{Type: "s3"},
			errorContains: "unsupported source type",
		},
		{
			name:          "nil configuration",
			errorContains: "cannot be nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src, err := NewSource(tt.cfg)
			if tt.errorContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.expectedType, src)
		})
	}
}

func TestSettingsFromConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Default().Remote
	cfg.Endpoint = "https://api.example.com"
	cfg.APIKey = "key"
	cfg.UserID = "user"

	settings := SettingsFromConfig(&cfg)
	assert.Equal(t, "https://api.example.com", settings.Endpoint)
	assert.Equal(t, "key", settings.APIKey)
	assert.Equal(t, "user", settings.UserID)
	assert.Equal(t, 100, settings.PageSize)
	assert.InDelta(t, 1.0, settings.RequestsPerSecond, 1e-9)
	assert.Equal(t, "10s", settings.Timeout.String())
}

func TestSettingsFromConfig_Git(t *testing.T) {
	t.Parallel()

	cfg := config.RemoteConfig{
		Type:         config.SourceTypeGit,
		ManifestPath: "photos.yaml",
		Git: config.GitConfig{
			Repository: "https://github.com/example/photos.git",
			Commit:     "0123456789abcdef0123456789abcdef01234567",
			Username:   "bot",
			Password:   "token",
		},
	}

	settings := SettingsFromConfig(&cfg)
	assert.Equal(t, "photos.yaml", settings.ManifestPath)
	assert.Equal(t, GitSettings{
		Repository: "https://github.com/example/photos.git",
		Commit:     "0123456789abcdef0123456789abcdef01234567",
		Username:   "bot",
		Password:   "token",
	}, settings.Git)
}
