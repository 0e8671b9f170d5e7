// Package config provides configuration loading and management for the mosaic wall.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/mosaic-wall/internal/telemetry"
)

// EnvPrefix is the prefix for environment variables overriding configuration values
const EnvPrefix = "MOSAIC"

// ScheduleType selects how consecutive provider runs are spaced
type ScheduleType string

const (
	// ScheduleFixedRate starts runs scheduleDuration apart, measured from run start to run start
	ScheduleFixedRate ScheduleType = "FIXED_RATE"

	// ScheduleFixedDelay waits scheduleDuration between the end of one run and the start of the next
	ScheduleFixedDelay ScheduleType = "FIXED_DELAY"
)

const (
	// SourceTypeAPI fetches collections from a remote photo service
	SourceTypeAPI = "api"

	// SourceTypeFile reads collections from a local manifest file
	SourceTypeFile = "file"

	// SourceTypeGit reads collections from a manifest committed to a git repository
	SourceTypeGit = "git"
)

// DefaultServerAddress is where the HTTP status server listens when unset
const DefaultServerAddress = ":8080"

// ErrInvalidConfiguration is wrapped by every configuration validation failure
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
	env  bool
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// WithEnvOverrides applies MOSAIC_* environment variables on top of the file contents
func WithEnvOverrides() Option {
	return func(cfg *loaderConfig) error {
		cfg.env = true
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// DataDir is where the provider status file is written
	DataDir string `yaml:"dataDir,omitempty"`

	Provider  ProviderConfig    `yaml:"provider"`
	Mosaic    MosaicConfig      `yaml:"mosaic"`
	Remote    RemoteConfig      `yaml:"remote"`
	Engine    EngineConfig      `yaml:"engine"`
	Server    ServerConfig      `yaml:"server"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// ServerConfig configures the HTTP status server
type ServerConfig struct {
	// Address is the listen address, e.g. ":8080"
	Address string `yaml:"address"`
}

// ProviderConfig configures the scheduled collection provider
type ProviderConfig struct {
	// CacheSize is the maximum number of media items kept in the content cache
	CacheSize int `yaml:"cacheSize"`

	// PhotosetTitleFilters are literal title prefixes of collections to load. A filter
	// starting with "glob:" is a glob pattern matched against the whole title instead.
	// An empty list accepts every collection.
	PhotosetTitleFilters []string `yaml:"photosetTitleFilters,omitempty"`

	ScheduleType ScheduleType `yaml:"scheduleType"`

	// InitialDelay is the delay in seconds before the first run
	InitialDelay int64 `yaml:"initialDelay"`

	// ScheduleDuration is the rate of, or delay between, runs in seconds
	ScheduleDuration int64 `yaml:"scheduleDuration"`
}

// MosaicConfig configures the mosaic step
type MosaicConfig struct {
	LayoutX float64 `yaml:"layoutX"`
	LayoutY float64 `yaml:"layoutY"`
	// Width and Height of the mosaic panel; 0 means the canvas bounds are used
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`

	Columns int `yaml:"columns"`
	Rows    int `yaml:"rows"`

	// SkipWhenSkipped skips the step when the engine's skip token equals this value
	SkipWhenSkipped string `yaml:"skipWhenSkipped,omitempty"`

	// MinimumNumberOfImagesInCache gates the step; values <= 0 mean columns*rows + max(columns, rows)
	MinimumNumberOfImagesInCache int `yaml:"minimumNumberOfImagesInCache"`

	// NumberOfImagesToChooseFrom is the sample size; values <= 0 mean
	// ceil(NumberOfImagesToChooseFromExtension * columns * rows)
	NumberOfImagesToChooseFrom          int     `yaml:"numberOfImagesToChooseFrom"`
	NumberOfImagesToChooseFromExtension float64 `yaml:"numberOfImagesToChooseFromExtension"`

	PercentageForHighlightImage float64 `yaml:"percentageForHighlightImage"`

	// ResizeAndHighlightTransitionTime is in seconds
	ResizeAndHighlightTransitionTime float64 `yaml:"resizeAndHighlightTransitionTime"`

	NumberOfHighlights int `yaml:"numberOfHighlights"`

	// StepDuration is the nominal duration in seconds reported to the engine
	StepDuration float64 `yaml:"stepDuration"`
}

// RemoteConfig configures where collections come from
type RemoteConfig struct {
	// Type is one of "api", "file" or "git"
	Type string `yaml:"type"`

	// Endpoint is the base URL of the photo service REST API
	Endpoint string `yaml:"endpoint,omitempty"`

	APIKey    string `yaml:"apiKey,omitempty"`
	APISecret string `yaml:"apiSecret,omitempty"`
	UserID    string `yaml:"userId,omitempty"`

	// PageSize is the number of media references requested per page
	PageSize int `yaml:"pageSize,omitempty"`

	// RequestsPerSecond limits calls to the remote service; 0 disables limiting
	RequestsPerSecond float64 `yaml:"requestsPerSecond,omitempty"`

	// Timeout is a duration string such as "10s"
	Timeout string `yaml:"timeout,omitempty"`

	// ManifestPath is the manifest read when Type is "file", or its path inside the
	// repository when Type is "git"
	ManifestPath string `yaml:"manifestPath,omitempty"`

	Git GitConfig `yaml:"git,omitempty"`
}

// GitConfig selects the repository and revision holding the manifest
type GitConfig struct {
	Repository string `yaml:"repository"`

	// At most one of Branch, Tag and Commit may be set; none clones the default branch
	Branch string `yaml:"branch,omitempty"`
	Tag    string `yaml:"tag,omitempty"`
	Commit string `yaml:"commit,omitempty"`

	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// EngineConfig configures the step engine and the canvas it renders on
type EngineConfig struct {
	CanvasWidth  float64 `yaml:"canvasWidth"`
	CanvasHeight float64 `yaml:"canvasHeight"`

	// FrameRate is the number of animation frames per second
	FrameRate int `yaml:"frameRate"`

	// Backgrounds are cycled by the background switcher step
	Backgrounds []string `yaml:"backgrounds,omitempty"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	return &Config{
		DataDir: "./data",
		Provider: ProviderConfig{
			CacheSize:        100,
			ScheduleType:     ScheduleFixedRate,
			InitialDelay:     5,
			ScheduleDuration: 30 * 60,
		},
		Mosaic: MosaicConfig{
			Columns:                             6,
			Rows:                                5,
			MinimumNumberOfImagesInCache:        -1,
			NumberOfImagesToChooseFrom:          -1,
			NumberOfImagesToChooseFromExtension: 1.4,
			PercentageForHighlightImage:         0.8,
			ResizeAndHighlightTransitionTime:    2.5,
			NumberOfHighlights:                  3,
			StepDuration:                        40,
		},
		Remote: RemoteConfig{
			Type:              SourceTypeAPI,
			PageSize:          100,
			RequestsPerSecond: 1,
			Timeout:           "10s",
		},
		Engine: EngineConfig{
			CanvasWidth:  1920,
			CanvasHeight: 1080,
			FrameRate:    30,
		},
		Server: ServerConfig{
			Address: DefaultServerAddress,
		},
	}
}

// LoadConfig loads and parses configuration from a YAML file.
// Values absent from the file keep their defaults.
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if loaderCfg.env {
		config.applyEnvOverrides(newEnvViper())
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Parse decodes YAML on top of the defaults without validating the result
func Parse(data []byte) (*Config, error) {
	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return config, nil
}

// newEnvViper creates a Viper instance reading MOSAIC_* variables
func newEnvViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// applyEnvOverrides copies secrets and endpoints from the environment
func (c *Config) applyEnvOverrides(v *viper.Viper) {
	if s := v.GetString("remote.api_key"); s != "" {
		c.Remote.APIKey = s
	}
	if s := v.GetString("remote.api_secret"); s != "" {
		c.Remote.APISecret = s
	}
	if s := v.GetString("remote.user_id"); s != "" {
		c.Remote.UserID = s
	}
	if s := v.GetString("remote.endpoint"); s != "" {
		c.Remote.Endpoint = s
	}
	if s := v.GetString("remote.git_password"); s != "" {
		c.Remote.Git.Password = s
	}
	if s := v.GetString("server.address"); s != "" {
		c.Server.Address = s
	}
	if s := v.GetString("data_dir"); s != "" {
		c.DataDir = s
	}
}

// Validate performs validation on the configuration.
// Every returned error wraps ErrInvalidConfiguration.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config cannot be nil", ErrInvalidConfiguration)
	}

	errs := []error{
		c.Provider.Validate(),
		c.Mosaic.Validate(),
		c.Remote.validate(),
		c.Engine.validate(),
		c.Server.validate(),
	}
	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return nil
}

// Validate validates the provider configuration
func (p *ProviderConfig) Validate() error {
	var errs []error
	if p.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("provider: property 'cacheSize' must be larger than zero"))
	}
	switch p.ScheduleType {
	case ScheduleFixedRate, ScheduleFixedDelay:
	default:
		errs = append(errs, fmt.Errorf("provider: scheduleType must be %s or %s, got %q",
			ScheduleFixedRate, ScheduleFixedDelay, p.ScheduleType))
	}
	if p.InitialDelay < 0 {
		errs = append(errs, fmt.Errorf("provider: initialDelay must not be negative"))
	}
	if p.ScheduleDuration <= 0 {
		errs = append(errs, fmt.Errorf("provider: scheduleDuration must be larger than zero"))
	}
	return errors.Join(errs...)
}

// InitialDelayDuration returns the initial delay as a time.Duration
func (p *ProviderConfig) InitialDelayDuration() time.Duration {
	return time.Duration(p.InitialDelay) * time.Second
}

// ScheduleInterval returns the schedule duration as a time.Duration
func (p *ProviderConfig) ScheduleInterval() time.Duration {
	return time.Duration(p.ScheduleDuration) * time.Second
}

// Validate validates the mosaic configuration
func (m *MosaicConfig) Validate() error {
	var errs []error
	if m.Columns <= 0 || m.Rows <= 0 {
		errs = append(errs, fmt.Errorf("mosaic: columns and rows must be larger than zero, got %dx%d",
			m.Columns, m.Rows))
	}
	if m.NumberOfHighlights < 0 {
		errs = append(errs, fmt.Errorf("mosaic: numberOfHighlights must not be negative"))
	} else if m.Columns > 0 && m.Rows > 0 && m.NumberOfHighlights > m.Columns*m.Rows {
		errs = append(errs, fmt.Errorf("mosaic: numberOfHighlights (%d) exceeds the number of cells (%d)",
			m.NumberOfHighlights, m.Columns*m.Rows))
	}
	if m.NumberOfImagesToChooseFromExtension <= 0 {
		errs = append(errs, fmt.Errorf("mosaic: numberOfImagesToChooseFromExtension must be larger than zero"))
	}
	if m.PercentageForHighlightImage <= 0 || m.PercentageForHighlightImage > 1 {
		errs = append(errs, fmt.Errorf("mosaic: percentageForHighlightImage must be in (0, 1], got %v",
			m.PercentageForHighlightImage))
	}
	if m.ResizeAndHighlightTransitionTime < 0 {
		errs = append(errs, fmt.Errorf("mosaic: resizeAndHighlightTransitionTime must not be negative"))
	}
	if m.Width < 0 || m.Height < 0 {
		errs = append(errs, fmt.Errorf("mosaic: width and height must not be negative"))
	}
	return errors.Join(errs...)
}

// MinimumNumberOfImagesInCacheCalculated returns the configured minimum, or
// columns*rows + max(columns, rows) when none is configured
func (m *MosaicConfig) MinimumNumberOfImagesInCacheCalculated() int {
	if m.MinimumNumberOfImagesInCache > 0 {
		return m.MinimumNumberOfImagesInCache
	}
	return m.Columns*m.Rows + max(m.Columns, m.Rows)
}

// NumberOfImagesToChooseFromCalculated returns the configured sample size, or
// ceil(extension * columns * rows) when none is configured
func (m *MosaicConfig) NumberOfImagesToChooseFromCalculated() int {
	if m.NumberOfImagesToChooseFrom > 0 {
		return m.NumberOfImagesToChooseFrom
	}
	return int(math.Ceil(m.NumberOfImagesToChooseFromExtension * float64(m.Columns*m.Rows)))
}

// TransitionDuration returns the resize and highlight transition time
func (m *MosaicConfig) TransitionDuration() time.Duration {
	return secondsToDuration(m.ResizeAndHighlightTransitionTime)
}

// NominalStepDuration returns the configured nominal step duration
func (m *MosaicConfig) NominalStepDuration() time.Duration {
	return secondsToDuration(m.StepDuration)
}

func (r *RemoteConfig) validate() error {
	switch r.Type {
	case SourceTypeAPI:
		if r.Endpoint == "" {
			return fmt.Errorf("remote: endpoint is required for type %s", SourceTypeAPI)
		}
	case SourceTypeFile:
		if r.ManifestPath == "" {
			return fmt.Errorf("remote: manifestPath is required for type %s", SourceTypeFile)
		}
	case SourceTypeGit:
		if err := r.Git.validate(); err != nil {
			return err
		}
		if r.ManifestPath == "" {
			return fmt.Errorf("remote: manifestPath is required for type %s", SourceTypeGit)
		}
	default:
		return fmt.Errorf("remote: type must be one of %s, %s or %s, got %q",
			SourceTypeAPI, SourceTypeFile, SourceTypeGit, r.Type)
	}

	var errs []error
	if r.PageSize < 0 {
		errs = append(errs, fmt.Errorf("remote: pageSize must not be negative"))
	}
	if r.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("remote: requestsPerSecond must not be negative"))
	}
	if r.Timeout != "" {
		if _, err := time.ParseDuration(r.Timeout); err != nil {
			errs = append(errs, fmt.Errorf("remote: timeout must be a valid duration (e.g., '10s'): %w", err))
		}
	}
	return errors.Join(errs...)
}

func (g *GitConfig) validate() error {
	if g.Repository == "" {
		return fmt.Errorf("remote: git.repository is required for type %s", SourceTypeGit)
	}
	refs := 0
	for _, ref := range []string{g.Branch, g.Tag, g.Commit} {
		if ref != "" {
			refs++
		}
	}
	if refs > 1 {
		return fmt.Errorf("remote: only one of git.branch, git.tag or git.commit may be set")
	}
	return nil
}

// TimeoutDuration returns the parsed request timeout, or 0 when unset or invalid
func (r *RemoteConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(r.Timeout)
	if err != nil {
		return 0
	}
	return d
}

func (e *EngineConfig) validate() error {
	if e.CanvasWidth <= 0 || e.CanvasHeight <= 0 {
		return fmt.Errorf("engine: canvasWidth and canvasHeight must be larger than zero")
	}
	if e.FrameRate <= 0 {
		return fmt.Errorf("engine: frameRate must be larger than zero")
	}
	return nil
}

func (s *ServerConfig) validate() error {
	if strings.TrimSpace(s.Address) == "" {
		return fmt.Errorf("server: address is required")
	}
	return nil
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
