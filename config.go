package a3t

import (
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	platformerrors "github.com/mieweb/a3t/errors"
	"github.com/mieweb/a3t/gitfs"
)

// Config is the resolver configuration surface.
//
// Backends that need live objects (the asset-store backend and custom
// content backends) are injected programmatically; everything else can also
// be loaded from a file via LoadConfig.
type Config struct {
	DB      DBConfig      `mapstructure:"db"`
	FS      FSConfig      `mapstructure:"fs"`
	Context Context       `mapstructure:"context"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// DBConfig selects the asset-store backend that serves context-scoped
// overrides. A nil backend disables the override tier.
type DBConfig struct {
	Backend StoreBackend `mapstructure:"-"`
}

// FSConfig selects the content backend. Exactly one of the three fields may
// be set: RootPath builds a plain-tree backend, GitRepo builds the
// source-control backend, and Backend injects a custom implementation.
// Leaving all three empty disables the content tier.
type FSConfig struct {
	RootPath string         `mapstructure:"root_path"`
	GitRepo  *gitfs.Config  `mapstructure:"git_repo"`
	Backend  ContentBackend `mapstructure:"-"`
}

// LoggingConfig controls resolver logging. When disabled, the resolver and
// the backends it constructs stay silent.
type LoggingConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Validate checks the configuration for setup-time errors. Configuration
// problems fail fast here rather than surfacing during resolution.
func (c Config) Validate() error {
	set := 0
	if c.FS.RootPath != "" {
		set++
	}
	if c.FS.GitRepo != nil {
		set++
	}
	if c.FS.Backend != nil {
		set++
	}
	if set > 1 {
		return platformerrors.New(platformerrors.CodeInvalidConfig,
			"fs config is ambiguous: set only one of root_path, git_repo or a custom backend")
	}

	if c.FS.GitRepo != nil {
		if err := c.FS.GitRepo.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// LoadConfig reads a resolver configuration from a YAML, JSON or TOML file.
// Durations (e.g. the git fetch interval) accept Go duration strings such as
// "5m" or "30s".
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, platformerrors.Wrap(err, platformerrors.CodeInvalidConfig, "failed to read config file")
	}

	var cfg Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return Config{}, platformerrors.Wrap(err, platformerrors.CodeInvalidConfig, "failed to parse config file")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
