package gitfs

import (
	"time"

	platformerrors "github.com/mieweb/a3t/errors"
)

// Scope kinds select the isolation axis for working copies.
const (
	ScopeWorkspace = "workspace"
	ScopeUser      = "user"
)

// DefaultScopeID is used when the current context carries no identifier for
// the configured scope kind.
const DefaultScopeID = "default"

// DefaultFetchInterval is the staleness threshold applied when the
// configuration does not set one.
const DefaultFetchInterval = 5 * time.Minute

// Credentials is the static credential source for a repository. Token takes
// precedence over the username/password pair. Secret-store lookups override
// any of the three fields.
type Credentials struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Token    string `mapstructure:"token"`
}

// Config describes a repository-backed content source.
type Config struct {
	// URL is the remote repository. Required.
	URL string `mapstructure:"url"`

	// Branch, Tag and Commit select the checkout target. Commit overrides
	// Tag, Tag overrides Branch; when none is set the remote's default
	// branch is used.
	Branch string `mapstructure:"branch"`
	Tag    string `mapstructure:"tag"`
	Commit string `mapstructure:"commit"`

	// Scope selects the working-copy isolation axis: "workspace" (default)
	// or "user".
	Scope string `mapstructure:"scope"`

	// CachePath is the root under which working copies are materialized.
	// Defaults to the platform user cache directory.
	CachePath string `mapstructure:"cache_path"`

	// Credentials is the static credential source, overridden field by
	// field from the secret store.
	Credentials Credentials `mapstructure:"credentials"`

	// AutoFetch enables interval-based refresh of existing working copies.
	AutoFetch bool `mapstructure:"auto_fetch"`

	// FetchInterval is the soft staleness threshold for AutoFetch.
	FetchInterval time.Duration `mapstructure:"fetch_interval"`
}

// Validate reports setup-time configuration errors.
func (c Config) Validate() error {
	if c.URL == "" {
		return platformerrors.New(platformerrors.CodeInvalidConfig, "git repository URL is required")
	}

	switch c.Scope {
	case "", ScopeWorkspace, ScopeUser:
	default:
		return platformerrors.Newf(platformerrors.CodeInvalidConfig, "unknown scope kind %q", c.Scope)
	}

	return nil
}

// scopeKind returns the effective scope kind.
func (c Config) scopeKind() string {
	if c.Scope == ScopeUser {
		return ScopeUser
	}
	return ScopeWorkspace
}
