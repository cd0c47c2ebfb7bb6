package secrets

import (
	"os"
	"strings"
)

// DefaultEnvPrefix is the environment variable prefix used by NewEnv.
const DefaultEnvPrefix = "A3T_SECRET_"

// Env reads secrets from environment variables.
//
// Lookup keys are normalized to environment variable form: characters outside
// [A-Za-z0-9] become underscores and the result is uppercased and prefixed.
// For example, with the default prefix the key "github-com-org-repo.token"
// resolves to A3T_SECRET_GITHUB_COM_ORG_REPO_TOKEN.
type Env struct {
	prefix string
}

// EnvOption configures an Env provider.
type EnvOption func(*Env)

// WithPrefix overrides the environment variable prefix.
func WithPrefix(prefix string) EnvOption {
	return func(e *Env) {
		e.prefix = prefix
	}
}

// NewEnv creates an environment-backed secret provider.
func NewEnv(opts ...EnvOption) *Env {
	e := &Env{prefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Get implements Provider.
func (e *Env) Get(key string) (string, bool, error) {
	value, ok := os.LookupEnv(e.envName(key))
	return value, ok, nil
}

// Set implements Provider. Environment providers are read-only.
func (e *Env) Set(_, _ string) error {
	return ErrReadOnly
}

// Available implements Provider. The process environment is always readable.
func (e *Env) Available() bool {
	return true
}

// envName converts a lookup key to its environment variable name.
func (e *Env) envName(key string) string {
	var b strings.Builder
	b.WriteString(e.prefix)
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - ('a' - 'A'))
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
