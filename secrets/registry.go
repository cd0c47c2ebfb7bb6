package secrets

import (
	"sync"

	platformerrors "github.com/mieweb/a3t/errors"
)

// Registry maps provider names to instances and holds the default chain used
// when a lookup does not name a provider explicitly.
//
// Registration validates capability, not concrete type: anything satisfying
// Provider can be registered under any name.
type Registry struct {
	mu           sync.RWMutex
	providers    map[string]Provider
	defaultChain *Chain
}

// NewRegistry creates a registry pre-populated with the "env" and "memory"
// providers and a default chain consulting env first, then memory.
func NewRegistry() *Registry {
	env := NewEnv()
	mem := NewMemory()

	return &Registry{
		providers: map[string]Provider{
			"env":    env,
			"memory": mem,
		},
		defaultChain: NewChain(env, mem),
	}
}

// Register adds or replaces a named provider.
// Returns CodeInvalidInput if the name is empty or the provider is nil.
func (r *Registry) Register(name string, provider Provider) error {
	if name == "" {
		return platformerrors.New(platformerrors.CodeInvalidInput, "provider name is required")
	}
	if provider == nil {
		return platformerrors.Newf(platformerrors.CodeInvalidInput, "provider %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[name] = provider
	return nil
}

// Provider returns the named provider.
func (r *Registry) Provider(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	return p, ok
}

// Default returns the default chain.
func (r *Registry) Default() *Chain {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.defaultChain
}

// SetDefault replaces the default chain.
// Returns CodeInvalidInput if the chain is nil.
func (r *Registry) SetDefault(chain *Chain) error {
	if chain == nil {
		return platformerrors.New(platformerrors.CodeInvalidInput, "default chain is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.defaultChain = chain
	return nil
}
