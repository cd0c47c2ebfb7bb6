package secrets

import (
	"errors"

	platformerrors "github.com/mieweb/a3t/errors"
)

// Chain is a composite provider that consults its members in order.
//
// Get returns the first value found; providers that report themselves
// unavailable are skipped, and a provider error moves on to the next member
// rather than failing the whole lookup. Set writes to the first member that
// accepts the write.
type Chain struct {
	providers []Provider
}

// NewChain creates a composite provider from the given members.
// Order is significant: earlier providers win.
func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

// Get implements Provider.
func (c *Chain) Get(key string) (string, bool, error) {
	var lastErr error
	for _, p := range c.providers {
		if !p.Available() {
			continue
		}
		value, ok, err := p.Get(key)
		if err != nil {
			lastErr = err
			continue
		}
		if ok {
			return value, true, nil
		}
	}
	return "", false, lastErr
}

// Set implements Provider. It attempts each available member in order until
// one accepts the write. Returns ErrReadOnly if no member is writable.
func (c *Chain) Set(key, value string) error {
	for _, p := range c.providers {
		if !p.Available() {
			continue
		}
		err := p.Set(key, value)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrReadOnly) {
			continue
		}
		return platformerrors.Wrap(err, platformerrors.CodeInternal, "failed to store secret")
	}
	return ErrReadOnly
}

// Available implements Provider. A chain is available if any member is.
func (c *Chain) Available() bool {
	for _, p := range c.providers {
		if p.Available() {
			return true
		}
	}
	return false
}
