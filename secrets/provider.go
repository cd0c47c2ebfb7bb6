package secrets

import (
	platformerrors "github.com/mieweb/a3t/errors"
)

// ErrReadOnly is returned by Set on providers that do not support writes.
// Composite chains use it to fall through to the next writable provider.
var ErrReadOnly = platformerrors.New(platformerrors.CodeNotImplemented, "secret provider is read-only")

// Provider is the contract for a single secret source.
//
// Get returns (value, true, nil) when the key is present and ("", false, nil)
// when it is not. An error indicates the provider itself failed, not that the
// key is absent.
type Provider interface {
	// Get looks up a secret by key.
	Get(key string) (string, bool, error)

	// Set stores a secret. Providers that do not support writes must return
	// ErrReadOnly so a composite chain can try the next provider.
	Set(key, value string) error

	// Available reports whether the provider can currently serve lookups.
	// Composite chains skip unavailable providers.
	Available() bool
}
