package gitfs

import (
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// resolveCredentials assembles the effective credential set: static
// configuration first, overridden field by field from the secret store.
// Secret keys are "<sanitizedURL>.username", ".password" and ".token".
func (b *Backend) resolveCredentials() Credentials {
	creds := b.cfg.Credentials
	prefix := sanitizeName(b.cfg.URL)

	for _, field := range []struct {
		suffix string
		target *string
	}{
		{"username", &creds.Username},
		{"password", &creds.Password},
		{"token", &creds.Token},
	} {
		value, ok, err := b.secrets.Get(prefix + "." + field.suffix)
		if err != nil {
			b.log.Debug("secret lookup failed", "url", b.cfg.URL, "field", field.suffix, "err", err)
			continue
		}
		if ok {
			*field.target = value
		}
	}

	return creds
}

// auth converts the effective credential set to a transport auth method.
// A token authenticates as HTTP basic auth with the token as username, the
// convention personal access tokens use; nil means anonymous access.
func (b *Backend) auth() transport.AuthMethod {
	creds := b.resolveCredentials()

	if creds.Token != "" {
		return &githttp.BasicAuth{Username: creds.Token}
	}
	if creds.Username != "" {
		return &githttp.BasicAuth{
			Username: creds.Username,
			Password: creds.Password,
		}
	}
	return nil
}
