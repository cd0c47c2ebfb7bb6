// Package secrets provides layered credential lookup for asset backends.
//
// A Provider answers string-keyed secret lookups. Providers can be composed
// into a Chain that consults each provider in order and returns the first
// value found, skipping providers that report themselves unavailable. A
// Registry maps provider names to instances and holds the default chain used
// when no provider is named explicitly.
//
// Two concrete providers are included: Env reads secrets from prefixed
// environment variables and Memory holds secrets in a mutex-guarded map.
//
// Example:
//
//	chain := secrets.NewChain(secrets.NewEnv(), secrets.NewMemory())
//	token, ok, err := chain.Get("github-com-org-repo.token")
package secrets
