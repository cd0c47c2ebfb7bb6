package a3t

import (
	"context"
	"fmt"
	"sync"
)

// DefaultBuildHash is the placeholder build identifier used when no build
// hash has been configured.
const DefaultBuildHash = "unversioned"

// Context carries the dimensions that parameterize asset resolution.
//
// Context is a value type: Merge and Clone return new snapshots and never
// mutate the receiver. The empty string means "absent" for the optional
// string dimensions; absent dimensions are omitted from override queries.
type Context struct {
	Language  string `mapstructure:"language"`
	Workspace string `mapstructure:"workspace"`
	System    string `mapstructure:"system"`
	BuildHash string `mapstructure:"build_hash"`
	Nonce     int64  `mapstructure:"nonce"`

	// Extra holds caller-defined dimensions (e.g. "user") that do not
	// participate in the override hierarchy or the cache key but are
	// visible to backends for scoping decisions.
	Extra map[string]string `mapstructure:"extra"`
}

// DefaultContext returns the context a resolver starts from: no dimensions
// set, the placeholder build hash, and nonce zero.
func DefaultContext() Context {
	return Context{BuildHash: DefaultBuildHash}
}

// Clone returns a deep copy of the context.
func (c Context) Clone() Context {
	out := c
	if c.Extra != nil {
		out.Extra = make(map[string]string, len(c.Extra))
		for k, v := range c.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Merge returns a new context with the override's set fields layered over
// the receiver. String fields win when non-empty, Nonce wins when non-zero,
// and Extra entries are merged key by key with the override winning.
func (c Context) Merge(override Context) Context {
	out := c.Clone()

	if override.Language != "" {
		out.Language = override.Language
	}
	if override.Workspace != "" {
		out.Workspace = override.Workspace
	}
	if override.System != "" {
		out.System = override.System
	}
	if override.BuildHash != "" {
		out.BuildHash = override.BuildHash
	}
	if override.Nonce != 0 {
		out.Nonce = override.Nonce
	}
	if len(override.Extra) > 0 {
		if out.Extra == nil {
			out.Extra = make(map[string]string, len(override.Extra))
		}
		for k, v := range override.Extra {
			out.Extra[k] = v
		}
	}

	return out
}

// Field returns the named dimension. Recognized names are "language",
// "workspace" and "system"; anything else is looked up in Extra.
func (c Context) Field(name string) string {
	switch name {
	case "language":
		return c.Language
	case "workspace":
		return c.Workspace
	case "system":
		return c.System
	default:
		return c.Extra[name]
	}
}

// Queries derives the ordered override-query hierarchy for an asset key.
//
// The order is fixed by specificity and encodes "most specific wins":
//
//	{workspace, language, key}   when both workspace and language are set
//	{workspace, key}             when workspace is set
//	{language, key}              when language is set
//	{system, key}                when system is set
//	{key}                        always, as the global fallback
//
// Absent dimensions are omitted from the emitted queries.
func (c Context) Queries(key string) []Query {
	queries := make([]Query, 0, 5)

	if c.Workspace != "" && c.Language != "" {
		queries = append(queries, Query{Workspace: c.Workspace, Language: c.Language, Key: key})
	}
	if c.Workspace != "" {
		queries = append(queries, Query{Workspace: c.Workspace, Key: key})
	}
	if c.Language != "" {
		queries = append(queries, Query{Language: c.Language, Key: key})
	}
	if c.System != "" {
		queries = append(queries, Query{System: c.System, Key: key})
	}
	queries = append(queries, Query{Key: key})

	return queries
}

// CacheKey builds the canonical cache key for (key, context). Field order
// and presence are stable, so semantically identical contexts always
// serialize identically. Extra fields are deliberately excluded: only the
// dimensions that influence resolution participate.
func (c Context) CacheKey(key string) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%d", key, c.Language, c.Workspace, c.System, c.BuildHash, c.Nonce)
}

// Store holds the ambient resolution context for a resolver.
//
// All resolution accepts an explicit per-call context override; the Store
// only provides the ergonomic process-wide default. Mutations replace the
// snapshot wholesale so concurrent readers never observe a torn merge.
type Store struct {
	mu      sync.RWMutex
	current Context
}

// NewStore creates a context store seeded with the given initial context
// layered over the defaults.
func NewStore(initial Context) *Store {
	return &Store{current: DefaultContext().Merge(initial)}
}

// Set shallow-merges the partial context into the current snapshot.
// Later fields win.
func (s *Store) Set(partial Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = s.current.Merge(partial)
}

// Snapshot returns a defensive copy of the current context.
func (s *Store) Snapshot() Context {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current.Clone()
}

// advanceNonce increments the nonce by exactly one and returns the new
// value. Callers coordinate cache clearing; see Resolver.InvalidateAll.
func (s *Store) advanceNonce() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current.Nonce++
	return s.current.Nonce
}

// resolutionContextKey is the context.Context key under which the effective
// resolution context travels to backends.
type resolutionContextKey struct{}

// WithResolutionContext returns a context.Context carrying the effective
// resolution context. The resolver attaches it before every backend call so
// backends can make scoping decisions (e.g. per-workspace working copies)
// without reading ambient state.
func WithResolutionContext(ctx context.Context, rc Context) context.Context {
	return context.WithValue(ctx, resolutionContextKey{}, rc)
}

// ResolutionContextFrom extracts the effective resolution context attached
// by the resolver, if any.
func ResolutionContextFrom(ctx context.Context) (Context, bool) {
	rc, ok := ctx.Value(resolutionContextKey{}).(Context)
	return rc, ok
}
