package a3t

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/mieweb/a3t/gitfs"
	"github.com/mieweb/a3t/localfs"
	"github.com/mieweb/a3t/secrets"
)

// Resolver orchestrates the context store, the forever cache, the override
// hierarchy and the content backend. All Resolve variants share one
// guarantee: they never return an error and never panic; a resolution that
// cannot find a value degrades to the caller's default or to (zero, false).
type Resolver struct {
	cfg     Config
	store   *Store
	cache   *memoCache
	db      StoreBackend
	content ContentBackend
	secrets secrets.Provider
	log     *log.Logger
}

// Option configures a Resolver beyond its Config.
type Option func(*Resolver)

// WithLogger overrides the logger built from Config.Logging.
func WithLogger(logger *log.Logger) Option {
	return func(r *Resolver) {
		r.log = logger
	}
}

// WithSecrets sets the secret provider handed to backends that authenticate
// against remotes. Defaults to the standard env-then-memory chain.
func WithSecrets(provider secrets.Provider) Option {
	return func(r *Resolver) {
		r.secrets = provider
	}
}

// New creates a Resolver from the given configuration. Configuration errors
// (for example a git_repo section without a URL) fail here, never during
// resolution.
func New(cfg Config, opts ...Option) (*Resolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Resolver{
		cfg:     cfg,
		store:   NewStore(cfg.Context),
		cache:   newMemoCache(),
		db:      cfg.DB.Backend,
		content: cfg.FS.Backend,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.log == nil {
		r.log = newLogger(cfg.Logging.Enabled)
	}
	if r.secrets == nil {
		r.secrets = secrets.NewRegistry().Default()
	}

	if r.content == nil {
		switch {
		case cfg.FS.GitRepo != nil:
			backend, err := gitfs.New(*cfg.FS.GitRepo,
				gitfs.WithLogger(r.log),
				gitfs.WithSecrets(r.secrets),
				gitfs.WithScopeID(r.gitScopeID(cfg.FS.GitRepo.Scope)),
			)
			if err != nil {
				return nil, err
			}
			r.content = backend
		case cfg.FS.RootPath != "":
			r.content = localfs.New(cfg.FS.RootPath)
		}
	}

	return r, nil
}

// newLogger builds the default logger for the configured verbosity.
func newLogger(enabled bool) *log.Logger {
	if !enabled {
		return log.New(io.Discard)
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
		Prefix:          "a3t",
	})
}

// gitScopeID builds the scope-identifier callback for the source-control
// backend: the effective context's workspace for workspace scoping, its
// "user" extension field for user scoping.
func (r *Resolver) gitScopeID(kind string) func(context.Context) string {
	return func(ctx context.Context) string {
		rc, ok := ResolutionContextFrom(ctx)
		if !ok {
			rc = r.store.Snapshot()
		}
		if kind == gitfs.ScopeUser {
			return rc.Field("user")
		}
		return rc.Workspace
	}
}

// SetContext shallow-merges the partial context into the resolver's ambient
// context. Callers that need isolation should pass per-call overrides via
// WithContextOverride instead of mutating ambient state.
func (r *Resolver) SetContext(partial Context) {
	r.store.Set(partial)
}

// Context returns a defensive copy of the resolver's ambient context.
func (r *Resolver) Context() Context {
	return r.store.Snapshot()
}

// InvalidateAll increments the nonce by exactly one and clears the
// memoization cache in the same critical section, so no resolution observes
// the new nonce alongside stale entries. It returns the new nonce.
func (r *Resolver) InvalidateAll() int64 {
	return r.cache.reset(r.store.advanceNonce)
}

// CacheStats reports the memoization cache contents.
func (r *Resolver) CacheStats() CacheStats {
	return r.cache.stats()
}

// ResolveOption configures a single resolution.
type ResolveOption func(*resolveOptions)

type resolveOptions struct {
	def      []byte
	hasDef   bool
	defaults map[string]string
	override *Context
}

// WithDefault supplies the fallback value used when no backend resolves the
// key. The default is evaluated per call: a cached not-found still honors
// each caller's own default.
func WithDefault(value string) ResolveOption {
	return func(o *resolveOptions) {
		o.def = []byte(value)
		o.hasDef = true
	}
}

// WithDefaultBytes is WithDefault for binary resolutions.
func WithDefaultBytes(value []byte) ResolveOption {
	return func(o *resolveOptions) {
		o.def = value
		o.hasDef = true
	}
}

// WithContextOverride layers a per-call context over the ambient context for
// this resolution only. Overridden fields win field by field; the ambient
// context is not modified.
func WithContextOverride(override Context) ResolveOption {
	return func(o *resolveOptions) {
		c := override.Clone()
		o.override = &c
	}
}

// WithDefaults supplies per-key fallback values for ResolveAll. Keys missing
// from the map get no default.
func WithDefaults(defaults map[string]string) ResolveOption {
	return func(o *resolveOptions) {
		o.defaults = defaults
	}
}

// Resolve resolves an asset key to its text value. The second return is
// false only when nothing resolved the key and no default was supplied.
func (r *Resolver) Resolve(ctx context.Context, key string, opts ...ResolveOption) (string, bool) {
	options := applyResolveOptions(opts)
	value, ok := r.resolve(ctx, key, false, options)
	return string(value), ok
}

// ResolveBytes resolves an asset key to its binary value.
func (r *Resolver) ResolveBytes(ctx context.Context, key string, opts ...ResolveOption) ([]byte, bool) {
	options := applyResolveOptions(opts)
	return r.resolve(ctx, key, true, options)
}

// ResolveAll resolves the given keys concurrently and collects the found
// values into a key-to-value map. Keys that resolve to not-found are left
// out. No key's resolution can affect a sibling's: Resolve never fails.
func (r *Resolver) ResolveAll(ctx context.Context, keys []string, opts ...ResolveOption) map[string]string {
	options := applyResolveOptions(opts)

	var mu sync.Mutex
	results := make(map[string]string, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	for _, key := range keys {
		g.Go(func() error {
			perKey := options
			perKey.defaults = nil
			if def, ok := options.defaults[key]; ok {
				perKey.def = []byte(def)
				perKey.hasDef = true
			}

			if value, ok := r.resolve(gctx, key, false, perKey); ok {
				mu.Lock()
				results[key] = string(value)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait() // resolutions never return errors

	return results
}

func applyResolveOptions(opts []ResolveOption) resolveOptions {
	var options resolveOptions
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// outcomeState is the internal resolution outcome, kept distinct from the
// public value-or-absent boundary so failures stay inspectable.
type outcomeState int

const (
	outcomeNotFound outcomeState = iota
	outcomeFound
	outcomeFailed
)

type outcome struct {
	state outcomeState
	value []byte
}

// resolve is the resolution engine. It consults the cache first, walks the
// override hierarchy and the content backend on a miss, and commits exactly
// one cache entry per distinct (key, context) pair.
func (r *Resolver) resolve(ctx context.Context, key string, binary bool, opts resolveOptions) ([]byte, bool) {
	effective := r.store.Snapshot()
	if opts.override != nil {
		effective = effective.Merge(*opts.override)
	}

	cacheKey := effective.CacheKey(key)
	if entry, ok := r.cache.get(cacheKey); ok {
		if entry.found {
			return entry.value, true
		}
		// The not-found outcome is memoized; the default is the caller's
		// and is applied fresh on every call.
		if opts.hasDef {
			return opts.def, true
		}
		return nil, false
	}

	out := r.probe(ctx, key, binary, effective)
	if out.state == outcomeFound {
		r.cache.set(cacheKey, cacheEntry{found: true, value: out.value})
		return out.value, true
	}

	// Both not-found and degraded failures commit a not-found entry, so the
	// cached shape matches what later calls will see.
	r.cache.set(cacheKey, cacheEntry{found: false})
	if opts.hasDef {
		return opts.def, true
	}
	return nil, false
}

// probe walks the tiers in order: override queries from most to least
// specific, then the content backend. Probing is strictly sequential and
// short-circuits on the first hit.
func (r *Resolver) probe(ctx context.Context, key string, binary bool, effective Context) outcome {
	bctx := WithResolutionContext(ctx, effective)

	if r.db != nil {
		for _, query := range effective.Queries(key) {
			value, ok := r.probeQuery(bctx, query)
			if ok {
				r.log.Debug("override hit",
					"key", key, "workspace", query.Workspace,
					"language", query.Language, "system", query.System)
				return outcome{state: outcomeFound, value: []byte(value)}
			}
		}
	}

	if r.content != nil {
		return r.readContent(bctx, key, binary)
	}

	return outcome{state: outcomeNotFound}
}

// probeQuery runs a single override query. Failures, including panics, are
// swallowed and treated as "no result for this query" so one bad override
// tier cannot block less specific tiers.
func (r *Resolver) probeQuery(ctx context.Context, query Query) (value string, ok bool) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Warn("override query panicked", "key", query.Key, "panic", p)
			value, ok = "", false
		}
	}()

	value, ok, err := r.db.FindOverride(ctx, query)
	if err != nil {
		r.log.Debug("override query failed", "key", query.Key, "err", err)
		return "", false
	}
	return value, ok
}

// readContent delegates to the content backend. Errors and panics degrade to
// a failed outcome; asset resolution never crashes a caller.
func (r *Resolver) readContent(ctx context.Context, key string, binary bool) (out outcome) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Warn("content backend panicked", "key", key, "panic", p)
			out = outcome{state: outcomeFailed}
		}
	}()

	if binary {
		data, ok, err := r.content.ReadBinary(ctx, key)
		if err != nil {
			r.log.Warn("content read failed", "key", key, "err", err)
			return outcome{state: outcomeFailed}
		}
		if !ok {
			return outcome{state: outcomeNotFound}
		}
		return outcome{state: outcomeFound, value: data}
	}

	text, ok, err := r.content.ReadText(ctx, key)
	if err != nil {
		r.log.Warn("content read failed", "key", key, "err", err)
		return outcome{state: outcomeFailed}
	}
	if !ok {
		return outcome{state: outcomeNotFound}
	}
	return outcome{state: outcomeFound, value: []byte(text)}
}
