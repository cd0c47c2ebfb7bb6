package gitfs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/mieweb/a3t/secrets"
)

// Backend serves asset content from per-scope working copies of a remote
// repository.
type Backend struct {
	cfg     Config
	fs      billy.Filesystem
	secrets secrets.Provider
	scopeID func(context.Context) string
	log     *log.Logger
	clock   func() time.Time

	mu     sync.Mutex
	scopes map[string]*scopeState
}

// scopeState tracks per-working-copy sync metadata. Its mutex serializes
// ensureRepository for one derived path, so concurrent first reads for the
// same never-yet-cloned scope cannot race into duplicate clones.
type scopeState struct {
	mu        sync.Mutex
	lastFetch time.Time
}

// Option configures a Backend.
type Option func(*Backend)

// WithFilesystem substitutes the filesystem holding the cache tree.
// Intended for tests.
func WithFilesystem(fs billy.Filesystem) Option {
	return func(b *Backend) {
		b.fs = fs
	}
}

// WithSecrets sets the secret provider consulted for repository
// credentials. Defaults to the standard env-then-memory chain.
func WithSecrets(provider secrets.Provider) Option {
	return func(b *Backend) {
		b.secrets = provider
	}
}

// WithScopeID sets the callback that extracts the scope identifier from the
// caller's context. Without it, every read lands in the default scope.
func WithScopeID(fn func(context.Context) string) Option {
	return func(b *Backend) {
		b.scopeID = fn
	}
}

// WithLogger sets the backend logger. Defaults to a silent logger.
func WithLogger(logger *log.Logger) Option {
	return func(b *Backend) {
		b.log = logger
	}
}

// New creates a repository-backed content backend.
// Configuration errors fail here, never during reads.
func New(cfg Config, opts ...Option) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.FetchInterval <= 0 {
		cfg.FetchInterval = DefaultFetchInterval
	}
	if cfg.CachePath == "" {
		cfg.CachePath = defaultCacheRoot()
	}
	cfg.CachePath = filepath.Clean(cfg.CachePath)

	b := &Backend{
		cfg:    cfg,
		fs:     osfs.New("/"),
		clock:  time.Now,
		scopes: make(map[string]*scopeState),
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.secrets == nil {
		b.secrets = secrets.NewRegistry().Default()
	}
	if b.scopeID == nil {
		b.scopeID = func(context.Context) string { return "" }
	}
	if b.log == nil {
		b.log = log.New(io.Discard)
	}

	return b, nil
}

// defaultCacheRoot picks the cache root when none is configured.
func defaultCacheRoot() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "a3t", "git")
	}
	return filepath.Join(os.TempDir(), "a3t", "git")
}

// ReadText returns the named asset from the working copy as a string, or
// found=false when it cannot be served.
func (b *Backend) ReadText(ctx context.Context, key string) (string, bool, error) {
	data, ok, err := b.ReadBinary(ctx, key)
	return string(data), ok, err
}

// ReadBinary returns the named asset's raw bytes. The read triggers the
// repository-ensure state machine as a side effect; a failed sync, a
// missing file and a path-traversal attempt all report found=false.
func (b *Backend) ReadBinary(ctx context.Context, key string) ([]byte, bool, error) {
	dir, err := b.ensure(ctx)
	if err != nil {
		b.log.Warn("repository unavailable", "url", b.cfg.URL, "err", err)
		return nil, false, nil
	}

	path, ok := securePath(dir, key)
	if !ok {
		return nil, false, nil
	}

	data, err := util.ReadFile(b.fs, path)
	if err != nil {
		return nil, false, nil
	}
	return data, true, nil
}

// scopeStateFor returns the sync metadata for one working-copy path,
// creating it on first use.
func (b *Backend) scopeStateFor(dir string) *scopeState {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.scopes[dir]
	if !ok {
		st = &scopeState{}
		b.scopes[dir] = st
	}
	return st
}

// removeAll removes a path and all its children through the billy
// filesystem.
func (b *Backend) removeAll(path string) error {
	info, err := b.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if !info.IsDir() {
		return b.fs.Remove(path)
	}

	entries, err := b.fs.ReadDir(path)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := b.removeAll(filepath.Join(path, entry.Name())); err != nil {
			return err
		}
	}

	return b.fs.Remove(path)
}
