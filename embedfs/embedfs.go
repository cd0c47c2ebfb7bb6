// Package embedfs serves asset content from an io/fs tree, typically an
// embed.FS compiled into the binary.
//
// Keys are validated with fs.ValidPath before any read, so traversal
// attempts and malformed paths resolve to not-found.
package embedfs

import (
	"context"
	"io/fs"
	"path"
)

// Backend is an embedded-assets content backend.
type Backend struct {
	fsys fs.FS
	dir  string
}

// Option configures a Backend.
type Option func(*Backend)

// WithSubdir scopes reads to a subdirectory of the tree, the common shape
// for embed.FS directives that capture a top-level assets/ directory.
func WithSubdir(dir string) Option {
	return func(b *Backend) {
		b.dir = dir
	}
}

// New creates a content backend over the given filesystem.
func New(fsys fs.FS, opts ...Option) *Backend {
	b := &Backend{fsys: fsys}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ReadText returns the named asset as a string, or found=false when absent.
func (b *Backend) ReadText(ctx context.Context, key string) (string, bool, error) {
	data, ok, err := b.ReadBinary(ctx, key)
	return string(data), ok, err
}

// ReadBinary returns the named asset's raw bytes, or found=false when the
// key is invalid or the file is absent.
func (b *Backend) ReadBinary(_ context.Context, key string) ([]byte, bool, error) {
	// The key must be valid on its own: joining first would let ".."
	// segments cancel the subdir scope.
	if !fs.ValidPath(key) {
		return nil, false, nil
	}
	name := key
	if b.dir != "" {
		name = path.Join(b.dir, key)
	}
	if !fs.ValidPath(name) {
		return nil, false, nil
	}

	data, err := fs.ReadFile(b.fsys, name)
	if err != nil {
		return nil, false, nil
	}
	return data, true, nil
}
