// Package localfs serves asset content from a plain directory tree.
//
// The backend reads through a billy.Filesystem, which keeps production reads
// on the local disk (osfs) and lets tests substitute an in-memory filesystem
// (memfs) without touching the contract. Every read is path-checked against
// the configured root; traversal attempts resolve to not-found, never to a
// distinguishable error.
package localfs

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// Backend is a plain-tree content backend.
type Backend struct {
	fs   billy.Filesystem
	root string
}

// Option configures a Backend.
type Option func(*Backend)

// WithFilesystem substitutes the filesystem used for reads. Intended for
// tests with memfs.
func WithFilesystem(fs billy.Filesystem) Option {
	return func(b *Backend) {
		b.fs = fs
	}
}

// New creates a content backend rooted at the given directory. The root is
// interpreted against the backing filesystem, which defaults to the local
// disk.
func New(root string, opts ...Option) *Backend {
	b := &Backend{
		fs:   osfs.New("/"),
		root: filepath.Clean(root),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ReadText returns the named asset as a string, or found=false when the file
// does not exist, escapes the root, or cannot be read.
func (b *Backend) ReadText(ctx context.Context, key string) (string, bool, error) {
	data, ok, err := b.ReadBinary(ctx, key)
	return string(data), ok, err
}

// ReadBinary returns the named asset's raw bytes, or found=false when the
// file does not exist, escapes the root, or cannot be read.
func (b *Backend) ReadBinary(_ context.Context, key string) ([]byte, bool, error) {
	path, ok := securePath(b.root, key)
	if !ok {
		return nil, false, nil
	}

	data, err := util.ReadFile(b.fs, path)
	if err != nil {
		// Missing files and I/O failures are both "not found" at this
		// contract boundary.
		return nil, false, nil
	}
	return data, true, nil
}

// securePath resolves key against root and verifies the result stays
// strictly inside it: the resolved path must equal the root or extend it
// past a path separator.
func securePath(root, key string) (string, bool) {
	resolved := filepath.Clean(filepath.Join(root, key))
	if resolved == root {
		return resolved, true
	}
	if strings.HasPrefix(resolved, root+string(filepath.Separator)) {
		return resolved, true
	}
	return "", false
}
