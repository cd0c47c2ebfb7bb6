// Package gitfs serves asset content from a working copy of a remote Git
// repository.
//
// The backend materializes one working copy per cache scope (per workspace
// or per user) under a cache root, refreshes it from the remote when the
// configured interval has elapsed, and serves path-checked reads from the
// checked-out tree. Checkout precedence is commit over tag over branch.
// Credentials come from static configuration overridden by a layered secret
// store, keyed by a sanitized form of the repository URL.
//
// All repository work goes through go-git against a billy.Filesystem, so
// tests can run entirely in memory or inside a temporary directory.
//
// Read semantics follow the content-backend contract: a missing file, an
// invalid working copy, a failed sync and a path-traversal attempt all
// resolve to not-found. The resolver above never sees a distinguishable
// error from this package's reads.
package gitfs
