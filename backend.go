package a3t

import "context"

// Query is a partial projection of the resolution context paired with an
// asset key. Empty fields are absent: a backend must match only the fields
// that are set.
type Query struct {
	Workspace string
	Language  string
	System    string
	Key       string
}

// StoreBackend is the asset-store side of the resolution contract: a source
// of context-scoped overrides, typically database-backed.
//
// FindOverride returns (value, true, nil) for a match and ("", false, nil)
// for no match. The resolver treats a returned error as "no result for this
// query" and continues with the next, less specific query.
type StoreBackend interface {
	FindOverride(ctx context.Context, query Query) (string, bool, error)
}

// ContentBackend serves asset content by key, the tier below store
// overrides.
//
// Implementations return (value, true, nil) on success and (zero, false,
// nil) when the key does not exist. "Not found" is never an error;
// implementations are also expected to collapse their internal I/O failures
// to not-found rather than surfacing them, and the resolver treats any error
// it does receive the same way.
type ContentBackend interface {
	ReadText(ctx context.Context, key string) (string, bool, error)
	ReadBinary(ctx context.Context, key string) ([]byte, bool, error)
}
