// Package a3t resolves logical asset keys to values by walking a layered
// override hierarchy: context-scoped store overrides, then a pluggable
// content backend, then a caller-supplied default.
//
// Resolution is parameterized by a Context (language, workspace, system,
// build hash, nonce, arbitrary extension fields). Each resolution derives an
// ordered list of override queries from the effective context, probes the
// asset-store backend with each query from most to least specific, falls
// back to the content backend, then to the default. The outcome, including
// an explicit not-found, is memoized forever under a canonical serialization
// of (key, context); incrementing the nonce is the only invalidation signal
// and clears everything at once.
//
// Basic usage:
//
//	resolver, err := a3t.New(a3t.Config{
//	    FS:      a3t.FSConfig{RootPath: "/srv/assets"},
//	    Context: a3t.Context{Language: "en", Workspace: "acme"},
//	})
//	if err != nil {
//	    return err
//	}
//
//	banner, ok := resolver.Resolve(ctx, "login_banner", a3t.WithDefault("Welcome"))
//
// Content backends are pluggable; see the localfs, gitfs, embedfs and httpfs
// packages for the provided implementations, and the store package for the
// asset-store side of the contract.
package a3t
