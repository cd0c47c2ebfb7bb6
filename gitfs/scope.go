package gitfs

import (
	"path/filepath"
	"strings"
)

// sanitizeName reduces an arbitrary string to a filesystem-safe path
// component: characters outside [A-Za-z0-9_-] become dashes, runs of dashes
// collapse to one, and leading/trailing dashes are trimmed.
func sanitizeName(s string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range s {
		safe := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '_' || r == '-'
		if safe {
			b.WriteRune(r)
			lastDash = r == '-'
			continue
		}
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// workdir derives the working-copy path for a scope identifier:
// cacheRoot/scopeKind/scopeID/sanitizedRepoName. Both the identifier and the
// repository name pass through sanitizeName, which guarantees per-tenant
// isolation without any further namespacing.
func (b *Backend) workdirFor(scopeID string) string {
	id := sanitizeName(scopeID)
	if id == "" {
		id = DefaultScopeID
	}
	repo := sanitizeName(b.cfg.URL)
	if repo == "" {
		repo = "repository"
	}
	return filepath.Join(b.cfg.CachePath, b.cfg.scopeKind(), id, repo)
}

// insideRoot verifies that path stays strictly inside root; the working
// copy must never materialize outside the cache root.
func insideRoot(root, path string) bool {
	root = filepath.Clean(root)
	path = filepath.Clean(path)
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}

// securePath resolves key against the working-copy root and verifies the
// result stays inside it. Violations report not-ok, indistinguishable from
// a missing file at the read boundary.
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
