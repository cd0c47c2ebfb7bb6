package gitfs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "HTTPS URL",
			input:    "https://github.com/org/repo.git",
			expected: "https-github-com-org-repo-git",
		},
		{
			name:     "SSH URL",
			input:    "git@github.com:org/repo.git",
			expected: "git-github-com-org-repo-git",
		},
		{
			name:     "already safe",
			input:    "plain_name-1",
			expected: "plain_name-1",
		},
		{
			name:     "collapses runs of unsafe characters",
			input:    "a//??//b",
			expected: "a-b",
		},
		{
			name:     "trims leading and trailing separators",
			input:    "///repo///",
			expected: "repo",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestWorkdirFor_ScopeIsolation(t *testing.T) {
	b, err := New(Config{
		URL:       "https://github.com/org/repo.git",
		Scope:     ScopeUser,
		CachePath: "/cache",
	})
	require.NoError(t, err)

	alice := b.workdirFor("alice")
	bob := b.workdirFor("bob")

	assert.NotEqual(t, alice, bob)
	assert.Contains(t, alice, "alice")
	assert.Contains(t, bob, "bob")
	assert.Contains(t, alice, "/cache/user/")
}

func TestWorkdirFor_DefaultIdentifier(t *testing.T) {
	b, err := New(Config{
		URL:       "https://github.com/org/repo.git",
		CachePath: "/cache",
	})
	require.NoError(t, err)

	dir := b.workdirFor("")
	assert.Contains(t, dir, "/cache/workspace/default/")
}

func TestWorkdirFor_HostileIdentifierStaysInside(t *testing.T) {
	b, err := New(Config{
		URL:       "https://github.com/org/repo.git",
		CachePath: "/cache",
	})
	require.NoError(t, err)

	dir := b.workdirFor("../../etc")
	assert.True(t, insideRoot("/cache", dir), "derived path %q escaped the cache root", dir)
}

func TestInsideRoot(t *testing.T) {
	assert.True(t, insideRoot("/cache", "/cache/workspace/default/repo"))
	assert.True(t, insideRoot("/cache", "/cache"))
	assert.False(t, insideRoot("/cache", "/cachex/repo"))
	assert.False(t, insideRoot("/cache", "/etc/passwd"))
	assert.False(t, insideRoot("/cache", "/cache/../etc"))
}

func TestSecurePath(t *testing.T) {
	tests := []struct {
		name string
		key  string
		ok   bool
	}{
		{"plain key", "file.txt", true},
		{"nested key", "docs/guide.md", true},
		{"parent escape", "../outside.txt", false},
		{"deep escape", "../../etc/passwd", false},
		{"inner dots that stay inside", "docs/../file.txt", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := securePath("/cache/workspace/default/repo", tt.key)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestScopeIDFromContext(t *testing.T) {
	b, err := New(Config{
		URL:       "https://github.com/org/repo.git",
		CachePath: "/cache",
	}, WithScopeID(func(ctx context.Context) string {
		if v, ok := ctx.Value(testScopeKey{}).(string); ok {
			return v
		}
		return ""
	}))
	require.NoError(t, err)

	ctx := context.WithValue(context.Background(), testScopeKey{}, "acme")
	assert.Contains(t, b.workdirFor(b.scopeID(ctx)), "/cache/workspace/acme/")

	assert.Contains(t, b.workdirFor(b.scopeID(context.Background())), "/cache/workspace/default/")
}

type testScopeKey struct{}
