package gitfs

import (
	"context"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	gitcache "github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestRepo initializes a repository with a committed test.txt and
// docs/guide.md at dir and returns the opened repository.
func createTestRepo(t *testing.T, dir string) *gogit.Repository {
	t.Helper()

	fs := osfs.New(dir)
	dotGit, err := fs.Chroot(gogit.GitDirName)
	require.NoError(t, err)
	storage := filesystem.NewStorage(dotGit, gitcache.NewObjectLRUDefault())

	repo, err := gogit.Init(storage, fs)
	require.NoError(t, err)

	require.NoError(t, util.WriteFile(fs, "test.txt", []byte("hello world"), 0o644))
	require.NoError(t, util.WriteFile(fs, "docs/guide.md", []byte("# Guide"), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("test.txt")
	require.NoError(t, err)
	_, err = wt.Add("docs/guide.md")
	require.NoError(t, err)

	hash, err := wt.Commit("initial commit", &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test User",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)

	master := plumbing.NewHashReference(plumbing.NewBranchReferenceName("master"), hash)
	require.NoError(t, repo.Storer.SetReference(master))
	require.NoError(t, repo.Storer.SetReference(
		plumbing.NewSymbolicReference(plumbing.HEAD, master.Name())))

	return repo
}

// commitFile adds one more commit to a fixture repository.
func commitFile(t *testing.T, repo *gogit.Repository, dir, name, content string) plumbing.Hash {
	t.Helper()

	fs := osfs.New(dir)
	require.NoError(t, util.WriteFile(fs, name, []byte(content), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)

	hash, err := wt.Commit("add "+name, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test User",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)
	return hash
}

func newTestBackend(t *testing.T, cfg Config, opts ...Option) *Backend {
	t.Helper()
	if cfg.CachePath == "" {
		cfg.CachePath = t.TempDir()
	}
	b, err := New(cfg, opts...)
	require.NoError(t, err)
	return b
}

func TestBackend_ReadFromExistingWorkingCopy(t *testing.T) {
	b := newTestBackend(t, Config{URL: "https://example.com/org/repo.git"})
	createTestRepo(t, b.workdirFor(""))

	text, found, err := b.ReadText(context.Background(), "test.txt")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hello world", text)

	data, found, err := b.ReadBinary(context.Background(), "docs/guide.md")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("# Guide"), data)
}

func TestBackend_ReadMissingFile(t *testing.T) {
	b := newTestBackend(t, Config{URL: "https://example.com/org/repo.git"})
	createTestRepo(t, b.workdirFor(""))

	_, found, err := b.ReadText(context.Background(), "no-such-file.txt")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBackend_ReadTraversalRejected(t *testing.T) {
	b := newTestBackend(t, Config{URL: "https://example.com/org/repo.git"})
	createTestRepo(t, b.workdirFor(""))

	_, found, err := b.ReadText(context.Background(), "../../../etc/passwd")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBackend_UnavailableRemote(t *testing.T) {
	b := newTestBackend(t, Config{URL: "https://192.0.2.1/org/repo.git"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, found, err := b.ReadText(ctx, "test.txt")
	require.NoError(t, err, "sync failures must not surface as read errors")
	assert.False(t, found)
}

func TestBackend_CloneFromLocalRepository(t *testing.T) {
	remote := t.TempDir()
	createTestRepo(t, remote)

	b := newTestBackend(t, Config{URL: remote, Branch: "master"})

	text, found, err := b.ReadText(context.Background(), "test.txt")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hello world", text)

	// The working copy persists; a second read serves it without syncing.
	_, valid := b.openValid(b.workdirFor(""))
	assert.True(t, valid)
}

func TestBackend_PerScopeWorkingCopies(t *testing.T) {
	remote := t.TempDir()
	createTestRepo(t, remote)

	b := newTestBackend(t, Config{URL: remote, Branch: "master", Scope: ScopeUser},
		WithScopeID(func(ctx context.Context) string {
			v, _ := ctx.Value(testScopeKey{}).(string)
			return v
		}))

	alice := context.WithValue(context.Background(), testScopeKey{}, "alice")
	bob := context.WithValue(context.Background(), testScopeKey{}, "bob")

	_, found, err := b.ReadText(alice, "test.txt")
	require.NoError(t, err)
	require.True(t, found)

	_, found, err = b.ReadText(bob, "test.txt")
	require.NoError(t, err)
	require.True(t, found)

	_, aliceValid := b.openValid(b.workdirFor("alice"))
	_, bobValid := b.openValid(b.workdirFor("bob"))
	assert.True(t, aliceValid)
	assert.True(t, bobValid)
}

func TestBackend_RecloneInvalidWorkingCopy(t *testing.T) {
	remote := t.TempDir()
	createTestRepo(t, remote)

	b := newTestBackend(t, Config{URL: remote, Branch: "master"})

	// Something that is not a repository already occupies the derived path.
	dir := b.workdirFor("")
	fs := osfs.New(dir)
	require.NoError(t, util.WriteFile(fs, "garbage.txt", []byte("not a repo"), 0o644))

	text, found, err := b.ReadText(context.Background(), "test.txt")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hello world", text)

	_, found, err = b.ReadText(context.Background(), "garbage.txt")
	require.NoError(t, err)
	assert.False(t, found, "the invalid working copy must be replaced, not repaired")
}

func TestBackend_TagPinWinsOverBranch(t *testing.T) {
	remote := t.TempDir()
	repo := createTestRepo(t, remote)

	head, err := repo.Head()
	require.NoError(t, err)
	_, err = repo.CreateTag("v1.0.0", head.Hash(), nil)
	require.NoError(t, err)

	// The branch moves on past the tag.
	commitFile(t, repo, remote, "later.txt", "after the tag")

	b := newTestBackend(t, Config{URL: remote, Tag: "v1.0.0", Branch: "master"})
	ctx := context.Background()

	text, found, err := b.ReadText(ctx, "test.txt")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hello world", text)

	_, found, err = b.ReadText(ctx, "later.txt")
	require.NoError(t, err)
	assert.False(t, found, "the working tree must stay pinned at the tag")
}

func TestBackend_CommitPinWinsOverTagAndBranch(t *testing.T) {
	remote := t.TempDir()
	repo := createTestRepo(t, remote)

	head, err := repo.Head()
	require.NoError(t, err)
	pinned := head.Hash()

	tagged := commitFile(t, repo, remote, "tagged.txt", "at the tag")
	_, err = repo.CreateTag("v2.0.0", tagged, nil)
	require.NoError(t, err)
	commitFile(t, repo, remote, "tip.txt", "branch tip")

	b := newTestBackend(t, Config{
		URL:    remote,
		Commit: pinned.String(),
		Tag:    "v2.0.0",
		Branch: "master",
	})
	ctx := context.Background()

	text, found, err := b.ReadText(ctx, "test.txt")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hello world", text)

	for _, key := range []string{"tagged.txt", "tip.txt"} {
		_, found, err := b.ReadText(ctx, key)
		require.NoError(t, err)
		assert.False(t, found, "%s must not be present at the pinned commit", key)
	}
}

func TestBackend_MalformedCommitPin(t *testing.T) {
	remote := t.TempDir()
	createTestRepo(t, remote)

	b := newTestBackend(t, Config{URL: remote, Commit: "not-a-hash"})

	_, found, err := b.ReadText(context.Background(), "test.txt")
	require.NoError(t, err, "a bad pin degrades to not-found, never an error")
	assert.False(t, found)
}

func TestBackend_ForceRefresh(t *testing.T) {
	remote := t.TempDir()
	createTestRepo(t, remote)

	b := newTestBackend(t, Config{URL: remote, Branch: "master"})
	ctx := context.Background()

	_, found, err := b.ReadText(ctx, "test.txt")
	require.NoError(t, err)
	require.True(t, found)

	// Local mutation of the working copy.
	fs := osfs.New(b.workdirFor(""))
	require.NoError(t, util.WriteFile(fs, "test.txt", []byte("tampered"), 0o644))

	require.NoError(t, b.ForceRefresh(ctx))

	text, found, err := b.ReadText(ctx, "test.txt")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hello world", text)
}

func TestBackend_AutoFetchInterval(t *testing.T) {
	remote := t.TempDir()
	repo := createTestRepo(t, remote)

	now := time.Now()
	b := newTestBackend(t, Config{
		URL:           remote,
		Branch:        "master",
		AutoFetch:     true,
		FetchInterval: time.Minute,
	})
	b.clock = func() time.Time { return now }
	ctx := context.Background()

	_, found, err := b.ReadText(ctx, "test.txt")
	require.NoError(t, err)
	require.True(t, found)

	commitFile(t, repo, remote, "new.txt", "fresh content")

	// Inside the interval the working copy is served as-is.
	now = now.Add(30 * time.Second)
	_, found, err = b.ReadText(ctx, "new.txt")
	require.NoError(t, err)
	assert.False(t, found)

	// Past the interval the next read fetches and moves the checkout.
	now = now.Add(time.Minute)
	text, found, err := b.ReadText(ctx, "new.txt")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "fresh content", text)
}

func TestBackend_FetchFailureServesStale(t *testing.T) {
	remote := t.TempDir()
	createTestRepo(t, remote)

	now := time.Now()
	b := newTestBackend(t, Config{
		URL:           remote,
		Branch:        "master",
		AutoFetch:     true,
		FetchInterval: time.Minute,
	})
	b.clock = func() time.Time { return now }
	ctx := context.Background()

	_, found, err := b.ReadText(ctx, "test.txt")
	require.NoError(t, err)
	require.True(t, found)

	// The remote disappears; reads past the interval keep serving the
	// existing checkout.
	require.NoError(t, b.removeAll(remote))

	now = now.Add(2 * time.Minute)
	text, found, err := b.ReadText(ctx, "test.txt")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hello world", text)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid minimal", Config{URL: "https://example.com/repo.git"}, false},
		{"valid user scope", Config{URL: "https://example.com/repo.git", Scope: ScopeUser}, false},
		{"missing URL", Config{}, true},
		{"unknown scope", Config{URL: "https://example.com/repo.git", Scope: "tenant"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
