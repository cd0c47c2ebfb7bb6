package gitfs

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	gitcache "github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/filesystem"

	platformerrors "github.com/mieweb/a3t/errors"
)

// ensure runs the repository state machine for the caller's scope and
// returns the working-copy path: clone when absent or invalid, fetch when
// stale, serve as-is when fresh.
func (b *Backend) ensure(ctx context.Context) (string, error) {
	dir := b.workdirFor(b.scopeID(ctx))
	if !insideRoot(b.cfg.CachePath, dir) {
		return "", platformerrors.Newf(platformerrors.CodeInternal, "working copy %q escapes cache root", dir)
	}

	st := b.scopeStateFor(dir)
	st.mu.Lock()
	defer st.mu.Unlock()

	return dir, b.ensureLocked(ctx, dir, st)
}

// ForceRefresh deletes the working copy for the caller's scope and clones
// it again from the remote.
func (b *Backend) ForceRefresh(ctx context.Context) error {
	dir := b.workdirFor(b.scopeID(ctx))
	if !insideRoot(b.cfg.CachePath, dir) {
		return platformerrors.Newf(platformerrors.CodeInternal, "working copy %q escapes cache root", dir)
	}

	st := b.scopeStateFor(dir)
	st.mu.Lock()
	defer st.mu.Unlock()

	b.log.Info("force refresh", "url", b.cfg.URL, "dir", dir)
	if err := b.removeAll(dir); err != nil {
		return wrapError(err, "failed to remove working copy")
	}
	st.lastFetch = time.Time{}

	return b.ensureLocked(ctx, dir, st)
}

// ensureLocked is the state machine body. The caller holds the scope lock.
func (b *Backend) ensureLocked(ctx context.Context, dir string, st *scopeState) error {
	repo, valid := b.openValid(dir)
	if !valid {
		// Absent or corrupt: re-clone rather than attempting repair.
		if err := b.removeAll(dir); err != nil {
			return wrapError(err, "failed to clear invalid working copy")
		}

		b.log.Info("cloning repository", "url", b.cfg.URL, "dir", dir)
		cloned, err := b.clone(ctx, dir)
		if err != nil {
			return err
		}
		if err := b.checkout(cloned); err != nil {
			return err
		}
		st.lastFetch = b.clock()
		return nil
	}

	if b.cfg.AutoFetch && b.clock().Sub(st.lastFetch) >= b.cfg.FetchInterval {
		b.log.Debug("fetching repository", "url", b.cfg.URL, "dir", dir)
		if err := b.fetch(ctx, repo); err != nil {
			// A failed refresh keeps serving the existing checkout; the
			// next read past the interval tries again.
			b.log.Warn("fetch failed, serving stale working copy", "url", b.cfg.URL, "err", err)
			return nil
		}
		st.lastFetch = b.clock()
		if err := b.checkout(repo); err != nil {
			return err
		}
	}

	return nil
}

// open opens the working copy at dir through the backing filesystem.
func (b *Backend) open(dir string) (*gogit.Repository, error) {
	wt, err := b.fs.Chroot(dir)
	if err != nil {
		return nil, wrapError(err, "failed to scope filesystem to working copy")
	}
	dotGit, err := wt.Chroot(gogit.GitDirName)
	if err != nil {
		return nil, wrapError(err, "failed to scope filesystem to metadata directory")
	}

	storage := filesystem.NewStorage(dotGit, gitcache.NewObjectLRUDefault())
	repo, err := gogit.Open(storage, wt)
	if err != nil {
		return nil, wrapError(err, "failed to open repository")
	}
	return repo, nil
}

// openValid reports whether dir holds a valid working copy: the metadata
// directory must exist and a status query against the repository must
// succeed. Any failure means invalid; the caller re-clones.
func (b *Backend) openValid(dir string) (*gogit.Repository, bool) {
	info, err := b.fs.Stat(filepath.Join(dir, gogit.GitDirName))
	if err != nil || !info.IsDir() {
		return nil, false
	}

	repo, err := b.open(dir)
	if err != nil {
		return nil, false
	}
	if _, err := repo.Head(); err != nil {
		return nil, false
	}
	return repo, true
}

// clone materializes the working copy from the remote. Branch and tag
// targets clone that reference directly; a commit target clones the default
// branch and relies on checkout for the pin.
func (b *Backend) clone(ctx context.Context, dir string) (*gogit.Repository, error) {
	if err := b.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, wrapError(err, "failed to create working copy directory")
	}
	wt, err := b.fs.Chroot(dir)
	if err != nil {
		return nil, wrapError(err, "failed to scope filesystem to working copy")
	}
	dotGit, err := wt.Chroot(gogit.GitDirName)
	if err != nil {
		return nil, wrapError(err, "failed to scope filesystem to metadata directory")
	}
	storage := filesystem.NewStorage(dotGit, gitcache.NewObjectLRUDefault())

	cloneOpts := &gogit.CloneOptions{
		URL:  b.cfg.URL,
		Auth: b.auth(),
	}
	if ref := b.cloneReference(); ref != "" {
		cloneOpts.ReferenceName = ref
		cloneOpts.SingleBranch = true
	}

	repo, err := gogit.CloneContext(ctx, storage, wt, cloneOpts)
	if err != nil {
		return nil, wrapError(err, "failed to clone repository")
	}
	return repo, nil
}

// cloneReference picks the reference to clone. A commit pin returns the
// empty reference: the default branch is cloned and checkout moves HEAD.
func (b *Backend) cloneReference() plumbing.ReferenceName {
	switch {
	case b.cfg.Commit != "":
		return ""
	case b.cfg.Tag != "":
		return plumbing.NewTagReferenceName(b.cfg.Tag)
	case b.cfg.Branch != "":
		return plumbing.NewBranchReferenceName(b.cfg.Branch)
	default:
		return ""
	}
}

// fetch downloads updates from the remote.
func (b *Backend) fetch(ctx context.Context, repo *gogit.Repository) error {
	err := repo.FetchContext(ctx, &gogit.FetchOptions{
		RemoteName: gogit.DefaultRemoteName,
		Auth:       b.auth(),
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return wrapError(err, "failed to fetch from remote")
	}
	return nil
}

// checkout moves the working tree to the configured target. Precedence is
// commit over tag over branch; with no target the clone's HEAD stands.
func (b *Backend) checkout(repo *gogit.Repository) error {
	target, err := b.checkoutHash(repo)
	if err != nil {
		return err
	}
	if target == nil {
		return nil
	}

	wt, err := repo.Worktree()
	if err != nil {
		return wrapError(err, "failed to get worktree")
	}
	if err := wt.Checkout(&gogit.CheckoutOptions{Hash: *target, Force: true}); err != nil {
		return wrapError(err, "failed to checkout target")
	}
	return nil
}

// checkoutHash resolves the configured target to a commit hash. Branch
// targets prefer the remote-tracking reference so an interval fetch moves
// the working tree forward.
func (b *Backend) checkoutHash(repo *gogit.Repository) (*plumbing.Hash, error) {
	switch {
	case b.cfg.Commit != "":
		hash := plumbing.NewHash(b.cfg.Commit)
		if hash.IsZero() {
			return nil, platformerrors.Newf(platformerrors.CodeInvalidConfig, "invalid commit %q", b.cfg.Commit)
		}
		return &hash, nil

	case b.cfg.Tag != "":
		hash, err := repo.ResolveRevision(plumbing.Revision(plumbing.NewTagReferenceName(b.cfg.Tag)))
		if err != nil {
			return nil, wrapError(err, "failed to resolve tag")
		}
		return hash, nil

	case b.cfg.Branch != "":
		remote := plumbing.NewRemoteReferenceName(gogit.DefaultRemoteName, b.cfg.Branch)
		if hash, err := repo.ResolveRevision(plumbing.Revision(remote)); err == nil {
			return hash, nil
		}
		hash, err := repo.ResolveRevision(plumbing.Revision(plumbing.NewBranchReferenceName(b.cfg.Branch)))
		if err != nil {
			return nil, wrapError(err, "failed to resolve branch")
		}
		return hash, nil

	default:
		return nil, nil
	}
}

// wrapError classifies a go-git error to a platform code and wraps it with
// context, preserving the chain for errors.Is.
func wrapError(err error, context string) error {
	if err == nil {
		return nil
	}
	return platformerrors.Wrap(err, classifyCode(err), context)
}

// classifyCode maps go-git errors to platform error codes. Unrecognized
// errors classify as network failures, the dominant failure mode for a
// remote-backed store.
func classifyCode(err error) platformerrors.ErrorCode {
	switch {
	case errors.Is(err, transport.ErrRepositoryNotFound),
		errors.Is(err, gogit.ErrRepositoryNotExists),
		errors.Is(err, plumbing.ErrReferenceNotFound),
		errors.Is(err, transport.ErrEmptyRemoteRepository):
		return platformerrors.CodeNotFound

	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed):
		return platformerrors.CodeUnauthorized

	case errors.Is(err, gogit.ErrRepositoryAlreadyExists):
		return platformerrors.CodeAlreadyExists

	default:
		return platformerrors.CodeNetwork
	}
}
