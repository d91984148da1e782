package stage

import (
	"context"
	"errors"
	"os"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

const (
	checkoutSourceStage  = "checkout-source"
	checkoutReleaseStage = "checkout-release"
)

var errTagNotFound = errors.New("tag not found")

// tagCommitHash resolves a tag name to its commit, peeling annotated
// tag objects.
func tagCommitHash(repo *git.Repository, tag string) (plumbing.Hash, error) {
	ref, err := repo.Reference(plumbing.NewTagReferenceName(tag), true)
	if err != nil {
		return plumbing.ZeroHash, errTagNotFound
	}
	if tagObj, err := repo.TagObject(ref.Hash()); err == nil {
		commit, err := tagObj.Commit()
		if err != nil {
			return plumbing.ZeroHash, err
		}
		return commit.Hash, nil
	}
	return ref.Hash(), nil
}

// cloneAtTag clones the repository into dir and checks out the tag's
// commit. The clone is a read-only snapshot; nothing is written back.
func cloneAtTag(ctx context.Context, repoURL, tag, dir string) (plumbing.Hash, error) {
	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:        repoURL,
		NoCheckout: true,
		Tags:       git.AllTags,
	})
	if err != nil {
		return plumbing.ZeroHash, err
	}
	hash, err := tagCommitHash(repo, tag)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: hash, Force: true}); err != nil {
		return plumbing.ZeroHash, err
	}
	return hash, nil
}

// dirtyWorktree reports whether the worktree differs from HEAD. Build
// outputs and the version bump make a dirty tree the normal case at
// publish time; it is recorded, never a blocker.
func dirtyWorktree(dir string) bool {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return false
	}
	wt, err := repo.Worktree()
	if err != nil {
		return false
	}
	st, err := wt.Status()
	if err != nil {
		return false
	}
	return !st.IsClean()
}

func checkoutWorkdir(ctx context.Context, in Envelope, stageName, prefix string) (string, plumbing.Hash, error) {
	if in.Meta == nil || in.Meta.Project == nil || in.Meta.Project.Repo == "" {
		return "", plumbing.ZeroHash, failf(stageName, KindCheckout, "project repo not configured")
	}
	if in.Tag == "" {
		return "", plumbing.ZeroHash, failf(stageName, KindCheckout, "missing tag")
	}
	dir, err := os.MkdirTemp("", prefix)
	if err != nil {
		return "", plumbing.ZeroHash, failf(stageName, KindCheckout, "workdir: %v", err)
	}
	hash, err := cloneAtTag(ctx, in.Meta.Project.Repo, in.Tag, dir)
	if err != nil {
		_ = os.RemoveAll(dir)
		return "", plumbing.ZeroHash, failf(stageName, KindCheckout, "checkout %s: %v", in.Tag, err)
	}
	return dir, hash, nil
}

func checkoutSourceRunner(ctx context.Context, in Envelope, _ Deps) (Envelope, error) {
	dir, hash, err := checkoutWorkdir(ctx, in, checkoutSourceStage, "khepri-publish-")
	if err != nil {
		return Envelope{}, err
	}
	out := in
	out.Publish = &PublishResult{Workdir: dir, Commit: hash.String()}
	return out, nil
}

// checkoutReleaseRunner acquires a fresh snapshot for the release
// node; only the tag string and the publish success signal cross the
// node boundary.
func checkoutReleaseRunner(ctx context.Context, in Envelope, _ Deps) (Envelope, error) {
	dir, _, err := checkoutWorkdir(ctx, in, checkoutReleaseStage, "khepri-release-")
	if err != nil {
		return Envelope{}, err
	}
	out := in
	out.Release = &ReleaseResult{Workdir: dir}
	return out, nil
}

func init() {
	Register(checkoutSourceStage, checkoutSourceRunner)
	Register(checkoutReleaseStage, checkoutReleaseRunner)
}
