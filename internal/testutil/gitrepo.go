// Package testutil builds throwaway git repositories for stage tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func signature(when time.Time) *object.Signature {
	return &object.Signature{Name: "Test", Email: "test@example.com", When: when}
}

// InitRepo initializes a non-bare repository in dir.
func InitRepo(t *testing.T, dir string) *git.Repository {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init repo: %v", err)
	}
	return repo
}

// Commit writes file content and commits it with a fixed signature at
// the given time, so tag ordering in tests is deterministic.
func Commit(t *testing.T, repo *git.Repository, dir, file, content, msg string, when time.Time) plumbing.Hash {
	t.Helper()
	path := filepath.Join(dir, file)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", file, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	if _, err := wt.Add(file); err != nil {
		t.Fatalf("add %s: %v", file, err)
	}
	hash, err := wt.Commit(msg, &git.CommitOptions{Author: signature(when), Committer: signature(when)})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	return hash
}

// Tag creates a lightweight tag at the given commit.
func Tag(t *testing.T, repo *git.Repository, name string, hash plumbing.Hash) {
	t.Helper()
	if _, err := repo.CreateTag(name, hash, nil); err != nil {
		t.Fatalf("tag %s: %v", name, err)
	}
}

// AnnotatedTag creates an annotated tag object at the given commit.
func AnnotatedTag(t *testing.T, repo *git.Repository, name string, hash plumbing.Hash, when time.Time) {
	t.Helper()
	opts := &git.CreateTagOptions{Message: name, Tagger: signature(when)}
	if _, err := repo.CreateTag(name, hash, opts); err != nil {
		t.Fatalf("annotated tag %s: %v", name, err)
	}
}
