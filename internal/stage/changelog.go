package stage

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

const generateChangelogStage = "generate-changelog"

var errNoPreviousTag = errors.New("no previous tag")

type tagEntry struct {
	name string
	when time.Time
}

// previousTagFor finds the tag released immediately before the given
// one. Tags are ordered by commit time then name; no semantic-version
// parsing is involved, so double tags on one commit stay deterministic.
func previousTagFor(repo *git.Repository, tag string) (string, error) {
	iter, err := repo.Tags()
	if err != nil {
		return "", err
	}
	entries := []tagEntry{}
	iterErr := iter.ForEach(func(ref *plumbing.Reference) error {
		hash, err := tagCommitHash(repo, ref.Name().Short())
		if err != nil {
			return err
		}
		commit, err := repo.CommitObject(hash)
		if err != nil {
			return err
		}
		entries = append(entries, tagEntry{name: ref.Name().Short(), when: commit.Committer.When})
		return nil
	})
	if iterErr != nil {
		return "", iterErr
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].when.Equal(entries[j].when) {
			return entries[i].when.Before(entries[j].when)
		}
		return entries[i].name < entries[j].name
	})
	idx := -1
	for i, e := range entries {
		if e.name == tag {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", errTagNotFound
	}
	if idx == 0 {
		return "", errNoPreviousTag
	}
	return entries[idx-1].name, nil
}

// generateChangelogRunner asks the external collaborator for the log
// of changes between the previous tagged release and the current tag.
// The collaborator's stdout is the changelog text.
func generateChangelogRunner(ctx context.Context, in Envelope, deps Deps) (Envelope, error) {
	if in.Release == nil || in.Release.Workdir == "" {
		return Envelope{}, failf(generateChangelogStage, KindChangelog, "release checkout missing")
	}
	if in.Meta == nil || in.Meta.Changelog == nil || in.Meta.Changelog.Program == "" {
		return Envelope{}, failf(generateChangelogStage, KindChangelog, "changelog collaborator not configured")
	}
	cl := in.Meta.Changelog
	if cl.TokenEnv != "" && !deps.HostingToken.IsSet() {
		return Envelope{}, failf(generateChangelogStage, KindAuthentication, "hosting credential not set")
	}

	repo, err := git.PlainOpen(in.Release.Workdir)
	if err != nil {
		return Envelope{}, failf(generateChangelogStage, KindChangelog, "open checkout: %v", err)
	}
	prev, err := previousTagFor(repo, in.Tag)
	if err != nil {
		if errors.Is(err, errNoPreviousTag) {
			return Envelope{}, failf(generateChangelogStage, KindChangelog, "no previous tag before %s", in.Tag)
		}
		return Envelope{}, failf(generateChangelogStage, KindChangelog, "previous tag lookup: %v", err)
	}

	vals := map[string]string{
		"{from}": prev,
		"{to}":   in.Tag,
		"{tag}":  in.Tag,
		"{dir}":  in.Release.Workdir,
	}
	env := map[string]string{}
	if cl.TokenEnv != "" {
		env[cl.TokenEnv] = deps.HostingToken.Reveal()
	}
	res, err := runCollaborator(ctx, cl.Program, renderArgs(cl.ArgsTemplate, vals), in.Release.Workdir, env, cl.TimeoutMs)
	if err != nil {
		return Envelope{}, failf(generateChangelogStage, KindChangelog, "collaborator start: %v", err)
	}
	if res.timedOut {
		return Envelope{}, failf(generateChangelogStage, KindChangelog, "collaborator timed out")
	}
	if res.exitCode != 0 {
		return Envelope{}, failf(generateChangelogStage, KindChangelog, "collaborator failed (exit %d): %s", res.exitCode, stderrTail(res.stderr))
	}
	if strings.TrimSpace(res.stdout) == "" {
		return Envelope{}, failf(generateChangelogStage, KindChangelog, "collaborator produced no changelog")
	}

	out := in
	r := *in.Release
	r.PreviousTag = prev
	r.SetBody(res.stdout)
	out.Release = &r
	return out, nil
}

func init() { Register(generateChangelogStage, generateChangelogRunner) }
