package stage

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

const publishArtifactStage = "publish-artifact"

func registryVersionURL(base, pkg, version string) string {
	return strings.TrimSuffix(base, "/") + "/api/packages/" + url.PathEscape(pkg) + "/versions/" + url.PathEscape(version)
}

// versionExists asks the registry whether the package already has an
// artifact at this version. The lookup makes the version-conflict
// outcome deterministic: a re-run for an already-published tag fails
// here every time, before the toolchain is invoked.
func versionExists(ctx context.Context, deps Deps, base, pkg, version string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, registryVersionURL(base, pkg, version), nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+deps.RegistryToken.Reveal())
	req.Header.Set("Accept", "application/json")
	resp, err := deps.httpClient().Do(req)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return false, failf(publishArtifactStage, KindAuthentication, "registry credential rejected (status %d)", resp.StatusCode)
	default:
		return false, failf(publishArtifactStage, KindPublishRejected, "registry version lookup failed (status %d)", resp.StatusCode)
	}
}

// publishArtifactRunner hands the built artifact to the publish
// toolchain. The configured args template carries the registry's
// bypass flags (skip verification, tolerate a dirty tree); dirtiness
// is recorded but never blocks. No rollback is attempted on rejection.
func publishArtifactRunner(ctx context.Context, in Envelope, deps Deps) (Envelope, error) {
	if in.Publish == nil || in.Publish.Workdir == "" || in.Publish.Version == "" {
		return Envelope{}, failf(publishArtifactStage, KindPublishRejected, "publish checkout or version missing")
	}
	if in.Meta == nil || in.Meta.Publish == nil || in.Meta.Publish.Program == "" {
		return Envelope{}, failf(publishArtifactStage, KindPublishRejected, "publish toolchain not configured")
	}

	p := *in.Publish
	reg := in.Meta.Registry
	if reg != nil && reg.URL != "" && p.Package != "" {
		exists, err := versionExists(ctx, deps, reg.URL, p.Package, p.Version)
		if err != nil {
			return Envelope{}, err
		}
		if exists {
			return Envelope{}, failf(publishArtifactStage, KindVersionConflict, "version %s already published for %s", p.Version, p.Package)
		}
	}

	// Build outputs and the version bump leave the tree dirty; record it.
	p.Dirty = dirtyWorktree(p.Workdir)

	env := map[string]string{}
	if reg != nil && reg.TokenEnv != "" && deps.RegistryToken.IsSet() {
		env[reg.TokenEnv] = deps.RegistryToken.Reveal()
	}
	pub := in.Meta.Publish
	args := renderArgs(pub.ArgsTemplate, execVals(in))
	res, err := runCollaborator(ctx, pub.Program, args, p.Workdir, env, pub.TimeoutMs)
	if err != nil {
		return Envelope{}, failf(publishArtifactStage, KindPublishRejected, "publish start: %v", err)
	}
	if res.timedOut {
		return Envelope{}, failf(publishArtifactStage, KindPublishRejected, "publish timed out")
	}
	if res.exitCode != 0 {
		return Envelope{}, failf(publishArtifactStage, KindPublishRejected, "publish failed (exit %d): %s", res.exitCode, stderrTail(res.stderr))
	}

	p.Published = true
	out := in
	out.Publish = &p
	return out, nil
}

func init() { Register(publishArtifactStage, publishArtifactRunner) }
