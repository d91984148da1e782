package stage

import "context"

const buildArtifactStage = "build-artifact"

// buildArtifactRunner runs the build toolchain in the publish
// checkout. The build environment carries no credential: neither token
// belongs to this step. Skipped when no build command is configured
// (some toolchains build as part of publish).
func buildArtifactRunner(ctx context.Context, in Envelope, _ Deps) (Envelope, error) {
	if in.Meta == nil || in.Meta.Build == nil || in.Meta.Build.Program == "" {
		return in, nil
	}
	if in.Publish == nil || in.Publish.Workdir == "" {
		return Envelope{}, failf(buildArtifactStage, KindBuild, "publish checkout missing")
	}

	b := in.Meta.Build
	args := renderArgs(b.ArgsTemplate, execVals(in))
	res, err := runCollaborator(ctx, b.Program, args, in.Publish.Workdir, nil, b.TimeoutMs)
	if err != nil {
		return Envelope{}, failf(buildArtifactStage, KindBuild, "build start: %v", err)
	}
	if res.timedOut {
		return Envelope{}, failf(buildArtifactStage, KindBuild, "build timed out")
	}
	if res.exitCode != 0 {
		return Envelope{}, failf(buildArtifactStage, KindBuild, "build failed (exit %d): %s", res.exitCode, stderrTail(res.stderr))
	}

	out := in
	p := *in.Publish
	p.Built = true
	out.Publish = &p
	return out, nil
}

// execVals collects the placeholder values shared by publish-node
// collaborator invocations.
func execVals(in Envelope) map[string]string {
	vals := map[string]string{
		"{tag}": in.Tag,
	}
	if in.Publish != nil {
		vals["{version}"] = in.Publish.Version
		vals["{dir}"] = in.Publish.Workdir
	}
	if in.Meta != nil && in.Meta.Project != nil {
		vals["{manifest}"] = in.Meta.Project.Manifest
	}
	return vals
}

func init() { Register(buildArtifactStage, buildArtifactRunner) }
