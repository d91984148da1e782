package stage

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"testing"
)

func TestRenderArgsSubstitutesPlaceholders(t *testing.T) {
	args := renderArgs([]string{"log", "{from}..{to}", "--dir", "{dir}"}, map[string]string{
		"{from}": "v1.1.0",
		"{to}":   "v1.2.0",
		"{dir}":  "/work",
	})
	want := []string{"log", "v1.1.0..v1.2.0", "--dir", "/work"}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("got %v, want %v", args, want)
	}
}

func TestRenderArgsEmptyTemplate(t *testing.T) {
	if got := renderArgs(nil, map[string]string{"{tag}": "v1"}); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestRenderArgsUnknownPlaceholderKept(t *testing.T) {
	args := renderArgs([]string{"{unknown}"}, map[string]string{"{tag}": "v1"})
	if args[0] != "{unknown}" {
		t.Fatalf("unknown placeholders must pass through, got %q", args[0])
	}
}

func TestLimitedBufferTruncates(t *testing.T) {
	b := &limitedBuffer{max: 8}
	n, err := b.Write([]byte("0123456789"))
	if err != nil || n != 10 {
		t.Fatalf("write: n=%d err=%v", n, err)
	}
	if b.String() != "01234567" {
		t.Fatalf("unexpected content: %q", b.String())
	}
	if !b.truncated {
		t.Fatalf("expected truncation flag")
	}
}

func TestApplyEnvOverlay(t *testing.T) {
	env := applyEnvOverlay([]string{"A=1", "B=2"}, map[string]string{"B": "patched", "C": "3"})
	sort.Strings(env)
	want := []string{"A=1", "B=patched", "C=3"}
	if !reflect.DeepEqual(env, want) {
		t.Fatalf("got %v, want %v", env, want)
	}
}

func TestRunCollaboratorCapturesOutput(t *testing.T) {
	res, err := runCollaborator(context.Background(), "/bin/sh", []string{"-c", "echo out; echo err >&2"}, t.TempDir(), nil, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.exitCode != 0 || res.stdout != "out\n" || res.stderr != "err\n" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestRunCollaboratorNonZeroExitIsResult(t *testing.T) {
	res, err := runCollaborator(context.Background(), "/bin/sh", []string{"-c", "exit 3"}, t.TempDir(), nil, 0)
	if err != nil {
		t.Fatalf("non-zero exit must not be an error: %v", err)
	}
	if res.exitCode != 3 {
		t.Fatalf("unexpected exit code: %d", res.exitCode)
	}
}

func TestRunCollaboratorTimeout(t *testing.T) {
	res, err := runCollaborator(context.Background(), "/bin/sh", []string{"-c", "sleep 5"}, t.TempDir(), nil, 50)
	if err != nil {
		t.Fatalf("timeout must not be an error: %v", err)
	}
	if !res.timedOut {
		t.Fatalf("expected timedOut, got %+v", res)
	}
}

func TestRunCollaboratorEnvOverlay(t *testing.T) {
	res, err := runCollaborator(context.Background(), "/bin/sh", []string{"-c", `printf '%s' "$KHEPRI_TEST_VAR"`}, t.TempDir(), map[string]string{"KHEPRI_TEST_VAR": "scoped"}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.stdout != "scoped" {
		t.Fatalf("overlay variable missing: %q", res.stdout)
	}
}

func TestStderrTail(t *testing.T) {
	if got := stderrTail("first\nlast error\n\n"); got != "last error" {
		t.Fatalf("got %q", got)
	}
	if got := stderrTail(""); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestBuildArtifactRunsWithoutCredentials(t *testing.T) {
	dir := t.TempDir()
	in := Envelope{
		Tag: "v1.2.0",
		Meta: &Meta{
			Project: &ProjectMeta{Manifest: "pubspec.yaml"},
			Build:   &CommandMeta{Program: "/bin/sh", ArgsTemplate: []string{"-c", `test "{version}" = "v1.2.0"`}},
		},
		Publish: &PublishResult{Workdir: dir, Version: "v1.2.0"},
	}
	out, err := buildArtifactRunner(context.Background(), in, Deps{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Publish.Built {
		t.Fatalf("expected built flag")
	}
}

func TestBuildArtifactSkippedWhenUnconfigured(t *testing.T) {
	in := Envelope{Tag: "v1.2.0", Meta: &Meta{}, Publish: &PublishResult{Workdir: t.TempDir()}}
	out, err := buildArtifactRunner(context.Background(), in, Deps{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Publish.Built {
		t.Fatalf("build must be skipped without a configured program")
	}
}

func TestBuildArtifactFailureSurfacesStderr(t *testing.T) {
	in := Envelope{
		Tag: "v1.2.0",
		Meta: &Meta{
			Build: &CommandMeta{Program: "/bin/sh", ArgsTemplate: []string{"-c", "echo compiler exploded >&2; exit 1"}},
		},
		Publish: &PublishResult{Workdir: t.TempDir(), Version: "v1.2.0"},
	}
	_, err := buildArtifactRunner(context.Background(), in, Deps{})
	f, ok := AsFailure(err)
	if !ok || f.Kind != KindBuild {
		t.Fatalf("expected build failure, got %v", err)
	}
	if !strings.Contains(f.Message, "compiler exploded") {
		t.Fatalf("stderr tail missing from message: %q", f.Message)
	}
}
