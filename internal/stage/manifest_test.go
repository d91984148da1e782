package stage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestSetManifestVersionYAML(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "pubspec.yaml", "name: demo\ndescription: A demo package\n# release version\nversion: 0.0.1\n")

	in := Envelope{
		Tag:     "v1.2.0",
		Meta:    &Meta{Project: &ProjectMeta{Repo: ".", Manifest: "pubspec.yaml"}},
		Publish: &PublishResult{Workdir: dir},
	}
	out, err := setManifestVersionRunner(context.Background(), in, Deps{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Publish.Package != "demo" {
		t.Fatalf("expected package name demo, got %q", out.Publish.Package)
	}
	// The tag string exactly; never normalized.
	if out.Publish.Version != "v1.2.0" {
		t.Fatalf("expected version v1.2.0, got %q", out.Publish.Version)
	}

	b, err := os.ReadFile(filepath.Join(dir, "pubspec.yaml"))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "version: v1.2.0") {
		t.Fatalf("version not overwritten: %q", s)
	}
	if strings.Contains(s, "0.0.1") {
		t.Fatalf("old version survived: %q", s)
	}
	if !strings.Contains(s, "# release version") {
		t.Fatalf("comment lost in rewrite: %q", s)
	}
	if !strings.Contains(s, "description: A demo package") {
		t.Fatalf("sibling field lost: %q", s)
	}
}

func TestSetManifestVersionYAMLAddsMissingField(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "pubspec.yaml", "name: demo\n")

	in := Envelope{
		Tag:     "v0.1.0",
		Meta:    &Meta{Project: &ProjectMeta{Repo: ".", Manifest: "pubspec.yaml"}},
		Publish: &PublishResult{Workdir: dir},
	}
	if _, err := setManifestVersionRunner(context.Background(), in, Deps{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := os.ReadFile(filepath.Join(dir, "pubspec.yaml"))
	if !strings.Contains(string(b), "version: v0.1.0") {
		t.Fatalf("version not added: %q", string(b))
	}
}

func TestSetManifestVersionJSON(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "package.json", `{"name":"demo-js","version":"0.0.1","private":false}`)

	in := Envelope{
		Tag:     "1.2.0",
		Meta:    &Meta{Project: &ProjectMeta{Repo: ".", Manifest: "package.json"}},
		Publish: &PublishResult{Workdir: dir},
	}
	out, err := setManifestVersionRunner(context.Background(), in, Deps{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Publish.Package != "demo-js" {
		t.Fatalf("expected package name demo-js, got %q", out.Publish.Package)
	}
	b, _ := os.ReadFile(filepath.Join(dir, "package.json"))
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("manifest no longer valid JSON: %v", err)
	}
	if m["version"] != "1.2.0" {
		t.Fatalf("version not overwritten: %v", m["version"])
	}
	if m["name"] != "demo-js" {
		t.Fatalf("name lost: %v", m["name"])
	}
}

func TestSetManifestVersionUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "Cargo.toml", "[package]\nname = \"demo\"\n")

	in := Envelope{
		Tag:     "v1.0.0",
		Meta:    &Meta{Project: &ProjectMeta{Repo: ".", Manifest: "Cargo.toml"}},
		Publish: &PublishResult{Workdir: dir},
	}
	_, err := setManifestVersionRunner(context.Background(), in, Deps{})
	if err == nil {
		t.Fatalf("expected error")
	}
	f, ok := AsFailure(err)
	if !ok || f.Kind != KindBuild {
		t.Fatalf("expected build failure, got %v", err)
	}
}
