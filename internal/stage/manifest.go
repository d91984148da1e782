package stage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const setManifestVersionStage = "set-manifest-version"

var errUnsupportedManifest = errors.New("unsupported manifest format")

// setManifestVersionRunner overwrites the manifest's version field
// with the tag string. Unconditional overwrite: the tag is assumed to
// be a valid version token and is never validated or normalized.
func setManifestVersionRunner(_ context.Context, in Envelope, _ Deps) (Envelope, error) {
	if in.Publish == nil || in.Publish.Workdir == "" {
		return Envelope{}, failf(setManifestVersionStage, KindBuild, "publish checkout missing")
	}
	if in.Meta == nil || in.Meta.Project == nil || in.Meta.Project.Manifest == "" {
		return Envelope{}, failf(setManifestVersionStage, KindBuild, "project manifest not configured")
	}
	path := filepath.Join(in.Publish.Workdir, in.Meta.Project.Manifest)
	name, err := overwriteManifestVersion(path, in.Tag)
	if err != nil {
		return Envelope{}, failf(setManifestVersionStage, KindBuild, "manifest %s: %v", in.Meta.Project.Manifest, err)
	}
	out := in
	p := *in.Publish
	p.Package = name
	p.Version = in.Tag
	out.Publish = &p
	return out, nil
}

// overwriteManifestVersion rewrites the version field in a YAML or
// JSON manifest and returns the package name found next to it.
func overwriteManifestVersion(path, version string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return overwriteYAMLVersion(path, version)
	case ".json":
		return overwriteJSONVersion(path, version)
	default:
		return "", errUnsupportedManifest
	}
}

// overwriteYAMLVersion edits the document through yaml.Node so key
// order and comments survive the version bump.
func overwriteYAMLVersion(path, version string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return "", err
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return "", errors.New("manifest is not a mapping")
	}
	mapping := root.Content[0]

	name := ""
	versionSet := false
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key, val := mapping.Content[i], mapping.Content[i+1]
		switch key.Value {
		case "name":
			name = val.Value
		case "version":
			val.SetString(version)
			versionSet = true
		}
	}
	if !versionSet {
		mapping.Content = append(mapping.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "version"},
			&yaml.Node{Kind: yaml.ScalarNode, Value: version},
		)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(mapping); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	return name, nil
}

func overwriteJSONVersion(path, version string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return "", err
	}
	m["version"] = version
	name, _ := m["name"].(string)
	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", err
	}
	out = append(out, '\n')
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return "", err
	}
	return name, nil
}

func init() { Register(setManifestVersionStage, setManifestVersionRunner) }
