package config

import (
	"fmt"

	"cuelang.org/go/cue"
)

// Default credential environment variables, used when the config does
// not name its own.
const (
	DefaultRegistryTokenEnv = "KHEPRI_REGISTRY_TOKEN"
	DefaultHostingTokenEnv  = "KHEPRI_HOSTING_TOKEN"
)

// Project identifies the repository and its package manifest.
type Project struct {
	Repo     string
	Manifest string
}

// Registry holds the package registry endpoint and credential source.
type Registry struct {
	URL      string
	TokenEnv string
}

// Command describes an external toolchain invocation.
type Command struct {
	Program      string
	ArgsTemplate []string
	TimeoutMs    int
	HasProgram   bool
}

// Changelog describes the external changelog collaborator.
type Changelog struct {
	Program      string
	ArgsTemplate []string
	TokenEnv     string
	TimeoutMs    int
}

// ReleaseAPI holds the hosting platform's release endpoint.
type ReleaseAPI struct {
	APIURL   string
	TokenEnv string
}

// Notes holds the optional inline Lua transform for release notes.
type Notes struct {
	Inline    string
	TimeoutMs int
	HasInline bool
}

// Release is the validated release-pipeline configuration.
type Release struct {
	ConfigVersion string
	Project       Project
	Registry      Registry
	Build         Command
	Publish       Command
	Changelog     Changelog
	ReleaseAPI    ReleaseAPI
	Notes         Notes
}

// ParseRelease loads a CUE config file and extracts the release
// pipeline settings. Required: configVersion, project.manifest,
// registry.url, publish.program, changelog.program, release.apiUrl.
func ParseRelease(path string) (Release, error) {
	v, err := compileCUE(path)
	if err != nil {
		return Release{}, err
	}
	if err := requireStringField(v, "configVersion"); err != nil {
		return Release{}, err
	}

	var r Release
	if err := v.LookupPath(cue.ParsePath("configVersion")).Decode(&r.ConfigVersion); err != nil {
		return Release{}, fmt.Errorf("invalid value for configVersion: %v", err)
	}

	// project
	r.Project.Repo = "."
	pv := v.LookupPath(cue.ParsePath("project"))
	if pv.Exists() {
		decodeString(pv, "repo", &r.Project.Repo)
		decodeString(pv, "manifest", &r.Project.Manifest)
	}
	if r.Project.Manifest == "" {
		return Release{}, fmt.Errorf("missing required field: project.manifest")
	}

	// registry
	r.Registry.TokenEnv = DefaultRegistryTokenEnv
	rv := v.LookupPath(cue.ParsePath("registry"))
	if rv.Exists() {
		decodeString(rv, "url", &r.Registry.URL)
		decodeString(rv, "tokenEnv", &r.Registry.TokenEnv)
	}
	if r.Registry.URL == "" {
		return Release{}, fmt.Errorf("missing required field: registry.url")
	}

	// build (optional) and publish (required)
	decodeCommand(v, "build", &r.Build)
	decodeCommand(v, "publish", &r.Publish)
	if !r.Publish.HasProgram {
		return Release{}, fmt.Errorf("missing required field: publish.program")
	}

	// changelog
	r.Changelog.TokenEnv = DefaultHostingTokenEnv
	cv := v.LookupPath(cue.ParsePath("changelog"))
	if cv.Exists() {
		decodeString(cv, "program", &r.Changelog.Program)
		decodeStringList(cv, "argsTemplate", &r.Changelog.ArgsTemplate)
		decodeString(cv, "tokenEnv", &r.Changelog.TokenEnv)
		decodeInt(cv, "timeoutMs", &r.Changelog.TimeoutMs)
	}
	if r.Changelog.Program == "" {
		return Release{}, fmt.Errorf("missing required field: changelog.program")
	}

	// release
	r.ReleaseAPI.TokenEnv = DefaultHostingTokenEnv
	relv := v.LookupPath(cue.ParsePath("release"))
	if relv.Exists() {
		decodeString(relv, "apiUrl", &r.ReleaseAPI.APIURL)
		decodeString(relv, "tokenEnv", &r.ReleaseAPI.TokenEnv)
	}
	if r.ReleaseAPI.APIURL == "" {
		return Release{}, fmt.Errorf("missing required field: release.apiUrl")
	}

	// notes (optional)
	nv := v.LookupPath(cue.ParsePath("notes"))
	if nv.Exists() {
		iv := nv.LookupPath(cue.ParsePath("inline"))
		if iv.Exists() && iv.Kind() == cue.StringKind {
			if err := iv.Decode(&r.Notes.Inline); err == nil {
				r.Notes.HasInline = true
			}
		}
		decodeInt(nv, "timeoutMs", &r.Notes.TimeoutMs)
	}

	return r, nil
}

// LoadAndValidate parses the config and discards the value; used by
// `khepri check`.
func LoadAndValidate(path string) error {
	_, err := ParseRelease(path)
	return err
}
