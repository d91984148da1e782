package pipeline

import (
	"github.com/flarebyte/khepri-release/internal/config"
	"github.com/flarebyte/khepri-release/internal/secret"
	"github.com/flarebyte/khepri-release/internal/stage"
)

// MetaFromConfig projects the validated config into the envelope meta.
// Only endpoint URLs and env var names cross over; credential values
// are read separately into Deps.
func MetaFromConfig(cfg config.Release, cfgPath string) *stage.Meta {
	m := &stage.Meta{
		ConfigPath: cfgPath,
		Project: &stage.ProjectMeta{
			Repo:     cfg.Project.Repo,
			Manifest: cfg.Project.Manifest,
		},
		Registry: &stage.RegistryMeta{
			URL:      cfg.Registry.URL,
			TokenEnv: cfg.Registry.TokenEnv,
		},
		Publish: &stage.CommandMeta{
			Program:      cfg.Publish.Program,
			ArgsTemplate: cfg.Publish.ArgsTemplate,
			TimeoutMs:    cfg.Publish.TimeoutMs,
		},
		Changelog: &stage.ChangelogMeta{
			Program:      cfg.Changelog.Program,
			ArgsTemplate: cfg.Changelog.ArgsTemplate,
			TokenEnv:     cfg.Changelog.TokenEnv,
			TimeoutMs:    cfg.Changelog.TimeoutMs,
		},
		Release: &stage.ReleaseAPIMeta{
			APIURL:   cfg.ReleaseAPI.APIURL,
			TokenEnv: cfg.ReleaseAPI.TokenEnv,
		},
	}
	if cfg.Build.HasProgram {
		m.Build = &stage.CommandMeta{
			Program:      cfg.Build.Program,
			ArgsTemplate: cfg.Build.ArgsTemplate,
			TimeoutMs:    cfg.Build.TimeoutMs,
		}
	}
	if cfg.Notes.HasInline {
		m.Notes = &stage.NotesMeta{
			Inline:    cfg.Notes.Inline,
			TimeoutMs: cfg.Notes.TimeoutMs,
		}
	}
	return m
}

// DepsFromConfig reads both scoped credentials for one run. Tokens are
// read fresh per run and never persisted beyond it.
func DepsFromConfig(cfg config.Release) stage.Deps {
	return stage.Deps{
		RegistryToken: secret.FromEnv(cfg.Registry.TokenEnv),
		HostingToken:  secret.FromEnv(cfg.ReleaseAPI.TokenEnv),
	}
}
