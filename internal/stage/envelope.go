package stage

// Error represents a terminal stage failure recorded in the envelope.
type Error struct {
	Stage   string `json:"stage"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// ProjectMeta identifies the repository and its package manifest.
type ProjectMeta struct {
	Repo     string `json:"repo"`
	Manifest string `json:"manifest"`
}

// RegistryMeta holds the package registry endpoint. TokenEnv names the
// environment variable the credential is read from; the value itself
// never enters the envelope.
type RegistryMeta struct {
	URL      string `json:"url"`
	TokenEnv string `json:"tokenEnv,omitempty"`
}

// CommandMeta describes an external toolchain invocation.
type CommandMeta struct {
	Program      string   `json:"program"`
	ArgsTemplate []string `json:"argsTemplate,omitempty"`
	TimeoutMs    int      `json:"timeoutMs,omitempty"`
}

// ChangelogMeta describes the external changelog collaborator.
type ChangelogMeta struct {
	Program      string   `json:"program"`
	ArgsTemplate []string `json:"argsTemplate,omitempty"`
	TokenEnv     string   `json:"tokenEnv,omitempty"`
	TimeoutMs    int      `json:"timeoutMs,omitempty"`
}

// ReleaseAPIMeta holds the hosting platform's release endpoint.
type ReleaseAPIMeta struct {
	APIURL   string `json:"apiUrl"`
	TokenEnv string `json:"tokenEnv,omitempty"`
}

// NotesMeta holds the optional inline Lua transform applied to the
// changelog body before the release record is created.
type NotesMeta struct {
	Inline    string `json:"inline,omitempty"`
	TimeoutMs int    `json:"timeoutMs,omitempty"`
}

// Meta holds config-derived settings with deterministic JSON field order.
type Meta struct {
	ConfigPath string          `json:"configPath,omitempty"`
	Project    *ProjectMeta    `json:"project,omitempty"`
	Registry   *RegistryMeta   `json:"registry,omitempty"`
	Build      *CommandMeta    `json:"build,omitempty"`
	Publish    *CommandMeta    `json:"publish,omitempty"`
	Changelog  *ChangelogMeta  `json:"changelog,omitempty"`
	Release    *ReleaseAPIMeta `json:"release,omitempty"`
	Notes      *NotesMeta      `json:"notes,omitempty"`
}

// PublishResult accumulates the publish node's observable outcome.
// Version is always the tag string, written into the manifest as-is.
type PublishResult struct {
	Workdir   string `json:"workdir,omitempty"`
	Commit    string `json:"commit,omitempty"`
	Package   string `json:"package,omitempty"`
	Version   string `json:"version,omitempty"`
	Dirty     bool   `json:"dirty,omitempty"`
	Built     bool   `json:"built,omitempty"`
	Published bool   `json:"published,omitempty"`
}

// ReleaseResult accumulates the release node's observable outcome.
// The changelog body is carried between stages but rendered only as a
// byte count; release bodies can be large and belong to the platform.
type ReleaseResult struct {
	Workdir     string `json:"workdir,omitempty"`
	PreviousTag string `json:"previousTag,omitempty"`
	BodyBytes   int    `json:"bodyBytes,omitempty"`
	URL         string `json:"url,omitempty"`
	ID          int64  `json:"id,omitempty"`
	Created     bool   `json:"created,omitempty"`

	body string
}

// Body returns the changelog text carried between release stages.
func (r *ReleaseResult) Body() string { return r.body }

// SetBody replaces the changelog text and keeps BodyBytes in sync.
func (r *ReleaseResult) SetBody(s string) {
	r.body = s
	r.BodyBytes = len(s)
}

// Envelope is the JSON-serializable contract between stages. Field
// order is stable to keep output deterministic. Credentials are never
// part of the envelope; they travel in Deps.
type Envelope struct {
	Tag     string         `json:"tag"`
	RunID   string         `json:"runId,omitempty"`
	Meta    *Meta          `json:"meta,omitempty"`
	Publish *PublishResult `json:"publish,omitempty"`
	Release *ReleaseResult `json:"release,omitempty"`
	Errors  []Error        `json:"errors,omitempty"`
}
