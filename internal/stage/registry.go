package stage

import (
	"context"
	"net/http"

	"github.com/flarebyte/khepri-release/internal/secret"
)

// Deps carries per-run collaborators and scoped credentials. Each
// stage receives only the credential it needs: the registry token is
// read by publish-node stages, the hosting token by release-node
// stages, and neither is ever written to the envelope.
type Deps struct {
	RegistryToken secret.Token
	HostingToken  secret.Token
	Client        *http.Client
}

func (d Deps) httpClient() *http.Client {
	if d.Client != nil {
		return d.Client
	}
	return http.DefaultClient
}

// Runner executes a stage.
type Runner func(ctx context.Context, in Envelope, deps Deps) (Envelope, error)

var registry = map[string]Runner{}

// Register adds a stage runner.
func Register(name string, r Runner) {
	registry[name] = r
}

// Run executes a registered stage by name.
func Run(ctx context.Context, name string, in Envelope, deps Deps) (Envelope, error) {
	r, ok := registry[name]
	if !ok {
		return Envelope{}, ErrUnknown{name: name}
	}
	return r(ctx, in, deps)
}

// ErrUnknown is returned when a stage is not found.
type ErrUnknown struct{ name string }

func (e ErrUnknown) Error() string { return "unknown stage: " + e.name }
