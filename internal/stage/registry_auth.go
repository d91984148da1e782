package stage

import (
	"context"
	"net/http"
	"strings"
)

const registryAuthStage = "registry-auth"

func registryAccountURL(base string) string {
	return strings.TrimSuffix(base, "/") + "/api/account"
}

// registryAuthRunner proves the registry credential before anything is
// built. A rejected or missing credential is terminal; the run never
// reaches the publish step with a token the registry will not accept.
func registryAuthRunner(ctx context.Context, in Envelope, deps Deps) (Envelope, error) {
	if in.Meta == nil || in.Meta.Registry == nil || in.Meta.Registry.URL == "" {
		return Envelope{}, failf(registryAuthStage, KindAuthentication, "registry not configured")
	}
	if !deps.RegistryToken.IsSet() {
		return Envelope{}, failf(registryAuthStage, KindAuthentication, "registry credential not set")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, registryAccountURL(in.Meta.Registry.URL), nil)
	if err != nil {
		return Envelope{}, failf(registryAuthStage, KindAuthentication, "registry request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+deps.RegistryToken.Reveal())
	req.Header.Set("Accept", "application/json")

	resp, err := deps.httpClient().Do(req)
	if err != nil {
		return Envelope{}, failf(registryAuthStage, KindAuthentication, "registry unreachable: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return in, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Envelope{}, failf(registryAuthStage, KindAuthentication, "registry credential rejected (status %d)", resp.StatusCode)
	default:
		return Envelope{}, failf(registryAuthStage, KindAuthentication, "registry auth check failed (status %d)", resp.StatusCode)
	}
}

func init() { Register(registryAuthStage, registryAuthRunner) }
