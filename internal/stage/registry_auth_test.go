package stage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flarebyte/khepri-release/internal/secret"
)

func TestRegistryAuthAccepted(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/account" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	in := Envelope{Tag: "v1.0.0", Meta: &Meta{Registry: &RegistryMeta{URL: srv.URL}}}
	deps := Deps{RegistryToken: secret.Token("reg-token"), Client: srv.Client()}
	out, err := registryAuthRunner(context.Background(), in, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer reg-token" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
	if len(out.Errors) != 0 {
		t.Fatalf("unexpected envelope errors: %+v", out.Errors)
	}
}

func TestRegistryAuthRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	in := Envelope{Tag: "v1.0.0", Meta: &Meta{Registry: &RegistryMeta{URL: srv.URL}}}
	deps := Deps{RegistryToken: secret.Token("bad"), Client: srv.Client()}
	_, err := registryAuthRunner(context.Background(), in, deps)
	if err == nil {
		t.Fatalf("expected error")
	}
	f, ok := AsFailure(err)
	if !ok || f.Kind != KindAuthentication {
		t.Fatalf("expected authentication failure, got %v", err)
	}
}

func TestRegistryAuthMissingToken(t *testing.T) {
	in := Envelope{Tag: "v1.0.0", Meta: &Meta{Registry: &RegistryMeta{URL: "http://registry.invalid"}}}
	_, err := registryAuthRunner(context.Background(), in, Deps{})
	if err == nil {
		t.Fatalf("expected error")
	}
	f, ok := AsFailure(err)
	if !ok || f.Kind != KindAuthentication {
		t.Fatalf("expected authentication failure, got %v", err)
	}
	if f.Message != "registry credential not set" {
		t.Fatalf("unexpected message: %q", f.Message)
	}
}
