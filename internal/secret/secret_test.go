package secret

import (
	"encoding/json"
	"fmt"
	"testing"
)

func TestFromEnv(t *testing.T) {
	t.Setenv("KHEPRI_TEST_TOKEN", "s3cr3t")
	tok := FromEnv("KHEPRI_TEST_TOKEN")
	if !tok.IsSet() {
		t.Fatalf("expected token to be set")
	}
	if tok.Reveal() != "s3cr3t" {
		t.Fatalf("unexpected value: %q", tok.Reveal())
	}
}

func TestFromEnvMissing(t *testing.T) {
	tok := FromEnv("KHEPRI_TEST_TOKEN_ABSENT")
	if tok.IsSet() {
		t.Fatalf("expected unset token")
	}
	if FromEnv("").IsSet() {
		t.Fatalf("empty name must yield unset token")
	}
}

func TestTokenNeverPrints(t *testing.T) {
	tok := Token("s3cr3t")
	if got := fmt.Sprintf("%s %v %#v", tok, tok, tok); got != "[redacted] [redacted] [redacted]" {
		t.Fatalf("token leaked through formatting: %q", got)
	}
	b, err := json.Marshal(tok)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"[redacted]"` {
		t.Fatalf("token leaked through JSON: %s", b)
	}
}

func TestEmptyTokenPrintsEmpty(t *testing.T) {
	var tok Token
	if tok.String() != "" {
		t.Fatalf("empty token should print empty, got %q", tok.String())
	}
	b, err := json.Marshal(tok)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `""` {
		t.Fatalf("unexpected JSON for empty token: %s", b)
	}
}
