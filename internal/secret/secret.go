// Package secret models stage-scoped credentials. Tokens are read
// from the environment at run start, handed only to the stage that
// needs them, and redacted by every printable surface.
package secret

import "os"

// Token is a credential scoped to one pipeline stage.
type Token string

const redacted = "[redacted]"

// FromEnv reads a token from the named environment variable. A missing
// or empty variable yields an unset token; the stage that needs it
// reports the authentication failure.
func FromEnv(name string) Token {
	if name == "" {
		return ""
	}
	v, _ := os.LookupEnv(name)
	return Token(v)
}

// IsSet reports whether the token carries a value.
func (t Token) IsSet() bool { return t != "" }

// Reveal returns the raw credential. Call sites are the only place the
// value may travel: an HTTP Authorization header or a collaborator's
// process environment.
func (t Token) Reveal() string { return string(t) }

func (t Token) String() string {
	if t == "" {
		return ""
	}
	return redacted
}

func (t Token) GoString() string { return redacted }

func (t Token) MarshalJSON() ([]byte, error) {
	if t == "" {
		return []byte(`""`), nil
	}
	return []byte(`"` + redacted + `"`), nil
}
