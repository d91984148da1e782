package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// compileCUE loads and compiles a CUE file at the given path.
func compileCUE(path string) (cue.Value, error) {
	if filepath.Ext(path) != ".cue" {
		return cue.Value{}, errors.New("unsupported config format: expected .cue")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, fmt.Errorf("failed to read config: %w", err)
	}
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data)
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("invalid config: %v", err)
	}
	return v, nil
}

func requireStringField(v cue.Value, name string) error {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return fmt.Errorf("missing required field: %s", name)
	}
	if f.Kind() != cue.StringKind {
		return fmt.Errorf("invalid type for field: %s (expected string)", name)
	}
	return nil
}

func decodeString(v cue.Value, name string, out *string) {
	f := v.LookupPath(cue.ParsePath(name))
	if f.Exists() && f.Kind() == cue.StringKind {
		_ = f.Decode(out)
	}
}

func decodeInt(v cue.Value, name string, out *int) {
	f := v.LookupPath(cue.ParsePath(name))
	if f.Exists() && f.Kind() == cue.IntKind {
		_ = f.Decode(out)
	}
}

func decodeStringList(v cue.Value, name string, out *[]string) {
	f := v.LookupPath(cue.ParsePath(name))
	if f.Exists() && f.Kind() == cue.ListKind {
		_ = f.Decode(out)
	}
}

func decodeCommand(v cue.Value, name string, out *Command) {
	cv := v.LookupPath(cue.ParsePath(name))
	if !cv.Exists() {
		return
	}
	decodeString(cv, "program", &out.Program)
	if out.Program != "" {
		out.HasProgram = true
	}
	decodeStringList(cv, "argsTemplate", &out.ArgsTemplate)
	decodeInt(cv, "timeoutMs", &out.TimeoutMs)
}
