package stage

import (
	"context"
	"errors"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
)

const (
	transformNotesStage   = "transform-notes"
	defaultNotesTimeoutMs = 2000
)

// transformNotesRunner applies the optional inline Lua transform to
// the changelog body. No inline script means exact passthrough: the
// release body is the collaborator's output byte for byte.
func transformNotesRunner(_ context.Context, in Envelope, _ Deps) (Envelope, error) {
	if in.Meta == nil || in.Meta.Notes == nil || strings.TrimSpace(in.Meta.Notes.Inline) == "" {
		return in, nil
	}
	if in.Release == nil || in.Release.Body() == "" {
		return Envelope{}, failf(transformNotesStage, KindNotesTransform, "changelog body missing")
	}

	body, err := runNotesLua(in.Meta.Notes, in.Tag, in.Release.PreviousTag, in.Release.Body())
	if err != nil {
		return Envelope{}, failf(transformNotesStage, KindNotesTransform, "%v", err)
	}
	out := in
	r := *in.Release
	r.SetBody(body)
	out.Release = &r
	return out, nil
}

// runNotesLua evaluates the inline script in a sandboxed state with
// only base/string/table/math opened and a wall-clock timeout. Globals
// are tag, previousTag and body; the script must return a string.
func runNotesLua(n *NotesMeta, tag, previousTag, body string) (string, error) {
	code := n.Inline
	if !containsReturn(code) {
		code = "return (" + code + ")"
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	openLib := func(name string, f lua.LGFunction) {
		L.Push(L.NewFunction(f))
		L.Push(lua.LString(name))
		L.Call(1, 0)
	}
	openLib("base", lua.OpenBase)
	openLib("string", lua.OpenString)
	openLib("table", lua.OpenTable)
	openLib("math", lua.OpenMath)

	timeoutMs := n.TimeoutMs
	if timeoutMs <= 0 {
		timeoutMs = defaultNotesTimeoutMs
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()
	L.SetContext(ctx)

	L.SetGlobal("tag", lua.LString(tag))
	L.SetGlobal("previousTag", lua.LString(previousTag))
	L.SetGlobal("body", lua.LString(body))

	fn, err := L.LoadString(code)
	if err != nil {
		return "", err
	}
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", errors.New("notes transform timeout")
		}
		return "", err
	}
	ret := L.Get(-1)
	L.Pop(1)
	s, ok := ret.(lua.LString)
	if !ok {
		return "", errors.New("notes transform must return a string")
	}
	return string(s), nil
}

func containsReturn(s string) bool {
	return strings.Contains(s, "return")
}

func init() { Register(transformNotesStage, transformNotesRunner) }
