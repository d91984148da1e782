package stage

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"
)

const (
	defaultExecTimeoutMs = 600000
	captureMaxBytes      = 1 << 20
)

type limitedBuffer struct {
	max       int
	buf       strings.Builder
	truncated bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if b.max <= 0 {
		return n, nil
	}
	remain := b.max - b.buf.Len()
	if remain > 0 {
		if remain > len(p) {
			remain = len(p)
		}
		_, _ = b.buf.Write(p[:remain])
	}
	if len(p) > remain {
		b.truncated = true
	}
	return n, nil
}

func (b *limitedBuffer) String() string { return b.buf.String() }

type execResult struct {
	exitCode        int
	stdout          string
	stderr          string
	stdoutTruncated bool
	stderrTruncated bool
	timedOut        bool
}

// renderArgs substitutes known placeholders ({tag}, {version}, {from},
// {to}, {dir}, {manifest}) in a collaborator args template.
func renderArgs(argsT []string, vals map[string]string) []string {
	if len(argsT) == 0 {
		return nil
	}
	pairs := make([]string, 0, len(vals)*2)
	for k, v := range vals {
		pairs = append(pairs, k, v)
	}
	rep := strings.NewReplacer(pairs...)
	rendered := make([]string, len(argsT))
	for i := range argsT {
		rendered[i] = rep.Replace(argsT[i])
	}
	return rendered
}

func applyEnvOverlay(base []string, overlay map[string]string) []string {
	if len(overlay) == 0 {
		return append([]string(nil), base...)
	}
	m := map[string]string{}
	for _, kv := range base {
		i := strings.IndexByte(kv, '=')
		if i <= 0 {
			continue
		}
		m[kv[:i]] = kv[i+1:]
	}
	for k, v := range overlay {
		m[k] = v
	}
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+v)
	}
	return out
}

// runCollaborator executes an external program with capture-limited
// output and a wall-clock timeout. A non-zero exit is reported in the
// result, not as an error; errors mean the program could not run.
func runCollaborator(ctx context.Context, program string, args []string, dir string, env map[string]string, timeoutMs int) (execResult, error) {
	if timeoutMs <= 0 {
		timeoutMs = defaultExecTimeoutMs
	}
	cctx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	cmd := exec.CommandContext(cctx, program, args...)
	cmd.Dir = dir
	cmd.Env = applyEnvOverlay(os.Environ(), env)
	outBuf := &limitedBuffer{max: captureMaxBytes}
	errBuf := &limitedBuffer{max: captureMaxBytes}
	cmd.Stdout = outBuf
	cmd.Stderr = errBuf

	err := cmd.Run()
	res := execResult{
		stdout:          outBuf.String(),
		stderr:          errBuf.String(),
		stdoutTruncated: outBuf.truncated,
		stderrTruncated: errBuf.truncated,
		timedOut:        cctx.Err() == context.DeadlineExceeded,
	}
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			res.exitCode = ee.ExitCode()
			return res, nil
		}
		if res.timedOut {
			res.exitCode = -1
			return res, nil
		}
		return res, err
	}
	return res, nil
}

// stderrTail returns the last non-empty stderr line for error messages.
func stderrTail(s string) string {
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if t := strings.TrimSpace(lines[i]); t != "" {
			return t
		}
	}
	return ""
}
