package run

import (
	"fmt"

	"github.com/flarebyte/khepri-release/internal/stage"
)

// Exit codes distinguish where the run stopped: a release-stage
// failure means the artifact is already published with no release
// record, which callers need to tell apart from a failed publish.
const (
	exitCodeSuccess    = 0
	exitCodePublishErr = 1
	exitCodeReleaseErr = 2
)

type runExitError struct {
	code int
	msg  string
}

func (e runExitError) Error() string { return e.msg }
func (e runExitError) ExitCode() int { return e.code }

func publishSucceeded(env stage.Envelope) bool {
	return env.Publish != nil && env.Publish.Published
}

func firstErrorMessage(env stage.Envelope) string {
	if len(env.Errors) == 0 {
		return "error"
	}
	e := env.Errors[0]
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func evaluateRunExit(env stage.Envelope) error {
	if len(env.Errors) == 0 {
		return nil
	}
	if publishSucceeded(env) {
		return runExitError{code: exitCodeReleaseErr, msg: firstErrorMessage(env)}
	}
	return runExitError{code: exitCodePublishErr, msg: firstErrorMessage(env)}
}
