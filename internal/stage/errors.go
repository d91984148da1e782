package stage

import (
	"errors"
	"fmt"
	"sort"
)

// Failure kinds. Every failure is terminal for the run: no stage is
// retried and no compensating action runs between the publish and
// release nodes.
const (
	KindAuthentication  = "authentication-failure"
	KindVersionConflict = "version-conflict"
	KindBuild           = "build-failure"
	KindChangelog       = "changelog-generation-failure"
	KindReleaseCreation = "release-creation-failure"
	KindCheckout        = "checkout-failure"
	KindPublishRejected = "publish-rejected"
	KindNotesTransform  = "notes-transform-failure"
)

// Failure is a typed terminal stage error.
type Failure struct {
	Stage   string
	Kind    string
	Message string
}

func (f *Failure) Error() string { return f.Stage + ": " + sanitizeErrorMessage(f.Message) }

func failf(stageName, kind, format string, args ...any) *Failure {
	return &Failure{Stage: stageName, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AsFailure unwraps a typed failure from err, if one is present.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// FailureAsError converts a stage error into an envelope Error. Errors
// without a typed failure keep the stage name they surfaced from.
func FailureAsError(stageName string, err error) Error {
	if f, ok := AsFailure(err); ok {
		return Error{Stage: f.Stage, Kind: f.Kind, Message: sanitizeErrorMessage(f.Message)}
	}
	return Error{Stage: stageName, Message: sanitizeErrorMessage(err.Error())}
}

// SortEnvelopeErrors sorts errors by (stage, kind, message) deterministically.
func SortEnvelopeErrors(env *Envelope) {
	if env == nil || len(env.Errors) == 0 {
		return
	}
	sort.Slice(env.Errors, func(i, j int) bool {
		ei, ej := env.Errors[i], env.Errors[j]
		if ei.Stage != ej.Stage {
			return ei.Stage < ej.Stage
		}
		if ei.Kind != ej.Kind {
			return ei.Kind < ej.Kind
		}
		return ei.Message < ej.Message
	})
}
