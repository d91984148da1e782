// Package trigger is the pipeline's trigger evaluator: a pure filter
// over a stream of repository events. It selects tag-creation events,
// any tag name, and emits exactly one run request per qualifying
// event. No deduplication, no retries: the same tag pushed twice means
// two runs, and the publish stage's version-conflict check owns
// idempotence.
package trigger

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/google/uuid"
)

// KindTagCreated is the only event kind that starts a run.
const KindTagCreated = "tag_created"

// Event is one repository event, decoded from a JSON line.
type Event struct {
	Kind  string `json:"kind"`
	Tag   string `json:"tag"`
	Repo  string `json:"repo,omitempty"`
	Actor string `json:"actor,omitempty"`
}

// RunRequest asks for one pipeline run for one tag.
type RunRequest struct {
	ID  string `json:"id"`
	Tag string `json:"tag"`
}

// Qualifies reports whether an event starts a run. Any non-empty tag
// name qualifies; there is no pattern restriction.
func Qualifies(ev Event) bool {
	return ev.Kind == KindTagCreated && ev.Tag != ""
}

// Evaluate reads JSON-line events from r and calls emit once per
// qualifying event, with a fresh run ID. Lines that do not decode are
// reported through skip and do not stop the stream; a bad event must
// not suppress later tags.
func Evaluate(r io.Reader, emit func(RunRequest), skip func(line string, err error)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var ev Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			if skip != nil {
				skip(line, err)
			}
			continue
		}
		if !Qualifies(ev) {
			continue
		}
		emit(RunRequest{ID: uuid.NewString(), Tag: ev.Tag})
	}
	return sc.Err()
}
