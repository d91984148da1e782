package pipeline

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/flarebyte/khepri-release/internal/stage"
)

// RenderLine writes the envelope as exactly one compact JSON line.
func RenderLine(w io.Writer, env stage.Envelope) error {
	stage.SortEnvelopeErrors(&env)
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(env); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// CleanupWorkdirs removes the per-run checkouts. Envelope paths stay
// in place so the output still says where the run worked.
func CleanupWorkdirs(env stage.Envelope) {
	if env.Publish != nil && env.Publish.Workdir != "" {
		_ = os.RemoveAll(env.Publish.Workdir)
	}
	if env.Release != nil && env.Release.Workdir != "" {
		_ = os.RemoveAll(env.Release.Workdir)
	}
}
