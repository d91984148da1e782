// Package pipeline wires the two-node release task graph: a publish
// node and a release node gated on its success. Nodes are isolated
// execution units; the only cross-node state is the tag string and
// the pass/fail signal.
package pipeline

import (
	"context"

	"github.com/flarebyte/khepri-release/internal/stage"
)

// Node is one gated unit of pipeline work. Stages run sequentially; a
// node starts only when every node it needs has completed.
type Node struct {
	Name   string
	Needs  []string
	Stages []string
}

// PublishNode and ReleaseNode name the two graph nodes.
const (
	PublishNode = "publish"
	ReleaseNode = "release"
)

// Nodes returns the deterministic node order for a release run.
func Nodes() []Node {
	return []Node{
		{
			Name: PublishNode,
			Stages: []string{
				"checkout-source",
				"registry-auth",
				"set-manifest-version",
				"build-artifact",
				"publish-artifact",
			},
		},
		{
			Name:  ReleaseNode,
			Needs: []string{PublishNode},
			Stages: []string{
				"checkout-release",
				"generate-changelog",
				"transform-notes",
				"create-release",
			},
		},
	}
}

func needsMet(n Node, done map[string]bool) bool {
	for _, need := range n.Needs {
		if !done[need] {
			return false
		}
	}
	return true
}

// Execute runs nodes in declaration order and short-circuits on the
// first stage failure: the failure is recorded in the envelope, the
// node does not complete, and nodes needing it never start. No stage
// is retried and nothing is rolled back.
func Execute(ctx context.Context, nodes []Node, in stage.Envelope, deps stage.Deps) (stage.Envelope, string) {
	out := in
	done := map[string]bool{}
	for _, n := range nodes {
		if !needsMet(n, done) {
			continue
		}
		failed := false
		for _, name := range n.Stages {
			next, err := stage.Run(ctx, name, out, deps)
			if err != nil {
				out.Errors = append(out.Errors, stage.FailureAsError(name, err))
				stage.SortEnvelopeErrors(&out)
				failed = true
				break
			}
			out = next
		}
		if failed {
			return out, n.Name
		}
		done[n.Name] = true
	}
	return out, ""
}
