package stage

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
)

const createReleaseStage = "create-release"

type releaseRequest struct {
	TagName string `json:"tag_name"`
	Name    string `json:"name"`
	Body    string `json:"body"`
}

type releaseResponse struct {
	ID      int64  `json:"id"`
	HTMLURL string `json:"html_url"`
}

// createReleaseRunner creates the durable release record on the
// hosting platform, keyed by the tag, with the changelog as its body.
// The record is created at most once; a duplicate is a terminal
// rejection, never an update.
func createReleaseRunner(ctx context.Context, in Envelope, deps Deps) (Envelope, error) {
	if in.Meta == nil || in.Meta.Release == nil || in.Meta.Release.APIURL == "" {
		return Envelope{}, failf(createReleaseStage, KindReleaseCreation, "release API not configured")
	}
	if !deps.HostingToken.IsSet() {
		return Envelope{}, failf(createReleaseStage, KindAuthentication, "hosting credential not set")
	}
	if in.Release == nil || in.Release.Body() == "" {
		return Envelope{}, failf(createReleaseStage, KindReleaseCreation, "changelog body missing")
	}

	payload, err := json.Marshal(releaseRequest{TagName: in.Tag, Name: in.Tag, Body: in.Release.Body()})
	if err != nil {
		return Envelope{}, failf(createReleaseStage, KindReleaseCreation, "encode request: %v", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, in.Meta.Release.APIURL, bytes.NewReader(payload))
	if err != nil {
		return Envelope{}, failf(createReleaseStage, KindReleaseCreation, "release request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+deps.HostingToken.Reveal())
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := deps.httpClient().Do(req)
	if err != nil {
		return Envelope{}, failf(createReleaseStage, KindReleaseCreation, "hosting platform unreachable: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Envelope{}, failf(createReleaseStage, KindAuthentication, "hosting credential rejected (status %d)", resp.StatusCode)
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusUnprocessableEntity:
		return Envelope{}, failf(createReleaseStage, KindReleaseCreation, "release already exists for %s (status %d)", in.Tag, resp.StatusCode)
	default:
		return Envelope{}, failf(createReleaseStage, KindReleaseCreation, "release creation failed (status %d)", resp.StatusCode)
	}

	var rr releaseResponse
	// A body that does not decode still means the record was created.
	_ = json.NewDecoder(resp.Body).Decode(&rr)

	out := in
	r := *in.Release
	r.URL = rr.HTMLURL
	r.ID = rr.ID
	r.Created = true
	out.Release = &r
	return out, nil
}

func init() { Register(createReleaseStage, createReleaseRunner) }
