package trigger

import (
	"strings"
	"testing"
)

func TestQualifies(t *testing.T) {
	cases := []struct {
		name string
		ev   Event
		want bool
	}{
		{"tag created", Event{Kind: KindTagCreated, Tag: "v1.2.0"}, true},
		{"unusual tag name", Event{Kind: KindTagCreated, Tag: "nightly-2026-08-30"}, true},
		{"branch push", Event{Kind: "branch_push", Tag: "v1.2.0"}, false},
		{"tag deleted", Event{Kind: "tag_deleted", Tag: "v1.2.0"}, false},
		{"empty tag", Event{Kind: KindTagCreated}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Qualifies(tc.ev); got != tc.want {
				t.Fatalf("Qualifies(%+v) = %v, want %v", tc.ev, got, tc.want)
			}
		})
	}
}

func TestEvaluateOneRunPerQualifyingEvent(t *testing.T) {
	input := strings.Join([]string{
		`{"kind":"tag_created","tag":"v1.1.0"}`,
		`{"kind":"branch_push","tag":"v9.9.9"}`,
		``,
		`{"kind":"tag_created","tag":"v1.2.0","repo":"demo","actor":"ci"}`,
		`{"kind":"tag_created","tag":"v1.2.0"}`,
	}, "\n")

	var runs []RunRequest
	err := Evaluate(strings.NewReader(input), func(r RunRequest) { runs = append(runs, r) }, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tags := make([]string, len(runs))
	ids := map[string]bool{}
	for i, r := range runs {
		tags[i] = r.Tag
		if r.ID == "" || ids[r.ID] {
			t.Fatalf("run IDs must be fresh and unique: %+v", runs)
		}
		ids[r.ID] = true
	}
	want := "v1.1.0,v1.2.0,v1.2.0"
	if got := strings.Join(tags, ","); got != want {
		t.Fatalf("got runs for %s, want %s", got, want)
	}
}

func TestEvaluateSkipsMalformedLines(t *testing.T) {
	input := "not json at all\n" +
		`{"kind":"tag_created","tag":"v1.2.0"}` + "\n"

	var runs []RunRequest
	var skipped []string
	err := Evaluate(strings.NewReader(input),
		func(r RunRequest) { runs = append(runs, r) },
		func(line string, err error) { skipped = append(skipped, line) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(skipped) != 1 || skipped[0] != "not json at all" {
		t.Fatalf("unexpected skips: %v", skipped)
	}
	if len(runs) != 1 || runs[0].Tag != "v1.2.0" {
		t.Fatalf("a bad line must not suppress later tags: %+v", runs)
	}
}
