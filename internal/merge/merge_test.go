package merge

import (
	"reflect"
	"testing"
	"time"
)

type profile struct {
	Email   *string           `json:"email,omitempty"`
	Agreed  *bool             `json:"agreed,omitempty"`
	Tags    []string          `json:"tags,omitempty"`
	Extra   map[string]string `json:"extra,omitempty"`
	Visits  int               `json:"visits"`
	private string
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestOverlayKeepsUnmentionedReferences(t *testing.T) {
	base := profile{
		Email:  strPtr("a@example.com"),
		Agreed: boolPtr(true),
		Tags:   []string{"x"},
		Extra:  map[string]string{"k": "v"},
		Visits: 3,
	}
	patch := profile{Email: strPtr("b@example.com"), Extra: map[string]string{"n": "m"}, Visits: 4}

	got := Overlay(base, patch)

	if *got.Email != "b@example.com" {
		t.Fatalf("expected patched email, got %q", *got.Email)
	}
	if got.Agreed == nil || !*got.Agreed {
		t.Fatalf("expected agreed preserved, got %v", got.Agreed)
	}
	if !reflect.DeepEqual(got.Tags, []string{"x"}) {
		t.Fatalf("expected tags preserved, got %v", got.Tags)
	}
	if !reflect.DeepEqual(got.Extra, map[string]string{"k": "v", "n": "m"}) {
		t.Fatalf("expected maps merged, got %v", got.Extra)
	}
	if got.Visits != 4 {
		t.Fatalf("expected scalar overwritten, got %d", got.Visits)
	}

	*got.Agreed = false
	if !*base.Agreed {
		t.Fatalf("expected overlay result detached from base")
	}
}

func TestCloneDetachesReferences(t *testing.T) {
	src := profile{Email: strPtr("a"), Tags: []string{"x"}, Extra: map[string]string{"k": "v"}, private: "p"}
	clone := Clone(src)

	*clone.Email = "b"
	clone.Tags[0] = "y"
	clone.Extra["k"] = "w"

	if *src.Email != "a" || src.Tags[0] != "x" || src.Extra["k"] != "v" {
		t.Fatalf("expected source untouched, got %+v", src)
	}
	if clone.private != "p" {
		t.Fatalf("expected unexported field copied, got %q", clone.private)
	}
}

type stamped struct {
	At    time.Time  `json:"at"`
	Seen  *time.Time `json:"seen,omitempty"`
	Count int        `json:"count"`
}

func TestCloneAndOverlayKeepTimes(t *testing.T) {
	at := time.Date(2024, time.March, 5, 10, 30, 0, 0, time.UTC)
	seen := at.Add(time.Hour)
	src := stamped{At: at, Seen: &seen, Count: 1}

	clone := Clone(src)
	if !clone.At.Equal(at) || clone.Seen == nil || !clone.Seen.Equal(seen) {
		t.Fatalf("expected times cloned, got %+v", clone)
	}
	if clone.Seen == src.Seen {
		t.Fatalf("expected pointer detached")
	}

	if fields := Fields(src); fields["at"] != at {
		t.Fatalf("expected time kept as a leaf, got %#v", fields["at"])
	}

	got := Overlay(src, stamped{At: at.AddDate(0, 0, 1), Count: 2})
	if !got.At.Equal(at.AddDate(0, 0, 1)) || got.Seen == nil || !got.Seen.Equal(seen) || got.Count != 2 {
		t.Fatalf("unexpected overlay result %+v", got)
	}
}

func TestChangedUsesJSONNames(t *testing.T) {
	prev := profile{Visits: 1, Email: strPtr("a")}
	next := profile{Visits: 2, Email: strPtr("a"), Agreed: boolPtr(false)}

	got := Changed(prev, next)
	if !reflect.DeepEqual(got, []string{"agreed", "visits"}) {
		t.Fatalf("unexpected changed fields: %v", got)
	}
	if Changed(1, 2) != nil {
		t.Fatalf("expected nil for non-struct values")
	}
}

func TestFieldsFlattensNamedScalars(t *testing.T) {
	type mode string
	type wrapper struct {
		Mode  mode     `json:"mode"`
		Inner *profile `json:"inner"`
		Nil   *profile `json:"nil"`
	}
	got := Fields(wrapper{Mode: "dark", Inner: &profile{Visits: 2}})

	if got["mode"] != "dark" {
		t.Fatalf("expected plain string mode, got %#v", got["mode"])
	}
	inner, ok := got["inner"].(map[string]any)
	if !ok || inner["visits"] != int64(2) || inner["email"] != nil {
		t.Fatalf("unexpected inner fields: %#v", got["inner"])
	}
	if got["nil"] != nil {
		t.Fatalf("expected nil pointer mapped to nil, got %#v", got["nil"])
	}
}
