package directory

import (
	"strings"
	"testing"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"example.org/path", "https://example.org/path"},
		{"#", ""},
		{"", ""},
		{"   ", ""},
		{"https://x.com", "https://x.com"},
		{"HTTP://X.COM/a", "HTTP://X.COM/a"},
		{"  https://padded.org  ", "https://padded.org"},
		{"//cdn.example.org/page", "https://cdn.example.org/page"},
		{"sub.domain.co.uk", "https://sub.domain.co.uk"},
		{"/relative/path", ""},
		{"./resources.html", ""},
		{"//", ""},
		{"https://", ""},
		{"http:///path", ""},
		{"https://?q=1", ""},
		{"javascript:alert(1)", ""},
		{"mailto:help@example.org", ""},
		{"not a url", ""},
	}
	for _, tt := range tests {
		if got := NormalizeURL(tt.input); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDisplayURLPrefersResourceURL(t *testing.T) {
	l := SearchLinker{}
	r := Resource{Name: "Food Bank", URL: "foodbank.org"}
	if got := l.DisplayURL(r); got != "https://foodbank.org" {
		t.Errorf("DisplayURL = %q, want https://foodbank.org", got)
	}
}

func TestDisplayURLFallsBackToSearch(t *testing.T) {
	l := SearchLinker{Engine: "https://search.example/?q=", Region: "Texas"}
	r := Resource{Name: "Food Bank", City: "Austin", Category: "Food", URL: "#"}
	got := l.DisplayURL(r)
	want := "https://search.example/?q=Food+Bank+Austin+Texas+Food"
	if got != want {
		t.Errorf("DisplayURL = %q, want %q", got, want)
	}
	if got != l.DisplayURL(r) {
		t.Error("fallback URL is not deterministic")
	}
}

func TestSearchURLDefaultEngineSkipsEmptyParts(t *testing.T) {
	got := SearchLinker{}.SearchURL(Resource{Name: "Clinic"})
	if !strings.HasPrefix(got, DefaultSearchEngine) {
		t.Errorf("expected default engine prefix, got %q", got)
	}
	if !strings.HasSuffix(got, "q=Clinic") {
		t.Errorf("expected only the name in the query, got %q", got)
	}
}
