package directory

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRenderZeroResults(t *testing.T) {
	out := Renderer{}.Render(sampleDataset(), FilterState{Category: "Nothing"})
	if out.Count != "0 results" {
		t.Errorf("expected %q, got %q", "0 results", out.Count)
	}
	if out.Notice == nil || out.Notice.Title != "No results" {
		t.Errorf("expected an empty-state notice, got %+v", out.Notice)
	}
	if len(out.Cards) != 0 {
		t.Errorf("expected no cards, got %d", len(out.Cards))
	}
}

func TestCountText(t *testing.T) {
	tests := map[int]string{0: "0 results", 1: "1 result", 2: "2 results"}
	for n, want := range tests {
		if got := CountText(n); got != want {
			t.Errorf("CountText(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestActivePillsEscaped(t *testing.T) {
	pills := ActivePills(FilterState{Query: `<b>"x"</b>`, City: "Austin", Initial: "A"})
	if len(pills) != 3 {
		t.Fatalf("expected 3 pills, got %d", len(pills))
	}
	if pills[0].Label != "Search" || pills[1].Label != "City" || pills[2].Label != "A–Z" {
		t.Errorf("unexpected pill order: %+v", pills)
	}
	html := pills[0].HTML()
	if strings.Contains(html, "<b>") {
		t.Errorf("pill HTML not escaped: %s", html)
	}
	if !strings.Contains(html, "&lt;b&gt;&#34;x&#34;&lt;/b&gt;") {
		t.Errorf("unexpected escaped pill: %s", html)
	}
}

func TestRenderCard(t *testing.T) {
	rd := Renderer{Locale: ParseLocale("en-US"), Linker: SearchLinker{Engine: "https://s.example/?q="}}
	r := Resource{
		Name:        "Central Food Bank",
		Description: "Weekly pantry",
		City:        "Austin",
		Category:    "Food",
		Cost:        "Free",
		Tags:        []string{"pantry", " ", "groceries"},
		URL:         "centralfood.org",
		Updated:     "2025-03-01",
	}
	c := rd.Card(r)
	if c.Href != "https://centralfood.org" {
		t.Errorf("unexpected href %q", c.Href)
	}
	if c.Meta != "Austin • Food • Free • updated 3/1/2025" {
		t.Errorf("unexpected meta %q", c.Meta)
	}
	if c.Tags != "#pantry #groceries" {
		t.Errorf("unexpected tags %q", c.Tags)
	}
	if !c.NoLogo || c.Logo != "" {
		t.Error("expected the no-logo placeholder")
	}
}

func TestRenderCardOmitsEmptyMetaParts(t *testing.T) {
	c := Renderer{Locale: ParseLocale("en-US")}.Card(Resource{Category: "Legal", Updated: "garbage", Logo: "img/logo.png"})
	if c.Title != "Untitled" {
		t.Errorf("expected Untitled, got %q", c.Title)
	}
	if c.Meta != "Legal" {
		t.Errorf("expected meta %q, got %q", "Legal", c.Meta)
	}
	if c.NoLogo || c.Logo != "img/logo.png" {
		t.Errorf("expected logo to be kept, got %+v", c)
	}
	if !strings.HasPrefix(c.Href, DefaultSearchEngine) {
		t.Errorf("expected search fallback href, got %q", c.Href)
	}
}

func TestRenderError(t *testing.T) {
	out := RenderError(&LoadError{Kind: LoadShape, Source: "data/resources.json", Err: errNotArray})
	if out.Count != "0 results" {
		t.Errorf("expected 0 results, got %q", out.Count)
	}
	if out.Notice == nil || !strings.Contains(out.Notice.Body, "must be an array") {
		t.Errorf("unexpected notice %+v", out.Notice)
	}

	out = RenderError(errors.New("boom"))
	if out.Notice == nil || out.Notice.Body != "Could not load resources." {
		t.Errorf("unexpected generic notice %+v", out.Notice)
	}
}

func TestFormatDateLocales(t *testing.T) {
	d := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := map[string]string{
		"en-US": "3/1/2025",
		"en-GB": "01/03/2025",
		"es-MX": "1/3/2025",
		"de-DE": "1.3.2025",
		"":      "3/1/2025",
	}
	for tag, want := range tests {
		if got := ParseLocale(tag).FormatDate(d); got != want {
			t.Errorf("FormatDate(%s) = %q, want %q", tag, got, want)
		}
	}
}
