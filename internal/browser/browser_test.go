package browser

import (
	"strings"
	"testing"

	"github.com/matheuskafuri/resourcehub/internal/directory"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://example.com", false},
		{"http://example.com/path?q=1", false},
		{"file:///etc/passwd", true},
		{"javascript:alert(1)", true},
		{"ftp://example.com", true},
		{"https://", true},
		{"", true},
	}

	for _, tt := range tests {
		err := Validate(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
}

func TestOpenURLRejectsBeforeLaunch(t *testing.T) {
	launched := false
	o := Opener{Launch: func(string) error { launched = true; return nil }}
	if err := o.OpenURL("javascript:alert(1)"); err == nil {
		t.Error("expected error")
	}
	if launched {
		t.Error("launcher ran for a rejected URL")
	}
}

func TestOpenResource(t *testing.T) {
	var got []string
	o := Opener{
		Linker: directory.SearchLinker{Region: "Texas"},
		Launch: func(u string) error { got = append(got, u); return nil },
	}

	link, err := o.OpenResource(directory.Resource{Name: "Food Bank", URL: "foodbank.org"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if link != "https://foodbank.org" {
		t.Errorf("link = %q", link)
	}

	link, err = o.OpenResource(directory.Resource{Name: "Food Bank", City: "Austin", URL: "#"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !strings.HasPrefix(link, directory.DefaultSearchEngine) || !strings.Contains(link, "Texas") {
		t.Errorf("search link = %q", link)
	}
	if len(got) != 2 {
		t.Errorf("launched %d times, want 2", len(got))
	}
}
