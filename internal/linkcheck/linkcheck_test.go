package linkcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/matheuskafuri/resourcehub/internal/directory"
)

func TestTargetsDedupesAndSkips(t *testing.T) {
	ds := directory.Dataset{
		{Name: "A", URL: "example.org"},
		{Name: "B", URL: "https://example.org"},
		{Name: "C", URL: "#"},
		{Name: "D"},
	}
	got := Targets(ds)
	want := map[string][]string{"https://example.org": {"A", "B"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("targets mismatch (-want +got):\n%s", diff)
	}
}

func TestCheck(t *testing.T) {
	var heads, gets atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			heads.Add(1)
		} else {
			gets.Add(1)
		}
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/nohead":
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ds := directory.Dataset{
		{Name: "Good", URL: srv.URL + "/ok"},
		{Name: "Good again", URL: srv.URL + "/ok"},
		{Name: "Head refused", URL: srv.URL + "/nohead"},
		{Name: "Gone", URL: srv.URL + "/gone"},
	}

	results, err := New(5*time.Second, nil).Check(context.Background(), ds)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 unique links, got %d", len(results))
	}

	failed := Failures(results)
	if len(failed) != 1 || failed[0].Status != http.StatusNotFound || failed[0].Names[0] != "Gone" {
		t.Errorf("failures = %+v", failed)
	}
	if heads.Load() != 3 {
		t.Errorf("HEAD requests = %d, want 3", heads.Load())
	}
	if gets.Load() != 1 {
		t.Errorf("GET fallbacks = %d, want 1", gets.Load())
	}
}

func TestCheckCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(time.Second, nil).Check(ctx, directory.Dataset{{URL: "https://example.invalid"}})
	if err == nil {
		t.Error("expected context error")
	}
}
