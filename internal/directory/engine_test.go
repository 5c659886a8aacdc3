package directory

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type fakeTimer struct {
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// fakeClock captures debounced callbacks so tests decide when they fire.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) afterFunc(_ time.Duration, f func()) stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{f: f}
	c.timers = append(c.timers, t)
	return t
}

// fireAll runs every timer callback, including stopped ones, the way a timer
// that already fired before Stop would.
func (c *fakeClock) fireAll() {
	c.mu.Lock()
	timers := append([]*fakeTimer(nil), c.timers...)
	c.mu.Unlock()
	for _, t := range timers {
		t.f()
	}
}

type recordingScroller struct{ offsets []int }

func (s *recordingScroller) ScrollIntoView(offset int) { s.offsets = append(s.offsets, offset) }

func newTestEngine(t *testing.T, history *MemoryHistory) (*Engine, *Snapshot, *MemoryForm, *fakeClock, *recordingScroller) {
	t.Helper()
	snap := &Snapshot{}
	form := NewMemoryForm(nil)
	scroller := &recordingScroller{}
	e := New(Options{
		Target:   snap,
		Form:     form,
		History:  history,
		Scroller: scroller,
	})
	clock := &fakeClock{}
	e.afterFunc = clock.afterFunc
	e.SetDataset(sampleDataset())
	t.Cleanup(e.Close)
	return e, snap, form, clock, scroller
}

func cardTitles(out Output) []string {
	titles := make([]string, len(out.Cards))
	for i, c := range out.Cards {
		titles[i] = c.Title
	}
	return titles
}

func TestEngineTextChangeDebounced(t *testing.T) {
	e, snap, form, clock, _ := newTestEngine(t, nil)

	form.Set(FieldQuery, "pan")
	e.Changed(ChangeText)
	form.Set(FieldQuery, "pantry")
	e.Changed(ChangeText)

	if snap.Commits() != 0 {
		t.Fatalf("expected no render before the debounce fires, got %d", snap.Commits())
	}
	if !e.Pending() {
		t.Fatal("expected a pending render")
	}

	clock.fireAll()

	if snap.Commits() != 1 {
		t.Fatalf("expected exactly one render, got %d", snap.Commits())
	}
	if got := snap.Last().Count; got != "1 result" {
		t.Errorf("expected the latest query to win, got %q", got)
	}
	if e.Pending() {
		t.Error("expected no pending render after firing")
	}
}

func TestEngineControlChangeCancelsPendingText(t *testing.T) {
	e, snap, form, clock, _ := newTestEngine(t, nil)

	form.Set(FieldQuery, "clinic")
	e.Changed(ChangeText)
	form.Set(FieldCategory, "Legal")
	e.Changed(ChangeControl)

	if snap.Commits() != 1 {
		t.Fatalf("expected an immediate render for a control change, got %d", snap.Commits())
	}
	clock.fireAll()
	if snap.Commits() != 1 {
		t.Errorf("superseded text render still ran: %d renders", snap.Commits())
	}
	if titles := cardTitles(snap.Last()); len(titles) != 1 || titles[0] != "Legal Aid Texas" {
		t.Errorf("unexpected results %v", titles)
	}
}

func TestEngineFlush(t *testing.T) {
	e, snap, form, _, _ := newTestEngine(t, nil)
	form.Set(FieldQuery, "bayou")
	e.Changed(ChangeText)
	e.Flush()
	if snap.Commits() != 1 || snap.Last().Count != "1 result" {
		t.Errorf("expected flush to render now, got %d renders, %q", snap.Commits(), snap.Last().Count)
	}
	e.Flush()
	if snap.Commits() != 1 {
		t.Error("flush without a pending render should not render")
	}
}

func TestEngineApplyPresetReplacesState(t *testing.T) {
	history := NewMemoryHistory(&url.URL{Path: "/resources.html"})
	e, snap, form, _, scroller := newTestEngine(t, history)

	form.SetValues(url.Values{"city": {"Dallas"}, "initial": {"L"}, "sort": {"city-desc"}})
	if !e.ApplyPreset("free-clinics", true) {
		t.Fatal("expected free-clinics to apply")
	}

	st := StateFromForm(form.Values())
	want := FilterState{Query: "free clinic", Category: "Health", Cost: "Free", Sort: SortNameAsc}
	if st != want {
		t.Errorf("form state = %+v, want %+v", st, want)
	}
	if got := history.Location().Query().Get("key"); got != "free-clinics" {
		t.Errorf("expected key in pushed URL, got %q", got)
	}
	if history.Len() != 2 {
		t.Errorf("expected a pushed history entry, got %d entries", history.Len())
	}
	if titles := cardTitles(snap.Last()); len(titles) != 1 || titles[0] != "Free Clinic of Austin" {
		t.Errorf("unexpected results %v", titles)
	}
	if len(scroller.offsets) != 1 || scroller.offsets[0] != 72 {
		t.Errorf("expected one scroll with offset 72, got %v", scroller.offsets)
	}

	if e.ApplyPreset("unknown", true) {
		t.Error("unknown preset should not apply")
	}
}

func TestEnginePopState(t *testing.T) {
	history := NewMemoryHistory(&url.URL{Path: "/"})
	e, snap, form, _, _ := newTestEngine(t, history)

	e.ApplyPreset("free-clinics", true)
	form.SetValues(url.Values{"category": {"Food"}})

	// Back to the entry without a key: plain form state
	history.Back()
	e.PopState()
	if got := snap.Last().Count; got != "2 results" {
		t.Errorf("expected form state after back, got %q", got)
	}

	// Forward to the preset entry: preset state again
	history.Forward()
	e.PopState()
	if titles := cardTitles(snap.Last()); len(titles) != 1 || titles[0] != "Free Clinic of Austin" {
		t.Errorf("expected preset results after forward, got %v", titles)
	}
	if history.Len() != 2 {
		t.Errorf("pop state must not push entries, got %d", history.Len())
	}
}

func TestEngineReset(t *testing.T) {
	history := NewMemoryHistory(&url.URL{Path: "/", RawQuery: "key=free-clinics&lang=es"})
	e, snap, _, _, _ := newTestEngine(t, history)

	e.ApplyPreset("free-clinics", false)
	e.Reset()

	loc := history.Location()
	if loc.Query().Get("key") != "" || loc.Query().Get("lang") != "es" {
		t.Errorf("expected only key dropped, got %q", loc.RawQuery)
	}
	if got := snap.Last().Count; got != "5 results" {
		t.Errorf("expected all resources after reset, got %q", got)
	}
}

func TestEngineStartWithPresetKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resources.json")
	data := `[{"name":"Free Clinic","category":"Health","cost":"Free"},{"name":"Pantry","category":"Food"}]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("writing dataset: %v", err)
	}

	snap := &Snapshot{}
	scroller := &recordingScroller{}
	e := New(Options{
		Target:   snap,
		Form:     NewMemoryForm(nil),
		History:  NewMemoryHistory(&url.URL{Path: "/", RawQuery: "key=free-clinics"}),
		Scroller: scroller,
		Source:   Source{Location: path},
	})
	defer e.Close()

	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if titles := cardTitles(snap.Last()); len(titles) != 1 || titles[0] != "Free Clinic" {
		t.Errorf("unexpected results %v", titles)
	}
	if len(scroller.offsets) != 1 {
		t.Errorf("expected the directory to scroll into view, got %v", scroller.offsets)
	}
}

func TestEngineLoadFailureRendersErrorCard(t *testing.T) {
	snap := &Snapshot{}
	form := NewMemoryForm(nil)
	e := New(Options{
		Target: snap,
		Form:   form,
		Source: Source{Location: filepath.Join(t.TempDir(), "missing.json")},
	})
	defer e.Close()

	if err := e.Start(context.Background()); err == nil {
		t.Fatal("expected a load error")
	}
	out := snap.Last()
	if out.Count != "0 results" || out.Notice == nil || out.Err == nil {
		t.Errorf("expected an error card with 0 results, got %+v", out)
	}

	// Still interactive
	form.Set(FieldCategory, "Food")
	e.Changed(ChangeControl)
	if snap.Commits() != 2 || snap.Last().Count != "0 results" {
		t.Errorf("expected another error render, got %d renders", snap.Commits())
	}
}

func TestEngineOnFilterStateChanged(t *testing.T) {
	e, snap, _, _, _ := newTestEngine(t, nil)
	out := e.OnFilterStateChanged(FilterState{Initial: "B", Sort: SortNameAsc})
	if len(out.Cards) != 1 || out.Cards[0].Title != "bayou counseling" {
		t.Errorf("unexpected output %+v", out.Cards)
	}
	if len(snap.Last().Pills) != 1 {
		t.Errorf("expected one pill, got %v", snap.Last().Pills)
	}
}
