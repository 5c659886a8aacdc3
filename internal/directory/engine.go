package directory

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// ChangeKind tells the engine which kind of control changed.
type ChangeKind int

const (
	// ChangeText is a free-text edit. Renders are debounced.
	ChangeText ChangeKind = iota
	// ChangeControl is a select/dropdown change. Renders run immediately.
	ChangeControl
)

// DefaultDebounce is the idle delay before a free-text edit re-renders.
const DefaultDebounce = 160 * time.Millisecond

type stopper interface {
	Stop() bool
}

// Options configures an Engine. Target and Form are required.
type Options struct {
	Target       Target
	Form         Form
	History      History
	Scroller     Scroller
	Presets      Presets
	Renderer     Renderer
	Source       Source
	Client       *http.Client
	Debounce     time.Duration
	HeaderOffset int
	Logger       *zap.Logger
}

// Engine owns the dataset and recomputes the directory on every change.
// The displayed output is always a function of the current form and URL.
type Engine struct {
	opts   Options
	logger *zap.Logger

	mu         sync.Mutex
	dataset    Dataset
	loadErr    error
	pending    stopper
	generation uint64

	// renderMu serializes reading the form and pushing to the target so
	// renders reach the target in the order their state was read.
	renderMu sync.Mutex

	afterFunc func(time.Duration, func()) stopper
}

func New(opts Options) *Engine {
	if opts.Presets == nil {
		opts.Presets = DefaultPresets()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.HeaderOffset <= 0 {
		opts.HeaderOffset = 72
	}
	if opts.History == nil {
		opts.History = NewMemoryHistory(nil)
	}
	if opts.Renderer.Locale.Tag == language.Und {
		opts.Renderer.Locale = ParseLocale("en-US")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		opts:   opts,
		logger: logger,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
	}
}

// Load fetches the dataset. On failure the target shows an error card with
// zero results and the engine keeps accepting input.
func (e *Engine) Load(ctx context.Context) error {
	ds, err := LoadDataset(ctx, e.opts.Client, e.opts.Source)
	if err != nil {
		e.logger.Warn("dataset load failed", zap.String("source", e.opts.Source.Location), zap.Error(err))
		e.mu.Lock()
		e.dataset = nil
		e.loadErr = err
		e.mu.Unlock()
		e.push(RenderError(err))
		return err
	}
	e.SetDataset(ds)
	e.logger.Debug("dataset loaded", zap.Int("resources", len(ds)))
	return nil
}

// SetDataset replaces the in-memory dataset without rendering.
func (e *Engine) SetDataset(ds Dataset) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dataset = ds
	e.loadErr = nil
}

// Dataset returns the loaded dataset.
func (e *Engine) Dataset() Dataset {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dataset
}

// Presets returns the preset table in use.
func (e *Engine) Presets() Presets {
	return e.opts.Presets
}

// Start loads the dataset and renders the initial state: the preset named by
// the URL key when there is one, otherwise the form.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.Load(ctx); err != nil {
		return err
	}
	key := e.opts.History.Location().Query().Get(PresetKeyParam)
	if _, ok := e.opts.Presets.Lookup(key); ok {
		e.applyPreset(key, false, true)
		return nil
	}
	e.Render()
	return nil
}

// Render recomputes the output from the current form values.
func (e *Engine) Render() Output {
	e.renderMu.Lock()
	defer e.renderMu.Unlock()
	return e.renderLocked(StateFromForm(e.opts.Form.Values()))
}

// OnFilterStateChanged renders an explicit state.
func (e *Engine) OnFilterStateChanged(st FilterState) Output {
	e.renderMu.Lock()
	defer e.renderMu.Unlock()
	return e.renderLocked(st)
}

func (e *Engine) renderLocked(st FilterState) Output {
	e.mu.Lock()
	ds, loadErr := e.dataset, e.loadErr
	e.mu.Unlock()

	var out Output
	if loadErr != nil {
		out = RenderError(loadErr)
	} else {
		out = e.opts.Renderer.Render(ds, st)
	}
	e.pushLocked(out)
	return out
}

func (e *Engine) push(out Output) {
	e.renderMu.Lock()
	defer e.renderMu.Unlock()
	e.pushLocked(out)
}

func (e *Engine) pushLocked(out Output) {
	t := e.opts.Target
	t.SetResults(out)
	t.SetPills(out.Pills)
	t.SetCount(out.Count)
	if c, ok := t.(Committer); ok {
		c.Commit()
	}
}

// Changed schedules a render for a control change. Text edits wait for the
// debounce delay; any newer change cancels a pending render.
func (e *Engine) Changed(kind ChangeKind) {
	e.mu.Lock()
	e.cancelPendingLocked()
	if kind == ChangeControl {
		e.mu.Unlock()
		e.Render()
		return
	}
	gen := e.generation
	e.pending = e.afterFunc(e.opts.Debounce, func() { e.fire(gen) })
	e.mu.Unlock()
}

func (e *Engine) fire(gen uint64) {
	e.mu.Lock()
	if gen != e.generation {
		e.mu.Unlock()
		return
	}
	e.pending = nil
	e.mu.Unlock()
	e.Render()
}

func (e *Engine) cancelPendingLocked() {
	if e.pending != nil {
		e.pending.Stop()
		e.pending = nil
	}
	e.generation++
}

// Pending reports whether a debounced render is scheduled.
func (e *Engine) Pending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending != nil
}

// Flush runs a pending debounced render now.
func (e *Engine) Flush() {
	e.mu.Lock()
	had := e.pending != nil
	e.cancelPendingLocked()
	e.mu.Unlock()
	if had {
		e.Render()
	}
}

// ApplyPreset replaces the form with the preset, optionally pushes a history
// entry carrying the key, renders and scrolls the directory into view.
// Unknown keys are ignored.
func (e *Engine) ApplyPreset(key string, push bool) bool {
	return e.applyPreset(key, push, true)
}

func (e *Engine) applyPreset(key string, push, scroll bool) bool {
	preset, ok := e.opts.Presets.Lookup(key)
	if !ok {
		return false
	}
	e.mu.Lock()
	e.cancelPendingLocked()
	e.mu.Unlock()

	e.opts.Form.SetValues(preset.State().Values())
	if push {
		u := e.opts.History.Location()
		q := u.Query()
		q.Set(PresetKeyParam, key)
		u.RawQuery = q.Encode()
		e.opts.History.Push(u)
	}
	e.Render()
	if scroll && e.opts.Scroller != nil {
		e.opts.Scroller.ScrollIntoView(e.opts.HeaderOffset)
	}
	return true
}

// PopState re-resolves the state after a history move: the preset in the
// current URL, or the plain form state.
func (e *Engine) PopState() {
	key := e.opts.History.Location().Query().Get(PresetKeyParam)
	if e.applyPreset(key, false, false) {
		return
	}
	e.mu.Lock()
	e.cancelPendingLocked()
	e.mu.Unlock()
	e.Render()
}

// Reset clears every filter, drops the preset key from the URL and renders.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.cancelPendingLocked()
	e.mu.Unlock()

	e.opts.Form.Reset()
	u := e.opts.History.Location()
	q := u.Query()
	q.Del(PresetKeyParam)
	u.RawQuery = q.Encode()
	e.opts.History.Replace(u)
	e.Render()
}

// Close cancels any pending render.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelPendingLocked()
}
