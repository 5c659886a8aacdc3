package offline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// State is a worker's position in its install/activate lifecycle.
type State int

const (
	StateUninstalled State = iota
	StateInstalling
	StateInstalled
	StateActivating
	StateActive
	// StateRedundant is terminal: the worker failed to install or was superseded.
	StateRedundant
)

func (s State) String() string {
	switch s {
	case StateUninstalled:
		return "uninstalled"
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateActivating:
		return "activating"
	case StateActive:
		return "active"
	case StateRedundant:
		return "redundant"
	default:
		return "unknown"
	}
}

// WorkerConfig names one cache version and what it precaches.
type WorkerConfig struct {
	Prefix  string
	Version string
	// Scope is the origin URL the shell and offline page resolve against.
	Scope       *url.URL
	Shell       []string
	OfflinePage string
	SkipWaiting bool
	// InstallConcurrency bounds parallel shell fetches. Zero means 8.
	InstallConcurrency int
	// RefreshTimeout bounds a background revalidation. Zero means 30s.
	RefreshTimeout time.Duration
}

// Worker applies the caching strategies for one cache version.
type Worker struct {
	cfg     WorkerConfig
	storage *Storage
	fetcher Fetcher
	logger  *zap.Logger

	static  *Bucket
	dynamic *Bucket

	mu    sync.Mutex
	state State

	// writes guards cache writes; sealed is set once a newer version is
	// about to purge this worker's stores.
	writes sync.RWMutex
	sealed bool

	bg sync.WaitGroup
}

func NewWorker(cfg WorkerConfig, storage *Storage, fetcher Fetcher, logger *zap.Logger) (*Worker, error) {
	if cfg.Prefix == "" || cfg.Version == "" {
		return nil, fmt.Errorf("worker: prefix and version are required")
	}
	if cfg.Scope == nil || !cfg.Scope.IsAbs() {
		return nil, fmt.Errorf("worker: scope must be an absolute url")
	}
	if storage == nil || fetcher == nil {
		return nil, fmt.Errorf("worker: storage and fetcher are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Scope = baseURL(cfg.Scope)
	if cfg.InstallConcurrency <= 0 {
		cfg.InstallConcurrency = 8
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = 30 * time.Second
	}
	w := &Worker{
		cfg:     cfg,
		storage: storage,
		fetcher: fetcher,
		logger:  logger.With(zap.String("version", cfg.Version)),
	}
	w.static = storage.Bucket(w.StaticStore())
	w.dynamic = storage.Bucket(w.DynamicStore())
	return w, nil
}

func (w *Worker) StaticStore() string  { return w.cfg.Prefix + "-static-" + w.cfg.Version }
func (w *Worker) DynamicStore() string { return w.cfg.Prefix + "-dynamic-" + w.cfg.Version }

// CacheName is the version identifier reported to clients.
func (w *Worker) CacheName() string { return w.cfg.Prefix + "-" + w.cfg.Version }

func (w *Worker) SkipsWaiting() bool { return w.cfg.SkipWaiting }

func (w *Worker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Worker) setState(s State) {
	w.mu.Lock()
	prev := w.state
	w.state = s
	w.mu.Unlock()
	if prev != s {
		w.logger.Debug("worker state", zap.Stringer("from", prev), zap.Stringer("to", s))
	}
}

// ownsStore reports whether a store name belongs to this version.
func (w *Worker) ownsStore(name string) bool {
	return name == w.StaticStore() || name == w.DynamicStore()
}

// ShellURLs resolves the shell asset list against the scope.
func (w *Worker) ShellURLs() ([]string, error) {
	seen := make(map[string]bool, len(w.cfg.Shell))
	var out []string
	for _, p := range w.cfg.Shell {
		u, err := w.resolve(p)
		if err != nil {
			return nil, err
		}
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out, nil
}

func (w *Worker) resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid asset %q: %w", ref, err)
	}
	return cacheKey(w.cfg.Scope.ResolveReference(u)), nil
}

// Install fetches every shell asset and stores them together. If any asset
// fails nothing is written and the worker becomes redundant.
func (w *Worker) Install(ctx context.Context) error {
	w.setState(StateInstalling)

	urls, err := w.ShellURLs()
	if err != nil {
		w.setState(StateRedundant)
		return &CacheError{Kind: InstallIncomplete, Err: err}
	}

	var (
		mu      sync.Mutex
		fetched = make(map[string]*Response, len(urls))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.InstallConcurrency)
	for _, u := range urls {
		g.Go(func() error {
			req, err := http.NewRequestWithContext(gctx, http.MethodGet, u, nil)
			if err != nil {
				return &CacheError{Kind: InstallIncomplete, URL: u, Err: err}
			}
			resp, err := w.fetcher.Fetch(gctx, req)
			if err != nil {
				return &CacheError{Kind: InstallIncomplete, URL: u, Err: err}
			}
			if !resp.OK() {
				return &CacheError{Kind: InstallIncomplete, URL: u, Err: fmt.Errorf("HTTP %d", resp.Status)}
			}
			mu.Lock()
			fetched[u] = resp
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		w.logger.Error("install failed", zap.Error(err))
		w.setState(StateRedundant)
		return err
	}

	if err := w.storage.PutAll(w.StaticStore(), fetched); err != nil {
		w.logger.Error("install failed", zap.Error(err))
		w.setState(StateRedundant)
		return &CacheError{Kind: InstallIncomplete, Err: err}
	}

	w.logger.Info("shell precached", zap.String("store", w.StaticStore()), zap.Int("assets", len(fetched)))
	w.setState(StateInstalled)
	return nil
}

// Resume marks the worker installed when its static store survives from an
// earlier run, so a restart needs no network. It reports whether it did.
func (w *Worker) Resume() bool {
	if w.State() != StateUninstalled {
		return false
	}
	ok, err := w.storage.Has(w.StaticStore())
	if err != nil {
		w.logger.Warn("checking installed store", zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	w.setState(StateInstalled)
	return true
}

// Activate deletes every store this version does not own and starts serving.
func (w *Worker) Activate(ctx context.Context) error {
	if s := w.State(); s != StateInstalled {
		return fmt.Errorf("worker: cannot activate from state %s", s)
	}
	w.setState(StateActivating)

	names, err := w.storage.Keys()
	if err != nil {
		w.setState(StateInstalled)
		return fmt.Errorf("listing stores: %w", err)
	}
	var errs []error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if w.ownsStore(name) {
			continue
		}
		if _, err := w.storage.Delete(name); err != nil {
			w.logger.Warn("deleting stale store", zap.String("store", name), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		w.logger.Info("deleted stale store", zap.String("store", name))
	}

	w.setState(StateActive)
	return errors.Join(errs...)
}

func (w *Worker) retire() {
	w.seal(true)
	w.setState(StateRedundant)
}

// seal stops or resumes cache writes. Sealing waits for writes in flight, so
// once it returns no store of this worker will be created again.
func (w *Worker) seal(sealed bool) {
	w.writes.Lock()
	w.sealed = sealed
	w.writes.Unlock()
}

// Handle answers a request with the strategy for its class. It never
// returns nil: every failure ends in a cached copy or an explicit error response.
func (w *Worker) Handle(ctx context.Context, r *http.Request) *Response {
	if r.Method != http.MethodGet || (r.URL.Scheme != "http" && r.URL.Scheme != "https") {
		return w.passthrough(ctx, r)
	}
	switch Classify(r) {
	case ClassStatic:
		return w.cacheFirst(ctx, r)
	case ClassData:
		return w.staleWhileRevalidate(ctx, r)
	case ClassNavigation:
		return w.networkFirstWithFallback(ctx, r)
	default:
		return w.networkFirst(ctx, r)
	}
}

// Wait blocks until every background revalidation has finished.
func (w *Worker) Wait() {
	w.bg.Wait()
}

func (w *Worker) passthrough(ctx context.Context, r *http.Request) *Response {
	resp, err := w.fetcher.Fetch(ctx, r)
	if err != nil {
		w.fetchFailed(r, err)
		return textResponse(http.StatusBadGateway, "Network error")
	}
	return resp
}

func (w *Worker) cacheFirst(ctx context.Context, r *http.Request) *Response {
	key := cacheKey(r.URL)
	if cached := w.matchAny(key); cached != nil {
		return cached
	}
	resp, err := w.fetcher.Fetch(ctx, r)
	if err != nil {
		w.fetchFailed(r, err)
		return textResponse(http.StatusServiceUnavailable, "Network error")
	}
	if resp.OK() {
		w.put(w.static, key, resp)
	}
	return resp
}

func (w *Worker) staleWhileRevalidate(ctx context.Context, r *http.Request) *Response {
	key := cacheKey(r.URL)
	cached, ok, err := w.dynamic.Match(key)
	if err != nil {
		w.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}
	if ok {
		w.revalidate(ctx, r, key)
		return cached
	}

	resp, err := w.fetcher.Fetch(ctx, r)
	if err != nil {
		w.fetchFailed(r, err)
		return textResponse(http.StatusServiceUnavailable, "Offline")
	}
	if resp.OK() {
		w.put(w.dynamic, key, resp)
	}
	return resp
}

// revalidate refreshes key in the background. It outlives the request, so
// it detaches from the request's cancellation.
func (w *Worker) revalidate(ctx context.Context, r *http.Request, key string) {
	bgctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.cfg.RefreshTimeout)
	req := r.Clone(bgctx)
	w.bg.Add(1)
	go func() {
		defer w.bg.Done()
		defer cancel()
		resp, err := w.fetcher.Fetch(bgctx, req)
		if err != nil {
			w.fetchFailed(req, err)
			return
		}
		if !resp.OK() {
			return
		}
		if d, ok, _ := w.dynamic.Digest(key); ok && d == Digest(resp.Body) {
			w.logger.Debug("revalidated unchanged", zap.String("key", key))
			return
		}
		w.put(w.dynamic, key, resp)
	}()
}

func (w *Worker) networkFirstWithFallback(ctx context.Context, r *http.Request) *Response {
	key := cacheKey(r.URL)
	resp, err := w.fetcher.Fetch(ctx, r)
	if err == nil {
		if resp.OK() {
			w.put(w.dynamic, key, resp)
		}
		return resp
	}
	w.fetchFailed(r, err)

	if cached := w.matchAny(key); cached != nil {
		return cached
	}
	if w.cfg.OfflinePage != "" {
		if page, err := w.resolve(w.cfg.OfflinePage); err == nil {
			if cached := w.matchAny(page); cached != nil {
				return cached
			}
		}
	}
	return textResponse(http.StatusServiceUnavailable, "Offline")
}

func (w *Worker) networkFirst(ctx context.Context, r *http.Request) *Response {
	key := cacheKey(r.URL)
	resp, err := w.fetcher.Fetch(ctx, r)
	if err == nil {
		if resp.OK() {
			w.put(w.dynamic, key, resp)
		}
		return resp
	}
	w.fetchFailed(r, err)
	if cached := w.matchAny(key); cached != nil {
		return cached
	}
	return textResponse(http.StatusServiceUnavailable, "Offline")
}

func (w *Worker) matchAny(key string) *Response {
	resp, ok, err := w.storage.Match(key)
	if err != nil {
		w.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	return resp
}

func (w *Worker) put(b *Bucket, key string, resp *Response) {
	w.writes.RLock()
	defer w.writes.RUnlock()
	if w.sealed {
		w.logger.Debug("dropped write from superseded worker", zap.String("store", b.Name()), zap.String("key", key))
		return
	}
	if err := b.Put(key, resp.Clone()); err != nil {
		w.logger.Warn("cache write failed", zap.String("store", b.Name()), zap.String("key", key), zap.Error(err))
	}
}

func (w *Worker) fetchFailed(r *http.Request, err error) {
	w.logger.Warn("network fetch failed", zap.Error(&CacheError{Kind: FetchFailed, URL: r.URL.String(), Err: err}))
}

// cacheKey identifies a request by its absolute URL without fragment.
func cacheKey(u *url.URL) string {
	c := *u
	c.Fragment = ""
	c.RawFragment = ""
	return c.String()
}
