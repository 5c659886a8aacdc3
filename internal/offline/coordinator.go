package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const (
	SkipWaitingPath = "/__offline/skip-waiting"
	VersionPath     = "/__offline/version"
)

type MessageType string

const (
	MessageSkipWaiting MessageType = "SKIP_WAITING"
	MessageGetVersion  MessageType = "GET_VERSION"
)

// Message is a control message posted by a client page.
type Message struct {
	Type MessageType `json:"type"`
}

type Reply struct {
	Version   string `json:"version,omitempty"`
	Activated bool   `json:"activated,omitempty"`
}

// Coordinator owns worker registration and routes requests through the
// active worker. With no active worker requests go straight to the network.
type Coordinator struct {
	origin  *url.URL
	fetcher Fetcher
	logger  *zap.Logger

	mu      sync.Mutex
	active  *Worker
	waiting *Worker
	workers []*Worker
}

func NewCoordinator(origin *url.URL, fetcher Fetcher, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{origin: baseURL(origin), fetcher: fetcher, logger: logger}
}

func (c *Coordinator) Origin() *url.URL { return c.origin }

func (c *Coordinator) Active() *Worker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Coordinator) Waiting() *Worker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiting
}

// Register installs w. It activates at once when nothing is active or w skips
// waiting; otherwise it waits for SkipWaiting. A failed install leaves the
// current worker serving.
func (c *Coordinator) Register(ctx context.Context, w *Worker) error {
	c.mu.Lock()
	c.workers = append(c.workers, w)
	c.mu.Unlock()

	if err := w.Install(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil || w.SkipsWaiting() {
		return c.activateLocked(ctx, w)
	}
	if c.waiting != nil {
		c.waiting.retire()
	}
	c.waiting = w
	c.logger.Info("worker waiting", zap.String("version", w.CacheName()))
	return nil
}

// Resume activates w from a previous install without fetching anything.
// It reports false when w has never been installed.
func (c *Coordinator) Resume(ctx context.Context, w *Worker) (bool, error) {
	if !w.Resume() {
		return false, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.workers = append(c.workers, w)
	return true, c.activateLocked(ctx, w)
}

// SkipWaiting activates the waiting worker. It reports whether one was activated.
func (c *Coordinator) SkipWaiting(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.waiting == nil {
		return false, nil
	}
	return true, c.activateLocked(ctx, c.waiting)
}

func (c *Coordinator) activateLocked(ctx context.Context, w *Worker) error {
	if s := w.State(); s != StateInstalled {
		return fmt.Errorf("worker: cannot activate from state %s", s)
	}
	// Superseded workers may still be answering requests. They stop writing
	// before the purge so their stores stay deleted.
	var superseded []*Worker
	for _, old := range []*Worker{c.active, c.waiting} {
		if old != nil && old != w {
			old.seal(true)
			superseded = append(superseded, old)
		}
	}

	err := w.Activate(ctx)
	if w.State() != StateActive {
		for _, old := range superseded {
			old.seal(false)
		}
		return err
	}
	for _, old := range superseded {
		old.retire()
	}
	c.waiting = nil
	c.active = w
	c.logger.Info("worker activated", zap.String("version", w.CacheName()))
	if err != nil {
		c.logger.Warn("stale stores left behind", zap.Error(err))
	}
	return nil
}

// Version returns the active cache name, or "" when nothing is active.
func (c *Coordinator) Version() string {
	if w := c.Active(); w != nil {
		return w.CacheName()
	}
	return ""
}

func (c *Coordinator) Post(ctx context.Context, msg Message) (Reply, error) {
	switch msg.Type {
	case MessageSkipWaiting:
		activated, err := c.SkipWaiting(ctx)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Version: c.Version(), Activated: activated}, nil
	case MessageGetVersion:
		return Reply{Version: c.Version()}, nil
	default:
		return Reply{}, fmt.Errorf("unknown message type %q", msg.Type)
	}
}

// Wait drains background revalidation in every registered worker.
func (c *Coordinator) Wait() {
	c.mu.Lock()
	workers := append([]*Worker(nil), c.workers...)
	c.mu.Unlock()
	for _, w := range workers {
		w.Wait()
	}
}

func (c *Coordinator) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case SkipWaitingPath:
		if r.Method != http.MethodPost {
			rw.Header().Set("Allow", http.MethodPost)
			http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		c.serveMessage(rw, r, Message{Type: MessageSkipWaiting})
		return
	case VersionPath:
		if r.Method != http.MethodGet {
			rw.Header().Set("Allow", http.MethodGet)
			http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		c.serveMessage(rw, r, Message{Type: MessageGetVersion})
		return
	}

	target := c.upstream(r.URL)
	out := r.Clone(r.Context())
	out.URL = target
	out.Host = target.Host
	out.RequestURI = ""

	var resp *Response
	if w := c.Active(); w != nil {
		resp = w.Handle(r.Context(), out)
	} else {
		var err error
		resp, err = c.fetcher.Fetch(r.Context(), out)
		if err != nil {
			c.logger.Warn("network fetch failed", zap.String("url", target.String()), zap.Error(err))
			resp = textResponse(http.StatusBadGateway, "Network error")
		}
	}
	writeResponse(rw, resp)
}

// upstream maps a proxied request URL onto the origin. The request path is
// taken relative to the origin's path, so a site served under a subpath keeps it.
func (c *Coordinator) upstream(in *url.URL) *url.URL {
	return c.origin.ResolveReference(&url.URL{Path: strings.TrimPrefix(in.Path, "/"), RawQuery: in.RawQuery})
}

// baseURL returns u with a trailing slash on its path so relative references
// resolve inside it.
func baseURL(u *url.URL) *url.URL {
	if u == nil {
		return nil
	}
	b := *u
	if !strings.HasSuffix(b.Path, "/") {
		b.Path += "/"
		if b.RawPath != "" {
			b.RawPath += "/"
		}
	}
	b.RawQuery = ""
	b.Fragment = ""
	return &b
}

func (c *Coordinator) serveMessage(rw http.ResponseWriter, r *http.Request, msg Message) {
	reply, err := c.Post(r.Context(), msg)
	if err != nil {
		c.logger.Error("control message failed", zap.String("type", string(msg.Type)), zap.Error(err))
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	rw.Header().Set("Content-Type", "application/json")
	rw.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(rw).Encode(reply)
}

func writeResponse(rw http.ResponseWriter, resp *Response) {
	h := rw.Header()
	for k, vs := range resp.Header {
		for _, v := range vs {
			h.Add(k, v)
		}
	}
	h.Del("Transfer-Encoding")
	h.Set("Content-Length", strconv.Itoa(len(resp.Body)))
	rw.WriteHeader(resp.Status)
	_, _ = rw.Write(resp.Body)
}
