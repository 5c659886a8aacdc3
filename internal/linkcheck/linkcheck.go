// Package linkcheck verifies that resource links still resolve.
package linkcheck

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/matheuskafuri/resourcehub/internal/directory"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Result struct {
	URL string
	// Names lists every resource that links to URL.
	Names  []string
	Status int
	Err    error
}

func (r Result) OK() bool {
	return r.Err == nil && r.Status >= 200 && r.Status < 400
}

type Checker struct {
	Client      *http.Client
	Concurrency int
	UserAgent   string
	Logger      *zap.Logger
}

func New(timeout time.Duration, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{
		Client:      &http.Client{Timeout: timeout},
		Concurrency: 8,
		UserAgent:   "resourcehub-linkcheck/1.0",
		Logger:      logger,
	}
}

// Targets groups resources by normalized URL. Resources without a usable
// link are skipped.
func Targets(ds directory.Dataset) map[string][]string {
	out := make(map[string][]string)
	for _, r := range ds {
		u := directory.NormalizeURL(r.URL)
		if u == "" {
			continue
		}
		out[u] = append(out[u], r.DisplayName())
	}
	return out
}

// Check requests every unique link once. Individual failures are reported in
// the results; only cancellation returns an error.
func (c *Checker) Check(ctx context.Context, ds directory.Dataset) ([]Result, error) {
	targets := Targets(ds)
	limit := c.Concurrency
	if limit <= 0 {
		limit = 8
	}
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		mu      sync.Mutex
		results = make([]Result, 0, len(targets))
	)
	var g errgroup.Group
	g.SetLimit(limit)
	for u, names := range targets {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			status, err := c.probe(ctx, u)
			res := Result{URL: u, Names: names, Status: status, Err: err}
			if !res.OK() {
				logger.Debug("link failed", zap.String("url", u), zap.Int("status", status), zap.Error(err))
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].URL < results[j].URL })
	return results, nil
}

// probe sends HEAD and retries with GET when the server rejects HEAD.
func (c *Checker) probe(ctx context.Context, u string) (int, error) {
	status, err := c.do(ctx, http.MethodHead, u)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
		return c.do(ctx, http.MethodGet, u)
	}
	return status, err
}

func (c *Checker) do(ctx context.Context, method, u string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	return resp.StatusCode, nil
}

// Failures returns the results that did not resolve.
func Failures(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}
