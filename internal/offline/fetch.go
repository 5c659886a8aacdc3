package offline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fetcher performs a network request and reads the whole response.
// A non-2xx status is a response, not an error; errors are transport failures.
type Fetcher interface {
	Fetch(ctx context.Context, req *http.Request) (*Response, error)
}

// HTTPFetcher fetches over an http.Client.
type HTTPFetcher struct {
	Client *http.Client
	// MaxBody caps how much of a body is read. Zero means 32 MiB.
	MaxBody int64
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{Timeout: timeout}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, req *http.Request) (*Response, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	limit := f.MaxBody
	if limit <= 0 {
		limit = 32 << 20
	}

	out := req.Clone(ctx)
	out.RequestURI = ""
	out.Host = ""

	resp, err := client.Do(out)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", req.URL, err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("reading %s: body exceeds %d bytes", req.URL, limit)
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header.Clone(), Body: body}, nil
}
