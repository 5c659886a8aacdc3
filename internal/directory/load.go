package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadErrorKind classifies dataset ingestion failures.
type LoadErrorKind int

const (
	LoadTransport LoadErrorKind = iota
	LoadParse
	LoadShape
)

func (k LoadErrorKind) String() string {
	switch k {
	case LoadTransport:
		return "transport"
	case LoadParse:
		return "parse"
	case LoadShape:
		return "shape"
	default:
		return "unknown"
	}
}

// LoadError reports why the dataset could not be loaded.
type LoadError struct {
	Kind   LoadErrorKind
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %s error: %v", e.Source, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Message is the user-facing text shown on the error card.
func (e *LoadError) Message() string {
	switch e.Kind {
	case LoadParse:
		return "JSON parse error in " + e.Source + "."
	case LoadShape:
		return e.Source + " must be an array."
	default:
		return "Could not load " + e.Source + "."
	}
}

var errNotArray = errors.New("dataset is not a JSON array")

// Source locates the dataset.
type Source struct {
	// Location is a file path or an http(s) URL.
	Location string
	// NoCacheBust skips the timestamp query parameter. Set it when loading
	// through the offline proxy so cached copies can be matched.
	NoCacheBust bool
}

// ParseDataset decodes a JSON array of resources.
func ParseDataset(data []byte) (Dataset, error) {
	trimmed := bytes.TrimSpace(data)
	if !json.Valid(trimmed) {
		return nil, &LoadError{Kind: LoadParse, Err: errors.New("malformed JSON")}
	}
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &LoadError{Kind: LoadShape, Err: errNotArray}
	}
	var ds Dataset
	if err := json.Unmarshal(trimmed, &ds); err != nil {
		// Elements that are not objects
		return nil, &LoadError{Kind: LoadShape, Err: err}
	}
	if ds == nil {
		ds = Dataset{}
	}
	return ds, nil
}

// LoadDataset fetches and parses the resource collection.
func LoadDataset(ctx context.Context, client *http.Client, src Source) (Dataset, error) {
	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(src.Location, "http://") || strings.HasPrefix(src.Location, "https://") {
		data, err = fetchDataset(ctx, client, src)
	} else {
		data, err = os.ReadFile(src.Location)
	}
	if err != nil {
		return nil, &LoadError{Kind: LoadTransport, Source: src.Location, Err: err}
	}

	ds, err := ParseDataset(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Source = src.Location
		}
		return nil, err
	}
	return ds, nil
}

func fetchDataset(ctx context.Context, client *http.Client, src Source) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	u, err := url.Parse(src.Location)
	if err != nil {
		return nil, err
	}
	if !src.NoCacheBust {
		q := u.Query()
		q.Set("ts", strconv.FormatInt(time.Now().UnixMilli(), 10))
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if !src.NoCacheBust {
		req.Header.Set("Cache-Control", "no-store")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
