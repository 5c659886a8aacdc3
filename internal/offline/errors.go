package offline

import "fmt"

type CacheErrorKind int

const (
	// InstallIncomplete means at least one shell asset could not be fetched,
	// so the version was not installed.
	InstallIncomplete CacheErrorKind = iota
	// FetchFailed means a network fetch failed inside a strategy. It is
	// recovered by the strategy's fallback chain and only logged.
	FetchFailed
)

func (k CacheErrorKind) String() string {
	switch k {
	case InstallIncomplete:
		return "install incomplete"
	case FetchFailed:
		return "fetch failed"
	default:
		return "unknown"
	}
}

type CacheError struct {
	Kind CacheErrorKind
	URL  string
	Err  error
}

func (e *CacheError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("cache: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("cache: %s: %s: %v", e.Kind, e.URL, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }
