package directory

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	schemeRE     = regexp.MustCompile(`(?i)^https?://`)
	bareDomainRE = regexp.MustCompile(`(?i)^[a-z0-9.-]+\.[a-z]{2,}(/.*)?$`)
)

// NormalizeURL turns a resource link into an absolute http(s) URL, or ""
// when the value cannot be used. It never returns a relative link.
func NormalizeURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || s == "#" {
		return ""
	}
	var out string
	switch {
	case schemeRE.MatchString(s):
		out = s
	case strings.HasPrefix(s, "//"):
		out = "https:" + s
	case bareDomainRE.MatchString(s):
		out = "https://" + s
	default:
		return ""
	}
	if u, err := url.Parse(out); err != nil || u.Host == "" {
		return ""
	}
	return out
}

// SearchLinker builds fallback search links for resources without a usable URL.
type SearchLinker struct {
	// Engine is the query URL prefix, e.g. "https://www.google.com/search?q=".
	Engine string
	// Region is appended after the city when set.
	Region string
}

// DefaultSearchEngine is used when no engine is configured.
const DefaultSearchEngine = "https://www.google.com/search?q="

// SearchURL returns a deterministic search query URL for r.
func (l SearchLinker) SearchURL(r Resource) string {
	var parts []string
	for _, p := range []string{r.Name, r.City, l.Region, r.Category} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	engine := l.Engine
	if engine == "" {
		engine = DefaultSearchEngine
	}
	return engine + url.QueryEscape(strings.Join(parts, " "))
}

// DisplayURL returns the normalized resource URL or, failing that, a search link.
func (l SearchLinker) DisplayURL(r Resource) string {
	if u := NormalizeURL(r.URL); u != "" {
		return u
	}
	return l.SearchURL(r)
}
