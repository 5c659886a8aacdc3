package offline

import (
	"net/http"
	"path"
	"strings"
)

// Class selects the caching strategy for a request.
type Class int

const (
	ClassStatic Class = iota
	ClassData
	ClassNavigation
	ClassOther
)

func (c Class) String() string {
	switch c {
	case ClassStatic:
		return "static"
	case ClassData:
		return "data"
	case ClassNavigation:
		return "navigation"
	default:
		return "other"
	}
}

var staticExts = map[string]bool{
	".css": true, ".js": true, ".mjs": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true,
	".webp": true, ".avif": true, ".ico": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true, ".otf": true,
}

// Classify assigns a request to exactly one class. Static assets win over
// data paths, and data paths win over navigations.
func Classify(r *http.Request) Class {
	p := strings.ToLower(r.URL.Path)
	ext := path.Ext(p)
	switch {
	case staticExts[ext]:
		return ClassStatic
	case ext == ".json" || strings.Contains(p, "/data/") || strings.Contains(p, "/api/"):
		return ClassData
	case isNavigation(r):
		return ClassNavigation
	default:
		return ClassOther
	}
}

func isNavigation(r *http.Request) bool {
	if r.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
