// Package site renders the directory as static HTML and exports the
// offline shell the proxy precaches.
package site

import (
	"bytes"
	"embed"
	"html/template"
	"strings"
	"sync"

	"github.com/matheuskafuri/resourcehub/internal/directory"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/styles.css
var stylesheet []byte

var (
	pageTmpl    = template.Must(template.ParseFS(templateFS, "templates/page.html"))
	offlineTmpl = template.Must(template.ParseFS(templateFS, "templates/offline.html"))
)

// PresetLink is one entry of the preset navigation.
type PresetLink struct {
	Key    string
	Label  string
	Active bool
}

// Page is the data behind one HTML document.
type Page struct {
	Lang     string
	Title    string
	SiteName string
	// Root is the relative path from the page back to the site root.
	Root    string
	Presets []PresetLink

	Count  string
	Pills  []directory.Pill
	Cards  []directory.Card
	Notice *directory.Notice
}

// PresetLinks builds the navigation for presets, marking active as current.
func PresetLinks(presets directory.Presets, active string) []PresetLink {
	keys := presets.Keys()
	links := make([]PresetLink, 0, len(keys))
	for _, k := range keys {
		links = append(links, PresetLink{Key: k, Label: PresetLabel(k), Active: k == active})
	}
	return links
}

// Lang is the document language for a locale.
func Lang(l directory.Locale) string {
	if l.Tag == language.Und {
		return "en"
	}
	return l.Tag.String()
}

var titleCaser = cases.Title(language.English)

// PresetLabel turns a preset key into a display label.
func PresetLabel(key string) string {
	return titleCaser.String(strings.ReplaceAll(key, "-", " "))
}

// HTMLTarget is a directory.Target that renders a full page. The setters
// stage the output; Commit swaps in the new document only if it rendered.
type HTMLTarget struct {
	mu     sync.Mutex
	layout Page
	staged Page
	doc    []byte
	err    error
}

func NewHTMLTarget(layout Page) *HTMLTarget {
	return &HTMLTarget{layout: layout, staged: layout}
}

func (t *HTMLTarget) SetResults(out directory.Output) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.staged.Cards = out.Cards
	t.staged.Notice = out.Notice
}

func (t *HTMLTarget) SetPills(pills []directory.Pill) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.staged.Pills = pills
}

func (t *HTMLTarget) SetCount(count string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.staged.Count = count
}

func (t *HTMLTarget) Commit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, t.staged); err != nil {
		t.err = err
		return
	}
	t.doc = buf.Bytes()
	t.err = nil
	t.staged = t.layout
}

// Bytes returns the last committed document.
func (t *HTMLTarget) Bytes() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.doc
}

// Err returns the error of the last failed commit.
func (t *HTMLTarget) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// OfflinePage renders the placeholder served for uncached navigations.
func OfflinePage(siteName, lang string) ([]byte, error) {
	var buf bytes.Buffer
	err := offlineTmpl.Execute(&buf, struct{ SiteName, Lang string }{siteName, lang})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
