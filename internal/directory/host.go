package directory

import (
	"net/url"
	"sync"
)

// Form holds the live values of the filter controls.
type Form interface {
	Values() url.Values
	SetValues(v url.Values)
	Reset()
}

// History is the navigation stack the deep-link protocol writes to.
type History interface {
	Location() *url.URL
	Push(u *url.URL)
	Replace(u *url.URL)
}

// Scroller brings the directory region into view below a fixed header.
type Scroller interface {
	ScrollIntoView(headerOffset int)
}

// MemoryForm is a Form backed by a map, for terminal hosts and tests.
type MemoryForm struct {
	mu     sync.Mutex
	values url.Values
}

func NewMemoryForm(initial url.Values) *MemoryForm {
	f := &MemoryForm{}
	f.SetValues(initial)
	return f
}

func (f *MemoryForm) Values() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneValues(f.values)
}

func (f *MemoryForm) SetValues(v url.Values) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = cloneValues(v)
}

// Set changes one field. An empty value clears it.
func (f *MemoryForm) Set(field, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.values == nil {
		f.values = url.Values{}
	}
	if value == "" {
		f.values.Del(field)
		return
	}
	f.values.Set(field, value)
}

// Get returns the current value of one field.
func (f *MemoryForm) Get(field string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values.Get(field)
}

func (f *MemoryForm) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = url.Values{}
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// MemoryHistory is a back/forward stack of locations.
type MemoryHistory struct {
	mu      sync.Mutex
	entries []*url.URL
	index   int
}

func NewMemoryHistory(start *url.URL) *MemoryHistory {
	if start == nil {
		start = &url.URL{Path: "/"}
	}
	return &MemoryHistory{entries: []*url.URL{cloneURL(start)}}
}

func (h *MemoryHistory) Location() *url.URL {
	h.mu.Lock()
	defer h.mu.Unlock()
	return cloneURL(h.entries[h.index])
}

// Push adds an entry after the current one and drops any forward entries.
func (h *MemoryHistory) Push(u *url.URL) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.index+1], cloneURL(u))
	h.index++
}

func (h *MemoryHistory) Replace(u *url.URL) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[h.index] = cloneURL(u)
}

// Back moves to the previous entry. It reports false at the start.
func (h *MemoryHistory) Back() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index == 0 {
		return false
	}
	h.index--
	return true
}

// Forward moves to the next entry. It reports false at the end.
func (h *MemoryHistory) Forward() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index >= len(h.entries)-1 {
		return false
	}
	h.index++
	return true
}

func (h *MemoryHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

func cloneURL(u *url.URL) *url.URL {
	c := *u
	if u.User != nil {
		user := *u.User
		c.User = &user
	}
	return &c
}

// Snapshot is a Target that keeps the last committed output.
type Snapshot struct {
	mu      sync.Mutex
	staged  Output
	last    Output
	commits int
}

func (s *Snapshot) SetResults(out Output) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged.Cards = out.Cards
	s.staged.Notice = out.Notice
	s.staged.Err = out.Err
}

func (s *Snapshot) SetPills(pills []Pill) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged.Pills = pills
}

func (s *Snapshot) SetCount(count string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged.Count = count
}

func (s *Snapshot) Commit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = s.staged
	s.staged = Output{}
	s.commits++
}

// Last returns the most recent committed output.
func (s *Snapshot) Last() Output {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Commits returns how many renders were committed.
func (s *Snapshot) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}
