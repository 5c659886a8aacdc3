package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matheuskafuri/resourcehub/internal/directory"
)

// viewTarget stages engine output and hands committed renders to the
// program. It also acts as the engine's Scroller.
type viewTarget struct {
	mu     sync.Mutex
	staged directory.Output
	last   directory.Output
	seq    uint64
	scroll bool
	send   func(tea.Msg)
}

func (t *viewTarget) attach(send func(tea.Msg)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.send = send
}

func (t *viewTarget) SetResults(out directory.Output) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.staged.Cards = out.Cards
	t.staged.Notice = out.Notice
	t.staged.Err = out.Err
}

func (t *viewTarget) SetPills(pills []directory.Pill) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.staged.Pills = pills
}

func (t *viewTarget) SetCount(count string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.staged.Count = count
}

func (t *viewTarget) Commit() {
	t.mu.Lock()
	t.last = t.staged
	t.staged = directory.Output{}
	t.seq++
	msg := renderedMsg{seq: t.seq, out: t.last}
	send := t.send
	t.mu.Unlock()

	if send != nil {
		send(msg)
	}
}

// ScrollIntoView marks the next snapshot to move the cursor to the top.
func (t *viewTarget) ScrollIntoView(int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scroll = true
}

// snapshot returns the last committed render and consumes a pending scroll.
func (t *viewTarget) snapshot() renderedMsg {
	t.mu.Lock()
	defer t.mu.Unlock()
	msg := renderedMsg{seq: t.seq, out: t.last, scroll: t.scroll}
	t.scroll = false
	return msg
}
