package tui

import (
	"github.com/matheuskafuri/resourcehub/internal/directory"
)

// renderedMsg carries a committed render. seq orders renders so a late
// message never replaces a newer output.
type renderedMsg struct {
	seq    uint64
	out    directory.Output
	scroll bool
}

type startedMsg struct {
	rendered renderedMsg
	controls controls
}

type openErrMsg struct {
	err error
}

type openedMsg struct {
	url string
}
