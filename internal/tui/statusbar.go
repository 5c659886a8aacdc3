package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type statusInfo struct {
	count   string
	preset  string
	mode    mode
	loading bool
	note    string
}

func renderStatusBar(s statusInfo, width int) string {
	left := " " + s.count
	if s.preset != "" {
		left += " · " + presetAccentStyle.Render(s.preset)
	}
	if s.loading {
		left += " (loading...)"
	}
	if s.note != "" {
		left += " · " + s.note
	}

	var right string
	switch s.mode {
	case modeSearch:
		right = " esc clear  enter search "
	case modeFilter:
		right = " ←/→ control  ↑/↓ value  x reset  esc done "
	default:
		right = " / search  f filter  p presets  [ ] history  ? help  q quit "
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + fmt.Sprintf("%*s", gap, "") + right

	return statusBarStyle.Width(width).Render(bar)
}

func renderBottomBar(hints string, width int) string {
	right := " " + hints + " "
	gap := width - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return statusBarStyle.Width(width).Render(fmt.Sprintf("%*s", gap, "") + right)
}
