package tui

import (
	"strings"

	"github.com/matheuskafuri/resourcehub/internal/directory"
)

func renderListItem(c directory.Card, selected bool, width int) string {
	if width < 10 {
		width = 30
	}

	var title string
	if selected {
		title = itemSelectedStyle.Render("> " + truncateStr(c.Title, width-4))
	} else {
		title = itemTitleStyle.Render("  " + truncateStr(c.Title, width-4))
	}

	meta := "  " + itemMetaStyle.Render(truncateStr(c.Meta, width-4))

	return title + "\n" + meta
}

func truncateStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func renderList(out directory.Output, cursor int, height int, width int) string {
	if len(out.Cards) == 0 {
		if out.Notice != nil {
			return lipglossCenter(out.Notice.Title, width, height) + "\n\n" +
				noticeBodyStyle.Width(width).Render(out.Notice.Body)
		}
		return lipglossCenter("Loading resources...", width, height)
	}

	// Each item is 2 lines + 1 blank line = 3 lines
	itemHeight := 3
	visible := height / itemHeight
	if visible < 1 {
		visible = 1
	}

	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := start + visible
	if end > len(out.Cards) {
		end = len(out.Cards)
		start = end - visible
		if start < 0 {
			start = 0
		}
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(renderListItem(out.Cards[i], i == cursor, width))
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

func lipglossCenter(s string, width, height int) string {
	pad := (width - len([]rune(s))) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat("\n", height/3) + strings.Repeat(" ", pad) + s
}
