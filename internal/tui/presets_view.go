package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var asciiLogo = []string{
	`╦═╗╔═╗╔═╗╔═╗╦ ╦╦═╗╔═╗╔═╗  ╦ ╦╦ ╦╔╗ `,
	`╠╦╝║╣ ╚═╗║ ║║ ║╠╦╝║  ║╣   ╠═╣║ ║╠╩╗`,
	`╩╚═╚═╝╚═╝╚═╝╚═╝╩╚═╚═╝╚═╝  ╩ ╩╚═╝╚═╝`,
}

// renderPresetPicker lists presets around the cursor, centered under the logo.
func renderPresetPicker(keys []string, cursor, width, height int) string {
	logoStyle := lipgloss.NewStyle().Foreground(colorAccent)
	keyStyle := lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(colorSecondary)

	var lines []string
	for _, l := range asciiLogo {
		lines = append(lines, logoStyle.Render(l))
	}
	lines = append(lines, "", labelStyle.Render("Quick picks"), "")

	visible := height - len(lines) - 4
	if visible < 3 {
		visible = 3
	}
	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := min(start+visible, len(keys))

	for i := start; i < end; i++ {
		if i == cursor {
			lines = append(lines, keyStyle.Render("> "+keys[i]))
		} else {
			lines = append(lines, labelStyle.Render("  "+keys[i]))
		}
	}
	if len(keys) == 0 {
		lines = append(lines, labelStyle.Render("No presets configured"))
	}

	content := strings.Join(lines, "\n")
	contentHeight := strings.Count(content, "\n") + 1

	topPad := (height - contentHeight) / 3
	if topPad < 0 {
		topPad = 0
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top,
		strings.Repeat("\n", topPad)+content)
}
