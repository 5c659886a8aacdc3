package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/matheuskafuri/resourcehub/internal/directory"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// control is one cyclable select. An empty option means "All".
type control struct {
	field   string
	label   string
	options []string
}

type controls struct {
	items  []control
	cursor int
}

func newControls(ds directory.Dataset) controls {
	var cats, costs, cities, access, initials []string
	for _, r := range ds {
		cats = append(cats, r.Category)
		costs = append(costs, r.Cost)
		cities = append(cities, r.City)
		access = append(access, r.Accessibility...)
		if name := strings.TrimSpace(r.Name); name != "" {
			initials = append(initials, strings.ToUpper(string([]rune(name)[:1])))
		}
	}
	sorts := make([]string, 0, len(directory.SortKeys()))
	for _, k := range directory.SortKeys() {
		sorts = append(sorts, string(k))
	}
	return controls{items: []control{
		{field: directory.FieldCategory, label: "Category", options: choices(cats)},
		{field: directory.FieldCost, label: "Cost", options: choices(costs)},
		{field: directory.FieldCity, label: "City", options: choices(cities)},
		{field: directory.FieldAccessibility, label: "Access", options: choices(access)},
		{field: directory.FieldInitial, label: "A–Z", options: choices(initials)},
		{field: directory.FieldSort, label: "Sort", options: sorts},
	}}
}

// choices returns "" followed by the distinct non-empty values in collated order.
func choices(values []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	collate.New(language.AmericanEnglish).SortStrings(out)
	return append([]string{""}, out...)
}

func (c *controls) move(delta int) {
	if len(c.items) == 0 {
		return
	}
	c.cursor = (c.cursor + delta + len(c.items)) % len(c.items)
}

// cycle steps the selected control through its options and writes the
// new value to the form. It reports whether anything changed.
func (c *controls) cycle(form *directory.MemoryForm, delta int) bool {
	if c.cursor >= len(c.items) {
		return false
	}
	item := c.items[c.cursor]
	if len(item.options) < 2 {
		return false
	}
	cur := form.Get(item.field)
	idx := 0
	for i, o := range item.options {
		if o == cur {
			idx = i
			break
		}
	}
	next := item.options[(idx+delta+len(item.options))%len(item.options)]
	form.Set(item.field, next)
	return true
}

func (c controls) render(form *directory.MemoryForm, filterMode bool, width int) string {
	sep := tabSeparatorStyle.Render(" · ")
	var parts []string
	for i, item := range c.items {
		value := form.Get(item.field)
		style := tabInactiveStyle
		if value != "" && !(item.field == directory.FieldSort && value == string(directory.SortNameAsc)) {
			style = tabActiveStyle
		}
		if value == "" {
			value = "All"
			if item.field == directory.FieldSort {
				value = string(directory.SortNameAsc)
			}
		}
		label := item.label + ": " + value
		if filterMode && i == c.cursor {
			label = "[" + label + "]"
		}
		parts = append(parts, style.Render(label))
	}

	// Stop adding tabs once the row would overflow.
	var row string
	for i, part := range parts {
		candidate := row
		if i > 0 {
			candidate += sep
		}
		candidate += part
		if lipgloss.Width(candidate) > width && row != "" {
			break
		}
		row = candidate
	}

	barStyle := lipgloss.NewStyle().
		Width(width).
		PaddingLeft(1)
	return barStyle.Render(row)
}

func renderPills(pills []directory.Pill, width int) string {
	if len(pills) == 0 {
		return pillDimStyle.Render(" no filters")
	}
	var parts []string
	for _, p := range pills {
		parts = append(parts, pillStyle.Render(p.Text()))
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(" " + strings.Join(parts, " "))
}
