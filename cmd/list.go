package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/matheuskafuri/resourcehub/internal/directory"
	"github.com/spf13/cobra"
)

var listFilters filterFlags

var (
	listTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#1F5FAD", Dark: "#6FA8F0"})
	listMetaStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#25D366"})
	listDimStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"})
	listPillStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B3261E", Dark: "#F28B82"})
	listNoticeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#B3261E", Dark: "#F28B82"})
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the filtered directory",
	Long: `Filter and sort the directory and print the result cards.

Filters match the site's form fields; --key applies a preset instead and wins over
the individual filters, just like opening a preset link.`,
	Example: `  resourcehub list --category Food --city Austin
  resourcehub list -q "spanish clinic" --sort updated-desc
  resourcehub list --key free-clinics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		target := &directory.Snapshot{}
		engine := directory.New(directory.Options{
			Target:   target,
			Form:     directory.NewMemoryForm(listFilters.values()),
			History:  directory.NewMemoryHistory(listFilters.location()),
			Presets:  presetsFor(cfg),
			Renderer: newRenderer(cfg),
			Source:   datasetSource(cfg),
			Client:   httpClient(),
			Logger:   logger,
		})
		defer engine.Close()

		if listFilters.key != "" {
			if _, ok := engine.Presets().Lookup(listFilters.key); !ok {
				return fmt.Errorf("unknown preset %q", listFilters.key)
			}
		}

		startErr := engine.Start(context.Background())
		fmt.Fprint(cmd.OutOrStdout(), formatOutput(target.Last()))
		return startErr
	},
}

func init() {
	addFilterFlags(listCmd, &listFilters)
}

func formatOutput(out directory.Output) string {
	var b strings.Builder
	b.WriteString(listDimStyle.Render(out.Count))
	if len(out.Pills) > 0 {
		pills := make([]string, len(out.Pills))
		for i, p := range out.Pills {
			pills[i] = listPillStyle.Render(p.Text())
		}
		b.WriteString("  " + strings.Join(pills, listDimStyle.Render(" · ")))
	}
	b.WriteString("\n\n")

	if out.Notice != nil {
		b.WriteString(listNoticeStyle.Render(out.Notice.Title) + "\n")
		b.WriteString(out.Notice.Body + "\n")
		return b.String()
	}

	for _, c := range out.Cards {
		b.WriteString(listTitleStyle.Render(c.Title) + "\n")
		if c.Meta != "" {
			b.WriteString("  " + listMetaStyle.Render(c.Meta) + "\n")
		}
		if c.Description != "" {
			b.WriteString("  " + c.Description + "\n")
		}
		if c.Tags != "" {
			b.WriteString("  " + listDimStyle.Render(c.Tags) + "\n")
		}
		b.WriteString("  " + listDimStyle.Render(c.Href) + "\n\n")
	}
	return b.String()
}
