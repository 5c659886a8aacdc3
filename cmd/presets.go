package cmd

import (
	"fmt"
	"strings"

	"github.com/matheuskafuri/resourcehub/internal/directory"
	"github.com/spf13/cobra"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List preset keys and the filters they apply",
	RunE: func(cmd *cobra.Command, args []string) error {
		presets := presetsFor(cfg)
		w := cmd.OutOrStdout()
		for _, key := range presets.Keys() {
			p, _ := presets.Lookup(key)
			fmt.Fprintf(w, "%s  %s\n", listTitleStyle.Render(fmt.Sprintf("%-24s", key)), listDimStyle.Render(describePreset(p)))
		}
		return nil
	},
}

func describePreset(p directory.Preset) string {
	var parts []string
	for _, pill := range directory.ActivePills(p.State()) {
		parts = append(parts, pill.Text())
	}
	if len(parts) == 0 {
		return "(everything)"
	}
	return strings.Join(parts, ", ")
}
