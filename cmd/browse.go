package cmd

import (
	"github.com/matheuskafuri/resourcehub/internal/browser"
	"github.com/matheuskafuri/resourcehub/internal/tui"
	"github.com/spf13/cobra"
)

var flagBrowseKey string

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Launch the interactive directory browser",
	Long:  "Open the two-pane terminal browser: search, filter, presets with back/forward, and open resources in your browser.",
	RunE:  runBrowse,
}

func init() {
	addBrowseFlags(browseCmd)
}

func addBrowseFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagBrowseKey, "key", "", "start from a preset")
}

func runBrowse(cmd *cobra.Command, args []string) error {
	renderer := newRenderer(cfg)
	return tui.Run(tui.RunOpts{
		Source:       datasetSource(cfg),
		Client:       httpClient(),
		Presets:      presetsFor(cfg),
		Renderer:     renderer,
		Debounce:     cfg.DebounceDuration(),
		HeaderOffset: cfg.GetHeaderOffset(),
		Start:        filterFlags{key: flagBrowseKey}.location(),
		Opener:       browser.Opener{Linker: renderer.Linker},
		Logger:       logger,
	})
}
