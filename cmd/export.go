package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matheuskafuri/resourcehub/internal/directory"
	"github.com/matheuskafuri/resourcehub/internal/site"
	"github.com/spf13/cobra"
)

var (
	flagExportOut  string
	flagExportName string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the directory as a static site",
	Long: `Render index.html, one page per preset, the offline page, the stylesheet and a
copy of the dataset. The output is the shell the proxy precaches.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		ds, err := directory.LoadDataset(ctx, httpClient(), datasetSource(cfg))
		if err != nil {
			return fmt.Errorf("loading dataset: %w", err)
		}
		raw, err := json.MarshalIndent(ds, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding dataset: %w", err)
		}

		written, err := site.Export(ctx, site.ExportOptions{
			Dir:        flagExportOut,
			SiteName:   flagExportName,
			Dataset:    ds,
			RawDataset: raw,
			Presets:    presetsFor(cfg),
			Renderer:   newRenderer(cfg),
			Logger:     logger,
		})
		if err != nil {
			return fmt.Errorf("exporting: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d files to %s (%d resources).\n", len(written), flagExportOut, len(ds))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&flagExportOut, "out", "o", "site", "output directory")
	exportCmd.Flags().StringVar(&flagExportName, "name", "Texas Resource Hub", "site name")
}
