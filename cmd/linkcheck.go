package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/matheuskafuri/resourcehub/internal/directory"
	"github.com/matheuskafuri/resourcehub/internal/linkcheck"
	"github.com/spf13/cobra"
)

var (
	flagCheckConcurrency int
	flagCheckTimeout     time.Duration
)

var linkcheckCmd = &cobra.Command{
	Use:   "linkcheck",
	Short: "Check that resource links still resolve",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ds, err := directory.LoadDataset(ctx, httpClient(), datasetSource(cfg))
		if err != nil {
			return fmt.Errorf("loading dataset: %w", err)
		}

		checker := linkcheck.New(flagCheckTimeout, logger)
		checker.Concurrency = flagCheckConcurrency
		results, err := checker.Check(ctx, ds)
		if err != nil {
			return fmt.Errorf("checking links: %w", err)
		}

		failed := linkcheck.Failures(results)
		w := cmd.OutOrStdout()
		for _, r := range failed {
			reason := fmt.Sprintf("HTTP %d", r.Status)
			if r.Err != nil {
				reason = r.Err.Error()
			}
			fmt.Fprintf(w, "%s  %s\n  %s\n", listNoticeStyle.Render("FAIL"), r.URL, listDimStyle.Render(reason+" · "+strings.Join(r.Names, ", ")))
		}
		fmt.Fprintf(w, "%d links checked, %d failed.\n", len(results), len(failed))
		if len(failed) > 0 {
			return fmt.Errorf("%d broken link(s)", len(failed))
		}
		return nil
	},
}

func init() {
	linkcheckCmd.Flags().IntVar(&flagCheckConcurrency, "concurrency", 8, "parallel requests")
	linkcheckCmd.Flags().DurationVar(&flagCheckTimeout, "timeout", 10*time.Second, "per-request timeout")
}
