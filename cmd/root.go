package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/matheuskafuri/resourcehub/internal/config"
	"github.com/matheuskafuri/resourcehub/internal/update"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig      string
	flagVerbose     bool
	flagCheckUpdate bool
)

var (
	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "resourcehub",
	Short: "Community resource directory with offline caching",
	Long: `resourcehub filters and browses a directory of community-aid resources
(food banks, clinics, legal aid, ...) and runs an offline-capable caching proxy
in front of the hosted directory site.`,
	SilenceUsage: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	// Assigned here: setup refers back to rootCmd.
	rootCmd.PersistentPreRunE = setup
	rootCmd.RunE = runBrowse

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flagDataset, "dataset", "", "dataset path or URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	addBrowseFlags(rootCmd)

	versionCmd.Flags().BoolVar(&flagCheckUpdate, "check", false, "check for a newer release")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(proxyCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(linkcheckCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	l, err := newLogger(flagVerbose, interactive(cmd))
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	logger = l

	c, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg = c
	return nil
}

// interactive reports whether cmd owns the terminal, in which case logs go to a file.
func interactive(cmd *cobra.Command) bool {
	return cmd == rootCmd || cmd == browseCmd
}

func newLogger(verbose, toFile bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if toFile {
		path := config.LogPath()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		zc.OutputPaths = []string{path}
		zc.ErrorOutputPaths = []string{path}
	}
	return zc.Build()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "resourcehub %s (commit: %s, built: %s)\n", version, commit, date)
		if !flagCheckUpdate || version == "dev" {
			return
		}
		if r := update.NewChecker(logger).Check(cmd.Context(), version); r != nil {
			fmt.Fprintf(w, "A newer release is available: %s\n", r.LatestVersion)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
