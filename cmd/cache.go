package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/matheuskafuri/resourcehub/internal/config"
	"github.com/matheuskafuri/resourcehub/internal/offline"
	"github.com/spf13/cobra"
)

var flagPurgeAll bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the offline cache",
}

var cacheInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Precache the shell for the configured version and activate it",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *offline.Storage) error {
			coord, w, err := newCoordinator(store)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			if err := coord.Register(ctx, w); err != nil {
				return fmt.Errorf("installing %s: %w", w.CacheName(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Installed %s (%s).\n", w.CacheName(), w.State())
			return nil
		})
	},
}

var cacheActivateCmd = &cobra.Command{
	Use:   "activate",
	Short: "Activate the installed version and delete stale stores",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *offline.Storage) error {
			coord, w, err := newCoordinator(store)
			if err != nil {
				return err
			}
			before, err := store.Keys()
			if err != nil {
				return err
			}
			ok, err := coord.Resume(context.Background(), w)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s is not installed; run 'resourcehub cache install'", w.CacheName())
			}
			after, err := store.Keys()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Activated %s, deleted %d stale store(s).\n", w.CacheName(), len(before)-len(after))
			return nil
		})
	},
}

var cacheVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the configured cache version and whether it is installed",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *offline.Storage) error {
			installed, err := store.Has(cfg.Cache.Prefix + "-static-" + cfg.Cache.Version)
			if err != nil {
				return err
			}
			state := "not installed"
			if installed {
				state = "installed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", cfg.CacheName(), state)
			return nil
		})
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := config.CachePath()
		return withStore(func(store *offline.Storage) error {
			stats, size, err := store.Stats(dbPath)
			if err != nil {
				return fmt.Errorf("reading stats: %w", err)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Cache: %s\n", dbPath)
			fmt.Fprintf(w, "Size: %s\n", formatBytes(size))
			if len(stats) == 0 {
				fmt.Fprintln(w, "No stores.")
				return nil
			}
			for _, st := range stats {
				fmt.Fprintf(w, "  %-40s %4d entries  %9s  created %s\n",
					st.Name, st.Entries, formatBytes(st.Bytes), st.CreatedAt.Local().Format("Jan 2 15:04"))
			}
			return nil
		})
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete stores that do not belong to the configured version",
	Long: `Delete every cache store not named by the configured version, the same
cleanup activation performs. With --all, delete every store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *offline.Storage) error {
			keep := map[string]bool{}
			if !flagPurgeAll {
				keep[cfg.Cache.Prefix+"-static-"+cfg.Cache.Version] = true
				keep[cfg.Cache.Prefix+"-dynamic-"+cfg.Cache.Version] = true
			}
			names, err := store.Keys()
			if err != nil {
				return err
			}
			deleted := 0
			for _, name := range names {
				if keep[name] {
					continue
				}
				if _, err := store.Delete(name); err != nil {
					return fmt.Errorf("deleting %s: %w", name, err)
				}
				deleted++
			}
			if deleted == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to purge.")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d store(s).\n", deleted)
			}
			return nil
		})
	},
}

func init() {
	cachePurgeCmd.Flags().BoolVar(&flagPurgeAll, "all", false, "delete every store, including the current version")

	cacheCmd.AddCommand(cacheInstallCmd)
	cacheCmd.AddCommand(cacheActivateCmd)
	cacheCmd.AddCommand(cacheVersionCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
}

func withStore(fn func(*offline.Storage) error) error {
	store, err := offline.Open(config.CachePath())
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
