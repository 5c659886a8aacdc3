package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/matheuskafuri/resourcehub/internal/config"
	"github.com/matheuskafuri/resourcehub/internal/offline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagListen string
	flagOrigin string
)

var proxyCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Serve the directory site through the offline cache",
	Long: `Run a local proxy in front of the hosted site. Shell assets are precached on
install; requests are answered cache-first, stale-while-revalidate or network-first
depending on what they ask for, so the site keeps working without a connection.

Control endpoints:
  POST /__offline/skip-waiting   activate a waiting version
  GET  /__offline/version        report the active cache version`,
	RunE: func(cmd *cobra.Command, args []string) error {
		listen := cfg.Listen
		if flagListen != "" {
			listen = flagListen
		}

		store, err := offline.Open(config.CachePath())
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer store.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		coord, w, err := newCoordinator(store)
		if err != nil {
			return err
		}
		if err := startWorker(ctx, store, coord, w); err != nil {
			logger.Warn("no cache version active, proxying straight to the network", zap.Error(err))
		}

		srv := &http.Server{
			Addr:              listen,
			Handler:           coord,
			ReadHeaderTimeout: 10 * time.Second,
		}
		errc := make(chan error, 1)
		go func() {
			errc <- srv.ListenAndServe()
		}()
		fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s (cache %s)\n", coord.Origin(), listen, coord.Version())

		select {
		case err := <-errc:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serving: %w", err)
			}
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
		coord.Wait()
		return nil
	},
}

func init() {
	proxyCmd.Flags().StringVar(&flagListen, "listen", "", "listen address (default from config)")
	proxyCmd.Flags().StringVar(&flagOrigin, "origin", "", "site origin to proxy (default from config)")
}

func originURL() (*url.URL, error) {
	origin := cfg.Origin
	if flagOrigin != "" {
		origin = flagOrigin
	}
	u, err := url.Parse(origin)
	if err != nil || !u.IsAbs() {
		return nil, fmt.Errorf("origin must be an absolute url, got %q", origin)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u, nil
}

// newCoordinator builds the coordinator and the worker for the configured version.
func newCoordinator(store *offline.Storage) (*offline.Coordinator, *offline.Worker, error) {
	origin, err := originURL()
	if err != nil {
		return nil, nil, err
	}
	fetcher := offline.NewHTTPFetcher(30 * time.Second)
	coord := offline.NewCoordinator(origin, fetcher, logger)
	w, err := newWorker(store, fetcher, origin, cfg.Cache.Version)
	if err != nil {
		return nil, nil, err
	}
	return coord, w, nil
}

func newWorker(store *offline.Storage, fetcher offline.Fetcher, origin *url.URL, version string) (*offline.Worker, error) {
	return offline.NewWorker(offline.WorkerConfig{
		Prefix:      cfg.Cache.Prefix,
		Version:     version,
		Scope:       origin,
		Shell:       cfg.Cache.Shell,
		OfflinePage: cfg.Cache.OfflinePage,
		SkipWaiting: cfg.Cache.SkipWaiting,
	}, store, fetcher, logger)
}

// startWorker resumes the configured version or installs it. When the install
// fails, the newest version left by an earlier run keeps serving.
func startWorker(ctx context.Context, store *offline.Storage, coord *offline.Coordinator, w *offline.Worker) error {
	resumed, err := coord.Resume(ctx, w)
	if err != nil {
		return err
	}
	if resumed {
		logger.Info("resumed cache version", zap.String("version", w.CacheName()))
		return nil
	}
	installErr := coord.Register(ctx, w)
	if installErr == nil {
		return nil
	}

	versions, err := store.Versions(cfg.Cache.Prefix)
	if err != nil || len(versions) == 0 {
		return installErr
	}
	// Versions lists oldest first.
	prev, err := newWorker(store, offline.NewHTTPFetcher(30*time.Second), coord.Origin(), versions[len(versions)-1])
	if err != nil {
		return installErr
	}
	if ok, err := coord.Resume(ctx, prev); err != nil || !ok {
		return installErr
	}
	logger.Warn("install failed, serving previous version",
		zap.String("version", prev.CacheName()), zap.Error(installErr))
	return nil
}
