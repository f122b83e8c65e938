package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/merosman91/Agricultural-Tractor/internal/cli/formatter"
	"github.com/merosman91/Agricultural-Tractor/internal/config"
	"github.com/merosman91/Agricultural-Tractor/internal/offline"
	"github.com/merosman91/Agricultural-Tractor/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// openCacheStorage builds the region store selected by offline.backend.
func openCacheStorage(cfg config.OfflineConfig, logger *zap.Logger) (offline.Storage, error) {
	switch cfg.Backend {
	case "memory":
		return offline.NewMemoryStorage(), nil
	case "redis":
		return offline.NewRedisStorage(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	case "badger", "":
		if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache dir: %w", err)
		}
		return offline.OpenBadgerStorage(cfg.CacheDir)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

func newServeCmd(app *App) *cobra.Command {
	var addr string
	var waitForSkip bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the offline-first caching proxy in front of the web app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Config == nil {
				return fmt.Errorf("serve needs configuration")
			}
			cfg := app.Config.Offline
			if addr == "" {
				addr = cfg.Addr
			}
			logger := app.logger().Named("offline")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			storage, err := openCacheStorage(cfg, logger)
			if err != nil {
				return err
			}
			defer storage.Close()

			registry := prometheus.NewRegistry()
			registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			mgr := offline.NewManager(storage, offline.NewHTTPFetcher(cfg.FetchTimeout),
				offline.WithMetrics(offline.NewMetrics(registry)),
				offline.WithManagerLogger(logger),
			)
			gen, err := mgr.Register(ctx, offline.Config{
				Version:     cfg.Version,
				Origin:      cfg.Origin,
				Manifest:    cfg.Manifest,
				EntryPoint:  cfg.EntryPoint,
				Policy:      offline.InstallPolicy(cfg.InstallPolicy),
				WaitForSkip: waitForSkip,
			})
			if err != nil {
				// The manager keeps serving the active generation, or a region
				// left under the same version by an earlier run.
				logger.Warn("cache install failed", zap.Error(err))
			}
			if gen != nil {
				printGeneration(cmd.OutOrStdout(), "Cache", gen.Snapshot())
			}
			if active := mgr.Active(); active != nil && active != gen {
				printGeneration(cmd.OutOrStdout(), "Serving cache", active.Snapshot())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Proxying %s on %s\n", cfg.Origin, addr)

			handler := server.NewRouter(mgr, server.Options{
				Gatherer: registry,
				Logger:   logger,
			})
			return server.Run(ctx, addr, handler, logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&waitForSkip, "wait-for-skip", false, "Keep a new cache version waiting until POST /-/offline/skip-waiting")
	return cmd
}

func printGeneration(w io.Writer, label string, snap offline.Snapshot) {
	fmt.Fprintf(w, "%s %s is %s", label, snap.Version, snap.State)
	if len(snap.Failed) > 0 {
		fmt.Fprintf(w, " %s", formatter.Dim(fmt.Sprintf("(%d entries failed)", len(snap.Failed))))
	}
	fmt.Fprintln(w)
}

func newCacheCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the offline cache",
	}
	cmd.AddCommand(newCacheRegionsCmd(app))
	return cmd
}

func newCacheRegionsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "List cache regions in the configured backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Config == nil {
				return fmt.Errorf("cache needs configuration")
			}
			storage, err := openCacheStorage(app.Config.Offline, app.logger())
			if err != nil {
				return err
			}
			defer storage.Close()

			regions, err := storage.Regions(cmd.Context())
			if err != nil {
				return err
			}
			if len(regions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("No cache regions."))
				return nil
			}
			current := app.Config.Offline.Version
			rows := make([][]string, 0, len(regions))
			for _, r := range regions {
				status := formatter.Dim("stale")
				if r == current {
					status = formatter.StyleGreen.Render("● current")
				}
				rows = append(rows, []string{r, status})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTable([]string{"REGION", "STATUS"}, rows))
			return nil
		},
	}
}
