package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"brain2-canvas/internal/config"
	"brain2-canvas/internal/infrastructure/jsoncanvas"
	"brain2-canvas/internal/logging"
)

func newServeCommand() *cobra.Command {
	var (
		board string
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Host a board with the debug HTTP surface",
		Long: `serve loads configuration, optionally opens a JSON Canvas board and exposes
/healthz, /metrics, /frame and /export until interrupted. Configuration
files are hot-reloaded unless --watch=false.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			loader := loaderFor(cmd)
			cfg, err := loader.Load()
			if err != nil {
				return err
			}
			c, cleanup, err := initializeCanvas(ctx, cfg, boardFile(board))
			if err != nil {
				return err
			}
			defer cleanup()
			return serve(ctx, c, loader, watch)
		},
	}
	cmd.Flags().StringVar(&board, "board", "", "JSON Canvas document to open")
	cmd.Flags().BoolVar(&watch, "watch", true, "Reload configuration files when they change")
	return cmd
}

func serve(ctx context.Context, c *canvas, loader *config.Loader, watch bool) error {
	logger := c.Logger
	srv := &http.Server{
		Addr:              c.Config.Server.Address,
		Handler:           newRouter(c),
		ReadHeaderTimeout: c.Config.Server.ReadTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting debug server",
			zap.String("address", srv.Addr),
			zap.String("environment", string(c.Config.Environment)),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down debug server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.Config.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if watch {
		w, err := config.NewWatcher(loader, c.Config, logger.Named("config"))
		if err != nil {
			logger.Warn("Configuration hot reloading disabled", zap.Error(err))
		} else {
			w.OnChange(c.Orchestrator.ApplyConfig)
			w.OnChange(func(cfg *config.Config) {
				c.Logging.Level.SetLevel(logging.ParseLevel(cfg.Logging.Level))
			})
			g.Go(func() error { return w.Run(ctx) })
		}
	}

	return g.Wait()
}

func newRouter(c *canvas) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if c.Config.Metrics.Enabled {
		r.Handle("/metrics", c.Collector.Handler())
	}
	r.Get("/frame", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, c.Orchestrator.Frame())
	})
	r.Get("/export", func(w http.ResponseWriter, r *http.Request) {
		opts := jsoncanvas.ExportOptions{IncludeExcluded: r.URL.Query().Get("all") == "true"}
		writeJSON(w, http.StatusOK, c.Orchestrator.Export(opts))
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
