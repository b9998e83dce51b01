package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/esg-engine/internal/dashboard"
	"github.com/sells-group/esg-engine/internal/source"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard view model over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("server"); err != nil {
			return err
		}
		src, closeSrc, err := openSource(ctx, cfg, sourceKind, sourceFile)
		if err != nil {
			return err
		}
		defer closeSrc()

		load := func(ctx context.Context, filters dashboard.Filters) (*source.Dataset, error) {
			return source.Load(ctx, src, source.LoadOptions{
				YearFrom:    filters.YearFrom,
				YearTo:      filters.YearTo,
				Concurrency: cfg.Fetch.MaxConcurrentFirms,
			})
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newAPIServer(load, cfg.Scoring).routes(cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port), zap.String("source", src.Name()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&sourceKind, "source", "store", "data source: store, api or file")
	serveCmd.Flags().StringVar(&sourceFile, "file", "", "snapshot JSON for --source file")
	rootCmd.AddCommand(serveCmd)
}
