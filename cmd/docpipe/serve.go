package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adfharrison1/go-docpipe/pkg/accessor"
	"github.com/adfharrison1/go-docpipe/pkg/server"
)

func newServeCmd() *cobra.Command {
	var (
		port            string
		shutdownTimeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = cfg.Port
			}
			return serve(cmd.Context(), port, shutdownTimeout)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "server port, overrides PORT")
	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "deadline for outstanding requests on shutdown")
	return cmd
}

func serve(ctx context.Context, port string, shutdownTimeout time.Duration) error {
	store, err := openStore(ctx, cfg, cfg.Mongo.Database, logger)
	if err != nil {
		return err
	}
	defer closeStore(store)

	acc := accessor.New(store, accessor.WithLogger(logger))
	srv := server.NewServer(acc, store, logger)

	httpServer := &http.Server{
		Addr:    ":" + port,
		Handler: srv.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting docpipe server",
			zap.String("addr", httpServer.Addr),
			zap.String("driver", cfg.StoreDriver),
			zap.String("env", cfg.Env))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("server exited")
	return nil
}
