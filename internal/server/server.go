package server

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/quickkiraana/kiraana/config"
	"github.com/quickkiraana/kiraana/internal/kernel"
	"github.com/quickkiraana/kiraana/pkg/grpc"
	"github.com/quickkiraana/kiraana/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// Start boots the application and serves HTTP and gRPC until SIGINT or
// SIGTERM, then drains both.
func Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := Boot(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	k, err := kernel.NewHTTPKernel(app.Services, kernel.Options{})
	if err != nil {
		return err
	}
	defer k.Close()

	go app.Hub.Run(ctx)

	grpcSrv, err := grpc.Start(config.GRPCPort(), app.StoreUp)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           k.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", "addr", srv.Addr, "env", config.AppEnv())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			grpcSrv.Stop()
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown", "error", err)
	}
	grpcSrv.Stop()
	app.Bus.Wait()

	logger.Info("server stopped")
	return nil
}
