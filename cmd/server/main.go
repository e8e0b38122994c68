package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kisanmitra/agri-advisor/internal/api"
	"github.com/kisanmitra/agri-advisor/internal/app"
	"github.com/kisanmitra/agri-advisor/internal/config"
	"github.com/kisanmitra/agri-advisor/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl := logger.New(cfg.Log.Level, cfg.Log.Format)
	appLog := logger.NewZapAdapter(zl)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = serve(ctx, cfg, appLog)
	stop()
	if err != nil {
		appLog.Error("server stopped", map[string]interface{}{"error": err.Error()})
	}
	_ = zl.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// serve runs the HTTP API until ctx is cancelled or the listener fails.
// Services are always closed before it returns.
func serve(ctx context.Context, cfg *config.Config, appLog logger.Logger) error {
	a, err := app.New(ctx, cfg, appLog)
	if err != nil {
		return fmt.Errorf("failed to initialise services: %w", err)
	}
	defer a.Close()

	apiHandler, err := api.NewAPIHandler(a.Pipeline, a.Advisor, a.Auth, cfg.Server.MaxBatchItems, appLog)
	if err != nil {
		return fmt.Errorf("failed to build API handler: %w", err)
	}
	router := api.NewRouter(apiHandler)

	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // advice may wait on the LLM and the weather API
		IdleTimeout:  120 * time.Second,
	}

	listenErr := make(chan error, 1)
	go func() {
		appLog.Info("starting server", map[string]interface{}{"addr": serverAddr, "llm": a.LLM != nil, "auth": a.Auth.Enabled()})
		listenErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-listenErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("could not listen on %s: %w", serverAddr, err)
	case <-ctx.Done():
	}
	appLog.Info("shutting down server", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	appLog.Info("server exited gracefully", nil)
	return nil
}
