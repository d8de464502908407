package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"floatbt/internal/config"
	"floatbt/internal/httpapi"
	"floatbt/internal/store"
	"floatbt/internal/util"
)

func main() {
	// Load config.
	cfgPath := "config/floatbt.yaml"
	if p := os.Getenv("FLOATBT_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// Setup logging.
	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	// Create sinks and server.
	sinks, closeSinks, err := store.OpenSinks(cfg.Export)
	if err != nil {
		log.Fatalf("opening export sinks: %v", err)
	}
	defer closeSinks()

	srv, err := httpapi.NewServer(cfg, logger)
	if err != nil {
		log.Fatalf("initializing server: %v", err)
	}
	srv.SetSinks(sinks...)
	if db, ok := store.FindSQLite(sinks); ok {
		srv.SetRunLister(db)
	}

	// Start HTTP server.
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info("floatbt server listening", "addr", httpServer.Addr, "sinks", len(sinks))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down floatbt server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
