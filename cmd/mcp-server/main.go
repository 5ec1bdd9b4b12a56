// Package main provides the MCP server entry point for the Komga ebook library.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bull/ebook-search-mcp/internal/app"
	"github.com/bull/ebook-search-mcp/internal/config"
	mcpserver "github.com/bull/ebook-search-mcp/internal/mcp"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	code := run(ctx, app.New)
	cancel()
	os.Exit(code)
}

// run serves until ctx is done and returns the process exit code.
// Once the app is built its caches are closed on every return path.
func run(ctx context.Context, newApp func(*config.Config, *slog.Logger) (*app.App, error)) int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("failed to load configuration: %v", err)
		return 1
	}

	// Stdout carries the stdio transport, so logs go to stderr
	logger := app.NewLogger(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	a, err := newApp(cfg, logger)
	if err != nil {
		log.Printf("failed to initialize: %v", err)
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("Failed to close caches", "error", err)
		}
	}()

	chapters, pages := a.CleanupExpired()
	logger.Info("Startup cache sweep complete", "chapters_removed", chapters, "pages_removed", pages, "cache_dir", cfg.CacheDir)

	server := mcpserver.NewServer(&mcpserver.Config{
		Catalog:   a.Catalog,
		Retriever: a.Router,
	})

	// Landing page, MCP over HTTP and the health endpoint
	mux := mcpserver.NewMux(server, a.Komga, nil)
	addr := "0.0.0.0:" + cfg.Port

	if cfg.ServerMode {
		// HTTP mode: serve MCP over HTTP for remote clients
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			<-ctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()

		log.Printf("Starting HTTP server on %s (MCP at /mcp, health at /health)", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("HTTP server error: %v", err)
			return 1
		}
		return 0
	}

	// Stdio mode: run MCP server over stdin/stdout for local clients
	// Also start HTTP health endpoint in background for local testing
	go func() {
		log.Printf("Starting health server on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("Health server error: %v", err)
		}
	}()

	log.Printf("Starting %s %s (stdio mode)...", config.ServerName, config.ServerVersion)
	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("server error: %v", err)
		return 1
	}
	return 0
}
