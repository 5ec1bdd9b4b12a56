// Package app wires the Komga client, cache tiers and router together for
// the server and the cache CLI.
package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/bull/ebook-search-mcp/internal/cache"
	"github.com/bull/ebook-search-mcp/internal/catalog"
	"github.com/bull/ebook-search-mcp/internal/config"
	"github.com/bull/ebook-search-mcp/internal/extract"
	"github.com/bull/ebook-search-mcp/internal/imaging"
	"github.com/bull/ebook-search-mcp/internal/komga"
	"github.com/bull/ebook-search-mcp/internal/retrieval"
	"github.com/bull/ebook-search-mcp/internal/storage"
)

// App holds the long-lived components of one process.
type App struct {
	Config       *config.Config
	Logger       *slog.Logger
	Komga        *komga.Client
	ChapterStore *storage.DiskStore
	PageStore    *storage.DiskStore
	ChapterCache *cache.Orchestrator
	PageCache    *cache.Orchestrator
	Router       *retrieval.Router
	Catalog      *catalog.Service
}

// NewLogger returns a text logger on w at the given level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// New builds an App from cfg.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client, err := komga.NewClient(komga.Config{
		BaseURL:           cfg.KomgaURL,
		Username:          cfg.KomgaUsername,
		Password:          cfg.KomgaPassword,
		RequestsPerSecond: cfg.KomgaRequestsPerSecond,
		Logger:            logger.With("component", "komga"),
	})
	if err != nil {
		return nil, fmt.Errorf("create komga client: %w", err)
	}

	a := &App{
		Config:       cfg,
		Logger:       logger,
		Komga:        client,
		ChapterStore: storage.NewDiskStore(cfg.ChaptersDir(), storage.KindChapters, storage.WithLogger(logger)),
		PageStore:    storage.NewDiskStore(cfg.PagesDir(), storage.KindPages, storage.WithLogger(logger)),
	}
	a.ChapterCache = cache.NewOrchestrator(cache.Config{
		Name:     storage.KindChapters,
		Store:    a.ChapterStore,
		Logger:   logger,
		Coalesce: cfg.CoalesceLoads,
	})
	a.PageCache = cache.NewOrchestrator(cache.Config{
		Name:     storage.KindPages,
		Store:    a.PageStore,
		Logger:   logger,
		Coalesce: cfg.CoalesceLoads,
	})

	extractor := extract.NewExtractor(client, logger)
	a.Router = retrieval.NewRouter(retrieval.Config{
		Books:        client,
		Text:         extractor,
		Chapters:     extractor,
		Images:       imaging.NewCompressor(),
		ChapterCache: a.ChapterCache,
		PageCache:    a.PageCache,
		Logger:       logger,
	})
	a.Catalog = catalog.NewService(client, cfg.KomgaLibrary, logger)
	return a, nil
}

// CleanupExpired sweeps both disk tiers and returns the records removed from each.
func (a *App) CleanupExpired() (chapters, pages int) {
	return a.ChapterStore.CleanupExpired(), a.PageStore.CleanupExpired()
}

// Close waits for pending cache writes and releases the memory tiers.
func (a *App) Close() error {
	return errors.Join(a.ChapterCache.Close(), a.PageCache.Close())
}
