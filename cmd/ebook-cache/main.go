// Package main provides the ebook-cache CLI for maintaining the on-disk
// chapter and page caches.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bull/ebook-search-mcp/internal/app"
	"github.com/bull/ebook-search-mcp/internal/config"
	"github.com/bull/ebook-search-mcp/internal/indexer"
	"github.com/bull/ebook-search-mcp/internal/komga"
	"github.com/bull/ebook-search-mcp/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "ebook-cache",
	Short: "Ebook cache maintenance tool",
	Long:  "CLI tool for inspecting, sweeping and pre-loading the ebook search cache",
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove expired and unreadable cache records",
	Args:  cobra.NoArgs,
	RunE:  runCleanup,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show disk cache statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var warmQuery string

var warmCmd = &cobra.Command{
	Use:   "warm [book-id...]",
	Short: "Pre-load books into the cache",
	Long: `Extracts and caches books so the first read or search is served from disk.

For each book this command:
1. Fetches the book metadata from Komga
2. Routes it to the chapter, text or image path (classifying PDFs)
3. Extracts chapters or simulated pages and writes them to the disk cache

Image-only books are classified but have nothing to cache.

Environment variables:
  KOMGA_URL         Komga base URL (default: http://localhost:25600)
  KOMGA_USERNAME    Komga username (required)
  KOMGA_PASSWORD    Komga password (required)
  EBOOKS_CACHE_DIR  Cache directory (default: ~/.mcp-search-ebooks-cache)`,
	RunE: runWarm,
}

func init() {
	warmCmd.Flags().StringVarP(&warmQuery, "query", "q", "", "also warm every book matching this Komga full-text query")
	rootCmd.AddCommand(cleanupCmd, statsCmd, warmCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("Failed to load configuration: %w", err)
	}
	a, err := app.New(cfg, app.NewLogger(os.Stderr, cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("Failed to initialize: %w", err)
	}
	return a, nil
}

func runCleanup(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	chapters, pages := a.CleanupExpired()
	fmt.Println("Cleanup complete!")
	fmt.Printf("  Chapters removed: %d\n", chapters)
	fmt.Printf("  Pages removed: %d\n", pages)
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	for _, s := range []struct {
		name  string
		store *storage.DiskStore
	}{
		{storage.KindChapters, a.ChapterStore},
		{storage.KindPages, a.PageStore},
	} {
		stats, err := s.store.Stats()
		if err != nil {
			return fmt.Errorf("Failed to read %s cache: %w", s.name, err)
		}
		printStats(s.name, stats)
	}
	return nil
}

func printStats(name string, stats *storage.Stats) {
	fmt.Printf("%s (%s)\n", name, stats.Directory)
	fmt.Printf("  Entries: %d\n", stats.Entries)
	fmt.Printf("  Size: %d bytes\n", stats.TotalSize)
	if stats.OldestEntry != nil {
		fmt.Printf("  Oldest: %s\n", stats.OldestEntry.Format(time.RFC3339))
	}
	fmt.Println()
}

func runWarm(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()
	start := time.Now()

	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	ids := append([]string(nil), args...)
	if warmQuery != "" {
		books, err := a.Komga.SearchBooks(ctx, komga.BookSearch{FullTextSearch: warmQuery})
		if err != nil {
			return fmt.Errorf("Failed to search Komga: %w", err)
		}
		for _, b := range books {
			ids = append(ids, b.ID)
		}
	}
	if len(ids) == 0 {
		return errors.New("no books to warm: pass book ids or --query")
	}

	fmt.Printf("Warming %d books...\n", len(ids))
	fmt.Println()

	pipeline := indexer.NewPipeline(a.Router, a.Logger, a.ChapterCache, a.PageCache)
	result := pipeline.WarmAll(ctx, ids)

	fmt.Println()
	fmt.Println("Warm-up complete!")
	fmt.Printf("  Cached: %d/%d\n", result.CachedBooks, result.TotalBooks)
	fmt.Printf("  Image-only: %d\n", result.ImageOnlyBooks)
	fmt.Printf("  Units: %d\n", result.TotalUnits)
	fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Second))

	if len(result.Books) > 0 {
		fmt.Println()
		fmt.Println("Books:")
		for _, b := range result.Books {
			tier := string(b.Tier)
			if tier == "" {
				tier = "-"
			}
			fmt.Printf("  - %s %q: %s (%s), %d units\n", b.BookID, b.Title, b.Path, tier, b.Units)
		}
	}

	if len(result.FailedBooks) > 0 {
		fmt.Println()
		fmt.Println("Failed books:")
		for _, failed := range result.FailedBooks {
			fmt.Printf("  - %s: %s\n", failed.BookID, failed.Reason)
		}
	}

	fmt.Println()
	fmt.Printf("Total time: %s\n", time.Since(start).Round(time.Second))
	return nil
}
