package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/termdex/termdex/internal/config"
	logpkg "github.com/termdex/termdex/internal/logger"
	"github.com/termdex/termdex/internal/searcher"
	"github.com/termdex/termdex/internal/server"
	"github.com/termdex/termdex/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("termdex glossary server\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", storage.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
		os.Exit(0)
	}

	// Load configuration based on ENV
	env := config.GetEnv()
	cfg := config.MustLoad(env)

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting termdex API server",
		zap.String("version", version),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_path", cfg.Database.Path),
		zap.String("sqlite_driver", storage.DriverName),
		zap.String("build_mode", storage.BuildMode),
	)

	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	// Startup consistency check; a desynced index is repaired in place
	ctx := context.Background()
	if stats, err := store.VerifyTermIndex(ctx); err != nil {
		logger.Warn("Term index out of sync, rebuilding",
			zap.Int("active_terms", stats.ActiveTerms),
			zap.Int("indexed_postings", stats.IndexedPostings),
		)
		indexed, err := store.ReindexTerms(ctx)
		if err != nil {
			logger.Fatal("Failed to rebuild term index", zap.Error(err))
		}
		logger.Info("Term index rebuilt", zap.Int("indexed", indexed))
	}

	formatter := searcher.NewFormatter(cfg.Search.MarkerStart, cfg.Search.MarkerEnd)
	search := searcher.NewSearcher(store, formatter)
	search.SetPageSizes(cfg.Search.DefaultPageSize, cfg.Search.MaxPageSize)
	api := server.NewServer(store, search, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.Router(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
