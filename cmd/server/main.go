/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the stay cost engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (file + STAY_* environment)
  2. Build the zap logger
  3. Initialize SQLite store
  4. Import the seed data document, if configured
  5. Load the calendar and configure the HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML config file (optional; environment and defaults otherwise)
  -seed    Resort data document to import on startup (overrides data.seed_path)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  ./server -config=./stay.yaml
  STAY_DATABASE_PATH=":memory:" ./server -seed=./data/resorts.json
  STAY_LOG_FORMAT=console STAY_LOG_LEVEL=debug ./server

SEE ALSO:
  - config/config.go: Configuration keys and defaults
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/warp/stay-engine/api"
	"github.com/warp/stay-engine/config"
	"github.com/warp/stay-engine/factory"
	"github.com/warp/stay-engine/logging"
	"github.com/warp/stay-engine/metrics"
	"github.com/warp/stay-engine/store/sqlite"
	"go.uber.org/zap"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "YAML config file")
	seedPath := flag.String("seed", "", "resort data document to import on startup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *seedPath != "" {
		cfg.Data.SeedPath = *seedPath
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.String("path", cfg.Database.Path), zap.Error(err))
	}
	defer store.Close()

	if cfg.Data.SeedPath != "" {
		if err := importSeed(context.Background(), store, cfg.Data.SeedPath); err != nil {
			logger.Fatal("failed to import seed document", zap.String("path", cfg.Data.SeedPath), zap.Error(err))
		}
		logger.Info("seed document imported", zap.String("path", cfg.Data.SeedPath))
	}

	// Initialize handler
	handler := api.NewHandler(store, logger, metrics.NewCollector())
	handler.Defaults = cfg.Defaults.Settings()
	if err := handler.Reload(context.Background()); err != nil {
		logger.Fatal("failed to load calendar", zap.Error(err))
	}

	// Create router
	router := api.NewRouter(handler, cfg.Server.CORSOrigins)

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("server stopped")
}

// importSeed stores a JSON or YAML data document, chosen by file extension.
func importSeed(ctx context.Context, store *sqlite.Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	f := factory.NewResortFactory()
	var doc *factory.DataDocument
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		doc, err = f.DecodeDocumentYAML(data)
	default:
		doc, err = f.DecodeDocument(data)
	}
	if err != nil {
		return err
	}
	if err := store.ImportDocument(ctx, doc); err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	return nil
}
