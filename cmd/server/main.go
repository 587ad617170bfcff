package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/productimport/internal/config"
	"github.com/JonMunkholm/productimport/internal/core"
	_ "github.com/JonMunkholm/productimport/internal/core/targets" // Register all targets
	"github.com/JonMunkholm/productimport/internal/logging"
	"github.com/JonMunkholm/productimport/internal/sink"
	"github.com/JonMunkholm/productimport/internal/web"
)

func main() {
	// Overload lets a local .env win over the shell environment.
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"driver", cfg.Database.Driver,
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"api_key_required", cfg.Security.RequireAPIKey,
	)

	loc, err := cfg.Import.Location()
	if err != nil {
		slog.Error("invalid time zone", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := sink.Open(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	importer := core.NewImporter(core.DefaultReaderLocator(), db.NewWriter,
		core.WithLocation(loc),
		core.WithDefaultGroups(cfg.Import.Groups...),
	)
	limiter := core.NewRunLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWait)

	slog.Info("targets registered", "count", len(core.All()), "formats", importer.Formats())

	server := web.NewServer(cfg, importer, limiter, db.Ping)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := limiter.Status(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
