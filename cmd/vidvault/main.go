// vidvault is a video file catalog server: it scans directories for
// video files, extracts technical metadata with ffprobe, and serves a
// searchable catalog with tags and custom metadata over HTTP.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mantonx/vidvault/internal/config"
	"github.com/mantonx/vidvault/internal/database"
	"github.com/mantonx/vidvault/internal/events"
	"github.com/mantonx/vidvault/internal/logger"
	"github.com/mantonx/vidvault/internal/modules/modulemanager"
	"github.com/mantonx/vidvault/internal/server"

	// Modules self-register through their init functions.
	_ "github.com/mantonx/vidvault/internal/modules/databasemodule"
	_ "github.com/mantonx/vidvault/internal/modules/scannermodule"
	_ "github.com/mantonx/vidvault/internal/modules/videomodule"
)

func main() {
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if err := config.Load(*configPath); err != nil {
		logger.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	cfg := config.Get()
	logger.Configure(cfg.Logging.Level, cfg.Logging.Format)

	if err := database.Initialize(); err != nil {
		logger.Error("Failed to initialize database: %v", err)
		os.Exit(1)
	}

	eventBus := events.NewBus(256)
	if err := eventBus.Start(context.Background()); err != nil {
		logger.Error("Failed to start event bus: %v", err)
		os.Exit(1)
	}
	events.SetGlobalEventBus(eventBus)

	if err := modulemanager.LoadAll(database.GetDB()); err != nil {
		logger.Error("Failed to load modules: %v", err)
		os.Exit(1)
	}

	srv := server.New()
	eventBus.PublishAsync(events.NewSystemEvent(events.EventSystemStarted, "Server Started", ""))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error: %v", err)
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("Received signal %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown error: %v", err)
	}
	modulemanager.ShutdownAll()
	eventBus.PublishAsync(events.NewSystemEvent(events.EventSystemStopped, "Server Stopped", ""))
	_ = eventBus.Stop(shutdownCtx)

	logger.Info("Shutdown complete")
}
