// Package main is the entrypoint for the shareintake-go bridge server.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MahdiBaghbani/shareintake-go/internal/components/contentindex"
	"github.com/MahdiBaghbani/shareintake-go/internal/components/contentref"
	"github.com/MahdiBaghbani/shareintake-go/internal/components/dropfolder"
	"github.com/MahdiBaghbani/shareintake-go/internal/components/handoff"
	"github.com/MahdiBaghbani/shareintake-go/internal/components/ingest"
	"github.com/MahdiBaghbani/shareintake-go/internal/frameworks/service"
	"github.com/MahdiBaghbani/shareintake-go/internal/platform/appctx"
	"github.com/MahdiBaghbani/shareintake-go/internal/platform/config"
	"github.com/MahdiBaghbani/shareintake-go/internal/platform/deps"
	"github.com/MahdiBaghbani/shareintake-go/internal/platform/http/server"
	"github.com/MahdiBaghbani/shareintake-go/internal/platform/logutil"

	// Register content index drivers
	_ "github.com/MahdiBaghbani/shareintake-go/internal/components/contentindex/loader"
	// Register HTTP services
	_ "github.com/MahdiBaghbani/shareintake-go/internal/services/loader"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to TOML config file (optional)")
	modeFlag := flag.String("mode", "", "Operating mode: strict or dev (overrides config)")
	listenAddr := flag.String("listen", "", "Listen address (overrides config)")
	bridgeToken := flag.String("bridge-token", "", "Bearer token required on /api and /webdav (overrides config)")
	privateRoot := flag.String("private-root", "", "Private document root (overrides config)")
	indexDriver := flag.String("index-driver", "", "Content index driver: memory or sqlite (overrides config)")
	indexDir := flag.String("index-dir", "", "Content index data directory (overrides config)")
	dropFolder := flag.String("drop-folder", "", "Watch this directory for shared files (enables the drop folder)")
	loggingLevel := flag.String("logging-level", "", "Log level: trace, debug, info, warn, error (overrides config)")
	launchShare := flag.String("share", "", "Content reference to ingest as the launch share before serving")
	flag.Parse()

	// Bootstrap logger for config loading errors (uses default level)
	bootstrapLogger := logutil.NewJSON(os.Stdout, slog.LevelInfo)

	// Load config with precedence: mode preset -> TOML file -> CLI flags
	cfg, err := config.Load(config.LoaderOptions{
		ConfigPath: *configPath,
		ModeFlag:   *modeFlag,
		FlagOverrides: config.FlagOverrides{
			ListenAddr:         listenAddr,
			BridgeToken:        bridgeToken,
			PrivateRoot:        privateRoot,
			ContentIndexDriver: indexDriver,
			ContentIndexDir:    indexDir,
			DropFolderPath:     dropFolder,
			LoggingLevel:       loggingLevel,
		},
		Logger: bootstrapLogger,
	})
	if err != nil {
		bootstrapLogger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logutil.NewJSON(os.Stdout, logutil.ParseLevel(cfg.Logging.Level))
	slog.SetDefault(logger)

	// Log effective config with secrets redacted
	logger.Info("effective configuration", "config", cfg.Redacted())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	index, err := contentindex.New(ctx, &contentindex.DriverConfig{
		Driver:  cfg.ContentIndex.Driver,
		DataDir: cfg.ContentIndex.DataDir,
	})
	if err != nil {
		logger.Error("failed to open content index", "driver", cfg.ContentIndex.Driver, "error", err)
		os.Exit(1)
	}
	defer index.Close()

	ingestor := ingest.New(index, nil, &ingest.Settings{
		TransDir:        cfg.Storage.TransDir,
		CopyBufferBytes: cfg.Storage.CopyBufferBytes,
	}, logger.With("component", "ingest"))
	bridge := handoff.NewBridge(logger.With("component", "handoff"))
	intake := handoff.NewIntake(ingestor, bridge, cfg.Storage.PrivateRoot, logger.With("component", "intake"))

	// The launch share is ingested before the UI can ask for it.
	if *launchShare != "" {
		ingestLaunchShare(ctx, intake, *launchShare, logger)
	}

	deps.SetDeps(&deps.Deps{
		Config:      cfg,
		Index:       index,
		IndexDriver: cfg.ContentIndex.Driver,
		Ingestor:    ingestor,
		Bridge:      bridge,
		Intake:      intake,
	})

	services := make(map[string]service.Service)
	for _, name := range service.EnabledServices(cfg.HTTP.Services) {
		newSvc := service.Get(name)
		if newSvc == nil {
			logger.Error("service not registered", "service", name)
			os.Exit(1)
		}
		svc, err := newSvc(cfg.BuildServiceConfig(name), logger.With("service", name))
		if err != nil {
			logger.Error("failed to create service", "service", name, "error", err)
			os.Exit(1)
		}
		services[name] = svc
	}

	srv, err := server.New(cfg, logger, services)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	var watcher *dropfolder.Watcher
	if cfg.DropFolder.Enabled {
		watcher, err = dropfolder.New(cfg.DropFolder.Path,
			time.Duration(cfg.DropFolder.DebounceMS)*time.Millisecond, intake, logger)
		if err != nil {
			logger.Error("failed to create drop folder watcher", "error", err)
			os.Exit(1)
		}
		if err := watcher.Start(ctx); err != nil {
			logger.Error("failed to start drop folder watcher", "error", err)
			os.Exit(1)
		}
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("server started, press Ctrl+C to stop")

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("shutdown signal received")

	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			logger.Warn("drop folder watcher stop error", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// ingestLaunchShare runs raw through the launch path. Failures only leave
// the pull slot empty.
func ingestLaunchShare(ctx context.Context, intake *handoff.Intake, raw string, logger *slog.Logger) {
	ref, err := contentref.Parse(raw)
	if err != nil {
		logger.Warn("ignoring unparseable launch share", "reference", raw, "error", err)
		return
	}

	eventID := appctx.NewEventID()
	ctx = appctx.WithEventID(ctx, eventID)
	ev := intake.Handle(ctx, handoff.OriginLaunch, ref)
	if ev.Result.OK() {
		logger.Info("launch share ingested", "event_id", ev.ID, "path", ev.Result.Path)
	}
}
