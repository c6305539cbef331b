package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/photo-tools-mcp/internal/config"
	"github.com/ironsheep/photo-tools-mcp/internal/preset"
	"github.com/ironsheep/photo-tools-mcp/internal/server"
	"github.com/ironsheep/photo-tools-mcp/internal/subject"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("photo-tools-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("photo-tools-mcp - MCP server for photo editing")
			fmt.Println()
			fmt.Println("Usage: photo-tools-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  PHOTO_MCP_LOG_LEVEL=debug        Log level: debug, info, warn, error")
			fmt.Println("  PHOTO_MCP_LOG_FILE=path          Log to a rotating file instead of stderr")
			fmt.Println("  PHOTO_MCP_PRESETS=path           YAML preset catalog added to the built-ins")
			fmt.Println("  PHOTO_MCP_CASCADE=path           pigo face cascade for subject segmentation")
			fmt.Println("  PHOTO_MCP_BATCH_WORKERS=n        Concurrent photos per batch (default: CPUs)")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	cfg, warnings := config.Load()
	logger, err := config.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "photo-tools-mcp: %v\n", err)
		os.Exit(1)
	}
	for _, w := range warnings {
		logger.Warn(w)
	}

	logger.WithFields(logrus.Fields{
		"version":       Version,
		"build_time":    BuildTime,
		"git_commit":    GitCommit,
		"batch_workers": cfg.BatchWorkers,
	}).Debug("Photo MCP Server starting")

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithVersion(Version),
		server.WithBatchWorkers(cfg.BatchWorkers),
		server.WithCatalog(loadCatalog(cfg, logger)),
	}
	if seg := loadSegmenter(cfg, logger); seg != nil {
		opts = append(opts, server.WithSegmenter(seg))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(opts...)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.WithError(err).Fatal("Server error")
	}
}

// loadCatalog returns the built-in presets, plus the configured YAML file when
// it loads cleanly.
func loadCatalog(cfg config.Config, logger *logrus.Logger) *preset.Catalog {
	catalog := preset.Builtin()
	if cfg.PresetsFile == "" {
		return catalog
	}
	n, err := catalog.LoadFile(cfg.PresetsFile)
	if err != nil {
		logger.WithError(err).WithField("path", cfg.PresetsFile).Warn("Preset catalog not loaded, using built-ins only")
		return catalog
	}
	logger.WithField("path", cfg.PresetsFile).WithField("count", n).Info("Loaded preset catalog")
	return catalog
}

// loadSegmenter returns nil when no cascade is configured or it cannot be read.
func loadSegmenter(cfg config.Config, logger *logrus.Logger) subject.Segmenter {
	if cfg.CascadeFile == "" {
		logger.Debug("No face cascade configured, subject-only retouch uses the skin heuristic")
		return nil
	}
	seg, err := subject.LoadFaceSegmenter(cfg.CascadeFile)
	if err != nil {
		logger.WithError(err).WithField("path", cfg.CascadeFile).Warn("Face segmentation disabled")
		return nil
	}
	return seg
}
