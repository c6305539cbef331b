// Package config reads the server's environment settings and builds its logger.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Environment variable names.
const (
	EnvLogLevel     = "PHOTO_MCP_LOG_LEVEL"
	EnvLogFile      = "PHOTO_MCP_LOG_FILE"
	EnvPresets      = "PHOTO_MCP_PRESETS"
	EnvCascade      = "PHOTO_MCP_CASCADE"
	EnvBatchWorkers = "PHOTO_MCP_BATCH_WORKERS"
)

// Config is the server configuration.
type Config struct {
	// LogLevel is one of debug, info, warn or error.
	LogLevel string
	// LogFile, when set, sends logs to a rotating file instead of stderr.
	LogFile string
	// PresetsFile is a YAML preset catalog merged over the built-in presets.
	PresetsFile string
	// CascadeFile is a pigo face cascade; empty disables face segmentation.
	CascadeFile string
	// BatchWorkers bounds how many photos a batch call processes at once.
	BatchWorkers int
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	return Config{
		LogLevel:     "info",
		BatchWorkers: runtime.NumCPU(),
	}
}

// Load reads the environment. Invalid values keep their defaults and are
// reported in the returned warnings, which the caller logs once a logger exists.
func Load() (Config, []string) {
	cfg := Default()
	var warnings []string

	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		if _, err := logrus.ParseLevel(v); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s=%q is not a log level, using %q", EnvLogLevel, v, cfg.LogLevel))
		} else {
			cfg.LogLevel = strings.ToLower(v)
		}
	}

	cfg.LogFile = strings.TrimSpace(os.Getenv(EnvLogFile))
	cfg.PresetsFile = strings.TrimSpace(os.Getenv(EnvPresets))
	cfg.CascadeFile = strings.TrimSpace(os.Getenv(EnvCascade))

	if v := strings.TrimSpace(os.Getenv(EnvBatchWorkers)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			warnings = append(warnings, fmt.Sprintf("%s=%q is not a positive integer, using %d", EnvBatchWorkers, v, cfg.BatchWorkers))
		} else {
			cfg.BatchWorkers = n
		}
	}

	return cfg, warnings
}

// NewLogger builds the process logger. stdout carries the protocol, so logs go
// to stderr unless a log file is configured.
func NewLogger(cfg Config) (*logrus.Logger, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if level >= logrus.DebugLevel {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	var out io.Writer = os.Stderr
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		out = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // MB
			MaxBackups: 2,
			MaxAge:     28, // days
			Compress:   true,
		}
	}
	logger.SetOutput(out)

	return logger, nil
}
