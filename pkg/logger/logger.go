package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	defaultLogger *slog.Logger
	logWriter     *lumberjack.Logger
	once          sync.Once
)

type Config struct {
	Level      slog.Level
	Format     string // "json" or "text"
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
	UseConsole bool // also log to stderr
}

// Usage:
// In main.go:
//
//	err := logger.Initialize(logger.Config{
//	    Level:      slog.LevelInfo,
//	    Format:     "json",
//	    FilePath:   filepath.Join(configDir, "chatbot.log"),
//	    MaxSize:    10,
//	    MaxBackups: 5,
//	    MaxAge:     30,
//	})
//	defer logger.Close()
//
// In any package:
//
//	logger.Info("Chat saved", "file", path)
//
// The chat output owns the terminal, so with no FilePath and no UseConsole
// everything is discarded.
func Initialize(config Config) error {
	var err error

	once.Do(func() {
		err = setup(config)
	})

	return err
}

func setup(config Config) error {
	if config.FilePath != "" {
		logDir := filepath.Dir(config.FilePath)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return fmt.Errorf("error creating log directory: %w", err)
		}

		logWriter = &lumberjack.Logger{
			Filename:   config.FilePath,
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAge,
			Compress:   config.Compress,
		}
	}

	var writer io.Writer
	switch {
	case logWriter != nil && config.UseConsole:
		writer = io.MultiWriter(os.Stderr, logWriter)
	case logWriter != nil:
		writer = logWriter
	case config.UseConsole:
		writer = os.Stderr
	default:
		writer = io.Discard
	}

	opts := &slog.HandlerOptions{Level: config.Level}
	var handler slog.Handler
	if config.Format == "json" {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)

	return nil
}

// ParseLevel maps "debug", "info", "warn" and "error" (any case) to a level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// NOTE: Can use like this: Get().Info("message", "key", "value"); or
// log := logger.Get(); log.Info("message", "key", "value")
func Get() *slog.Logger {
	if defaultLogger == nil {
		return slog.Default()
	}
	return defaultLogger
}

func Close() error {
	if logWriter != nil {
		return logWriter.Close()
	}
	return nil
}

// Helper functions
func Debug(msg string, args ...any) {
	Get().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	Get().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	Get().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	Get().Error(msg, args...)
}

// With returns a logger carrying the given key/value pairs, eg:
//
//	log := logger.With("provider", "openai")
//	log.Info("stream finished")
func With(args ...any) *slog.Logger {
	return Get().With(args...)
}
