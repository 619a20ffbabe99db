package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/duluk/chatbot/pkg/chat"
	"github.com/duluk/chatbot/pkg/config"
	"github.com/duluk/chatbot/pkg/logger"
	"github.com/duluk/chatbot/pkg/prompt"
)

// Init parses the command line and config file for profile, handles
// --version and --dump-config, and starts the logger. done reports that the
// program has nothing left to do.
func Init(profile config.Profile, out io.Writer) (opts *config.Options, done bool, err error) {
	opts, err = config.Initialize(profile)
	if err != nil {
		return nil, false, fmt.Errorf("error initializing config: %w", err)
	}

	if opts.ShowVersion {
		fmt.Fprintln(out, config.FullVersion())
		return opts, true, nil
	}
	if opts.DumpConfig {
		return opts, true, config.DumpConfig(out, opts)
	}

	level, err := logger.ParseLevel(opts.LogLevel)
	if err != nil {
		return nil, false, err
	}
	if err := os.MkdirAll(filepath.Dir(opts.LogFileName), 0o755); err != nil {
		return nil, false, fmt.Errorf("error creating log directory: %w", err)
	}
	err = logger.Initialize(logger.Config{
		Level:      level,
		Format:     opts.LogFormat,
		FilePath:   opts.LogFileName,
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
		UseConsole: false,
	})
	if err != nil {
		return nil, false, fmt.Errorf("error initializing logger: %w", err)
	}
	logger.Info("Starting", "profile", profile.Name, "version", config.Version, "config", opts.ConfigFile)

	return opts, false, nil
}

// NewPrompter uses the interactive editor on a terminal and plain line
// reading otherwise.
func NewPrompter(width int) chat.Prompter {
	if prompt.IsInteractive() {
		return prompt.NewTerminal("You:", width)
	}
	return prompt.NewPlain(os.Stdin, os.Stdout)
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Exit prints err and exits non-zero; a nil err exits cleanly.
func Exit(err error) {
	logger.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	os.Exit(0)
}
