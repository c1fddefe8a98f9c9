package server

import (
	"fmt"

	"github.com/common-nighthawk/go-figure"

	"github.com/quizgen-dev/quizgen/internal/api"
	"github.com/quizgen-dev/quizgen/internal/config"
	"github.com/quizgen-dev/quizgen/internal/logger"
)

// SetupOptions adjusts the environment configuration before the server is built
type SetupOptions struct {
	// ListenAddr overrides LISTEN_ADDR when set
	ListenAddr string
	// Banner prints the startup banner to stdout
	Banner bool
}

// Setup loads configuration, initializes the global logger and builds a
// server talking to the build-time backend. Every entrypoint starts the
// frontend through here.
func Setup(version string, opts SetupOptions) (*Server, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.ListenAddr != "" {
		cfg.HTTP.ListenAddr = opts.ListenAddr
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	if opts.Banner {
		figure.NewFigure("quizgen", "cybermedium", true).Print()
		fmt.Println()
	}

	// Backend client shared by every request; sessions attach their own token
	client := api.New(api.DefaultBaseURL, nil, api.WithTimeout(cfg.API.Timeout))

	srv, err := New(cfg, log, client, version)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	log.Info().
		Str("version", version).
		Str("backend", client.BaseURL()).
		Str("addr", cfg.HTTP.ListenAddr).
		Msg("Starting quizgen web frontend...")

	return srv, nil
}
