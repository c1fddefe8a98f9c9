package main

import (
	"fmt"
	"os"

	"github.com/quizgen-dev/quizgen/internal/logger"
	"github.com/quizgen-dev/quizgen/internal/server"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	srv, err := server.Setup(version, server.SetupOptions{Banner: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// Start HTTP server (this blocks)
	if err := srv.Start(); err != nil {
		log := logger.GetLogger()
		log.Fatal().Err(err).Msg("Server failed to start")
	}
}
