package main

import (
	"os"

	"github.com/quizgen-dev/quizgen/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
