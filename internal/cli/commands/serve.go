package commands

import (
	"github.com/spf13/cobra"

	"github.com/quizgen-dev/quizgen/internal/server"
)

// NewServeCmd creates the serve command, which runs the web frontend
func NewServeCmd(version string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web frontend",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := server.Setup(version, server.SetupOptions{ListenAddr: addr, Banner: true})
			if err != nil {
				return err
			}
			return srv.Start()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides LISTEN_ADDR)")

	return cmd
}
