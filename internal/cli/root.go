package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quizgen-dev/quizgen/internal/cli/commands"
	"github.com/quizgen-dev/quizgen/internal/logger"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the quizgen command tree around env
func NewRootCmd(env *commands.Env, version string) *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "quizgen",
		Short: "quizgen - AI-generated quizzes, lessons and exercises",
		Long: `quizgen CLI - Generate educational content from your terminal.

Sign in once, then generate quiz questions, lesson plans and exercises
by subject and grade level. The same account works in the web dashboard.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.InitWriter(os.Stderr, "debug", "console")
				env.Logger = logger.GetLogger()
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log requests and session changes to stderr")

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(env.Out, "quizgen version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewLoginCmd(env))
	rootCmd.AddCommand(commands.NewRegisterCmd(env))
	rootCmd.AddCommand(commands.NewLogoutCmd(env))
	rootCmd.AddCommand(commands.NewWhoamiCmd(env))
	rootCmd.AddCommand(commands.NewGenerateCmd(env))
	rootCmd.AddCommand(commands.NewDoctorCmd(env))
	rootCmd.AddCommand(commands.NewDashCmd(env))
	rootCmd.AddCommand(commands.NewServeCmd(version))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	if err := NewRootCmd(commands.DefaultEnv(), version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
