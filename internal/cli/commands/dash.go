package commands

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quizgen-dev/quizgen/internal/cli/userconfig"
)

const defaultWebURL = "http://localhost:3000"

// NewDashCmd creates the dash command
func NewDashCmd(env *Env) *cobra.Command {
	var webURL string

	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Open the web dashboard in browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDash(env, webURL)
		},
	}

	cmd.Flags().StringVar(&webURL, "url", "", "Web frontend address (remembered for next time)")

	return cmd
}

func runDash(env *Env, webURL string) error {
	prefs, err := userconfig.Load()
	if err != nil {
		return err
	}

	if webURL != "" {
		prefs.Web = webURL
		if err := userconfig.Save(prefs); err != nil {
			return err
		}
	}

	base := prefs.Web
	if base == "" {
		base = defaultWebURL
	}
	dashboardURL := strings.TrimRight(base, "/") + "/dashboard"

	env.println("Opening dashboard...")
	env.printf("URL: %s\n", dashboardURL)

	if err := env.OpenURL(dashboardURL); err != nil {
		return fmt.Errorf("failed to open browser: %w\nPlease visit: %s", err, dashboardURL)
	}

	return nil
}

// openBrowser opens the URL in the default browser
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
