package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quizgen-dev/quizgen/internal/session"
)

// NewLoginCmd creates the login command
func NewLoginCmd(env *Env) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the content generator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), env, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set QUIZGEN_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set QUIZGEN_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(ctx context.Context, env *Env, email, password string) error {
	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("QUIZGEN_EMAIL")
	}
	if password == "" {
		password = os.Getenv("QUIZGEN_PASSWORD")
	}

	email, err := askInput(env, email, "Email", "email is required (use --email flag or QUIZGEN_EMAIL env var)")
	if err != nil {
		return err
	}
	password, err = askPassword(env, password, "password is required in non-interactive mode (use --password flag or QUIZGEN_PASSWORD env var)")
	if err != nil {
		return err
	}

	env.printf("Logging in to %s...\n", env.BaseURL)

	sess, err := env.manager().Login(ctx, email, password)
	if err != nil {
		env.Logger.Debug().Err(err).Msg("Login failed")
		return fmt.Errorf("login failed: %s", serverMessage(err, "Failed to login"))
	}

	env.println("✓ Login successful!")
	env.printf("  User: %s (%s)\n", sess.Name, sess.Email)
	return nil
}

// NewRegisterCmd creates the register command
func NewRegisterCmd(env *Env) *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in with it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd.Context(), env, username, email, password)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username")
	cmd.Flags().StringVar(&email, "email", "", "Email address (or set QUIZGEN_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set QUIZGEN_PASSWORD, will prompt if not provided)")

	return cmd
}

func runRegister(ctx context.Context, env *Env, username, email, password string) error {
	if email == "" {
		email = os.Getenv("QUIZGEN_EMAIL")
	}
	if password == "" {
		password = os.Getenv("QUIZGEN_PASSWORD")
	}

	username, err := askInput(env, username, "Username", "username is required (use --username flag)")
	if err != nil {
		return err
	}
	email, err = askInput(env, email, "Email", "email is required (use --email flag or QUIZGEN_EMAIL env var)")
	if err != nil {
		return err
	}
	password, err = askPassword(env, password, "password is required in non-interactive mode (use --password flag or QUIZGEN_PASSWORD env var)")
	if err != nil {
		return err
	}

	sess, err := env.manager().Register(ctx, username, email, password)
	if err != nil {
		env.Logger.Debug().Err(err).Msg("Registration failed")
		return fmt.Errorf("registration failed: %s", serverMessage(err, "Failed to register"))
	}

	env.println("✓ Registration successful!")
	env.printf("  User: %s (%s)\n", sess.Name, sess.Email)
	return nil
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.manager().Logout(); err != nil {
				return err
			}
			env.println("✓ Logged out")
			return nil
		},
	}
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, sess, err := restoreSession(cmd.Context(), env)
			if err != nil {
				return err
			}

			env.printf("%s (%s)\n", sess.Name, sess.Email)
			if exp, ok := mgr.Expiry(); ok {
				env.printf("  Session expires: %s\n", exp.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

// restoreSession verifies the stored token with the backend
func restoreSession(ctx context.Context, env *Env) (*session.Manager, *session.Session, error) {
	mgr := env.manager()
	if err := mgr.Bootstrap(ctx); err != nil {
		if session.IsAuthError(err) {
			return nil, nil, ErrSessionExpired
		}
		return nil, nil, fmt.Errorf("failed to restore session: %w", err)
	}

	sess, ok := mgr.Current()
	if !ok {
		return nil, nil, ErrNotLoggedIn
	}
	return mgr, sess, nil
}

func askInput(env *Env, value, label, missing string) (string, error) {
	if value = strings.TrimSpace(value); value != "" {
		return value, nil
	}
	if !env.Interactive {
		return "", errors.New(missing)
	}
	value, err := env.Prompter.Input(label)
	if err != nil {
		return "", err
	}
	if value == "" {
		return "", errors.New(missing)
	}
	return value, nil
}

func askPassword(env *Env, value, missing string) (string, error) {
	if value != "" {
		return value, nil
	}
	if !env.Interactive {
		return "", errors.New(missing)
	}
	value, err := env.Prompter.Password("Password")
	if err != nil {
		return "", err
	}
	if value == "" {
		return "", errors.New(missing)
	}
	return value, nil
}
