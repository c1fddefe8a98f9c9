package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/quizgen-dev/quizgen/internal/api"
	"github.com/quizgen-dev/quizgen/internal/cli/picker"
	"github.com/quizgen-dev/quizgen/internal/generate"
	"github.com/quizgen-dev/quizgen/internal/session"
)

const defaultTimeout = 60 * time.Second

var (
	// ErrNotLoggedIn is returned by commands that need a session when there is none
	ErrNotLoggedIn = errors.New("not authenticated. Please run 'quizgen login' first")
	// ErrSessionExpired is returned after the backend rejected the stored token
	ErrSessionExpired = errors.New("session expired. Please run 'quizgen login' again")
)

// Prompter asks the user for the values a command was not given
type Prompter interface {
	Choose(label string, options []generate.Option, current string) (string, error)
	ChooseAnswer(question string, options []string) (int, error)
	Password(label string) (string, error)
	Input(label string) (string, error)
}

// Env is everything a command needs from the outside world
type Env struct {
	Tokens      session.TokenStore
	BaseURL     string
	Timeout     time.Duration
	Prompter    Prompter
	Interactive bool
	Out         io.Writer
	Logger      zerolog.Logger
	OpenURL     func(url string) error
}

// DefaultEnv talks to the real backend and keeps the token in the OS keyring
func DefaultEnv() *Env {
	return &Env{
		Tokens:      session.NewKeyringStore(),
		BaseURL:     api.DefaultBaseURL,
		Timeout:     defaultTimeout,
		Prompter:    picker.Terminal{},
		Interactive: picker.IsInteractive(),
		Out:         os.Stdout,
		Logger:      zerolog.Nop(),
		OpenURL:     openBrowser,
	}
}

func (e *Env) client() *api.Client {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return api.New(e.BaseURL, e.Tokens, api.WithTimeout(timeout))
}

func (e *Env) manager() *session.Manager {
	return session.NewManager(e.Tokens, e.client(), e.Logger)
}

func (e *Env) printf(format string, args ...interface{}) {
	fmt.Fprintf(e.Out, format, args...)
}

func (e *Env) println(args ...interface{}) {
	fmt.Fprintln(e.Out, args...)
}

// serverMessage is the backend's own text, or fallback when it sent none
func serverMessage(err error, fallback string) string {
	if msg := api.ServerMessage(err); msg != "" {
		return msg
	}
	return fallback
}
