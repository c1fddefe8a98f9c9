// Package picker asks the user to choose from lists in the terminal
package picker

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"

	"github.com/quizgen-dev/quizgen/internal/generate"
)

// ErrCancelled is returned when the user aborts a prompt
var ErrCancelled = errors.New("selection cancelled")

// Terminal prompts on the controlling terminal
type Terminal struct{}

// IsInteractive reports whether stdin is a terminal (not piped)
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Choose shows options and returns the chosen value. current, when it
// is one of the options, is preselected.
func (Terminal) Choose(label string, options []generate.Option, current string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("no options for %s", strings.ToLower(label))
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	cursor := generate.Index(options, current)
	if cursor < 0 {
		cursor = 0
	}

	prompt := promptui.Select{
		Label:     label,
		Items:     options,
		Templates: templates,
		Size:      10,
		CursorPos: cursor,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return "", wrapPromptErr(err)
	}
	return options[index].Value, nil
}

// ChooseAnswer shows the options of a question and returns the zero-based
// index of the chosen one
func (Terminal) ChooseAnswer(question string, options []string) (int, error) {
	items := make([]string, len(options))
	for i, opt := range options {
		items[i] = fmt.Sprintf("%c. %s", 'A'+i, opt)
	}

	prompt := promptui.Select{
		Label: question,
		Items: items,
		Size:  len(items),
	}

	index, _, err := prompt.Run()
	if err != nil {
		return generate.NoSelection, wrapPromptErr(err)
	}
	return index, nil
}

// Password reads a password without echoing it
func (Terminal) Password(label string) (string, error) {
	fmt.Print(label + ": ")
	bytePassword, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println() // New line after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}

// Input reads one line of text
func (Terminal) Input(label string) (string, error) {
	prompt := promptui.Prompt{Label: label}
	value, err := prompt.Run()
	if err != nil {
		return "", wrapPromptErr(err)
	}
	return strings.TrimSpace(value), nil
}

func wrapPromptErr(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, promptui.ErrAbort) {
		return ErrCancelled
	}
	return fmt.Errorf("prompt failed: %w", err)
}
