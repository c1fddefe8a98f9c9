package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quizgen-dev/quizgen/internal/cli/userconfig"
	"github.com/quizgen-dev/quizgen/internal/generate"
	"github.com/quizgen-dev/quizgen/internal/session"
)

type generateOptions struct {
	subject     string
	grade       string
	contentType string
	answer      string
}

// NewGenerateCmd creates the generate command
func NewGenerateCmd(env *Env) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a quiz question, lesson or exercise",
		Long: `Generate educational content with the AI backend.

Missing choices are asked for interactively, starting from the ones used last time.
Multiple-choice questions are checked locally against the answer key.`,
		Example: `  quizgen generate --subject mathematics --grade high
  quizgen generate --subject science --grade middle --type quiz --answer B`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), env, opts)
		},
	}

	cmd.Flags().StringVar(&opts.subject, "subject", "", "Subject (mathematics, science, history, literature)")
	cmd.Flags().StringVar(&opts.grade, "grade", "", "Grade level (elementary, middle, high)")
	cmd.Flags().StringVar(&opts.contentType, "type", "", "Content type (quiz, lesson, exercise)")
	cmd.Flags().StringVar(&opts.answer, "answer", "", "Answer to check, as a letter (A-D) or 1-based number")

	return cmd
}

func runGenerate(ctx context.Context, env *Env, opts generateOptions) error {
	mgr, _, err := restoreSession(ctx, env)
	if err != nil {
		return err
	}

	prefs, err := userconfig.Load()
	if err != nil {
		env.Logger.Warn().Err(err).Msg("Ignoring unreadable preferences")
		prefs = &userconfig.UserConfig{}
	}

	form, err := completeForm(env, opts, prefs)
	if err != nil {
		return err
	}

	env.printf("Generating %s for %s (%s)...\n",
		strings.ToLower(generate.Label(generate.ContentTypes, form.ContentType)),
		generate.Label(generate.Subjects, form.Subject),
		generate.Label(generate.Grades, form.Grade))

	flow := generate.NewFlow(env.Logger)
	content, err := flow.Submit(ctx, env.client(), form)
	if err != nil {
		if session.IsAuthError(err) {
			mgr.Invalidate()
			return ErrSessionExpired
		}
		msg := generate.Describe(err)
		if steps := generate.RemediationSteps(msg); len(steps) > 0 {
			printSteps(env, steps)
		}
		return errors.New(msg)
	}

	if err := userconfig.RememberGeneration(content.Subject, content.Grade, content.ContentType); err != nil {
		env.Logger.Warn().Err(err).Msg("Failed to save preferences")
	}

	env.printf("✓ %s\n\n", generate.MsgGenerateSuccess)
	printContent(env, content)

	if !content.HasOptions() {
		return nil
	}
	return checkAnswer(env, flow, content, opts.answer)
}

// completeForm fills the choices missing from flags, prompting when possible
func completeForm(env *Env, opts generateOptions, prefs *userconfig.UserConfig) (generate.Form, error) {
	form := generate.Form{
		Subject:     opts.subject,
		Grade:       opts.grade,
		ContentType: opts.contentType,
	}
	if !env.Interactive {
		return form, nil
	}

	var err error
	if form.Subject == "" {
		if form.Subject, err = env.Prompter.Choose("Subject", generate.Subjects, prefs.Subject); err != nil {
			return form, err
		}
	}
	if form.Grade == "" {
		if form.Grade, err = env.Prompter.Choose("Grade level", generate.Grades, prefs.Grade); err != nil {
			return form, err
		}
	}
	if form.ContentType == "" {
		current := prefs.ContentType
		if current == "" {
			current = generate.DefaultContentType
		}
		if form.ContentType, err = env.Prompter.Choose("Content type", generate.ContentTypes, current); err != nil {
			return form, err
		}
	}
	return form, nil
}

func checkAnswer(env *Env, flow *generate.Flow, content *generate.Content, answer string) error {
	selected := generate.NoSelection
	switch {
	case answer != "":
		n, err := parseAnswer(answer, len(content.Options))
		if err != nil {
			return err
		}
		selected = n
	case env.Interactive:
		n, err := env.Prompter.ChooseAnswer("Your answer", content.Options)
		if err != nil {
			return err
		}
		selected = n
	default:
		// Nothing to check in a non-interactive run without --answer
		return nil
	}

	verdict, err := flow.Check(selected)
	switch {
	case errors.Is(err, generate.ErrNoAnswerKey):
		env.printf("\n%s.\n", generate.MsgNoAnswerKey)
		return nil
	case err != nil:
		return errors.New(generate.DescribeCheck(err))
	}

	env.printf("\n%s\n", verdict.Title())
	if i := *content.CorrectAnswer; !verdict.Correct && i >= 0 && i < len(content.Options) {
		env.printf("  Correct answer: %c. %s\n", 'A'+rune(i), content.Options[i])
	}
	if verdict.Explanation != "" {
		env.printf("  %s\n", verdict.Explanation)
	}
	return nil
}

// parseAnswer accepts "B", "b" or "2" and returns the zero-based index
func parseAnswer(answer string, count int) (int, error) {
	answer = strings.TrimSpace(answer)
	index := -1
	if n, err := strconv.Atoi(answer); err == nil {
		index = n - 1
	} else if len(answer) == 1 {
		index = int(strings.ToUpper(answer)[0] - 'A')
	}

	if index < 0 || index >= count {
		return generate.NoSelection, fmt.Errorf("invalid answer %q: choose A-%c", answer, 'A'+rune(count-1))
	}
	return index, nil
}

func printContent(env *Env, content *generate.Content) {
	env.printf("%s · %s · %s\n",
		content.Heading(),
		generate.Label(generate.Subjects, content.Subject),
		content.GradeLabel())
	env.printf("\n%s\n", content.Text())

	if content.HasOptions() {
		env.println()
		for i, opt := range content.Options {
			env.printf("  %c. %s\n", 'A'+rune(i), opt)
		}
	}
}

func printSteps(env *Env, steps []string) {
	env.println("To fix this:")
	for i, step := range steps {
		env.printf("  %d. %s\n", i+1, step)
	}
	env.printf("  More help: %s\n", generate.OllamaDocsURL)
}
