package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quizgen-dev/quizgen/internal/generate"
)

// ErrAIUnavailable is returned by doctor when the backend cannot reach its model
var ErrAIUnavailable = errors.New("AI backend is not ready")

// NewDoctorCmd creates the doctor command
func NewDoctorCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the backend can reach its language model",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context(), env)
		},
	}
}

func runDoctor(ctx context.Context, env *Env) error {
	env.printf("Checking %s...\n", env.BaseURL)

	status, err := env.client().TestAI(ctx)
	if err != nil {
		env.println("✗ Backend unreachable")
		return fmt.Errorf("failed to reach backend: %s", serverMessage(err, err.Error()))
	}

	if !status.OK() {
		env.printf("✗ %s\n", status.Message)
		if steps := generate.RemediationSteps(status.Message); len(steps) > 0 {
			printSteps(env, steps)
		}
		return ErrAIUnavailable
	}

	env.printf("✓ %s\n", status.Message)
	if len(status.Models) > 0 {
		names := make([]string, len(status.Models))
		for i, m := range status.Models {
			names[i] = m.Name
		}
		env.printf("  Models: %s\n", strings.Join(names, ", "))
	}
	return nil
}
