package generate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizgen-dev/quizgen/internal/api"
)

func TestContent_Check(t *testing.T) {
	answer := 2
	c := &Content{
		Question:      "What is 3 x 4?",
		Options:       []string{"7", "34", "12", "1"},
		CorrectAnswer: &answer,
		Explanation:   "Three groups of four make twelve.",
	}

	v, err := c.Check(2)
	require.NoError(t, err)
	assert.True(t, v.Correct)
	assert.Equal(t, "Correct!", v.Title())
	assert.Equal(t, c.Explanation, v.Explanation)

	v, err = c.Check(0)
	require.NoError(t, err)
	assert.False(t, v.Correct)
	assert.Equal(t, "Incorrect", v.Title())
	assert.Equal(t, c.Explanation, v.Explanation)

	_, err = c.Check(NoSelection)
	assert.ErrorIs(t, err, ErrNoAnswer)

	_, err = c.Check(4)
	assert.ErrorIs(t, err, ErrInvalidAnswer)

	c.CorrectAnswer = nil
	_, err = c.Check(1)
	assert.ErrorIs(t, err, ErrNoAnswerKey)

	outside := -1
	c.CorrectAnswer = &outside
	_, err = c.Check(1)
	assert.ErrorIs(t, err, ErrNoAnswerKey)
}

func TestDescribeCheck(t *testing.T) {
	assert.Equal(t, "", DescribeCheck(nil))
	assert.Equal(t, MsgSelectAnswer, DescribeCheck(ErrNoAnswer))
	assert.Equal(t, MsgInvalidAnswer, DescribeCheck(ErrInvalidAnswer))
	assert.Equal(t, MsgNoAnswerKey, DescribeCheck(ErrNoAnswerKey))
	assert.Equal(t, MsgCheckFailed, DescribeCheck(ErrEmptyContent))
}

func TestContent_TextFallsBackToBody(t *testing.T) {
	c := &Content{Body: "Lesson plan", ContentType: "lesson", Grade: "elementary"}
	assert.Equal(t, "Lesson plan", c.Text())
	assert.False(t, c.HasOptions())
	assert.Equal(t, "Lesson Plan", c.Heading())
	assert.Equal(t, "Elementary", c.GradeLabel())
}

func TestDescribe(t *testing.T) {
	apiErr := func(status int, body string) error {
		return &api.Error{Status: status, Message: body}
	}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "ollama timeout", err: apiErr(500, "Timeout while connecting to Ollama API after 30 seconds"), want: MsgAIUnavailable},
		{name: "get only", err: apiErr(405, "This endpoint accepts POST requests"), want: MsgMisconfigured},
		{name: "server message", err: apiErr(422, "Subject must be a non-empty string"), want: "Subject must be a non-empty string"},
		{name: "no message", err: apiErr(502, ""), want: MsgGenerateFailed},
		{name: "network", err: errors.New("dial tcp: connection refused"), want: MsgGenerateFailed},
		{name: "unauthorized", err: api.ErrUnauthorized, want: MsgSessionExpired},
		{name: "in flight", err: ErrInFlight, want: "A generation is already in progress. Please wait."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.err))
		})
	}
}

func TestRemediationSteps(t *testing.T) {
	assert.Nil(t, RemediationSteps("Subject must be a non-empty string"))
	steps := RemediationSteps(MsgAIUnavailable)
	require.Len(t, steps, 3)
	assert.Contains(t, steps[1], "ollama pull mistral")
}

func TestOptions(t *testing.T) {
	assert.Equal(t, "High School", Label(Grades, "high"))
	assert.Equal(t, "custom", Label(Subjects, "custom"))
	assert.Equal(t, 3, Index(Subjects, "literature"))
	assert.Equal(t, -1, Index(ContentTypes, "essay"))
}
