package generate

import (
	"errors"
	"time"

	"github.com/quizgen-dev/quizgen/internal/api"
)

var (
	// ErrNoAnswer is returned by Check when nothing was selected
	ErrNoAnswer = errors.New("no answer selected")
	// ErrInvalidAnswer is returned by Check for a selection outside the options
	ErrInvalidAnswer = errors.New("selected answer is not one of the options")
	// ErrNoAnswerKey is returned by Check when the model gave no correct answer
	ErrNoAnswerKey = errors.New("this question has no answer key")
)

// Messages shown when an answer cannot be checked
const (
	MsgSelectAnswer  = "Please select an answer"
	MsgInvalidAnswer = "Please select one of the listed options"
	MsgNoAnswerKey   = "This question has no answer key"
	MsgCheckFailed   = "Failed to check answer"
)

// NoSelection is the selection value meaning "nothing chosen"
const NoSelection = -1

// Content is a generated item ready for display
type Content struct {
	Subject     string
	Grade       string
	ContentType string

	Question      string
	Options       []string
	CorrectAnswer *int
	Explanation   string
	Body          string

	RequestID   int64
	GeneratedAt time.Time
}

func newContent(form Form, resp *api.GenerateResponse, at time.Time) *Content {
	c := resp.Content
	return &Content{
		Subject:       form.Subject,
		Grade:         form.Grade,
		ContentType:   form.ContentType,
		Question:      c.Question,
		Options:       c.Options,
		CorrectAnswer: c.CorrectAnswer,
		Explanation:   c.Explanation,
		Body:          c.Body,
		RequestID:     resp.RequestID,
		GeneratedAt:   at,
	}
}

// HasOptions reports whether the content can be answered
func (c *Content) HasOptions() bool {
	return len(c.Options) > 0
}

// Text is the question, or the body for non-quiz content
func (c *Content) Text() string {
	if c.Question != "" {
		return c.Question
	}
	return c.Body
}

// Heading is the content type label, e.g. "Quiz"
func (c *Content) Heading() string {
	return Label(ContentTypes, c.ContentType)
}

// GradeLabel is the grade label, e.g. "High School"
func (c *Content) GradeLabel() string {
	return Label(Grades, c.Grade)
}

// Verdict is the outcome of checking an answer locally
type Verdict struct {
	Selected    int
	Correct     bool
	Explanation string
}

// Title is the headline shown with the verdict
func (v Verdict) Title() string {
	if v.Correct {
		return "Correct!"
	}
	return "Incorrect"
}

// Check scores a zero-based selection against the correct answer.
// No request is made.
func (c *Content) Check(selected int) (Verdict, error) {
	if selected == NoSelection {
		return Verdict{}, ErrNoAnswer
	}
	if selected < 0 || selected >= len(c.Options) {
		return Verdict{}, ErrInvalidAnswer
	}
	if c.CorrectAnswer == nil || *c.CorrectAnswer < 0 || *c.CorrectAnswer >= len(c.Options) {
		return Verdict{}, ErrNoAnswerKey
	}
	return Verdict{
		Selected:    selected,
		Correct:     selected == *c.CorrectAnswer,
		Explanation: c.Explanation,
	}, nil
}
