package generate

import (
	"errors"
	"strings"

	"github.com/quizgen-dev/quizgen/internal/api"
)

// User-facing messages
const (
	MsgAIUnavailable   = "The AI service is currently unavailable. Please make sure Ollama is running and try again."
	MsgMisconfigured   = "API endpoint is not properly configured"
	MsgGenerateFailed  = "Failed to generate content"
	MsgSessionExpired  = "Your session has expired. Please log in again."
	MsgGenerateSuccess = "Content generated successfully"

	ollamaTimeout  = "Timeout while connecting to Ollama API"
	getOnlyMessage = "This endpoint accepts POST requests"
)

var (
	// ErrInFlight is returned when a submission is made while another is pending
	ErrInFlight = errors.New("a generation request is already in progress")
	// ErrMisconfigured means the backend answered as if the request was a GET
	ErrMisconfigured = errors.New(MsgMisconfigured)
	// ErrEmptyContent means the backend succeeded but returned nothing to show
	ErrEmptyContent = errors.New("backend returned no content")
)

// Describe turns a generation error into the message shown to the user.
// 401 errors should be handled by the caller before they get here.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, api.ErrUnauthorized):
		return MsgSessionExpired
	case errors.Is(err, ErrMisconfigured):
		return MsgMisconfigured
	case errors.Is(err, ErrInFlight):
		return "A generation is already in progress. Please wait."
	}

	msg := api.ServerMessage(err)
	if strings.Contains(msg, ollamaTimeout) {
		return MsgAIUnavailable
	}
	if msg == getOnlyMessage {
		return MsgMisconfigured
	}
	if msg != "" {
		return msg
	}
	return MsgGenerateFailed
}

// DescribeCheck turns an answer-checking error into the message shown to
// the user
func DescribeCheck(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoAnswer):
		return MsgSelectAnswer
	case errors.Is(err, ErrInvalidAnswer):
		return MsgInvalidAnswer
	case errors.Is(err, ErrNoAnswerKey):
		return MsgNoAnswerKey
	default:
		return MsgCheckFailed
	}
}

// RemediationSteps returns the fix-it steps shown under an error that
// mentions the model runtime, or nil
func RemediationSteps(msg string) []string {
	if !strings.Contains(msg, "Ollama") {
		return nil
	}
	return []string{
		"Make sure Ollama is installed and running",
		"Run `ollama pull mistral` in your terminal",
		"Restart the Flask server",
	}
}

// OllamaDocsURL is linked from the remediation steps
const OllamaDocsURL = "https://github.com/ollama/ollama"
