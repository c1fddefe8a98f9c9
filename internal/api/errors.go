package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnauthorized matches any 401 returned by an endpoint that requires a
// session. Callers are expected to drop the session and send the user back
// to login.
var ErrUnauthorized = errors.New("unauthorized")

// Error is a non-2xx response from the backend
type Error struct {
	Status int
	// Message is the server's "error" field, falling back to "message"
	Message string
	// Body is the raw response body
	Body string

	requiresAuth bool
}

func newError(status int, body []byte, requiresAuth bool) *Error {
	e := &Error{
		Status:       status,
		Body:         string(body),
		requiresAuth: requiresAuth,
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		e.Message = strings.TrimSpace(payload.Error)
		if e.Message == "" {
			e.Message = strings.TrimSpace(payload.Message)
		}
	}
	return e
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Is reports 401s on session-protected endpoints as ErrUnauthorized
func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized && e.requiresAuth
}

// AsError extracts an *Error from err's chain
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// ServerMessage returns the text the server sent with a failed response, or
// "" if err did not come from the server or carried no message.
func ServerMessage(err error) string {
	if apiErr, ok := AsError(err); ok {
		return apiErr.Message
	}
	return ""
}
