package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserID accepts both numeric and string ids from the backend
type UserID string

func (id *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = UserID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("user id must be a string or number: %w", err)
	}
	*id = UserID(n.String())
	return nil
}

// User is the account returned by the auth endpoints
type User struct {
	ID        UserID `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at,omitempty"`
}

// DisplayName prefers the full name and falls back to the username
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// AuthResponse is returned by login and register
type AuthResponse struct {
	Message string `json:"message,omitempty"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

// GenerateRequest represents the content generation request
type GenerateRequest struct {
	Subject     string `json:"subject"`
	Grade       string `json:"grade"`
	ContentType string `json:"content_type,omitempty"`
}

// GenerateResponse is the backend's answer to a generation request
type GenerateResponse struct {
	Message   string            `json:"message,omitempty"`
	Content   *GeneratedContent `json:"content,omitempty"`
	RequestID int64             `json:"request_id,omitempty"`
	ContentID int64             `json:"content_id,omitempty"`
}

// AIModel is one language model the backend can reach
type AIModel struct {
	Name string `json:"name"`
}

// AIStatus is the result of the backend's language model probe
type AIStatus struct {
	Status       string    `json:"status"`
	Message      string    `json:"message"`
	Models       []AIModel `json:"models"`
	TestResponse string    `json:"test_response,omitempty"`
}

// OK reports whether the backend could reach its model
func (s AIStatus) OK() bool {
	return s.Status == "success"
}

func decodeGenerateResponse(raw json.RawMessage) (*GenerateResponse, error) {
	var resp GenerateResponse
	if len(bytes.TrimSpace(raw)) == 0 {
		return &resp, nil
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	// Some backends return the content fields at the top level
	if resp.Content == nil {
		var content GeneratedContent
		if err := json.Unmarshal(raw, &content); err == nil && !content.Empty() {
			resp.Content = &content
		}
	}
	return &resp, nil
}

// GeneratedContent is one generated question (or, for lessons and
// exercises, a free-form body).
type GeneratedContent struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	// CorrectAnswer is a zero-based index into Options, nil when unknown
	CorrectAnswer *int   `json:"correct_answer"`
	Explanation   string `json:"explanation"`
	Body          string `json:"content,omitempty"`
}

// Empty reports whether nothing displayable was decoded
func (c GeneratedContent) Empty() bool {
	return c.Question == "" && c.Body == "" && len(c.Options) == 0
}

// UnmarshalJSON accepts a content object, a JSON document encoded as a
// string, or the plain QUESTION/OPTIONS/CORRECT_ANSWER/EXPLANATION text a
// model produces.
func (c *GeneratedContent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = GeneratedContent{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = parseContentString(s)
		return nil
	case len(data) > 0 && data[0] == '{':
		return c.decodeObject(data)
	default:
		return fmt.Errorf("unsupported content payload: %.40s", string(data))
	}
}

func (c *GeneratedContent) decodeObject(data []byte) error {
	var obj struct {
		Question      string          `json:"question"`
		Options       []string        `json:"options"`
		CorrectAnswer json.RawMessage `json:"correct_answer"`
		Explanation   string          `json:"explanation"`
		Content       json.RawMessage `json:"content"`
		Error         string          `json:"error"`
		RawResponse   string          `json:"raw_response"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	out := GeneratedContent{
		Question:    strings.TrimSpace(obj.Question),
		Options:     obj.Options,
		Explanation: strings.TrimSpace(obj.Explanation),
	}
	out.CorrectAnswer = resolveAnswer(obj.CorrectAnswer, obj.Options)

	if len(obj.Content) > 0 {
		var body string
		if err := json.Unmarshal(obj.Content, &body); err == nil {
			out.Body = strings.TrimSpace(body)
		}
	}

	// The backend wraps model output it could not parse as JSON
	if out.Empty() && obj.RawResponse != "" {
		out = parseContentString(obj.RawResponse)
	}

	*c = out
	return nil
}

// resolveAnswer interprets correct_answer in a JSON object. Integers and
// numeric strings are zero-based indexes, the same convention as the
// backend's own JSON; letters and option text are also accepted. An answer
// that does not point at one of options resolves to nil.
func resolveAnswer(raw json.RawMessage, options []string) *int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return optionIndex(n, options)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)

	if _, err := fmt.Sscanf(s, "%d", &n); err == nil && fmt.Sprint(n) == s {
		return optionIndex(n, options)
	}
	if len(s) == 1 {
		if idx := letterIndex(s[0]); idx >= 0 {
			return optionIndex(idx, options)
		}
	}
	for i, opt := range options {
		if strings.EqualFold(strings.TrimSpace(opt), s) {
			return optionIndex(i, options)
		}
	}
	return nil
}

// optionIndex returns &i when i is a valid index into options
func optionIndex(i int, options []string) *int {
	if i < 0 || i >= len(options) {
		return nil
	}
	return &i
}

func letterIndex(b byte) int {
	switch {
	case b >= 'a' && b <= 'z':
		return int(b - 'a')
	case b >= 'A' && b <= 'Z':
		return int(b - 'A')
	}
	return -1
}
