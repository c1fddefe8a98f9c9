package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizgen-dev/quizgen/internal/api"
	"github.com/quizgen-dev/quizgen/internal/apitest"
	"github.com/quizgen-dev/quizgen/internal/config"
	"github.com/quizgen-dev/quizgen/internal/generate"
)

const (
	testEmail    = "ada@example.com"
	testPassword = "secret123"
)

type testEnv struct {
	t       *testing.T
	backend *apitest.Backend
	server  *Server
	web     *httptest.Server
	client  *http.Client
}

func testConfig() *config.Config {
	return &config.Config{
		HTTP: config.HTTPConfig{
			ListenAddr:  ":0",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		API: config.APIConfig{Timeout: 5 * time.Second},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	backend := apitest.New(t)
	return newTestEnvWithBackend(t, backend, backend.URL())
}

func newTestEnvWithBackend(t *testing.T, backend *apitest.Backend, backendURL string) *testEnv {
	t.Helper()
	backend.AddUser("ada", testEmail, testPassword)

	srv, err := New(testConfig(), zerolog.Nop(), api.New(backendURL, nil), "test")
	require.NoError(t, err)

	web := httptest.NewServer(srv.Handler())
	t.Cleanup(web.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{
		t:       t,
		backend: backend,
		server:  srv,
		web:     web,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (e *testEnv) get(path string) (*http.Response, string) {
	e.t.Helper()
	resp, err := e.client.Get(e.web.URL + path)
	require.NoError(e.t, err)
	return resp, readBody(e.t, resp)
}

func (e *testEnv) post(path string, form url.Values) (*http.Response, string) {
	e.t.Helper()
	resp, err := e.client.PostForm(e.web.URL+path, form)
	require.NoError(e.t, err)
	return resp, readBody(e.t, resp)
}

func (e *testEnv) token() string {
	e.t.Helper()
	u, _ := url.Parse(e.web.URL)
	for _, c := range e.client.Jar.Cookies(u) {
		if c.Name == "token" {
			return c.Value
		}
	}
	return ""
}

func (e *testEnv) login() {
	e.t.Helper()
	resp, _ := e.post("/login", url.Values{"email": {testEmail}, "password": {testPassword}})
	require.Equal(e.t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(e.t, "/dashboard", resp.Header.Get("Location"))
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.get("/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	assert.Equal(t, "online", payload["status"])
	assert.Equal(t, env.backend.URL(), payload["backend"])
}

func TestPrivatePagesRedirectWithoutSession(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/dashboard", "/generate"} {
		resp, _ := env.get(path)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, path)
		assert.Equal(t, "/login", resp.Header.Get("Location"), path)
	}

	resp, _ := env.post("/generate", url.Values{"subject": {"science"}, "grade": {"high"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Zero(t, env.backend.Calls("/api/content/generate"))
}

func TestPublicPages(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.get("/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Welcome to Content Generator")
	assert.Contains(t, body, `href="/login"`)
	assert.NotContains(t, body, "Logout")

	resp, body = env.get("/login?error=Session+expired")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Session expired")
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	token := env.token()
	require.NotEmpty(t, token)

	// The cookie holds the token the backend issued
	user, err := api.New(env.backend.URL(), staticToken(token)).Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testEmail, user.Email)

	resp, body := env.get("/dashboard")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Welcome, ada!")
	assert.Contains(t, body, "Logout")
	assert.Contains(t, body, "No generations yet")
}

func TestLoginInvalidCredentialsClearsFields(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.post("/login", url.Values{"email": {"a@b.com"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Invalid credentials")
	assert.Contains(t, body, `name="email" type="email" value=""`)
	assert.NotContains(t, body, "a@b.com")
	assert.Empty(t, env.token())
}

func TestLoginUnclassifiedErrorKeepsEmail(t *testing.T) {
	backend := apitest.NewBackend()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/login" {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>bad gateway</html>"))
			return
		}
		backend.Handler().ServeHTTP(w, r)
	}))
	t.Cleanup(upstream.Close)
	env := newTestEnvWithBackend(t, backend, upstream.URL)

	resp, body := env.post("/login", url.Values{"email": {testEmail}, "password": {testPassword}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Failed to login")
	assert.Contains(t, body, `value="ada@example.com"`)
	assert.Empty(t, env.token())
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.post("/register", url.Values{
		"username": {"ada2"},
		"email":    {testEmail},
		"password": {"other"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Email already registered")
	assert.Contains(t, body, `name="username" type="text" value="ada2"`)
	assert.Contains(t, body, `name="email" type="email" value=""`)
	assert.Empty(t, env.token())

	resp, _ = env.post("/register", url.Values{
		"username": {"grace"},
		"email":    {"grace@example.com"},
		"password": {"hopper"},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
	assert.NotEmpty(t, env.token())

	_, body = env.get("/dashboard")
	assert.Contains(t, body, "Welcome, grace!")
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.login()
	calls := env.backend.Calls("/api/auth/me")

	resp, _ := env.post("/logout", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Empty(t, env.token())
	// Only the session check that precedes every page; logout itself is local
	assert.Equal(t, calls+1, env.backend.Calls("/api/auth/me"))

	resp, _ = env.get("/dashboard")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestRevokedTokenIsDroppedOnNextPage(t *testing.T) {
	env := newTestEnv(t)
	env.login()
	env.backend.RevokeTokens()

	resp, _ := env.get("/dashboard")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login?error=Session+expired", resp.Header.Get("Location"))
	assert.Empty(t, env.token())
}

func TestRevokedTokenOnPublicPageRedirectsToLogin(t *testing.T) {
	env := newTestEnv(t)
	env.login()
	env.backend.RevokeTokens()

	resp, _ := env.get("/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login?error=Session+expired", resp.Header.Get("Location"))
	assert.Empty(t, env.token())

	// The cookie is gone, so the next visit is an ordinary anonymous one
	resp, _ = env.get("/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := env.get("/login?error=Session+expired")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, MsgSessionExpired)
}

func TestRevokedTokenOnSessionAPIReportsSignedOut(t *testing.T) {
	env := newTestEnv(t)
	env.login()
	env.backend.RevokeTokens()

	resp, body := env.get("/api/session")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"authenticated": false}`, body)
	assert.Empty(t, env.token())
}

func TestGenerateValidationMakesNoRequest(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	resp, body := env.post("/generate", url.Values{"subject": {""}, "grade": {"high"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, generate.MsgFillAllFields)
	assert.Contains(t, body, "Please select a subject")
	assert.Zero(t, env.backend.Calls("/api/content/generate"))
}

func TestGenerateAndCheckAnswer(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	resp, body := env.post("/generate", url.Values{
		"subject":      {"mathematics"},
		"grade":        {"middle"},
		"content_type": {"quiz"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, generate.MsgGenerateSuccess)
	assert.Contains(t, body, "Which of these is a mathematics topic for middle students?")
	assert.Contains(t, body, "Photosynthesis")
	assert.Contains(t, body, "Middle School")
	assert.Contains(t, body, "Check Answer")
	assert.Equal(t, 1, env.backend.Calls("/api/content/generate"))

	_, body = env.post("/generate/check", url.Values{})
	assert.Contains(t, body, generate.MsgSelectAnswer)

	_, body = env.post("/generate/check", url.Values{"answer": {"1"}})
	assert.Contains(t, body, "Incorrect")
	assert.Contains(t, body, "Fractions are part of the mathematics curriculum.")

	_, body = env.post("/generate/check", url.Values{"answer": {"0"}})
	assert.Contains(t, body, "Correct!")
	assert.Equal(t, 1, env.backend.Calls("/api/content/generate"), "checking is local")

	_, body = env.get("/dashboard")
	assert.Contains(t, body, `id="total-generations">1<`)
	assert.Contains(t, body, `id="credits">99<`)
	assert.Contains(t, body, `id="last-generation">Mathematics<`)

	// Navigating back to the generator discards the content
	_, body = env.get("/generate")
	assert.NotContains(t, body, "Photosynthesis")
	resp, _ = env.post("/generate/check", url.Values{"answer": {"0"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestCheckAnswerMessages(t *testing.T) {
	env := newTestEnv(t)
	env.login()
	env.backend.SetGenerate(func(apitest.GenerateRequest) (interface{}, error) {
		return gin.H{
			"question":       "Which is prime?",
			"options":        []string{"4", "6", "7", "9"},
			"correct_answer": 7,
		}, nil
	})

	_, body := env.post("/generate", url.Values{"subject": {"mathematics"}, "grade": {"high"}})
	require.Contains(t, body, "Which is prime?")

	_, body = env.post("/generate/check", url.Values{"answer": {"9"}})
	assert.Contains(t, body, generate.MsgInvalidAnswer)
	assert.NotContains(t, body, generate.ErrInvalidAnswer.Error())

	_, body = env.post("/generate/check", url.Values{"answer": {"2"}})
	assert.Contains(t, body, generate.MsgNoAnswerKey)
	assert.NotContains(t, body, generate.ErrNoAnswerKey.Error())
}

func TestGenerateOllamaUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.login()
	env.backend.SetGenerate(func(apitest.GenerateRequest) (interface{}, error) {
		return nil, errors.New(apitest.OllamaTimeout)
	})

	_, body := env.post("/generate", url.Values{"subject": {"science"}, "grade": {"high"}})
	assert.Contains(t, body, "The AI service is currently unavailable. Please make sure Ollama is running and try again.")
	assert.Contains(t, body, "ollama pull mistral")
	assert.NotContains(t, body, "after 30 seconds")
}

func TestGenerateUnauthorizedClearsSessionOnce(t *testing.T) {
	backend := apitest.NewBackend()
	var rejected int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/content/generate" {
			atomic.AddInt32(&rejected, 1)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"msg": "Token has expired"}`))
			return
		}
		backend.Handler().ServeHTTP(w, r)
	}))
	t.Cleanup(upstream.Close)

	env := newTestEnvWithBackend(t, backend, upstream.URL)
	env.login()

	resp, _ := env.post("/generate", url.Values{"subject": {"science"}, "grade": {"high"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login?error=Session+expired", resp.Header.Get("Location"))
	assert.Empty(t, env.token())
	assert.Equal(t, int32(1), atomic.LoadInt32(&rejected))

	cleared := 0
	for _, c := range resp.Cookies() {
		if c.Name == "token" && c.MaxAge < 0 {
			cleared++
		}
	}
	assert.Equal(t, 1, cleared)

	resp, _ = env.get("/generate")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestSessionInfo(t *testing.T) {
	env := newTestEnv(t)

	req, err := http.NewRequest(http.MethodGet, env.web.URL+"/api/session", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := env.client.Do(req)
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.JSONEq(t, `{"authenticated": false}`, body)

	env.login()
	_, body = env.get("/api/session")

	var payload struct {
		Authenticated bool `json:"authenticated"`
		User          struct {
			Email string `json:"email"`
		} `json:"user"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	assert.True(t, payload.Authenticated)
	assert.Equal(t, testEmail, payload.User.Email)
	assert.False(t, payload.ExpiresAt.IsZero())
}

func TestDashboardShowsAIStatus(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	_, body := env.get("/dashboard")
	assert.Contains(t, body, "Not checked yet")

	env.server.status.Run(context.Background())
	_, body = env.get("/dashboard")
	assert.Contains(t, body, `id="ai-status">Online<`)
	assert.Contains(t, body, "mistral:latest")

	env.backend.SetAIStatus(http.StatusInternalServerError, gin.H{
		"status":  "error",
		"message": "Failed to connect to Ollama. Is it running?",
		"models":  []gin.H{},
	})
	env.server.status.Run(context.Background())
	_, body = env.get("/dashboard")
	assert.Contains(t, body, `id="ai-status">Offline<`)
	assert.Contains(t, body, "Failed to connect to Ollama. Is it running?")
}

func TestNewRejectsBadSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.API.AIStatusSchedule = "every now and then"
	_, err := New(cfg, zerolog.Nop(), api.New("http://backend.test", nil), "test")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "AI_STATUS_SCHEDULE"))
}

type staticToken string

func (s staticToken) LoadToken() (string, error) { return string(s), nil }
