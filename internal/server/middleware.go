package server

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/quizgen-dev/quizgen/internal/api"
	"github.com/quizgen-dev/quizgen/internal/session"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	managerKey      = "session_manager"
	clientKey       = "api_client"

	// MsgSessionExpired is shown on the login page after a 401
	MsgSessionExpired = "Session expired"
)

// cookieStore is the token store for one request: it reads the "token"
// cookie and writes changes back to the response
type cookieStore struct {
	c      *gin.Context
	secure bool
	token  string
}

func newCookieStore(c *gin.Context, secure bool) *cookieStore {
	token, err := c.Cookie(session.TokenKey)
	if err != nil {
		token = ""
	}
	return &cookieStore{c: c, secure: secure, token: token}
}

func (s *cookieStore) LoadToken() (string, error) {
	return s.token, nil
}

func (s *cookieStore) SaveToken(token string) error {
	s.token = token

	maxAge := 0 // Browser session
	if exp, ok := session.TokenExpiry(token); ok {
		maxAge = int(time.Until(exp).Seconds())
		if maxAge <= 0 {
			maxAge = -1
		}
	}
	s.set(token, maxAge)
	return nil
}

func (s *cookieStore) DeleteToken() error {
	s.token = ""
	s.set("", -1)
	return nil
}

func (s *cookieStore) set(value string, maxAge int) {
	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(session.TokenKey, value, maxAge, "/", "", s.secure, true)
}

// requestIDMiddleware tags every request with a ULID
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = ulid.Make().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// sessionMiddleware builds the request's session manager from the token
// cookie and verifies it before any handler runs. With redirectExpired set, a
// token the backend rejects sends the user to login, whatever the page.
func (s *Server) sessionMiddleware(redirectExpired bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := newCookieStore(c, s.config.HTTP.CookieSecure)
		log := s.logger.With().Str("request_id", c.GetString(requestIDKey)).Logger()
		client := s.client.WithTokens(store)
		mgr := session.NewManager(store, client, log)

		if err := mgr.Bootstrap(c.Request.Context()); err != nil {
			log.Debug().Err(err).Msg("Session not restored")
			if redirectExpired && session.IsAuthError(err) && c.Request.URL.Path != "/login" {
				log.Info().Str("path", c.Request.URL.Path).Msg("Stored session rejected, redirecting to login")
				redirectWithError(c, "/login", MsgSessionExpired)
				return
			}
		}

		c.Set(managerKey, mgr)
		c.Set(clientKey, client)
		c.Next()
	}
}

// getClient returns the API client that sends the request's token
func getClient(c *gin.Context) *api.Client {
	v, _ := c.Get(clientKey)
	client, _ := v.(*api.Client)
	return client
}

// getManager returns the session manager set by sessionMiddleware
func getManager(c *gin.Context) *session.Manager {
	v, exists := c.Get(managerKey)
	if !exists {
		return nil
	}
	mgr, _ := v.(*session.Manager)
	return mgr
}

// GetSession returns the signed-in user, if any
func GetSession(c *gin.Context) (*session.Session, bool) {
	mgr := getManager(c)
	if mgr == nil || !mgr.Ready() {
		return nil, false
	}
	return mgr.Current()
}

// RequireSession sends visitors without a session to the login page
func RequireSession(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetSession(c); !ok {
			log.Debug().Str("path", c.Request.URL.Path).Msg("No session, redirecting to login")
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// redirectWithError redirects to path with an error message for the page
func redirectWithError(c *gin.Context, path, errorMsg string) {
	c.Redirect(http.StatusSeeOther, path+"?error="+url.QueryEscape(errorMsg))
	c.Abort()
}

// handleAuthFailure clears the session after the backend rejected it and
// sends the user to login. It reports whether err was such a rejection.
func (s *Server) handleAuthFailure(c *gin.Context, err error) bool {
	if !session.IsAuthError(err) {
		return false
	}
	if mgr := getManager(c); mgr != nil && mgr.Invalidate() {
		s.logger.Info().
			Str("request_id", c.GetString(requestIDKey)).
			Str("path", c.Request.URL.Path).
			Msg("Backend rejected session")
	}
	redirectWithError(c, "/login", MsgSessionExpired)
	return true
}
