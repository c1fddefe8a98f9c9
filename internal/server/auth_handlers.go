package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quizgen-dev/quizgen/internal/api"
)

// Server messages the auth forms react to
const (
	msgInvalidCredentials = "Invalid credentials"
	msgEmailRegistered    = "Email already registered"
	msgLoginFailed        = "Failed to login"
	msgRegisterFailed     = "Failed to register"
)

// LoginForm represents the login form
type LoginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

// RegisterForm represents the registration form
type RegisterForm struct {
	Username string `form:"username"`
	Email    string `form:"email"`
	Password string `form:"password"`
}

type loginPageData struct {
	pageData
	Email string
}

type registerPageData struct {
	pageData
	Username string
	Email    string
}

// authErrorMessage is the server's own text, or fallback when it sent none
func authErrorMessage(err error, fallback string) string {
	if msg := api.ServerMessage(err); msg != "" {
		return msg
	}
	return fallback
}

func (s *Server) loginPage(c *gin.Context) {
	s.render(c, http.StatusOK, "login.html", loginPageData{
		pageData: basePage(c, "Login", "login"),
		Email:    c.Query("email"),
	})
}

func (s *Server) login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		redirectWithError(c, "/login", msgLoginFailed)
		return
	}
	form.Email = strings.TrimSpace(form.Email)

	mgr := getManager(c)
	sess, err := mgr.Login(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		msg := authErrorMessage(err, msgLoginFailed)
		s.logger.Warn().
			Err(err).
			Str("request_id", c.GetString(requestIDKey)).
			Str("email", form.Email).
			Msg("Login failed")

		data := loginPageData{pageData: basePage(c, "Login", "login"), Email: form.Email}
		data.Error = msg
		// Bad credentials clear the whole form
		if msg == msgInvalidCredentials {
			data.Email = ""
		}
		s.render(c, http.StatusOK, "login.html", data)
		return
	}

	s.logger.Info().Str("user_id", sess.UserID).Msg("User logged in")
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

func (s *Server) registerPage(c *gin.Context) {
	s.render(c, http.StatusOK, "register.html", registerPageData{
		pageData: basePage(c, "Register", "register"),
	})
}

func (s *Server) register(c *gin.Context) {
	var form RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		redirectWithError(c, "/register", msgRegisterFailed)
		return
	}
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)

	mgr := getManager(c)
	sess, err := mgr.Register(c.Request.Context(), form.Username, form.Email, form.Password)
	if err != nil {
		msg := authErrorMessage(err, msgRegisterFailed)
		s.logger.Warn().
			Err(err).
			Str("request_id", c.GetString(requestIDKey)).
			Str("username", form.Username).
			Msg("Registration failed")

		data := registerPageData{
			pageData: basePage(c, "Register", "register"),
			Username: form.Username,
			Email:    form.Email,
		}
		data.Error = msg
		// Only the email is wrong; keep the username
		if msg == msgEmailRegistered {
			data.Email = ""
		}
		s.render(c, http.StatusOK, "register.html", data)
		return
	}

	s.logger.Info().Str("user_id", sess.UserID).Msg("User registered")
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

func (s *Server) logout(c *gin.Context) {
	if err := getManager(c).Logout(); err != nil {
		s.logger.Error().Err(err).Msg("Failed to clear session")
	}
	c.Redirect(http.StatusSeeOther, "/")
}
