package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quizgen-dev/quizgen/internal/generate"
)

// freeCredits is the allowance every account starts with
const freeCredits = 100

type dashboardPageData struct {
	pageData
	Stats     generate.Stats
	Credits   int
	AIStatus  AIStatusView
	ExpiresAt time.Time
}

type generatorPageData struct {
	pageData
	Form         generate.Form
	Subjects     []generate.Option
	Grades       []generate.Option
	ContentTypes []generate.Option
	FieldErrors  map[string]string
	Steps        []string
	DocsURL      string
	Content      *generate.Content
	Selected     int
	Verdict      *generate.Verdict
}

func (s *Server) homePage(c *gin.Context) {
	s.render(c, http.StatusOK, "home.html", basePage(c, "Content Generator", "home"))
}

func (s *Server) dashboardPage(c *gin.Context) {
	sess, _ := GetSession(c)
	stats := s.flows.Stats(sess.Key())

	credits := freeCredits - stats.Total
	if credits < 0 {
		credits = 0
	}

	data := dashboardPageData{
		pageData: basePage(c, "Dashboard", "dashboard"),
		Stats:    stats,
		Credits:  credits,
		AIStatus: s.status.Last(),
	}
	if exp, ok := getManager(c).Expiry(); ok {
		data.ExpiresAt = exp
	}
	s.render(c, http.StatusOK, "dashboard.html", data)
}

func newGeneratorPage(c *gin.Context) generatorPageData {
	return generatorPageData{
		pageData:     basePage(c, "Generate Content", "generate"),
		Form:         generate.Form{ContentType: generate.DefaultContentType},
		Subjects:     generate.Subjects,
		Grades:       generate.Grades,
		ContentTypes: generate.ContentTypes,
		DocsURL:      generate.OllamaDocsURL,
		Selected:     generate.NoSelection,
	}
}

// generatorPage shows an empty form; navigating here discards any
// previously displayed content
func (s *Server) generatorPage(c *gin.Context) {
	sess, _ := GetSession(c)
	s.flows.For(sess.Key()).Reset()
	s.render(c, http.StatusOK, "generate.html", newGeneratorPage(c))
}

func (s *Server) generate(c *gin.Context) {
	sess, _ := GetSession(c)
	data := newGeneratorPage(c)

	var form generate.Form
	if err := c.ShouldBind(&form); err != nil {
		data.Error = generate.MsgFillAllFields
		s.render(c, http.StatusOK, "generate.html", data)
		return
	}
	data.Form = form

	flow := s.flows.For(sess.Key())
	content, err := flow.Submit(c.Request.Context(), getClient(c), form)
	if err != nil {
		if s.handleAuthFailure(c, err) {
			return
		}

		data.Error = generate.Describe(err)
		data.Steps = generate.RemediationSteps(data.Error)
		var verr *generate.ValidationError
		if errors.As(err, &verr) {
			data.FieldErrors = verr.Fields
		}
		s.render(c, http.StatusOK, "generate.html", data)
		return
	}

	data.Form = form.Normalize()
	data.Content = content
	data.Notice = generate.MsgGenerateSuccess
	s.render(c, http.StatusOK, "generate.html", data)
}

// checkAnswer scores the selected option against the displayed content
// without contacting the backend
func (s *Server) checkAnswer(c *gin.Context) {
	sess, _ := GetSession(c)
	flow := s.flows.For(sess.Key())

	content, ok := flow.Content()
	if !ok {
		c.Redirect(http.StatusSeeOther, "/generate")
		return
	}

	selected := generate.NoSelection
	if raw := c.PostForm("answer"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err == nil {
			selected = n
		}
	}

	data := newGeneratorPage(c)
	data.Form = generate.Form{Subject: content.Subject, Grade: content.Grade, ContentType: content.ContentType}
	data.Content = content
	data.Selected = selected

	verdict, err := flow.Check(selected)
	if err != nil {
		data.Error = generate.DescribeCheck(err)
	} else {
		data.Verdict = &verdict
	}
	s.render(c, http.StatusOK, "generate.html", data)
}

// sessionInfo reports the session as JSON
func (s *Server) sessionInfo(c *gin.Context) {
	sess, ok := GetSession(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	resp := gin.H{
		"authenticated": true,
		"user":          sess,
	}
	if exp, ok := getManager(c).Expiry(); ok {
		resp["expires_at"] = exp.UTC()
	}
	c.JSON(http.StatusOK, resp)
}
