package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quizgen-dev/quizgen/internal/session"
)

//go:embed templates/*
var templateFiles embed.FS

const layoutTemplate = "layout.html"

var pageNames = []string{
	"home.html",
	"login.html",
	"register.html",
	"dashboard.html",
	"generate.html",
}

var templateFuncs = template.FuncMap{
	"title": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
	"add": func(a, b int) int { return a + b },
	"letter": func(i int) string {
		return string(rune('A' + i))
	},
	"datetime": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Local().Format("Jan 2, 15:04")
	},
}

// TemplateFilesFS returns the embedded templates directory
func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a page together with the shared layout
func ParseTemplate(name string) (*template.Template, error) {
	return template.New(layoutTemplate).
		Funcs(templateFuncs).
		ParseFS(TemplateFilesFS(), layoutTemplate, name)
}

// pageSet holds every page parsed once at startup
type pageSet struct {
	pages map[string]*template.Template
}

func loadPages() (*pageSet, error) {
	ps := &pageSet{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		tmpl, err := ParseTemplate(name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		ps.pages[name] = tmpl
	}
	return ps, nil
}

// pageData is shared by every page
type pageData struct {
	Title     string
	Active    string
	User      *session.Session
	Error     string
	Notice    string
	RequestID string
}

// basePage fills pageData from the request
func basePage(c *gin.Context, title, active string) pageData {
	user, _ := GetSession(c)
	return pageData{
		Title:     title,
		Active:    active,
		User:      user,
		Error:     c.Query("error"),
		Notice:    c.Query("notice"),
		RequestID: c.GetString(requestIDKey),
	}
}

// render executes a page into a buffer first so a template error never
// leaves a half-written response
func (s *Server) render(c *gin.Context, status int, name string, data interface{}) {
	tmpl, ok := s.pages.pages[name]
	if !ok {
		s.logger.Error().Str("template", name).Msg("Unknown template")
		c.String(http.StatusInternalServerError, "Failed to load template")
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layoutTemplate, data); err != nil {
		s.logger.Error().Err(err).Str("template", name).Msg("Failed to render template")
		c.String(http.StatusInternalServerError, "Failed to render page")
		return
	}

	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
