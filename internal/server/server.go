// Package server is the web frontend: server-rendered pages backed by the
// content generation API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/quizgen-dev/quizgen/internal/api"
	"github.com/quizgen-dev/quizgen/internal/config"
)

// Server represents the HTTP server
type Server struct {
	router  *gin.Engine
	config  *config.Config
	logger  zerolog.Logger
	client  *api.Client
	pages   *pageSet
	flows   *flowRegistry
	status  *statusProbe
	version string
}

// New creates a new server instance. client is shared by all requests; each
// request gets a copy that reads the caller's token cookie.
func New(cfg *config.Config, zlog zerolog.Logger, client *api.Client, version string) (*Server, error) {
	pages, err := loadPages()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	status, err := newStatusProbe(client, cfg.API.AIStatusSchedule, zlog)
	if err != nil {
		return nil, err
	}

	server := &Server{
		config:  cfg,
		logger:  zlog,
		client:  client,
		pages:   pages,
		flows:   newFlowRegistry(zlog),
		status:  status,
		version: version,
	}

	// Setup router
	server.setupRouter()

	return server, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	// Add middleware
	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())

	// Health check endpoint (no session)
	s.router.GET("/health", s.healthCheck)

	// Pages; every one of them knows whether a user is signed in
	pages := s.router.Group("/")
	pages.Use(s.sessionMiddleware(true))
	{
		pages.GET("/", s.homePage)
		pages.GET("/login", s.loginPage)
		pages.POST("/login", s.login)
		pages.GET("/register", s.registerPage)
		pages.POST("/register", s.register)
		pages.POST("/logout", s.logout)

		private := pages.Group("/")
		private.Use(RequireSession(s.logger))
		{
			private.GET("/dashboard", s.dashboardPage)
			private.GET("/generate", s.generatorPage)
			private.POST("/generate", s.generate)
			private.POST("/generate/check", s.checkAnswer)
		}
	}

	// JSON API for scripts running on other origins
	apiGroup := s.router.Group("/api")
	apiGroup.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.HTTP.CORSOrigins,
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	apiGroup.Use(s.sessionMiddleware(false))
	{
		apiGroup.GET("/session", s.sessionInfo)
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("request_id", c.GetString(requestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "quizgen-web",
		"version":   s.version,
		"backend":   s.client.BaseURL(),
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.config.HTTP.ListenAddr,
		Handler: s.router,
		// Generation can take as long as the backend's model does
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.config.API.Timeout + 30*time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.status.Start()
	defer s.status.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().
			Str("addr", srv.Addr).
			Str("backend", s.client.BaseURL()).
			Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.logger.Error().Err(err).Msg("HTTP server error")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
