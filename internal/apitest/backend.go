// Package apitest runs an in-process stand-in for the content generation
// backend so clients can be exercised over real HTTP.
package apitest

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// OllamaTimeout is the error text the real backend produces when its model
// server is unreachable
const OllamaTimeout = "Timeout while connecting to Ollama API after 30 seconds"

// GenerateRequest mirrors the body of POST /api/content/generate
type GenerateRequest struct {
	Subject     string `json:"subject"`
	Grade       string `json:"grade"`
	ContentType string `json:"content_type"`
}

// GenerateFunc produces the "content" field of a generation response
type GenerateFunc func(req GenerateRequest) (interface{}, error)

type account struct {
	ID           int
	Username     string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

func (a *account) toJSON() gin.H {
	return gin.H{
		"id":         a.ID,
		"username":   a.Username,
		"email":      a.Email,
		"created_at": a.CreatedAt.UTC().Format("2006-01-02T15:04:05"),
	}
}

// Backend is a fake of the backend API
type Backend struct {
	// TokenTTL is the lifetime of tokens issued by login and register
	TokenTTL time.Duration

	mu        sync.Mutex
	users     map[string]*account
	nextID    int
	secret    []byte
	epoch     int
	calls     map[string]int
	generate  GenerateFunc
	aiStatus  int
	aiPayload gin.H
	server    *httptest.Server
	router    *gin.Engine
}

// New starts a fake backend that is shut down when the test ends
func New(t testing.TB) *Backend {
	t.Helper()

	b := NewBackend()
	b.server = httptest.NewServer(b.router)
	t.Cleanup(b.server.Close)
	return b
}

// NewBackend builds a fake backend without starting a listener
func NewBackend() *Backend {
	gin.SetMode(gin.TestMode)

	b := &Backend{
		TokenTTL: 15 * time.Minute,
		users:    make(map[string]*account),
		nextID:   1,
		secret:   []byte("apitest-secret"),
		calls:    make(map[string]int),
		generate: DefaultQuiz,
		aiStatus: http.StatusOK,
		aiPayload: gin.H{
			"status":  "success",
			"message": "Ollama is working correctly",
			"models":  []gin.H{{"name": "mistral:latest"}},
		},
	}
	b.router = b.routes()
	return b
}

// DefaultQuiz returns a fixed four-option question
func DefaultQuiz(req GenerateRequest) (interface{}, error) {
	return gin.H{
		"question":       fmt.Sprintf("Which of these is a %s topic for %s students?", req.Subject, req.Grade),
		"options":        []string{"Fractions", "Photosynthesis", "The Roman Empire", "Poetry"},
		"correct_answer": 0,
		"explanation":    "Fractions are part of the mathematics curriculum.",
	}, nil
}

// URL is the base URL of the running server
func (b *Backend) URL() string {
	return b.server.URL
}

// Handler exposes the router for callers that manage their own listener
func (b *Backend) Handler() http.Handler {
	return b.router
}

// SetGenerate replaces the content generator
func (b *Backend) SetGenerate(fn GenerateFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.generate = fn
}

// SetAIStatus replaces the response of GET /api/content/test-ai
func (b *Backend) SetAIStatus(status int, payload gin.H) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.aiStatus = status
	b.aiPayload = payload
}

// AddUser registers an account directly and returns its id
func (b *Backend) AddUser(username, email, password string) int {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("apitest: hash password: %v", err))
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addLocked(username, email, hash).ID
}

func (b *Backend) addLocked(username, email string, hash []byte) *account {
	acct := &account{
		ID:           b.nextID,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	b.nextID++
	b.users[email] = acct
	return acct
}

// IssueToken signs a token for userID that expires after ttl
func (b *Backend) IssueToken(userID int, ttl time.Duration) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.issueLocked(userID, ttl)
}

func (b *Backend) issueLocked(userID int, ttl time.Duration) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   strconv.Itoa(userID),
		"iat":   now.Unix(),
		"nbf":   now.Add(-time.Second).Unix(),
		"exp":   now.Add(ttl).Unix(),
		"epoch": b.epoch,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
	if err != nil {
		panic(fmt.Sprintf("apitest: sign token: %v", err))
	}
	return token
}

// RevokeTokens invalidates every token issued so far
func (b *Backend) RevokeTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.epoch++
}

// Calls returns how many requests reached path
func (b *Backend) Calls(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[path]
}

func (b *Backend) routes() *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		b.mu.Lock()
		b.calls[c.Request.URL.Path]++
		b.mu.Unlock()
		c.Next()
	})

	r.POST("/api/auth/register", b.register)
	r.POST("/api/auth/login", b.login)
	r.GET("/api/auth/me", b.requireJWT, b.me)
	r.GET("/api/content/generate", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "This endpoint accepts POST requests"})
	})
	r.POST("/api/content/generate", b.requireJWT, b.generateContent)
	r.GET("/api/content/test-ai", b.testAI)
	return r
}

func (b *Backend) register(c *gin.Context) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil || len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No data provided"})
		return
	}
	for _, field := range []string{"username", "email", "password"} {
		if _, ok := body[field]; !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required field: " + field})
			return
		}
	}

	username, _ := body["username"].(string)
	email, _ := body["email"].(string)
	password, _ := body["password"].(string)

	b.mu.Lock()
	_, exists := b.users[email]
	b.mu.Unlock()
	if exists {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	b.mu.Lock()
	acct := b.addLocked(username, email, hash)
	token := b.issueLocked(acct.ID, b.TokenTTL)
	b.mu.Unlock()

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"token":   token,
		"user":    acct.toJSON(),
	})
}

func (b *Backend) login(c *gin.Context) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil || len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No data provided"})
		return
	}
	email, okEmail := body["email"].(string)
	password, okPassword := body["password"].(string)
	if !okEmail || !okPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	b.mu.Lock()
	acct := b.users[email]
	b.mu.Unlock()
	if acct == nil || bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	b.mu.Lock()
	token := b.issueLocked(acct.ID, b.TokenTTL)
	b.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  acct.toJSON(),
	})
}

func (b *Backend) requireJWT(c *gin.Context) {
	header := c.GetHeader("Authorization")
	raw := strings.TrimPrefix(header, "Bearer ")
	if header == "" || raw == header || raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "Missing Authorization Header"})
		return
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return b.secret, nil
	})
	if err != nil {
		msg := "Invalid token"
		if errors.Is(err, jwt.ErrTokenExpired) {
			msg = "Token has expired"
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": msg})
		return
	}

	b.mu.Lock()
	epoch := b.epoch
	b.mu.Unlock()
	if e, ok := claims["epoch"].(float64); !ok || int(e) != epoch {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "Token has been revoked"})
		return
	}

	sub, _ := claims.GetSubject()
	id, err := strconv.Atoi(sub)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No user ID found in token"})
		return
	}
	c.Set("user_id", id)
	c.Next()
}

func (b *Backend) me(c *gin.Context) {
	id := c.GetInt("user_id")

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, acct := range b.users {
		if acct.ID == id {
			c.JSON(http.StatusOK, acct.toJSON())
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
}

func (b *Backend) generateContent(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content-Type must be application/json"})
		return
	}

	req.Subject = strings.TrimSpace(req.Subject)
	req.Grade = strings.TrimSpace(req.Grade)
	if req.Subject == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Subject must be a non-empty string"})
		return
	}
	if req.Grade == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Grade must be a non-empty string"})
		return
	}

	b.mu.Lock()
	generate := b.generate
	b.mu.Unlock()

	content, err := generate(req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "QCM generated successfully",
		"content":    content,
		"request_id": 1,
		"content_id": 1,
	})
}

func (b *Backend) testAI(c *gin.Context) {
	b.mu.Lock()
	status, payload := b.aiStatus, b.aiPayload
	b.mu.Unlock()
	c.JSON(status, payload)
}
