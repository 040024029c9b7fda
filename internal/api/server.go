package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	fsrs "github.com/open-spaced-repetition/go-fsrs"
	classroom "google.golang.org/api/classroom/v1"

	"study-ai/internal/logger"
	"study-ai/internal/models"
	"study-ai/internal/services"
)

const (
	maxUploadSize   = services.MaxPDFSize
	maxArtifactSize = 50
)

// TextExtractor downloads a PDF and returns its plain text. Local paths are
// never accepted from clients.
type TextExtractor interface {
	ExtractURL(ctx context.Context, url string) (string, error)
}

// StudyGenerator produces the study artifacts for a document.
type StudyGenerator interface {
	GenerateSummary(ctx context.Context, text, instruction string) (string, error)
	GenerateFlashcards(ctx context.Context, text string, n int) []models.Flashcard
	GenerateQuiz(ctx context.Context, text string, n int) []models.QuizQuestion
	GenerateChatReply(ctx context.Context, message, memory string) (models.ChatReply, error)
}

type ClassroomClient interface {
	LoginURL() (string, string, error)
	Exchange(ctx context.Context, code, state string) error
	Courses(ctx context.Context, state string) ([]*classroom.Course, error)
}

type ReviewScheduler interface {
	Review(card models.ReviewCard, rating fsrs.Rating, now time.Time) (models.ReviewCard, models.ReviewLog, error)
}

// Deps are the collaborators the HTTP surface delegates to. Documents and
// Registry are optional; without them the upload and lookup routes answer
// 404.
type Deps struct {
	Log       *logger.Logger
	Extractor TextExtractor
	Study     StudyGenerator
	Classroom ClassroomClient
	Scheduler ReviewScheduler
	Documents services.DocumentStore
	Registry  services.DocumentRegistry

	// UploadDir, when set, is served at /uploads.
	UploadDir   string
	CORSOrigins []string
}

type Server struct {
	engine *gin.Engine
	deps   Deps
	log    *logger.Logger
	now    func() time.Time
}

func NewServer(deps Deps) *Server {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	s := &Server{
		engine: gin.New(),
		deps:   deps,
		log:    deps.Log.With("component", "api"),
		now:    time.Now,
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.Use(gin.Recovery(), s.requestLogger())
	if len(s.deps.CORSOrigins) > 0 {
		s.engine.Use(cors.New(cors.Config{
			AllowOrigins:     s.deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	s.engine.GET("/", s.handleRoot)
	s.engine.GET("/health", s.handleHealth)

	s.engine.POST("/summarize", s.handleSummarize)
	s.engine.POST("/flashcards", s.handleFlashcards)
	s.engine.POST("/flashcards/review", s.handleReview)
	s.engine.POST("/quiz", s.handleQuiz)
	s.engine.POST("/chatbot", s.handleChatbot)
	s.engine.POST("/mention", s.handleMention)

	google := s.engine.Group("/google")
	google.GET("/login", s.handleGoogleLogin)
	google.GET("/callback", s.handleGoogleCallback)
	google.GET("/courses", s.handleGoogleCourses)

	s.engine.POST("/upload", s.handleUpload)
	s.engine.GET("/documents/:id", s.handleGetDocument)
	if s.deps.UploadDir != "" {
		s.engine.Static("/uploads", s.deps.UploadDir)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) handleRoot(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"status": "backend running"})
}

func (s *Server) handleHealth(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"status": "ok"})
}

type summarizeRequest struct {
	FileURL    string `json:"fileURL"`
	UserPrompt string `json:"user_prompt"`
}

func (s *Server) handleSummarize(c *gin.Context) {
	var payload summarizeRequest
	if !bindJSON(c, &payload) {
		return
	}
	text, err := s.documentText(c.Request.Context(), payload.FileURL)
	if err != nil {
		s.writeError(c, err)
		return
	}
	summary, err := s.deps.Study.GenerateSummary(c.Request.Context(), text, payload.UserPrompt)
	if err != nil {
		s.writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"summary": summary})
}

type flashcardsRequest struct {
	FileURL string `json:"fileURL"`
	NCards  int    `json:"n_cards"`
}

func (s *Server) handleFlashcards(c *gin.Context) {
	payload := flashcardsRequest{NCards: 10}
	if !bindJSON(c, &payload) {
		return
	}
	if err := checkCount("n_cards", payload.NCards); err != nil {
		s.writeError(c, err)
		return
	}
	text, err := s.documentText(c.Request.Context(), payload.FileURL)
	if err != nil {
		s.writeError(c, err)
		return
	}
	cards := s.deps.Study.GenerateFlashcards(c.Request.Context(), text, payload.NCards)
	writeJSON(c, http.StatusOK, gin.H{"flashcards": cards})
}

type quizRequest struct {
	FileURL    string `json:"fileURL"`
	NQuestions int    `json:"n_questions"`
}

func (s *Server) handleQuiz(c *gin.Context) {
	payload := quizRequest{NQuestions: 5}
	if !bindJSON(c, &payload) {
		return
	}
	if err := checkCount("n_questions", payload.NQuestions); err != nil {
		s.writeError(c, err)
		return
	}
	text, err := s.documentText(c.Request.Context(), payload.FileURL)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if n := len([]rune(strings.TrimSpace(text))); n < services.MinQuizTextLength {
		s.writeError(c, fmt.Errorf("%w: text too short to generate quiz (%d characters, need %d)", services.ErrInput, n, services.MinQuizTextLength))
		return
	}
	quiz := s.deps.Study.GenerateQuiz(c.Request.Context(), text, payload.NQuestions)
	writeJSON(c, http.StatusOK, gin.H{"quiz": quiz})
}

type chatbotRequest struct {
	UserPrompt string `json:"user_prompt"`
	Memory     string `json:"memory"`
}

func (s *Server) handleChatbot(c *gin.Context) {
	var payload chatbotRequest
	if !bindJSON(c, &payload) {
		return
	}
	s.chat(c, payload.UserPrompt, payload.Memory)
}

type mentionRequest struct {
	Text   string `json:"text"`
	Memory string `json:"memory"`
}

func (s *Server) handleMention(c *gin.Context) {
	var payload mentionRequest
	if !bindJSON(c, &payload) {
		return
	}
	s.chat(c, payload.Text, payload.Memory)
}

func (s *Server) chat(c *gin.Context, message, memory string) {
	if strings.TrimSpace(message) == "" {
		s.writeError(c, fmt.Errorf("%w: message is required", services.ErrInput))
		return
	}
	reply, err := s.deps.Study.GenerateChatReply(c.Request.Context(), message, memory)
	if err != nil {
		s.writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, reply)
}

func (s *Server) handleGoogleLogin(c *gin.Context) {
	authURL, state, err := s.deps.Classroom.LoginURL()
	if err != nil {
		s.writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"authorization_url": authURL, "state": state})
}

func (s *Server) handleGoogleCallback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	if err := s.deps.Classroom.Exchange(c.Request.Context(), code, state); err != nil {
		s.writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"message": "Authentication successful", "state": state})
}

func (s *Server) handleGoogleCourses(c *gin.Context) {
	courses, err := s.deps.Classroom.Courses(c.Request.Context(), c.Query("state"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"courses": courses})
}

func (s *Server) handleUpload(c *gin.Context) {
	if s.deps.Documents == nil {
		writeError(c, http.StatusNotFound, "document uploads are disabled")
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		s.writeError(c, fmt.Errorf("%w: multipart field \"file\" is required", services.ErrInput))
		return
	}
	if fh.Size > maxUploadSize {
		s.writeError(c, fmt.Errorf("%w: file exceeds %d bytes", services.ErrInput, maxUploadSize))
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.writeError(c, fmt.Errorf("%w: open upload: %w", services.ErrRetrieval, err))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadSize+1))
	if err != nil {
		s.writeError(c, fmt.Errorf("%w: read upload: %w", services.ErrRetrieval, err))
		return
	}

	doc, err := s.deps.Documents.Upload(c.Request.Context(), fh.Filename, data)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.log.Info("document uploaded", "name", doc.OriginalName, "key", doc.StoredKey, "pages", doc.PageCount)
	writeJSON(c, http.StatusOK, gin.H{"fileURL": doc.URL, "document": doc})
}

func (s *Server) handleGetDocument(c *gin.Context) {
	if s.deps.Registry == nil {
		writeError(c, http.StatusNotFound, "document registry is disabled")
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid document id")
		return
	}
	doc, err := s.deps.Registry.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrDocumentNotFound) {
			writeError(c, http.StatusNotFound, err.Error())
			return
		}
		s.writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, doc)
}

type reviewRequest struct {
	Card   models.ReviewCard `json:"card"`
	Rating string            `json:"rating"`
}

func (s *Server) handleReview(c *gin.Context) {
	var payload reviewRequest
	if !bindJSON(c, &payload) {
		return
	}
	rating, err := services.ParseRating(payload.Rating)
	if err != nil {
		s.writeError(c, err)
		return
	}
	card, log, err := s.deps.Scheduler.Review(payload.Card, rating, s.now())
	if err != nil {
		s.writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"card": card, "log": log})
}

// documentText fetches and extracts source, rejecting anything but an
// absolute http(s) URL and documents with no text.
func (s *Server) documentText(ctx context.Context, source string) (string, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return "", fmt.Errorf("%w: fileURL is required", services.ErrInput)
	}
	u, err := url.Parse(source)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: fileURL must be an http or https URL", services.ErrInput)
	}
	text, err := s.deps.Extractor.ExtractURL(ctx, source)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: No text found in PDF", services.ErrInput)
	}
	return text, nil
}

func checkCount(field string, n int) error {
	if n < 1 || n > maxArtifactSize {
		return fmt.Errorf("%w: %s must be between 1 and %d", services.ErrInput, field, maxArtifactSize)
	}
	return nil
}

func bindJSON(c *gin.Context, target any) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		writeError(c, http.StatusBadRequest, "invalid payload")
		return false
	}
	return true
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInput):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrRetrieval), errors.Is(err, services.ErrModelInvocation):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", c.FullPath(), "error", err)
	} else {
		s.log.Info("request rejected", "path", c.FullPath(), "status", status, "error", err)
	}
	msg := err.Error()
	if errors.Is(err, services.ErrNotAuthenticated) {
		msg = "User not authenticated. Please login again."
	}
	writeError(c, status, msg)
}

func writeJSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

func writeError(c *gin.Context, status int, message string) {
	writeJSON(c, status, gin.H{"detail": message})
}
