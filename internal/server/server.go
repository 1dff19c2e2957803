package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"syscall"
	"time"

	"github.com/jonathan/career-coach/internal/config"
	"github.com/jonathan/career-coach/internal/db"
	"github.com/jonathan/career-coach/internal/flows"
	"github.com/jonathan/career-coach/internal/jobs"
	"github.com/jonathan/career-coach/internal/llm"
	"github.com/jonathan/career-coach/internal/server/middleware"
	"github.com/jonathan/career-coach/internal/server/ratelimit"
	"github.com/jonathan/career-coach/internal/storage"
)

// FlowRunner executes a named flow from a JSON input. *flows.Service satisfies it.
type FlowRunner interface {
	Run(ctx context.Context, name flows.Name, input json.RawMessage) (any, error)
}

// JobFetcher searches job listings. *jobs.Fetcher and *jobs.CachedFetcher
// satisfy it.
type JobFetcher interface {
	Fetch(ctx context.Context, role string) (*jobs.Result, error)
}

// CredentialStore reads and persists runtime credentials. *config.Store satisfies it.
type CredentialStore interface {
	Present() map[string]bool
	SetMany(pairs map[string]string) error
}

// ResumeStore keeps uploaded resume files. *storage.S3Store satisfies it.
// Get reports storage.ErrNotFound for a missing key.
type ResumeStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	logger      *slog.Logger
	db          *db.DB
	llm         llm.Client
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	userService *UserService
	authHandler *AuthHandler
	flows       FlowRunner
	jobs        JobFetcher
	credentials CredentialStore
	resumes     ResumeStore
	corsOrigins []string
}

// Dependencies are the collaborators a Server routes requests to. New
// builds them from configuration; tests supply fakes.
type Dependencies struct {
	Users       DBClient
	Flows       FlowRunner
	Jobs        JobFetcher
	Credentials CredentialStore
	Resumes     ResumeStore // optional; uploads are not stored when nil
	Notifier    ResetNotifier
	Passwords   *config.PasswordConfig
	JWT         *config.JWTConfig
	RateLimit   *ratelimit.Config
	Logger      *slog.Logger
	CORSOrigins []string
}

// New connects to the database, builds the model client and the rest of
// the service graph from cfg, and returns a server ready to Start.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, err
	}

	cleanup := func() { database.Close() }

	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to create password config: %w", err)
	}
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}

	llmCfg, err := LLMConfig(cfg)
	if err != nil {
		cleanup()
		return nil, err
	}
	client, err := llm.NewClient(ctx, llmCfg, cfg.APIKey)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	cleanup = func() {
		_ = client.Close()
		database.Close()
	}

	store, err := config.NewStore(cfg.CredentialsFile)
	if err != nil {
		cleanup()
		return nil, err
	}

	deps := Dependencies{
		Users:       database,
		Flows:       flows.NewService(client, logger),
		Jobs:        jobs.NewCachedFetcher(jobs.NewFetcher(store, logger), nil),
		Credentials: store,
		Passwords:   passwordConfig,
		JWT:         jwtConfig,
		RateLimit:   ratelimit.LoadConfig(),
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
	}

	if cfg.Resumes.Enabled() {
		resumes, err := storage.NewS3Store(ctx, cfg.Resumes)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to create resume storage: %w", err)
		}
		deps.Resumes = resumes
	}

	s := NewWithDependencies(cfg.Port, deps)
	s.db = database
	s.llm = client

	logger.Info("server configured",
		"llm_provider", llmCfg.Provider,
		"credentials_file", store.Path(),
		"resume_storage", cfg.Resumes.Enabled())
	return s, nil
}

// LLMConfig translates file/env configuration into a model client config
func LLMConfig(cfg config.Config) (*llm.Config, error) {
	provider, err := llm.ParseProvider(cfg.LLMProvider)
	if err != nil {
		return nil, err
	}
	lc := llm.DefaultConfig().WithProvider(provider)
	for tier, model := range cfg.Models {
		lc = lc.WithModel(llm.ModelTier(tier), model)
	}
	if cfg.Temperature > 0 {
		lc.Temperature = float32(cfg.Temperature)
	}
	return lc, nil
}

// NewWithDependencies builds a server around already-constructed
// collaborators.
func NewWithDependencies(port int, d Dependencies) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		logger:      logger,
		rateLimiter: ratelimit.NewLimiter(d.RateLimit),
		jwtService:  NewJWTService(d.JWT),
		userService: NewUserService(d.Users, d.Passwords, d.Notifier, logger),
		flows:       d.Flows,
		jobs:        d.Jobs,
		credentials: d.Credentials,
		resumes:     d.Resumes,
		corsOrigins: d.CORSOrigins,
	}
	s.authHandler = NewAuthHandler(s.userService, s.jwtService, logger)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(s.routes()))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second, // report generation on large histories is slow
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() *http.ServeMux {
	authed := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())
	protect := func(h http.HandlerFunc) http.Handler { return authed(h) }

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Public auth endpoints
	mux.HandleFunc("POST /auth/register", s.authHandler.Register)
	mux.HandleFunc("POST /auth/login", s.authHandler.Login)
	mux.HandleFunc("POST /auth/password-reset", s.authHandler.RequestPasswordReset)
	mux.HandleFunc("POST /auth/password-reset/confirm", s.authHandler.ConfirmPasswordReset)
	mux.Handle("PUT /auth/password", protect(s.authHandler.UpdatePassword))

	// Profile
	mux.Handle("GET /me/profile", protect(s.handleGetProfile))
	mux.Handle("PUT /me/profile", protect(s.handleUpdateProfile))
	mux.Handle("POST /me/resume", protect(s.handleUploadResume))
	mux.Handle("GET /me/resume", protect(s.handleDownloadResume))

	// Flows
	mux.Handle("GET /flows", protect(s.handleListFlows))
	mux.Handle("POST /flows/{name}", protect(s.handleFlow))

	// Jobs and market dashboard
	mux.Handle("GET /jobs", protect(s.handleJobs))
	mux.Handle("GET /market", protect(s.handleMarket))

	// Settings
	mux.Handle("GET /settings/credentials", protect(s.handleGetCredentials))
	mux.Handle("PUT /settings/credentials", protect(s.handlePutCredentials))

	return mux
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for requests and blocks until SIGINT/SIGTERM or
// ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.Close()
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.Close()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Close releases the rate limiter, model client and database pool
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.llm != nil {
		_ = s.llm.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
}

// withCORS adds CORS headers. With no configured origins any origin is
// allowed; otherwise the request origin is echoed only when listed.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case len(s.corsOrigins) == 0:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(s.corsOrigins, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"remote", r.RemoteAddr)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			status["database"] = "unavailable"
		} else {
			status["database"] = "ok"
		}
	}
	s.jsonResponse(w, http.StatusOK, status)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode JSON response", "error", err)
	}
}

// errorResponse writes err as a JSON error document with its mapped status.
// Server-side failures are logged with their full cause.
func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "status", status, "error", err)
	}
	s.jsonResponse(w, status, errorBody(err))
}

// extractClientID extracts the client identifier (remote IP) from the request.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds())
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	s.logger.WarnContext(r.Context(), "rate limit exceeded",
		"tier", info.Tier,
		"path", r.URL.Path,
		"client", s.extractClientID(r),
		"limit", info.Limit)

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
