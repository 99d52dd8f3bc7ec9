// Package http provides the HTTP API server for Studygotchi Hub.
//
// The server exposes the player-facing REST API (pet, study, exams,
// shop, leaderboard, classrooms) plus health and operations endpoints.
// It sits on top of the application layer: every route decodes the
// request, builds a command or query, and delegates to a handler.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/studygotchi/studygotchi-hub/internal/application/command"
	"github.com/studygotchi/studygotchi-hub/internal/application/query"
	"github.com/studygotchi/studygotchi-hub/internal/application/saga"
	"github.com/studygotchi/studygotchi-hub/internal/domain/classroom"
	"github.com/studygotchi/studygotchi-hub/internal/domain/notification"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
	"github.com/studygotchi/studygotchi-hub/internal/domain/user"
	"github.com/studygotchi/studygotchi-hub/internal/infrastructure/persistence/redis"
	"github.com/studygotchi/studygotchi-hub/internal/interface/http/handlers"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds HTTP server configuration.
type Config struct {
	// Host is the address to bind to.
	Host string

	// Port is the port to listen on.
	Port int

	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration

	// IdleTimeout is the maximum time to wait for the next request.
	IdleTimeout time.Duration

	// ShutdownTimeout is how long to wait for graceful shutdown.
	ShutdownTimeout time.Duration

	// RequestTimeout bounds a single request end to end.
	RequestTimeout time.Duration

	// MaxHeaderBytes limits request header size.
	MaxHeaderBytes int

	// MaxBodyBytes limits request body size.
	MaxBodyBytes int64

	// EnableCORS enables CORS headers for the browser client.
	EnableCORS bool

	// AllowedOrigins lists allowed CORS origins. Empty means all.
	AllowedOrigins []string

	// EnablePprof exposes pprof endpoints under /debug/pprof.
	EnablePprof bool

	// RateLimitPerMinute caps requests per client IP. Zero disables.
	RateLimitPerMinute int

	// APIKeyHeader is the header carrying staff API keys.
	APIKeyHeader string

	// APIKeys are valid keys for the operations endpoints.
	APIKeys []string
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:               "0.0.0.0",
		Port:               8080,
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       30 * time.Second,
		IdleTimeout:        60 * time.Second,
		ShutdownTimeout:    15 * time.Second,
		RequestTimeout:     30 * time.Second,
		MaxHeaderBytes:     1 << 20, // 1 MB
		MaxBodyBytes:       64 << 10,
		EnableCORS:         true,
		RateLimitPerMinute: 120,
		APIKeyHeader:       "X-API-Key",
	}
}

// Addr returns the listen address in host:port form.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// TokenStore issues, resolves, and revokes bearer tokens.
type TokenStore interface {
	Issue(ctx context.Context, userID string) (string, error)
	Resolve(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
}

// MembershipSource lists classroom memberships for a user.
// Satisfied by classroom.Repository.
type MembershipSource interface {
	GetMemberships(ctx context.Context, userID string) ([]*classroom.Membership, error)
}

// InboxReader reads a user's in-app notification feed.
// Satisfied by redis.InAppChannel.
type InboxReader interface {
	Inbox(ctx context.Context, recipientID notification.RecipientID, limit int) ([]*redis.InboxEntry, error)
	ClearInbox(ctx context.Context, recipientID notification.RecipientID) error
}

// Dependencies holds everything the server routes delegate to.
// A nil handler disables its routes with 501 Not Implemented, so the
// server can start with a partial wiring during development.
type Dependencies struct {
	// Sagas
	Onboarding *saga.OnboardingSaga
	ExamFlow   *saga.ExamFlowSaga

	// Commands
	CreatePet      *command.CreatePetHandler
	StartSession   *command.StartSessionHandler
	RecordStudy    *command.RecordStudyHandler
	ForgetNote     *command.ForgetNoteHandler
	ChatWithPet    *command.ChatWithPetHandler
	FeedPet        *command.FeedPetHandler
	PlayMinigame   *command.PlayMinigameHandler
	RevivePet      *command.RevivePetHandler
	BuyFood        *command.BuyFoodHandler
	BuyItem        *command.BuyItemHandler
	CreatePayment  *command.CreatePaymentHandler
	ConfirmPayment *command.ConfirmPaymentHandler
	CreateExam     *command.CreateExamHandler
	CreateClass    *command.CreateClassroomHandler
	JoinClass      *command.JoinClassroomHandler

	// Queries
	GetPetView        *query.GetPetViewHandler
	GetPetRank        *query.GetPetRankHandler
	GetLeaderboard    *query.GetLeaderboardHandler
	GetClassmates     *query.GetClassmatesHandler
	GetStudyLogs      *query.GetStudyLogsHandler
	GetActiveSessions *query.GetActiveSessionsHandler
	GetDailyDigest    *query.GetDailyDigestHandler

	// Supporting services
	Users       user.Repository
	Memberships MembershipSource
	Tokens      TokenStore
	Inbox       InboxReader
	Health      handlers.HealthChecker
	Logger      *slog.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server is the HTTP API server.
type Server struct {
	config      Config
	deps        Dependencies
	mux         *http.ServeMux
	httpServer  *http.Server
	logger      *slog.Logger
	auth        *handlers.BearerAuth
	staffAuth   *handlers.APIKeyAuth
	rateLimiter *rateLimiter
}

// NewServer creates a new HTTP server with the given configuration.
func NewServer(cfg Config, deps Dependencies) *Server {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "http")

	if deps.Health == nil {
		deps.Health = handlers.NewNoopHealthChecker()
	}

	s := &Server{
		config:    cfg,
		deps:      deps,
		mux:       http.NewServeMux(),
		logger:    log,
		staffAuth: handlers.NewAPIKeyAuth(cfg.APIKeyHeader, cfg.APIKeys),
	}
	if deps.Tokens != nil {
		s.auth = handlers.NewBearerAuth(deps.Tokens)
	}
	if cfg.RateLimitPerMinute > 0 {
		s.rateLimiter = newRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	}

	s.registerRoutes()

	s.httpServer = &http.Server{
		Addr:           cfg.Addr(),
		Handler:        s.buildHandler(),
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	return s
}

// registerRoutes wires all endpoints into the mux.
func (s *Server) registerRoutes() {
	// Service endpoints
	s.mux.HandleFunc("GET /", s.handleRoot)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /health/ready", s.handleReady)
	s.mux.HandleFunc("GET /health/live", s.handleLive)

	// Auth
	s.mux.HandleFunc("POST /api/v1/auth/register", s.handleRegister)
	s.mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	s.mux.Handle("POST /api/v1/auth/logout", s.authed(s.handleLogout))

	// Session
	s.mux.Handle("POST /api/v1/session", s.authed(s.handleStartSession))

	// Pet
	s.mux.Handle("GET /api/v1/pet", s.authed(s.handleGetPet))
	s.mux.Handle("POST /api/v1/pet", s.authed(s.handleCreatePet))
	s.mux.Handle("POST /api/v1/pet/feed", s.authed(s.handleFeedPet))
	s.mux.Handle("POST /api/v1/pet/chat", s.authed(s.handleChat))
	s.mux.Handle("POST /api/v1/pet/minigame", s.authed(s.handleMinigame))
	s.mux.Handle("POST /api/v1/pet/revive", s.authed(s.handleRevive))

	// Study notes
	s.mux.Handle("GET /api/v1/study", s.authed(s.handleGetStudyLogs))
	s.mux.Handle("POST /api/v1/study", s.authed(s.handleRecordStudy))
	s.mux.Handle("DELETE /api/v1/study/{id}", s.authed(s.handleForgetNote))

	// Exams
	s.mux.Handle("GET /api/v1/exams", s.authed(s.handleListExams))
	s.mux.Handle("POST /api/v1/exams", s.authed(s.handleCreateExam))
	s.mux.Handle("POST /api/v1/exams/{id}/take", s.authed(s.handleTakeExam))

	// Shop and payments
	s.mux.Handle("POST /api/v1/shop/food", s.authed(s.handleBuyFood))
	s.mux.Handle("POST /api/v1/shop/items", s.authed(s.handleBuyItem))
	s.mux.Handle("POST /api/v1/payments", s.authed(s.handleCreatePayment))
	s.mux.Handle("POST /api/v1/payments/confirm", s.authed(s.handleConfirmPayment))

	// Leaderboard
	leaderboard := s.authed(s.handleLeaderboard)
	if s.config.EnableCORS {
		// The board is the same for everyone; let browsers cache it briefly.
		leaderboard = handlers.CacheControlMiddleware(30*time.Second, false)(leaderboard)
	}
	s.mux.Handle("GET /api/v1/leaderboard", leaderboard)
	s.mux.Handle("GET /api/v1/leaderboard/me", s.authed(s.handleMyRank))

	// Classrooms
	s.mux.Handle("POST /api/v1/classrooms", s.authed(s.handleCreateClassroom))
	s.mux.Handle("POST /api/v1/classrooms/join", s.authed(s.handleJoinClassroom))
	s.mux.Handle("GET /api/v1/classrooms/{id}/members", s.authed(s.handleClassmates))
	s.mux.Handle("GET /api/v1/classrooms", s.authed(s.handleMyClassrooms))

	// Digest and notifications
	s.mux.Handle("GET /api/v1/digest", s.authed(s.handleDailyDigest))
	s.mux.Handle("GET /api/v1/notifications", s.authed(s.handleNotifications))
	s.mux.Handle("DELETE /api/v1/notifications", s.authed(s.handleClearNotifications))

	// Operations endpoints, API key protected
	s.mux.Handle("GET /api/v1/ops/sessions", s.staffOnly(s.handleActiveSessions))

	if s.config.EnablePprof {
		s.mux.HandleFunc("GET /debug/pprof/", pprof.Index)
		s.mux.HandleFunc("GET /debug/pprof/cmdline", pprof.Cmdline)
		s.mux.HandleFunc("GET /debug/pprof/profile", pprof.Profile)
		s.mux.HandleFunc("GET /debug/pprof/symbol", pprof.Symbol)
		s.mux.HandleFunc("GET /debug/pprof/trace", pprof.Trace)
	}
}

// authed wraps a handler with bearer token authentication.
// Without a token store every protected route answers 503.
func (s *Server) authed(h http.HandlerFunc) http.Handler {
	if s.auth == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.writeJSONError(w, r, http.StatusServiceUnavailable,
				"auth_unavailable", "Authentication is not configured")
		})
	}
	return s.auth.Middleware(h)
}

// staffOnly wraps a handler with API key authentication.
func (s *Server) staffOnly(h http.HandlerFunc) http.Handler {
	return s.staffAuth.Middleware(h)
}

// buildHandler assembles the global middleware chain.
func (s *Server) buildHandler() http.Handler {
	var h http.Handler = s.mux

	h = handlers.RequestSizeLimitMiddleware(s.config.MaxBodyBytes)(h)
	if s.config.RequestTimeout > 0 {
		h = handlers.TimeoutMiddleware(s.config.RequestTimeout)(h)
	}
	if s.config.EnableCORS {
		h = s.corsMiddleware(h)
	}
	if s.rateLimiter != nil {
		h = s.rateLimitMiddleware(h)
	}
	h = handlers.SecurityHeadersMiddleware(h)
	h = s.recoveryMiddleware(h)
	h = s.loggingMiddleware(h)
	h = s.requestIDMiddleware(h)

	return h
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Addr returns the configured listen address in host:port form.
func (s *Server) Addr() string {
	return s.config.Addr()
}

// Start runs the server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting",
		"addr", s.config.Addr(),
		"cors", s.config.EnableCORS,
		"pprof", s.config.EnablePprof)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// StartAsync runs the server in a goroutine and reports errors on the
// returned channel.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()
	return errCh
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if s.rateLimiter != nil {
		s.rateLimiter.stop()
	}

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

type contextKey string

const contextKeyRequestID contextKey = "request_id"

// requestIDMiddleware assigns each request a unique ID for tracing.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), contextKeyRequestID, requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs each request with timing.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		// Health probes poll every few seconds; logging them is noise.
		if strings.HasPrefix(r.URL.Path, "/health") {
			return
		}

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration", time.Since(start),
			"ip", getClientIP(r),
			"request_id", requestIDFrom(r.Context()))
	})
}

// recoveryMiddleware turns panics into 500 responses.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered",
					"panic", rec,
					"path", r.URL.Path,
					"request_id", requestIDFrom(r.Context()))
				s.writeJSONError(w, r, http.StatusInternalServerError,
					"internal_error", "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware handles cross-origin requests from the browser client.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			w.Header().Set("Access-Control-Max-Age", "3600")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	if len(s.config.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range s.config.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// rateLimitMiddleware rejects clients that exceed the per-IP budget.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Probes are exempt so the orchestrator never gets throttled.
		if strings.HasPrefix(r.URL.Path, "/health") {
			next.ServeHTTP(w, r)
			return
		}

		if !s.rateLimiter.allow(getClientIP(r)) {
			w.Header().Set("Retry-After", "60")
			s.writeJSONError(w, r, http.StatusTooManyRequests,
				"rate_limited", "Too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// JSON RESPONSES
// ══════════════════════════════════════════════════════════════════════════════

// JSONResponse is the standard response envelope.
type JSONResponse struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Error     *APIError `json:"error,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// APIError describes an error in a response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	resp := JSONResponse{
		Success:   status < 400,
		Data:      data,
		RequestID: requestIDFrom(r.Context()),
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	resp := JSONResponse{
		Success:   false,
		Error:     &APIError{Code: code, Message: message},
		RequestID: requestIDFrom(r.Context()),
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("failed to encode error response", "error", err)
	}
}

// writeDomainError maps a domain error to an HTTP status.
// Unknown errors get a 500 with a generic message so internals never leak.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var code string
	var status int

	switch {
	case shared.IsNotFound(err):
		status, code = http.StatusNotFound, "not_found"
	case shared.IsAlreadyExists(err):
		status, code = http.StatusConflict, "already_exists"
	case shared.IsValidation(err):
		status, code = http.StatusBadRequest, "validation_error"
	case shared.IsCooldown(err):
		status, code = http.StatusTooManyRequests, "on_cooldown"
	case errors.Is(err, shared.ErrUnauthorized):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, shared.ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, shared.ErrAlreadyProcessed):
		status, code = http.StatusConflict, "already_processed"
	case errors.Is(err, shared.ErrInvalidState):
		status, code = http.StatusConflict, "invalid_state"
	case errors.Is(err, shared.ErrExpired):
		status, code = http.StatusGone, "expired"
	case shared.IsExternalService(err):
		status, code = http.StatusBadGateway, "upstream_error"
	default:
		s.logger.Error("unhandled error",
			"error", err,
			"path", r.URL.Path,
			"request_id", requestIDFrom(r.Context()))
		s.writeJSONError(w, r, http.StatusInternalServerError,
			"internal_error", "Internal server error")
		return
	}

	var derr *shared.DomainError
	message := err.Error()
	if errors.As(err, &derr) {
		message = derr.Message
	}

	s.writeJSONError(w, r, status, code, message)
}

// decodeJSON decodes a request body into dst, rejecting unknown fields.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		s.writeJSONError(w, r, http.StatusBadRequest,
			"invalid_json", "Request body is not valid JSON: "+err.Error())
		return false
	}
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// responseWriter captures the response status for logging.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyRequestID).(string)
	return id
}

// getClientIP extracts the client IP, preferring proxy headers.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func getQueryParam(r *http.Request, name string) string {
	return r.URL.Query().Get(name)
}

func getQueryParamInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getQueryParamBool(r *http.Request, name string) bool {
	v := strings.ToLower(r.URL.Query().Get(name))
	return v == "1" || v == "true" || v == "yes"
}

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER
// ══════════════════════════════════════════════════════════════════════════════

// rateLimiter is an in-memory sliding window limiter keyed by client IP.
// Per-process state is fine here: the game runs as a single API replica,
// and even with several replicas the limit only loosens proportionally.
type rateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	done     chan struct{}
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		done:     make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *rateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	times := rl.requests[key]
	kept := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= rl.limit {
		rl.requests[key] = kept
		return false
	}

	rl.requests[key] = append(kept, now)
	return true
}

// cleanupLoop drops idle clients so the map does not grow forever.
func (rl *rateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			cutoff := time.Now().Add(-rl.window)
			for key, times := range rl.requests {
				alive := false
				for _, t := range times {
					if t.After(cutoff) {
						alive = true
						break
					}
				}
				if !alive {
					delete(rl.requests, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *rateLimiter) stop() {
	close(rl.done)
}
