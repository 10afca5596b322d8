package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/pkillboredom/MA210-Roulette/internal/leaderboard"
	"github.com/pkillboredom/MA210-Roulette/internal/logger"
	"github.com/pkillboredom/MA210-Roulette/internal/metrics"
	"github.com/pkillboredom/MA210-Roulette/internal/record"
	"github.com/pkillboredom/MA210-Roulette/internal/store"
)

// Limits bounds what a single API request may ask for.
type Limits struct {
	MaxRounds      int
	RequestTimeout time.Duration
}

// DefaultLimits are used for zero fields of Deps.Limits.
var DefaultLimits = Limits{
	MaxRounds:      100_000,
	RequestTimeout: 60 * time.Second,
}

// Deps are the server's collaborators. DB and Kafka may be nil; the
// leaderboard defaults to an in-memory board.
type Deps struct {
	DB       store.DB
	Board    leaderboard.Board
	Registry *prometheus.Registry
	Kafka    record.MessageWriter
	Logger   *zap.Logger
	Limits   Limits
}

// Server handles HTTP requests
type Server struct {
	db           store.DB
	board        leaderboard.Board
	registry     *prometheus.Registry
	metrics      *metrics.Metrics
	kafka        record.MessageWriter
	logger       *zap.Logger
	errorHandler *ErrorHandler
	limits       Limits
	startTime    time.Time
}

// NewServer creates a new API server
func NewServer(deps Deps) *Server {
	log := logger.OrNop(deps.Logger)
	board := deps.Board
	if board == nil {
		board = leaderboard.NewMemory()
	}
	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	limits := deps.Limits
	if limits.MaxRounds <= 0 {
		limits.MaxRounds = DefaultLimits.MaxRounds
	}
	if limits.RequestTimeout <= 0 {
		limits.RequestTimeout = DefaultLimits.RequestTimeout
	}

	s := &Server{
		db:           deps.DB,
		board:        board,
		registry:     reg,
		metrics:      metrics.New(reg),
		kafka:        deps.Kafka,
		logger:       log,
		errorHandler: NewErrorHandler(log),
		limits:       limits,
		startTime:    time.Now(),
	}

	log.Info("api server created",
		zap.Bool("database_enabled", s.db != nil),
		zap.Bool("kafka_enabled", s.kafka != nil),
		zap.Int("max_rounds", limits.MaxRounds),
	)
	return s
}

// Routes sets up the HTTP routes with proper middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(s.logger))
	r.Use(s.errorHandler.RecoveryHandler)
	r.Use(middleware.Timeout(s.limits.RequestTimeout))

	r.Get("/health", s.handleHealthCheck)
	r.Get("/health/live", s.handleLiveness)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(s.registry))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/table", s.handleTable)
		r.Post("/simulations", s.handleSimulate)
		r.Get("/sessions", s.handleListSessions)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Get("/sessions/{id}/rounds", s.handleSessionRounds)
		r.Delete("/sessions/{id}", s.handleDeleteSession)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Post("/verify", s.handleVerify)
		r.Post("/seed/hash", s.handleSeedHash)
	})

	return r
}

// writeJSON writes a JSON response with proper headers
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response", zap.Error(err))
	}
}

// decodeJSON reads a request body into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
