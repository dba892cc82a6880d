package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/raaihank/pii-sentinel/internal/config"
	"github.com/raaihank/pii-sentinel/internal/logger"
	"github.com/raaihank/pii-sentinel/internal/websocket"
	"github.com/raaihank/pii-sentinel/privacy"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Server exposes the privacy engine over HTTP. The engine itself performs no
// locking; the server serializes every engine call through mu.
type Server struct {
	config     *config.Config
	logger     *logger.Logger
	httpServer *http.Server
	router     *mux.Router
	hub        *websocket.Hub

	mu     sync.Mutex
	engine *privacy.Engine

	limiter *rateLimiter

	startTime       time.Time
	totalRequests   int64
	totalDetections int64
}

// New creates a new server instance.
func New(cfg *config.Config, log *logger.Logger) (*Server, error) {
	engine := privacy.New(cfg.Engine.ToPrivacy(cfg.Logging.Level), cfg.Engine.Provider(), log.Logger)

	s := &Server{
		config:    cfg,
		logger:    log.WithComponent("server"),
		engine:    engine,
		router:    mux.NewRouter(),
		startTime: time.Now(),
	}

	if cfg.RateLimit.Enabled {
		s.limiter = newRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.Burst)
	}

	if cfg.WebSocket.Enabled {
		s.hub = websocket.NewHub(&websocket.HubConfig{
			BroadcastDetections:  cfg.WebSocket.Events.BroadcastDetections,
			BroadcastAudit:       cfg.WebSocket.Events.BroadcastAudit,
			BroadcastSystem:      cfg.WebSocket.Events.BroadcastSystem,
			BroadcastConnections: cfg.WebSocket.Events.BroadcastConnections,
			Username:             cfg.WebSocket.Username,
			Password:             cfg.WebSocket.Password,
			AllowedOrigins:       cfg.WebSocket.AllowedOrigins,
		}, log.Logger)
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
	if s.limiter != nil {
		s.router.Use(s.rateLimitMiddleware)
	}

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/info", s.handleInfo).Methods(http.MethodGet)

	api := s.router.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/detect", s.handleDetect).Methods(http.MethodPost)
	api.HandleFunc("/detect-mask", s.handleDetectMask).Methods(http.MethodPost)
	api.HandleFunc("/mask", s.handleMask).Methods(http.MethodPost)
	api.HandleFunc("/mask-batch", s.handleMaskBatch).Methods(http.MethodPost)
	api.HandleFunc("/scan", s.handleScan).Methods(http.MethodPost)
	api.HandleFunc("/classify", s.handleClassify).Methods(http.MethodPost)
	api.HandleFunc("/sanitize", s.handleSanitize).Methods(http.MethodPost)
	api.HandleFunc("/anonymize", s.handleAnonymize).Methods(http.MethodPost)
	api.HandleFunc("/tokens", s.handleToken).Methods(http.MethodPost)
	api.HandleFunc("/patterns", s.handleRegisterPattern).Methods(http.MethodPost)
	api.HandleFunc("/patterns", s.handleListPatterns).Methods(http.MethodGet)
	api.HandleFunc("/patterns", s.handleClearPatterns).Methods(http.MethodDelete)
	api.HandleFunc("/audit", s.handleAuditLog).Methods(http.MethodGet)
	api.HandleFunc("/audit", s.handleClearAudit).Methods(http.MethodDelete)
	api.HandleFunc("/config", s.handleGetConfig).Methods(http.MethodGet)
	api.HandleFunc("/config", s.handlePutConfig).Methods(http.MethodPut)

	if s.hub != nil {
		s.router.HandleFunc(s.config.WebSocket.Path, s.hub.HandleWebSocket)
	}
}

// Start begins serving and blocks until the listener fails or is closed.
func (s *Server) Start() error {
	if s.hub != nil {
		go s.hub.Run()
	}
	if s.limiter != nil {
		go s.limiter.cleanupLoop()
	}

	s.logger.Info("Starting HTTP server",
		zap.Int("port", s.config.Server.Port),
		zap.String("version", Version),
		zap.Bool("websocket", s.hub != nil),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Reconfigure applies a hot-reloaded configuration to the engine. Server
// listener settings require a restart and are intentionally not touched.
func (s *Server) Reconfigure(cfg *config.Config) {
	s.mu.Lock()
	s.engine.Configure(cfg.Engine.ToPrivacy(cfg.Logging.Level))
	s.mu.Unlock()

	s.logger.Info("Engine reconfigured",
		zap.Float64("confidence_threshold", cfg.Engine.ConfidenceThreshold),
		zap.Bool("gdpr_mode", cfg.Engine.GDPRMode),
	)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) countRequest() {
	atomic.AddInt64(&s.totalRequests, 1)
}

func (s *Server) countDetections(n int) {
	atomic.AddInt64(&s.totalDetections, int64(n))
}
