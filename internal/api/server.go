package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"arcade-defense/internal/game"

	"github.com/go-chi/chi/v5"
)

// ServerOptions configures NewServer.
type ServerOptions struct {
	Renderer          FrameRenderer
	Admin             *AdminAuth
	AllowedOrigins    []string
	RateLimit         RateLimitConfig
	TrustProxy        bool
	DefaultDifficulty game.Difficulty
	DisableLogging    bool
}

// Server is the HTTP API server with WebSocket support.
// It combines the HTTP router with WebSocket hub for real-time updates.
type Server struct {
	engine      EngineInterface
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *RateLimiter
	httpServer  *http.Server
}

// NewServer creates a new API server.
//
// IMPORTANT: Background workers do NOT start until Start() is called.
// This enables testing by allowing the server to be constructed without
// starting goroutines or opening network listeners.
func NewServer(engine EngineInterface, opts ServerOptions) *Server {
	origins := opts.AllowedOrigins
	if origins == nil {
		origins = DefaultAllowedOrigins
	}

	limiter := NewRateLimiter(opts.RateLimit)
	s := &Server{
		engine:      engine,
		wsHub:       NewWebSocketHub(engine, NewOriginPolicy(origins), limiter),
		rateLimiter: limiter,
	}

	s.router = NewRouter(RouterConfig{
		Engine:            engine,
		Renderer:          opts.Renderer,
		Admin:             opts.Admin,
		RateLimiter:       s.rateLimiter,
		TrustProxy:        opts.TrustProxy,
		CORSOrigins:       origins,
		DefaultDifficulty: opts.DefaultDifficulty,
		DisableLogging:    opts.DisableLogging,
	})

	// WebSocket routes need the wsHub instance
	s.router.Get("/ws", s.wsHub.HandleWebSocket)

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Start starts the background workers and serves HTTP on addr. It blocks
// until Shutdown and then returns nil.
func (s *Server) Start(addr string) error {
	go s.wsHub.Run()
	s.wsHub.StartBroadcastLoop()
	s.rateLimiter.StartCleanup()

	s.httpServer.Addr = addr

	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("🖼️  Frame: http://localhost%s/api/frame.png", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Shutdown stops background workers, closes WebSocket clients and drains
// in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.wsHub.Stop()
	s.rateLimiter.Stop()
	return s.httpServer.Shutdown(ctx)
}
