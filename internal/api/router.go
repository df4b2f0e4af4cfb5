package api

import (
	"io"
	"net/http"
	"time"

	"arcade-defense/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// EngineInterface defines the engine methods used by the API.
// This interface enables mocking for tests without running the frame loop.
type EngineInterface interface {
	// GetSnapshot returns a copy of the latest published snapshot
	GetSnapshot() *game.GameSnapshot
	// GetStats returns engine counters
	GetStats() map[string]interface{}
	// GetLeaderboard returns the top n finished runs
	GetLeaderboard(n int) []game.LeaderboardEntry

	StartRun(d game.Difficulty, u game.Upgrades) (string, error)
	Pause() error
	Resume() error
	NextLevel(u game.Upgrades) error
	ReturnToMenu() error

	// Fire queues an interceptor launch for the next frame
	Fire(x, y float64, source string) error

	Save() ([]byte, error)
	Restore(data []byte) (string, error)
}

// FrameRenderer draws a snapshot as PNG.
type FrameRenderer interface {
	RenderPNG(w io.Writer, snap *game.GameSnapshot) error
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Engine: mockEngine,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the game engine (required)
	Engine EngineInterface

	// Renderer draws /api/frame.png. The route answers 503 when nil.
	Renderer FrameRenderer

	// Admin guards save and restore. Both are open when nil.
	Admin *AdminAuth

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *RateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// TrustProxy takes client addresses from X-Forwarded-For and X-Real-IP.
	// Enable only behind a proxy that sets them.
	TrustProxy bool

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, uses DefaultAllowedOrigins.
	CORSOrigins []string

	// DefaultDifficulty applies to start requests that name none.
	DefaultDifficulty game.Difficulty

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// routerHandlers holds the handler dependencies.
type routerHandlers struct {
	engine     EngineInterface
	limiter    *RateLimiter
	renderer   FrameRenderer
	difficulty game.Difficulty
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function is PURE - it has no side effects:
//   - No goroutines are started
//   - No network listeners are opened
//
// This makes it safe to use in tests with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = DefaultAllowedOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	h := &routerHandlers{
		engine:     cfg.Engine,
		limiter:    rateLimiter,
		renderer:   cfg.Renderer,
		difficulty: cfg.DefaultDifficulty,
	}

	r.Route("/api", func(r chi.Router) {
		// Read-only views
		r.Get("/state", h.handleGetState)
		r.Get("/stats", h.handleGetStats)
		r.Get("/leaderboard", h.handleGetLeaderboard)
		r.Get("/frame.png", h.handleGetFrame)

		// Session lifecycle
		r.Route("/session", func(r chi.Router) {
			r.Post("/start", h.handleSessionStart)
			r.Post("/pause", h.handleSessionPause)
			r.Post("/resume", h.handleSessionResume)
			r.Post("/next", h.handleSessionNext)
			r.Post("/menu", h.handleSessionMenu)
		})

		// Player input
		r.Post("/fire", h.handleFire)

		// Save/restore, admin only when auth is configured
		r.Group(func(r chi.Router) {
			if cfg.Admin != nil {
				r.Use(cfg.Admin.Middleware)
			}
			r.Get("/save", h.handleSave)
			r.Post("/restore", h.handleRestore)
		})
	})

	return r
}

// metricsMiddleware records latency per route pattern.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				endpoint = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordRequest(r.Method, endpoint, status, time.Since(start))
	})
}
