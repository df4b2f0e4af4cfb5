package api

import (
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"arcade-defense/internal/game"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics with bounded cardinality (no per-client labels)
var (
	// Simulation metrics
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "game_tick_duration_seconds",
		Help:    "Time spent in one engine frame",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025},
	})

	ticksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "game_frames_total",
		Help: "Engine frames by outcome",
	}, []string{"outcome"}) // Bounded: "tick", "skip", "idle"

	entityCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "game_entity_count",
		Help: "Live entities by kind",
	}, []string{"kind"}) // Bounded: "enemy", "interceptor", "explosion"

	scoreGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "game_score",
		Help: "Score of the current run",
	})

	levelGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "game_level",
		Help: "Current level",
	})

	comboGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "game_combo_multiplier",
		Help: "Current combo multiplier",
	})

	shieldGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "game_shield_energy",
		Help: "Remaining shield energy",
	})

	killsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_kills_total",
		Help: "Enemies destroyed",
	})

	buildingsLostTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_buildings_lost_total",
		Help: "Buildings destroyed by impacts",
	})

	commandsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_commands_rejected_total",
		Help: "Player commands rejected by the session",
	})

	renderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "render_duration_seconds",
		Help:    "Time spent rendering and encoding a frame",
		Buckets: []float64{0.005, 0.01, 0.02, 0.033, 0.05, 0.1},
	})

	// Event log metrics
	eventLogTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "event_log_total",
		Help: "Total events logged",
	})

	eventLogDropped = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "event_log_dropped",
		Help: "Events dropped due to rate limiting or buffer full",
	})

	// DoS detection metrics - use ONLY bounded label values
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter, origin check or auth",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "auth", "ws_total_limit", "ws_ip_limit"

	// HTTP metrics with bounded labels
	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}) // endpoint is the route pattern, not the full URL

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	// WebSocket metrics
	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Total WebSocket messages sent",
	})
)

// ObservabilityConfig configures the debug server
type ObservabilityConfig struct {
	Enabled       bool
	ListenAddr    string // Loopback only unless ALLOW_DEBUG_EXTERNAL=true
	BasicAuthUser string // Optional basic auth
	BasicAuthPass string
}

// DefaultObservabilityConfig returns safe defaults
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

// isLoopback reports whether addr binds to a loopback interface.
func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// NewDebugHandler returns the pprof, metrics and health mux.
func NewDebugHandler(cfg ObservabilityConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if cfg.BasicAuthUser != "" {
		return basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass, mux)
	}
	return mux
}

// StartDebugServer starts the internal observability server in the
// background. It binds to loopback unless explicitly allowed otherwise.
func StartDebugServer(cfg ObservabilityConfig) *http.Server {
	if !cfg.Enabled || cfg.ListenAddr == "" {
		log.Println("📊 Debug server disabled")
		return nil
	}

	if !isLoopback(cfg.ListenAddr) && os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
		log.Println("⚠️ Debug server forced to localhost for security")
		cfg.ListenAddr = "127.0.0.1:6060"
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           NewDebugHandler(cfg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("📊 Debug server starting on %s", cfg.ListenAddr)
		log.Printf("   - pprof:   http://%s/debug/pprof/", cfg.ListenAddr)
		log.Printf("   - metrics: http://%s/metrics", cfg.ListenAddr)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()

	return srv
}

// basicAuthMiddleware adds basic authentication to the handler
func basicAuthMiddleware(user, pass string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ObserveTick records one engine frame. Register it with
// Engine.SetTickObserver.
func ObserveTick(ts game.TickStats) {
	tickDuration.Observe(ts.Duration.Seconds())

	switch {
	case ts.Ticked:
		ticksTotal.WithLabelValues("tick").Inc()
	case ts.Skipped:
		ticksTotal.WithLabelValues("skip").Inc()
	default:
		ticksTotal.WithLabelValues("idle").Inc()
	}

	entityCount.WithLabelValues("enemy").Set(float64(ts.Enemies))
	entityCount.WithLabelValues("interceptor").Set(float64(ts.Interceptors))
	entityCount.WithLabelValues("explosion").Set(float64(ts.Explosions))
	scoreGauge.Set(float64(ts.Score))
	levelGauge.Set(float64(ts.Level))
	comboGauge.Set(float64(ts.Combo))
	shieldGauge.Set(ts.Shield)

	if ts.Kills > 0 {
		killsTotal.Add(float64(ts.Kills))
	}
	if ts.BuildingsHit > 0 {
		buildingsLostTotal.Add(float64(ts.BuildingsHit))
	}
	if ts.Rejected > 0 {
		commandsRejected.Add(float64(ts.Rejected))
	}
}

// RecordRender records render timing for metrics
func RecordRender(duration time.Duration) {
	renderDuration.Observe(duration.Seconds())
}

// UpdateEventLogStats mirrors the event log counters into gauges.
func UpdateEventLogStats(total, dropped uint64) {
	eventLogTotal.Set(float64(total))
	eventLogDropped.Set(float64(dropped))
}

// RecordConnectionRejected increments the rejection counter.
// reason must be one of the bounded values listed on connectionRejected.
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records HTTP request metrics
func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	requestTotal.WithLabelValues(method, endpoint, http.StatusText(status)).Inc()
}

// UpdateWSConnections updates WebSocket connection count
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages increments WebSocket message counter
func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}
