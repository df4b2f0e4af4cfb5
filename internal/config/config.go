// Package config provides centralized configuration management.
// Every tunable the hosts expose lives here; the simulation constants
// themselves stay in package game.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// SimConfig holds the engine settings.
type SimConfig struct {
	Width          float64       // Play area width in px
	Height         float64       // Play area height in px
	TickRate       int           // Host frames per second
	StallThreshold time.Duration // Frame deltas above this skip the tick
	Seed           int64         // 0 seeds from the clock
	Difficulty     string        // Default difficulty for runs started without one
	LeaderboardCap int           // Runs kept in the in-memory leaderboard
}

// DefaultSim returns the default simulation configuration.
func DefaultSim() SimConfig {
	return SimConfig{
		Width:          800,
		Height:         600,
		TickRate:       60,
		StallThreshold: 100 * time.Millisecond,
		Difficulty:     "normal",
		LeaderboardCap: 100,
	}
}

// SimFromEnv returns simulation configuration with environment variable overrides.
func SimFromEnv() SimConfig {
	cfg := DefaultSim()

	if w := getEnvFloat("SIM_WIDTH", 0); w > 0 {
		cfg.Width = w
	}
	if h := getEnvFloat("SIM_HEIGHT", 0); h > 0 {
		cfg.Height = h
	}
	if r := getEnvInt("SIM_TICK_RATE", 0); r > 0 {
		cfg.TickRate = r
	}
	if ms := getEnvInt("SIM_STALL_MS", 0); ms > 0 {
		cfg.StallThreshold = time.Duration(ms) * time.Millisecond
	}
	if s := getEnvInt64("SIM_SEED", 0); s != 0 {
		cfg.Seed = s
	}
	if d := os.Getenv("SIM_DIFFICULTY"); d != "" {
		cfg.Difficulty = strings.ToLower(d)
	}
	if n := getEnvInt("LEADERBOARD_SIZE", 0); n > 0 {
		cfg.LeaderboardCap = n
	}

	return cfg
}

// =============================================================================
// SNAPSHOT LIMITS
// =============================================================================

// ResourceLimits caps what each published snapshot carries.
type ResourceLimits struct {
	MaxEnemies      int
	MaxInterceptors int
	MaxProjectiles  int
	MaxExplosions   int
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		MaxEnemies:      128,
		MaxInterceptors: 12,
		MaxProjectiles:  32,
		MaxExplosions:   128,
	}
}

// =============================================================================
// AUDIO CONFIGURATION
// =============================================================================

// AudioConfig holds cue synthesizer settings.
type AudioConfig struct {
	SampleRate int     // Audio sample rate in Hz
	Volume     float64 // Master volume (0.0 to 1.0)
	Enabled    bool    // Play cues on the local speaker
}

// DefaultAudio returns the default audio configuration.
func DefaultAudio() AudioConfig {
	return AudioConfig{
		SampleRate: 44100,
		Volume:     0.3,
		Enabled:    false, // Servers are usually headless
	}
}

// AudioFromEnv returns audio configuration with environment variable overrides.
func AudioFromEnv() AudioConfig {
	cfg := DefaultAudio()

	if sr := getEnvInt("AUDIO_SAMPLE_RATE", 0); sr > 0 {
		cfg.SampleRate = sr
	}
	if v := getEnvFloat("AUDIO_VOLUME", -1); v >= 0 {
		cfg.Volume = v
	}
	if os.Getenv("AUDIO_ENABLED") == "true" {
		cfg.Enabled = true
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	DebugAddr      string // pprof + metrics, localhost only
	EventLogPath   string // NDJSON event log; empty keeps events in memory
	AllowedOrigins []string
	RequestsPerSec float64 // Per-IP API rate
	Burst          int
	FiresPerSec    float64 // Per-IP fire commands, HTTP and WebSocket combined
	FireBurst      int
	TrustProxy     bool   // Read client IPs from X-Forwarded-For / X-Real-IP
	AdminSecret    string // HS256 key for admin tokens; empty leaves save/restore open
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:           3000,
		DebugAddr:      "127.0.0.1:6060",
		EventLogPath:   "events.ndjson",
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		RequestsPerSec: 30,
		Burst:          60,
		FiresPerSec:    10,
		FireBurst:      5,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if addr, ok := os.LookupEnv("DEBUG_ADDR"); ok {
		cfg.DebugAddr = addr
	}
	if path, ok := os.LookupEnv("EVENT_LOG_PATH"); ok {
		cfg.EventLogPath = path
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}
	if rps := getEnvFloat("API_RATE", 0); rps > 0 {
		cfg.RequestsPerSec = rps
	}
	if b := getEnvInt("API_BURST", 0); b > 0 {
		cfg.Burst = b
	}
	if fps := getEnvFloat("API_FIRE_RATE", 0); fps > 0 {
		cfg.FiresPerSec = fps
	}
	if b := getEnvInt("API_FIRE_BURST", 0); b > 0 {
		cfg.FireBurst = b
	}
	cfg.TrustProxy = os.Getenv("TRUST_PROXY") == "true"
	cfg.AdminSecret = os.Getenv("ADMIN_JWT_SECRET")

	return cfg
}

// =============================================================================
// RENDER CONFIGURATION
// =============================================================================

// RenderConfig holds frame renderer settings.
type RenderConfig struct {
	Width    int    // 0 renders at world size
	Height   int
	FontPath string // Empty searches common system fonts
}

// RenderFromEnv returns render configuration from the environment.
func RenderFromEnv() RenderConfig {
	return RenderConfig{
		Width:    getEnvInt("FRAME_WIDTH", 0),
		Height:   getEnvInt("FRAME_HEIGHT", 0),
		FontPath: os.Getenv("FONT_PATH"),
	}
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Sim    SimConfig
	Audio  AudioConfig
	Server ServerConfig
	Render RenderConfig
	Limits ResourceLimits
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Sim:    SimFromEnv(),
		Audio:  AudioFromEnv(),
		Server: ServerFromEnv(),
		Render: RenderFromEnv(),
		Limits: DefaultLimits(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
