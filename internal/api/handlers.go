package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"arcade-defense/internal/game"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
	maxSaveBytes            = 1 << 20
)

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.GetSnapshot())
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.GetStats())
}

func (h *routerHandlers) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxLeaderboardLimit)
	}

	entries := h.engine.GetLeaderboard(limit)
	if entries == nil {
		entries = []game.LeaderboardEntry{}
	}
	writeJSON(w, entries)
}

func (h *routerHandlers) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		writeError(w, "Rendering disabled", http.StatusServiceUnavailable)
		return
	}

	start := time.Now()
	var buf bytes.Buffer
	if err := h.renderer.RenderPNG(&buf, h.engine.GetSnapshot()); err != nil {
		log.Printf("❌ Frame render failed: %v", err)
		writeError(w, "Render failed", http.StatusInternalServerError)
		return
	}
	RecordRender(time.Since(start))

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

type startRequest struct {
	Difficulty string        `json:"difficulty"`
	Upgrades   game.Upgrades `json:"upgrades"`
}

type upgradesRequest struct {
	Upgrades game.Upgrades `json:"upgrades"`
}

func (h *routerHandlers) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	difficulty := h.difficulty
	if req.Difficulty != "" {
		difficulty = game.ParseDifficulty(req.Difficulty)
	}

	runID, err := h.engine.StartRun(difficulty, req.Upgrades)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	log.Printf("🎮 Run %s started (%s)", runID, difficulty)
	writeJSON(w, map[string]string{"runId": runID, "difficulty": difficulty.String()})
}

func (h *routerHandlers) handleSessionPause(w http.ResponseWriter, r *http.Request) {
	h.transition(w, h.engine.Pause)
}

func (h *routerHandlers) handleSessionResume(w http.ResponseWriter, r *http.Request) {
	h.transition(w, h.engine.Resume)
}

func (h *routerHandlers) handleSessionMenu(w http.ResponseWriter, r *http.Request) {
	h.transition(w, h.engine.ReturnToMenu)
}

func (h *routerHandlers) handleSessionNext(w http.ResponseWriter, r *http.Request) {
	var req upgradesRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	h.transition(w, func() error { return h.engine.NextLevel(req.Upgrades) })
}

func (h *routerHandlers) transition(w http.ResponseWriter, fn func() error) {
	if err := fn(); err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, map[string]string{"state": h.engine.GetSnapshot().State})
}

func (h *routerHandlers) handleFire(w http.ResponseWriter, r *http.Request) {
	var req struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.X == nil || req.Y == nil || !finite(*req.X) || !finite(*req.Y) {
		writeError(w, "x and y are required", http.StatusBadRequest)
		return
	}

	ip := GetClientIP(r)
	if !h.limiter.AllowFire(ip) {
		w.Header().Set("Retry-After", "1")
		writeError(w, "Fire rate exceeded", http.StatusTooManyRequests)
		return
	}
	if err := h.engine.Fire(*req.X, *req.Y, ip); err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]bool{"queued": true})
}

func (h *routerHandlers) handleSave(w http.ResponseWriter, r *http.Request) {
	data, err := h.engine.Save()
	if err != nil {
		log.Printf("❌ Save failed: %v", err)
		writeError(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "application/msgpack")
	w.Header().Set("Content-Disposition", `attachment; filename="session.msgpack"`)
	w.Write(data)
}

func (h *routerHandlers) handleRestore(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSaveBytes))
	if err != nil {
		writeError(w, "Save too large", http.StatusRequestEntityTooLarge)
		return
	}
	if len(data) == 0 {
		writeError(w, "Empty save", http.StatusBadRequest)
		return
	}

	runID, err := h.engine.Restore(data)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]string{"runId": runID, "state": h.engine.GetSnapshot().State})
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrInvalidTransition),
		errors.Is(err, game.ErrGameOverRunning),
		errors.Is(err, game.ErrNotPlaying):
		return http.StatusConflict
	case errors.Is(err, game.ErrFireCooldown),
		errors.Is(err, game.ErrInterceptorLimit),
		errors.Is(err, game.ErrCommandQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, game.ErrUnsaveableRandom):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// decodeOptional decodes a JSON body into v. An empty body leaves v as is.
func decodeOptional(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
