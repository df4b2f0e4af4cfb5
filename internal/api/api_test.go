package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"arcade-defense/internal/api"
	"arcade-defense/internal/game"
	"arcade-defense/internal/render"

	"github.com/gorilla/websocket"
)

// ============================================================================
// Mock Implementations
// ============================================================================

type fireCall struct {
	x, y   float64
	source string
}

// MockEngine implements api.EngineInterface for testing
type MockEngine struct {
	mu sync.Mutex

	state      string
	difficulty game.Difficulty
	upgrades   game.Upgrades
	fires      []fireCall
	leaderN    int
	restored   []byte

	pauseErr error
	fireErr  error
}

func NewMockEngine() *MockEngine {
	return &MockEngine{state: "MENU"}
}

func (m *MockEngine) GetSnapshot() *game.GameSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &game.GameSnapshot{
		State:  m.state,
		Level:  1,
		Width:  game.DefaultWorldWidth,
		Height: game.DefaultWorldHeight,
	}
}

func (m *MockEngine) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"tick":     uint64(42),
		"eventLog": map[string]interface{}{"total": uint64(7), "dropped": uint64(1)},
	}
}

func (m *MockEngine) GetLeaderboard(n int) []game.LeaderboardEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaderN = n
	return []game.LeaderboardEntry{
		{RunRecord: game.RunRecord{RunID: "a", Score: 900}, Rank: 1},
		{RunRecord: game.RunRecord{RunID: "b", Score: 100}, Rank: 2},
	}
}

func (m *MockEngine) StartRun(d game.Difficulty, u game.Upgrades) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != "MENU" {
		return "", game.ErrInvalidTransition
	}
	m.state, m.difficulty, m.upgrades = "PLAYING", d, u
	return "run-1", nil
}

func (m *MockEngine) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pauseErr != nil {
		return m.pauseErr
	}
	m.state = "PAUSED"
	return nil
}

func (m *MockEngine) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = "PLAYING"
	return nil
}

func (m *MockEngine) NextLevel(u game.Upgrades) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upgrades = u
	return nil
}

func (m *MockEngine) ReturnToMenu() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = "MENU"
	return nil
}

func (m *MockEngine) Fire(x, y float64, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fireErr != nil {
		return m.fireErr
	}
	m.fires = append(m.fires, fireCall{x, y, source})
	return nil
}

func (m *MockEngine) Save() ([]byte, error) {
	return []byte{0x81, 0xa1, 0x76, 0x01}, nil
}

func (m *MockEngine) Restore(data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restored = append([]byte(nil), data...)
	m.state = "PAUSED"
	return "run-2", nil
}

func (m *MockEngine) lastStart() (game.Difficulty, game.Upgrades) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.difficulty, m.upgrades
}

func (m *MockEngine) lastLimit() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.leaderN
}

func (m *MockEngine) lastRestore() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.restored
}

func (m *MockEngine) failFire(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fireErr = err
}

func (m *MockEngine) fireCalls() []fireCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]fireCall(nil), m.fires...)
}

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestServer(t *testing.T, cfg api.RouterConfig) *httptest.Server {
	t.Helper()
	cfg.DisableLogging = true
	if cfg.RateLimitConfig == nil && cfg.RateLimiter == nil {
		cfg.RateLimitConfig = &api.RateLimitConfig{
			RequestsPerSecond: 1000,
			Burst:             1000,
			CleanupInterval:   time.Hour,
		}
	}
	ts := httptest.NewServer(api.NewRouter(cfg))
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	return resp
}

// ============================================================================
// Router Tests
// ============================================================================

func TestNewRouterHasNoSideEffects(t *testing.T) {
	router := api.NewRouter(api.RouterConfig{
		Engine: NewMockEngine(),
		RateLimitConfig: &api.RateLimitConfig{
			RequestsPerSecond: 1000,
			Burst:             1000,
			CleanupInterval:   time.Hour,
		},
	})
	if router == nil {
		t.Fatal("Router should not be nil")
	}
}

func TestAPIGetState(t *testing.T) {
	ts := newTestServer(t, api.RouterConfig{Engine: NewMockEngine()})

	resp, err := http.Get(ts.URL + "/api/state")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var snap game.GameSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if snap.State != "MENU" || snap.Width != game.DefaultWorldWidth {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestAPISessionLifecycle(t *testing.T) {
	engine := NewMockEngine()
	ts := newTestServer(t, api.RouterConfig{Engine: engine, DefaultDifficulty: game.Easy})

	resp := post(t, ts.URL+"/api/session/start", `{"difficulty":"hard","upgrades":{"speed":2,"turret":1}}`)
	var started map[string]string
	json.NewDecoder(resp.Body).Decode(&started)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || started["runId"] != "run-1" || started["difficulty"] != "hard" {
		t.Fatalf("start: %d %v", resp.StatusCode, started)
	}
	if d, u := engine.lastStart(); d != game.Hard || u.Speed != 2 || u.Turret != 1 {
		t.Errorf("engine got %v %+v", d, u)
	}

	// A second start conflicts.
	resp = post(t, ts.URL+"/api/session/start", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second start: expected 409, got %d", resp.StatusCode)
	}

	tests := []struct {
		path      string
		wantState string
	}{
		{"/api/session/pause", "PAUSED"},
		{"/api/session/resume", "PLAYING"},
		{"/api/session/menu", "MENU"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := post(t, ts.URL+tt.path, "")
			defer resp.Body.Close()
			var got map[string]string
			json.NewDecoder(resp.Body).Decode(&got)
			if resp.StatusCode != http.StatusOK || got["state"] != tt.wantState {
				t.Errorf("%s: %d %v", tt.path, resp.StatusCode, got)
			}
		})
	}

	// Empty body uses the configured difficulty.
	resp = post(t, ts.URL+"/api/session/start", "")
	resp.Body.Close()
	if d, _ := engine.lastStart(); resp.StatusCode != http.StatusOK || d != game.Easy {
		t.Errorf("default start: %d %v", resp.StatusCode, d)
	}

	resp = post(t, ts.URL+"/api/session/next", `{"upgrades":{"shield":3}}`)
	resp.Body.Close()
	if _, u := engine.lastStart(); resp.StatusCode != http.StatusOK || u.Shield != 3 {
		t.Errorf("next: %d %+v", resp.StatusCode, u)
	}
}

func TestAPIErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid transition", game.ErrInvalidTransition, http.StatusConflict},
		{"game over running", game.ErrGameOverRunning, http.StatusConflict},
		{"not playing", game.ErrNotPlaying, http.StatusConflict},
		{"cooldown", game.ErrFireCooldown, http.StatusTooManyRequests},
		{"unknown", context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewMockEngine()
			engine.pauseErr = tt.err
			ts := newTestServer(t, api.RouterConfig{Engine: engine})

			resp := post(t, ts.URL+"/api/session/pause", "")
			defer resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

func TestAPIFire(t *testing.T) {
	engine := NewMockEngine()
	ts := newTestServer(t, api.RouterConfig{Engine: engine})

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid", `{"x": 120.5, "y": 80}`, http.StatusAccepted},
		{"missing y", `{"x": 1}`, http.StatusBadRequest},
		{"invalid json", `{x}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+"/api/fire", tt.body)
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}
		})
	}

	calls := engine.fireCalls()
	if len(calls) != 1 || calls[0].x != 120.5 || calls[0].y != 80 || calls[0].source != "127.0.0.1" {
		t.Errorf("fire calls = %+v", calls)
	}

	engine.failFire(game.ErrCommandQueueFull)
	resp := post(t, ts.URL+"/api/fire", `{"x": 1, "y": 1}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("queue full: expected 429, got %d", resp.StatusCode)
	}
}

func TestAPILeaderboard(t *testing.T) {
	engine := NewMockEngine()
	ts := newTestServer(t, api.RouterConfig{Engine: engine})

	resp, err := http.Get(ts.URL + "/api/leaderboard?limit=500")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	var entries []game.LeaderboardEntry
	json.NewDecoder(resp.Body).Decode(&entries)
	resp.Body.Close()

	if len(entries) != 2 || entries[0].RunID != "a" || entries[0].Rank != 1 {
		t.Errorf("entries = %+v", entries)
	}
	if n := engine.lastLimit(); n != 100 {
		t.Errorf("limit passed = %d, want clamp to 100", n)
	}

	resp, err = http.Get(ts.URL + "/api/leaderboard?limit=abc")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad limit: expected 400, got %d", resp.StatusCode)
	}
}

func TestAPIFrame(t *testing.T) {
	engine := NewMockEngine()

	ts := newTestServer(t, api.RouterConfig{Engine: engine})
	resp, err := http.Get(ts.URL + "/api/frame.png")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("no renderer: expected 503, got %d", resp.StatusCode)
	}

	ts = newTestServer(t, api.RouterConfig{
		Engine:   engine,
		Renderer: render.NewRenderer(render.Config{Width: 320, Height: 240, FontPath: "/nonexistent.ttf"}),
	})
	resp, err = http.Get(ts.URL + "/api/frame.png")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("Content-Type = %q", ct)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 240 {
		t.Errorf("frame = %v", b)
	}
}

// ============================================================================
// Admin Auth Tests
// ============================================================================

func TestAdminAuthRejectsWeakSecret(t *testing.T) {
	if _, err := api.NewAdminAuth("short"); err != api.ErrWeakSecret {
		t.Errorf("err = %v, want ErrWeakSecret", err)
	}
}

func TestAPISaveRestoreAuth(t *testing.T) {
	auth, err := api.NewAdminAuth(testSecret)
	if err != nil {
		t.Fatal(err)
	}
	adminToken, _ := auth.IssueToken("ops", api.RoleAdmin, time.Hour)
	viewerToken, _ := auth.IssueToken("viewer", "viewer", time.Hour)
	expiredToken, _ := auth.IssueToken("ops", api.RoleAdmin, -time.Minute)

	other, _ := api.NewAdminAuth(strings.Repeat("x", 40))
	forgedToken, _ := other.IssueToken("ops", api.RoleAdmin, time.Hour)

	engine := NewMockEngine()
	ts := newTestServer(t, api.RouterConfig{Engine: engine, Admin: auth})

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"garbage", "not-a-jwt", http.StatusUnauthorized},
		{"expired", expiredToken, http.StatusUnauthorized},
		{"wrong key", forgedToken, http.StatusUnauthorized},
		{"wrong role", viewerToken, http.StatusForbidden},
		{"admin", adminToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/save", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}

	body := []byte{0x81, 0xa1, 0x76, 0x02}
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/restore", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]string
	json.NewDecoder(resp.Body).Decode(&got)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || got["runId"] != "run-2" || got["state"] != "PAUSED" {
		t.Errorf("restore: %d %v", resp.StatusCode, got)
	}
	if got := engine.lastRestore(); !bytes.Equal(got, body) {
		t.Errorf("engine restored %x", got)
	}

	req, _ = http.NewRequest(http.MethodPost, ts.URL+"/api/restore", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty restore: expected 400, got %d", resp.StatusCode)
	}
}

func TestAPISaveOpenWithoutAuth(t *testing.T) {
	ts := newTestServer(t, api.RouterConfig{Engine: NewMockEngine()})
	resp, err := http.Get(ts.URL + "/api/save")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "application/msgpack" {
		t.Errorf("save: %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
}

// ============================================================================
// Rate Limiting Tests
// ============================================================================

func TestAPIRateLimit(t *testing.T) {
	ts := newTestServer(t, api.RouterConfig{
		Engine: NewMockEngine(),
		RateLimitConfig: &api.RateLimitConfig{
			RequestsPerSecond: 0.001,
			Burst:             2,
			CleanupInterval:   time.Hour,
		},
	})

	var codes []int
	for i := 0; i < 3; i++ {
		resp, err := http.Get(ts.URL + "/api/stats")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}

func TestAPIFireBudget(t *testing.T) {
	engine := NewMockEngine()
	ts := newTestServer(t, api.RouterConfig{
		Engine: engine,
		RateLimitConfig: &api.RateLimitConfig{
			RequestsPerSecond: 1000,
			Burst:             1000,
			FiresPerSecond:    0.001,
			FireBurst:         2,
		},
	})

	var codes []int
	for i := 0; i < 3; i++ {
		resp := post(t, ts.URL+"/api/fire", `{"x": 5, "y": 5}`)
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	if codes[0] != http.StatusAccepted || codes[1] != http.StatusAccepted || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
	if n := len(engine.fireCalls()); n != 2 {
		t.Errorf("engine saw %d fires, want 2", n)
	}

	// Reads are not charged against the fire budget
	resp, err := http.Get(ts.URL + "/api/state")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("state after fire budget: %d", resp.StatusCode)
	}
}

func TestTrustProxy(t *testing.T) {
	for _, trust := range []bool{false, true} {
		engine := NewMockEngine()
		ts := newTestServer(t, api.RouterConfig{Engine: engine, TrustProxy: trust})

		req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/fire", strings.NewReader(`{"x": 1, "y": 1}`))
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()

		want := "127.0.0.1"
		if trust {
			want = "203.0.113.7"
		}
		calls := engine.fireCalls()
		if len(calls) != 1 || calls[0].source != want {
			t.Errorf("trust=%v: fire calls = %+v, want source %s", trust, calls, want)
		}
	}
}

func TestClientLimiterSweep(t *testing.T) {
	l := api.NewClientLimiter(1, 1)
	l.Allow("a")
	l.Allow("b")
	if l.Len() != 2 {
		t.Fatalf("Len = %d", l.Len())
	}
	if n := l.Sweep(time.Now().Add(-time.Hour)); n != 0 {
		t.Errorf("swept %d fresh clients", n)
	}
	if n := l.Sweep(time.Now().Add(time.Second)); n != 2 || l.Len() != 0 {
		t.Errorf("swept %d, %d left", n, l.Len())
	}
}

func TestConnLimiter(t *testing.T) {
	c := api.NewConnLimiter(2)
	if !c.Acquire("a") || !c.Acquire("a") {
		t.Fatal("first two connections rejected")
	}
	if c.Acquire("a") {
		t.Error("third connection allowed")
	}
	if !c.Acquire("b") {
		t.Error("other IP rejected")
	}
	c.Release("a")
	if c.Count("a") != 1 || !c.Acquire("a") {
		t.Error("slot not freed")
	}
	c.Release("b")
	if c.Count("b") != 0 {
		t.Errorf("Count(b) = %d", c.Count("b"))
	}
}

func TestOriginPolicy(t *testing.T) {
	p := api.NewOriginPolicy([]string{"https://game.example", "http://localhost:*"})

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"https://game.example", true},
		{"http://localhost:5173", true},
		{"https://game.example.evil", false},
		{"https://evil.example", false},
	}
	for _, tt := range tests {
		if got := p.Allowed(tt.origin); got != tt.want {
			t.Errorf("Allowed(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

// ============================================================================
// WebSocket Tests
// ============================================================================

func TestWebSocketStateAndFire(t *testing.T) {
	engine := NewMockEngine()
	srv := api.NewServer(engine, api.ServerOptions{
		DisableLogging: true,
		RateLimit:      api.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
	})
	go srv.Hub().Run()
	srv.Hub().StartBroadcastLoop()
	defer srv.Shutdown(context.Background())

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]interface{}{"type": "fire", "x": 10, "y": 20}); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Event string            `json:"event"`
		Data  game.GameSnapshot `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Event != "game:state" || msg.Data.State != "MENU" {
		t.Errorf("message = %s %s", msg.Event, msg.Data.State)
	}

	deadline := time.Now().Add(time.Second)
	for len(engine.fireCalls()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	calls := engine.fireCalls()
	if len(calls) != 1 || calls[0].x != 10 || calls[0].y != 20 {
		t.Errorf("fire calls = %+v", calls)
	}
}

func TestWebSocketRejectsOrigin(t *testing.T) {
	srv := api.NewServer(NewMockEngine(), api.ServerOptions{
		DisableLogging: true,
		AllowedOrigins: []string{"https://game.example"},
	})
	go srv.Hub().Run()
	defer srv.Shutdown(context.Background())

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", header)
	if err == nil {
		t.Fatal("dial succeeded from a rejected origin")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v", resp)
	}
}

// ============================================================================
// Debug Server Tests
// ============================================================================

func TestDebugHandler(t *testing.T) {
	ts := httptest.NewServer(api.NewDebugHandler(api.ObservabilityConfig{Enabled: true}))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health: %d", resp.StatusCode)
	}

	api.ObserveTick(game.TickStats{Ticked: true, Enemies: 3, Kills: 2})
	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	resp.Body.Close()
	if !strings.Contains(buf.String(), `game_entity_count{kind="enemy"} 3`) {
		t.Error("metrics missing enemy gauge")
	}

	locked := httptest.NewServer(api.NewDebugHandler(api.ObservabilityConfig{BasicAuthUser: "ops", BasicAuthPass: "pw"}))
	defer locked.Close()
	resp, err = http.Get(locked.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("locked health: %d", resp.StatusCode)
	}
}
