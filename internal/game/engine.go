package game

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"arcade-defense/internal/game/spatial"

	"github.com/google/uuid"
)

// ErrCommandQueueFull is returned when player input arrives faster than the
// engine can drain it.
var ErrCommandQueueFull = errors.New("command queue full")

const commandQueueSize = 256

// EngineConfig holds engine construction parameters
type EngineConfig struct {
	TickRate       int
	WorldWidth     float64
	WorldHeight    float64
	StallThreshold time.Duration
	Seed           int64 // 0 seeds from the clock
	Limits         ResourceLimits
	Audio          AudioSink
	LeaderboardCap int
}

// CommandKind identifies a queued player command.
type CommandKind uint8

const (
	CommandFire CommandKind = iota + 1
)

// Command is player input applied at the next tick boundary.
type Command struct {
	Kind   CommandKind
	X, Y   float64
	Source string // Client identity, used by the event log limiter
}

// TickStats describes one engine frame for metrics.
type TickStats struct {
	Duration     time.Duration
	Ticked       bool
	Skipped      bool
	State        State
	Level        int
	Score        int64
	Combo        int
	Shield       float64
	Enemies      int
	Interceptors int
	Explosions   int
	Kills        int
	BuildingsHit int
	Rejected     int
}

// Engine hosts a Session: it drives frames from a ticker, serializes access
// and publishes snapshots for readers.
type Engine struct {
	mu        sync.RWMutex
	session   *Session
	scheduler *Scheduler
	commands  *spatial.CommandQueue[Command]
	cmdBuf    []Command

	tickRate int
	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}
	started  time.Time

	tickCount uint64
	runID     string

	limits       ResourceLimits
	snapshotPool *SnapshotPool
	eventLog     *EventLog
	leaderboard  *Leaderboard

	// Stats
	totalKills  uint64
	totalRuns   uint64
	rejectedCmd uint64

	// Event callbacks
	onLevelComplete func(stats LevelStats, score int64)
	onGameOver      func(run RunRecord)
	onTick          func(TickStats)
}

// NewEngine creates an engine with a session in MENU.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.TickRate <= 0 {
		cfg.TickRate = 60
	}
	if cfg.Limits == (ResourceLimits{}) {
		cfg.Limits = DefaultLimits
	}
	if cfg.Seed == 0 {
		cfg.Seed = timeSeed()
	}
	if cfg.LeaderboardCap <= 0 {
		cfg.LeaderboardCap = 100
	}

	e := &Engine{
		scheduler:    NewScheduler(cfg.StallThreshold),
		commands:     spatial.NewCommandQueue[Command](commandQueueSize),
		cmdBuf:       make([]Command, commandQueueSize),
		tickRate:     cfg.TickRate,
		stopChan:     make(chan struct{}),
		started:      time.Now(),
		limits:       cfg.Limits,
		snapshotPool: NewSnapshotPool(cfg.Limits),
		eventLog:     NewEventLog(),
		leaderboard:  NewLeaderboard(cfg.LeaderboardCap),
	}
	e.session = NewSession(SessionOptions{
		Width:  cfg.WorldWidth,
		Height: cfg.WorldHeight,
		Random: NewSeededRandom(cfg.Seed),
		Audio:  cfg.Audio,
	})
	e.session.SetHooks(e.sessionHooks())
	e.produceSnapshot()
	return e
}

// sessionHooks adapts session callbacks: the leaderboard is updated inline,
// external callbacks run in their own goroutines.
func (e *Engine) sessionHooks() Hooks {
	return Hooks{
		OnLevelComplete: func(stats LevelStats, score int64) {
			if cb := e.onLevelComplete; cb != nil {
				go cb(stats, score)
			}
		},
		OnGameOver: func(score int64, level int) {
			run := RunRecord{
				RunID:      e.runID,
				Score:      score,
				Level:      level,
				Difficulty: e.session.Difficulty().String(),
				EndedAt:    time.Now(),
			}
			e.leaderboard.Record(run)
			if cb := e.onGameOver; cb != nil {
				go cb(run)
			}
		},
	}
}

// SetCallbacks sets collaborator callbacks. Either may be nil.
func (e *Engine) SetCallbacks(onLevelComplete func(LevelStats, int64), onGameOver func(RunRecord)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onLevelComplete = onLevelComplete
	e.onGameOver = onGameOver
}

// SetTickObserver registers a function called after every frame, under the
// engine lock. It must not call back into the engine.
func (e *Engine) SetTickObserver(fn func(TickStats)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onTick = fn
}

// SetAudio replaces the session's audio sink.
func (e *Engine) SetAudio(a AudioSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.SetAudio(a)
}

// Start begins the frame loop
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	e.ticker = time.NewTicker(time.Second / time.Duration(e.tickRate))

	go func() {
		for {
			select {
			case <-e.ticker.C:
				e.Frame(time.Since(e.started))
			case <-e.stopChan:
				return
			}
		}
	}()

	log.Printf("🎮 Game engine started at %d FPS", e.tickRate)
}

// Stop stops the frame loop
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}

	e.running = false
	if e.ticker != nil {
		e.ticker.Stop()
	}
	close(e.stopChan)
	log.Println("🛑 Game engine stopped")
}

// Frame runs one host frame at monotonic time now: queued commands are
// applied, then the session ticks if the scheduler allows it.
func (e *Engine) Frame(now time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	begin := time.Now()
	e.tickCount++
	rejected := e.drainCommands()

	var ticked, skipped bool
	switch e.session.State() {
	case StatePlaying:
		dt, ok := e.scheduler.Frame(now)
		if ok {
			e.session.Tick(dt)
		}
		ticked, skipped = ok, !ok
	case StateGameOver:
		if dt, ok := e.scheduler.Frame(now); ok {
			e.session.AdvanceGameOver(dt)
		}
	default:
		// Nothing ticks outside PLAYING; the next resume primes a fresh baseline.
		e.scheduler.Reset()
	}

	kills, lost := e.flushEvents()
	e.produceSnapshot()

	if e.onTick != nil {
		reg := e.session.Registry()
		e.onTick(TickStats{
			Duration:     time.Since(begin),
			Ticked:       ticked,
			Skipped:      skipped,
			State:        e.session.State(),
			Level:        e.session.Level(),
			Score:        e.session.Score(),
			Combo:        e.session.Combo().Multiplier,
			Shield:       e.session.Shield().Energy,
			Enemies:      reg.EnemyCount(),
			Interceptors: reg.InterceptorCount(),
			Explosions:   reg.ExplosionCount(),
			Kills:        kills,
			BuildingsHit: lost,
			Rejected:     rejected,
		})
	}
}

// drainCommands applies queued input. Returns how many were rejected.
func (e *Engine) drainCommands() int {
	rejected := 0
	n := e.commands.DrainTo(e.cmdBuf)
	for _, cmd := range e.cmdBuf[:n] {
		switch cmd.Kind {
		case CommandFire:
			if err := e.session.Fire(cmd.X, cmd.Y); err != nil {
				rejected++
				continue
			}
			for _, ev := range e.session.TakeEvents() {
				e.eventLog.Emit(NewEvent(ev.Type, e.tickCount, e.runID, cmd.Source, PayloadFor(ev)))
			}
		}
	}
	e.rejectedCmd += uint64(rejected)
	return rejected
}

// discardCommands drops queued input aimed at a session that no longer
// exists. Dropped commands count as rejected.
func (e *Engine) discardCommands() int {
	dropped := 0
	for {
		n := e.commands.DrainTo(e.cmdBuf)
		if n == 0 {
			break
		}
		clear(e.cmdBuf[:n])
		dropped += n
	}
	e.rejectedCmd += uint64(dropped)
	return dropped
}

// flushEvents moves session events to the event log.
func (e *Engine) flushEvents() (kills, buildingsLost int) {
	for _, ev := range e.session.TakeEvents() {
		switch ev.Type {
		case EventTypeKill:
			kills++
		case EventTypeBuildingLost:
			buildingsLost++
		}
		e.eventLog.EmitGame(ev, e.tickCount, e.runID)
	}
	e.totalKills += uint64(kills)
	return kills, buildingsLost
}

func (e *Engine) produceSnapshot() {
	snap := e.snapshotPool.AcquireWrite()
	snap.TickNumber = e.tickCount
	snap.RunID = e.runID
	e.session.FillSnapshot(snap, e.limits)
	e.snapshotPool.PublishWrite()
}

// Enqueue queues player input for the next frame. Safe from any goroutine.
func (e *Engine) Enqueue(cmd Command) error {
	if !e.commands.TryPush(cmd) {
		return ErrCommandQueueFull
	}
	return nil
}

// Fire queues an interceptor launch toward (x, y).
func (e *Engine) Fire(x, y float64, source string) error {
	return e.Enqueue(Command{Kind: CommandFire, X: x, Y: y, Source: source})
}

// StartRun begins a new run and returns its ID.
func (e *Engine) StartRun(d Difficulty, u Upgrades) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.session.Start(d, u); err != nil {
		return "", err
	}
	e.discardCommands()
	e.runID = uuid.NewString()
	e.totalRuns++
	e.scheduler.Reset()
	e.eventLog.Emit(NewEvent(EventTypeRunStart, e.tickCount, e.runID, SourceSim,
		RunPayload{Difficulty: d.String(), Upgrades: e.session.Upgrades()}))
	e.session.TakeEvents()
	e.produceSnapshot()
	return e.runID, nil
}

// Pause suspends the current level.
func (e *Engine) Pause() error {
	return e.transition((*Session).Pause)
}

// Resume continues a paused level.
func (e *Engine) Resume() error {
	return e.transition((*Session).Resume)
}

// ReturnToMenu ends the run. Input still queued for it is dropped.
func (e *Engine) ReturnToMenu() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.session.ReturnToMenu(); err != nil {
		return err
	}
	e.discardCommands()
	e.runID = ""
	e.scheduler.Reset()
	e.produceSnapshot()
	return nil
}

// NextLevel advances from LEVEL_COMPLETE with the economy's upgrades.
func (e *Engine) NextLevel(u Upgrades) error {
	return e.transition(func(s *Session) error { return s.NextLevel(u) })
}

func (e *Engine) transition(fn func(*Session) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := fn(e.session); err != nil {
		return err
	}
	e.scheduler.Reset()
	e.produceSnapshot()
	return nil
}

// Save encodes the session.
func (e *Engine) Save() ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.session.Save()
}

// Restore replaces the session with a saved one under a new run ID.
func (e *Engine) Restore(data []byte) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.session.Restore(data); err != nil {
		return "", err
	}
	e.discardCommands()
	e.runID = ""
	if st := e.session.State(); st != StateMenu {
		e.runID = uuid.NewString()
	}
	e.scheduler.Reset()
	e.produceSnapshot()
	log.Printf("💾 Session restored: state=%s level=%d", e.session.State(), e.session.Level())
	return e.runID, nil
}

// GetSnapshot returns a copy of the latest published snapshot.
func (e *Engine) GetSnapshot() *GameSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshotPool.AcquireRead().Clone()
}

// GetLeaderboard returns the top n finished runs.
func (e *Engine) GetLeaderboard(n int) []LeaderboardEntry {
	return e.leaderboard.Top(n)
}

// GetStats returns engine counters for the stats endpoint.
func (e *Engine) GetStats() map[string]interface{} {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return map[string]interface{}{
		"tick":             e.tickCount,
		"runId":            e.runID,
		"state":            e.session.State().String(),
		"level":            e.session.Level(),
		"score":            e.session.Score(),
		"highScore":        e.session.HighScore(),
		"totalKills":       e.totalKills,
		"totalRuns":        e.totalRuns,
		"skippedFrames":    e.scheduler.Skipped,
		"queuedCommands":   e.commands.Len(),
		"rejectedCommands": e.rejectedCmd,
		"leaderboardSize":  e.leaderboard.Length(),
		"eventLog":         e.eventLog.GetStats(),
	}
}

// StartEventLog starts writing the NDJSON event log to filePath.
func (e *Engine) StartEventLog(filePath string) error {
	if err := e.eventLog.Start(filePath); err != nil {
		return fmt.Errorf("start event log: %w", err)
	}
	return nil
}

// StopEventLog flushes and closes the event log.
func (e *Engine) StopEventLog() {
	e.eventLog.Stop()
}

// GetLimits returns the current resource limits
func (e *Engine) GetLimits() ResourceLimits {
	return e.limits
}
