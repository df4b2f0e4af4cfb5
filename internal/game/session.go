package game

import (
	"fmt"
	"log"
	"math"

	"arcade-defense/internal/game/spatial"
)

// Audio cue names passed to AudioSink.
const (
	CueWarning        = "warning"
	CueShoot          = "shoot"
	CueTurretShoot    = "turret-shoot"
	CueExplosionLight = "explosion-light"
	CueExplosionHeavy = "explosion-heavy"
	CueShieldHit      = "shield-hit"
	CueNuke           = "nuke"
)

// AudioSink receives symbolic cues. Implementations must not block.
type AudioSink interface {
	Cue(name string, intensity float64)
}

// NopAudio discards cues.
type NopAudio struct{}

func (NopAudio) Cue(string, float64) {}

// LevelStats is handed to the economy when a level completes.
type LevelStats struct {
	Level            int `json:"level" msgpack:"level"`
	BuildingsLost    int `json:"buildingsLost" msgpack:"buildings_lost"`
	EnemiesDestroyed int `json:"enemiesDestroyed" msgpack:"enemies_destroyed"`
}

// Hooks are collaborator callbacks. They are invoked from inside Tick and
// must return quickly; the engine wraps them in goroutines.
type Hooks struct {
	OnLevelComplete func(stats LevelStats, score int64)
	OnGameOver      func(finalScore int64, level int)
}

// Layout
const (
	BuildingCount      = 6
	BuildingWidth      = 56.0
	BuildingHeight     = 36.0
	DefenseLineOffset  = 60.0 // Defense line sits this far above the bottom edge
	interceptorCeiling = 10.0 // Minimum distance of a fire target above the defense line
	DefaultWorldWidth  = 800.0
	DefaultWorldHeight = 600.0
	explosionCellSize  = 64.0
	expectedExplosions = 64
)

// Three buildings either side of the central launcher.
var buildingSlots = [BuildingCount]float64{0.1, 0.22, 0.34, 0.66, 0.78, 0.9}

// SessionOptions configures a Session.
type SessionOptions struct {
	Width, Height float64
	Random        Random    // Defaults to a time-seeded SeededRandom
	Audio         AudioSink // Defaults to NopAudio
	Hooks         Hooks
}

// Session is the whole simulation state of one player's game. It is not
// safe for concurrent use; the Engine serializes access.
type Session struct {
	width, height float64
	defenseLine   float64
	rng           Random
	audio         AudioSink
	hooks         Hooks

	state           State
	difficulty      Difficulty
	upgrades        Upgrades
	level           int
	elapsed         float64 // Seconds into the current level
	gameOverElapsed float64
	nextFire        float64
	nextTurret      float64

	reg       *Registry
	spawner   Spawner
	ledger    Ledger
	shield    ShieldState
	stats     LevelStats
	highScore int64

	events []GameEvent

	grid       *spatial.SpatialGrid
	blastIndex []*Explosion
}

// NewSession creates a session in MENU.
func NewSession(opts SessionOptions) *Session {
	if opts.Width <= 0 {
		opts.Width = DefaultWorldWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultWorldHeight
	}
	if opts.Random == nil {
		opts.Random = NewSeededRandom(timeSeed())
	}
	if opts.Audio == nil {
		opts.Audio = NopAudio{}
	}

	return &Session{
		width:       opts.Width,
		height:      opts.Height,
		defenseLine: opts.Height - DefenseLineOffset,
		rng:         opts.Random,
		audio:       opts.Audio,
		hooks:       opts.Hooks,
		state:       StateMenu,
		reg:         NewRegistry(),
		ledger:      NewLedger(Normal),
		grid:        newExplosionGrid(opts.Width, opts.Height),
		blastIndex:  make([]*Explosion, 0, expectedExplosions),
	}
}

func newExplosionGrid(width, height float64) *spatial.SpatialGrid {
	return spatial.NewSpatialGrid(width, height, explosionCellSize, expectedExplosions)
}

// Accessors

func (s *Session) State() State { return s.state }
func (s *Session) Level() int { return s.level }
func (s *Session) Elapsed() float64 { return s.elapsed }
func (s *Session) Score() int64 { return s.ledger.Score }
func (s *Session) HighScore() int64 { return s.highScore }
func (s *Session) Combo() ComboState { return s.ledger.Combo }
func (s *Session) Shield() ShieldState { return s.shield }
func (s *Session) Stats() LevelStats { return s.stats }
func (s *Session) Difficulty() Difficulty { return s.difficulty }
func (s *Session) Upgrades() Upgrades { return s.upgrades }
func (s *Session) Registry() *Registry { return s.reg }
func (s *Session) DefenseLine() float64 { return s.defenseLine }
func (s *Session) Size() (float64, float64) { return s.width, s.height }

// TimeLeft is the remaining level time in seconds.
func (s *Session) TimeLeft() float64 {
	return math.Max(0, LevelDuration-s.elapsed)
}

// Launcher is where interceptors, turret shots and the shield originate.
func (s *Session) Launcher() Vec2 {
	return Vec2{s.width / 2, s.defenseLine}
}

// SetAudio replaces the audio sink.
func (s *Session) SetAudio(a AudioSink) {
	if a == nil {
		a = NopAudio{}
	}
	s.audio = a
}

// SetHooks replaces the collaborator callbacks.
func (s *Session) SetHooks(h Hooks) { s.hooks = h }

// TakeEvents returns the events produced since the last call.
func (s *Session) TakeEvents() []GameEvent {
	ev := s.events
	s.events = nil
	return ev
}

func (s *Session) emit(ev GameEvent) {
	ev.Time = s.elapsed
	s.events = append(s.events, ev)
}

// Start begins a new run at level 1. MENU only.
func (s *Session) Start(d Difficulty, u Upgrades) error {
	if s.state != StateMenu {
		return transitionError(s.state, StatePlaying)
	}

	s.difficulty = d
	s.upgrades = u.Normalize()
	s.level = 1
	s.ledger = NewLedger(d)

	s.reg.Reset()
	s.reg.SetBuildings(s.layoutBuildings())
	s.beginLevel()

	s.state = StatePlaying
	s.emit(GameEvent{Type: EventTypeRunStart})
	log.Printf("🚀 Run started: difficulty=%s", d)
	return nil
}

func (s *Session) layoutBuildings() []*Building {
	bs := make([]*Building, 0, BuildingCount)
	for _, frac := range buildingSlots {
		bs = append(bs, &Building{
			X: frac*s.width - BuildingWidth/2,
			Y: s.defenseLine,
			W: BuildingWidth,
			H: BuildingHeight,
		})
	}
	return bs
}

// beginLevel resets everything that does not carry across levels.
func (s *Session) beginLevel() {
	s.reg.ClearTransient()
	s.elapsed = 0
	s.gameOverElapsed = 0
	s.nextFire = 0
	s.nextTurret = 0
	s.spawner.Reset()
	s.ledger.ResetCombo()
	s.shield.Refill(s.upgrades.ShieldMax())
	s.stats = LevelStats{Level: s.level}
}

// Pause suspends a level. PLAYING only.
func (s *Session) Pause() error {
	if s.state != StatePlaying {
		return transitionError(s.state, StatePaused)
	}
	s.state = StatePaused
	return nil
}

// Resume continues a paused level.
func (s *Session) Resume() error {
	if s.state != StatePaused {
		return transitionError(s.state, StatePlaying)
	}
	s.state = StatePlaying
	return nil
}

// NextLevel starts the following level with the economy's new upgrades.
// Buildings and score carry over.
func (s *Session) NextLevel(u Upgrades) error {
	if s.state != StateLevelComplete {
		return transitionError(s.state, StatePlaying)
	}
	s.upgrades = u.Normalize()
	s.level++
	s.beginLevel()
	s.state = StatePlaying
	log.Printf("➡️  Level %d", s.level)
	return nil
}

// ReturnToMenu discards the run. Allowed from PAUSED, LEVEL_COMPLETE and
// from GAME_OVER once the terminal sequence has finished.
func (s *Session) ReturnToMenu() error {
	switch s.state {
	case StatePaused, StateLevelComplete:
	case StateGameOver:
		if s.gameOverElapsed < GameOverDuration {
			return fmt.Errorf("return to menu: %w (%.1fs left)", ErrGameOverRunning, GameOverDuration-s.gameOverElapsed)
		}
	default:
		return transitionError(s.state, StateMenu)
	}

	s.reg.Reset()
	s.state = StateMenu
	s.level = 0
	s.elapsed = 0
	s.gameOverElapsed = 0
	s.nextFire = 0
	s.nextTurret = 0
	s.spawner = Spawner{}
	s.ledger = NewLedger(s.difficulty)
	s.stats = LevelStats{}
	s.shield = ShieldState{}
	return nil
}

// AdvanceGameOver runs the terminal sequence. It touches no gameplay
// entities. Returns true once the sequence has finished.
func (s *Session) AdvanceGameOver(dt float64) bool {
	if s.state != StateGameOver {
		return false
	}
	if dt > 0 {
		s.gameOverElapsed = math.Min(GameOverDuration, s.gameOverElapsed+dt)
	}
	return s.gameOverElapsed >= GameOverDuration
}

// GameOverProgress is the terminal sequence progress in [0, 1].
func (s *Session) GameOverProgress() float64 {
	return s.gameOverElapsed / GameOverDuration
}

// Fire launches a player interceptor toward (x, y).
func (s *Session) Fire(x, y float64) error {
	if s.state != StatePlaying {
		return fmt.Errorf("fire: %w (state %s)", ErrNotPlaying, s.state)
	}
	if s.elapsed < s.nextFire {
		return fmt.Errorf("fire: %w (%.2fs left)", ErrFireCooldown, s.nextFire-s.elapsed)
	}
	if s.reg.InterceptorCount() >= MaxInterceptors {
		return fmt.Errorf("fire: %w", ErrInterceptorLimit)
	}

	target := Vec2{
		X: clamp(x, 0, s.width),
		Y: clamp(y, 0, s.defenseLine-interceptorCeiling),
	}
	in := NewInterceptor(s.Launcher(), target, s.upgrades.InterceptorSpeed(), s.upgrades.BlastRadiusMax())
	s.reg.AddInterceptor(in)

	s.nextFire = s.elapsed + s.upgrades.FireCooldown()
	s.audio.Cue(CueShoot, 1)
	s.emit(GameEvent{Type: EventTypeFire, Pos: target})
	return nil
}

// Tick advances a PLAYING session by dt seconds.
//
// Order: spawn, move, turret, resolve, score, level check. A tick always
// runs to completion; GAME_OVER entered during resolution stops the
// remaining impacts of that pass.
func (s *Session) Tick(dt float64) {
	if s.state != StatePlaying || dt <= 0 {
		return
	}
	mark := len(s.events)

	s.elapsed += dt
	s.spawnStep()
	s.advance(dt)
	s.turretStep()
	s.resolve()
	s.reg.Compact()
	s.settle(mark)
	s.ledger.Decay(s.elapsed)

	switch {
	case s.state == StateGameOver:
		s.finishRun()
	case s.elapsed >= LevelDuration:
		s.completeLevel()
	}
}

func (s *Session) advance(dt float64) {
	// Explosions age first so anything created later this tick starts at radius 0.
	s.reg.EachExplosion(func(x *Explosion) bool {
		if !x.Update(dt) {
			s.reg.RemoveExplosion(x.ID)
		}
		return true
	})

	s.reg.EachEnemy(func(e *Enemy) bool {
		e.Advance(dt)
		return true
	})

	s.reg.EachInterceptor(func(in *Interceptor) bool {
		if in.Advance(dt) {
			s.reg.RemoveInterceptor(in.ID)
			s.reg.AddExplosion(NewExplosion(ExplosionBlast, in.Target, in.BlastRadius))
			s.audio.Cue(CueExplosionLight, 0.6)
		}
		return true
	})

	s.reg.EachProjectile(func(p *TurretProjectile) bool {
		p.Advance(dt)
		if p.OutOfBounds(s.width, s.height) {
			s.reg.RemoveProjectile(p.ID)
		}
		return true
	})
}

// settle feeds this tick's events to the ledger in emission order.
func (s *Session) settle(mark int) {
	for i := mark; i < len(s.events); i++ {
		ev := &s.events[i]
		switch ev.Type {
		case EventTypeKill:
			ev.Points = s.ledger.RecordKill(ev.Archetype, s.elapsed)
			ev.Combo = s.ledger.Combo.Multiplier
			s.stats.EnemiesDestroyed++
		case EventTypeBuildingLost:
			s.ledger.Break()
		}
	}
}

func (s *Session) completeLevel() {
	s.state = StateLevelComplete
	stats := s.stats
	score := s.ledger.Score
	s.emit(GameEvent{Type: EventTypeLevelComplete, Stats: stats, Score: score})
	log.Printf("🏁 Level %d complete: lost=%d destroyed=%d score=%d",
		stats.Level, stats.BuildingsLost, stats.EnemiesDestroyed, score)

	if s.hooks.OnLevelComplete != nil {
		s.hooks.OnLevelComplete(stats, score)
	}
}

// enterGameOver is called by the resolver the moment the last building falls.
func (s *Session) enterGameOver() {
	s.state = StateGameOver
	s.gameOverElapsed = 0
	s.audio.Cue(CueNuke, 1)
}

// finishRun hands the final score out once the tick's kills are scored.
func (s *Session) finishRun() {
	score := s.ledger.Score
	if score > s.highScore {
		s.highScore = score
	}
	s.emit(GameEvent{Type: EventTypeGameOver, Stats: s.stats, Score: score})
	log.Printf("💀 Game over at level %d: score=%d high=%d", s.level, score, s.highScore)

	if s.hooks.OnGameOver != nil {
		s.hooks.OnGameOver(score, s.level)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
