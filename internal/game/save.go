package game

import (
	"errors"
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"
)

const saveVersion = 2

// Restore limits. Saves beyond them are rejected rather than trusted.
const (
	maxSavedPlayArea = 8192.0
	maxSavedEntities = 4096 // Per kind
	maxSavedHits     = 256  // Per enemy
)

// ErrUnsaveableRandom is returned by Save when the session's random source
// cannot be reproduced.
var ErrUnsaveableRandom = errors.New("random source cannot be saved")

// ErrCorruptSave is returned by Restore for saves that describe an
// impossible session.
var ErrCorruptSave = errors.New("corrupt save")

type sessionState struct {
	Version         int           `msgpack:"version"`
	Width           float64       `msgpack:"width"`
	Height          float64       `msgpack:"height"`
	State           State         `msgpack:"state"`
	Difficulty      Difficulty    `msgpack:"difficulty"`
	Upgrades        Upgrades      `msgpack:"upgrades"`
	Level           int           `msgpack:"level"`
	Elapsed         float64       `msgpack:"elapsed"`
	GameOverElapsed float64       `msgpack:"game_over_elapsed"`
	NextFire        float64       `msgpack:"next_fire"`
	NextTurret      float64       `msgpack:"next_turret"`
	Spawner         Spawner       `msgpack:"spawner"`
	Ledger          Ledger        `msgpack:"ledger"`
	Shield          ShieldState   `msgpack:"shield"`
	Stats           LevelStats    `msgpack:"stats"`
	HighScore       int64         `msgpack:"high_score"`
	Registry        registryState `msgpack:"registry"`
	Seed            int64         `msgpack:"seed"`
	Draws           uint64        `msgpack:"draws"`
	RNGState        []byte        `msgpack:"rng_state"`
}

// Save encodes the full session with msgpack. The random source must be a
// *SeededRandom so its state can be stored.
func (s *Session) Save() ([]byte, error) {
	rng, ok := s.rng.(*SeededRandom)
	if !ok {
		return nil, fmt.Errorf("save session: %w (%T)", ErrUnsaveableRandom, s.rng)
	}
	rngState, err := rng.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	st := sessionState{
		Version:         saveVersion,
		Width:           s.width,
		Height:          s.height,
		State:           s.state,
		Difficulty:      s.difficulty,
		Upgrades:        s.upgrades,
		Level:           s.level,
		Elapsed:         s.elapsed,
		GameOverElapsed: s.gameOverElapsed,
		NextFire:        s.nextFire,
		NextTurret:      s.nextTurret,
		Spawner:         s.spawner,
		Ledger:          s.ledger,
		Shield:          s.shield,
		Stats:           s.stats,
		HighScore:       s.highScore,
		Registry:        s.reg.state(),
		Seed:            rng.Seed(),
		Draws:           rng.Draws(),
		RNGState:        rngState,
	}

	data, err := msgpack.Marshal(&st)
	if err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return data, nil
}

// Restore replaces the session with a saved one. Audio and hooks are kept.
// Subsequent ticks continue exactly as the saved session would have.
//
// Saves describing an impossible session fail with ErrCorruptSave and leave
// the session untouched. Out-of-range values that the simulation can carry
// on from are clamped.
func (s *Session) Restore(data []byte) error {
	var st sessionState
	if err := msgpack.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if st.Version != saveVersion {
		return fmt.Errorf("restore session: unsupported version %d", st.Version)
	}
	if err := st.sanitize(); err != nil {
		return fmt.Errorf("restore session: %w: %w", ErrCorruptSave, err)
	}
	rng, err := RestoreSeededRandom(st.Seed, st.Draws, st.RNGState)
	if err != nil {
		return fmt.Errorf("restore session: %w: %w", ErrCorruptSave, err)
	}

	if st.Width != s.width || st.Height != s.height {
		s.grid = newExplosionGrid(st.Width, st.Height)
	}
	s.width, s.height = st.Width, st.Height
	s.defenseLine = st.Height - DefenseLineOffset
	s.state = st.State
	s.difficulty = st.Difficulty
	s.upgrades = st.Upgrades
	s.level = st.Level
	s.elapsed = st.Elapsed
	s.gameOverElapsed = st.GameOverElapsed
	s.nextFire = st.NextFire
	s.nextTurret = st.NextTurret
	s.spawner = st.Spawner
	s.ledger = st.Ledger
	s.shield = st.Shield
	s.stats = st.Stats
	s.highScore = st.HighScore
	s.reg.restore(st.Registry)
	s.rng = rng
	s.events = nil
	return nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func finiteVec(vs ...Vec2) bool {
	for _, v := range vs {
		if !finite(v.X, v.Y) {
			return false
		}
	}
	return true
}

func validTrail(t Trail) bool {
	if t.Head < 0 || t.Head >= TrailLength || t.Count < 0 || t.Count > TrailLength {
		return false
	}
	return finiteVec(t.Points[:]...)
}

// sanitize rejects impossible saves and clamps the rest into the ranges a
// live session keeps.
func (st *sessionState) sanitize() error {
	if !finite(st.Width, st.Height) || st.Width <= 0 || st.Height <= 0 ||
		st.Width > maxSavedPlayArea || st.Height > maxSavedPlayArea {
		return fmt.Errorf("invalid play area %vx%v", st.Width, st.Height)
	}
	if st.State > StateGameOver {
		return fmt.Errorf("unknown state %d", st.State)
	}
	if st.Difficulty > Hard {
		return fmt.Errorf("unknown difficulty %d", st.Difficulty)
	}
	if !finite(st.Elapsed, st.GameOverElapsed, st.NextFire, st.NextTurret,
		st.Spawner.NextSpawn, st.Ledger.Combo.LastKill, st.Shield.Energy, st.Shield.Max, st.Shield.LastHit) {
		return errors.New("non-finite timer")
	}

	st.Upgrades = st.Upgrades.Normalize()
	st.HighScore = max(0, st.HighScore)

	if st.State == StateMenu {
		st.clearRun()
		return nil
	}

	st.Level = max(1, st.Level)
	st.Elapsed = max(0, st.Elapsed)
	if st.State == StatePlaying || st.State == StatePaused {
		st.Elapsed = min(st.Elapsed, LevelDuration)
	}
	st.GameOverElapsed = clamp(st.GameOverElapsed, 0, GameOverDuration)
	st.NextFire = clamp(st.NextFire, 0, st.Elapsed+st.Upgrades.FireCooldown())
	if st.Upgrades.Turret < 1 {
		st.NextTurret = 0
	} else {
		st.NextTurret = clamp(st.NextTurret, 0, st.Elapsed+st.Upgrades.TurretCooldown())
	}
	maxGap := max(FirstSpawnDelay, 1.5*BaseSpawnInterval(st.Level, st.Difficulty))
	st.Spawner.NextSpawn = clamp(st.Spawner.NextSpawn, 0, st.Elapsed+maxGap)

	st.Ledger.Difficulty = st.Difficulty
	st.Ledger.Score = max(0, st.Ledger.Score)
	st.Ledger.Combo.Multiplier = min(max(st.Ledger.Combo.Multiplier, 1), ComboCap)
	st.Ledger.Combo.LastKill = clamp(st.Ledger.Combo.LastKill, 0, st.Elapsed)

	st.Shield.Max = st.Upgrades.ShieldMax()
	st.Shield.Energy = clamp(st.Shield.Energy, 0, st.Shield.Max)
	st.Shield.LastHit = clamp(st.Shield.LastHit, 0, st.Elapsed)

	st.Stats.Level = st.Level
	st.Stats.BuildingsLost = min(max(st.Stats.BuildingsLost, 0), BuildingCount)
	st.Stats.EnemiesDestroyed = max(st.Stats.EnemiesDestroyed, 0)

	return st.Registry.sanitize(st.Upgrades)
}

// clearRun matches the state ReturnToMenu leaves behind.
func (st *sessionState) clearRun() {
	st.Level = 0
	st.Elapsed = 0
	st.GameOverElapsed = 0
	st.NextFire = 0
	st.NextTurret = 0
	st.Spawner = Spawner{}
	st.Ledger = NewLedger(st.Difficulty)
	st.Shield = ShieldState{}
	st.Stats = LevelStats{}
	st.Registry = registryState{}
}

func (r *registryState) sanitize(u Upgrades) error {
	if len(r.Buildings) != BuildingCount {
		return fmt.Errorf("%d buildings, want %d", len(r.Buildings), BuildingCount)
	}
	if len(r.Enemies) > maxSavedEntities || len(r.Projectiles) > maxSavedEntities ||
		len(r.Explosions) > maxSavedEntities {
		return errors.New("too many entities")
	}
	if len(r.Interceptors) > MaxInterceptors {
		return fmt.Errorf("%d interceptors, limit %d", len(r.Interceptors), MaxInterceptors)
	}

	seen := make(map[EntityID]struct{})
	claim := func(id EntityID) error {
		if id == 0 || id > r.NextID {
			return fmt.Errorf("entity id %d outside 1..%d", id, r.NextID)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate entity id %d", id)
		}
		seen[id] = struct{}{}
		return nil
	}

	for _, b := range r.Buildings {
		if b == nil {
			return errors.New("nil building")
		}
		if err := claim(b.ID); err != nil {
			return err
		}
		if !finite(b.X, b.Y, b.W, b.H) || b.W <= 0 || b.H <= 0 {
			return fmt.Errorf("building %d has invalid bounds", b.ID)
		}
	}

	for _, e := range r.Enemies {
		if e == nil {
			return errors.New("nil enemy")
		}
		if err := claim(e.ID); err != nil {
			return err
		}
		if e.Archetype >= archetypeCount {
			return fmt.Errorf("enemy %d has unknown archetype %d", e.ID, e.Archetype)
		}
		if !finiteVec(e.Pos, e.Start, e.Target) || !finite(e.Traveled, e.Speed) || !validTrail(e.Trail) {
			return fmt.Errorf("enemy %d has invalid motion", e.ID)
		}
		if e.Speed < 0 || e.Traveled < 0 {
			return fmt.Errorf("enemy %d has negative speed or travel", e.ID)
		}
		if len(e.HitBy) > maxSavedHits {
			return fmt.Errorf("enemy %d has %d hits", e.ID, len(e.HitBy))
		}
		e.Total = e.Start.Dist(e.Target)
		e.Traveled = min(e.Traveled, e.Total)
		e.MaxHealth = e.Archetype.Profile().Health
		e.Health = min(max(e.Health, 1), e.MaxHealth)
	}

	// Interceptors are cleared between levels, so every live one was
	// launched with the current upgrades. The fully upgraded blast is the
	// largest explosion of any kind.
	maxBlast := Upgrades{BlastRadius: MaxUpgradeLevel}.BlastRadiusMax()
	for _, in := range r.Interceptors {
		if in == nil {
			return errors.New("nil interceptor")
		}
		if err := claim(in.ID); err != nil {
			return err
		}
		if !finiteVec(in.Pos, in.Launch, in.Target) || !finite(in.Speed, in.BlastRadius) ||
			in.Speed <= 0 || !validTrail(in.Trail) {
			return fmt.Errorf("interceptor %d has invalid motion", in.ID)
		}
		in.BlastRadius = clamp(in.BlastRadius, 0, u.BlastRadiusMax())
	}

	for _, p := range r.Projectiles {
		if p == nil {
			return errors.New("nil projectile")
		}
		if err := claim(p.ID); err != nil {
			return err
		}
		if !finiteVec(p.Pos, p.Vel) || !validTrail(p.Trail) {
			return fmt.Errorf("projectile %d has invalid motion", p.ID)
		}
	}

	for _, x := range r.Explosions {
		if x == nil {
			return errors.New("nil explosion")
		}
		if err := claim(x.ID); err != nil {
			return err
		}
		if int(x.Kind) >= len(explosionKindNames) {
			return fmt.Errorf("explosion %d has unknown kind %d", x.ID, x.Kind)
		}
		if !finiteVec(x.Center) || !finite(x.Radius, x.MaxRadius, x.Alpha) {
			return fmt.Errorf("explosion %d has invalid shape", x.ID)
		}
		x.MaxRadius = clamp(x.MaxRadius, 0, maxBlast)
		x.Radius = clamp(x.Radius, 0, x.MaxRadius)
		x.Alpha = clamp(x.Alpha, 0, 1)
		x.Harmless = x.Kind == ExplosionSpark || x.Kind == ExplosionShield
	}
	return nil
}
