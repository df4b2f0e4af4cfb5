package game

import (
	"sync/atomic"
	"time"
)

// ResourceLimits caps what a snapshot carries so a flood of entities cannot
// blow up every reader.
type ResourceLimits struct {
	MaxEnemies      int // Per snapshot enemy limit
	MaxInterceptors int
	MaxProjectiles  int
	MaxExplosions   int
}

// DefaultLimits provides production-safe default limits
var DefaultLimits = ResourceLimits{
	MaxEnemies:      128,
	MaxInterceptors: MaxInterceptors,
	MaxProjectiles:  32,
	MaxExplosions:   128,
}

// BuildingSnapshot is an immutable building for rendering
type BuildingSnapshot struct {
	ID        EntityID `json:"id"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	W         float64  `json:"w"`
	H         float64  `json:"h"`
	Destroyed bool     `json:"destroyed"`
}

// EnemySnapshot is an immutable enemy for rendering
type EnemySnapshot struct {
	ID     EntityID `json:"id"`
	Type   string   `json:"type"`
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Health float64  `json:"health"` // Fraction of max health
	Trail  []Vec2   `json:"trail"`
}

// InterceptorSnapshot is an immutable player shot
type InterceptorSnapshot struct {
	ID      EntityID `json:"id"`
	X       float64  `json:"x"`
	Y       float64  `json:"y"`
	TargetX float64  `json:"targetX"`
	TargetY float64  `json:"targetY"`
	Trail   []Vec2   `json:"trail"`
}

// ProjectileSnapshot is an immutable turret shot
type ProjectileSnapshot struct {
	ID    EntityID `json:"id"`
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	Trail []Vec2   `json:"trail"`
}

// ExplosionSnapshot is an immutable explosion
type ExplosionSnapshot struct {
	ID     EntityID `json:"id"`
	Kind   string   `json:"kind"`
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Radius float64  `json:"radius"`
	Alpha  float64  `json:"alpha"`
}

// GameSnapshot is a complete immutable game state for rendering.
// Slices are pre-allocated and capped by ResourceLimits.
type GameSnapshot struct {
	Sequence   uint64    `json:"sequence"` // Monotonic sequence for ordering
	Timestamp  time.Time `json:"timestamp"`
	TickNumber uint64    `json:"tick"`
	RunID      string    `json:"runId"`

	State            string      `json:"state"`
	Difficulty       string      `json:"difficulty"`
	Level            int         `json:"level"`
	TimeLeft         float64     `json:"timeLeft"`
	Score            int64       `json:"score"`
	HighScore        int64       `json:"highScore"`
	Combo            int         `json:"combo"`
	Shield           ShieldState `json:"shield"`
	Stats            LevelStats  `json:"stats"`
	GameOverProgress float64     `json:"gameOverProgress"`

	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	DefenseLine float64 `json:"defenseLine"`
	Launcher    Vec2    `json:"launcher"`

	Buildings    []BuildingSnapshot    `json:"buildings"`
	Enemies      []EnemySnapshot       `json:"enemies"`
	Interceptors []InterceptorSnapshot `json:"interceptors"`
	Projectiles  []ProjectileSnapshot  `json:"projectiles"`
	Explosions   []ExplosionSnapshot   `json:"explosions"`
}

// Clone returns a deep copy safe to hand to another goroutine.
func (g *GameSnapshot) Clone() *GameSnapshot {
	c := *g
	c.Buildings = append([]BuildingSnapshot(nil), g.Buildings...)
	c.Enemies = make([]EnemySnapshot, len(g.Enemies))
	for i, e := range g.Enemies {
		e.Trail = append([]Vec2(nil), e.Trail...)
		c.Enemies[i] = e
	}
	c.Interceptors = make([]InterceptorSnapshot, len(g.Interceptors))
	for i, in := range g.Interceptors {
		in.Trail = append([]Vec2(nil), in.Trail...)
		c.Interceptors[i] = in
	}
	c.Projectiles = make([]ProjectileSnapshot, len(g.Projectiles))
	for i, p := range g.Projectiles {
		p.Trail = append([]Vec2(nil), p.Trail...)
		c.Projectiles[i] = p
	}
	c.Explosions = append([]ExplosionSnapshot(nil), g.Explosions...)
	return &c
}

// FillSnapshot writes the session state into snap, reusing its slices.
func (s *Session) FillSnapshot(snap *GameSnapshot, limits ResourceLimits) {
	snap.State = s.state.String()
	snap.Difficulty = s.difficulty.String()
	snap.Level = s.level
	snap.TimeLeft = s.TimeLeft()
	snap.Score = s.ledger.Score
	snap.HighScore = s.highScore
	if s.state != StateMenu {
		snap.HighScore = max(s.highScore, s.ledger.Score)
	}
	snap.Combo = s.ledger.Combo.Multiplier
	snap.Shield = s.shield
	snap.Stats = s.stats
	snap.GameOverProgress = s.GameOverProgress()
	snap.Width, snap.Height = s.width, s.height
	snap.DefenseLine = s.defenseLine
	snap.Launcher = s.Launcher()

	snap.Buildings = snap.Buildings[:0]
	for _, b := range s.reg.Buildings() {
		snap.Buildings = append(snap.Buildings, BuildingSnapshot{
			ID: b.ID, X: b.X, Y: b.Y, W: b.W, H: b.H, Destroyed: b.Destroyed,
		})
	}

	snap.Enemies = snap.Enemies[:0]
	s.reg.EachEnemy(func(e *Enemy) bool {
		if len(snap.Enemies) >= limits.MaxEnemies {
			return false
		}
		var trail []Vec2
		snap.Enemies, trail = growReuse(snap.Enemies, func(es *EnemySnapshot) []Vec2 { return es.Trail })
		snap.Enemies[len(snap.Enemies)-1] = EnemySnapshot{
			ID:     e.ID,
			Type:   e.Archetype.String(),
			X:      e.Pos.X,
			Y:      e.Pos.Y,
			Health: e.HealthFraction(),
			Trail:  e.Trail.AppendTo(trail),
		}
		return true
	})

	snap.Interceptors = snap.Interceptors[:0]
	s.reg.EachInterceptor(func(in *Interceptor) bool {
		if len(snap.Interceptors) >= limits.MaxInterceptors {
			return false
		}
		var trail []Vec2
		snap.Interceptors, trail = growReuse(snap.Interceptors, func(is *InterceptorSnapshot) []Vec2 { return is.Trail })
		snap.Interceptors[len(snap.Interceptors)-1] = InterceptorSnapshot{
			ID:      in.ID,
			X:       in.Pos.X,
			Y:       in.Pos.Y,
			TargetX: in.Target.X,
			TargetY: in.Target.Y,
			Trail:   in.Trail.AppendTo(trail),
		}
		return true
	})

	snap.Projectiles = snap.Projectiles[:0]
	s.reg.EachProjectile(func(p *TurretProjectile) bool {
		if len(snap.Projectiles) >= limits.MaxProjectiles {
			return false
		}
		var trail []Vec2
		snap.Projectiles, trail = growReuse(snap.Projectiles, func(ps *ProjectileSnapshot) []Vec2 { return ps.Trail })
		snap.Projectiles[len(snap.Projectiles)-1] = ProjectileSnapshot{
			ID:    p.ID,
			X:     p.Pos.X,
			Y:     p.Pos.Y,
			Trail: p.Trail.AppendTo(trail),
		}
		return true
	})

	snap.Explosions = snap.Explosions[:0]
	s.reg.EachExplosion(func(x *Explosion) bool {
		if len(snap.Explosions) >= limits.MaxExplosions {
			return false
		}
		snap.Explosions = append(snap.Explosions, ExplosionSnapshot{
			ID:     x.ID,
			Kind:   x.Kind.String(),
			X:      x.Center.X,
			Y:      x.Center.Y,
			Radius: x.Radius,
			Alpha:  x.Alpha,
		})
		return true
	})
}

// growReuse extends s by one element and returns the trail buffer the slot
// held from a previous fill, emptied, so trails do not allocate per frame.
func growReuse[T any](s []T, trailOf func(*T) []Vec2) ([]T, []Vec2) {
	n := len(s)
	if n < cap(s) {
		s = s[:n+1]
		return s, trailOf(&s[n])[:0]
	}
	var zero T
	return append(s, zero), make([]Vec2, 0, TrailLength)
}

// SnapshotPool pre-allocates snapshots to avoid GC pressure.
// Uses triple buffering: the producer fills one slot while readers see the
// last published one.
type SnapshotPool struct {
	snapshots [3]GameSnapshot // Triple buffer
	limits    ResourceLimits
	writeIdx  atomic.Uint32 // producer index
	readIdx   atomic.Uint32 // last published index
	sequence  atomic.Uint64 // monotonic sequence
}

// NewSnapshotPool creates a pool with pre-allocated slices
func NewSnapshotPool(limits ResourceLimits) *SnapshotPool {
	pool := &SnapshotPool{limits: limits}

	for i := 0; i < 3; i++ {
		pool.snapshots[i] = GameSnapshot{
			Buildings:    make([]BuildingSnapshot, 0, BuildingCount),
			Enemies:      make([]EnemySnapshot, 0, limits.MaxEnemies),
			Interceptors: make([]InterceptorSnapshot, 0, limits.MaxInterceptors),
			Projectiles:  make([]ProjectileSnapshot, 0, limits.MaxProjectiles),
			Explosions:   make([]ExplosionSnapshot, 0, limits.MaxExplosions),
		}
	}

	return pool
}

// AcquireWrite gets the next write slot (producer only, called from the engine loop)
func (p *SnapshotPool) AcquireWrite() *GameSnapshot {
	idx := p.writeIdx.Add(1) % 3
	snap := &p.snapshots[idx]
	snap.Sequence = p.sequence.Add(1)
	snap.Timestamp = time.Now()
	return snap
}

// PublishWrite makes the last acquired slot the one readers see.
func (p *SnapshotPool) PublishWrite() {
	p.readIdx.Store(p.writeIdx.Load())
}

// AcquireRead returns the latest published snapshot.
func (p *SnapshotPool) AcquireRead() *GameSnapshot {
	return &p.snapshots[p.readIdx.Load()%3]
}

// GetLimits returns the resource limits
func (p *SnapshotPool) GetLimits() ResourceLimits {
	return p.limits
}
