package game

// EntityID is a stable per-run identity. IDs are never reused within a run.
type EntityID uint64

// Building is a defended structure. Destruction is permanent for the run.
type Building struct {
	ID        EntityID `msgpack:"id"`
	X         float64  `msgpack:"x"`
	Y         float64  `msgpack:"y"`
	W         float64  `msgpack:"w"`
	H         float64  `msgpack:"h"`
	Destroyed bool     `msgpack:"destroyed"`
}

// CenterX returns the horizontal center of the building.
func (b *Building) CenterX() float64 {
	return b.X + b.W/2
}

// Spans reports whether x lies within the building's horizontal span widened by r.
func (b *Building) Spans(x, r float64) bool {
	return x >= b.X-r && x <= b.X+b.W+r
}

// Enemy is a falling threat.
type Enemy struct {
	ID        EntityID  `msgpack:"id"`
	Archetype Archetype `msgpack:"archetype"`
	Pos       Vec2      `msgpack:"pos"`
	Start     Vec2      `msgpack:"start"`
	Target    Vec2      `msgpack:"target"`
	Total     float64   `msgpack:"total"`
	Traveled  float64   `msgpack:"traveled"`
	Speed     float64   `msgpack:"speed"`
	Health    int       `msgpack:"health"`
	MaxHealth int       `msgpack:"max_health"`
	Trail     Trail     `msgpack:"trail"`

	// HitBy holds the explosions that have already damaged this enemy.
	// Small enough in practice that a slice beats a map.
	HitBy []EntityID `msgpack:"hit_by"`
}

// NewEnemy creates an enemy at start heading for target.
func NewEnemy(a Archetype, start, target Vec2, speed float64) *Enemy {
	hp := a.Profile().Health
	return &Enemy{
		Archetype: a,
		Pos:       start,
		Start:     start,
		Target:    target,
		Total:     start.Dist(target),
		Speed:     speed,
		Health:    hp,
		MaxHealth: hp,
	}
}

// PositionAt returns where the enemy is after traveled px along its path.
func (e *Enemy) PositionAt(traveled float64) Vec2 {
	if e.Archetype == Wobbly {
		return WobblePosition(e.Start, e.Target, traveled, e.Total, WobbleAmplitude, WobbleWavelength)
	}
	return LinearPosition(e.Start, e.Target, traveled, e.Total)
}

// Advance moves the enemy dt seconds along its path.
func (e *Enemy) Advance(dt float64) {
	e.Trail.Push(e.Pos)
	e.Traveled += e.Speed * dt
	if e.Traveled > e.Total {
		e.Traveled = e.Total
	}
	e.Pos = e.PositionAt(e.Traveled)
}

// Fraction returns the travel fraction in [0, 1].
func (e *Enemy) Fraction() float64 {
	return TravelFraction(e.Traveled, e.Total)
}

// Grounded reports whether the enemy has reached the defense line.
func (e *Enemy) Grounded(defenseLine float64) bool {
	return e.Fraction() >= 1 || e.Pos.Y >= defenseLine
}

// Damage removes n health, clamped at zero. Returns true if the hit was lethal.
func (e *Enemy) Damage(n int) bool {
	e.Health -= n
	if e.Health < 0 {
		e.Health = 0
	}
	return e.Health == 0
}

// HealthFraction is Health/MaxHealth for rendering.
func (e *Enemy) HealthFraction() float64 {
	if e.MaxHealth <= 0 {
		return 0
	}
	return float64(e.Health) / float64(e.MaxHealth)
}

// WasHitBy reports whether explosion id has already damaged this enemy.
func (e *Enemy) WasHitBy(id EntityID) bool {
	for _, h := range e.HitBy {
		if h == id {
			return true
		}
	}
	return false
}

// MarkHit records explosion id. Returns false if it was already recorded.
func (e *Enemy) MarkHit(id EntityID) bool {
	if e.WasHitBy(id) {
		return false
	}
	e.HitBy = append(e.HitBy, id)
	return true
}
