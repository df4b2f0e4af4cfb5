package game

// ExplosionKind tags what produced an explosion.
type ExplosionKind uint8

const (
	ExplosionBlast  ExplosionKind = iota // Interceptor detonation
	ExplosionKill                        // Enemy destroyed in the air
	ExplosionSpark                       // Non-lethal hit feedback
	ExplosionShield                      // Shield absorption flash
	ExplosionGround                      // Impact that missed every building
	ExplosionImpact                      // Impact that destroyed a building
)

var explosionKindNames = [...]string{"blast", "kill", "spark", "shield", "ground", "impact"}

func (k ExplosionKind) String() string {
	if int(k) < len(explosionKindNames) {
		return explosionKindNames[k]
	}
	return "unknown"
}

// Explosion aging
const (
	ExplosionGrowthRate = 120.0 // px/s until MaxRadius
	ExplosionFadeRate   = 1.5   // alpha/s once fully grown
	KillExplosionRadius = 30.0
	SparkRadius         = 10.0
	ShieldFlashRadius   = 24.0
	GroundRadiusFactor  = 0.6
)

// Explosion is an expanding blast. Radius grows to MaxRadius, then alpha
// fades to zero. Harmless explosions are drawn but never deal damage.
type Explosion struct {
	ID        EntityID      `msgpack:"id"`
	Center    Vec2          `msgpack:"center"`
	Radius    float64       `msgpack:"radius"`
	MaxRadius float64       `msgpack:"max_radius"`
	Alpha     float64       `msgpack:"alpha"`
	Kind      ExplosionKind `msgpack:"kind"`
	Harmless  bool          `msgpack:"harmless"`
}

// NewExplosion creates an explosion of kind at center. Sparks and shield
// flashes are harmless.
func NewExplosion(kind ExplosionKind, center Vec2, maxRadius float64) *Explosion {
	return &Explosion{
		Center:    center,
		MaxRadius: maxRadius,
		Alpha:     1.0,
		Kind:      kind,
		Harmless:  kind == ExplosionSpark || kind == ExplosionShield,
	}
}

// Update ages the explosion by dt. Returns false once it has faded out.
func (x *Explosion) Update(dt float64) bool {
	if x.Radius < x.MaxRadius {
		x.Radius += ExplosionGrowthRate * dt
		if x.Radius > x.MaxRadius {
			x.Radius = x.MaxRadius
		}
		return true
	}

	x.Alpha -= ExplosionFadeRate * dt
	if x.Alpha < 0 {
		x.Alpha = 0
	}
	return x.Alpha > 0
}

// Damages reports whether p is inside the damaging area.
func (x *Explosion) Damages(p Vec2) bool {
	return !x.Harmless && p.Dist(x.Center) < x.Radius
}
