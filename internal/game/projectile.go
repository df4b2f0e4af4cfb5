package game

// Projectile system constants
const (
	MaxInterceptors        = 12    // Hard cap on live player interceptors
	TurretProjectileSpeed  = 520.0 // px/s
	TurretHitDistance      = 14.0
	projectileBoundsMargin = 40.0 // Enemies spawn above the screen; keep shots alive that far out
)

// Interceptor is a player shot flying to a fixed point, where it detonates.
type Interceptor struct {
	ID          EntityID `msgpack:"id"`
	Pos         Vec2     `msgpack:"pos"`
	Launch      Vec2     `msgpack:"launch"`
	Target      Vec2     `msgpack:"target"`
	Speed       float64  `msgpack:"speed"`
	BlastRadius float64  `msgpack:"blast_radius"`
	Trail       Trail    `msgpack:"trail"`
}

// NewInterceptor creates an interceptor from launch to target.
// The target is recorded once and never re-aimed.
func NewInterceptor(launch, target Vec2, speed, blastRadius float64) *Interceptor {
	return &Interceptor{
		Pos:         launch,
		Launch:      launch,
		Target:      target,
		Speed:       speed,
		BlastRadius: blastRadius,
	}
}

// Advance pursues the target for dt seconds. Returns true on arrival.
func (in *Interceptor) Advance(dt float64) bool {
	in.Trail.Push(in.Pos)
	var arrived bool
	in.Pos, arrived = Pursue(in.Pos, in.Target, in.Speed*dt)
	return arrived
}

// TurretProjectile flies straight on its launch velocity until it hits an
// enemy or leaves the play area.
type TurretProjectile struct {
	ID    EntityID `msgpack:"id"`
	Pos   Vec2     `msgpack:"pos"`
	Vel   Vec2     `msgpack:"vel"`
	Trail Trail    `msgpack:"trail"`
}

// NewTurretProjectile creates a projectile from origin toward aim.
func NewTurretProjectile(origin, aim Vec2, speed float64) *TurretProjectile {
	d := aim.Sub(origin)
	dist := d.Len()
	if dist == 0 {
		d, dist = Vec2{0, -1}, 1 // Straight up
	}
	return &TurretProjectile{
		Pos: origin,
		Vel: d.Scale(speed / dist),
	}
}

// Advance moves the projectile dt seconds.
func (p *TurretProjectile) Advance(dt float64) {
	p.Trail.Push(p.Pos)
	p.Pos = p.Pos.Add(p.Vel.Scale(dt))
}

// OutOfBounds reports whether the projectile has left the play area.
func (p *TurretProjectile) OutOfBounds(width, height float64) bool {
	m := projectileBoundsMargin
	return p.Pos.X < -m || p.Pos.X > width+m || p.Pos.Y < -m || p.Pos.Y > height+m
}
