package game

import "math"

// MaxUpgradeLevel caps every upgrade track.
const MaxUpgradeLevel = 5

// Upgrades are the purchased levels supplied by the shop at run start and
// between levels.
type Upgrades struct {
	Speed       int `json:"speed" msgpack:"speed"`
	BlastRadius int `json:"blastRadius" msgpack:"blast_radius"`
	FireRate    int `json:"fireRate" msgpack:"fire_rate"`
	Turret      int `json:"turret" msgpack:"turret"`
	Shield      int `json:"shield" msgpack:"shield"`
	Targeting   int `json:"targeting" msgpack:"targeting"`
}

func clampLevel(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxUpgradeLevel {
		return MaxUpgradeLevel
	}
	return v
}

// Normalize clamps every level into [0, MaxUpgradeLevel].
func (u Upgrades) Normalize() Upgrades {
	return Upgrades{
		Speed:       clampLevel(u.Speed),
		BlastRadius: clampLevel(u.BlastRadius),
		FireRate:    clampLevel(u.FireRate),
		Turret:      clampLevel(u.Turret),
		Shield:      clampLevel(u.Shield),
		Targeting:   clampLevel(u.Targeting),
	}
}

// InterceptorSpeed in px/s.
func (u Upgrades) InterceptorSpeed() float64 {
	return 420 * (1 + 0.15*float64(u.Speed))
}

// FireCooldown in seconds between player shots.
func (u Upgrades) FireCooldown() float64 {
	return math.Max(0.12, 0.45-0.06*float64(u.FireRate))
}

// BlastRadiusMax is the max radius of a player interceptor's explosion.
func (u Upgrades) BlastRadiusMax() float64 {
	return 40 * (1 + 0.2*float64(u.BlastRadius))
}

// TurretCooldown in seconds. Only meaningful when Turret >= 1.
func (u Upgrades) TurretCooldown() float64 {
	if u.Turret < 1 {
		return math.Inf(1)
	}
	return 1.6 / (1 + 0.35*float64(u.Turret-1))
}

// ShieldMax is the shield energy capacity. Zero disables the shield.
func (u Upgrades) ShieldMax() float64 {
	return 100 * float64(u.Shield)
}
