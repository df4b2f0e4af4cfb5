package game

import "math"

// Turret targeting modes by upgrade level.
const (
	TargetNearest  = 0
	TargetFurthest = 1 // Greatest travel fraction
	TargetLead     = 2 // Furthest, aimed one flight time ahead
)

func (s *Session) turretStep() {
	if s.upgrades.Turret < 1 || s.elapsed < s.nextTurret {
		return
	}

	origin := s.Launcher()
	target := s.turretTarget(origin)
	if target == nil {
		return
	}

	aim := target.Pos
	if s.upgrades.Targeting >= TargetLead {
		aim = LeadPosition(origin, target, TurretProjectileSpeed)
	}
	s.reg.AddProjectile(NewTurretProjectile(origin, aim, TurretProjectileSpeed))

	s.nextTurret = s.elapsed + s.upgrades.TurretCooldown()
	s.audio.Cue(CueTurretShoot, 0.7)
	s.emit(GameEvent{Type: EventTypeTurretFire, EnemyID: target.ID, Pos: aim})
}

// turretTarget picks an enemy per the targeting upgrade. Ties keep the
// earliest spawned enemy.
func (s *Session) turretTarget(origin Vec2) *Enemy {
	var best *Enemy
	bestScore := math.Inf(-1)

	s.reg.EachEnemy(func(e *Enemy) bool {
		var score float64
		if s.upgrades.Targeting >= TargetFurthest {
			score = e.Fraction()
		} else {
			score = -e.Pos.Dist(origin)
		}
		if score > bestScore {
			best, bestScore = e, score
		}
		return true
	})
	return best
}

// LeadPosition predicts where e will be after a shot from origin at speed
// has flown the current distance.
func LeadPosition(origin Vec2, e *Enemy, speed float64) Vec2 {
	if speed <= 0 {
		return e.Pos
	}
	flight := e.Pos.Dist(origin) / speed
	return e.PositionAt(math.Min(e.Total, e.Traveled+e.Speed*flight))
}
