package game

import "math"

// resolve runs the collision domains in fixed order. Enemies are visited in
// spawn order within each domain; entities removed by an earlier domain are
// skipped by later ones.
func (s *Session) resolve() {
	s.resolveTurretHits()
	s.resolveShield()
	s.resolveBlasts()
	s.resolveGround()
}

// resolveTurretHits: each projectile hits at most one enemy.
func (s *Session) resolveTurretHits() {
	s.reg.EachProjectile(func(p *TurretProjectile) bool {
		s.reg.EachEnemy(func(e *Enemy) bool {
			if p.Pos.Dist(e.Pos) >= TurretHitDistance {
				return true
			}
			s.reg.RemoveProjectile(p.ID)
			s.hitEnemy(e, CauseTurret)
			return false
		})
		return true
	})
}

// resolveShield absorbs every enemy inside the shield while energy lasts,
// regardless of health.
func (s *Session) resolveShield() {
	if !s.shield.Active() {
		return
	}
	center := s.Launcher()

	s.reg.EachEnemy(func(e *Enemy) bool {
		if !s.shield.Active() {
			return false
		}
		if e.Pos.Dist(center) > ShieldRadius {
			return true
		}

		s.shield.Absorb(s.elapsed)
		s.reg.RemoveEnemy(e.ID)
		s.emit(GameEvent{Type: EventTypeKill, EnemyID: e.ID, Archetype: e.Archetype, Cause: CauseShield, Pos: e.Pos})
		s.emit(GameEvent{Type: EventTypeBlock, EnemyID: e.ID, Archetype: e.Archetype, Cause: CauseShield, Pos: e.Pos})
		s.reg.AddExplosion(NewExplosion(ExplosionShield, e.Pos, ShieldFlashRadius))
		s.audio.Cue(CueShieldHit, s.shield.Fraction())
		return true
	})
}

// resolveBlasts applies area damage. Each explosion damages a given enemy
// at most once over its whole life.
func (s *Session) resolveBlasts() {
	s.grid.Clear()
	s.blastIndex = s.blastIndex[:0]
	s.reg.EachExplosion(func(x *Explosion) bool {
		if x.Harmless || x.Radius <= 0 {
			return true
		}
		s.grid.InsertCircle(uint32(len(s.blastIndex)), x.Center.X, x.Center.Y, x.Radius)
		s.blastIndex = append(s.blastIndex, x)
		return true
	})
	if len(s.blastIndex) == 0 {
		return
	}

	s.reg.EachEnemy(func(e *Enemy) bool {
		// Candidates come back in creation order.
		for _, idx := range s.grid.QueryPoint(e.Pos.X, e.Pos.Y) {
			x := s.blastIndex[idx]
			if !x.Damages(e.Pos) || !e.MarkHit(x.ID) {
				continue
			}
			if s.hitEnemy(e, CauseExplosion) {
				break
			}
		}
		return true
	})
}

// hitEnemy deals one point of damage. Returns true if the enemy died.
func (s *Session) hitEnemy(e *Enemy, cause KillCause) bool {
	if !e.Damage(1) {
		s.reg.AddExplosion(NewExplosion(ExplosionSpark, e.Pos, SparkRadius))
		return false
	}
	s.reg.RemoveEnemy(e.ID)
	s.emit(GameEvent{Type: EventTypeKill, EnemyID: e.ID, Archetype: e.Archetype, Cause: cause, Pos: e.Pos})
	s.reg.AddExplosion(NewExplosion(ExplosionKill, e.Pos, KillExplosionRadius))
	s.audio.Cue(CueExplosionLight, 0.8)
	return true
}

// resolveGround handles enemies that reached the defense line.
func (s *Session) resolveGround() {
	s.reg.EachEnemy(func(e *Enemy) bool {
		if !e.Grounded(s.defenseLine) {
			return true
		}
		s.reg.RemoveEnemy(e.ID)
		s.impact(e)
		return s.state == StatePlaying
	})
}

// impactBuilding picks the building an impact at x destroys. At most one
// building falls per impact: the surviving building whose span, widened by
// radius, contains x and whose center is closest. Ties go to the lower ID.
func (s *Session) impactBuilding(x, radius float64) *Building {
	var hit *Building
	best := math.Inf(1)
	for _, b := range s.reg.Buildings() {
		if b.Destroyed || !b.Spans(x, radius) {
			continue
		}
		d := math.Abs(b.CenterX() - x)
		if d < best || (d == best && hit != nil && b.ID < hit.ID) {
			hit, best = b, d
		}
	}
	return hit
}

func (s *Session) impact(e *Enemy) {
	radius := e.Archetype.Profile().ImpactRange
	point := Vec2{e.Pos.X, s.defenseLine}

	b := s.impactBuilding(point.X, radius)
	if b == nil {
		s.reg.AddExplosion(NewExplosion(ExplosionGround, point, radius*GroundRadiusFactor))
		s.audio.Cue(CueExplosionLight, 0.5)
		s.emit(GameEvent{Type: EventTypeGroundImpact, EnemyID: e.ID, Archetype: e.Archetype, Pos: point})
		return
	}

	b.Destroyed = true
	s.stats.BuildingsLost++
	s.reg.AddExplosion(NewExplosion(ExplosionImpact, point, radius))
	s.audio.Cue(CueExplosionHeavy, 1)
	s.emit(GameEvent{Type: EventTypeBuildingLost, EnemyID: e.ID, Archetype: e.Archetype, Building: b.ID, Pos: point})

	if len(s.reg.AliveBuildings()) == 0 {
		s.enterGameOver()
	}
}
