package game

import "math"

// Spawn tuning
const (
	FirstSpawnDelay    = 1.0  // seconds into a level
	MinSpawnInterval   = 0.35 // floor against spawn flooding
	SpawnWarningLead   = 0.5
	SpecialSpawnChance = 0.6
	SpawnHeight        = -20.0
	maxBaseEnemySpeed  = 110.0
)

// Spawner holds the per-level spawn timer.
type Spawner struct {
	NextSpawn float64 `msgpack:"next_spawn"` // Level time of the next spawn
	Warned    bool    `msgpack:"warned"`     // Warning cue already sent for NextSpawn
}

// Reset schedules the first spawn of a level.
func (sp *Spawner) Reset() {
	sp.NextSpawn = FirstSpawnDelay
	sp.Warned = false
}

// BaseSpawnInterval is the mean spawn gap for a level.
func BaseSpawnInterval(level int, d Difficulty) float64 {
	base := math.Max(MinSpawnInterval, 2.2-0.15*float64(level-1))
	return base * d.RateScale()
}

// SpawnDelay turns a uniform draw r in [0, 1) into the next spawn gap.
func SpawnDelay(level int, d Difficulty, r float64) float64 {
	return math.Max(MinSpawnInterval, BaseSpawnInterval(level, d)*(0.5+r))
}

// EnemySpeed returns the speed in px/s of archetype a.
func EnemySpeed(level int, d Difficulty, a Archetype) float64 {
	base := math.Min(maxBaseEnemySpeed, 50+4*float64(level-1))
	return base * d.SpeedMultiplier() * a.Profile().SpeedMult
}

// PickArchetype chooses the type of the next enemy. Once any special type
// is unlocked, SpecialSpawnChance of spawns pick among the unlocked ones by
// weight.
func PickArchetype(level int, d Difficulty, rng Random) Archetype {
	var weights [archetypeCount]float64
	unlocked := false
	for a := Fast; a < archetypeCount; a++ {
		if level >= a.UnlockLevel(d) {
			weights[a] = a.Profile().Weight
			unlocked = true
		}
	}
	if !unlocked || rng.Float64() >= SpecialSpawnChance {
		return Standard
	}
	if i := chooseWeighted(rng, weights[:]); i > 0 {
		return Archetype(i)
	}
	return Standard
}

// spawnStep creates at most one enemy per tick.
func (s *Session) spawnStep() {
	alive := s.reg.AliveBuildings()
	if len(alive) == 0 {
		return
	}

	sp := &s.spawner
	if !sp.Warned && sp.NextSpawn-s.elapsed < SpawnWarningLead {
		sp.Warned = true
		s.audio.Cue(CueWarning, 1)
	}
	if s.elapsed < sp.NextSpawn {
		return
	}

	b := alive[s.rng.Intn(len(alive))]
	target := Vec2{b.CenterX(), s.defenseLine}
	a := PickArchetype(s.level, s.difficulty, s.rng)

	start := Vec2{target.X, SpawnHeight}
	if a != Bomb {
		start.X = s.rng.Float64() * s.width
	}

	e := NewEnemy(a, start, target, EnemySpeed(s.level, s.difficulty, a))
	s.reg.AddEnemy(e)
	s.emit(GameEvent{Type: EventTypeSpawn, EnemyID: e.ID, Archetype: a, Pos: start})

	sp.NextSpawn = s.elapsed + SpawnDelay(s.level, s.difficulty, s.rng.Float64())
	sp.Warned = false
}
