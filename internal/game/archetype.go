package game

import "strings"

// Archetype identifies an enemy type.
type Archetype uint8

const (
	Standard Archetype = iota
	Fast
	Heavy
	Wobbly
	Bullet
	Laser
	Bomb
	archetypeCount
)

// ArchetypeProfile holds the per-type constants.
type ArchetypeProfile struct {
	Name        string
	Unlock      int     // First level (normal difficulty) the type can spawn
	Weight      float64 // Relative weight among unlocked special types
	SpeedMult   float64
	Health      int
	Score       int
	ImpactRange float64
}

var archetypeProfiles = [archetypeCount]ArchetypeProfile{
	Standard: {Name: "standard", Unlock: 1, Weight: 0, SpeedMult: 1.0, Health: 1, Score: 10, ImpactRange: 20},
	Fast:     {Name: "fast", Unlock: 2, Weight: 3, SpeedMult: 1.8, Health: 1, Score: 15, ImpactRange: 20},
	Heavy:    {Name: "heavy", Unlock: 4, Weight: 2, SpeedMult: 0.6, Health: 3, Score: 30, ImpactRange: 45},
	Wobbly:   {Name: "wobbly", Unlock: 3, Weight: 3, SpeedMult: 1.0, Health: 1, Score: 15, ImpactRange: 20},
	Bullet:   {Name: "bullet", Unlock: 5, Weight: 2, SpeedMult: 2.5, Health: 1, Score: 20, ImpactRange: 20},
	Laser:    {Name: "laser", Unlock: 7, Weight: 1, SpeedMult: 3.0, Health: 1, Score: 30, ImpactRange: 20},
	Bomb:     {Name: "bomb", Unlock: 6, Weight: 2, SpeedMult: 0.8, Health: 1, Score: 30, ImpactRange: 45},
}

// Profile returns the constants for a.
func (a Archetype) Profile() ArchetypeProfile {
	if a >= archetypeCount {
		return archetypeProfiles[Standard]
	}
	return archetypeProfiles[a]
}

func (a Archetype) String() string {
	return a.Profile().Name
}

// Difficulty scales speed, spawn rate and score.
type Difficulty uint8

const (
	Easy Difficulty = iota
	Normal
	Hard
)

// ParseDifficulty maps a name to a Difficulty. Unknown names are Normal.
func ParseDifficulty(s string) Difficulty {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy
	case "hard":
		return Hard
	default:
		return Normal
	}
}

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Hard:
		return "hard"
	default:
		return "normal"
	}
}

// SpeedMultiplier scales enemy speed.
func (d Difficulty) SpeedMultiplier() float64 {
	switch d {
	case Easy:
		return 0.8
	case Hard:
		return 1.25
	default:
		return 1.0
	}
}

// RateScale scales the spawn interval. Larger means slower spawning.
func (d Difficulty) RateScale() float64 {
	switch d {
	case Easy:
		return 1.3
	case Hard:
		return 0.75
	default:
		return 1.0
	}
}

// ScoreMultiplier scales kill points.
func (d Difficulty) ScoreMultiplier() float64 {
	switch d {
	case Easy:
		return 0.75
	case Hard:
		return 1.5
	default:
		return 1.0
	}
}

// UnlockShift moves archetype unlock levels.
func (d Difficulty) UnlockShift() int {
	switch d {
	case Easy:
		return 2
	case Hard:
		return -1
	default:
		return 0
	}
}

// UnlockLevel returns the first level a can spawn at under d.
func (a Archetype) UnlockLevel(d Difficulty) int {
	lvl := a.Profile().Unlock + d.UnlockShift()
	if lvl < 1 {
		lvl = 1
	}
	return lvl
}
