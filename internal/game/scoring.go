package game

import "math"

// Combo tuning
const (
	ComboCap     = 8
	ComboTimeout = 2.5 // seconds
)

// ComboState tracks the kill streak multiplier.
type ComboState struct {
	Multiplier int     `json:"multiplier" msgpack:"multiplier"`
	LastKill   float64 `json:"lastKill" msgpack:"last_kill"`
	HasKill    bool    `json:"-" msgpack:"has_kill"`
}

// Ledger accumulates score for a run.
type Ledger struct {
	Score      int64      `msgpack:"score"`
	Difficulty Difficulty `msgpack:"difficulty"`
	Combo      ComboState `msgpack:"combo"`
}

// NewLedger creates an empty ledger.
func NewLedger(d Difficulty) Ledger {
	return Ledger{Difficulty: d, Combo: ComboState{Multiplier: 1}}
}

// AwardPoints returns ceil(base * diff * combo). The small epsilon keeps
// products like 10*0.75*4 = 30.000000000000004 from rounding up to 31.
func AwardPoints(base int, diffMult float64, combo int) int {
	return int(math.Ceil(float64(base)*diffMult*float64(combo) - 1e-9))
}

// RecordKill scores a kill of archetype a at time now and returns the points.
// The multiplier grows only when the previous kill is within the timeout.
func (l *Ledger) RecordKill(a Archetype, now float64) int {
	if l.Combo.HasKill && now-l.Combo.LastKill <= ComboTimeout {
		l.Combo.Multiplier++
		if l.Combo.Multiplier > ComboCap {
			l.Combo.Multiplier = ComboCap
		}
	} else {
		l.Combo.Multiplier = 1
	}
	l.Combo.LastKill = now
	l.Combo.HasKill = true

	pts := AwardPoints(a.Profile().Score, l.Difficulty.ScoreMultiplier(), l.Combo.Multiplier)
	l.Score += int64(pts)
	return pts
}

// Decay resets the multiplier once the timeout has elapsed without a kill.
func (l *Ledger) Decay(now float64) {
	if l.Combo.HasKill && now-l.Combo.LastKill > ComboTimeout {
		l.Combo.Multiplier = 1
	}
}

// Break resets the multiplier, e.g. on building loss.
func (l *Ledger) Break() {
	l.Combo.Multiplier = 1
}

// ResetCombo clears the streak entirely for a new level.
func (l *Ledger) ResetCombo() {
	l.Combo = ComboState{Multiplier: 1}
}
