package game

// Shield tuning
const (
	ShieldRadius = 70.0
	ShieldCost   = 30.0
)

// ShieldState is the consumable barrier over the launcher.
type ShieldState struct {
	Energy  float64 `json:"energy" msgpack:"energy"`
	Max     float64 `json:"max" msgpack:"max"`
	LastHit float64 `json:"lastHit" msgpack:"last_hit"`
}

// Refill sets a new capacity and fills the shield.
func (s *ShieldState) Refill(capacity float64) {
	if capacity < 0 {
		capacity = 0
	}
	s.Max = capacity
	s.Energy = capacity
	s.LastHit = 0
}

// Active reports whether the shield can absorb.
func (s *ShieldState) Active() bool {
	return s.Energy > 0
}

// Absorb spends one absorption at time now, clamped at zero.
func (s *ShieldState) Absorb(now float64) {
	s.Energy -= ShieldCost
	if s.Energy < 0 {
		s.Energy = 0
	}
	s.LastHit = now
}

// Fraction is Energy/Max, zero when there is no shield.
func (s *ShieldState) Fraction() float64 {
	if s.Max <= 0 {
		return 0
	}
	return s.Energy / s.Max
}
