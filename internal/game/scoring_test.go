package game

import "testing"

func TestAwardPoints(t *testing.T) {
	tests := []struct {
		name  string
		base  int
		diff  float64
		combo int
		want  int
	}{
		{"standard normal", 10, 1.0, 1, 10},
		{"easy rounds up", 15, 0.75, 1, 12},
		{"easy exact product", 10, 0.75, 4, 30},
		{"hard combo", 10, 1.5, 3, 45},
		{"hard capped", 30, 1.5, ComboCap, 360},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AwardPoints(tt.base, tt.diff, tt.combo); got != tt.want {
				t.Errorf("AwardPoints(%d, %v, %d) = %d, want %d", tt.base, tt.diff, tt.combo, got, tt.want)
			}
		})
	}
}

func TestComboWindow(t *testing.T) {
	l := NewLedger(Normal)

	if pts := l.RecordKill(Standard, 0); pts != 10 || l.Combo.Multiplier != 1 {
		t.Fatalf("first kill: pts=%d combo=%d", pts, l.Combo.Multiplier)
	}
	if pts := l.RecordKill(Standard, 1.0); pts != 20 || l.Combo.Multiplier != 2 {
		t.Fatalf("second kill: pts=%d combo=%d", pts, l.Combo.Multiplier)
	}
	// 3.0s after the previous kill: outside the window.
	if pts := l.RecordKill(Standard, 4.0); pts != 10 || l.Combo.Multiplier != 1 {
		t.Fatalf("late kill: pts=%d combo=%d", pts, l.Combo.Multiplier)
	}
	if l.Score != 40 {
		t.Errorf("score = %d, want 40", l.Score)
	}
}

func TestComboBoundaryAndCap(t *testing.T) {
	l := NewLedger(Normal)
	l.RecordKill(Standard, 0)
	l.RecordKill(Standard, ComboTimeout) // Exactly at the timeout still counts
	if l.Combo.Multiplier != 2 {
		t.Fatalf("combo = %d, want 2", l.Combo.Multiplier)
	}

	for i := 0; i < 20; i++ {
		l.RecordKill(Standard, ComboTimeout+float64(i)*0.1)
	}
	if l.Combo.Multiplier != ComboCap {
		t.Errorf("combo = %d, want cap %d", l.Combo.Multiplier, ComboCap)
	}
}

func TestComboDecay(t *testing.T) {
	l := NewLedger(Hard)
	l.Decay(100) // No kill yet: nothing to decay
	if l.Combo.Multiplier != 1 {
		t.Fatal("decay without kill changed the multiplier")
	}

	l.RecordKill(Standard, 0)
	l.RecordKill(Standard, 1)
	l.Decay(3.5)
	if l.Combo.Multiplier != 2 {
		t.Errorf("decayed at exactly the timeout: combo = %d", l.Combo.Multiplier)
	}
	l.Decay(3.6)
	if l.Combo.Multiplier != 1 {
		t.Errorf("combo = %d after timeout, want 1", l.Combo.Multiplier)
	}
}

func TestShieldAbsorb(t *testing.T) {
	var sh ShieldState
	if sh.Active() {
		t.Fatal("zero shield active")
	}

	sh.Refill(100)
	want := []float64{70, 40, 10, 0, 0}
	for i, w := range want {
		sh.Absorb(float64(i))
		if sh.Energy != w {
			t.Fatalf("absorb %d: energy = %v, want %v", i+1, sh.Energy, w)
		}
	}
	if sh.Active() {
		t.Error("depleted shield active")
	}
	if sh.Fraction() != 0 {
		t.Errorf("fraction = %v, want 0", sh.Fraction())
	}
}
