package game

import (
	"math"
	"testing"
)

func TestUnlockLevel(t *testing.T) {
	tests := []struct {
		a    Archetype
		d    Difficulty
		want int
	}{
		{Standard, Easy, 1},
		{Standard, Hard, 1},
		{Fast, Normal, 2},
		{Fast, Hard, 1},
		{Fast, Easy, 4},
		{Laser, Normal, 7},
		{Laser, Hard, 6},
		{Heavy, Easy, 6},
	}

	for _, tt := range tests {
		if got := tt.a.UnlockLevel(tt.d); got != tt.want {
			t.Errorf("%s on %s: unlock = %d, want %d", tt.a, tt.d, got, tt.want)
		}
	}
}

func TestPickArchetype(t *testing.T) {
	tests := []struct {
		name  string
		level int
		d     Difficulty
		draws []float64
		want  Archetype
	}{
		{"nothing unlocked", 1, Normal, []float64{0.1}, Standard},
		{"regular roll", 2, Normal, []float64{0.9}, Standard},
		{"only fast unlocked", 2, Normal, []float64{0.1, 0.99}, Fast},
		{"hard level one", 1, Hard, []float64{0.1, 0.1}, Fast},
		// Level 3 normal: fast (3) then wobbly (3); 0.6*6 = 3.6 lands in wobbly.
		{"weighted second", 3, Normal, []float64{0.5, 0.6}, Wobbly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PickArchetype(tt.level, tt.d, &fixedRandom{vals: tt.draws})
			if got != tt.want {
				t.Errorf("PickArchetype = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPickArchetypeDrawsNothingBeforeUnlocks(t *testing.T) {
	r := &fixedRandom{vals: []float64{0.1}}
	PickArchetype(1, Normal, r)
	if r.i != 0 {
		t.Errorf("draws = %d, want 0", r.i)
	}
}

func TestSpawnDelayFloor(t *testing.T) {
	if got := SpawnDelay(40, Hard, 0); got != MinSpawnInterval {
		t.Errorf("SpawnDelay at level 40 = %v, want floor %v", got, MinSpawnInterval)
	}
	lo, hi := SpawnDelay(1, Normal, 0), SpawnDelay(1, Normal, 0.999)
	if !(lo < hi) || lo < MinSpawnInterval {
		t.Errorf("SpawnDelay range [%v, %v] invalid", lo, hi)
	}
}

func TestEnemySpeed(t *testing.T) {
	tests := []struct {
		name  string
		level int
		d     Difficulty
		a     Archetype
		want  float64
	}{
		{"base", 1, Normal, Standard, 50},
		{"capped", 40, Normal, Standard, maxBaseEnemySpeed},
		{"heavy is slow", 1, Normal, Heavy, 30},
	}

	for _, tt := range tests {
		got := EnemySpeed(tt.level, tt.d, tt.a)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: speed = %v, want %v", tt.name, got, tt.want)
		}
	}
	if EnemySpeed(1, Hard, Standard) <= EnemySpeed(1, Easy, Standard) {
		t.Error("hard is not faster than easy")
	}
}

func TestBombDropsStraight(t *testing.T) {
	// Building 0, special roll, weighted roll into Bomb, then the interval.
	s := NewSession(SessionOptions{Random: &fixedRandom{vals: []float64{0, 0.1, 0.95, 0.5}}})
	if err := s.Start(Hard, Upgrades{}); err != nil {
		t.Fatal(err)
	}
	s.level = 10
	s.elapsed = FirstSpawnDelay
	s.spawnStep()

	if s.reg.EnemyCount() != 1 {
		t.Fatalf("enemies = %d, want 1", s.reg.EnemyCount())
	}
	e := s.reg.Enemies()[0]
	if e.Archetype != Bomb {
		t.Fatalf("archetype = %s, want bomb", e.Archetype)
	}
	x := s.reg.Buildings()[0].CenterX()
	if e.Start.X != x || e.Target.X != x {
		t.Fatalf("bomb path %+v -> %+v not vertical over x=%v", e.Start, e.Target, x)
	}
	for i := 0; i < 10; i++ {
		e.Advance(0.5)
		if e.Pos.X != x {
			t.Fatalf("bomb drifted to x=%v", e.Pos.X)
		}
	}
}

func TestSpawnTargetsSurvivingBuilding(t *testing.T) {
	s := NewSession(SessionOptions{Random: &fixedRandom{vals: []float64{0.99}}})
	if err := s.Start(Normal, Upgrades{}); err != nil {
		t.Fatal(err)
	}
	bs := s.reg.Buildings()
	for _, b := range bs[1:] {
		b.Destroyed = true
	}

	for s.reg.EnemyCount() == 0 {
		s.Tick(0.05)
	}
	e := s.reg.Enemies()[0]
	if e.Target.X != bs[0].CenterX() || e.Target.Y != s.defenseLine {
		t.Errorf("target = %+v, want the center of building %d", e.Target, bs[0].ID)
	}
	if e.Start.Y != SpawnHeight {
		t.Errorf("start y = %v, want %v", e.Start.Y, SpawnHeight)
	}
}
