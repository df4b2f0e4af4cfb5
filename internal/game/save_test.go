package game

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// savedRun returns a save with a live heavy enemy, an interceptor in flight
// and a blast, plus the enemy's id.
func savedRun(t *testing.T) ([]byte, EntityID) {
	t.Helper()
	s := NewSession(SessionOptions{Random: NewSeededRandom(42)})
	if err := s.Start(Normal, Upgrades{Shield: 1, Turret: 1}); err != nil {
		t.Fatal(err)
	}
	heavy := s.reg.AddEnemy(NewEnemy(Heavy, Vec2{100, -20}, Vec2{100, s.defenseLine}, 60))
	if err := s.Fire(400, 100); err != nil {
		t.Fatal(err)
	}
	s.reg.AddExplosion(NewExplosion(ExplosionBlast, Vec2{600, 100}, 40))
	for i := 0; i < 10; i++ {
		s.Tick(testDT)
	}

	data, err := s.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	return data, heavy
}

// forge decodes a save, edits it and encodes it again.
func forge(t *testing.T, data []byte, edit func(*sessionState)) []byte {
	t.Helper()
	var st sessionState
	if err := msgpack.Unmarshal(data, &st); err != nil {
		t.Fatal(err)
	}
	edit(&st)
	out, err := msgpack.Marshal(&st)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestRestoreRejectsCorruptSaves(t *testing.T) {
	data, heavy := savedRun(t)

	firstEnemy := func(st *sessionState) *Enemy {
		for _, e := range st.Registry.Enemies {
			if e.ID == heavy {
				return e
			}
		}
		t.Fatal("heavy enemy missing from save")
		return nil
	}

	tests := []struct {
		name string
		edit func(*sessionState)
	}{
		{"unknown state", func(st *sessionState) { st.State = 9 }},
		{"unknown difficulty", func(st *sessionState) { st.Difficulty = 7 }},
		{"NaN elapsed", func(st *sessionState) { st.Elapsed = math.NaN() }},
		{"infinite shield", func(st *sessionState) { st.Shield.Energy = math.Inf(1) }},
		{"huge play area", func(st *sessionState) { st.Width = 1e9 }},
		{"zero play area", func(st *sessionState) { st.Height = 0 }},
		{"missing buildings", func(st *sessionState) { st.Registry.Buildings = st.Registry.Buildings[:3] }},
		{"nil building", func(st *sessionState) { st.Registry.Buildings[2] = nil }},
		{"unknown archetype", func(st *sessionState) { firstEnemy(st).Archetype = 200 }},
		{"negative speed", func(st *sessionState) { firstEnemy(st).Speed = -5 }},
		{"negative travel", func(st *sessionState) { firstEnemy(st).Traveled = -1 }},
		{"trail head out of range", func(st *sessionState) { firstEnemy(st).Trail.Head = 99 }},
		{"trail count out of range", func(st *sessionState) { firstEnemy(st).Trail.Count = -1 }},
		{"duplicate id", func(st *sessionState) { firstEnemy(st).ID = st.Registry.Buildings[0].ID }},
		{"id past next id", func(st *sessionState) { firstEnemy(st).ID = st.Registry.NextID + 5 }},
		{"zero id", func(st *sessionState) { firstEnemy(st).ID = 0 }},
		{"stalled interceptor", func(st *sessionState) { st.Registry.Interceptors[0].Speed = 0 }},
		{"interceptor flood", func(st *sessionState) {
			for i := 0; i <= MaxInterceptors; i++ {
				st.Registry.NextID++
				st.Registry.Interceptors = append(st.Registry.Interceptors,
					NewInterceptor(Vec2{400, 540}, Vec2{400, 100}, 420, 40))
				st.Registry.Interceptors[len(st.Registry.Interceptors)-1].ID = st.Registry.NextID
			}
		}},
		{"unknown explosion kind", func(st *sessionState) { st.Registry.Explosions[0].Kind = 17 }},
		{"garbage random state", func(st *sessionState) { st.RNGState = []byte("not a pcg") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(SessionOptions{Random: NewSeededRandom(1)})
			before := snapshotOf(s)

			err := s.Restore(forge(t, data, tt.edit))
			if !errors.Is(err, ErrCorruptSave) {
				t.Fatalf("err = %v, want ErrCorruptSave", err)
			}
			if !reflect.DeepEqual(before, snapshotOf(s)) {
				t.Error("failed restore changed the session")
			}
		})
	}
}

func TestRestoreClampsOutOfRangeValues(t *testing.T) {
	data, heavy := savedRun(t)

	enemy := func(st *sessionState) *Enemy {
		for _, e := range st.Registry.Enemies {
			if e.ID == heavy {
				return e
			}
		}
		return nil
	}

	tests := []struct {
		name  string
		edit  func(*sessionState)
		check func(*testing.T, *Session)
	}{
		{
			"health above profile",
			func(st *sessionState) { enemy(st).Health, enemy(st).MaxHealth = 1000, 1000 },
			func(t *testing.T, s *Session) {
				e, _ := s.reg.Enemy(heavy)
				if e.Health != 3 || e.MaxHealth != 3 {
					t.Errorf("health = %d/%d, want 3/3", e.Health, e.MaxHealth)
				}
			},
		},
		{
			"dead enemy",
			func(st *sessionState) { enemy(st).Health = -4 },
			func(t *testing.T, s *Session) {
				if e, _ := s.reg.Enemy(heavy); e.Health != 1 {
					t.Errorf("health = %d, want 1", e.Health)
				}
			},
		},
		{
			"travel past the end",
			func(st *sessionState) { enemy(st).Traveled, enemy(st).Total = 1e6, 1e6 },
			func(t *testing.T, s *Session) {
				e, _ := s.reg.Enemy(heavy)
				if e.Total != e.Start.Dist(e.Target) || e.Traveled != e.Total {
					t.Errorf("traveled %v of %v", e.Traveled, e.Total)
				}
			},
		},
		{
			"overcharged shield",
			func(st *sessionState) { st.Shield.Energy, st.Shield.Max = 1e6, 1e6 },
			func(t *testing.T, s *Session) {
				if sh := s.Shield(); sh.Max != 100 || sh.Energy != 100 {
					t.Errorf("shield = %v/%v, want 100/100", sh.Energy, sh.Max)
				}
			},
		},
		{
			"negative shield",
			func(st *sessionState) { st.Shield.Energy = -50 },
			func(t *testing.T, s *Session) {
				if e := s.Shield().Energy; e != 0 {
					t.Errorf("shield = %v, want 0", e)
				}
			},
		},
		{
			"combo above cap",
			func(st *sessionState) { st.Ledger.Combo.Multiplier = 99 },
			func(t *testing.T, s *Session) {
				if c := s.Combo().Multiplier; c != ComboCap {
					t.Errorf("combo = %d, want %d", c, ComboCap)
				}
			},
		},
		{
			"combo below one",
			func(st *sessionState) { st.Ledger.Combo.Multiplier = -2 },
			func(t *testing.T, s *Session) {
				if c := s.Combo().Multiplier; c != 1 {
					t.Errorf("combo = %d, want 1", c)
				}
			},
		},
		{
			"level and clock before the start",
			func(st *sessionState) { st.Level, st.Elapsed = -3, -10 },
			func(t *testing.T, s *Session) {
				if s.Level() != 1 || s.Elapsed() < 0 {
					t.Errorf("level=%d elapsed=%v", s.Level(), s.Elapsed())
				}
			},
		},
		{
			"negative score",
			func(st *sessionState) { st.Ledger.Score, st.HighScore = -500, -1 },
			func(t *testing.T, s *Session) {
				if s.Score() < 0 || s.HighScore() < 0 {
					t.Errorf("score=%d high=%d", s.Score(), s.HighScore())
				}
			},
		},
		{
			"oversized blast",
			func(st *sessionState) { st.Registry.Explosions[0].MaxRadius = 1e6 },
			func(t *testing.T, s *Session) {
				limit := Upgrades{BlastRadius: MaxUpgradeLevel}.BlastRadiusMax()
				s.reg.EachExplosion(func(x *Explosion) bool {
					if x.MaxRadius > limit {
						t.Errorf("explosion %d max radius %v above %v", x.ID, x.MaxRadius, limit)
					}
					return true
				})
			},
		},
		{
			"menu save carrying a run",
			func(st *sessionState) { st.State = StateMenu },
			func(t *testing.T, s *Session) {
				if s.Level() != 0 || s.Score() != 0 || s.reg.EnemyCount() != 0 || len(s.reg.Buildings()) != 0 {
					t.Errorf("menu kept run: level=%d score=%d enemies=%d", s.Level(), s.Score(), s.reg.EnemyCount())
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(SessionOptions{Random: NewSeededRandom(1)})
			if err := s.Restore(forge(t, data, tt.edit)); err != nil {
				t.Fatalf("Restore: %v", err)
			}
			tt.check(t, s)

			for i := 0; i < 60; i++ {
				s.Tick(testDT)
			}
		})
	}
}

func TestRestoreIgnoresDrawCount(t *testing.T) {
	data, _ := savedRun(t)
	forged := forge(t, data, func(st *sessionState) { st.Draws = 1 << 62 })

	a := NewSession(SessionOptions{Random: NewSeededRandom(1)})
	if err := a.Restore(data); err != nil {
		t.Fatal(err)
	}

	b := NewSession(SessionOptions{Random: NewSeededRandom(1)})
	begin := time.Now()
	if err := b.Restore(forged); err != nil {
		t.Fatal(err)
	}
	if d := time.Since(begin); d > time.Second {
		t.Fatalf("restore took %v", d)
	}

	for i := 0; i < 600; i++ {
		a.Tick(testDT)
		b.Tick(testDT)
	}
	if !reflect.DeepEqual(snapshotOf(a), snapshotOf(b)) {
		t.Error("draw count changed the restored sequence")
	}
}

func TestSeededRandomStateRoundTrip(t *testing.T) {
	a := NewSeededRandom(9)
	for i := 0; i < 100; i++ {
		a.Float64()
	}
	state, err := a.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	b, err := RestoreSeededRandom(a.Seed(), a.Draws(), state)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 50; i++ {
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("draw %d: %v != %v", i, x, y)
		}
	}
	if a.Draws() != b.Draws() {
		t.Errorf("draws = %d vs %d", a.Draws(), b.Draws())
	}

	if _, err := RestoreSeededRandom(1, 0, nil); err == nil {
		t.Error("restored from an empty state")
	}
}
