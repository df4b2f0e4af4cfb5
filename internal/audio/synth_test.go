package audio

import (
	"math"
	"testing"
	"time"

	"arcade-defense/internal/game"

	"github.com/gopxl/beep"
)

const testRate = beep.SampleRate(8000)

func drain(s beep.Streamer, n int) (peak float64) {
	buf := make([][2]float64, 256)
	for n > 0 {
		chunk := buf
		if n < len(chunk) {
			chunk = chunk[:n]
		}
		got, _ := s.Stream(chunk)
		for _, smp := range chunk[:got] {
			peak = math.Max(peak, math.Abs(smp[0]))
		}
		n -= len(chunk)
	}
	return peak
}

func TestEveryCueProducesSound(t *testing.T) {
	cues := []string{
		game.CueWarning, game.CueShoot, game.CueTurretShoot,
		game.CueExplosionLight, game.CueExplosionHeavy, game.CueShieldHit, game.CueNuke,
	}
	for _, cue := range cues {
		t.Run(cue, func(t *testing.T) {
			s := NewSynth(testRate, 1)
			s.Cue(cue, 1)
			if s.Active() != 1 {
				t.Fatalf("active = %d, want 1", s.Active())
			}
			if peak := drain(s, testRate.N(100*time.Millisecond)); peak == 0 {
				t.Error("cue was silent")
			}
		})
	}
}

func TestUnknownCueIgnored(t *testing.T) {
	s := NewSynth(testRate, 1)
	s.Cue("laser-cat", 1)
	if s.Active() != 0 {
		t.Errorf("active = %d", s.Active())
	}
}

func TestVoicesFinish(t *testing.T) {
	s := NewSynth(testRate, 1)
	s.Cue(game.CueTurretShoot, 1)
	drain(s, testRate.N(200*time.Millisecond))
	if s.Active() != 0 {
		t.Errorf("active = %d after the cue ended", s.Active())
	}

	// The synth keeps streaming silence with nothing to play.
	buf := make([][2]float64, 64)
	n, ok := s.Stream(buf)
	if n != len(buf) || !ok {
		t.Errorf("idle stream = %d, %v", n, ok)
	}
}

func TestVoiceLimit(t *testing.T) {
	s := NewSynth(testRate, 1)
	for i := 0; i < MaxVoices+5; i++ {
		s.Cue(game.CueExplosionLight, 1)
	}
	if s.Active() != MaxVoices {
		t.Errorf("active = %d, want %d", s.Active(), MaxVoices)
	}
	stats := s.Stats()
	if stats["dropped"] != 5 || stats[game.CueExplosionLight] != MaxVoices {
		t.Errorf("stats = %v", stats)
	}

	s.Clear()
	if s.Active() != 0 {
		t.Error("Clear left voices")
	}
}

func TestIntensityScalesVolume(t *testing.T) {
	loud := NewSynth(testRate, 1)
	loud.Cue(game.CueShieldHit, 1)
	quiet := NewSynth(testRate, 1)
	quiet.Cue(game.CueShieldHit, 0.25)
	mute := NewSynth(testRate, 1)
	mute.Cue(game.CueShieldHit, 0)

	n := testRate.N(50 * time.Millisecond)
	pl, pq, pm := drain(loud, n), drain(quiet, n), drain(mute, n)
	if !(pl > pq && pq > 0) {
		t.Errorf("peaks loud=%v quiet=%v", pl, pq)
	}
	if pm != 0 {
		t.Errorf("zero intensity peak = %v", pm)
	}
}

func TestEnvelopeEndsOnTime(t *testing.T) {
	osc := NewOscillator(440, 440, time.Second, WaveSquare, testRate, nil)
	env := NewEnvelope(osc, 100*time.Millisecond, 10*time.Millisecond, 10*time.Millisecond, testRate)

	total := 0
	buf := make([][2]float64, 100)
	for {
		n, ok := env.Stream(buf)
		total += n
		if !ok {
			break
		}
	}
	if want := testRate.N(100 * time.Millisecond); total != want {
		t.Errorf("envelope streamed %d samples, want %d", total, want)
	}
}
