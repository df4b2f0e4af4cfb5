// Package audio turns simulation cues into short synthesized sounds.
//
// Synth implements game.AudioSink on the simulation side and beep.Streamer
// on the output side, so it can feed the local speaker or any other beep
// consumer. Cue never blocks on audio output.
package audio

import (
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"arcade-defense/internal/game"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

// DefaultSampleRate is used when the config does not set one.
const DefaultSampleRate = beep.SampleRate(44100)

// MaxVoices caps concurrently playing cues. Extra cues are dropped.
const MaxVoices = 16

var _ game.AudioSink = (*Synth)(nil)

// Synth mixes cue voices.
type Synth struct {
	mu      sync.Mutex
	rate    beep.SampleRate
	volume  float64
	mixer   *beep.Mixer
	rng     *rand.Rand
	dropped uint64
	played  map[string]uint64
}

// NewSynth creates a synth. volume is the master volume in [0, 1].
func NewSynth(rate beep.SampleRate, volume float64) *Synth {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	return &Synth{
		rate:   rate,
		volume: math.Max(0, math.Min(1, volume)),
		mixer:  &beep.Mixer{},
		rng:    rand.New(rand.NewSource(1)),
		played: make(map[string]uint64),
	}
}

// SampleRate returns the output sample rate.
func (s *Synth) SampleRate() beep.SampleRate { return s.rate }

// Cue starts the sound for name scaled by intensity in [0, 1].
// Unknown cues are ignored.
func (s *Synth) Cue(name string, intensity float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mixer.Len() >= MaxVoices {
		s.dropped++
		return
	}
	voice := s.voice(name)
	if voice == nil {
		return
	}

	gain := s.volume * math.Max(0, math.Min(1, intensity))
	s.mixer.Add(newVolume(voice, gain))
	s.played[name]++
}

// voice builds the streamer for a cue. Callers hold s.mu.
func (s *Synth) voice(name string) beep.Streamer {
	ms := time.Millisecond
	switch name {
	case game.CueWarning:
		// Two short high beeps.
		return beep.Seq(s.tone(WaveSquare, 880, 80*ms), s.silence(60*ms), s.tone(WaveSquare, 880, 80*ms))
	case game.CueShoot:
		return s.sweep(900, 300, 120*ms)
	case game.CueTurretShoot:
		return s.sweep(1400, 700, 60*ms)
	case game.CueExplosionLight:
		return s.noise(250 * ms)
	case game.CueExplosionHeavy:
		return beep.Mix(s.noise(600*ms), s.tone(WaveSine, 55, 600*ms))
	case game.CueShieldHit:
		return beep.Mix(s.sine(660, 150*ms), s.sine(990, 150*ms))
	case game.CueNuke:
		return beep.Seq(s.noise(1200*ms), s.sweep(220, 40, 1800*ms))
	default:
		return nil
	}
}

func (s *Synth) sine(freq float64, d time.Duration) beep.Streamer {
	tone, err := generators.SineTone(s.rate, freq)
	if err != nil {
		log.Printf("⚠️ sine tone %.0fHz: %v", freq, err)
		return s.silence(d)
	}
	return NewEnvelope(beep.Take(s.rate.N(d), tone), d, 5*time.Millisecond, d/2, s.rate)
}

func (s *Synth) tone(wave WaveType, freq float64, d time.Duration) beep.Streamer {
	return NewEnvelope(NewOscillator(freq, freq, d, wave, s.rate, nil), d, 5*time.Millisecond, d/3, s.rate)
}

func (s *Synth) sweep(from, to float64, d time.Duration) beep.Streamer {
	return NewEnvelope(NewOscillator(from, to, d, WaveSaw, s.rate, nil), d, 2*time.Millisecond, d/2, s.rate)
}

func (s *Synth) noise(d time.Duration) beep.Streamer {
	return NewEnvelope(NewOscillator(0, 0, d, WaveNoise, s.rate, s.rng), d, time.Millisecond, d*3/4, s.rate)
}

func (s *Synth) silence(d time.Duration) beep.Streamer {
	return generators.Silence(s.rate.N(d))
}

// Stream implements beep.Streamer. It never runs dry; with no active voices
// it produces silence.
func (s *Synth) Stream(samples [][2]float64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, _ := s.mixer.Stream(samples)
	for i := n; i < len(samples); i++ {
		samples[i] = [2]float64{}
	}
	return len(samples), true
}

// Err implements beep.Streamer.
func (s *Synth) Err() error { return nil }

// Active returns the number of playing voices.
func (s *Synth) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mixer.Len()
}

// Stats returns per-cue play counts and dropped cues.
func (s *Synth) Stats() map[string]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]uint64, len(s.played)+1)
	for k, v := range s.played {
		out[k] = v
	}
	out["dropped"] = s.dropped
	return out
}

// Clear stops every voice.
func (s *Synth) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mixer.Clear()
}

// PlayOnSpeaker opens the default audio device and plays the synth on it.
func PlayOnSpeaker(s *Synth) error {
	if err := speaker.Init(s.rate, s.rate.N(100*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(s)
	log.Printf("🔊 Audio output at %d Hz", s.rate)
	return nil
}

// newVolume scales s linearly by gain. Zero gain is silent.
func newVolume(s beep.Streamer, gain float64) beep.Streamer {
	if gain <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(gain)}
}
