package main

import (
	"testing"

	"arcade-defense/internal/game"
)

func TestViewportRoundTrip(t *testing.T) {
	v := viewport{cols: 80, rows: 25, worldW: 800, worldH: 600}

	tests := []struct {
		x, y int
	}{
		{0, 1}, {79, 24}, {40, 12},
	}
	for _, tt := range tests {
		p := v.toWorld(tt.x, tt.y)
		if x, y := v.toCell(p); x != tt.x || y != tt.y {
			t.Errorf("cell (%d,%d) -> %v -> (%d,%d)", tt.x, tt.y, p, x, y)
		}
	}
}

func TestViewportHUDRowIsOutside(t *testing.T) {
	v := viewport{cols: 80, rows: 25, worldW: 800, worldH: 600}
	if _, y := v.toCell(game.Vec2{X: 10, Y: 0}); y != hudRows {
		t.Errorf("world top maps to row %d, want %d", y, hudRows)
	}
	if v.inside(0, 0) {
		t.Error("HUD row reported as play area")
	}
}

func TestBannerForEveryWaitingState(t *testing.T) {
	for _, st := range []game.State{game.StateMenu, game.StatePaused, game.StateLevelComplete, game.StateGameOver} {
		if bannerFor(st.String()) == "" {
			t.Errorf("no banner for %s", st)
		}
	}
	if bannerFor(game.StatePlaying.String()) != "" {
		t.Error("banner shown while playing")
	}
}
