package game

import (
	"errors"
	"fmt"
)

// State is the session lifecycle state.
type State uint8

const (
	StateMenu State = iota
	StatePlaying
	StatePaused
	StateLevelComplete
	StateGameOver
)

func (s State) String() string {
	switch s {
	case StateMenu:
		return "MENU"
	case StatePlaying:
		return "PLAYING"
	case StatePaused:
		return "PAUSED"
	case StateLevelComplete:
		return "LEVEL_COMPLETE"
	case StateGameOver:
		return "GAME_OVER"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Errors returned by session operations.
var (
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrGameOverRunning   = errors.New("game over sequence still running")
	ErrNotPlaying        = errors.New("session is not playing")
	ErrFireCooldown      = errors.New("fire on cooldown")
	ErrInterceptorLimit  = errors.New("too many interceptors in flight")
)

func transitionError(from, to State) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// Level timing
const (
	LevelDuration    = 30.0 // seconds
	GameOverDuration = 3.0  // seconds of terminal sequence before menu is allowed
)
