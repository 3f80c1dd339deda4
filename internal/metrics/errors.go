package metrics

import (
	"errors"

	"github.com/myorg/lifesim/internal/actions"
	"github.com/myorg/lifesim/internal/clock"
	"github.com/myorg/lifesim/internal/needs"
	"github.com/myorg/lifesim/internal/session"
)

// ErrorType classifies an error for the per-operation error map.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, session.ErrGameOver):
		return "game_over"
	case errors.Is(err, actions.ErrUnknownAction):
		return "unknown_action"
	case errors.Is(err, needs.ErrUnknownStat):
		return "unknown_stat"
	case errors.Is(err, needs.ErrNotInitialized):
		return "not_initialized"
	case errors.Is(err, clock.ErrInvalidDuration), errors.Is(err, needs.ErrNegativeElapsed):
		return "invalid_duration"
	case errors.Is(err, clock.ErrInvalidSpeed):
		return "invalid_speed"
	default:
		return "other"
	}
}
