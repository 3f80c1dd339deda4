package runner

import (
	"context"
)

// RunHeadless steps the session in fixed frames of 1/FPS real seconds as fast
// as possible until the game ends, the day limit passes, the script finishes
// or ctx is cancelled. Time only advances through the clock, so a paused or
// stopped clock with nothing left to fire ends the run as stalled.
func (r *Runner) RunHeadless(ctx context.Context) (*Result, error) {
	start, err := r.begin(ModeHeadless)
	if err != nil {
		return nil, err
	}

	frame := 1.0 / float64(r.cfg.FPS)
	reason := r.loopHeadless(ctx, frame)
	return r.finish(ModeHeadless, reason, start)
}

func (r *Runner) loopHeadless(ctx context.Context, frame float64) StopReason {
	for {
		select {
		case <-ctx.Done():
			return StopCancelled
		default:
		}

		if reason, stop := r.stopReason(); stop {
			return reason
		}

		before := r.gameHours()
		fired, _ := r.scheduler.Stats()
		r.runSteps()
		if reason, stop := r.stopReason(); stop {
			return reason
		}

		if err := r.tick(frame); err != nil {
			r.logger.Warn("tick failed", "error", err)
		}

		after, _ := r.scheduler.Stats()
		if r.gameHours() == before && after == fired && !r.sess.GameOver() {
			st := r.sess.Snapshot().Clock
			r.logger.Warn("clock is not advancing", "paused", st.Paused, "speed", st.Speed)
			return StopStalled
		}
	}
}
