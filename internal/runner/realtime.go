package runner

import (
	"context"
	"time"

	"github.com/myorg/lifesim/internal/clock"
	"github.com/myorg/lifesim/internal/session"
)

// CommandResult reports how the realtime loop handled a command.
type CommandResult struct {
	Command  Command
	Hours    float64
	Err      error
	Snapshot session.Snapshot
}

// RunRealtime ticks the session off the wall-time source at FPS frames per
// second and applies commands between frames. The session is only touched by
// this goroutine. Results for each command are sent on results when it is not
// nil; the send is skipped if nobody is receiving.
func (r *Runner) RunRealtime(ctx context.Context, commands <-chan Command, results chan<- CommandResult) (*Result, error) {
	start, err := r.begin(ModeRealtime)
	if err != nil {
		return nil, err
	}

	src := r.source
	if src == nil {
		src = clock.NewRealSource()
		defer src.Stop()
	}

	reason := r.loopRealtime(ctx, src, commands, results)
	return r.finish(ModeRealtime, reason, start)
}

func (r *Runner) loopRealtime(ctx context.Context, src clock.Source, commands <-chan Command, results chan<- CommandResult) StopReason {
	ticker := src.Ticker(time.Second / time.Duration(r.cfg.FPS))
	defer ticker.Stop()

	last := src.Now()
	for {
		if reason, stop := r.stopReason(); stop {
			return reason
		}

		select {
		case <-ctx.Done():
			return StopCancelled
		case <-src.Done():
			return StopCancelled
		case now := <-ticker.C:
			delta := now.Sub(last).Seconds()
			last = now
			if delta <= 0 {
				continue
			}
			r.runSteps()
			if err := r.tick(delta); err != nil {
				r.logger.Warn("tick failed", "error", err)
			}
		case cmd, ok := <-commands:
			if !ok {
				commands = nil
				continue
			}
			if cmd.Kind == CmdQuit {
				return StopQuit
			}
			res := r.apply(cmd)
			if res.Err != nil {
				r.logger.Debug("command failed", "command", cmd.String(), "error", res.Err)
			}
			if results != nil {
				select {
				case results <- res:
				default:
				}
			}
		}
	}
}

// apply runs one command against the session.
func (r *Runner) apply(cmd Command) CommandResult {
	res := CommandResult{Command: cmd}
	t := timedTarget{r}
	switch cmd.Kind {
	case CmdDo:
		res.Hours, res.Err = t.Perform(cmd.Action, cmd.Hours)
	case CmdSkip:
		res.Err = t.Skip(cmd.Hours)
		if res.Err == nil {
			res.Hours = cmd.Hours
		}
	case CmdSpeed:
		res.Err = t.SetSpeed(cmd.Speed)
	case CmdPause:
		r.sess.Pause()
	case CmdResume:
		res.Err = r.sess.Resume()
	case CmdStatus:
	default:
		res.Err = ErrUnknownCommand
	}
	res.Snapshot = r.sess.Snapshot()
	return res
}
