package runner

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/myorg/lifesim/internal/clock"
)

// ErrUnknownCommand is returned for input that names no command.
var ErrUnknownCommand = errors.New("unknown command")

// CommandKind identifies a play command.
type CommandKind string

const (
	CmdDo     CommandKind = "do"
	CmdSkip   CommandKind = "skip"
	CmdSpeed  CommandKind = "speed"
	CmdPause  CommandKind = "pause"
	CmdResume CommandKind = "resume"
	CmdStatus CommandKind = "status"
	CmdQuit   CommandKind = "quit"
)

// Command is one player instruction for the realtime loop.
type Command struct {
	Kind   CommandKind
	Action string
	Hours  float64
	Speed  float64
}

func (c Command) String() string {
	switch c.Kind {
	case CmdDo:
		if c.Hours > 0 {
			return fmt.Sprintf("do %s %g", c.Action, c.Hours)
		}
		return "do " + c.Action
	case CmdSkip:
		return fmt.Sprintf("skip %g", c.Hours)
	case CmdSpeed:
		return fmt.Sprintf("speed %g", c.Speed)
	}
	return string(c.Kind)
}

// ParseCommand parses one line of player input. Accepted forms:
//
//	do <action> [hours]
//	skip <hours>
//	speed <multiplier>
//	pause | resume | status | quit
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("%w: empty input", ErrUnknownCommand)
	}

	kind := CommandKind(fields[0])
	args := fields[1:]
	switch kind {
	case CmdDo:
		if len(args) < 1 || len(args) > 2 {
			return Command{}, fmt.Errorf("usage: do <action> [hours]")
		}
		cmd := Command{Kind: kind, Action: args[0]}
		if len(args) == 2 {
			h, err := parseHours(args[1])
			if err != nil {
				return Command{}, err
			}
			cmd.Hours = h
		}
		return cmd, nil

	case CmdSkip:
		if len(args) != 1 {
			return Command{}, fmt.Errorf("usage: skip <hours>")
		}
		h, err := parseHours(args[0])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: kind, Hours: h}, nil

	case CmdSpeed:
		if len(args) != 1 {
			return Command{}, fmt.Errorf("usage: speed <multiplier>")
		}
		x, err := parseNumber(args[0])
		if err != nil || x < 0 {
			return Command{}, fmt.Errorf("invalid speed %q", args[0])
		}
		return Command{Kind: kind, Speed: x}, nil

	case CmdPause, CmdResume, CmdStatus, CmdQuit:
		if len(args) != 0 {
			return Command{}, fmt.Errorf("%s takes no arguments", kind)
		}
		return Command{Kind: kind}, nil
	}

	return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
}

// parseHours accepts game hours within what the clock can move in one call.
func parseHours(s string) (float64, error) {
	h, err := parseNumber(s)
	if err != nil || !clock.ValidElapsed(h) {
		return 0, fmt.Errorf("invalid hours %q: %w", s, clock.ErrInvalidDuration)
	}
	return h, nil
}

func parseNumber(s string) (float64, error) {
	s = strings.TrimSuffix(strings.TrimSuffix(s, "h"), "x")
	return strconv.ParseFloat(s, 64)
}
