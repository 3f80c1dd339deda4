package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/myorg/lifesim/internal/clock"
	"github.com/myorg/lifesim/internal/feed"
	"github.com/myorg/lifesim/internal/locale"
	"github.com/myorg/lifesim/internal/runner"
	"github.com/myorg/lifesim/internal/session"
)

var playCfg simFlags

var playExtra struct {
	Feed      string
	TimeScale int
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in real time",
	Long: `Play the simulation in real time. The clock advances with the wall clock
(0.1 game hours per second at 1x) and commands are read from stdin:

  do <action> [hours]   perform an action (eat, sleep 8, work, study)
  skip <hours>          jump ahead
  speed <multiplier>    change clock speed (0 stops the clock)
  pause | resume        stop or restart the clock
  status                print the current state
  quit                  end the game

With --feed, snapshots are streamed as JSON over a websocket at /ws and
viewers may send the same commands.

Examples:
  lifesim play
  lifesim play --speed 10 --feed :8080
  lifesim play --scenario routine --time-scale 60
`,
	RunE: runPlay,
}

func init() {
	addSimFlags(playCmd, &playCfg)
	playCmd.Flags().StringVar(&playExtra.Feed, "feed", "", "serve a websocket snapshot feed on this address")
	playCmd.Flags().IntVar(&playExtra.TimeScale, "time-scale", 1, "run the wall clock this many times faster")
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := playCfg.applyFlags(cfg, cmd.Flags().Changed); err != nil {
		return err
	}
	if playExtra.TimeScale < 1 {
		return fmt.Errorf("--time-scale must be >= 1")
	}

	script, err := loadScenario(playCfg.Scenario)
	if err != nil {
		return err
	}

	sess, tr, err := newSession(cfg)
	if err != nil {
		return err
	}

	commands := make(chan runner.Command, 8)
	results := make(chan runner.CommandResult, 16)
	// The runner, the stdin reader and the result printer all write here.
	out := &lockedWriter{w: cmd.OutOrStdout()}

	opts := []runner.Option{
		runner.WithLogger(slog.Default()),
		runner.WithScript(script),
		runner.WithSource(clock.NewSource(playExtra.TimeScale)),
	}

	var hub *feed.Hub
	if playExtra.Feed != "" {
		hub = feed.NewHub(feed.WithLogger(slog.Default()), feed.WithCommands(commands))
		server := feed.NewServer(hub, playExtra.Feed)
		if err := server.Start(ctx); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			_ = server.Shutdown(shutdownCtx)
		}()
		opts = append(opts, runner.WithObserver(hub.Publish))
	}

	r, err := runner.New(sess, runner.ConfigFrom(cfg), opts...)
	if err != nil {
		return fmt.Errorf("creating runner: %w", err)
	}

	sess.OnDayChanged(func(day int) {
		fmt.Fprintln(out, tr.Tf(locale.KeyDayLabel, map[string]any{"Day": day}))
	})

	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()
	go readCommands(readCtx, cmd.InOrStdin(), commands, out)

	printDone := make(chan struct{})
	go func() {
		defer close(printDone)
		for res := range results {
			printResult(out, tr, res)
			if hub != nil {
				hub.PublishResult(res)
			}
		}
	}()

	fmt.Fprintln(out, statusLine(tr, sess.Snapshot()))
	res, err := r.RunRealtime(ctx, commands, results)
	stopReading()
	close(results)
	<-printDone
	if err != nil {
		return fmt.Errorf("running simulation: %w", err)
	}

	rpt := buildReport(res, cfg, tr, script)
	return finishRun(ctx, res, rpt, cfg, &playCfg, tr)
}

// lockedWriter serializes writes from several goroutines.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

// readCommands parses stdin lines into commands and sends quit at EOF. Once
// ctx ends it returns at the next line read; while stdin stays open and
// silent it remains blocked in Scan, which only matters until the process
// exits.
func readCommands(ctx context.Context, in io.Reader, commands chan<- runner.Command, out io.Writer) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		cmd, err := runner.ParseCommand(line)
		if err != nil {
			fmt.Fprintln(out, "?", err)
			continue
		}
		select {
		case commands <- cmd:
		case <-ctx.Done():
			return
		}
	}
	select {
	case commands <- runner.Command{Kind: runner.CmdQuit}:
	case <-ctx.Done():
	}
}

// printResult writes one command result in a single Write so it cannot be
// split by concurrent output.
func printResult(out io.Writer, tr *locale.Translator, res runner.CommandResult) {
	var b strings.Builder
	if res.Err != nil {
		fmt.Fprintf(&b, "! %s: %v\n", res.Command, res.Err)
		io.WriteString(out, b.String())
		return
	}
	if res.Command.Kind == runner.CmdDo {
		b.WriteString(tr.Tf(locale.KeyActionDone, map[string]any{
			"Action": res.Command.Action,
			"Hours":  strconv.FormatFloat(res.Hours, 'f', -1, 64),
		}))
		b.WriteByte('\n')
	}
	b.WriteString(statusLine(tr, res.Snapshot))
	b.WriteByte('\n')
	io.WriteString(out, b.String())
}

// statusLine renders a one-line view of the session.
func statusLine(tr *locale.Translator, snap session.Snapshot) string {
	st := snap.Stats
	clockLabel := tr.Tf(locale.KeyClockLabel, map[string]any{
		"Day":  snap.Clock.Day,
		"Hour": fmt.Sprintf("%02d", int(snap.Clock.Hour)),
	})
	speed := tr.Tf(locale.KeySpeedLabel, map[string]any{
		"Speed": strconv.FormatFloat(snap.Clock.Speed, 'f', -1, 64),
	})
	if snap.Clock.Paused {
		speed = tr.T(locale.KeyPausedLabel)
	}
	line := fmt.Sprintf("[%s | %s] %s %.0f  %s %.0f  %s %d  %s %d  %s %d  %s %.1f%%",
		clockLabel, speed,
		tr.T(locale.KeyStatHunger), st.Hunger,
		tr.T(locale.KeyStatSleep), st.Sleep,
		tr.T(locale.KeyStatHappiness), st.Happiness,
		tr.T(locale.KeyStatWillpower), st.Willpower,
		tr.T(locale.KeyStatMoney), st.Money,
		tr.T(locale.KeyStatEmploymentChance), st.EmploymentChance)
	if snap.Outcome != nil {
		line += "\n" + tr.T(locale.KeyGameOverTitle) + ": " + snap.Outcome.Reason
	}
	return line
}
