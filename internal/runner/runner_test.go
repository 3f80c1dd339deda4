package runner

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myorg/lifesim/internal/clock"
	"github.com/myorg/lifesim/internal/config"
	"github.com/myorg/lifesim/internal/metrics"
	"github.com/myorg/lifesim/internal/scenario"
	"github.com/myorg/lifesim/internal/session"
	"github.com/myorg/lifesim/internal/timeline"
)

func testConfig(modify func(*config.Config)) *config.Config {
	cfg := &config.Config{
		Stats: config.DefaultStats(),
		Penalties: config.PenaltyConfig{
			HappinessPenaltyRate: 10,
			WillpowerPenaltyRate: 15,
		},
		Clock:   config.ClockConfig{BaseRate: 0.1, StartDay: 1, StartHour: 8, Speed: 1},
		Actions: config.DefaultActions(),
	}
	if modify != nil {
		modify(cfg)
	}
	return cfg
}

// noDecay keeps the player alive indefinitely.
func noDecay(cfg *config.Config) {
	cfg.Stats.BaseHungerDecayRate = 0
	cfg.Stats.BaseSleepDecayRate = 0
}

func newRunner(t *testing.T, modify func(*config.Config), rc Config, opts ...Option) *Runner {
	t.Helper()
	sess, err := session.New(testConfig(modify))
	require.NoError(t, err)
	r, err := New(sess, rc, opts...)
	require.NoError(t, err)
	return r
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, Config{})
	assert.Error(t, err)

	sess, err := session.New(testConfig(nil))
	require.NoError(t, err)

	_, err = New(sess, Config{MaxDays: -1})
	assert.Error(t, err)

	bad := &scenario.Script{Name: "bad", Steps: []*scenario.Step{
		{Name: "dance", Day: 1, Hour: 9, Kind: scenario.KindAction, Action: "dance", Enabled: true},
	}}
	_, err = New(sess, Config{}, WithScript(bad))
	assert.ErrorIs(t, err, scenario.ErrInvalidStep)
}

func TestNew_Defaults(t *testing.T) {
	r := newRunner(t, nil, Config{})
	assert.Equal(t, 30, r.Config().FPS)
	assert.Equal(t, 1.0, r.Config().SampleEveryHours)
	assert.NotEmpty(t, r.RunID())
	assert.NotNil(t, r.Collector())

	r = newRunner(t, nil, Config{}, WithRunID("fixed"))
	assert.Equal(t, "fixed", r.RunID())
}

func TestConfigFrom(t *testing.T) {
	cfg := config.LoadConfigWithDefaults()
	cfg.Output.Timeline = "/tmp/timeline.csv"

	rc := ConfigFrom(cfg)
	assert.Equal(t, cfg.Simulation.FPS, rc.FPS)
	assert.Equal(t, cfg.Simulation.MaxDays, rc.MaxDays)
	assert.Equal(t, cfg.Simulation.SampleEveryHours, rc.SampleEveryHours)
	assert.Equal(t, "/tmp/timeline.csv", rc.TimelinePath)
}

func TestRunHeadless_GameOver(t *testing.T) {
	var observed int
	r := newRunner(t, nil, Config{FPS: 1, MaxDays: 30},
		WithObserver(func(session.Snapshot) { observed++ }))

	res, err := r.RunHeadless(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StopGameOver, res.Reason)
	assert.Equal(t, ModeHeadless, res.Mode)
	assert.True(t, res.Final.GameOver)
	require.NotNil(t, res.Final.Outcome)
	assert.Equal(t, res.Final.Clock.Day, res.Final.Outcome.Day)
	assert.Positive(t, res.Frames)
	assert.Positive(t, observed)

	require.NotEmpty(t, res.Samples)
	assert.True(t, res.Samples[len(res.Samples)-1].GameOver)
	assert.Equal(t, 8.0, res.Samples[0].Hour)
	require.NotNil(t, res.Timeline)
	assert.Equal(t, len(res.Samples), res.Timeline.Samples)

	require.NotNil(t, res.Metrics)
	tick, ok := res.Metrics.Operations[metrics.OpTick]
	require.True(t, ok)
	assert.Equal(t, res.Frames, tick.Count)
	assert.Contains(t, res.Metrics.Operations, metrics.OpSample)
}

func TestRunHeadless_MaxDays(t *testing.T) {
	r := newRunner(t, noDecay, Config{FPS: 1, MaxDays: 1})

	res, err := r.RunHeadless(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StopMaxDays, res.Reason)
	assert.False(t, res.Final.GameOver)
	assert.Equal(t, 2, res.Final.Clock.Day)
}

func TestRunHeadless_Script(t *testing.T) {
	script := &scenario.Script{Name: "breakfast", Steps: []*scenario.Step{
		{Name: "eat", Day: 1, Hour: 9, Kind: scenario.KindAction, Action: "eat", Enabled: true},
		{Name: "faster", Day: 1, Hour: 9.5, Kind: scenario.KindSpeed, Speed: 2, Enabled: true},
	}}
	r := newRunner(t, noDecay, Config{FPS: 1, MaxDays: 5}, WithScript(script))

	res, err := r.RunHeadless(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StopScriptDone, res.Reason)
	assert.Equal(t, 2, res.StepsFired)
	assert.Zero(t, res.StepsFailed)
	assert.Equal(t, 2.0, res.Final.Clock.Speed)
	assert.Equal(t, 100.0, res.Final.Stats.Hunger)
	assert.Equal(t, 90, res.Final.Stats.Money)

	action, ok := res.Metrics.Operations[metrics.OpAction]
	require.True(t, ok)
	assert.Equal(t, int64(1), action.Count)
}

func TestRunHeadless_ScriptMaxDaysOverrides(t *testing.T) {
	script := &scenario.Script{Name: "short", MaxDays: 1}
	r := newRunner(t, noDecay, Config{FPS: 1, MaxDays: 30}, WithScript(script))
	assert.Equal(t, 1, r.Config().MaxDays)

	res, err := r.RunHeadless(context.Background())
	require.NoError(t, err)
	// An empty script never finishes the run on its own.
	assert.Equal(t, StopMaxDays, res.Reason)
}

func TestRunHeadless_Stalled(t *testing.T) {
	r := newRunner(t, func(cfg *config.Config) { cfg.Clock.Speed = 0 }, Config{FPS: 1, MaxDays: 3})

	res, err := r.RunHeadless(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StopStalled, res.Reason)
	assert.Equal(t, int64(1), res.Frames)
}

func TestRunHeadless_StepUnstallsClock(t *testing.T) {
	script := &scenario.Script{Name: "kick", Steps: []*scenario.Step{
		{Name: "go", Day: 1, Hour: 8, Kind: scenario.KindSpeed, Speed: 1, Enabled: true},
		{Name: "eat", Day: 1, Hour: 10, Kind: scenario.KindAction, Action: "eat", Enabled: true},
	}}
	r := newRunner(t, func(cfg *config.Config) {
		noDecay(cfg)
		cfg.Clock.Speed = 0
	}, Config{FPS: 1, MaxDays: 3}, WithScript(script))

	res, err := r.RunHeadless(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopScriptDone, res.Reason)
	assert.Equal(t, 2, res.StepsFired)
}

func TestRunHeadless_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newRunner(t, nil, Config{FPS: 1})
	res, err := r.RunHeadless(ctx)
	require.NoError(t, err)
	assert.Equal(t, StopCancelled, res.Reason)
	assert.Zero(t, res.Frames)
	assert.Len(t, res.Samples, 1)
}

func TestRunHeadless_MaxFrames(t *testing.T) {
	r := newRunner(t, noDecay, Config{FPS: 1, MaxFrames: 25})

	res, err := r.RunHeadless(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopMaxFrames, res.Reason)
	assert.Equal(t, int64(25), res.Frames)
}

func TestRunHeadless_OnlyOnce(t *testing.T) {
	r := newRunner(t, noDecay, Config{FPS: 1, MaxFrames: 1})

	_, err := r.RunHeadless(context.Background())
	require.NoError(t, err)
	_, err = r.RunHeadless(context.Background())
	assert.Error(t, err)
}

func TestRunHeadless_StreamsTimeline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeline.csv")
	r := newRunner(t, nil, Config{FPS: 1, MaxDays: 30, TimelinePath: path, FlushEvery: 5})

	res, err := r.RunHeadless(context.Background())
	require.NoError(t, err)

	entries, err := timeline.ReadCSV(path)
	require.NoError(t, err)
	assert.Len(t, entries, len(res.Samples))
	assert.True(t, entries[len(entries)-1].GameOver)
}

func TestRunRealtime_Commands(t *testing.T) {
	r := newRunner(t, noDecay, Config{FPS: 100})

	commands := make(chan Command)
	results := make(chan CommandResult, 1)

	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := r.RunRealtime(context.Background(), commands, results)
		done <- outcome{res, err}
	}()

	commands <- Command{Kind: CmdDo, Action: "eat"}
	got := <-results
	require.NoError(t, got.Err)
	assert.Equal(t, 1.0, got.Hours)
	assert.Equal(t, 90, got.Snapshot.Stats.Money)

	commands <- Command{Kind: CmdDo, Action: "dance"}
	got = <-results
	assert.Error(t, got.Err)

	commands <- Command{Kind: CmdPause}
	got = <-results
	assert.True(t, got.Snapshot.Clock.Paused)

	commands <- Command{Kind: CmdQuit}

	select {
	case out := <-done:
		require.NoError(t, out.err)
		assert.Equal(t, StopQuit, out.res.Reason)
		assert.Equal(t, ModeRealtime, out.res.Mode)
		assert.Equal(t, int64(1), out.res.Metrics.Operations[metrics.OpAction].Errors)
	case <-time.After(5 * time.Second):
		t.Fatal("realtime loop did not stop")
	}
}

func TestRunRealtime_OversizedSkipDoesNotHang(t *testing.T) {
	r := newRunner(t, noDecay, Config{FPS: 100})

	commands := make(chan Command)
	results := make(chan CommandResult, 1)
	done := make(chan error, 1)
	go func() {
		_, err := r.RunRealtime(context.Background(), commands, results)
		done <- err
	}()

	commands <- Command{Kind: CmdSkip, Hours: 1e18}
	select {
	case got := <-results:
		assert.ErrorIs(t, got.Err, clock.ErrInvalidDuration)
		assert.Equal(t, 1, got.Snapshot.Clock.Day)
	case <-time.After(5 * time.Second):
		t.Fatal("skip 1e18 blocked the realtime loop")
	}

	commands <- Command{Kind: CmdQuit}
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("realtime loop did not stop")
	}
}

func TestRunRealtime_Cancelled(t *testing.T) {
	r := newRunner(t, noDecay, Config{FPS: 100})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	res, err := r.RunRealtime(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, StopCancelled, res.Reason)
	assert.Greater(t, res.Final.Clock.Hour, 8.0)
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input string
		want  Command
	}{
		{"do eat", Command{Kind: CmdDo, Action: "eat"}},
		{"  DO Sleep 9 ", Command{Kind: CmdDo, Action: "sleep", Hours: 9}},
		{"do sleep 6h", Command{Kind: CmdDo, Action: "sleep", Hours: 6}},
		{"skip 2.5", Command{Kind: CmdSkip, Hours: 2.5}},
		{"speed 4x", Command{Kind: CmdSpeed, Speed: 4}},
		{"speed 0", Command{Kind: CmdSpeed, Speed: 0}},
		{"pause", Command{Kind: CmdPause}},
		{"resume", Command{Kind: CmdResume}},
		{"status", Command{Kind: CmdStatus}},
		{"quit", Command{Kind: CmdQuit}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCommand(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommand_Errors(t *testing.T) {
	for _, input := range []string{"do", "do eat x", "do eat 1 2", "skip", "skip -1", "speed fast", "pause now"} {
		_, err := ParseCommand(input)
		assert.Error(t, err, input)
	}

	_, err := ParseCommand("")
	assert.ErrorIs(t, err, ErrUnknownCommand)
	_, err = ParseCommand("dance")
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestParseCommand_RejectsOversizedHours(t *testing.T) {
	for _, input := range []string{"skip 1e18", "skip inf", "skip nan", "do sleep 1e18", "skip 876001h"} {
		_, err := ParseCommand(input)
		assert.ErrorIs(t, err, clock.ErrInvalidDuration, input)
	}

	cmd, err := ParseCommand("skip 876000")
	require.NoError(t, err)
	assert.Equal(t, clock.MaxElapsedHours, cmd.Hours)
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "do eat", Command{Kind: CmdDo, Action: "eat"}.String())
	assert.Equal(t, "do sleep 6", Command{Kind: CmdDo, Action: "sleep", Hours: 6}.String())
	assert.Equal(t, "skip 1.5", Command{Kind: CmdSkip, Hours: 1.5}.String())
	assert.Equal(t, "speed 2", Command{Kind: CmdSpeed, Speed: 2}.String())
	assert.Equal(t, "quit", Command{Kind: CmdQuit}.String())
}
