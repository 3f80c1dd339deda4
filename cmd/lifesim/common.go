package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/myorg/lifesim/internal/config"
	"github.com/myorg/lifesim/internal/database"
	"github.com/myorg/lifesim/internal/locale"
	"github.com/myorg/lifesim/internal/report"
	"github.com/myorg/lifesim/internal/runner"
	"github.com/myorg/lifesim/internal/scenario"
	"github.com/myorg/lifesim/internal/session"
	"github.com/myorg/lifesim/internal/store"
)

// Store backends accepted by --store.
const (
	storeNone     = ""
	storeSQLite   = "sqlite"
	storePostgres = "postgres"
)

// simFlags are the flags shared by run and play.
type simFlags struct {
	Scenario string
	Speed    float64
	Locale   string
	FPS      int
	MaxDays  int
	Output   string
	Timeline string
	Store    string
	NoColor  bool
}

// loadConfig reads the config file when given, otherwise the defaults.
func loadConfig() (*config.Config, error) {
	if globalCfg.ConfigFile == "" {
		return config.LoadConfigWithDefaults(), nil
	}
	cfg, err := config.LoadConfig(globalCfg.ConfigFile)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags overrides config values with flags that were set.
func (f *simFlags) applyFlags(cfg *config.Config, changed func(string) bool) error {
	if changed("speed") {
		cfg.Clock.Speed = f.Speed
	}
	if changed("locale") {
		cfg.Simulation.Locale = f.Locale
	}
	if changed("fps") {
		cfg.Simulation.FPS = f.FPS
	}
	if changed("max-days") {
		cfg.Simulation.MaxDays = f.MaxDays
	}
	if changed("output") {
		cfg.Output.Report = f.Output
	}
	if changed("timeline") {
		cfg.Output.Timeline = f.Timeline
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	switch f.Store {
	case storeNone, storeSQLite, storePostgres:
	default:
		return fmt.Errorf("--store must be %q or %q", storeSQLite, storePostgres)
	}
	return nil
}

// newSession builds a translator and a session from cfg.
func newSession(cfg *config.Config) (*session.Session, *locale.Translator, error) {
	tr, err := locale.New(cfg.Simulation.Locale)
	if err != nil {
		return nil, nil, fmt.Errorf("loading locale: %w", err)
	}
	sess, err := session.New(cfg, session.WithLogger(slog.Default()), session.WithTranslator(tr))
	if err != nil {
		return nil, nil, fmt.Errorf("creating session: %w", err)
	}
	return sess, tr, nil
}

// loadScenario resolves --scenario; an empty ref means no script.
func loadScenario(ref string) (*scenario.Script, error) {
	if ref == "" {
		return nil, nil
	}
	script, err := scenario.LoadScript(ref)
	if err != nil {
		return nil, fmt.Errorf("loading scenario: %w", err)
	}
	return script, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// buildReport assembles the report for a finished run.
func buildReport(res *runner.Result, cfg *config.Config, tr *locale.Translator, script *scenario.Script) *report.Report {
	info := report.RunInfo{
		RunID:      res.RunID,
		StartTime:  res.StartTime,
		EndTime:    res.EndTime,
		Duration:   res.Duration,
		Mode:       string(res.Mode),
		ConfigPath: globalCfg.ConfigFile,
		Locale:     tr.Language(),
		Speed:      cfg.Clock.Speed,
		FPS:        cfg.Simulation.FPS,
		MaxDays:    cfg.Simulation.MaxDays,
		Frames:     res.Frames,
	}
	if script != nil {
		info.Scenario = script.Name
		if script.MaxDays > 0 {
			info.MaxDays = script.MaxDays
		}
	}
	return report.GenerateReport(report.Input{
		RunInfo:  info,
		Final:    res.Final,
		Metrics:  res.Metrics,
		Timeline: res.Timeline,
	})
}

// finishRun writes the report file, prints the summary and exports the run.
func finishRun(ctx context.Context, res *runner.Result, rpt *report.Report, cfg *config.Config, f *simFlags, tr *locale.Translator) error {
	if cfg.Output.Report != "" {
		if err := rpt.WriteToFile(cfg.Output.Report); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		slog.Info("report written", "path", cfg.Output.Report)
	}

	formatter := report.NewConsoleFormatter().
		WithReportPath(cfg.Output.Report).
		WithTranslator(tr)
	if f.NoColor {
		formatter = formatter.WithNoColor(true)
	}
	formatter.PrintSummary(rpt)

	if f.Store == storeNone {
		return nil
	}

	// The run context may already be cancelled by the signal that ended it.
	exportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	rs, err := openStore(exportCtx, cfg, f.Store)
	if err != nil {
		return err
	}
	defer rs.Close()

	run := store.RunFromResult(res, rpt.RunInfo.Scenario, rpt.RunInfo.Locale)
	if err := store.Save(exportCtx, rs, run, res.Samples); err != nil {
		return err
	}
	slog.Info("run exported", "store", f.Store, "run_id", run.ID, "samples", len(res.Samples))
	return nil
}

// openStore opens and initializes the named result store.
func openStore(ctx context.Context, cfg *config.Config, kind string) (store.ResultStore, error) {
	var rs store.ResultStore
	switch kind {
	case storeSQLite:
		path := cfg.SQLite.Path
		if path == "" {
			path = "lifesim.db"
		}
		s, err := store.OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		rs = s
	case storePostgres:
		pool, err := database.Connect(ctx, &cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		rs = store.NewPostgresStore(pool)
	default:
		return nil, fmt.Errorf("unknown store %q", kind)
	}

	if err := rs.Init(ctx); err != nil {
		rs.Close()
		return nil, err
	}
	return rs, nil
}
