// Package cli implements the ledger command line: one google/subcommands
// command per operation, all sharing the config, storage and service wiring
// in App.
package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/subcommands"

	"github.com/eshaffer321/freelance-ledger/internal/application/service"
	"github.com/eshaffer321/freelance-ledger/internal/domain/matcher"
	"github.com/eshaffer321/freelance-ledger/internal/infrastructure/config"
	"github.com/eshaffer321/freelance-ledger/internal/infrastructure/logging"
	"github.com/eshaffer321/freelance-ledger/internal/infrastructure/storage"
)

// App holds the global flags and output streams shared by every command.
type App struct {
	ConfigPath string
	Verbose    bool

	Out io.Writer
	Err io.Writer
}

// NewApp creates an App writing results to out and diagnostics to errOut.
func NewApp(out, errOut io.Writer) *App {
	return &App{Out: out, Err: errOut}
}

// RegisterFlags adds the global flags to fs.
func (a *App) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&a.ConfigPath, "config", "config.yaml", "Path to the YAML config file; environment variables are used when it is missing")
	fs.BoolVar(&a.Verbose, "verbose", false, "Debug logging")
}

// Register adds all ledger commands to c.
func (a *App) Register(c *subcommands.Commander) {
	c.Register(&forecastCmd{app: a}, "scheduling")
	c.Register(&occurrencesCmd{app: a}, "scheduling")

	c.Register(&suggestCmd{app: a}, "reconciliation")
	c.Register(&matchCmd{app: a}, "reconciliation")
	c.Register(&refreshCmd{app: a}, "reconciliation")
	c.Register(&vendorsCmd{app: a}, "reconciliation")

	c.Register(&serveCmd{app: a}, "server")
}

// Env is everything a command needs once config is loaded.
type Env struct {
	Config  *config.Config
	Logger  *slog.Logger
	Store   *storage.Storage
	Service *service.LedgerService
}

// Close releases the database.
func (e *Env) Close() error {
	return e.Store.Close()
}

// Open loads config and wires storage, clock, matcher and service. Logs are
// written to logTo.
func (a *App) Open(system string, logTo io.Writer) (*Env, error) {
	cfg := config.LoadOrEnvWithPath(a.ConfigPath)
	loggingCfg := cfg.Observability.Logging
	if a.Verbose {
		loggingCfg.Level = "debug"
	}
	base := logging.NewLoggerTo(logTo, loggingCfg)
	logger := base.With("system", system)

	clk, err := service.ClockFromConfig(cfg.Clock)
	if err != nil {
		return nil, err
	}
	mc, err := service.MatcherConfig(cfg.Matching)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Storage.DatabasePath, err)
	}

	svc := service.NewLedgerService(store, matcher.NewMatcher(mc), clk, base.With("system", "service"))

	logger.Debug("ledger opened",
		"database", cfg.Storage.DatabasePath,
		"today", svc.Today().String(),
		"min_score", cfg.Matching.MinScore)

	return &Env{Config: cfg, Logger: logger, Store: store, Service: svc}, nil
}

// open is the common preamble of the short-lived commands.
func (a *App) open(system string) (*Env, subcommands.ExitStatus) {
	env, err := a.Open(system, a.Err)
	if err != nil {
		fmt.Fprintf(a.Err, "Error: %v\n", err)
		return nil, subcommands.ExitFailure
	}
	return env, subcommands.ExitSuccess
}

// fail reports err and returns ExitFailure.
func (a *App) fail(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(a.Err, "Error: "+format+"\n", args...)
	return subcommands.ExitFailure
}

// usage reports a usage problem and returns ExitUsageError.
func (a *App) usage(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(a.Err, "Error: "+format+"\n", args...)
	return subcommands.ExitUsageError
}
