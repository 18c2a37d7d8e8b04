package cli

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"

	"github.com/eshaffer321/freelance-ledger/internal/api"
)

type serveCmd struct {
	app  *App
	port int
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the HTTP API" }
func (*serveCmd) Usage() string {
	return `serve [-port <port>]:
  Serve the ledger API until SIGINT or SIGTERM.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.port, "port", 0, "Port to listen on (default from config)")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	env, err := c.app.Open("api", os.Stdout)
	if err != nil {
		return c.app.fail("%v", err)
	}
	defer func() { _ = env.Close() }()

	if err := RunServe(ctx, env, c.port); err != nil {
		return c.app.fail("%v", err)
	}
	return subcommands.ExitSuccess
}

// RunServe runs the API server until ctx is done or a shutdown signal
// arrives. A non-zero port overrides the configured one.
func RunServe(ctx context.Context, env *Env, port int) error {
	logger := env.Logger

	apiCfg := api.ConfigFrom(env.Config.Server)
	if port != 0 {
		apiCfg.Port = port
	}

	server := api.NewServer(apiCfg, env.Service, logger)

	// Handle graceful shutdown
	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	go func() {
		select {
		case <-quit:
			logger.Info("received shutdown signal")
		case <-ctx.Done():
			logger.Info("context canceled")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", slog.Any("error", err))
		}
		close(done)
	}()

	// Start server (blocks until shutdown)
	if err := server.Start(); err != nil {
		return err
	}

	<-done
	logger.Info("server stopped")
	return nil
}
