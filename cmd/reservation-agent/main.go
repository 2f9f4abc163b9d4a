// Command reservation-agent serves the classroom reservation decision API.
//
// With -evaluate it instead decides a single reservation read from a file,
// or from stdin when the argument is "-", prints the decision as JSON and
// exits.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/upb/classroom-reservation-agent/app"
	"github.com/upb/classroom-reservation-agent/config"
	"github.com/upb/classroom-reservation-agent/internal/observability"
	"github.com/upb/classroom-reservation-agent/routes"
	"github.com/upb/classroom-reservation-agent/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	flags := flag.NewFlagSet("reservation-agent", flag.ContinueOnError)
	evaluatePath := flags.String("evaluate", "", "evaluate one reservation from `file` (- for stdin) and exit")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.New(ctx)
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg.Observability)
	if err != nil {
		return err
	}

	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize dependencies", zap.Error(err))
		_ = logger.Sync()
		return err
	}
	defer func() { _ = deps.Close(context.Background()) }()

	if *evaluatePath != "" {
		return evaluateOnce(ctx, deps, *evaluatePath, stdin, stdout)
	}

	ln, err := net.Listen("tcp", cfg.Server.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Address(), err)
	}
	return serve(ctx, deps, ln)
}

// initLogger builds the process logger from the observability settings
func initLogger(cfg config.ObservabilityConfig) (*zap.Logger, error) {
	level := cfg.LogLevel
	if level == "" {
		level = "info"
	}
	return observability.NewLogger(level, cfg.LogFormat)
}

func evaluateOnce(ctx context.Context, deps *app.Dependencies, path string, stdin io.Reader, stdout io.Writer) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(io.LimitReader(stdin, deps.Config.Server.MaxBodyBytes))
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return services.WrapInternal("failed to read reservation", err)
	}

	decision, err := deps.Engine.Evaluate(ctx, string(data))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(decision)
}

// serve runs the HTTP server on ln until ctx is cancelled, then drains
// in-flight requests within the shutdown timeout.
func serve(ctx context.Context, deps *app.Dependencies, ln net.Listener) error {
	cfg := deps.Config.Server
	srv := &http.Server{
		Handler:           routes.SetupRoutes(deps),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		deps.Logger.Info("reservation agent listening",
			zap.String("addr", ln.Addr().String()),
			zap.String("environment", deps.Config.Environment),
		)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	deps.Logger.Info("initiating graceful shutdown", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	deps.Logger.Info("server stopped")
	return nil
}
