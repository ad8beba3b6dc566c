package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/stagehand/internal/builder"
	"github.com/vk/stagehand/internal/ctxlog"
)

// Run starts every manifest component in dependency order, then blocks until
// ctx is cancelled or a termination signal arrives, then stops and destroys
// everything in reverse order. Teardown failures are logged, not fatal:
// by the time we are stopping, the work is already done or already broken.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	if cfg.HealthcheckPort > 0 {
		a.startHealthcheckServer(cfg.HealthcheckPort)
	}

	regs, err := builder.Registrations(ctx, a.model, a.registry)
	if err != nil {
		return fmt.Errorf("building registrations: %w", err)
	}

	a.logger.Info("starting components", "count", len(regs))
	if err := a.orch.Start(ctx, regs); err != nil {
		a.logAggregate(err)
		return fmt.Errorf("start failed: %w", err)
	}
	a.logger.Info("all components started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		a.logger.Info("context cancelled, shutting down")
	}

	// Teardown runs on a fresh context: the run context is typically
	// already cancelled by now.
	stopCtx := ctxlog.WithLogger(context.Background(), a.logger)
	if err := a.orch.StopAll(stopCtx); err != nil {
		a.logAggregate(err)
	}
	if err := a.orch.DestroyAll(stopCtx); err != nil {
		a.logAggregate(err)
	}

	a.logger.Info("shutdown complete")
	return nil
}
