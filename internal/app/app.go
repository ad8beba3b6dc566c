package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vk/stagehand/internal/config"
	"github.com/vk/stagehand/internal/ctxlog"
	"github.com/vk/stagehand/internal/ident"
	"github.com/vk/stagehand/internal/metrics"
	"github.com/vk/stagehand/internal/orchestrator"
	"github.com/vk/stagehand/internal/phase"
	"github.com/vk/stagehand/internal/registry"
	"github.com/vk/stagehand/internal/store"
)

// App encapsulates one assembled application instance.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	model    *config.Model
	store    *store.Memory
	orch     *orchestrator.Orchestrator
	orchReg  *orchestrator.Registry
	promReg  *prometheus.Registry
}

// New assembles an App: logger, manifest model, component registry,
// in-memory store, metrics, and the orchestrator wired to all of them.
func New(outW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	model, err := loader.Load(ctx, cfg.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}
	logger.Debug("manifest loaded", "components", len(model.Components))

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	if err := reg.Validate(ctx, model); err != nil {
		return nil, err
	}

	promReg := prometheus.NewRegistry()
	collector := metrics.NewCollector(promReg)

	mem := store.NewMemory()
	orch := orchestrator.New(mem,
		orchestrator.WithConfig(orchestrator.Config{
			StartTimeout:     cfg.StartTimeout,
			StopTimeout:      cfg.StopTimeout,
			DestroyTimeout:   cfg.DestroyTimeout,
			LayerConcurrency: cfg.LayerConcurrency,
		}),
		orchestrator.WithTracer(collector.Tracer()),
		orchestrator.WithCallbacks(orchestrator.ComponentCallbacks{
			OnStart: func(id *ident.ID) {
				logger.Info("component started", "componentID", id.String())
			},
			OnStop: func(id *ident.ID) {
				logger.Info("component stopped", "componentID", id.String())
			},
			OnDestroy: func(id *ident.ID) {
				logger.Debug("component destroyed", "componentID", id.String())
			},
			OnError: func(id *ident.ID, err error) {
				logger.Error("component phase failed", "componentID", id.String(), "error", err)
			},
		}),
	)

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		model:    model,
		store:    mem,
		orch:     orch,
		orchReg: orchestrator.NewRegistry(map[string]*orchestrator.Orchestrator{
			orchestrator.DefaultKey: orch,
		}),
		promReg: promReg,
	}, nil
}

// Orchestrators returns the app's named orchestrator registry.
func (a *App) Orchestrators() *orchestrator.Registry { return a.orchReg }

// Registry returns the component-type registry, primarily for testing.
func (a *App) Registry() *registry.Registry { return a.registry }

// logAggregate unpacks an aggregate phase failure into structured log lines.
func (a *App) logAggregate(err error) {
	var agg *phase.AggregateError
	if !errors.As(err, &agg) {
		a.logger.Error("phase failed", "error", err)
		return
	}
	for _, out := range agg.Failed() {
		a.logger.Error("component failed",
			"componentID", out.ID.String(),
			"phase", string(out.Phase),
			"context", string(out.Context),
			"timedOut", out.TimedOut,
			"durationMs", out.Duration.Milliseconds(),
			"error", out.Err,
		)
	}
}
