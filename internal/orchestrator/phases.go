package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/stagehand/internal/ctxlog"
	"github.com/vk/stagehand/internal/diag"
	"github.com/vk/stagehand/internal/ident"
	"github.com/vk/stagehand/internal/layering"
	"github.com/vk/stagehand/internal/lifecycle"
	"github.com/vk/stagehand/internal/phase"
	"github.com/vk/stagehand/internal/scheduler"
)

// Start registers the given components, recomputes the layering, and starts
// every layer in forward order. Components already started are skipped, as
// are destroyed ones, whose lifecycle is over.
//
// Registration is sequential: if one entry is rejected (duplicate, async
// provider), Start returns its error before any layer runs, and the entries
// registered before it stay registered. A later Start call picks them up.
//
// The phase is fail-fast: the first failing layer stops the walk, every
// component started so far (this layer and earlier ones) is stopped again in
// reverse layer order, and the returned aggregate carries both the root
// causes (context=normal) and any rollback failures (context=rollback).
func (o *Orchestrator) Start(ctx context.Context, regs []Registration) error {
	logger := ctxlog.FromContext(ctx)

	for _, reg := range regs {
		if err := o.Register(reg); err != nil {
			return err
		}
	}

	layers, err := o.Layers()
	if err != nil {
		return err
	}
	if o.tracer.OnLayers != nil {
		o.tracer.OnLayers(layers.All())
	}

	for layerIdx, layer := range layers.All() {
		pending := o.membersInState(layer, func(s lifecycle.State) bool {
			return s != lifecycle.StateStarted && s != lifecycle.StateDestroyed
		})
		if len(pending) == 0 {
			continue
		}
		logger.Debug("starting layer", "layer", layerIdx, "components", len(pending))

		outcomes, groupErr := o.driveGroup(ctx, pending, phase.Start, phase.ContextNormal, true)

		var failures []phase.Outcome
		for _, out := range outcomes {
			if !out.OK {
				failures = append(failures, out)
			}
		}
		if len(failures) == 0 {
			if groupErr != nil {
				return fmt.Errorf("start interrupted at layer %d: %w", layerIdx, groupErr)
			}
			continue
		}

		logger.Warn("layer failed, rolling back", "layer", layerIdx, "failures", len(failures))
		rollback := o.rollback(ctx, layers)
		agg := phase.NewAggregate(diag.CodeStartFailed, phase.Start, append(failures, rollback...))
		if groupErr != nil {
			return errors.Join(agg, groupErr)
		}
		return agg
	}

	return nil
}

// StopAll stops every started component, walking layers in reverse. Unlike
// start, this phase is best-effort: every component gets its chance, and
// failures are aggregated at the end instead of aborting sibling cleanup.
func (o *Orchestrator) StopAll(ctx context.Context) error {
	layers, err := o.Layers()
	if err != nil {
		return err
	}

	var failures []phase.Outcome
	var interrupted error
	all := layers.All()
	for i := len(all) - 1; i >= 0 && interrupted == nil; i-- {
		members := o.membersInState(all[i], func(s lifecycle.State) bool { return s == lifecycle.StateStarted })
		if len(members) == 0 {
			continue
		}
		outcomes, groupErr := o.driveGroup(ctx, members, phase.Stop, phase.ContextNormal, false)
		for _, out := range outcomes {
			if !out.OK {
				failures = append(failures, out)
			}
		}
		interrupted = groupErr
	}

	var errs []error
	if len(failures) > 0 {
		errs = append(errs, phase.NewAggregate(diag.CodeStopFailed, phase.Stop, failures))
	}
	if interrupted != nil {
		errs = append(errs, fmt.Errorf("stop interrupted: %w", interrupted))
	}
	return errors.Join(errs...)
}

// DestroyAll destroys every non-destroyed component in reverse layer order,
// best-effort, then asks the component store to dispose whatever it still
// owns, folding a store failure into the same aggregate.
func (o *Orchestrator) DestroyAll(ctx context.Context) error {
	layers, err := o.Layers()
	if err != nil {
		return err
	}

	var failures []phase.Outcome
	var interrupted error
	all := layers.All()
	for i := len(all) - 1; i >= 0 && interrupted == nil; i-- {
		members := o.membersInState(all[i], func(s lifecycle.State) bool { return s != lifecycle.StateDestroyed })
		if len(members) == 0 {
			continue
		}
		outcomes, groupErr := o.driveGroup(ctx, members, phase.Destroy, phase.ContextNormal, false)
		for _, out := range outcomes {
			if !out.OK {
				failures = append(failures, out)
			}
		}
		interrupted = groupErr
	}
	if interrupted != nil {
		// Leave the store untouched; the next DestroyAll picks it up.
		var errs []error
		if len(failures) > 0 {
			errs = append(errs, phase.NewAggregate(diag.CodeDestroyFailed, phase.Destroy, failures))
		}
		errs = append(errs, fmt.Errorf("destroy interrupted: %w", interrupted))
		return errors.Join(errs...)
	}

	if storeErr := o.store.DestroyAll(); storeErr != nil {
		var agg *phase.AggregateError
		if errors.As(storeErr, &agg) {
			failures = append(failures, agg.Failed()...)
		} else {
			failures = append(failures, phase.Outcome{
				ID:      o.storeID,
				Phase:   phase.Destroy,
				Err:     storeErr,
				Context: phase.ContextNormal,
			})
		}
	}

	if len(failures) > 0 {
		return phase.NewAggregate(diag.CodeDestroyFailed, phase.Destroy, failures)
	}
	return nil
}

// rollback stops everything currently started, most-recently-started layers
// first, collecting rollback-tagged failures. Best-effort throughout.
func (o *Orchestrator) rollback(ctx context.Context, layers *layering.Layers) []phase.Outcome {
	var started []*ident.ID
	for _, id := range o.order {
		if o.regs[id].machine.State() == lifecycle.StateStarted {
			started = append(started, id)
		}
	}

	var failures []phase.Outcome
	for _, group := range layers.Group(started) {
		outcomes, groupErr := o.driveGroup(ctx, group, phase.Stop, phase.ContextRollback, false)
		for _, out := range outcomes {
			if !out.OK {
				failures = append(failures, out)
			}
		}
		if groupErr != nil {
			// Nothing more can run under a dead context. The phase call
			// already fails with the root causes collected so far.
			ctxlog.FromContext(ctx).Warn("rollback interrupted", "reason", groupErr)
			break
		}
	}
	return failures
}

// membersInState filters a layer down to components whose machine satisfies
// the predicate, preserving layer order.
func (o *Orchestrator) membersInState(layer []*ident.ID, pred func(lifecycle.State) bool) []*ident.ID {
	var out []*ident.ID
	for _, id := range layer {
		if e, ok := o.regs[id]; ok && pred(e.machine.State()) {
			out = append(out, id)
		}
	}
	return out
}

// driveGroup executes one phase across a group of components concurrently,
// bounded by the configured layer concurrency. With failFast set, the first
// failure stops scheduling of the group's unstarted siblings; otherwise
// every member runs and errors are only collected.
//
// The returned error is batch-level only: the caller's context died and the
// group could not (fully) run. Per-component hook failures never surface
// here; they travel in the outcomes.
func (o *Orchestrator) driveGroup(ctx context.Context, ids []*ident.ID, p phase.Phase, execCtx phase.ExecContext, failFast bool) ([]phase.Outcome, error) {
	tasks := make([]scheduler.Task, len(ids))
	for i, id := range ids {
		machine := o.regs[id].machine
		tasks[i] = func(taskCtx context.Context) (any, error) {
			var err error
			switch p {
			case phase.Start:
				err = machine.Start(taskCtx)
			case phase.Stop:
				err = machine.Stop(taskCtx)
			case phase.Destroy:
				err = machine.Destroy(taskCtx)
			case phase.Create:
				err = machine.Create(taskCtx)
			}
			if failFast {
				// The error fails the batch so unstarted siblings stay
				// unscheduled.
				return err, err
			}
			// Best-effort: the error travels in the result value so every
			// sibling still runs.
			return err, nil
		}
	}

	results, runErr := scheduler.Run(ctx, tasks, scheduler.Options{Concurrency: o.cfg.LayerConcurrency})

	outcomes := make([]phase.Outcome, 0, len(ids))
	for i, res := range results {
		if !res.Started {
			continue // never attempted; not an outcome
		}
		var phaseErr error
		if res.Value != nil {
			phaseErr = res.Value.(error)
		}
		out := phase.Outcome{
			ID:       ids[i],
			Phase:    p,
			OK:       phaseErr == nil,
			Duration: res.Duration,
			TimedOut: diag.CodeOf(phaseErr) == diag.CodeHookTimeout,
			Err:      phaseErr,
			Context:  execCtx,
		}
		o.observe(out)
		outcomes = append(outcomes, out)
	}

	// A failFast task error already lives in an outcome above; only a dead
	// caller context is a batch-level failure the phase must report, or an
	// interrupted walk would read as success.
	if runErr != nil && ctx.Err() != nil {
		return outcomes, ctx.Err()
	}
	return outcomes, nil
}

// observe feeds one settled outcome to the tracer and component callbacks.
func (o *Orchestrator) observe(out phase.Outcome) {
	if o.tracer.OnOutcome != nil {
		o.tracer.OnOutcome(out)
	}
	if !out.OK {
		if o.callbacks.OnError != nil {
			o.callbacks.OnError(out.ID, out.Err)
		}
		return
	}
	switch out.Phase {
	case phase.Start:
		if o.callbacks.OnStart != nil {
			o.callbacks.OnStart(out.ID)
		}
	case phase.Stop:
		if o.callbacks.OnStop != nil {
			o.callbacks.OnStop(out.ID)
		}
	case phase.Destroy:
		if o.callbacks.OnDestroy != nil {
			o.callbacks.OnDestroy(out.ID)
		}
	}
}
