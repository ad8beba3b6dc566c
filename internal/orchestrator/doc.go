// Package orchestrator composes independently-built stateful components into
// a running application. It owns the registration table and its cached
// dependency layering, and drives the three phases: start walks layers
// forward with fail-fast rollback, stop and destroy walk them in reverse
// with best-effort aggregation.
//
// The registration table is not internally locked: callers must serialize
// Register and Start calls themselves. Phase execution fans out internally
// through the task scheduler; per-component synchronization lives in each
// component's lifecycle machine.
package orchestrator
