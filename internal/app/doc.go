// Package app assembles a runnable application instance: logger, manifest,
// component registry, store, metrics, and the orchestrator that drives them.
package app
