// Package lifecycle implements the per-component finite state machine
// (created → started → stopped → destroyed) whose phase hooks execute
// through the task scheduler with concurrency fixed at 1, so a hook and its
// post-transition callback run strictly in order under one shared deadline.
package lifecycle
