// Package store provides the in-memory component store: it materializes
// validated providers into live instances, serves lookups during phase
// execution, and disposes whatever it still owns at teardown.
//
// The store is ephemeral and thread-safe. Instances live in a sync.Map
// because phase execution reads many keys concurrently while registration
// writes each key exactly once.
package store
