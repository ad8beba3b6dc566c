// Package registry holds the component-type handlers for a single
// application instance. Go modules register their types here; manifest
// component blocks reference them by type name.
package registry
