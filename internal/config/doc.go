// Package config defines the format-agnostic model of an application
// manifest: which components exist, what they depend on, and their per-phase
// timeout overrides. Loading a concrete format (HCL) lives in hclconf.
package config
