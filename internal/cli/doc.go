// Package cli parses command-line arguments into an app configuration,
// layered over environment-derived defaults.
package cli
