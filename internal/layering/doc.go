// Package layering computes a topological layering over a dependency graph:
// an ordered sequence of groups in which every dependency of a node lives in
// a strictly earlier group. Starting components layer by layer in forward
// order, and stopping them in reverse, is what makes orchestration correct.
package layering
