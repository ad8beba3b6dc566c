// Package diag defines the stable diagnostic codes emitted by every part of
// the orchestration engine. Codes are the contract operators alert on; the
// error text around them is free to change, the codes are not.
package diag
