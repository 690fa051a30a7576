// Package install holds the vocabulary of an install run: the ordered
// pipeline stages, the failure kinds they map to, and the operator identity
// recorded in logs.
//
// Error.Detail picks the most specific message available so the CLI can
// report a remote error payload instead of a generic status line.
package install
