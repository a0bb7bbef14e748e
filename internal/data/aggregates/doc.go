// Package aggregates contains the infrastructure primitives for
// invariant-critical write operations: the transaction runner, the
// optimistic-concurrency guard, and the mapping from storage failures into
// the domain error contract.
package aggregates
