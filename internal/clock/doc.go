// Package clock implements per-agent logical clocks for causal ordering.
//
// A Vector maps agent identifiers to monotonically increasing counters.
// Replicas advance their own entry on each local mutation and merge clocks
// (component-wise maximum) whenever two replica states are combined.
//
// Comparison semantics:
//   - HappensBefore: every counter <= the other's, at least one strictly less
//   - ConcurrentWith: neither side happens-before the other
//   - Dominates: >= on every counter (equality allowed)
//
// Vectors are NOT safe for concurrent use. A replica is owned by a single
// local agent; hosts sharing a replica across goroutines must serialize
// access externally.
package clock
