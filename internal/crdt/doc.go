// Package crdt implements the five convergent replicated primitives that
// every replicated structure in this system is composed from.
//
// Primitives:
//   - GCounter: grow-only counter (per-agent slots, value is the sum)
//   - LWWRegister: last-writer-wins register (timestamp, then agent id)
//   - MVRegister: multi-value register (keeps every concurrent write)
//   - ORSet: observed-remove set (add-wins under concurrency)
//   - MaxRegister: value from an ordered domain that only ever increases
//
// Every primitive's Merge is commutative, associative, and idempotent. These
// three laws are the acceptance criteria, not an aspiration: merging any set
// of replica states in any order and grouping yields the identical result.
// The laws are exercised against randomized states in laws_test.go.
//
// Timestamps throughout are int64 unix microseconds. Ties between writes
// with identical timestamps are broken by the lexicographically greater
// agent identifier, which is what makes same-instant writes deterministic.
//
// None of the types here are safe for concurrent use; a replica is mutated
// by one local agent at a time and hosts must serialize shared access.
package crdt
