// Package codec serializes replica state to canonical JSON.
//
// Two wire formats are defined, one per replicated structure:
//
//	cortex.replica.v1 - a record replica, full primitive state
//	cortex.graph.v1   - a causal graph replica
//
// Encoding captures internal CRDT state (add-tags, tombstones, clock and
// sequence counters), not a resolved snapshot, so a decoded replica merges
// exactly like the original. Output is canonical per RFC 8785: object keys
// sorted by UTF-16 code units, strings NFC normalized, no HTML escaping,
// shortest-form numbers. Two replicas hold the same state if and only if
// their encodings are byte-identical, which is what convergence checks
// compare.
package codec
