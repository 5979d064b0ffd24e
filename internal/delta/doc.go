// Package delta is the stateless merge orchestrator for replicated records.
//
// Instead of shipping a full replica on every sync, a sender computes the
// list of field-level changes the receiver is missing (ComputeDelta) and
// the receiver applies them after validating causal ordering (ApplyDelta).
// Each field change carries the post-merge primitive state for that field,
// so applying a delta is itself an idempotent merge: replays and reordered
// deliveries of the same delta are harmless.
//
// FieldDelta is a closed union over the record's fields. The set of field
// kinds is fixed at compile time, so it is modeled as a sealed interface
// (only the types in this package implement it) rather than an open
// runtime-polymorphic one.
package delta
