// Package record wraps a plain knowledge record in convergent replicated
// primitives, one per field, chosen by each field's mutation semantics.
//
// Field-to-primitive mapping:
//
//	| Field                        | Primitive       | Merge semantics            |
//	|------------------------------|-----------------|----------------------------|
//	| ID, CreatedAt, SourceAgent   | immutable       | copied, never merged       |
//	| Content                      | MVRegister      | concurrent edits all kept  |
//	| Summary, Importance          | LWWRegister     | last edit wins             |
//	| ValidFrom, ValidUntil        | LWWRegister     | can be corrected           |
//	| Archived, SupersededBy       | LWWRegister     | explicit state change wins |
//	| Confidence, LastAccessed     | MaxRegister     | only ever strengthens      |
//	| AccessCount                  | GCounter        | per-agent slots, summed    |
//	| Tags, links, Supersedes      | ORSet           | add wins over remove       |
//	| Provenance                   | append-only     | deduplicating union        |
//
// Because every field merges independently through a primitive that is
// itself commutative, associative, and idempotent, the whole-record merge
// inherits those laws.
//
// A Replicated is owned by one local agent. Local mutations advance the
// embedded vector clock; Merge combines any two replicas of the same
// record; Snapshot projects back to a plain Memory and never fails: an
// unresolved multi-value Content picks its greatest value and flags the
// snapshot as conflicted instead of dropping data.
package record
