package delta

import (
	"github.com/cortexmem/cortex/internal/clock"
	"github.com/cortexmem/cortex/internal/crdt"
	"github.com/cortexmem/cortex/internal/record"
)

// Field identifies a replicated record field in a delta.
type Field string

// Field identifiers, in the record's declaration order.
const (
	FieldContent        Field = "content"
	FieldSummary        Field = "summary"
	FieldValidFrom      Field = "valid_from"
	FieldValidUntil     Field = "valid_until"
	FieldImportance     Field = "importance"
	FieldArchived       Field = "archived"
	FieldSupersededBy   Field = "superseded_by"
	FieldConfidence     Field = "confidence"
	FieldLastAccessed   Field = "last_accessed"
	FieldAccessCount    Field = "access_count"
	FieldTags           Field = "tags"
	FieldLinkedContexts Field = "linked_contexts"
	FieldLinkedFiles    Field = "linked_files"
	FieldSupersedes     Field = "supersedes"
	FieldProvenance     Field = "provenance"
)

// FieldDelta is a sealed union over per-field changes. Only the *Delta
// types in this package implement it. Each variant carries the post-merge
// primitive state for its field.
type FieldDelta interface {
	Field() Field
	fieldDelta() // sealed
}

// ContentDelta carries multi-value content register state.
type ContentDelta struct {
	State *crdt.MVRegister[string]
}

func (ContentDelta) Field() Field { return FieldContent }
func (ContentDelta) fieldDelta()  {}

// SummaryDelta carries the summary register state.
type SummaryDelta struct {
	State crdt.LWWRegister[string]
}

func (SummaryDelta) Field() Field { return FieldSummary }
func (SummaryDelta) fieldDelta()  {}

// ValidFromDelta carries the validity lower bound register state.
type ValidFromDelta struct {
	State crdt.LWWRegister[int64]
}

func (ValidFromDelta) Field() Field { return FieldValidFrom }
func (ValidFromDelta) fieldDelta()  {}

// ValidUntilDelta carries the validity upper bound register state.
type ValidUntilDelta struct {
	State crdt.LWWRegister[int64]
}

func (ValidUntilDelta) Field() Field { return FieldValidUntil }
func (ValidUntilDelta) fieldDelta()  {}

// ImportanceDelta carries the importance register state.
type ImportanceDelta struct {
	State crdt.LWWRegister[string]
}

func (ImportanceDelta) Field() Field { return FieldImportance }
func (ImportanceDelta) fieldDelta()  {}

// ArchivedDelta carries the archived flag register state.
type ArchivedDelta struct {
	State crdt.LWWRegister[bool]
}

func (ArchivedDelta) Field() Field { return FieldArchived }
func (ArchivedDelta) fieldDelta()  {}

// SupersededByDelta carries the superseded-by register state.
type SupersededByDelta struct {
	State crdt.LWWRegister[string]
}

func (SupersededByDelta) Field() Field { return FieldSupersededBy }
func (SupersededByDelta) fieldDelta()  {}

// ConfidenceDelta carries the confidence max-register state.
type ConfidenceDelta struct {
	State crdt.MaxRegister[float64]
}

func (ConfidenceDelta) Field() Field { return FieldConfidence }
func (ConfidenceDelta) fieldDelta()  {}

// LastAccessedDelta carries the last-accessed max-register state.
type LastAccessedDelta struct {
	State crdt.MaxRegister[int64]
}

func (LastAccessedDelta) Field() Field { return FieldLastAccessed }
func (LastAccessedDelta) fieldDelta()  {}

// AccessCountDelta carries the access grow-only counter state.
type AccessCountDelta struct {
	State *crdt.GCounter
}

func (AccessCountDelta) Field() Field { return FieldAccessCount }
func (AccessCountDelta) fieldDelta()  {}

// TagsDelta carries the tag observed-remove set state.
type TagsDelta struct {
	State *crdt.ORSet[string]
}

func (TagsDelta) Field() Field { return FieldTags }
func (TagsDelta) fieldDelta()  {}

// LinkedContextsDelta carries the linked-context set state.
type LinkedContextsDelta struct {
	State *crdt.ORSet[string]
}

func (LinkedContextsDelta) Field() Field { return FieldLinkedContexts }
func (LinkedContextsDelta) fieldDelta()  {}

// LinkedFilesDelta carries the linked-file set state.
type LinkedFilesDelta struct {
	State *crdt.ORSet[string]
}

func (LinkedFilesDelta) Field() Field { return FieldLinkedFiles }
func (LinkedFilesDelta) fieldDelta()  {}

// SupersedesDelta carries the supersedes set state.
type SupersedesDelta struct {
	State *crdt.ORSet[string]
}

func (SupersedesDelta) Field() Field { return FieldSupersedes }
func (SupersedesDelta) fieldDelta()  {}

// ProvenanceDelta carries the full merged provenance trail.
type ProvenanceDelta struct {
	Hops []record.Hop
}

func (ProvenanceDelta) Field() Field { return FieldProvenance }
func (ProvenanceDelta) fieldDelta()  {}

// RecordDelta is the transport payload for one record: the fields the
// receiver is missing, plus the sender's causal context.
type RecordDelta struct {
	// RecordID identifies the record the delta applies to.
	RecordID string

	// SourceAgent is the agent that computed the delta.
	SourceAgent string

	// Clock is the sender's vector clock at computation time.
	Clock *clock.Vector

	// Fields lists the changed fields in declaration order.
	Fields []FieldDelta

	// At is the computation timestamp in unix microseconds.
	At int64
}
