package record

import (
	"fmt"
	"slices"
	"time"

	"github.com/cortexmem/cortex/internal/clock"
	"github.com/cortexmem/cortex/internal/crdt"
)

// Replicated is the per-field replicated wrapper around a Memory.
//
// Fields are exported so that the delta engine and the codec can reach the
// primitive state directly; hosts mutate through the methods below, which
// keep the vector clock and tag sequence in step. See the package doc for
// the field-to-primitive mapping.
type Replicated struct {
	// Immutable identity, copied at construction and never merged.
	ID          string
	CreatedAt   int64
	SourceAgent string

	// LocalAgent is the identity this replica mutates as. It is per
	// replica, not per record: two replicas of the same record carry
	// different local agents.
	LocalAgent string

	Content      *crdt.MVRegister[string]
	Summary      crdt.LWWRegister[string]
	ValidFrom    crdt.LWWRegister[int64]
	ValidUntil   crdt.LWWRegister[int64]
	Importance   crdt.LWWRegister[string]
	Archived     crdt.LWWRegister[bool]
	SupersededBy crdt.LWWRegister[string]

	Confidence   crdt.MaxRegister[float64]
	LastAccessed crdt.MaxRegister[int64]
	AccessCount  *crdt.GCounter

	Tags           *crdt.ORSet[string]
	LinkedContexts *crdt.ORSet[string]
	LinkedFiles    *crdt.ORSet[string]
	Supersedes     *crdt.ORSet[string]

	Provenance []Hop
	Clock      *clock.Vector
	Seqs       crdt.TagSequence
}

// IdentityError signals a merge between replicas of different records.
type IdentityError struct {
	Local, Remote string
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("IDENTITY_MISMATCH: cannot merge record %q with record %q", e.Local, e.Remote)
}

// FromMemory wraps a plain record, seeding every primitive from its current
// values. All writes are stamped with now and attributed to agent.
func FromMemory(m Memory, agent string, now time.Time) *Replicated {
	stamp := stampOf(now.UTC())

	r := &Replicated{
		ID:          m.ID,
		CreatedAt:   stampOf(m.CreatedAt),
		SourceAgent: m.SourceAgent,
		LocalAgent:  agent,

		Content:      crdt.NewMVRegister(m.Content, stamp, agent),
		Summary:      crdt.NewLWWRegister(m.Summary, stamp, agent),
		ValidFrom:    crdt.NewLWWRegister(stampOf(m.ValidFrom), stamp, agent),
		ValidUntil:   crdt.NewLWWRegister(stampOf(m.ValidUntil), stamp, agent),
		Importance:   crdt.NewLWWRegister(string(m.Importance), stamp, agent),
		Archived:     crdt.NewLWWRegister(m.Archived, stamp, agent),
		SupersededBy: crdt.NewLWWRegister(m.SupersededBy, stamp, agent),

		Confidence:   crdt.NewMaxRegister(clamp01(m.Confidence)),
		LastAccessed: crdt.NewMaxRegister(stampOf(m.LastAccessed)),
		AccessCount:  crdt.NewGCounter(),

		Tags:           crdt.NewORSet[string](),
		LinkedContexts: crdt.NewORSet[string](),
		LinkedFiles:    crdt.NewORSet[string](),
		Supersedes:     crdt.NewORSet[string](),

		Clock: clock.New(),
		Seqs:  crdt.NewTagSequence(),
	}

	if m.AccessCount > 0 {
		// The seed count is attributed to the wrapping agent so that the
		// round-trip law holds. Wrapping the same plain record on several
		// agents and merging would sum the seeds; replicate by merging
		// wrapped state instead.
		_ = r.AccessCount.Increment(agent, m.AccessCount)
	}

	for _, tag := range m.Tags {
		r.Tags.Add(tag, r.Seqs.Next(agent))
	}
	for _, ctx := range m.LinkedContexts {
		r.LinkedContexts.Add(ctx, r.Seqs.Next(agent))
	}
	for _, file := range m.LinkedFiles {
		r.LinkedFiles.Add(file, r.Seqs.Next(agent))
	}
	for _, id := range m.Supersedes {
		r.Supersedes.Add(id, r.Seqs.Next(agent))
	}

	r.Clock.Advance(agent)
	r.Provenance = appendHop(r.Provenance, Hop{Agent: agent, Action: "created", At: stamp})
	return r
}

// Snapshot projects the replicated state back into a plain Memory.
//
// Never fails: an unresolved multi-value Content deterministically picks
// its greatest value and sets Conflicted instead of panicking or dropping
// data.
func (r *Replicated) Snapshot() Memory {
	m := Memory{
		ID:           r.ID,
		Summary:      r.Summary.Get(),
		ValidFrom:    timeOf(r.ValidFrom.Get()),
		ValidUntil:   timeOf(r.ValidUntil.Get()),
		Confidence:   r.Confidence.Get(),
		Importance:   Importance(r.Importance.Get()),
		AccessCount:  r.AccessCount.Value(),
		LastAccessed: timeOf(r.LastAccessed.Get()),
		SupersededBy: r.SupersededBy.Get(),
		Archived:     r.Archived.Get(),
		CreatedAt:    timeOf(r.CreatedAt),
		SourceAgent:  r.SourceAgent,
	}

	if cur, ok := r.Content.Current(); ok {
		m.Content = cur.Value
	}
	m.Conflicted = r.Content.IsConflicted()

	m.Tags = sortedElements(r.Tags)
	m.LinkedContexts = sortedElements(r.LinkedContexts)
	m.LinkedFiles = sortedElements(r.LinkedFiles)
	m.Supersedes = sortedElements(r.Supersedes)
	return m
}

func sortedElements(s *crdt.ORSet[string]) []string {
	elems := s.Elements()
	slices.Sort(elems)
	if len(elems) == 0 {
		return nil
	}
	return elems
}

// Merge folds another replica of the same record into this one, merging
// every field's primitive independently plus the embedded clock, tag
// sequence, and provenance trail. Replicas of different records are a
// caller error.
func (r *Replicated) Merge(other *Replicated) error {
	if r.ID != other.ID {
		return &IdentityError{Local: r.ID, Remote: other.ID}
	}

	r.Content.Merge(other.Content)
	r.Summary.Merge(other.Summary)
	r.ValidFrom.Merge(other.ValidFrom)
	r.ValidUntil.Merge(other.ValidUntil)
	r.Importance.Merge(other.Importance)
	r.Archived.Merge(other.Archived)
	r.SupersededBy.Merge(other.SupersededBy)

	r.Confidence.Merge(other.Confidence)
	r.LastAccessed.Merge(other.LastAccessed)
	r.AccessCount.Merge(other.AccessCount)

	r.Tags.Merge(other.Tags)
	r.LinkedContexts.Merge(other.LinkedContexts)
	r.LinkedFiles.Merge(other.LinkedFiles)
	r.Supersedes.Merge(other.Supersedes)

	r.Provenance = MergeHops(r.Provenance, other.Provenance)
	r.Clock.Merge(other.Clock)
	r.Seqs.Merge(other.Seqs)
	return nil
}

// Equal reports whether two replicas hold identical replicated state
// (identity, every primitive, provenance, and clock). Local agent identity
// is per replica and excluded.
func (r *Replicated) Equal(other *Replicated) bool {
	if r.ID != other.ID || r.CreatedAt != other.CreatedAt || r.SourceAgent != other.SourceAgent {
		return false
	}
	if !r.Content.Equal(other.Content) ||
		!r.Summary.Equal(other.Summary) ||
		!r.ValidFrom.Equal(other.ValidFrom) ||
		!r.ValidUntil.Equal(other.ValidUntil) ||
		!r.Importance.Equal(other.Importance) ||
		!r.Archived.Equal(other.Archived) ||
		!r.SupersededBy.Equal(other.SupersededBy) {
		return false
	}
	if !r.Confidence.Equal(other.Confidence) ||
		!r.LastAccessed.Equal(other.LastAccessed) ||
		!r.AccessCount.Equal(other.AccessCount) {
		return false
	}
	if !r.Tags.Equal(other.Tags) ||
		!r.LinkedContexts.Equal(other.LinkedContexts) ||
		!r.LinkedFiles.Equal(other.LinkedFiles) ||
		!r.Supersedes.Equal(other.Supersedes) {
		return false
	}
	if !slices.Equal(r.Provenance, other.Provenance) {
		return false
	}
	return r.Clock.Equal(other.Clock)
}

// Clone returns an independent deep copy of the replica. The clone keeps
// the same local agent; use Rebind to hand it to a different one.
func (r *Replicated) Clone() *Replicated {
	out := &Replicated{
		ID:          r.ID,
		CreatedAt:   r.CreatedAt,
		SourceAgent: r.SourceAgent,
		LocalAgent:  r.LocalAgent,

		Content:      r.Content.Clone(),
		Summary:      r.Summary,
		ValidFrom:    r.ValidFrom,
		ValidUntil:   r.ValidUntil,
		Importance:   r.Importance,
		Archived:     r.Archived,
		SupersededBy: r.SupersededBy,

		Confidence:   r.Confidence,
		LastAccessed: r.LastAccessed,
		AccessCount:  r.AccessCount.Clone(),

		Tags:           r.Tags.Clone(),
		LinkedContexts: r.LinkedContexts.Clone(),
		LinkedFiles:    r.LinkedFiles.Clone(),
		Supersedes:     r.Supersedes.Clone(),

		Provenance: slices.Clone(r.Provenance),
		Clock:      r.Clock.Clone(),
		Seqs:       r.Seqs.Clone(),
	}
	return out
}

// Rebind returns a clone owned by a different local agent. Replicated
// state is shared; only the mutation identity changes.
func (r *Replicated) Rebind(agent string) *Replicated {
	out := r.Clone()
	out.LocalAgent = agent
	return out
}

// --- local mutations -------------------------------------------------------
//
// Every mutation advances the local agent's clock entry; that is what makes
// concurrent edits on different replicas detectable as concurrent.

func (r *Replicated) bump() {
	r.Clock.Advance(r.LocalAgent)
}

// SetContent records a content edit. Prior concurrent values are preserved
// until ResolveContent.
func (r *Replicated) SetContent(content string, now time.Time) {
	r.Content.Set(content, stampOf(now.UTC()), r.LocalAgent)
	r.bump()
}

// ResolveContent explicitly collapses concurrent content values to one.
func (r *Replicated) ResolveContent(content string) {
	r.Content.Resolve(content, r.LocalAgent)
	r.bump()
}

// SetSummary updates the summary; last writer wins.
func (r *Replicated) SetSummary(summary string, now time.Time) {
	r.Summary.Set(summary, stampOf(now.UTC()), r.LocalAgent)
	r.bump()
}

// SetImportance reclassifies the record; last writer wins.
func (r *Replicated) SetImportance(level Importance, now time.Time) {
	r.Importance.Set(string(level), stampOf(now.UTC()), r.LocalAgent)
	r.bump()
}

// SetValidity corrects the temporal validity bounds; last writer wins.
func (r *Replicated) SetValidity(from, until time.Time, now time.Time) {
	stamp := stampOf(now.UTC())
	r.ValidFrom.Set(stampOf(from), stamp, r.LocalAgent)
	r.ValidUntil.Set(stampOf(until), stamp, r.LocalAgent)
	r.bump()
}

// SetArchived archives or restores the record; last writer wins.
func (r *Replicated) SetArchived(archived bool, now time.Time) {
	r.Archived.Set(archived, stampOf(now.UTC()), r.LocalAgent)
	r.bump()
}

// SetSupersededBy points at the record that replaces this one.
func (r *Replicated) SetSupersededBy(id string, now time.Time) {
	r.SupersededBy.Set(id, stampOf(now.UTC()), r.LocalAgent)
	r.bump()
}

// BoostConfidence strengthens confidence; weaker values are ignored. Input
// is clamped to [0, 1].
func (r *Replicated) BoostConfidence(confidence float64) {
	r.Confidence.Set(clamp01(confidence))
	r.bump()
}

// Touch records an access: bumps the per-agent access counter and
// strengthens the last-accessed stamp.
func (r *Replicated) Touch(now time.Time) {
	_ = r.AccessCount.Increment(r.LocalAgent, 1)
	r.LastAccessed.Set(stampOf(now.UTC()))
	r.bump()
}

// AddTag adds a tag under a fresh unique add-tag.
func (r *Replicated) AddTag(tag string) {
	r.Tags.Add(tag, r.Seqs.Next(r.LocalAgent))
	r.bump()
}

// RemoveTag tombstones every locally observed add of the tag.
func (r *Replicated) RemoveTag(tag string) {
	r.Tags.Remove(tag)
	r.bump()
}

// AddLinkedContext links a related context artifact.
func (r *Replicated) AddLinkedContext(id string) {
	r.LinkedContexts.Add(id, r.Seqs.Next(r.LocalAgent))
	r.bump()
}

// RemoveLinkedContext unlinks a context artifact.
func (r *Replicated) RemoveLinkedContext(id string) {
	r.LinkedContexts.Remove(id)
	r.bump()
}

// AddLinkedFile links a related file.
func (r *Replicated) AddLinkedFile(path string) {
	r.LinkedFiles.Add(path, r.Seqs.Next(r.LocalAgent))
	r.bump()
}

// RemoveLinkedFile unlinks a file.
func (r *Replicated) RemoveLinkedFile(path string) {
	r.LinkedFiles.Remove(path)
	r.bump()
}

// AddSupersedes marks this record as superseding another.
func (r *Replicated) AddSupersedes(id string) {
	r.Supersedes.Add(id, r.Seqs.Next(r.LocalAgent))
	r.bump()
}

// RecordHop appends a provenance hop for the local agent.
func (r *Replicated) RecordHop(action string, now time.Time) {
	r.Provenance = appendHop(r.Provenance, Hop{
		Agent:  r.LocalAgent,
		Action: action,
		At:     stampOf(now.UTC()),
	})
	r.bump()
}
