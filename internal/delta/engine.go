package delta

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/cortexmem/cortex/internal/crdt"
	"github.com/cortexmem/cortex/internal/record"
)

// CausalOrderError signals a delta whose clock claims knowledge the local
// replica has not seen yet: applying it would skip causal predecessors.
type CausalOrderError struct {
	// Agent is the clock entry that is ahead of local knowledge.
	Agent string

	// Local and Remote are the conflicting counter values.
	Local, Remote uint64
}

func (e *CausalOrderError) Error() string {
	return fmt.Sprintf("CAUSAL_ORDER_VIOLATION: delta requires %s:%d but replica has only seen %s:%d",
		e.Agent, e.Remote, e.Agent, e.Local)
}

// IsCausalOrderError reports whether err is a CausalOrderError. Uses
// errors.As to handle wrapped errors.
func IsCausalOrderError(err error) bool {
	var ce *CausalOrderError
	return errors.As(err, &ce)
}

// Engine is the stateless merge orchestrator. It holds no replica state of
// its own; every method is a pure function of its inputs.
type Engine struct{}

// NewEngine creates a merge engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Merge returns a new replica holding the merged state of local and
// remote. Neither input is modified.
func (Engine) Merge(local, remote *record.Replicated) (*record.Replicated, error) {
	merged := local.Clone()
	if err := merged.Merge(remote); err != nil {
		return nil, err
	}
	return merged, nil
}

// mergedLWW returns remote's register merged with local's, and whether the
// result differs from remote's current state.
func mergedLWW[T comparable](local, remote crdt.LWWRegister[T]) (crdt.LWWRegister[T], bool) {
	merged := remote
	merged.Merge(local)
	return merged, !merged.Equal(remote)
}

// mergedMax is mergedLWW for max-wins registers.
func mergedMax[T cmp.Ordered](local, remote crdt.MaxRegister[T]) (crdt.MaxRegister[T], bool) {
	merged := remote
	merged.Merge(local)
	return merged, !merged.Equal(remote)
}

// mergedSet is mergedLWW for observed-remove sets.
func mergedSet(local, remote *crdt.ORSet[string]) (*crdt.ORSet[string], bool) {
	merged := remote.Clone()
	merged.Merge(local)
	return merged, !merged.Equal(remote)
}

// ComputeDelta returns the field changes remote is missing relative to
// local: exactly the fields whose post-merge state differs from remote's
// current state, each carrying that post-merge state. An empty Fields list
// means remote already dominates local everywhere.
func (Engine) ComputeDelta(local, remote *record.Replicated, now time.Time) (RecordDelta, error) {
	if local.ID != remote.ID {
		return RecordDelta{}, &record.IdentityError{Local: local.ID, Remote: remote.ID}
	}

	d := RecordDelta{
		RecordID:    local.ID,
		SourceAgent: local.LocalAgent,
		Clock:       local.Clock.Clone(),
		At:          now.UTC().UnixMicro(),
	}

	content := remote.Content.Clone()
	content.Merge(local.Content)
	if !content.Equal(remote.Content) {
		d.Fields = append(d.Fields, ContentDelta{State: content})
	}

	if state, changed := mergedLWW(local.Summary, remote.Summary); changed {
		d.Fields = append(d.Fields, SummaryDelta{State: state})
	}
	if state, changed := mergedLWW(local.ValidFrom, remote.ValidFrom); changed {
		d.Fields = append(d.Fields, ValidFromDelta{State: state})
	}
	if state, changed := mergedLWW(local.ValidUntil, remote.ValidUntil); changed {
		d.Fields = append(d.Fields, ValidUntilDelta{State: state})
	}
	if state, changed := mergedLWW(local.Importance, remote.Importance); changed {
		d.Fields = append(d.Fields, ImportanceDelta{State: state})
	}
	if state, changed := mergedLWW(local.Archived, remote.Archived); changed {
		d.Fields = append(d.Fields, ArchivedDelta{State: state})
	}
	if state, changed := mergedLWW(local.SupersededBy, remote.SupersededBy); changed {
		d.Fields = append(d.Fields, SupersededByDelta{State: state})
	}

	if state, changed := mergedMax(local.Confidence, remote.Confidence); changed {
		d.Fields = append(d.Fields, ConfidenceDelta{State: state})
	}
	if state, changed := mergedMax(local.LastAccessed, remote.LastAccessed); changed {
		d.Fields = append(d.Fields, LastAccessedDelta{State: state})
	}

	count := remote.AccessCount.Clone()
	count.Merge(local.AccessCount)
	if !count.Equal(remote.AccessCount) {
		d.Fields = append(d.Fields, AccessCountDelta{State: count})
	}

	if state, changed := mergedSet(local.Tags, remote.Tags); changed {
		d.Fields = append(d.Fields, TagsDelta{State: state})
	}
	if state, changed := mergedSet(local.LinkedContexts, remote.LinkedContexts); changed {
		d.Fields = append(d.Fields, LinkedContextsDelta{State: state})
	}
	if state, changed := mergedSet(local.LinkedFiles, remote.LinkedFiles); changed {
		d.Fields = append(d.Fields, LinkedFilesDelta{State: state})
	}
	if state, changed := mergedSet(local.Supersedes, remote.Supersedes); changed {
		d.Fields = append(d.Fields, SupersedesDelta{State: state})
	}

	if hops := record.MergeHops(local.Provenance, remote.Provenance); !slices.Equal(hops, remote.Provenance) {
		d.Fields = append(d.Fields, ProvenanceDelta{Hops: hops})
	}

	return d, nil
}

// ApplyDelta merges a delta's field states into local after validating
// causal ordering: every clock entry except the source agent's own must be
// within what local has already seen, otherwise the sender knows of
// mutations local has not received and the delta is rejected with a
// CausalOrderError.
//
// Applying the same delta twice is a no-op; every carried state merges
// idempotently.
func (Engine) ApplyDelta(local *record.Replicated, d RecordDelta) error {
	if local.ID != d.RecordID {
		return &record.IdentityError{Local: local.ID, Remote: d.RecordID}
	}

	for _, agent := range d.Clock.Agents() {
		if agent == d.SourceAgent {
			continue
		}
		if remote, have := d.Clock.Get(agent), local.Clock.Get(agent); remote > have {
			return &CausalOrderError{Agent: agent, Local: have, Remote: remote}
		}
	}

	for _, fd := range d.Fields {
		switch fd := fd.(type) {
		case ContentDelta:
			local.Content.Merge(fd.State)
		case SummaryDelta:
			local.Summary.Merge(fd.State)
		case ValidFromDelta:
			local.ValidFrom.Merge(fd.State)
		case ValidUntilDelta:
			local.ValidUntil.Merge(fd.State)
		case ImportanceDelta:
			local.Importance.Merge(fd.State)
		case ArchivedDelta:
			local.Archived.Merge(fd.State)
		case SupersededByDelta:
			local.SupersededBy.Merge(fd.State)
		case ConfidenceDelta:
			local.Confidence.Merge(fd.State)
		case LastAccessedDelta:
			local.LastAccessed.Merge(fd.State)
		case AccessCountDelta:
			local.AccessCount.Merge(fd.State)
		case TagsDelta:
			local.Tags.Merge(fd.State)
			observeTags(local, fd.State)
		case LinkedContextsDelta:
			local.LinkedContexts.Merge(fd.State)
			observeTags(local, fd.State)
		case LinkedFilesDelta:
			local.LinkedFiles.Merge(fd.State)
			observeTags(local, fd.State)
		case SupersedesDelta:
			local.Supersedes.Merge(fd.State)
			observeTags(local, fd.State)
		case ProvenanceDelta:
			local.Provenance = record.MergeHops(local.Provenance, fd.Hops)
		}
	}

	local.Clock.Merge(d.Clock)
	return nil
}

// observeTags records incoming add-tags in the local tag sequence so the
// local agent never reissues a sequence number it has now seen.
func observeTags(local *record.Replicated, s *crdt.ORSet[string]) {
	for _, tags := range s.Entries() {
		for _, tag := range tags {
			local.Seqs.Observe(tag)
		}
	}
}
