package crdt

import (
	"cmp"
	"fmt"
)

// Tag uniquely identifies a single add operation in an observed-remove set.
//
// Tags are generated locally from (agent identifier, per-agent sequence
// number) pairs, so uniqueness never requires shared state across replicas:
// an agent only ever issues its own sequence numbers.
type Tag struct {
	// Agent is the replica owner that performed the add.
	Agent string

	// Seq is the agent's monotonically increasing sequence number.
	Seq uint64
}

// Compare orders tags by (Agent, Seq). Used wherever a deterministic tag
// ordering is needed (canonical serialization, test diagnostics).
func (t Tag) Compare(other Tag) int {
	if c := cmp.Compare(t.Agent, other.Agent); c != 0 {
		return c
	}
	return cmp.Compare(t.Seq, other.Seq)
}

// String renders the tag as "agent#seq".
func (t Tag) String() string {
	return fmt.Sprintf("%s#%d", t.Agent, t.Seq)
}

// TagSequence tracks the highest sequence number observed per agent and
// issues fresh tags for the local agent.
//
// Replicas merge sequences (per-agent maximum) alongside the structures the
// tags live in, so a replica restored from serialized state never reissues
// a sequence number it has already seen.
type TagSequence map[string]uint64

// NewTagSequence creates an empty tag sequence.
func NewTagSequence() TagSequence {
	return make(TagSequence)
}

// Next issues a fresh tag for agent, advancing its sequence.
func (s TagSequence) Next(agent string) Tag {
	s[agent]++
	return Tag{Agent: agent, Seq: s[agent]}
}

// Observe records a tag seen in remote state, so locally issued tags never
// collide with it.
func (s TagSequence) Observe(tag Tag) {
	if tag.Seq > s[tag.Agent] {
		s[tag.Agent] = tag.Seq
	}
}

// Merge folds other into s, taking the per-agent maximum.
func (s TagSequence) Merge(other TagSequence) {
	for agent, seq := range other {
		if seq > s[agent] {
			s[agent] = seq
		}
	}
}

// Clone returns an independent copy of the sequence.
func (s TagSequence) Clone() TagSequence {
	out := make(TagSequence, len(s))
	for agent, seq := range s {
		out[agent] = seq
	}
	return out
}

// Equal reports whether both sequences hold identical counters.
func (s TagSequence) Equal(other TagSequence) bool {
	if len(s) != len(other) {
		return false
	}
	for agent, seq := range s {
		if other[agent] != seq {
			return false
		}
	}
	return true
}
