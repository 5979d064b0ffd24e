package clock

import (
	"fmt"
	"slices"
	"strings"
)

// Vector is a vector clock: agent identifier -> event counter.
//
// The zero value is not usable; construct with New or FromMap.
type Vector struct {
	counts map[string]uint64
}

// New creates an empty vector clock.
func New() *Vector {
	return &Vector{counts: make(map[string]uint64)}
}

// FromMap creates a vector clock from an existing counter map.
// The map is copied; the caller keeps ownership of its argument.
func FromMap(counts map[string]uint64) *Vector {
	v := New()
	for agent, n := range counts {
		if n > 0 {
			v.counts[agent] = n
		}
	}
	return v
}

// Advance increments the counter for agent by one and returns the new value.
// Counters for a given agent never decrease within a replica's lifetime.
func (v *Vector) Advance(agent string) uint64 {
	v.counts[agent]++
	return v.counts[agent]
}

// Get returns the counter for agent. Absent agents read as zero.
func (v *Vector) Get(agent string) uint64 {
	return v.counts[agent]
}

// Agents returns all agent identifiers with a nonzero counter, sorted.
func (v *Vector) Agents() []string {
	agents := make([]string, 0, len(v.counts))
	for agent := range v.counts {
		agents = append(agents, agent)
	}
	slices.Sort(agents)
	return agents
}

// Len returns the number of agents with a nonzero counter.
func (v *Vector) Len() int {
	return len(v.counts)
}

// Merge folds other into v, taking the component-wise maximum.
// Agents absent from one side are treated as zero. Merge is commutative,
// associative, and idempotent by construction.
func (v *Vector) Merge(other *Vector) {
	if other == nil {
		return
	}
	for agent, n := range other.counts {
		if n > v.counts[agent] {
			v.counts[agent] = n
		}
	}
}

// HappensBefore reports whether v causally precedes other: every counter in
// v is <= the corresponding counter in other, and at least one is strictly
// less.
func (v *Vector) HappensBefore(other *Vector) bool {
	strict := false
	for agent, n := range v.counts {
		on := other.counts[agent]
		if n > on {
			return false
		}
		if n < on {
			strict = true
		}
	}
	for agent, on := range other.counts {
		if v.counts[agent] < on {
			strict = true
		}
	}
	return strict
}

// ConcurrentWith reports whether neither clock happens-before the other.
func (v *Vector) ConcurrentWith(other *Vector) bool {
	return !v.HappensBefore(other) && !other.HappensBefore(v)
}

// Dominates reports whether v is >= other on every counter. Unlike
// HappensBefore, equal clocks dominate each other.
func (v *Vector) Dominates(other *Vector) bool {
	for agent, on := range other.counts {
		if v.counts[agent] < on {
			return false
		}
	}
	return true
}

// Equal reports whether both clocks hold identical counters.
func (v *Vector) Equal(other *Vector) bool {
	if len(v.counts) != len(other.counts) {
		return false
	}
	for agent, n := range v.counts {
		if other.counts[agent] != n {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the clock.
func (v *Vector) Clone() *Vector {
	return FromMap(v.counts)
}

// Counts returns a copy of the underlying counter map.
func (v *Vector) Counts() map[string]uint64 {
	out := make(map[string]uint64, len(v.counts))
	for agent, n := range v.counts {
		out[agent] = n
	}
	return out
}

// String renders the clock as "{a:1, b:3}" with agents in sorted order.
// Used in error messages and test diagnostics.
func (v *Vector) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, agent := range v.Agents() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s:%d", agent, v.counts[agent])
	}
	b.WriteByte('}')
	return b.String()
}
