package crdt

import (
	"cmp"
	"slices"
)

// Triple is a single write held by a multi-value register.
type Triple[T cmp.Ordered] struct {
	// Value is the written value.
	Value T

	// Stamp is the write timestamp in unix microseconds.
	Stamp int64

	// Agent is the identifier of the writing agent.
	Agent string
}

// Compare orders triples by (Value, Stamp, Agent).
func (t Triple[T]) Compare(other Triple[T]) int {
	if c := cmp.Compare(t.Value, other.Value); c != 0 {
		return c
	}
	if c := cmp.Compare(t.Stamp, other.Stamp); c != 0 {
		return c
	}
	return cmp.Compare(t.Agent, other.Agent)
}

// MVRegister is a multi-value register: the set of writes not yet resolved
// into a single value.
//
// Unlike a last-writer-wins register, nothing is discarded automatically.
// Concurrent writes accumulate until Resolve collapses the register, and
// Resolve is an explicit caller action, never invoked inside Merge. Readers
// that need a single value use Current, which picks deterministically so
// that every replica projects the same value from the same state.
type MVRegister[T cmp.Ordered] struct {
	triples []Triple[T]
}

// NewMVRegister creates a register seeded with one write.
func NewMVRegister[T cmp.Ordered](value T, stamp int64, agent string) *MVRegister[T] {
	r := &MVRegister[T]{}
	r.Set(value, stamp, agent)
	return r
}

// MVRegisterFromTriples reconstructs a register from serialized triples.
func MVRegisterFromTriples[T cmp.Ordered](triples []Triple[T]) *MVRegister[T] {
	r := &MVRegister[T]{}
	for _, t := range triples {
		r.insert(t)
	}
	return r
}

// Set records a new write alongside any existing ones. Prior writes are
// kept; only Resolve removes them.
func (r *MVRegister[T]) Set(value T, stamp int64, agent string) {
	r.insert(Triple[T]{Value: value, Stamp: stamp, Agent: agent})
}

// insert adds a triple unless an identical one is already present.
func (r *MVRegister[T]) insert(t Triple[T]) {
	for _, existing := range r.triples {
		if existing == t {
			return
		}
	}
	r.triples = append(r.triples, t)
}

// Merge folds other into r by set union. Commutative, associative,
// idempotent; never collapses the register.
func (r *MVRegister[T]) Merge(other *MVRegister[T]) {
	if other == nil {
		return
	}
	for _, t := range other.triples {
		r.insert(t)
	}
}

// Resolve collapses the register to the single given value.
//
// This is the only operation that discards writes. The collapsed triple
// carries the greatest timestamp currently held (so the resolution is not
// ordered before the writes it replaces) and the resolving agent's id.
func (r *MVRegister[T]) Resolve(value T, agent string) {
	var stamp int64
	for _, t := range r.triples {
		if t.Stamp > stamp {
			stamp = t.Stamp
		}
	}
	r.triples = []Triple[T]{{Value: value, Stamp: stamp, Agent: agent}}
}

// Current returns the deterministic projection of the register: the
// greatest triple under the (Value, Stamp, Agent) total order. The second
// return is false only for an empty register.
//
// Every replica holding the same set of triples projects the same value,
// which keeps reads convergent even before an explicit Resolve.
func (r *MVRegister[T]) Current() (Triple[T], bool) {
	if len(r.triples) == 0 {
		return Triple[T]{}, false
	}
	best := r.triples[0]
	for _, t := range r.triples[1:] {
		if t.Compare(best) > 0 {
			best = t
		}
	}
	return best, true
}

// IsConflicted reports whether more than one distinct value is present.
func (r *MVRegister[T]) IsConflicted() bool {
	if len(r.triples) < 2 {
		return false
	}
	first := r.triples[0].Value
	for _, t := range r.triples[1:] {
		if t.Value != first {
			return true
		}
	}
	return false
}

// Values returns the distinct values present, in ascending order.
func (r *MVRegister[T]) Values() []T {
	seen := make(map[T]bool, len(r.triples))
	var out []T
	for _, t := range r.triples {
		if !seen[t.Value] {
			seen[t.Value] = true
			out = append(out, t.Value)
		}
	}
	slices.Sort(out)
	return out
}

// Triples returns the held writes sorted by (Value, Stamp, Agent).
func (r *MVRegister[T]) Triples() []Triple[T] {
	out := make([]Triple[T], len(r.triples))
	copy(out, r.triples)
	sortTriples(out)
	return out
}

// Equal reports whether both registers hold the identical set of writes,
// irrespective of insertion order.
func (r *MVRegister[T]) Equal(other *MVRegister[T]) bool {
	if len(r.triples) != len(other.triples) {
		return false
	}
	a := r.Triples()
	b := other.Triples()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the register.
func (r *MVRegister[T]) Clone() *MVRegister[T] {
	out := &MVRegister[T]{triples: make([]Triple[T], len(r.triples))}
	copy(out.triples, r.triples)
	return out
}

func sortTriples[T cmp.Ordered](ts []Triple[T]) {
	slices.SortFunc(ts, func(a, b Triple[T]) int { return a.Compare(b) })
}
