package crdt

// LWWRegister is a last-writer-wins register: a single (value, timestamp,
// agent) triple where the write with the greatest timestamp wins.
//
// Ties on the timestamp are broken by the lexicographically greater agent
// identifier. The tie-break is evaluated identically on both sides of any
// merge, which is what guarantees determinism when two agents write at the
// same wall-clock instant.
type LWWRegister[T comparable] struct {
	// Value is the current winning value.
	Value T

	// Stamp is the write timestamp in unix microseconds.
	Stamp int64

	// Agent is the identifier of the agent that performed the write.
	Agent string
}

// NewLWWRegister creates a register holding the given write.
func NewLWWRegister[T comparable](value T, stamp int64, agent string) LWWRegister[T] {
	return LWWRegister[T]{Value: value, Stamp: stamp, Agent: agent}
}

// Set stores the write unconditionally. Local writes are always accepted;
// it is merge that arbitrates between replicas.
func (r *LWWRegister[T]) Set(value T, stamp int64, agent string) {
	r.Value = value
	r.Stamp = stamp
	r.Agent = agent
}

// Get returns the current winning value.
func (r *LWWRegister[T]) Get() T {
	return r.Value
}

// Merge folds other into r. The incoming triple replaces the current one
// iff its timestamp is strictly greater, or the timestamps are equal and
// the incoming agent identifier is lexicographically greater.
func (r *LWWRegister[T]) Merge(other LWWRegister[T]) {
	if other.wins(*r) {
		*r = other
	}
}

// wins reports whether r beats cur under the (timestamp, agent) total order.
func (r LWWRegister[T]) wins(cur LWWRegister[T]) bool {
	if r.Stamp != cur.Stamp {
		return r.Stamp > cur.Stamp
	}
	return r.Agent > cur.Agent
}

// Equal reports whether both registers hold the identical triple.
func (r LWWRegister[T]) Equal(other LWWRegister[T]) bool {
	return r == other
}
