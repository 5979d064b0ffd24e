package crdt

// GCounter is a grow-only counter.
//
// Each agent accumulates into its own slot; the effective value is the sum
// over all slots. Because a slot is only ever written by its owning agent
// and is monotonically non-decreasing, merge takes the per-agent maximum
// (not the sum), which is what makes merge idempotent: merging the same
// state twice must not double-count.
type GCounter struct {
	slots map[string]int64
}

// NewGCounter creates an empty grow-only counter.
func NewGCounter() *GCounter {
	return &GCounter{slots: make(map[string]int64)}
}

// GCounterFromSlots reconstructs a counter from serialized per-agent slots.
// Negative slots are rejected as a NegativeIncrement misuse error.
func GCounterFromSlots(slots map[string]int64) (*GCounter, error) {
	c := NewGCounter()
	for agent, n := range slots {
		if n < 0 {
			return nil, NewNegativeIncrementError(agent, n)
		}
		if n > 0 {
			c.slots[agent] = n
		}
	}
	return c, nil
}

// Increment adds amount to the agent's slot.
//
// A negative amount is rejected with a MisuseError, never silently clamped:
// a grow-only counter that accepted decrements would break monotonicity and
// with it merge idempotency.
func (c *GCounter) Increment(agent string, amount int64) error {
	if agent == "" {
		return NewEmptyAgentError()
	}
	if amount < 0 {
		return NewNegativeIncrementError(agent, amount)
	}
	if amount == 0 {
		// A zero increment must not materialize a slot: Merge only copies
		// positive slots, so a zero-valued entry would make slot presence
		// depend on merge order.
		return nil
	}
	c.slots[agent] += amount
	return nil
}

// Value returns the sum over all agent slots.
func (c *GCounter) Value() int64 {
	var total int64
	for _, n := range c.slots {
		total += n
	}
	return total
}

// Merge folds other into c, taking the per-agent maximum of the two slot
// maps. Commutative, associative, idempotent.
func (c *GCounter) Merge(other *GCounter) {
	if other == nil {
		return
	}
	for agent, n := range other.slots {
		if n > c.slots[agent] {
			c.slots[agent] = n
		}
	}
}

// Slots returns a copy of the per-agent slot map.
func (c *GCounter) Slots() map[string]int64 {
	out := make(map[string]int64, len(c.slots))
	for agent, n := range c.slots {
		out[agent] = n
	}
	return out
}

// Equal reports whether both counters hold identical slots.
func (c *GCounter) Equal(other *GCounter) bool {
	if len(c.slots) != len(other.slots) {
		return false
	}
	for agent, n := range c.slots {
		if other.slots[agent] != n {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the counter.
func (c *GCounter) Clone() *GCounter {
	out := NewGCounter()
	for agent, n := range c.slots {
		out.slots[agent] = n
	}
	return out
}
