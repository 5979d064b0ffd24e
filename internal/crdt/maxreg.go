package crdt

import "cmp"

// MaxRegister holds a single value from an ordered domain that only ever
// strengthens: writes of smaller values are silently ignored (not errors),
// and merge takes the maximum of the two sides.
//
// Used for fields like confidence scores and last-access timestamps, where
// a replica that has seen "more" must never be weakened by one that has
// seen less.
type MaxRegister[T cmp.Ordered] struct {
	value T
}

// NewMaxRegister creates a register holding the given value.
func NewMaxRegister[T cmp.Ordered](value T) MaxRegister[T] {
	return MaxRegister[T]{value: value}
}

// Set stores value only if it is greater than the current value. Smaller
// writes are a no-op rather than a misuse error: "strengthen or ignore" is
// the contract.
func (r *MaxRegister[T]) Set(value T) {
	if value > r.value {
		r.value = value
	}
}

// Get returns the current value.
func (r *MaxRegister[T]) Get() T {
	return r.value
}

// Merge folds other into r by taking the maximum. Commutative, associative,
// idempotent.
func (r *MaxRegister[T]) Merge(other MaxRegister[T]) {
	if other.value > r.value {
		r.value = other.value
	}
}

// Equal reports whether both registers hold the same value.
func (r MaxRegister[T]) Equal(other MaxRegister[T]) bool {
	return r.value == other.value
}
