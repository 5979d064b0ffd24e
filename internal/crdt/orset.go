package crdt

import "slices"

// ORSet is an observed-remove set with add-wins semantics.
//
// Every add records a globally-unique tag for that element instance; remove
// tombstones only the tags this replica has observed at removal time. An
// element is present iff at least one of its tags is not tombstoned, so an
// add that was concurrent with a remove survives the merge: the remover
// never observed the concurrent tag and could not have tombstoned it.
//
// Tombstones are retained indefinitely by this package; compaction is an
// external concern.
type ORSet[T comparable] struct {
	adds  map[T]map[Tag]struct{}
	tombs map[Tag]struct{}
}

// NewORSet creates an empty observed-remove set.
func NewORSet[T comparable]() *ORSet[T] {
	return &ORSet[T]{
		adds:  make(map[T]map[Tag]struct{}),
		tombs: make(map[Tag]struct{}),
	}
}

// ORSetFromState reconstructs a set from serialized add-tag and tombstone
// state.
func ORSetFromState[T comparable](adds map[T][]Tag, tombstones []Tag) *ORSet[T] {
	s := NewORSet[T]()
	for elem, tags := range adds {
		for _, tag := range tags {
			s.Add(elem, tag)
		}
	}
	for _, tag := range tombstones {
		s.tombs[tag] = struct{}{}
	}
	return s
}

// Add records the element as present under the given unique tag.
func (s *ORSet[T]) Add(elem T, tag Tag) {
	tags, ok := s.adds[elem]
	if !ok {
		tags = make(map[Tag]struct{})
		s.adds[elem] = tags
	}
	tags[tag] = struct{}{}
}

// Remove tombstones every add-tag for the element observed by this replica.
// Tags added concurrently elsewhere and not yet observed are untouched,
// which is exactly the add-wins guarantee.
func (s *ORSet[T]) Remove(elem T) {
	for tag := range s.adds[elem] {
		s.tombs[tag] = struct{}{}
	}
}

// Contains reports whether the element has at least one live add-tag.
func (s *ORSet[T]) Contains(elem T) bool {
	for tag := range s.adds[elem] {
		if _, dead := s.tombs[tag]; !dead {
			return true
		}
	}
	return false
}

// Elements returns the present elements in unspecified order.
func (s *ORSet[T]) Elements() []T {
	out := make([]T, 0, len(s.adds))
	for elem := range s.adds {
		if s.Contains(elem) {
			out = append(out, elem)
		}
	}
	return out
}

// Len returns the number of present elements.
func (s *ORSet[T]) Len() int {
	n := 0
	for elem := range s.adds {
		if s.Contains(elem) {
			n++
		}
	}
	return n
}

// Merge folds other into s: union of the add-tag sets and union of the
// tombstone sets. Commutative, associative, idempotent.
func (s *ORSet[T]) Merge(other *ORSet[T]) {
	if other == nil {
		return
	}
	for elem, tags := range other.adds {
		for tag := range tags {
			s.Add(elem, tag)
		}
	}
	for tag := range other.tombs {
		s.tombs[tag] = struct{}{}
	}
}

// Tags returns the add-tags recorded for the element (live and tombstoned),
// sorted. Empty if the element was never added.
func (s *ORSet[T]) Tags(elem T) []Tag {
	out := make([]Tag, 0, len(s.adds[elem]))
	for tag := range s.adds[elem] {
		out = append(out, tag)
	}
	slices.SortFunc(out, Tag.Compare)
	return out
}

// Entries returns a copy of the full add map, with each element's tags
// sorted. Includes elements whose every tag is tombstoned.
func (s *ORSet[T]) Entries() map[T][]Tag {
	out := make(map[T][]Tag, len(s.adds))
	for elem := range s.adds {
		out[elem] = s.Tags(elem)
	}
	return out
}

// Tombstones returns the tombstoned tags, sorted.
func (s *ORSet[T]) Tombstones() []Tag {
	out := make([]Tag, 0, len(s.tombs))
	for tag := range s.tombs {
		out = append(out, tag)
	}
	slices.SortFunc(out, Tag.Compare)
	return out
}

// Equal reports whether both sets hold identical add-tag and tombstone
// state. Presence alone is not enough: convergence is defined over the full
// internal state.
func (s *ORSet[T]) Equal(other *ORSet[T]) bool {
	if len(s.adds) != len(other.adds) || len(s.tombs) != len(other.tombs) {
		return false
	}
	for elem, tags := range s.adds {
		otherTags, ok := other.adds[elem]
		if !ok || len(tags) != len(otherTags) {
			return false
		}
		for tag := range tags {
			if _, ok := otherTags[tag]; !ok {
				return false
			}
		}
	}
	for tag := range s.tombs {
		if _, ok := other.tombs[tag]; !ok {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the set.
func (s *ORSet[T]) Clone() *ORSet[T] {
	out := NewORSet[T]()
	out.Merge(s)
	return out
}
