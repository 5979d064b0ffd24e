package record

import (
	"cmp"
	"slices"
)

// Hop is one step in a record's provenance trail: which agent did what,
// when. The trail is append-only and merges by deduplicating union, so
// every replica eventually carries the full history in the same order.
type Hop struct {
	// Agent performed the action.
	Agent string

	// Action names what happened ("created", "merged", "shared", ...).
	Action string

	// At is the hop timestamp in unix microseconds.
	At int64
}

// Compare orders hops by (At, Agent, Action).
func (h Hop) Compare(other Hop) int {
	if c := cmp.Compare(h.At, other.At); c != 0 {
		return c
	}
	if c := cmp.Compare(h.Agent, other.Agent); c != 0 {
		return c
	}
	return cmp.Compare(h.Action, other.Action)
}

// MergeHops unions two hop trails, removing duplicates and sorting by
// (At, Agent, Action) so every replica orders the trail identically.
func MergeHops(a, b []Hop) []Hop {
	seen := make(map[Hop]bool, len(a)+len(b))
	out := make([]Hop, 0, len(a)+len(b))
	for _, hops := range [2][]Hop{a, b} {
		for _, h := range hops {
			if !seen[h] {
				seen[h] = true
				out = append(out, h)
			}
		}
	}
	slices.SortFunc(out, Hop.Compare)
	return out
}

// appendHop adds a hop unless an identical one is already present, keeping
// the trail sorted.
func appendHop(hops []Hop, h Hop) []Hop {
	for _, existing := range hops {
		if existing == h {
			return hops
		}
	}
	hops = append(hops, h)
	slices.SortFunc(hops, Hop.Compare)
	return hops
}
