package crdt

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The three merge laws are the acceptance criteria for every primitive:
//
//	merge(A, B) == merge(B, A)               (commutative)
//	merge(A, merge(B, C)) == merge(merge(A, B), C)  (associative)
//	merge(A, A) == A                          (idempotent)
//
// checkMergeLaws exercises them against randomized states from a fixed
// seed, so failures reproduce.
func checkMergeLaws[S any](t *testing.T, seed int64, gen func(r *rand.Rand) S, merge func(a, b S) S, equal func(a, b S) bool) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))

	for i := 0; i < 200; i++ {
		a, b, c := gen(rng), gen(rng), gen(rng)

		ab := merge(a, b)
		ba := merge(b, a)
		require.True(t, equal(ab, ba), "iteration %d: merge must be commutative", i)

		left := merge(merge(a, b), c)
		right := merge(a, merge(b, c))
		require.True(t, equal(left, right), "iteration %d: merge must be associative", i)

		aa := merge(a, a)
		require.True(t, equal(aa, a), "iteration %d: merge must be idempotent", i)
	}
}

var lawAgents = []string{"agent-a", "agent-b", "agent-c", "agent-d"}

func randomAgent(r *rand.Rand) string {
	return lawAgents[r.Intn(len(lawAgents))]
}

func TestMergeLaws_GCounter(t *testing.T) {
	checkMergeLaws(t, 1,
		func(r *rand.Rand) *GCounter {
			c := NewGCounter()
			for i := 0; i < r.Intn(6); i++ {
				require.NoError(t, c.Increment(randomAgent(r), int64(r.Intn(10))))
			}
			return c
		},
		func(a, b *GCounter) *GCounter {
			out := a.Clone()
			out.Merge(b)
			return out
		},
		(*GCounter).Equal,
	)
}

func TestMergeLaws_LWWRegister(t *testing.T) {
	checkMergeLaws(t, 2,
		func(r *rand.Rand) LWWRegister[string] {
			return NewLWWRegister(
				fmt.Sprintf("value-%d", r.Intn(8)),
				int64(r.Intn(5)), // small stamp range forces tie-breaks
				randomAgent(r),
			)
		},
		func(a, b LWWRegister[string]) LWWRegister[string] {
			out := a
			out.Merge(b)
			return out
		},
		LWWRegister[string].Equal,
	)
}

func TestMergeLaws_MVRegister(t *testing.T) {
	checkMergeLaws(t, 3,
		func(r *rand.Rand) *MVRegister[string] {
			reg := &MVRegister[string]{}
			for i := 0; i < 1+r.Intn(4); i++ {
				reg.Set(fmt.Sprintf("value-%d", r.Intn(6)), int64(r.Intn(5)), randomAgent(r))
			}
			return reg
		},
		func(a, b *MVRegister[string]) *MVRegister[string] {
			out := a.Clone()
			out.Merge(b)
			return out
		},
		(*MVRegister[string]).Equal,
	)
}

func TestMergeLaws_ORSet(t *testing.T) {
	// A single shared tag space across the generated states, so the three
	// states genuinely overlap in tags and tombstones.
	seq := NewTagSequence()
	checkMergeLaws(t, 4,
		func(r *rand.Rand) *ORSet[string] {
			s := NewORSet[string]()
			for i := 0; i < r.Intn(6); i++ {
				elem := fmt.Sprintf("elem-%d", r.Intn(4))
				s.Add(elem, seq.Next(randomAgent(r)))
				if r.Intn(3) == 0 {
					s.Remove(elem)
				}
			}
			return s
		},
		func(a, b *ORSet[string]) *ORSet[string] {
			out := a.Clone()
			out.Merge(b)
			return out
		},
		(*ORSet[string]).Equal,
	)
}

func TestMergeLaws_MaxRegister(t *testing.T) {
	checkMergeLaws(t, 5,
		func(r *rand.Rand) MaxRegister[float64] {
			return NewMaxRegister(float64(r.Intn(100)) / 100)
		},
		func(a, b MaxRegister[float64]) MaxRegister[float64] {
			out := a
			out.Merge(b)
			return out
		},
		MaxRegister[float64].Equal,
	)
}

func TestMergeLaws_VectorClockStyleSequence(t *testing.T) {
	checkMergeLaws(t, 6,
		func(r *rand.Rand) TagSequence {
			s := NewTagSequence()
			for i := 0; i < r.Intn(5); i++ {
				s.Next(randomAgent(r))
			}
			return s
		},
		func(a, b TagSequence) TagSequence {
			out := a.Clone()
			out.Merge(b)
			return out
		},
		TagSequence.Equal,
	)
}

// Sanity check that the harness itself would catch a broken merge.
func TestMergeLaws_DetectsNonIdempotentMerge(t *testing.T) {
	broken := func(a, b *GCounter) *GCounter {
		// Summing slots instead of taking the max: not idempotent.
		out := a.Clone()
		for agent, n := range b.Slots() {
			assert.NoError(t, out.Increment(agent, n))
		}
		return out
	}

	a := NewGCounter()
	require.NoError(t, a.Increment("a", 1))
	assert.False(t, broken(a, a).Equal(a), "sum-based merge must fail idempotency")
}
