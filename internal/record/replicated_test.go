package record

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func at(offset time.Duration) time.Time {
	return t0.Add(offset)
}

func testMemory(agent string) Memory {
	m := NewMemory("the payload", "a summary", agent, t0)
	m.Tags = []string{"alpha", "beta"}
	m.LinkedContexts = []string{"ctx-1"}
	m.LinkedFiles = []string{"notes/design.md"}
	m.Confidence = 0.6
	m.Importance = ImportanceHigh
	m.AccessCount = 3
	m.LastAccessed = at(time.Minute)
	m.ValidFrom = at(-time.Hour)
	return m
}

// =============================================================================
// Round trip
// =============================================================================

func TestReplicated_RoundTrip(t *testing.T) {
	m := testMemory("agent-1")
	r := FromMemory(m, "agent-1", t0)

	got := r.Snapshot()
	assert.Equal(t, m, got, "Snapshot(FromMemory(m)) must equal m absent concurrent writes")
}

func TestReplicated_RoundTripZeroTimes(t *testing.T) {
	m := NewMemory("c", "s", "agent-1", t0)
	r := FromMemory(m, "agent-1", t0)

	got := r.Snapshot()
	assert.True(t, got.ValidFrom.IsZero())
	assert.True(t, got.ValidUntil.IsZero())
	assert.True(t, got.LastAccessed.IsZero())
	assert.Equal(t, m, got)
}

func TestReplicated_FromMemoryClampsConfidence(t *testing.T) {
	m := NewMemory("c", "s", "agent-1", t0)
	m.Confidence = 1.7
	r := FromMemory(m, "agent-1", t0)
	assert.Equal(t, 1.0, r.Confidence.Get())

	m.Confidence = -0.2
	r = FromMemory(m, "agent-1", t0)
	assert.Equal(t, 0.0, r.Confidence.Get())
}

// =============================================================================
// Field merge behavior
// =============================================================================

func twoReplicas(t *testing.T) (*Replicated, *Replicated) {
	t.Helper()
	m := testMemory("agent-1")
	r1 := FromMemory(m, "agent-1", t0)
	r2 := r1.Rebind("agent-2")
	return r1, r2
}

func TestReplicated_SummaryLastWriterWins(t *testing.T) {
	r1, r2 := twoReplicas(t)

	r1.SetSummary("older", at(time.Second))
	r2.SetSummary("newer", at(2*time.Second))

	require.NoError(t, r1.Merge(r2))
	assert.Equal(t, "newer", r1.Snapshot().Summary)
}

func TestReplicated_ConcurrentContentIsConflicted(t *testing.T) {
	r1, r2 := twoReplicas(t)

	r1.SetContent("from one", at(time.Second))
	r2.SetContent("from two", at(time.Second))

	require.NoError(t, r1.Merge(r2))
	snap := r1.Snapshot()

	assert.True(t, snap.Conflicted, "concurrent content writes must surface")
	assert.Equal(t, "from two", snap.Content, "projection picks the greatest value")
}

func TestReplicated_ResolveContentClearsConflict(t *testing.T) {
	r1, r2 := twoReplicas(t)
	r1.SetContent("from one", at(time.Second))
	r2.SetContent("from two", at(time.Second))
	require.NoError(t, r1.Merge(r2))

	r1.ResolveContent("settled")

	snap := r1.Snapshot()
	assert.False(t, snap.Conflicted)
	assert.Equal(t, "settled", snap.Content)
}

func TestReplicated_TagAddWins(t *testing.T) {
	r1, r2 := twoReplicas(t)

	r2.RemoveTag("alpha")
	r1.AddTag("alpha") // concurrent re-add, unobserved by r2

	merged := r1.Clone()
	require.NoError(t, merged.Merge(r2))
	assert.Contains(t, merged.Snapshot().Tags, "alpha")

	reversed := r2.Clone()
	require.NoError(t, reversed.Merge(r1))
	assert.Contains(t, reversed.Snapshot().Tags, "alpha")
}

func TestReplicated_TouchAccumulatesAcrossAgents(t *testing.T) {
	r1, r2 := twoReplicas(t)

	r1.Touch(at(time.Second))
	r1.Touch(at(2 * time.Second))
	r2.Touch(at(3 * time.Second))

	require.NoError(t, r1.Merge(r2))
	snap := r1.Snapshot()

	assert.Equal(t, int64(6), snap.AccessCount, "3 seeded + 2 from agent-1 + 1 from agent-2")
	assert.Equal(t, at(3*time.Second), snap.LastAccessed)
}

func TestReplicated_ConfidenceOnlyStrengthens(t *testing.T) {
	r1, r2 := twoReplicas(t)

	r1.BoostConfidence(0.9)
	r2.BoostConfidence(0.3)

	require.NoError(t, r1.Merge(r2))
	require.NoError(t, r2.Merge(r1))

	assert.Equal(t, 0.9, r1.Confidence.Get())
	assert.Equal(t, 0.9, r2.Confidence.Get())
}

func TestReplicated_ProvenanceMergesToSameTrail(t *testing.T) {
	r1, r2 := twoReplicas(t)

	r1.RecordHop("shared", at(time.Second))
	r2.RecordHop("consolidated", at(2*time.Second))

	require.NoError(t, r1.Merge(r2))
	require.NoError(t, r2.Merge(r1))

	assert.Equal(t, r1.Provenance, r2.Provenance)
	require.Len(t, r1.Provenance, 3)
	assert.Equal(t, "created", r1.Provenance[0].Action)
}

func TestReplicated_MergeRejectsDifferentRecords(t *testing.T) {
	a := FromMemory(NewMemory("a", "", "agent-1", t0), "agent-1", t0)
	b := FromMemory(NewMemory("b", "", "agent-1", t0), "agent-1", t0)

	err := a.Merge(b)
	require.Error(t, err)
	var idErr *IdentityError
	assert.ErrorAs(t, err, &idErr)
}

func TestReplicated_MutationsAdvanceClock(t *testing.T) {
	r1, _ := twoReplicas(t)
	before := r1.Clock.Get("agent-1")

	r1.SetSummary("s", at(time.Second))
	r1.AddTag("t")
	r1.Touch(at(2 * time.Second))

	assert.Equal(t, before+3, r1.Clock.Get("agent-1"))
}

// =============================================================================
// Whole-record merge laws
// =============================================================================

// mutateRandomly applies n random field mutations to r using a seeded rng,
// with timestamps drawn from a coarse range so ties are common.
func mutateRandomly(r *Replicated, rng *rand.Rand, n int) {
	for i := 0; i < n; i++ {
		now := at(time.Duration(rng.Intn(5)) * time.Second)
		switch rng.Intn(10) {
		case 0:
			r.SetContent(fmt.Sprintf("content-%d", rng.Intn(6)), now)
		case 1:
			r.SetSummary(fmt.Sprintf("summary-%d", rng.Intn(6)), now)
		case 2:
			r.SetImportance(ImportanceCritical, now)
		case 3:
			r.SetArchived(rng.Intn(2) == 0, now)
		case 4:
			r.BoostConfidence(float64(rng.Intn(100)) / 100)
		case 5:
			r.Touch(now)
		case 6:
			r.AddTag(fmt.Sprintf("tag-%d", rng.Intn(4)))
		case 7:
			r.RemoveTag(fmt.Sprintf("tag-%d", rng.Intn(4)))
		case 8:
			r.AddLinkedFile(fmt.Sprintf("file-%d", rng.Intn(4)))
		case 9:
			r.SetValidity(now.Add(-time.Hour), now.Add(time.Hour), now)
		}
	}
}

func TestReplicated_MergeLaws(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 50; i++ {
		base := FromMemory(testMemory("agent-a"), "agent-a", t0)
		a := base.Clone()
		b := base.Rebind("agent-b")
		c := base.Rebind("agent-c")
		mutateRandomly(a, rng, 5)
		mutateRandomly(b, rng, 5)
		mutateRandomly(c, rng, 5)

		ab := a.Clone()
		require.NoError(t, ab.Merge(b))
		ba := b.Clone()
		require.NoError(t, ba.Merge(a))
		assert.True(t, ab.Equal(ba), "iteration %d: record merge must be commutative", i)

		left := a.Clone()
		require.NoError(t, left.Merge(b))
		require.NoError(t, left.Merge(c))
		bc := b.Clone()
		require.NoError(t, bc.Merge(c))
		right := a.Clone()
		require.NoError(t, right.Merge(bc))
		assert.True(t, left.Equal(right), "iteration %d: record merge must be associative", i)

		aa := a.Clone()
		require.NoError(t, aa.Merge(a))
		assert.True(t, aa.Equal(a), "iteration %d: record merge must be idempotent", i)
	}
}

func TestReplicated_ThreeReplicasConvergeInAnyOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	base := FromMemory(testMemory("agent-a"), "agent-a", t0)
	a := base.Clone()
	b := base.Rebind("agent-b")
	c := base.Rebind("agent-c")
	mutateRandomly(a, rng, 20)
	mutateRandomly(b, rng, 20)
	mutateRandomly(c, rng, 20)

	// Two different full-gossip orders.
	x := a.Clone()
	require.NoError(t, x.Merge(b))
	require.NoError(t, x.Merge(c))

	y := c.Clone()
	require.NoError(t, y.Merge(a))
	require.NoError(t, y.Merge(b))

	assert.True(t, x.Equal(y), "full state exchange must converge regardless of order")
	assert.Equal(t, x.Snapshot(), y.Snapshot())
}
