package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMVRegister_SingleWriteIsNotConflicted(t *testing.T) {
	r := NewMVRegister("v", 100, "a")

	assert.False(t, r.IsConflicted())
	cur, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, "v", cur.Value)
}

func TestMVRegister_SetKeepsPriorWrites(t *testing.T) {
	r := NewMVRegister("first", 100, "a")
	r.Set("second", 200, "a")

	assert.Equal(t, []string{"first", "second"}, r.Values())
	assert.True(t, r.IsConflicted())
}

func TestMVRegister_ConcurrentWritesBothSurviveMerge(t *testing.T) {
	a := NewMVRegister("from-a", 100, "a")
	b := NewMVRegister("from-b", 100, "b")

	a.Merge(b)

	assert.True(t, a.IsConflicted())
	assert.Equal(t, []string{"from-a", "from-b"}, a.Values())
}

func TestMVRegister_MergeNeverResolves(t *testing.T) {
	a := NewMVRegister("x", 100, "a")
	b := NewMVRegister("y", 999, "b")

	// Even a much newer write does not collapse the register: only an
	// explicit Resolve may discard values.
	a.Merge(b)
	assert.Len(t, a.Values(), 2)
}

func TestMVRegister_CurrentPicksGreatestDeterministically(t *testing.T) {
	a := NewMVRegister("alpha", 100, "a")
	a.Merge(NewMVRegister("zeta", 50, "b"))

	b := NewMVRegister("zeta", 50, "b")
	b.Merge(NewMVRegister("alpha", 100, "a"))

	curA, ok := a.Current()
	require.True(t, ok)
	curB, ok := b.Current()
	require.True(t, ok)

	assert.Equal(t, curA, curB, "projection must not depend on merge order")
	assert.Equal(t, "zeta", curA.Value, "greatest value wins")
}

func TestMVRegister_CurrentOnEmpty(t *testing.T) {
	r := &MVRegister[string]{}
	_, ok := r.Current()
	assert.False(t, ok)
}

func TestMVRegister_ResolveCollapses(t *testing.T) {
	r := NewMVRegister("from-a", 100, "a")
	r.Merge(NewMVRegister("from-b", 200, "b"))
	require.True(t, r.IsConflicted())

	r.Resolve("settled", "a")

	assert.False(t, r.IsConflicted())
	assert.Equal(t, []string{"settled"}, r.Values())
	cur, _ := r.Current()
	assert.Equal(t, int64(200), cur.Stamp, "resolution carries the greatest held stamp")
	assert.Equal(t, "a", cur.Agent)
}

func TestMVRegister_DuplicateTripleNotDoubled(t *testing.T) {
	r := NewMVRegister("v", 100, "a")
	r.Set("v", 100, "a")
	r.Merge(NewMVRegister("v", 100, "a"))

	assert.Len(t, r.Triples(), 1)
	assert.False(t, r.IsConflicted())
}

func TestMVRegister_SameValueDifferentWritersNotConflicted(t *testing.T) {
	r := NewMVRegister("v", 100, "a")
	r.Merge(NewMVRegister("v", 120, "b"))

	// Two triples, one distinct value: no conflict to surface.
	assert.Len(t, r.Triples(), 2)
	assert.False(t, r.IsConflicted())
}

func TestMVRegister_FromTriplesRoundTrip(t *testing.T) {
	r := NewMVRegister("x", 100, "a")
	r.Set("y", 200, "b")

	restored := MVRegisterFromTriples(r.Triples())
	assert.True(t, r.Equal(restored))
}
