package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxRegister_SetOnlyStrengthens(t *testing.T) {
	r := NewMaxRegister(0.5)

	r.Set(0.3)
	assert.Equal(t, 0.5, r.Get(), "smaller write is silently ignored")

	r.Set(0.8)
	assert.Equal(t, 0.8, r.Get())
}

func TestMaxRegister_MergeTakesMax(t *testing.T) {
	a := NewMaxRegister(int64(100))
	b := NewMaxRegister(int64(250))

	a.Merge(b)
	assert.Equal(t, int64(250), a.Get())

	// Merging the weaker side back changes nothing.
	b.Merge(NewMaxRegister(int64(100)))
	assert.Equal(t, int64(250), b.Get())
}

func TestMaxRegister_MergeIdempotent(t *testing.T) {
	r := NewMaxRegister(0.7)
	r.Merge(r)
	assert.Equal(t, 0.7, r.Get())
}

func TestMaxRegister_EqualWriteIsNoop(t *testing.T) {
	r := NewMaxRegister(0.5)
	r.Set(0.5)
	assert.Equal(t, 0.5, r.Get())
}
