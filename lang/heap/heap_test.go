package heap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeObject is a minimal Object for tests that don't need real runtime
// value kinds: it references whatever ids it's built with.
type fakeObject struct {
	refs []ID
}

func (o *fakeObject) Kind() string     { return "fake" }
func (o *fakeObject) References() []ID { return o.refs }

func TestAllocateAndGet(t *testing.T) {
	h := New(1 << 20)
	id := h.Allocate(&fakeObject{}, 1, nil)
	require.NotZero(t, id)
	require.Equal(t, "fake", h.Get(id).Kind())
}

func TestCollectFreesUnreachable(t *testing.T) {
	h := New(1 << 20)
	garbage := h.Allocate(&fakeObject{}, 1, nil)
	root := h.Allocate(&fakeObject{}, 1, nil)
	h.Roots = func() []ID { return []ID{root} }

	h.Collect()

	require.Panics(t, func() { h.Get(garbage) })
	require.NotPanics(t, func() { h.Get(root) })
}

func TestCollectTracesReferences(t *testing.T) {
	h := New(1 << 20)
	leaf := h.Allocate(&fakeObject{}, 1, nil)
	root := h.Allocate(&fakeObject{refs: []ID{leaf}}, 1, nil)
	h.Roots = func() []ID { return []ID{root} }

	h.Collect()

	require.NotPanics(t, func() { h.Get(leaf) })
}

func TestCollectReusesFreedSlots(t *testing.T) {
	h := New(1 << 20)
	h.Roots = func() []ID { return nil }
	_ = h.Allocate(&fakeObject{}, 1, nil)

	h.Collect()
	before := h.Len()
	h.Allocate(&fakeObject{}, 1, nil)
	require.Equal(t, before, h.Len(), "freed slot should be reused rather than growing the table")
}

func TestInternDeduplicates(t *testing.T) {
	h := New(1 << 20)
	a := h.Intern("hello", nil)
	b := h.Intern("hello", nil)
	c := h.Intern("world", nil)
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
}

func TestInternedStringSweptWhenUnreachable(t *testing.T) {
	h := New(1 << 20)
	h.Roots = func() []ID { return nil }
	h.Intern("gone", nil)
	require.Len(t, h.strings, 1)

	h.Collect()

	require.Len(t, h.strings, 0)
}

func TestStressCollectsOnEveryAllocation(t *testing.T) {
	h := New(1 << 20)
	h.Stress = true
	collected := 0
	collect := func() { collected++ }

	h.Allocate(&fakeObject{}, 1, collect)
	h.Allocate(&fakeObject{}, 1, collect)
	h.Allocate(&fakeObject{}, 1, collect)

	require.Equal(t, 3, collected)
}

func TestThresholdGrowsAfterCollection(t *testing.T) {
	h := New(10)
	h.Roots = func() []ID { return nil }
	collect := func() { h.Collect() }

	h.Allocate(&fakeObject{}, 8, collect)
	before := h.Threshold
	h.Allocate(&fakeObject{}, 8, collect)
	require.Greater(t, h.Threshold, before)
}
