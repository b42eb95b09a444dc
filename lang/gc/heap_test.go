package gc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvid-lang/corvid/lang/gc"
	"github.com/corvid-lang/corvid/lang/object"
)

func noRoots(push func(object.Value)) {}

func TestInternStringDedup(t *testing.T) {
	h := gc.New(gc.DefaultConfig())
	a := h.InternString("hello", noRoots)
	b := h.InternString("hello", noRoots)
	require.Same(t, a, b, "interning the same text twice must return the same *String")

	c := h.InternString("world", noRoots)
	require.NotSame(t, a, c)
}

func TestCollectSweepsUnreachable(t *testing.T) {
	h := gc.New(gc.DefaultConfig())

	kept := &object.List{}
	h.Alloc(kept, noRoots)

	// Allocated but never rooted: should be swept once collected.
	h.Alloc(&object.List{}, noRoots)

	rootKept := func(push func(object.Value)) {
		push(kept)
	}
	h.Collect(rootKept)

	// Two 24-byte lists were allocated; only kept's bytes remain.
	require.Contains(t, h.Stats(), "allocated=24 ")

	// kept survives and its fields are usable post-collection.
	kept.Items = append(kept.Items, object.Int(1))
	require.Equal(t, object.Int(1), kept.Items[0])
}

func TestStressGCCollectsOnEveryAlloc(t *testing.T) {
	cfg := gc.DefaultConfig()
	cfg.StressGC = true
	h := gc.New(cfg)

	kept := &object.List{}
	root := func(push func(object.Value)) { push(kept) }

	for i := 0; i < 50; i++ {
		h.Alloc(&object.List{}, root)
	}
	require.Equal(t, 50, h.Collections)
	// No panic means stress-mode collection tolerated repeated allocation
	// without the root ever being swept out from under us.
	kept.Items = append(kept.Items, object.Int(1))
	require.Len(t, kept.Items, 1)
}

func TestGrayStackOverflowIsFatal(t *testing.T) {
	cfg := gc.DefaultConfig()
	cfg.GrayCapacity = 1
	h := gc.New(cfg)

	// head references two children directly: blackening head pushes both
	// onto the gray stack in one step, exceeding a capacity of 1.
	head := &object.List{}
	h.Alloc(head, noRoots)
	for i := 0; i < 2; i++ {
		child := &object.List{}
		h.Alloc(child, noRoots)
		head.Items = append(head.Items, child)
	}

	root := func(push func(object.Value)) { push(head) }

	require.Panics(t, func() {
		h.Collect(root)
	})
}
