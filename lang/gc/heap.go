// Package gc implements the Language's memory manager: an allocation
// tracker standing in for the spec's freelist allocator, and a precise
// tri-color mark-and-sweep collector over the global object list, including
// weak pruning of the string-intern table. The backing storage for every
// object is still Go's own garbage-collected heap (reimplementing manual
// memory management in Go would mean unsafe.Pointer arithmetic fighting the
// host runtime); what this package gives the virtual machine is the
// spec-mandated *bookkeeping*: a single object list, a bytesAllocated
// counter that drives collection triggers, and the mark/sweep algorithm
// itself, so that reachability — not Go's collector — decides when a
// Language-level object is considered "freed" from the intern table and the
// object list.
package gc

import (
	"fmt"

	"github.com/corvid-lang/corvid/lang/object"
)

// Config tunes the memory manager. The env tags name environment
// variables, but nothing in this module parses them: the commands in
// internal/maincmd start from DefaultConfig and set StressGC from the
// --stress-gc flag.
type Config struct {
	// HeapGrowFactor is the multiple of bytesAllocated-at-last-GC that
	// triggers the next collection.
	HeapGrowFactor float64 `env:"CORVID_GC_GROW_FACTOR" envDefault:"2.0"`
	// InitialThreshold is the bytesAllocated level that triggers the first
	// collection.
	InitialThreshold int `env:"CORVID_GC_INITIAL_THRESHOLD" envDefault:"1048576"`
	// StressGC forces a collection before every single allocation; used by
	// tests to shake out root-marking bugs.
	StressGC bool `env:"CORVID_GC_STRESS" envDefault:"false"`
	// GrayCapacity bounds the mark phase's gray stack; exceeding it is a
	// fatal error, matching the spec's "gray-stack overflow is fatal".
	GrayCapacity int `env:"CORVID_GC_GRAY_CAPACITY" envDefault:"65536"`
}

// DefaultConfig returns the Config populated with its envDefault values,
// useful when no environment/flag overrides apply.
func DefaultConfig() Config {
	return Config{
		HeapGrowFactor:   2.0,
		InitialThreshold: 1 << 20,
		GrayCapacity:     1 << 16,
	}
}

// FatalError reports a condition the spec calls out as unrecoverable. The
// only one the collector raises is gray-stack overflow during marking.
type FatalError struct{ Msg string }

func (e *FatalError) Error() string { return e.Msg }

// RootWalker is implemented by the virtual machine (operand stack, frames,
// open upvalues, globals table, initString) and separately by the compiler
// (its in-progress functions and their constants): it calls push once for
// every Value directly reachable as a root from that side.
type RootWalker func(push func(object.Value))

// Heap owns the global object list, the allocation counter, and the
// string-intern table.
type Heap struct {
	cfg Config

	head      object.Object // head of the intrusive linked list of all live objects
	allocated int           // approximate bytes attributed to live objects
	threshold int           // next collection trigger

	strings map[string]*object.String

	gray []object.Object

	Collections int // number of completed collections, exposed for tests/diagnostics
}

// New creates an empty Heap governed by cfg.
func New(cfg Config) *Heap {
	return &Heap{
		cfg:       cfg,
		threshold: cfg.InitialThreshold,
		strings:   make(map[string]*object.String),
	}
}

// sizeOf is a rough per-kind size estimate, good enough to drive the growth
// heuristic; the Language never inspects it directly.
func sizeOf(o object.Object) int {
	switch v := o.(type) {
	case *object.String:
		return 32 + len(v.Val)
	case *object.List:
		return 24 + cap(v.Items)*16
	default:
		return 48
	}
}

// Register links a newly allocated object into the heap's object list and
// accounts for its size, triggering a collection first if StressGC is set,
// or if the running total has crossed the threshold.
func (h *Heap) Register(o object.Object, roots RootWalker) {
	if h.cfg.StressGC {
		h.Collect(roots)
	} else if h.allocated >= h.threshold {
		h.Collect(roots)
	}
	o.GCHeader().Next = h.head
	h.head = o
	h.allocated += sizeOf(o)
}

// Collect runs one full mark-and-sweep cycle: seed roots via walk, blacken
// the gray stack, weakly prune the intern table, then sweep the object
// list.
func (h *Heap) Collect(walk RootWalker) {
	h.gray = h.gray[:0]
	push := func(v object.Value) {
		obj, ok := v.(object.Object)
		if !ok {
			return
		}
		h.markObject(obj)
	}
	walk(push)

	for len(h.gray) > 0 {
		n := len(h.gray) - 1
		o := h.gray[n]
		h.gray = h.gray[:n]
		h.blacken(o)
	}

	// Weakly prune the string-intern table: anything not marked this cycle
	// did not survive as a root-reachable value.
	for k, s := range h.strings {
		if !s.GCHeader().Marked {
			delete(h.strings, k)
		}
	}

	h.sweep()
	h.Collections++
	h.threshold = int(float64(h.allocated) * h.cfg.HeapGrowFactor)
	if h.threshold < h.cfg.InitialThreshold {
		h.threshold = h.cfg.InitialThreshold
	}
}

func (h *Heap) markObject(o object.Object) {
	if o == nil {
		return
	}
	hdr := o.GCHeader()
	if hdr.Marked {
		return
	}
	hdr.Marked = true
	switch o.(type) {
	case *object.String, *object.Real, *object.Native:
		// leaf objects: marked, but never pushed onto the gray stack
		return
	}
	if len(h.gray) >= h.cfg.GrayCapacity {
		panic(&FatalError{Msg: "gray stack overflow during garbage collection"})
	}
	h.gray = append(h.gray, o)
}

// blacken marks every object directly referenced by o.
func (h *Heap) blacken(o object.Object) {
	switch v := o.(type) {
	case *object.List:
		for _, item := range v.Items {
			if obj, ok := item.(object.Object); ok {
				h.markObject(obj)
			}
		}
	case *object.Function:
		if v.Chunk != nil {
			for _, c := range v.Chunk.Constants {
				if obj, ok := c.(object.Object); ok {
					h.markObject(obj)
				}
			}
		}
	case *object.Closure:
		h.markObject(v.Fn)
		for _, uv := range v.Upvalues {
			h.markObject(uv)
		}
	case *object.Upvalue:
		if obj, ok := v.Closed.(object.Object); ok {
			h.markObject(obj)
		}
		if v.Location != nil {
			if obj, ok := (*v.Location).(object.Object); ok {
				h.markObject(obj)
			}
		}
	case *object.Class:
		v.Methods.ForEach(func(_ string, m *object.Closure) bool {
			h.markObject(m)
			return true
		})
	case *object.Instance:
		h.markObject(v.Class)
		v.Fields.ForEach(func(_ string, fv object.Value) bool {
			if obj, ok := fv.(object.Object); ok {
				h.markObject(obj)
			}
			return true
		})
	case *object.BoundMethod:
		if obj, ok := v.Receiver.(object.Object); ok {
			h.markObject(obj)
		}
		h.markObject(v.Method)
	case *object.Iterator:
		h.markObject(v.Inst)
	case *object.Dynvar:
		if obj, ok := v.Prev.(object.Object); ok {
			h.markObject(obj)
		}
	}
}

// sweep walks the global object list, dropping anything unmarked and
// clearing the mark bit of every survivor.
func (h *Heap) sweep() {
	var prev object.Object
	cur := h.head
	for cur != nil {
		hdr := cur.GCHeader()
		next := hdr.Next
		if hdr.Marked {
			hdr.Marked = false
			prev = cur
		} else {
			h.allocated -= sizeOf(cur)
			if h.allocated < 0 {
				h.allocated = 0
			}
			if prev == nil {
				h.head = next
			} else {
				prev.GCHeader().Next = next
			}
		}
		cur = next
	}
}

// InternString returns the canonical *object.String for s, allocating and
// registering a new one on first sight. Equal byte sequences always yield
// the same pointer, satisfying the Language's interning invariant.
func (h *Heap) InternString(s string, roots RootWalker) *object.String {
	if existing, ok := h.strings[s]; ok {
		return existing
	}
	str := &object.String{Val: s, Hash: object.HashString(s)}
	h.Register(str, roots)
	h.strings[s] = str
	return str
}

// Alloc registers a freshly constructed heap object with the collector. It
// is the single entry point other packages use to bring a new Object under
// GC management — the "single reallocate primitive" the spec calls for,
// specialized to allocation since the Language never explicitly frees.
func (h *Heap) Alloc(o object.Object, roots RootWalker) object.Object {
	h.Register(o, roots)
	return o
}

// Stats returns a human-readable snapshot, useful for --trace output and
// tests.
func (h *Heap) Stats() string {
	return fmt.Sprintf("allocated=%d threshold=%d collections=%d interned=%d",
		h.allocated, h.threshold, h.Collections, len(h.strings))
}
