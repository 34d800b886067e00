// Package heap implements the interpreter's garbage-collected object arena:
// the objects registered with it (interned strings and, from lang/machine,
// functions, closure cells, classes, instances and bound methods) are
// tracked by an ID into a single Heap, and the tracing collector in gc.go
// walks and reclaims that graph by ID. Lists, maps and tuples are not
// registered with the heap and are not tracked by it.
package heap

import "fmt"

// ID identifies one heap object. The zero ID is never allocated, so it can
// double as a "no object" sentinel for fields that are optional (e.g. a
// class with no base).
type ID uint32

func (id ID) String() string { return fmt.Sprintf("#%d", id) }

// Object is implemented by every value kind the heap can hold. References
// reports every ID this object points to, so the collector can blacken it
// without a kind-specific type switch at the call site; kinds with no
// outgoing references (string) simply return nil.
type Object interface {
	Kind() string
	References() []ID
}

// entry is one slot in the heap's object table.
type entry struct {
	obj    Object
	marked bool
	// live is false for a freed slot awaiting reuse; the slot's index is
	// then on the free list.
	live bool
}

// Heap owns every heap-allocated object for one VM. It is not safe for
// concurrent use; the language model is single-threaded (see the VM's own
// docs), and the heap is owned by exactly one thread at a time.
type Heap struct {
	objects []entry
	free    []ID

	strings map[string]ID

	// Stress, when true, runs a collection on every Allocate call instead of
	// waiting for the size-based threshold in Threshold/GrowthFactor. It
	// mirrors the stress configuration flag the GC is triggered under.
	Stress bool

	// Threshold is the total of Allocate's size arguments (summed over every
	// allocation; a collection does not reduce the total) at which the next
	// allocation triggers a collection; it grows by GrowthFactor after every
	// collection, the standard allocate-past-N-then-grow policy.
	Threshold      int
	GrowthFactor   float64
	bytesAllocated int

	// Roots is called by the collector to obtain the current root set;
	// it is set once by the owning VM/thread so gc.go needs no dependency on
	// lang/machine. Nil until the owner wires it up (e.g. in tests that
	// exercise allocation without a running VM).
	Roots func() []ID
}

const defaultGrowthFactor = 2.0

// New creates an empty heap with the given initial collection threshold (in
// the same units Allocate's size argument uses).
func New(initialThreshold int) *Heap {
	return &Heap{
		strings:      map[string]ID{},
		Threshold:    initialThreshold,
		GrowthFactor: defaultGrowthFactor,
	}
}

// Allocate adds obj to the heap and returns its ID. size is the caller's
// estimate of the object's weight for the allocation-triggered collection
// policy (e.g. a list's capacity, a string's byte length); callers that
// don't track a meaningful size may pass 1.
//
// collect, when non-nil, is invoked before the slot is claimed if this
// allocation crosses the threshold (or Stress is set): it is the VM's
// Collect entry point, passed in rather than imported to avoid a dependency
// cycle between heap and its caller.
func (h *Heap) Allocate(obj Object, size int, collect func()) ID {
	if collect != nil && (h.Stress || h.bytesAllocated+size > h.Threshold) {
		collect()
		h.Threshold = int(float64(h.bytesAllocated+size) * h.GrowthFactor)
	}
	h.bytesAllocated += size

	if n := len(h.free); n > 0 {
		id := h.free[n-1]
		h.free = h.free[:n-1]
		h.objects[id-1] = entry{obj: obj, live: true}
		return id
	}
	h.objects = append(h.objects, entry{obj: obj, live: true})
	return ID(len(h.objects))
}

// Get dereferences id. It panics on a dangling or out-of-range id, which
// indicates a compiler or VM bug (a live reference the collector should have
// treated as a root, or a use-after-free): neither is recoverable.
func (h *Heap) Get(id ID) Object {
	e := &h.objects[id-1]
	if !e.live {
		panic(fmt.Sprintf("heap: use of freed object %s", id))
	}
	return e.obj
}

// Len reports the number of slots ever allocated, live or freed; it is only
// useful for diagnostics and tests.
func (h *Heap) Len() int { return len(h.objects) }
