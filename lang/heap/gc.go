package heap

// Collect runs one full mark-and-sweep cycle: every object reachable from
// the heap's Roots callback (plus any extraRoots the caller passes directly,
// e.g. a compile-time root not yet visible from Roots) is marked, then every
// unmarked slot is freed.
//
// Collect is synchronous and stop-the-world: there is only ever one logical
// execution in this interpreter, so there is nothing else to pause.
func (h *Heap) Collect(extraRoots ...ID) {
	for i := range h.objects {
		h.objects[i].marked = false
	}

	var gray []ID
	mark := func(id ID) {
		if id == 0 {
			return
		}
		e := &h.objects[id-1]
		if !e.live || e.marked {
			return
		}
		e.marked = true
		gray = append(gray, id)
	}

	if h.Roots != nil {
		for _, id := range h.Roots() {
			mark(id)
		}
	}
	for _, id := range extraRoots {
		mark(id)
	}

	// blacken: pop from the gray stack and enqueue everything it references,
	// until the stack runs dry and every reachable object is black (marked,
	// nothing left to trace from it).
	for len(gray) > 0 {
		id := gray[len(gray)-1]
		gray = gray[:len(gray)-1]
		obj := h.objects[id-1].obj
		for _, ref := range obj.References() {
			mark(ref)
		}
	}

	h.sweepStrings()

	live := 0
	for i := range h.objects {
		e := &h.objects[i]
		if !e.live {
			continue
		}
		if !e.marked {
			e.obj = nil
			e.live = false
			h.free = append(h.free, ID(i+1))
			continue
		}
		live++
	}
}

// sweepStrings prunes the intern table of any entry whose id no longer
// refers to a live, marked object: a string can only be freed once nothing
// else (including the table itself, which is not itself a root) reaches it,
// so this runs after marking and before the main sweep reclaims the slot.
func (h *Heap) sweepStrings() {
	for s, id := range h.strings {
		e := &h.objects[id-1]
		if !e.live || !e.marked {
			delete(h.strings, s)
		}
	}
}
