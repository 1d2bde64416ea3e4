// Package nucleus implements the kernel (nucleus) of a small educational
// operating system targeting a uniprocessor ARM-like machine emulator.
//
// The nucleus provides the primitive mechanisms higher-level policy layers
// build on: process management, round-robin CPU scheduling, counting
// semaphores with blocking, synchronous exception dispatch (program traps,
// address-translation traps, system-call traps), and asynchronous
// interrupt handling for external devices, an interval (pseudo-clock)
// timer, and per-process quantum expiry.
//
// The kernel never decodes or executes machine instructions itself; the
// host CPU core does that and hands control to the nucleus only at trap
// and interrupt boundaries, passing a ProcessorState snapshot.
package nucleus

// MaxProc is the fixed capacity of the process pool.
const MaxProc = 20

// noLink marks the absence of a queue/tree link in the index-based arena.
// PCBs live in a fixed-size array and are never allocated individually, so
// links are indices into that array rather than pointers (see the "cyclic
// structures" design note: this sidesteps Go's aversion to pointer cycles
// and keeps every live Process reachable for GC-free reuse).
const noLink = -1

// Process is a process control block (PCB): the kernel's per-process
// record. It carries queue membership links, parent/child/sibling tree
// links, the full saved processor state, CPU-time accounting, and the
// three trap-class handler slots a process may register with SpecTrapVec.
type Process struct {
	// Queue links: membership in at most one doubly-linked circular
	// queue (ready queue, or a single ASL blocked queue). index into
	// Kernel.procs, or noLink.
	next, prev int

	// Tree links.
	parent, firstChild, prevSibling, nextSibling int

	// State is the saved processor state for this process.
	State ProcessorState

	// CPUTime is the accumulated CPU microseconds charged to this
	// process since creation.
	CPUTime uint

	// SemAddr is the address of the semaphore this process is blocked
	// on, or nil if not blocked. Device semaphores live at
	// &Kernel.DeviceSem[i]; other semaphores are counters owned by
	// whatever process called P, so a raw pointer is the only
	// representation that works for both uniformly.
	SemAddr *int32

	// Traps holds the (old-area, new-area) registration for each of the
	// three trap classes. A TrapArea with both pointers nil means the
	// class has no handler registered.
	Traps [numTrapClasses]TrapArea

	// allocated is true while this slot is a live process (not on the
	// free pool). It exists only to make invariant-checking code and
	// tests able to assert pool membership without walking queues.
	allocated bool
}

// reset clears all fields of p to their post-alloc_pcb/free_pcb state.
func (p *Process) reset() {
	p.next = noLink
	p.prev = noLink
	p.parent = noLink
	p.firstChild = noLink
	p.prevSibling = noLink
	p.nextSibling = noLink
	p.State = ProcessorState{}
	p.CPUTime = 0
	p.SemAddr = nil
	p.Traps = [numTrapClasses]TrapArea{}
	p.allocated = false
}

// procPool is the fixed-capacity PCB allocator: MaxProc process records
// plus a free list threaded through the same index-based links used by
// process queues. allocPCB/freePCB are O(1).
type procPool struct {
	procs    [MaxProc]Process
	freeHead int // index into procs, or noLink
}

func newProcPool() *procPool {
	pp := &procPool{freeHead: noLink}
	for i := range pp.procs {
		pp.procs[i].reset()
		pp.freePCB(i)
	}
	return pp
}

// allocPCB returns the index of a free Process with all fields cleared,
// or noLink if the pool is exhausted.
func (pp *procPool) allocPCB() int {
	if pp.freeHead == noLink {
		return noLink
	}
	i := pp.freeHead
	pp.freeHead = pp.procs[i].next
	pp.procs[i].reset()
	pp.procs[i].allocated = true
	return i
}

// freePCB returns the Process at index i to the free pool. The caller
// guarantees i is not reachable from any queue or tree.
func (pp *procPool) freePCB(i int) {
	pp.procs[i].reset()
	pp.procs[i].next = pp.freeHead
	pp.freeHead = i
}

// at returns a pointer to the Process at index i, or nil for noLink.
func (pp *procPool) at(i int) *Process {
	if i == noLink {
		return nil
	}
	return &pp.procs[i]
}

// --- Process queue algebra (doubly-linked circular queue, tail-pointer convention) ---

// A process queue is a circular doubly-linked queue of process indices,
// identified by the index of its tail element. noLink means empty. The
// tail-pointer convention makes both "enqueue at tail" and "dequeue head"
// constant time: the head is always tail.next.

func emptyQ(tail int) bool { return tail == noLink }

func mkEmptyQ() int { return noLink }

// head returns the index at the head of the queue whose tail is tail,
// without removing it.
func (pp *procPool) head(tail int) int {
	if emptyQ(tail) {
		return noLink
	}
	return pp.procs[tail].next
}

// insertQ appends p at the tail of the queue identified by *tail.
func (pp *procPool) insertQ(tail *int, p int) {
	if emptyQ(*tail) {
		pp.procs[p].next = p
		pp.procs[p].prev = p
	} else {
		t := *tail
		pp.procs[p].next = pp.procs[t].next
		pp.procs[pp.procs[t].next].prev = p
		pp.procs[t].next = p
		pp.procs[p].prev = t
	}
	*tail = p
}

// removeHead removes and returns the head of the queue identified by
// *tail, or noLink if the queue is empty.
func (pp *procPool) removeHead(tail *int) int {
	if emptyQ(*tail) {
		return noLink
	}
	t := *tail
	if pp.procs[t].next == t {
		*tail = noLink
		return t
	}
	ret := pp.procs[t].next
	pp.procs[t].next = pp.procs[ret].next
	pp.procs[pp.procs[t].next].prev = t
	pp.procs[ret].next = noLink
	pp.procs[ret].prev = noLink
	return ret
}

// outQ removes p from the queue identified by *tail, wherever it sits,
// traversing from the head. Returns noLink if p is not a member.
func (pp *procPool) outQ(tail *int, p int) int {
	if emptyQ(*tail) {
		return noLink
	}
	t := *tail
	if p == t {
		if pp.procs[t].next != t {
			pp.procs[pp.procs[t].next].prev = pp.procs[t].prev
			pp.procs[pp.procs[t].prev].next = pp.procs[t].next
			*tail = pp.procs[t].prev
		} else {
			*tail = noLink
		}
		pp.procs[p].next = noLink
		pp.procs[p].prev = noLink
		return p
	}

	cur := pp.procs[t].next
	for cur != t {
		if cur == p {
			pp.procs[pp.procs[cur].next].prev = pp.procs[cur].prev
			pp.procs[pp.procs[cur].prev].next = pp.procs[cur].next
			pp.procs[cur].next = noLink
			pp.procs[cur].prev = noLink
			return cur
		}
		cur = pp.procs[cur].next
	}
	return noLink
}

// --- Process tree algebra ---

// emptyChild reports whether p has no children.
func (pp *procPool) emptyChild(p int) bool {
	return pp.procs[p].firstChild == noLink
}

// insertChild makes p the new first child of parent. The previous first
// child, if any, becomes p's previous sibling; p has no next sibling,
// since it was just "born".
func (pp *procPool) insertChild(parent, p int) {
	if !pp.emptyChild(parent) {
		oldFirst := pp.procs[parent].firstChild
		pp.procs[oldFirst].nextSibling = p
		pp.procs[p].prevSibling = oldFirst
	} else {
		pp.procs[p].prevSibling = noLink
	}
	pp.procs[p].nextSibling = noLink
	pp.procs[parent].firstChild = p
	pp.procs[p].parent = parent
}

// removeChild detaches and returns parent's current first child,
// promoting that child's previous sibling to the first-child slot.
// Returns noLink if parent has no children.
func (pp *procPool) removeChild(parent int) int {
	if pp.emptyChild(parent) {
		return noLink
	}
	first := pp.procs[parent].firstChild

	if pp.procs[first].prevSibling == noLink {
		pp.procs[first].parent = noLink
		pp.procs[parent].firstChild = noLink
		return first
	}

	pp.procs[parent].firstChild = pp.procs[first].prevSibling
	pp.procs[pp.procs[first].prevSibling].nextSibling = noLink
	pp.procs[first].prevSibling = noLink
	pp.procs[first].parent = noLink
	return first
}

// outChild detaches p from its parent's child list regardless of
// position, splicing siblings across the gap. Returns noLink if p has
// no parent.
func (pp *procPool) outChild(p int) int {
	parent := pp.procs[p].parent
	if parent == noLink {
		return noLink
	}

	if p == pp.procs[parent].firstChild {
		return pp.removeChild(parent)
	}

	if pp.procs[p].prevSibling == noLink {
		pp.procs[pp.procs[p].nextSibling].prevSibling = noLink
	} else {
		pp.procs[pp.procs[p].nextSibling].prevSibling = pp.procs[p].prevSibling
		pp.procs[pp.procs[p].prevSibling].nextSibling = pp.procs[p].nextSibling
		pp.procs[p].prevSibling = noLink
	}
	pp.procs[p].nextSibling = noLink
	pp.procs[p].parent = noLink
	return p
}
