package nucleus

import (
	"unsafe"

	"github.com/pkg/errors"
)

// numSemd is the semaphore-descriptor pool size: one descriptor per
// concurrently-blockable process, plus two sentinels.
const numSemd = MaxProc + 2

// errASLExhausted is returned by insertBlocked only when a fresh
// descriptor is needed and the pool has none left. Pool sizing (MaxProc
// descriptors for at most MaxProc simultaneously blocked processes, plus
// two permanent sentinels) makes this statically unreachable; it exists
// so a defect in that invariant fails loudly instead of corrupting the
// list.
var errASLExhausted = errors.New("nucleus: semaphore descriptor pool exhausted")

// semAddr orders semaphore identities the same way the spec's C ancestor
// does: by the semaphore's memory address. Mirrors the Go runtime's own
// sema table (runtime/sema.go), which keys its waiter tree on
// uintptr(unsafe.Pointer(addr)) for exactly this reason — two semaphores
// are the same semaphore iff they are the same memory cell.
func semAddr(p *int32) uintptr {
	return uintptr(unsafe.Pointer(p))
}

// semDescriptor is one entry on the Active Semaphore List: a semaphore
// address and the tail of the process queue blocked on it. low and high
// mark the two sentinel descriptors, which bracket the sorted list so
// every real key has a strict predecessor and successor.
type semDescriptor struct {
	next       int // index into asl.semds, or noLink
	addr       *int32
	low, high  bool
	blocked    int // process-queue tail index, or noLink
}

// asl is the Active Semaphore List: a singly-linked list of semaphore
// descriptors sorted strictly ascending by address, bracketed by sentinel
// descriptors. The sentinels remove every boundary case from
// search/insert/remove.
type asl struct {
	semds    [numSemd]semDescriptor
	freeHead int // index into semds, or noLink
	head     int // index of the low sentinel
}

func newASL() *asl {
	a := &asl{freeHead: noLink}
	for i := range a.semds {
		a.freeSemd(i)
	}

	low := a.allocSemd()
	high := a.allocSemd()
	a.semds[low].low = true
	a.semds[low].next = high
	a.semds[high].high = true
	a.semds[high].next = noLink
	a.head = low
	return a
}

func (a *asl) allocSemd() int {
	if a.freeHead == noLink {
		return noLink
	}
	i := a.freeHead
	a.freeHead = a.semds[i].next
	a.semds[i] = semDescriptor{blocked: noLink}
	return i
}

func (a *asl) freeSemd(i int) {
	a.semds[i] = semDescriptor{blocked: noLink}
	a.semds[i].next = a.freeHead
	a.freeHead = i
}

// less reports whether descriptor d's key sorts strictly before addr.
// The low sentinel sorts before everything; the high sentinel sorts
// after everything.
func (d *semDescriptor) less(addr *int32) bool {
	if d.low {
		return true
	}
	if d.high {
		return false
	}
	return semAddr(d.addr) < semAddr(addr)
}

func (d *semDescriptor) equals(addr *int32) bool {
	return !d.low && !d.high && semAddr(d.addr) == semAddr(addr)
}

// findPrev returns the index of the descriptor with the strict
// predecessor of addr: the last descriptor whose key sorts before addr.
// Because the list is sentinel-bracketed and sorted, this always
// terminates at a descriptor whose successor either matches addr or
// sorts after it.
func (a *asl) findPrev(addr *int32) int {
	cur := a.head
	for a.semds[a.semds[cur].next].less(addr) {
		cur = a.semds[cur].next
	}
	return cur
}

// insertBlocked appends p to the blocked queue of the semaphore at addr,
// allocating a fresh descriptor and splicing it into the sorted list if
// the semaphore is not already active. Sets p's SemAddr to addr. Fails
// only if the descriptor pool is exhausted, which pool sizing makes
// unreachable.
func (pp *procPool) insertBlocked(a *asl, addr *int32, p int) error {
	prev := a.findPrev(addr)
	succ := a.semds[prev].next

	if !a.semds[succ].equals(addr) {
		fresh := a.allocSemd()
		if fresh == noLink {
			return errors.WithStack(errASLExhausted)
		}
		a.semds[fresh].addr = addr
		a.semds[fresh].blocked = mkEmptyQ()
		a.semds[fresh].next = succ
		a.semds[prev].next = fresh
		succ = fresh
	}

	pp.insertQ(&a.semds[succ].blocked, p)
	pp.procs[p].SemAddr = addr
	return nil
}

// removeBlocked removes and returns the head of the blocked queue for
// the semaphore at addr. If the queue becomes empty, the descriptor is
// unspliced and returned to the free pool. Returns noLink if no
// descriptor at addr exists.
func (a *asl) removeBlocked(pp *procPool, addr *int32) int {
	prev := a.findPrev(addr)
	cur := a.semds[prev].next
	if cur == noLink || !a.semds[cur].equals(addr) {
		return noLink
	}

	ret := pp.removeHead(&a.semds[cur].blocked)
	if ret == noLink {
		return noLink
	}

	if emptyQ(a.semds[cur].blocked) {
		a.semds[prev].next = a.semds[cur].next
		a.freeSemd(cur)
	}
	return ret
}

// outBlocked removes process p from the blocked queue of its own
// SemAddr, wherever it sits in that queue. Returns noLink on mismatch
// (p.SemAddr nil, or p not actually present).
func (a *asl) outBlocked(pp *procPool, p int) int {
	addr := pp.procs[p].SemAddr
	if addr == nil {
		return noLink
	}

	prev := a.findPrev(addr)
	cur := a.semds[prev].next
	if cur == noLink || !a.semds[cur].equals(addr) {
		return noLink
	}

	ret := pp.outQ(&a.semds[cur].blocked, p)
	if ret == noLink {
		return noLink
	}

	if emptyQ(a.semds[cur].blocked) {
		a.semds[prev].next = a.semds[cur].next
		a.freeSemd(cur)
	}
	return ret
}

// headBlocked peeks at the head of the blocked queue for addr without
// removing it. Returns noLink if no descriptor at addr exists or its
// queue is empty.
func (a *asl) headBlocked(pp *procPool, addr *int32) int {
	prev := a.findPrev(addr)
	cur := a.semds[prev].next
	if cur == noLink || !a.semds[cur].equals(addr) {
		return noLink
	}
	return pp.head(a.semds[cur].blocked)
}
