package nucleus

// syscallResult carries the values a syscall hands back in the caller's
// A1 (and occasionally A2) registers, since the kernel itself never
// writes directly to CPU registers — that's left to the host, which
// copies these back into the resumed process's saved state.
type syscallResult struct {
	A1, A2 uint32
}

// statusFailure is the sentinel A1 value SYS1 (CreateProcess) uses to
// report failure, matching the original's -1 convention.
const statusFailure = ^uint32(0) // all bits set, i.e. -1 as uint32

// HandleSyscall dispatches a SYS instruction trapped from state. Service
// numbers 1-8 are nucleus services and run with interrupts masked off
// for their duration, matching the original's uninterruptible syscall
// handlers; numbers 9 and above are user-defined and pass up to the
// caller's registered TrapSyscall handler, or terminate the caller if
// none is registered.
func (k *Kernel) HandleSyscall(state *ProcessorState) *syscallResult {
	p, ok := k.Current()
	if !ok {
		return nil
	}
	service := state.A1

	if service > uint32(maxNucleusService) {
		k.passUpOrDie(p, TrapSyscall, state)
		return nil
	}

	if (state.CPSR & modeMask) == UserMode {
		// A user-mode process invoking a privileged service is treated as
		// a reserved-instruction program trap (spec.md §5.2), not served.
		state.Cause = causeReservedInstruction
		k.passUpOrDie(p, TrapProgram, state)
		return nil
	}

	switch service {
	case SysCreateProcess:
		return k.sysCreateProcess(p, state)
	case SysTerminateProcess:
		return k.sysTerminateProcess(p, state)
	case SysVerhogen:
		return k.sysVerhogen(p, state)
	case SysPasseren:
		return k.sysPasseren(p, state)
	case SysSpecTrapVec:
		return k.sysSpecTrapVec(p, state)
	case SysGetCPUTime:
		return k.sysGetCPUTime(p)
	case SysWaitClock:
		return k.sysWaitClock(p, state)
	case SysWaitIO:
		return k.sysWaitIO(p, state)
	default:
		k.passUpOrDie(p, TrapSyscall, state)
		return nil
	}
}

// pendingSemAddr is set by the host immediately before invoking
// HandleSyscall for a SYS3/SYS4 call, carrying the already-resolved
// semaphore address named by the caller's A2 argument. Like
// pendingCreateState, this exists because the nucleus has no memory bus
// of its own (spec.md §1 Non-goals: no MMU/memory model) to turn a raw
// register value into a pointer; the host, which does own the address
// space, resolves it once and hands over the real *int32.
var pendingSemAddr *int32

// SetPendingSemAddr supplies the semaphore address for the next
// SysVerhogen or SysPasseren call.
func SetPendingSemAddr(addr *int32) { pendingSemAddr = addr }

// sysCreateProcess implements SYS1: allocate a child of the caller
// seeded from the state pointed to by A2, resolved ahead of time by the
// host into pendingCreateState. Returns A1=0 (SUCCESS) or statusFailure
// if the pool is exhausted or no state was supplied; the new PCB index
// is an internal detail, not part of the ABI.
func (k *Kernel) sysCreateProcess(parent int, state *ProcessorState) *syscallResult {
	child := pendingCreateState
	if child == nil {
		return &syscallResult{A1: statusFailure}
	}
	_, err := k.CreateProcess(parent, child)
	pendingCreateState = nil
	if err != nil {
		return &syscallResult{A1: statusFailure}
	}
	return &syscallResult{A1: 0}
}

// pendingCreateState is set by the host immediately before invoking
// HandleSyscall for a SYS1 call, since the nucleus has no memory bus to
// resolve A2 into a *ProcessorState on its own (spec.md §1 Non-goals:
// no MMU/memory model). SetPendingCreateState is the seam a host uses
// to supply it.
var pendingCreateState *ProcessorState

// SetPendingCreateState supplies the initial state for the next
// SysCreateProcess call. The host calls this after resolving the
// caller's A2 argument to a state snapshot and before invoking
// HandleSyscall.
func SetPendingCreateState(s *ProcessorState) { pendingCreateState = s }

// sysTerminateProcess implements SYS2: terminate the caller (A2 == 0)
// or an arbitrary process by PCB index (A2 != 0), along with its entire
// subtree, following original_source/phase2/exceptions.c's
// terminateProcess depth-first kill order.
func (k *Kernel) sysTerminateProcess(caller int, state *ProcessorState) *syscallResult {
	target := caller
	if state.A2 != 0 {
		target = int(state.A2)
	}
	k.terminateTree(target)
	return nil
}

// sysVerhogen implements SYS3 (V): increment the semaphore at A2's
// address and, if any process is waiting, wake the longest-waiting one
// onto the ready queue.
func (k *Kernel) sysVerhogen(_ int, state *ProcessorState) *syscallResult {
	addr := pendingSemAddr
	pendingSemAddr = nil
	*addr++
	if woken := k.sem.removeBlocked(k.procs, addr); woken != noLink {
		k.procs.at(woken).SemAddr = nil
		k.procs.insertQ(&k.readyTail, woken)
	}
	return nil
}

// sysPasseren implements SYS4 (P): decrement the semaphore at A2's
// address; if it goes negative, block the caller on it and yield the
// CPU (the caller's state has already been saved by the trap path
// before HandleSyscall runs, so returning a nil result with the caller
// now off the ready queue is sufficient — the scheduler picks the next
// runnable process on its own next call).
func (k *Kernel) sysPasseren(caller int, state *ProcessorState) *syscallResult {
	k.chargeElapsed(caller)
	addr := pendingSemAddr
	pendingSemAddr = nil
	*addr--
	if *addr < 0 {
		k.procs.at(caller).State.copyFrom(state)
		_ = k.procs.insertBlocked(k.sem, addr, caller)
		k.current = noLink
	}
	return nil
}

// pendingTrapAreas is set by the host immediately before invoking
// HandleSyscall for a SYS5 call, carrying the already-resolved
// (old-area, new-area) pointer pair named by the caller's A3/A4
// arguments — the same memory-bus workaround as pendingCreateState.
var pendingTrapAreas TrapArea

// SetPendingTrapAreas supplies the (old, new) state pointers for the
// next SysSpecTrapVec call.
func SetPendingTrapAreas(area TrapArea) { pendingTrapAreas = area }

// sysSpecTrapVec implements SYS5: register the caller's (old-area,
// new-area) handler pair for one trap class, named by A2.
// Re-registration for an already-registered class is rejected by
// terminating the caller, per the original's "SYS5 called twice"
// behavior.
func (k *Kernel) sysSpecTrapVec(caller int, state *ProcessorState) *syscallResult {
	class := trapClass(state.A2)
	area := pendingTrapAreas
	pendingTrapAreas = TrapArea{}
	if class < 0 || class >= numTrapClasses {
		k.terminateTree(caller)
		return nil
	}
	pcb := k.procs.at(caller)
	if pcb.Traps[class].registered() {
		k.terminateTree(caller)
		return nil
	}
	pcb.Traps[class] = area
	return nil
}

// sysGetCPUTime implements SYS6: return the caller's accumulated CPU
// time in A1.
func (k *Kernel) sysGetCPUTime(caller int) *syscallResult {
	k.chargeElapsed(caller)
	return &syscallResult{A1: uint32(k.procs.at(caller).CPUTime)}
}

// sysWaitClock implements SYS7: a P on the pseudo-clock semaphore. The
// semaphore is never positive (the interval-timer handler resets it to
// zero after waking every blocked waiter at once), so the caller always
// blocks.
func (k *Kernel) sysWaitClock(caller int, state *ProcessorState) *syscallResult {
	k.procs.at(caller).State.copyFrom(state)
	addr := &k.DeviceSem[ClockIndex]
	*addr--
	_ = k.procs.insertBlocked(k.sem, addr, caller)
	k.softBlockCount++
	k.current = noLink
	return nil
}

// sysWaitIO implements SYS8: a P on the semaphore for the device/line
// named by A2 (line) and A3 (device number), A4 nonzero selecting the
// terminal's transmit sub-device over its receive sub-device for line 7.
// If the device's interrupt already arrived (the semaphore does not go
// negative), the caller is not blocked and gets the captured device
// status in A1; otherwise it blocks until the interrupt wakes it.
func (k *Kernel) sysWaitIO(caller int, state *ProcessorState) *syscallResult {
	line := int(state.A2)
	dev := int(state.A3)
	idx := semaphoreIndex(line, dev)
	if line == lineTerminal && state.A4 != 0 {
		idx += totalDevices
	}
	addr := &k.DeviceSem[idx]
	*addr--
	if *addr >= 0 {
		return &syscallResult{A1: uint32(k.DeviceStatus[idx])}
	}
	k.procs.at(caller).State.copyFrom(state)
	_ = k.procs.insertBlocked(k.sem, addr, caller)
	k.softBlockCount++
	k.current = noLink
	return nil
}
