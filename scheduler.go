package nucleus

import "github.com/sirupsen/logrus"

// Scheduler is the collaborator that loads a process onto the CPU and
// arms its quantum timer (reset on every dispatch). It has no
// interval-timer method: the pseudo-clock deadline is tracked by the
// kernel itself and checked on each line-2 interrupt. Kept as an
// interface, like the teacher's Bus, so a test can fake the clock
// instead of depending on wall time.
type Scheduler interface {
	SetQuantumTimer(d uint)
	LoadState(s *ProcessorState)
}

// Schedule implements the round-robin dispatch loop (spec.md §4.3,
// grounded in original_source/phase2/scheduler.c's scheduler()): if the
// ready queue is non-empty, dequeue its head, give it a fresh quantum,
// and load its state onto the CPU. If it's empty, the kernel either
// halts (no live processes at all), deadlocks (live processes exist but
// none is blocked on a semaphore that could ever wake it), or waits
// with interrupts enabled for the next device/clock interrupt to supply
// a runnable process.
func (k *Kernel) Schedule(sched Scheduler) error {
	p := k.procs.removeHead(&k.readyTail)
	if p == noLink {
		switch {
		case k.procCount == 0:
			log.Warn("nucleus: halting, no processes remain")
			panic(Halt{})
		case k.softBlockCount == 0:
			log.WithFields(logrus.Fields{
				"proc_count":       k.procCount,
				"soft_block_count": k.softBlockCount,
			}).Warn("nucleus: deadlock detected, no process can ever become runnable")
			panic(DeadlockPanic{ProcCount: k.procCount, SoftBlockCount: k.softBlockCount})
		default:
			k.current = noLink
			k.waitForInterrupt(sched)
			return nil
		}
	}

	k.current = p
	k.todLo = k.now()
	k.quantumRemaining = k.quantum
	sched.SetQuantumTimer(k.quantum)
	sched.LoadState(&k.procs.at(p).State)
	return nil
}

// waitForInterrupt idles the CPU with interrupts unmasked. The real
// platform executes a WAIT instruction here; a host without one can
// simply block until HandleInterrupt is invoked from another goroutine
// or the next simulated tick, which is why this is a no-op rather than
// a busy loop: the nucleus's contract ends at "CPU is idle, interrupts
// are enabled", not at how the host implements idling.
func (k *Kernel) waitForInterrupt(sched Scheduler) {}

// EndQuantum is called when the quantum timer fires while a process is
// current, or unconditionally on every line-2 interrupt (spec.md §4.5):
// the process is preempted and goes to the back of the ready queue
// before the scheduler runs again. The elapsed CPU burst is charged by
// chargeElapsed at interrupt entry, not here, so it is never counted
// twice.
func (k *Kernel) EndQuantum(state *ProcessorState) {
	p, ok := k.Current()
	if !ok {
		return
	}
	k.procs.at(p).State.copyFrom(state)
	k.procs.insertQ(&k.readyTail, p)
	k.current = noLink
}
