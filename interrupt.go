package nucleus

import "github.com/sirupsen/logrus"

// HandleInterrupt dispatches an asynchronous interrupt, decoded off
// bus.PendingLine() (spec.md §6, grounded in
// original_source/phase2/interrupts.c's interruptHandler). Line 2 (the
// interval timer) and the per-process quantum timer are handled
// locally; lines 3-7 (external devices, with line 7 shared between the
// terminal's receive and transmit sub-devices) resolve to a single
// device-semaphore V and status capture. Lines 0 and 1 (inter-processor
// and unused lines on this uniprocessor target) are never wired and
// panic if ever asserted, per spec.md §7.
//
// state is the interrupted process's live CPU state (nil if the CPU was
// idle), and sched is the collaborator used to re-dispatch after a
// line-2 fire, which always ends the current quantum (spec.md §4.5,
// original_source/phase2/interrupts.c's lineTwoHandler -> endOfQuantum).
func (k *Kernel) HandleInterrupt(state *ProcessorState, sched Scheduler) {
	if p, ok := k.Current(); ok {
		k.chargeElapsed(p)
	}
	if state != nil {
		state.PC -= pcPrefetchAdjust
	}

	lines := k.bus.PendingLine()
	line, ok := lowestSetBit(lines)
	if !ok {
		panic(unsupportedLinePanic{})
	}

	switch {
	case line < lineTimer:
		panic(unsupportedLinePanic{line: line})
	case line == lineTimer:
		k.handleLineTwo(state, sched)
	default:
		k.handleDeviceInterrupt(line)
	}
}

// handleLineTwo services a line-2 interrupt. The pseudo-clock broadcast
// only runs once the interval has actually elapsed (now >= endOfInterval);
// every line-2 fire, broadcast or not, unconditionally ends the current
// quantum and re-invokes the scheduler (spec.md §4.5).
func (k *Kernel) handleLineTwo(state *ProcessorState, sched Scheduler) {
	if k.now() >= k.endOfInterval {
		k.handleIntervalTimer()
	}
	if state != nil {
		k.EndQuantum(state)
	}
	k.Schedule(sched)
}

// handleIntervalTimer services the pseudo-clock tick: every process
// blocked on the pseudo-clock semaphore is woken (not just the head,
// unlike a normal V — WaitClock is a broadcast), the semaphore is reset
// to zero, and the next deadline is armed.
func (k *Kernel) handleIntervalTimer() {
	addr := &k.DeviceSem[ClockIndex]
	for {
		woken := k.sem.removeBlocked(k.procs, addr)
		if woken == noLink {
			break
		}
		k.procs.at(woken).SemAddr = nil
		k.procs.insertQ(&k.readyTail, woken)
		k.softBlockCount--
	}
	*addr = 0
	k.endOfInterval = k.now() + uint32(k.interval)
}

// handleDeviceInterrupt services an interrupt on an external-device
// line (3-7): find the lowest-numbered device asserting on that line,
// capture its status register, acknowledge it, and V the device's
// semaphore — waking at most one waiter, since only one process can
// ever be blocked on a given device semaphore at a time. Line 7 (the
// terminal) checks its transmit sub-device first, matching the
// original's terminal priority.
func (k *Kernel) handleDeviceInterrupt(line int) {
	pending := k.bus.PendingDevice(line)
	dev, ok := lowestSetBit(pending)
	if !ok {
		panic(unsupportedLinePanic{line: line})
	}

	idx := semaphoreIndex(line, dev)
	var status uint32

	if line == lineTerminal {
		regs := k.bus.TermRegisters(dev)
		if regs.RecvStatus&isolateReady == deviceReady {
			status = regs.XmitStatus
			regs.XmitCommand = ackCommand
			idx += totalDevices
		} else {
			status = regs.RecvStatus
			regs.RecvCommand = ackCommand
		}
	} else {
		regs := k.bus.DTPRegisters(idx)
		status = regs.Status
		regs.Command = ackCommand
	}

	k.DeviceStatus[idx] = int32(status)

	addr := &k.DeviceSem[idx]
	*addr++
	if *addr <= 0 {
		if woken := k.sem.removeBlocked(k.procs, addr); woken != noLink {
			k.procs.at(woken).SemAddr = nil
			k.procs.at(woken).State.A1 = status
			k.procs.insertQ(&k.readyTail, woken)
			k.softBlockCount--
		} else {
			log.WithFields(logrus.Fields{"line": line, "device": dev, "status": status}).
				Info("nucleus: device interrupt with no waiter, V overtook WaitIO")
		}
	}
}
