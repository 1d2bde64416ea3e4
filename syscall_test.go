package nucleus

import "testing"

func sysState(service, a2, a3, a4 uint32) *ProcessorState {
	return &ProcessorState{A1: service, A2: a2, A3: a3, A4: a4, CPSR: SysMode}
}

func TestSyscallPasserenBlocksOnNegative(t *testing.T) {
	k := New(nil, DefaultConfig())
	sched := &fakeScheduler{}
	p, _ := k.CreateProcess(noLink, &ProcessorState{})
	_ = k.Schedule(sched)

	var sem int32 = 0
	SetPendingSemAddr(&sem)
	k.HandleSyscall(sysState(uint32(SysPasseren), 0, 0, 0))

	if sem != -1 {
		t.Fatalf("semaphore = %d, want -1", sem)
	}
	if _, ok := k.Current(); ok {
		t.Fatal("caller should have yielded the CPU after blocking")
	}
	if k.procs.at(p).SemAddr != &sem {
		t.Fatal("blocked process should record its semaphore address")
	}
}

func TestSyscallVerhogenWakesWaiter(t *testing.T) {
	k := New(nil, DefaultConfig())
	sched := &fakeScheduler{}

	waiter, _ := k.CreateProcess(noLink, &ProcessorState{})
	_ = k.Schedule(sched)

	var sem int32 = 0
	SetPendingSemAddr(&sem)
	k.HandleSyscall(sysState(uint32(SysPasseren), 0, 0, 0))
	if _, ok := k.Current(); ok {
		t.Fatal("waiter should be blocked")
	}

	other, _ := k.CreateProcess(noLink, &ProcessorState{})
	_ = k.Schedule(sched) // runs `other`

	SetPendingSemAddr(&sem)
	k.HandleSyscall(sysState(uint32(SysVerhogen), 0, 0, 0))

	if sem != 0 {
		t.Fatalf("semaphore after V = %d, want 0", sem)
	}
	if k.procs.at(waiter).SemAddr != nil {
		t.Fatal("V should clear the woken process's SemAddr")
	}
	if head := k.procs.head(k.readyTail); head != waiter {
		t.Fatalf("woken process should be back on the ready queue, got head=%d want %d", head, waiter)
	}
	_ = other
}

func TestSyscallCreateProcessExhaustion(t *testing.T) {
	k := New(nil, DefaultConfig())
	sched := &fakeScheduler{}
	_, _ = k.CreateProcess(noLink, &ProcessorState{})
	_ = k.Schedule(sched)

	for i := 1; i < MaxProc; i++ {
		SetPendingCreateState(&ProcessorState{})
		res := k.HandleSyscall(sysState(uint32(SysCreateProcess), 0, 0, 0))
		if res == nil || res.A1 == statusFailure {
			t.Fatalf("unexpected failure creating process %d", i)
		}
	}

	SetPendingCreateState(&ProcessorState{})
	res := k.HandleSyscall(sysState(uint32(SysCreateProcess), 0, 0, 0))
	if res == nil || res.A1 != statusFailure {
		t.Fatal("expected statusFailure once the process pool is exhausted")
	}
}

func TestSyscallUserModePrivilegedServiceTraps(t *testing.T) {
	k := New(nil, DefaultConfig())
	sched := &fakeScheduler{}
	p, _ := k.CreateProcess(noLink, &ProcessorState{})
	_ = k.Schedule(sched)

	state := sysState(uint32(SysGetCPUTime), 0, 0, 0)
	state.CPSR = UserMode

	k.HandleSyscall(state)

	// No TrapProgram handler registered, so the offending process (and
	// its, empty, subtree) is terminated.
	if k.procs.at(p).allocated {
		t.Fatal("user-mode privileged syscall without a trap handler should terminate the caller")
	}
}

func TestSyscallGetCPUTime(t *testing.T) {
	k := New(nil, DefaultConfig())
	sched := &fakeScheduler{}
	p, _ := k.CreateProcess(noLink, &ProcessorState{})
	_ = k.Schedule(sched)
	k.chargeCPUTime(p, 1234)

	res := k.HandleSyscall(sysState(uint32(SysGetCPUTime), 0, 0, 0))
	if res == nil || res.A1 != 1234 {
		t.Fatalf("GetCPUTime = %+v, want A1=1234", res)
	}
}
