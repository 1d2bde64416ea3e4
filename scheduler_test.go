package nucleus

import "testing"

type fakeScheduler struct {
	quantum uint
	loaded  *ProcessorState
}

func (f *fakeScheduler) SetQuantumTimer(d uint)     { f.quantum = d }
func (f *fakeScheduler) LoadState(s *ProcessorState) { f.loaded = s }

func TestScheduleRoundRobinOrder(t *testing.T) {
	k := New(nil, DefaultConfig())
	sched := &fakeScheduler{}

	a, _ := k.CreateProcess(noLink, &ProcessorState{})
	b, _ := k.CreateProcess(noLink, &ProcessorState{})

	if err := k.Schedule(sched); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if cur, _ := k.Current(); cur != a {
		t.Fatalf("first scheduled = %d, want %d", cur, a)
	}
	if sched.quantum != DefaultQuantum {
		t.Fatalf("quantum timer = %d, want %d", sched.quantum, DefaultQuantum)
	}

	k.EndQuantum(&ProcessorState{})
	if err := k.Schedule(sched); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if cur, _ := k.Current(); cur != b {
		t.Fatalf("second scheduled = %d, want %d", cur, b)
	}

	k.EndQuantum(&ProcessorState{})
	if err := k.Schedule(sched); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if cur, _ := k.Current(); cur != a {
		t.Fatalf("third scheduled = %d, want %d (round-robin wraparound)", cur, a)
	}
}

func TestScheduleHaltsWhenNoProcessesRemain(t *testing.T) {
	k := New(nil, DefaultConfig())
	sched := &fakeScheduler{}

	defer func() {
		r := recover()
		if _, ok := r.(Halt); !ok {
			t.Fatalf("expected Halt panic, got %v", r)
		}
	}()
	_ = k.Schedule(sched)
}

func TestScheduleDeadlockWhenNoneBlockable(t *testing.T) {
	k := New(nil, DefaultConfig())
	sched := &fakeScheduler{}

	p, _ := k.CreateProcess(noLink, &ProcessorState{})
	_ = k.Schedule(sched) // dequeues p, nothing left on ready queue
	k.current = noLink    // simulate p having blocked on a general semaphore
	k.procs.at(p).SemAddr = nil

	defer func() {
		r := recover()
		dp, ok := r.(DeadlockPanic)
		if !ok {
			t.Fatalf("expected DeadlockPanic, got %v", r)
		}
		if dp.ProcCount != 1 {
			t.Fatalf("DeadlockPanic.ProcCount = %d, want 1", dp.ProcCount)
		}
	}()
	_ = k.Schedule(sched)
}
