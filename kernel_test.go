package nucleus

import "testing"

func TestInitCreatesRunnableRootProcess(t *testing.T) {
	k := New(nil, DefaultConfig())
	p, err := k.Init(0x1000)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if k.ProcessCount() != 1 {
		t.Fatalf("ProcessCount = %d, want 1", k.ProcessCount())
	}
	if k.procs.at(p).State.PC != 0x1000 {
		t.Fatalf("root PC = %#x, want 0x1000", k.procs.at(p).State.PC)
	}
	if k.procs.at(p).State.CPSR&modeMask != SysMode {
		t.Fatal("root process should start in supervisor mode")
	}
}

func TestSerializeRestoreRoundTrip(t *testing.T) {
	k := New(nil, DefaultConfig())
	_, _ = k.Init(0)
	sched := &fakeScheduler{}
	_ = k.Schedule(sched)
	k.DeviceSem[3] = -2
	k.DeviceStatus[5] = 0xAB

	buf := make([]byte, kernelSnapshotSize)
	k.Serialize(buf)

	k2 := New(nil, DefaultConfig())
	k2.Restore(buf)

	if k2.ProcessCount() != k.ProcessCount() {
		t.Fatalf("ProcessCount mismatch: got %d, want %d", k2.ProcessCount(), k.ProcessCount())
	}
	if k2.DeviceSem[3] != -2 {
		t.Fatalf("DeviceSem[3] = %d, want -2", k2.DeviceSem[3])
	}
	if k2.DeviceStatus[5] != 0xAB {
		t.Fatalf("DeviceStatus[5] = %#x, want 0xAB", k2.DeviceStatus[5])
	}
}

func TestTerminateTreeKillsDescendants(t *testing.T) {
	k := New(nil, DefaultConfig())
	root, _ := k.Init(0)
	child, _ := k.CreateProcess(root, &ProcessorState{})
	grandchild, _ := k.CreateProcess(child, &ProcessorState{})

	k.terminateTree(root)

	if k.ProcessCount() != 0 {
		t.Fatalf("ProcessCount after terminateTree(root) = %d, want 0", k.ProcessCount())
	}
	if k.procs.at(child).allocated || k.procs.at(grandchild).allocated {
		t.Fatal("descendants should be freed along with their ancestor")
	}
}
