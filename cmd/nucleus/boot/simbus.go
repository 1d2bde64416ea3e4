package boot

import "github.com/reichman/nucleus"

// SimBus is a minimal in-memory stand-in for the real device bus: no
// line or device ever asserts on its own. It exists so "nucleus run"
// has something to boot against without real hardware; an embedder
// wiring the nucleus into an actual emulator supplies its own Bus
// instead, the way the teacher's CPU.New takes any Bus implementation.
type SimBus struct {
	dtp  [nucleus.NumDeviceSem]nucleus.DTPRegisters
	term [8]nucleus.TermRegisters
	tod  uint32
}

// NewSimBus returns an idle SimBus.
func NewSimBus() *SimBus { return &SimBus{} }

func (b *SimBus) PendingLine() uint8           { return 0 }
func (b *SimBus) PendingDevice(line int) uint8 { return 0 }
func (b *SimBus) DTPRegisters(i int) *nucleus.DTPRegisters {
	return &b.dtp[i]
}
func (b *SimBus) TermRegisters(dev int) *nucleus.TermRegisters {
	return &b.term[dev]
}

// ReadTOD advances a synthetic time-of-day clock by one tick per call,
// standing in for the hardware STCK the CLI harness has no real clock
// behind.
func (b *SimBus) ReadTOD() uint32 {
	b.tod++
	return b.tod
}

// SimScheduler is the Scheduler collaborator for the CLI harness: it
// has no real CPU to load state into, so LoadState/SetQuantumTimer are
// recorded but otherwise inert, matching a host that hasn't wired a
// real timer or register file yet.
type SimScheduler struct {
	bus          *SimBus
	quantumTimer uint
	loaded       *nucleus.ProcessorState
}

// NewSimScheduler returns a Scheduler bound to bus.
func NewSimScheduler(bus *SimBus) *SimScheduler {
	return &SimScheduler{bus: bus}
}

func (s *SimScheduler) SetQuantumTimer(d uint)          { s.quantumTimer = d }
func (s *SimScheduler) LoadState(st *nucleus.ProcessorState) { s.loaded = st }
