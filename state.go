package nucleus

import "encoding/binary"

// trapClass identifies one of the three synchronous exception classes a
// process may register a second-level handler for via SpecTrapVec.
type trapClass int

const (
	// TrapProgram is a program (reserved instruction, privilege
	// violation, arithmetic, ...) trap.
	TrapProgram trapClass = iota
	// TrapTranslation is an address-translation (TLB) trap.
	TrapTranslation
	// TrapSyscall is a system-call trap for service numbers >= 9.
	TrapSyscall

	numTrapClasses
)

// ProcessorState is a full architectural register snapshot: the fixed
// save-area layout the platform's exception/interrupt plumbing uses to
// move a process on and off the CPU. Field names follow the syscall ABI
// (a1-a4 carry arguments and results) rather than raw register numbers,
// mirroring how the teacher's Registers type names fields by programmer
// role (D/A/PC/SR) rather than by encoding position.
type ProcessorState struct {
	A1, A2, A3, A4         uint32 // argument/result registers
	V1, V2, V3, V4, V5, V6 uint32 // callee-saved registers
	SL, FP, IP, SP, LR, PC uint32
	CPSR                   uint32 // status register (mode bits, interrupt mask)
	Control                uint32 // CP15 control (virtual memory on/off, ...)
	EntryHi                uint32 // CP15 EntryHi
	Cause                  uint32 // CP15 Cause (trap/interrupt cause bits)
	TODHi, TODLo           uint32 // time-of-day snapshot at save time
}

// copyFrom overwrites every field of s with src's, matching the
// original nucleus's copyState: a full-state transfer with no partial
// updates.
func (s *ProcessorState) copyFrom(src *ProcessorState) {
	*s = *src
}

// TrapArea is the (old-area, new-area) pair a process registers for one
// trap class via SpecTrapVec. Both nil means "not registered": traps of
// that class for this process pass up to the parent behavior of
// terminating the process (see passUpOrDie).
type TrapArea struct {
	Old, New *ProcessorState
}

// registered reports whether a handler pair has been installed.
func (t TrapArea) registered() bool {
	return t.New != nil
}

// stateSerializeSize is the number of bytes serializeInto writes for a
// single ProcessorState, following the teacher's fixed-width
// big-endian layout convention (serialize.go).
const stateSerializeSize = 22 * 4

func (s *ProcessorState) serializeInto(buf []byte) {
	be := binary.BigEndian
	fields := [...]uint32{
		s.A1, s.A2, s.A3, s.A4,
		s.V1, s.V2, s.V3, s.V4, s.V5, s.V6,
		s.SL, s.FP, s.IP, s.SP, s.LR, s.PC,
		s.CPSR, s.Control, s.EntryHi, s.Cause,
	}
	off := 0
	for _, f := range fields {
		be.PutUint32(buf[off:], f)
		off += 4
	}
	be.PutUint32(buf[off:], s.TODHi)
	off += 4
	be.PutUint32(buf[off:], s.TODLo)
}

func (s *ProcessorState) deserializeFrom(buf []byte) {
	be := binary.BigEndian
	ptrs := [...]*uint32{
		&s.A1, &s.A2, &s.A3, &s.A4,
		&s.V1, &s.V2, &s.V3, &s.V4, &s.V5, &s.V6,
		&s.SL, &s.FP, &s.IP, &s.SP, &s.LR, &s.PC,
		&s.CPSR, &s.Control, &s.EntryHi, &s.Cause,
	}
	off := 0
	for _, p := range ptrs {
		*p = be.Uint32(buf[off:])
		off += 4
	}
	s.TODHi = be.Uint32(buf[off:])
	off += 4
	s.TODLo = be.Uint32(buf[off:])
}
