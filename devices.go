package nucleus

// Bus is the host's interrupt-line and device-register collaborator.
// The nucleus never touches raw memory (out of scope per spec.md §1: the
// memory map is an external collaborator); it only reads the small,
// fixed set of registers a device interrupt needs decoded, following the
// same shape as the teacher's Bus interface for CPU memory access.
type Bus interface {
	// PendingLine returns the bitmap of interrupt lines 0-7 currently
	// asserted, one bit per line (bit i = line i).
	PendingLine() uint8

	// PendingDevice returns the per-line pending-interrupt bitmap for
	// line (3-7 only), one bit per device instance (bit i = device i).
	PendingDevice(line int) uint8

	// DTPRegisters returns the disk/tape/printer-style register block
	// for device-semaphore index (0-31, lines 3-6; excludes the clock
	// and terminal sub-devices).
	DTPRegisters(index int) *DTPRegisters

	// TermRegisters returns the terminal register block for the
	// terminal at device number dev (0-7).
	TermRegisters(dev int) *TermRegisters

	// ReadTOD returns the current value of the hardware time-of-day
	// clock (microseconds, monotonically increasing), the same STCK
	// source original_source uses for CPU-time accounting.
	ReadTOD() uint32
}

// DTPRegisters is the register layout shared by disk, tape, and printer
// devices (spec.md §6).
type DTPRegisters struct {
	Status  uint32
	Command uint32
	Data0   uint32
	Data1   uint32
}

// TermRegisters is the terminal device's register layout: independent
// receive and transmit sub-devices, each with its own status/command
// pair (spec.md §6).
type TermRegisters struct {
	RecvStatus  uint32
	RecvCommand uint32
	XmitStatus  uint32
	XmitCommand uint32
}

// deviceReady is the value a status register's low 8 bits (isolated by
// isolateReady) hold to signal readiness (original_source/h/const.h:
// DEVICEREADY, ISOLATEREADY).
const deviceReady = 0x01
const isolateReady = 0xFF

// ackCommand is written to a device's command register to clear its
// pending interrupt.
const ackCommand = 1

// semaphoreIndex computes the device-semaphore array index for
// (line, device), following original_source/phase2/interrupts.c's
// getSemaphoreIndex: lines 0-2 have no external device, so the line
// number is first rebased to a 0-based device-line index.
func semaphoreIndex(line, device int) int {
	return totalDevices*(line-deviceOffset) + device
}

// lowestSetBit returns the index of the lowest-numbered set bit in bm
// (scanning bit 0 upward), and ok=false if no bit is set. Mirrors
// original_source's getLineNumber/getDeviceNumber bit-array scan, just
// expressed as a bit-trick instead of an explicit mask array.
func lowestSetBit(bm uint8) (int, bool) {
	if bm == 0 {
		return 0, false
	}
	for i := 0; i < 8; i++ {
		if bm&(1<<uint(i)) != 0 {
			return i, true
		}
	}
	return 0, false
}
