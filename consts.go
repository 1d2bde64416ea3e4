package nucleus

// CPSR mode bits (low 5 bits of CPSR), matching the platform's Principles
// of Operation mode encoding. Only the two modes the nucleus itself
// switches between are named; other modes are opaque to the nucleus.
const (
	modeMask = 0x1F
	UserMode = 0x10
	SysMode  = 0x1F
)

// CPSR interrupt-mask bits.
const (
	intsDisabled uint32 = 0x000000C0
	intsEnabled  uint32 = 0xFFFFFF3F
)

// causeReservedInstruction is the Cause-register value synthesized for a
// privilege violation (a user-mode process attempting a kernel-only
// syscall).
const causeReservedInstruction uint32 = 20

// DefaultQuantum is the maximum continuous CPU burst (microseconds)
// granted to a process before preemption, absent an overriding
// BootConfig.
const DefaultQuantum uint = 5000

// DefaultInterval is the pseudo-clock period (microseconds) between
// successive interval-timer ticks, absent an overriding BootConfig.
const DefaultInterval uint = 100000

// pcPrefetchAdjust is subtracted from an interrupt's saved PC so
// re-execution resumes at the interrupted instruction rather than the
// next one.
const pcPrefetchAdjust uint32 = 4

// Device line and semaphore layout.
const (
	totalLines   = 8 // interrupt lines 0-7
	totalDevices = 8 // device instances per line
	deviceOffset = 3 // lines 0-2 have no external device

	// NumDeviceSem is the size of the device-semaphore / device-status
	// arrays: 8 lines x 8 devices, but line 7 (terminal) has 16 slots
	// (receive then transmit), plus one slot for the pseudo-clock.
	NumDeviceSem = 49
	// ClockIndex is the pseudo-clock's slot in DeviceSem/DeviceStatus.
	ClockIndex = 48

	lineTimer    = 2
	lineTerminal = 7
)

// Syscall service numbers, 1-8 are privileged nucleus services; >=9
// passes up to a user handler or terminates the caller.
const (
	SysCreateProcess = iota + 1
	SysTerminateProcess
	SysVerhogen
	SysPasseren
	SysSpecTrapVec
	SysGetCPUTime
	SysWaitClock
	SysWaitIO

	maxNucleusService = SysWaitIO
)
