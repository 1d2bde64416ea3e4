package nucleus

import "github.com/pkg/errors"

// ErrProcessPoolExhausted is the error Kernel.CreateProcess returns
// (wrapped with a stack trace) when the PCB pool has no free slots. The
// SYS1 service reports the same condition to its caller as the -1
// FAILURE code in A1, not as this error.
var ErrProcessPoolExhausted = errors.New("nucleus: process pool exhausted")

// Halt and Panic are the two terminal conditions the scheduler can reach
// (spec.md ERROR HANDLING DESIGN): normal completion (last process
// terminated itself) and deadlock (live processes, none soft-blocked,
// ready queue empty). They're modeled as distinct panic values, rather
// than os.Exit, so an embedding test harness can recover() and assert on
// which one occurred instead of losing the test process.
type Halt struct{}

func (Halt) Error() string { return "nucleus: halt (all processes terminated)" }

// DeadlockPanic reports the detected deadlock condition.
type DeadlockPanic struct {
	ProcCount      int
	SoftBlockCount int
}

func (d DeadlockPanic) Error() string {
	return "nucleus: deadlock detected (ready queue empty, processes live, none soft-blocked)"
}

// unsupportedLinePanic is raised if the interrupt handler decodes line 0
// or 1 (multiprocessor lines, unsupported on this uniprocessor target)
// or finds no asserted line at all — both impossible conditions per
// spec.md §7.
type unsupportedLinePanic struct {
	line int
}

func (u unsupportedLinePanic) Error() string {
	return "nucleus: unsupported or absent interrupt line"
}
