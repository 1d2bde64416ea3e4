package nucleus

import "github.com/sirupsen/logrus"

// log is the nucleus's package-level structured logger. The teacher CPU
// core only logs exceptional conditions (address errors) via log.Printf;
// the nucleus follows the same sparse posture but through logrus, the
// structured logger declared by the pack's other kernel-shaped repo, so
// that fields like pid/semaphore/device attach to each event instead of
// being string-formatted by hand. Ordinary dispatch — a syscall that
// resumes the caller, a process that's scheduled — is not logged.
var log = logrus.New()

// SetLogger replaces the package logger, letting an embedder redirect
// nucleus diagnostics into its own logging pipeline.
func SetLogger(l *logrus.Logger) {
	if l != nil {
		log = l
	}
}
