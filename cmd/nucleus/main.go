// Command nucleus boots the kernel against a simulated device bus, the
// role the original's initial.c main() played: build the initial
// process and hand control to the scheduler. It does not install
// trap-vector new-areas.
package main

import (
	"fmt"
	"os"

	"github.com/reichman/nucleus/cmd/nucleus/boot"
)

func main() {
	if err := boot.Command().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
