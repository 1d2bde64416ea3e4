// Package boot wires the nucleus CLI's cobra command tree: loading a
// boot configuration, constructing a Kernel against a device bus, and
// running the scheduler loop until Halt or a deadlock panic.
package boot

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/reichman/nucleus"
)

var configPath string

// Command builds the root "nucleus" cobra command.
func Command() *cobra.Command {
	root := &cobra.Command{
		Use:   "nucleus",
		Short: "Run the nucleus kernel against a simulated device bus.",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML boot configuration (optional)")

	root.AddCommand(runCmd())
	return root
}

func runCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Boot the nucleus with a single root process and run until halt or deadlock.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNucleus(verbose)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	return cmd
}

func runNucleus(verbose bool) error {
	cfg := nucleus.DefaultConfig()
	if configPath != "" {
		loaded, err := nucleus.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	nucleus.SetLogger(logger)

	bus := NewSimBus()
	k := nucleus.New(bus, cfg)

	if _, err := k.Init(0); err != nil {
		return err
	}

	sched := NewSimScheduler(bus)
	for {
		if err := runOnce(k, sched); err != nil {
			fmt.Println(err)
			return nil
		}
	}
}

func runOnce(k *nucleus.Kernel, sched *SimScheduler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			panic(r)
		}
	}()
	return k.Schedule(sched)
}
