package nucleus

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// BootConfig is the nucleus's boot-time configuration, loaded from a
// TOML file by the CLI harness before Init runs. Every field defaults
// to the constant the original nucleus hard-codes, so an empty/missing
// config file reproduces stock behavior exactly.
type BootConfig struct {
	Quantum  uint   `toml:"quantum_us"`
	Interval uint   `toml:"interval_us"`
	LogLevel string `toml:"log_level"`
}

// DefaultConfig returns the configuration matching the original
// nucleus's compiled-in constants. MaxProc is not configurable: it
// sizes the process pool array at compile time, the same way the
// original nucleus fixes it as a #define rather than a boot parameter.
func DefaultConfig() BootConfig {
	return BootConfig{
		Quantum:  DefaultQuantum,
		Interval: DefaultInterval,
		LogLevel: "info",
	}
}

// LoadConfig reads and decodes a TOML boot configuration from path,
// starting from DefaultConfig so a partial file only overrides the
// fields it mentions.
func LoadConfig(path string) (BootConfig, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "nucleus: loading config %q", path)
	}
	return cfg, nil
}
