// Package config loads this repository's environment-driven toggles: there
// is no config file, only a handful of DUST_* environment variables, read
// once at process startup.
package config

import "github.com/caarlos0/env/v6"

// Config holds every environment-driven toggle the compile command and the
// compiler package's tracing consult.
type Config struct {
	// Debug enables logrus.DebugLevel logging from the compiler, which logs
	// each function as it is lazily compiled. Register events are logged
	// only at trace level (see TraceRegisters).
	Debug bool `env:"DUST_DEBUG" envDefault:"false"`

	// TraceRegisters additionally logs at logrus.TraceLevel every local and
	// temporary register allocation and release, which is noisy enough to
	// warrant its own toggle separate from Debug.
	TraceRegisters bool `env:"DUST_TRACE_REGISTERS" envDefault:"false"`

	// Disassemble makes the compile command always print a disassembly
	// listing after compiling, even when a command would otherwise only
	// report success or failure.
	Disassemble bool `env:"DUST_DISASSEMBLE" envDefault:"false"`
}

// Load reads Config from the environment.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, err
	}
	return c, nil
}
