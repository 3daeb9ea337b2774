// Package app provides configuration and the run loop for the nescore CLI.
package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"nescore/internal/monitor"
	"nescore/internal/translate"
	"nescore/internal/watch"
)

var f = translate.From

// Config holds all application configuration
type Config struct {
	Emulation EmulationConfig `toml:"emulation"`
	Debug     DebugConfig     `toml:"debug"`
	Monitor   MonitorConfig   `toml:"monitor"`

	until *watch.Condition // compiled Emulation.Until
}

// EmulationConfig contains emulation-specific settings
type EmulationConfig struct {
	MaxSteps int    `toml:"max_steps"` // negative means no budget
	Until    string `toml:"until"`     // Starlark stop condition, empty for none
}

// DebugConfig contains debugging and development options
type DebugConfig struct {
	EnableLogging  bool     `toml:"enable_logging"`
	CPUTracing     bool     `toml:"cpu_tracing"`
	LoopDetection  bool     `toml:"loop_detection"`
	WatchAddresses []uint16 `toml:"watch_addresses"`
}

// MonitorConfig selects how the machine state is shown
type MonitorConfig struct {
	Backend       string `toml:"backend"` // "headless", "terminal", "ebitengine"
	StepsPerFrame int    `toml:"steps_per_frame"`
	Scale         int    `toml:"scale"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Emulation: EmulationConfig{
			MaxSteps: -1,
		},
		Debug: DebugConfig{
			WatchAddresses: []uint16{},
		},
		Monitor: MonitorConfig{
			Backend:       string(monitor.BackendHeadless),
			StepsPerFrame: 1000,
			Scale:         1,
		},
	}
}

// LoadFromFile loads configuration from a TOML file. A missing file is
// created with the current values.
func (c *Config) LoadFromFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return c.SaveToFile(path)
	}

	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("%s: %w", f("failed to parse config file"), err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return &ConfigError{Field: undecoded[0].String(), Value: path, Err: ErrUnknownKey}
	}

	return c.validate()
}

// SaveToFile saves configuration to a TOML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%s: %w", f("failed to create config directory"), err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%s: %w", f("failed to write config file"), err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(c); err != nil {
		return fmt.Errorf("%s: %w", f("failed to encode config"), err)
	}

	return file.Close()
}

// validate normalises out-of-range values and rejects values that cannot be
// used
func (c *Config) validate() error {
	if c.Emulation.MaxSteps < 0 {
		c.Emulation.MaxSteps = -1
	}

	c.Emulation.Until = strings.TrimSpace(c.Emulation.Until)
	switch {
	case c.Emulation.Until == "":
		c.until = nil
	case c.until == nil || c.until.String() != c.Emulation.Until:
		condition, err := watch.Compile(c.Emulation.Until)
		if err != nil {
			return &ConfigError{Field: "emulation.until", Value: c.Emulation.Until, Err: err}
		}
		c.until = condition
	}

	if !knownBackend(c.Monitor.Backend) {
		return &ConfigError{Field: "monitor.backend", Value: c.Monitor.Backend, Err: ErrUnknownBackend}
	}

	if c.Monitor.StepsPerFrame <= 0 {
		c.Monitor.StepsPerFrame = 1000
	}

	if c.Monitor.Scale <= 0 {
		c.Monitor.Scale = 1
	}

	return nil
}

func knownBackend(name string) bool {
	for _, backendType := range monitor.BackendTypes() {
		if name == string(backendType) {
			return true
		}
	}
	return false
}

// Validate checks values set after loading, such as command line overrides
func (c *Config) Validate() error {
	return c.validate()
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	clone.Debug.WatchAddresses = append([]uint16{}, c.Debug.WatchAddresses...)
	return &clone
}

var (
	// ErrUnknownKey is reported for keys the config file should not contain.
	ErrUnknownKey = errors.New(f("unknown key"))
	// ErrUnknownBackend is reported for an unsupported monitor backend.
	ErrUnknownBackend = errors.New(f("unknown monitor backend"))
)

// ConfigError represents configuration-related errors
type ConfigError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConfigError) Error() string {
	return f("config error in field '%s' with value '%s': %v", e.Field, fmt.Sprint(e.Value), e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
