// Package config resolves the run configuration before the pipeline starts.
//
// Precedence, lowest first: built-in defaults, YAML file, environment (a .env file
// fills variables not already set in the process), command-line flags. Missing
// profile values can finally be asked for on an interactive terminal.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/iafilius/ReflowMonitor/src/monitor"
	"github.com/iafilius/ReflowMonitor/src/types"
)

// Config holds everything the viewer needs to start a run.
type Config struct {
	Mode types.Mode `yaml:"mode"`

	Port       string        `yaml:"port"`
	Baud       int           `yaml:"baud"`
	Replay     string        `yaml:"replay"`
	ReplayPace time.Duration `yaml:"replay_pace"`

	// XSize 0 picks the mode default (100 basic, 700 reflow).
	XSize    int64         `yaml:"xsize"`
	YMin     float64       `yaml:"ymin"`
	YMax     float64       `yaml:"ymax"`
	Interval time.Duration `yaml:"interval"`

	Strict   bool   `yaml:"strict"`
	Headless bool   `yaml:"headless"`
	LogLevel string `yaml:"log_level"`

	Profile types.Profile `yaml:"profile"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Mode:     types.ModeReflow,
		Baud:     monitor.DefaultBaudRate,
		YMin:     -50,
		YMax:     300,
		Interval: 100 * time.Millisecond,
		LogLevel: "info",
	}
}

// ValidationError names the offending setting.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

// LoadFile merges a YAML file over c. Unknown keys are rejected.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Load returns defaults merged with the YAML file at path.
func Load(path string) (*Config, error) {
	c := DefaultConfig()
	if err := c.LoadFile(path); err != nil {
		return nil, err
	}
	return c, nil
}

// LookupFunc mirrors os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// EnvLookup returns a lookup over the process environment backed by the variables
// of a .env file. A missing .env file is not an error.
func EnvLookup(dotenvPath string) (LookupFunc, error) {
	fileVars := map[string]string{}
	if dotenvPath != "" {
		m, err := godotenv.Read(dotenvPath)
		switch {
		case err == nil:
			fileVars = m
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("read %s: %w", dotenvPath, err)
		}
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}, nil
}

// ApplyEnv overrides c with REFLOW_* variables.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var err error
	intVar := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok || v == "" || err != nil {
			return
		}
		n, perr := strconv.Atoi(v)
		if perr != nil {
			err = &ValidationError{Field: key, Reason: "not an integer: " + v}
			return
		}
		*dst = n
	}
	boolVar := func(key string, dst *bool) {
		v, ok := lookup(key)
		if !ok || v == "" || err != nil {
			return
		}
		b, perr := strconv.ParseBool(v)
		if perr != nil {
			err = &ValidationError{Field: key, Reason: "not a boolean: " + v}
			return
		}
		*dst = b
	}

	mode := string(c.Mode)
	str("REFLOW_MODE", &mode)
	c.Mode = types.Mode(mode)
	str("REFLOW_PORT", &c.Port)
	str("REFLOW_REPLAY", &c.Replay)
	str("REFLOW_LOG_LEVEL", &c.LogLevel)
	intVar("REFLOW_BAUD", &c.Baud)
	boolVar("REFLOW_STRICT", &c.Strict)
	boolVar("REFLOW_HEADLESS", &c.Headless)
	intVar("REFLOW_REFLOW_TEMP", &c.Profile.ReflowTemp)
	intVar("REFLOW_REFLOW_TIME", &c.Profile.ReflowTime)
	intVar("REFLOW_SOAK_TEMP", &c.Profile.SoakTemp)
	intVar("REFLOW_SOAK_TIME", &c.Profile.SoakTime)
	return err
}

// WindowXSize returns the visible tick count, applying the mode default.
func (c *Config) WindowXSize() int64 {
	if c.XSize > 0 {
		return c.XSize
	}
	if c.Mode == types.ModeBasic {
		return 100
	}
	return 700
}

// Validate checks the resolved configuration.
func (c *Config) Validate() error {
	switch c.Mode {
	case types.ModeBasic, types.ModeReflow:
	default:
		return &ValidationError{Field: "mode", Reason: fmt.Sprintf("%q is not basic or reflow", c.Mode)}
	}
	if c.Port == "" && c.Replay == "" {
		return &ValidationError{Field: "port", Reason: "a serial port or a replay capture is required"}
	}
	if c.Port != "" && c.Replay != "" {
		return &ValidationError{Field: "replay", Reason: "cannot replay a capture and read a serial port at once"}
	}
	if c.Baud <= 0 {
		return &ValidationError{Field: "baud", Reason: "must be positive"}
	}
	if c.XSize < 0 {
		return &ValidationError{Field: "xsize", Reason: "must not be negative"}
	}
	if c.YMax <= c.YMin {
		return &ValidationError{Field: "ymax", Reason: "must be greater than ymin"}
	}
	if c.Interval <= 0 {
		return &ValidationError{Field: "interval", Reason: "must be positive"}
	}
	if c.ReplayPace < 0 {
		return &ValidationError{Field: "replay_pace", Reason: "must not be negative"}
	}
	if !monitor.ValidLogLevel(c.LogLevel) {
		return &ValidationError{Field: "log_level", Reason: fmt.Sprintf("unknown level %q", c.LogLevel)}
	}
	if c.Mode == types.ModeReflow {
		p := c.Profile
		for _, f := range []struct {
			name string
			v    int
		}{
			{"profile.reflow_temp", p.ReflowTemp},
			{"profile.reflow_time", p.ReflowTime},
			{"profile.soak_temp", p.SoakTemp},
			{"profile.soak_time", p.SoakTime},
		} {
			if f.v <= 0 {
				return &ValidationError{Field: f.name, Reason: "must be a positive integer"}
			}
		}
	}
	return nil
}
