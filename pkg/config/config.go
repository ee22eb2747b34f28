// Package config loads tool settings from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the tool configuration. Zero values fall back to the
// defaults from Default.
type Config struct {
	// DeviceID is the S-330 device ID, 0 to 31.
	DeviceID int `yaml:"device_id"`

	MIDI struct {
		// InPort and OutPort are case-insensitive substrings matched
		// against system MIDI port names.
		InPort  string `yaml:"in_port"`
		OutPort string `yaml:"out_port"`
	} `yaml:"midi"`

	Serial struct {
		// Device, when set, selects serial transport over MIDI ports.
		Device string `yaml:"device"`
		Baud   int    `yaml:"baud"`
	} `yaml:"serial"`

	// ToneSelector is the address byte the unit uses for tone
	// parameters. Some firmware revisions report 0x02.
	ToneSelector byte `yaml:"tone_selector"`

	// StepTimeoutMS bounds each handshake step of a bulk transfer.
	StepTimeoutMS int `yaml:"step_timeout_ms"`

	// PressDelayMS is the gap between press and release frames of a
	// two-frame button.
	PressDelayMS int `yaml:"press_delay_ms"`

	Akai struct {
		Tool        string `yaml:"tool"`
		Device      string `yaml:"device"`
		LibraryPath string `yaml:"library_path"`
	} `yaml:"akai"`

	API struct {
		Addr string `yaml:"addr"`
	} `yaml:"api"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{
		ToneSelector:  0x03,
		StepTimeoutMS: 5000,
		PressDelayMS:  50,
	}
	cfg.Serial.Baud = 31250
	cfg.API.Addr = ":8080"
	return cfg
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the protocol layer cannot honor.
func (c *Config) Validate() error {
	if c.DeviceID < 0 || c.DeviceID > 31 {
		return fmt.Errorf("device_id %d out of range 0-31", c.DeviceID)
	}
	if c.ToneSelector != 0x02 && c.ToneSelector != 0x03 {
		return fmt.Errorf("tone_selector %#02x must be 0x02 or 0x03", c.ToneSelector)
	}
	if c.StepTimeoutMS <= 0 {
		return fmt.Errorf("step_timeout_ms must be positive")
	}
	if c.PressDelayMS < 0 {
		return fmt.Errorf("press_delay_ms must not be negative")
	}
	return nil
}

// StepTimeout returns the handshake timeout as a duration.
func (c *Config) StepTimeout() time.Duration {
	return time.Duration(c.StepTimeoutMS) * time.Millisecond
}

// PressDelay returns the button press gap as a duration.
func (c *Config) PressDelay() time.Duration {
	return time.Duration(c.PressDelayMS) * time.Millisecond
}
