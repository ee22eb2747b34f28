package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
device_id: 3
midi:
  in_port: "UM-ONE"
tone_selector: 0x02
step_timeout_ms: 2000
akai:
  tool: akaitools
  device: /dev/sdb
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DeviceID != 3 {
		t.Errorf("DeviceID = %d, want 3", cfg.DeviceID)
	}
	if cfg.MIDI.InPort != "UM-ONE" {
		t.Errorf("InPort = %q", cfg.MIDI.InPort)
	}
	if cfg.ToneSelector != 0x02 {
		t.Errorf("ToneSelector = %#02x, want 0x02", cfg.ToneSelector)
	}
	if cfg.StepTimeout() != 2*time.Second {
		t.Errorf("StepTimeout = %v, want 2s", cfg.StepTimeout())
	}
	// Defaults survive for fields the file omits.
	if cfg.PressDelay() != 50*time.Millisecond {
		t.Errorf("PressDelay = %v, want 50ms", cfg.PressDelay())
	}
	if cfg.Serial.Baud != 31250 {
		t.Errorf("Baud = %d, want 31250", cfg.Serial.Baud)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"device id too high", "device_id: 32\n"},
		{"bad tone selector", "tone_selector: 0x05\n"},
		{"zero timeout", "step_timeout_ms: 0\n"},
		{"negative press delay", "press_delay_ms: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Errorf("Load accepted %q", tt.body)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load succeeded on a missing file")
	}
}
