// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sopasconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeTempConfig(t, `
sensorIP: 192.168.95.194
frequency: 25
resolution: 0.1667
startAngle: -1.658
endAngle: 1.658
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want default %d", cfg.Port, DefaultPort)
	}
	if cfg.AccessMode != DefaultAccessMode {
		t.Errorf("AccessMode = %d, want default %d", cfg.AccessMode, DefaultAccessMode)
	}
	if cfg.PwHash != DefaultPwHash {
		t.Errorf("PwHash = %#x, want default %#x", cfg.PwHash, uint32(DefaultPwHash))
	}
	if cfg.EchoFilter != DefaultEchoFilter {
		t.Errorf("EchoFilter = %d, want default %d", cfg.EchoFilter, DefaultEchoFilter)
	}
	if cfg.SensorIP != "192.168.95.194" {
		t.Errorf("SensorIP = %q", cfg.SensorIP)
	}
}

func TestLoad_ExplicitValuesOverrideDefaults(t *testing.T) {
	path := writeTempConfig(t, `
sensorIP: 10.0.0.5
port: 2112
accessMode: 4
pwHash: 305419896
ntpServerIP: 10.0.0.1
echoFilter: 3
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 2112 {
		t.Errorf("Port = %d, want 2112", cfg.Port)
	}
	if cfg.AccessMode != 4 {
		t.Errorf("AccessMode = %d, want 4", cfg.AccessMode)
	}
	if cfg.NTPServerIP != "10.0.0.1" {
		t.Errorf("NTPServerIP = %q", cfg.NTPServerIP)
	}
	if cfg.EchoFilter != 3 {
		t.Errorf("EchoFilter = %d, want 3", cfg.EchoFilter)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
