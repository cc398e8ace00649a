package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
device:
  id: "test-device"
storage:
  path: "/tmp/test.nvm"
api:
  host: "127.0.0.1"
  port: 9090
session:
  timeout_seconds: 120
lockout:
  threshold: 3
  cooldown_seconds: 30
sensor:
  poll_interval_ms: 50
  pulse_seconds: 2
  inputs: 8
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.ID != "test-device" {
		t.Errorf("Device.ID = %q, want %q", cfg.Device.ID, "test-device")
	}
	if cfg.Storage.Path != "/tmp/test.nvm" {
		t.Errorf("Storage.Path = %q, want %q", cfg.Storage.Path, "/tmp/test.nvm")
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}
	if got := cfg.SessionTimeout(); got != 2*time.Minute {
		t.Errorf("SessionTimeout() = %v, want 2m", got)
	}
	if got := cfg.LockoutCooldown(); got != 30*time.Second {
		t.Errorf("LockoutCooldown() = %v, want 30s", got)
	}
	if got := cfg.PollInterval(); got != 50*time.Millisecond {
		t.Errorf("PollInterval() = %v, want 50ms", got)
	}
}

func TestLoad_Defaults(t *testing.T) {
	// A minimal file should still produce working defaults for everything else.
	content := `
device:
  id: "defaults-device"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Lockout.Threshold != 5 {
		t.Errorf("Lockout.Threshold = %d, want 5", cfg.Lockout.Threshold)
	}
	if cfg.Session.TimeoutSeconds != 300 {
		t.Errorf("Session.TimeoutSeconds = %d, want 300", cfg.Session.TimeoutSeconds)
	}
	if cfg.MQTT.TopicPrefix != "sentinel" {
		t.Errorf("MQTT.TopicPrefix = %q, want %q", cfg.MQTT.TopicPrefix, "sentinel")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	content := `
device:
  id: "env-device"
storage:
  path: "/tmp/file.nvm"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("SENTINEL_STORAGE_PATH", "/tmp/env.nvm")
	t.Setenv("SENTINEL_API_PORT", "1234")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.Path != "/tmp/env.nvm" {
		t.Errorf("Storage.Path = %q, want env override %q", cfg.Storage.Path, "/tmp/env.nvm")
	}
	if cfg.API.Port != 1234 {
		t.Errorf("API.Port = %d, want env override 1234", cfg.API.Port)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config { return defaultConfig() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(*Config) {}, false},
		{"missing device id", func(c *Config) { c.Device.ID = "" }, true},
		{"missing storage path", func(c *Config) { c.Storage.Path = "" }, true},
		{"port too large", func(c *Config) { c.API.Port = 70000 }, true},
		{"zero session timeout", func(c *Config) { c.Session.TimeoutSeconds = 0 }, true},
		{"zero lockout threshold", func(c *Config) { c.Lockout.Threshold = 0 }, true},
		{"bad qos", func(c *Config) { c.MQTT.QoS = 3 }, true},
		{"audit enabled without path", func(c *Config) {
			c.Audit.Enabled = true
			c.Audit.Database.Path = ""
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
