// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if cfg.Unit.Variant != "cnt" || cfg.Unit.RangePolicy != RangeClamp {
		t.Errorf("unexpected unit defaults %+v", cfg.Unit)
	}
	if cfg.PollInterval() != 50*time.Millisecond {
		t.Errorf("unexpected poll interval %s", cfg.PollInterval())
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
serial:
  port: /dev/ttyUSB3
  baud_rate: 9600
unit:
  range_policy: REJECT
  poll_interval_ms: 20
log_level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Serial.Port != "/dev/ttyUSB3" || cfg.Serial.BaudRate != 9600 {
		t.Errorf("unexpected serial config %+v", cfg.Serial)
	}
	if cfg.Serial.Parity != "even" {
		t.Errorf("expected default parity to survive, got %q", cfg.Serial.Parity)
	}
	if cfg.Unit.RangePolicy != RangeReject {
		t.Errorf("expected normalized reject policy, got %q", cfg.Unit.RangePolicy)
	}
	if cfg.Unit.Variant != "cnt" {
		t.Errorf("expected default variant, got %q", cfg.Unit.Variant)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected debug, got %q", cfg.LogLevel)
	}
	if cfg.Path() != path {
		t.Errorf("expected path %s, got %s", path, cfg.Path())
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Path() != "" {
		t.Errorf("expected defaults only, got path %q", cfg.Path())
	}
}

func TestLoad_DefaultLocation(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	dir := filepath.Join(xdg, "climastat")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("unit:\n  variant: CNT\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Unit.Variant != "CNT" {
		t.Errorf("expected variant from default file, got %q", cfg.Unit.Variant)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "serial: [unterminated\n")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "serial:\n  port: /dev/ttyS0\n")
	t.Setenv("CLIMASTAT_PORT", "/dev/ttyACM0")
	t.Setenv("CLIMASTAT_BAUD", "19200")
	t.Setenv("CLIMASTAT_PARITY", "NONE")
	t.Setenv("CLIMASTAT_NO_SSL_VERIFY", "true")
	t.Setenv("CLIMASTAT_TEMPERATURE_THRESHOLD", "80")
	t.Setenv("CLIMASTAT_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Serial.Port != "/dev/ttyACM0" || cfg.Serial.BaudRate != 19200 || cfg.Serial.Parity != "none" {
		t.Errorf("env overrides not applied: %+v", cfg.Serial)
	}
	if !cfg.WebSocket.NoSSLVerify {
		t.Error("expected NoSSLVerify from env")
	}
	if cfg.Unit.TemperatureThreshold != 80 {
		t.Errorf("expected threshold 80, got %d", cfg.Unit.TemperatureThreshold)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("expected warn, got %q", cfg.LogLevel)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
		want string
	}{
		{"policy", "unit:\n  range_policy: ignore\n", nil, "range_policy"},
		{"parity", "serial:\n  parity: mark\n", nil, "parity"},
		{"baud", "serial:\n  baud_rate: 0\n", nil, "baud_rate"},
		{"poll", "unit:\n  poll_interval_ms: -1\n", nil, "poll_interval_ms"},
		{"env number", "", map[string]string{"CLIMASTAT_BAUD": "fast"}, "CLIMASTAT_BAUD"},
		{"env bool", "", map[string]string{"CLIMASTAT_NO_SSL_VERIFY": "maybe"}, "CLIMASTAT_NO_SSL_VERIFY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if filepath.Base(path) != "config.yaml" || !strings.Contains(path, "climastat") {
		t.Errorf("unexpected config path %s", path)
	}
}
