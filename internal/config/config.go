// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "climastat"
	configFile = "config.yaml"
	envPrefix  = "CLIMASTAT_"
)

// Range policies for out-of-range requests
const (
	RangeClamp  = "clamp"
	RangeReject = "reject"
)

// Config holds all climastat configuration
type Config struct {
	Serial    SerialConfig    `yaml:"serial"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Unit      UnitConfig      `yaml:"unit"`
	Capture   CaptureConfig   `yaml:"capture"`
	LogLevel  string          `yaml:"log_level"`

	path string
}

type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
	Parity   string `yaml:"parity"` // "none", "even" or "odd"
}

type WebSocketConfig struct {
	URL         string `yaml:"url"`
	Username    string `yaml:"username"`
	NoSSLVerify bool   `yaml:"no_ssl_verify"`
}

type UnitConfig struct {
	Variant              string `yaml:"variant"`
	PollIntervalMs       int    `yaml:"poll_interval_ms"`
	RangePolicy          string `yaml:"range_policy"` // "clamp" or "reject"
	TemperatureThreshold int    `yaml:"temperature_threshold"`
}

type CaptureConfig struct {
	Path string `yaml:"path"` // default file for record/replay
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Serial: SerialConfig{
			BaudRate: 4800,
			Parity:   "even",
		},
		WebSocket: WebSocketConfig{
			Username: "admin",
		},
		Unit: UnitConfig{
			Variant:              "cnt",
			PollIntervalMs:       50,
			RangePolicy:          RangeClamp,
			TemperatureThreshold: 100,
		},
		Capture: CaptureConfig{
			Path: "climastat.cbor",
		},
	}
}

// PollInterval returns the unit poll interval
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Unit.PollIntervalMs) * time.Millisecond
}

// Path returns the file the config was loaded from, or "" for defaults only
func (c *Config) Path() string {
	return c.path
}

// GetConfigDir returns the OS-appropriate configuration directory:
//   - Linux: $XDG_CONFIG_HOME/climastat or $HOME/.config/climastat
//   - macOS: $HOME/.config/climastat
//   - Windows: %LOCALAPPDATA%\climastat
func GetConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return filepath.Join(dir, appName), nil
		}
		profile := os.Getenv("USERPROFILE")
		if profile == "" {
			return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
		}
		return filepath.Join(profile, "AppData", "Local", appName), nil

	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(home, ".config", appName), nil

	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(home, ".config", appName), nil
	}
}

// GetConfigPath returns the full path to the default configuration file
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads config from path, or from the default location when path is
// empty, then applies environment overrides. A missing default file is not
// an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		p, err := GetConfigPath()
		if err == nil {
			path = p
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
			cfg.path = path
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv applies CLIMASTAT_* overrides
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v, ok := lookup(envPrefix + name)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s=%q: %w", envPrefix, name, v, err)
		}
		*dst = n
		return nil
	}
	flag := func(name string, dst *bool) error {
		v, ok := lookup(envPrefix + name)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s=%q: %w", envPrefix, name, v, err)
		}
		*dst = b
		return nil
	}

	str("PORT", &c.Serial.Port)
	str("PARITY", &c.Serial.Parity)
	str("URL", &c.WebSocket.URL)
	str("USERNAME", &c.WebSocket.Username)
	str("VARIANT", &c.Unit.Variant)
	str("RANGE_POLICY", &c.Unit.RangePolicy)
	str("LOG_LEVEL", &c.LogLevel)
	str("CAPTURE_PATH", &c.Capture.Path)

	if err := num("BAUD", &c.Serial.BaudRate); err != nil {
		return err
	}
	if err := num("POLL_INTERVAL_MS", &c.Unit.PollIntervalMs); err != nil {
		return err
	}
	if err := num("TEMPERATURE_THRESHOLD", &c.Unit.TemperatureThreshold); err != nil {
		return err
	}
	return flag("NO_SSL_VERIFY", &c.WebSocket.NoSSLVerify)
}

// Validate checks value ranges
func (c *Config) Validate() error {
	c.Unit.RangePolicy = strings.ToLower(c.Unit.RangePolicy)
	switch c.Unit.RangePolicy {
	case RangeClamp, RangeReject:
	default:
		return fmt.Errorf("invalid unit.range_policy %q (want %q or %q)", c.Unit.RangePolicy, RangeClamp, RangeReject)
	}
	c.Serial.Parity = strings.ToLower(c.Serial.Parity)
	switch c.Serial.Parity {
	case "none", "even", "odd":
	default:
		return fmt.Errorf("invalid serial.parity %q", c.Serial.Parity)
	}
	if c.Serial.BaudRate <= 0 {
		return fmt.Errorf("invalid serial.baud_rate %d", c.Serial.BaudRate)
	}
	if c.Unit.PollIntervalMs <= 0 {
		return fmt.Errorf("invalid unit.poll_interval_ms %d", c.Unit.PollIntervalMs)
	}
	if c.Unit.TemperatureThreshold <= 0 {
		return fmt.Errorf("invalid unit.temperature_threshold %d", c.Unit.TemperatureThreshold)
	}
	return nil
}
