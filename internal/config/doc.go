// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads climastat settings.
//
// Settings are resolved in order: DefaultConfig, then the YAML file
// ($XDG_CONFIG_HOME/climastat/config.yaml unless --config names another),
// then CLIMASTAT_* environment variables. Command-line flags are applied
// last by the cmd package.
//
// Example file:
//
//	serial:
//	  port: /dev/ttyUSB0
//	  baud_rate: 4800
//	  parity: even
//	unit:
//	  variant: cnt
//	  poll_interval_ms: 50
//	  range_policy: clamp
//	log_level: info
package config
