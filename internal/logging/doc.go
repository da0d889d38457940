// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package logging provides structured logging for climastat.
//
// It wraps a single zap logger. Logging is silent unless a level is given
// on the command line, in the config file or in CLIMASTAT_LOG_LEVEL:
//
//	if err := logging.Initialize(cfg.LogLevel); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// Output goes to stderr so it never mixes with command output or the TUI
// on stdout.
//
// Levels used across the tree:
//   - Debug: RX/TX frames as hex, framer overflows
//   - Info: connection events, applied requests
//   - Warn: dropped frames (checksum, underlength), reconnects
//   - Error: failures that end a command
package logging
