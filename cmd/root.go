// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Thermoquad/climastat/internal/config"
	"github.com/Thermoquad/climastat/internal/logging"
	"github.com/Thermoquad/climastat/pkg/sinclair"
	"github.com/Thermoquad/climastat/pkg/unit"
)

var (
	// Serial connection flags
	portName string
	baudRate int
	parity   string

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	configPath  string
	variantName string
	demoMode    bool

	// Loaded in PersistentPreRunE, flags already applied
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "climastat",
	Short: "Sinclair split-AC UART protocol tool",
	Long: `Climastat - A CLI tool for monitoring and controlling Sinclair split
air-conditioners over their indoor unit's UART.

Provides commands for frame logging, error detection, interactive control and
one-shot parameter requests, plus offline encode/decode and capture replay.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 4800] [--parity even]
  WebSocket: --url ws://host/path [--username user]
  Demo:      --demo (in-memory simulated unit)

Settings are read from $XDG_CONFIG_HOME/climastat/config.yaml (or --config),
then CLIMASTAT_* environment variables, then flags.

For WebSocket authentication, the password is read from the CLIMASTAT_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 4800, "Baud rate (serial only)")
	rootCmd.PersistentFlags().StringVar(&parity, "parity", "even", "Parity: none, even or odd (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/climastat/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&variantName, "variant", "", fmt.Sprintf("Frame layout variant %v", sinclair.Variants()))
	rootCmd.PersistentFlags().BoolVar(&demoMode, "demo", false, "Talk to a simulated unit instead of hardware")
}

// loadConfig merges the config file, environment and explicitly set flags.
// Connection globals always hold the effective values afterwards.
func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		c.Serial.Port = portName
	}
	if flags.Changed("baud") {
		c.Serial.BaudRate = baudRate
	}
	if flags.Changed("parity") {
		c.Serial.Parity = parity
	}
	if flags.Changed("url") {
		c.WebSocket.URL = wsURL
	}
	if flags.Changed("username") {
		c.WebSocket.Username = wsUsername
	}
	if flags.Changed("no-ssl-verify") {
		c.WebSocket.NoSSLVerify = wsNoSSLVerify
	}
	if flags.Changed("variant") {
		c.Unit.Variant = variantName
	}
	if err := c.Validate(); err != nil {
		return err
	}

	portName, baudRate, parity = c.Serial.Port, c.Serial.BaudRate, c.Serial.Parity
	wsURL, wsUsername, wsNoSSLVerify = c.WebSocket.URL, c.WebSocket.Username, c.WebSocket.NoSSLVerify
	variantName = c.Unit.Variant
	cfg = c

	if err := logging.Initialize(c.LogLevel); err != nil {
		return err
	}
	if c.Path() != "" {
		logging.Debug("config loaded", zap.String("path", c.Path()))
	}
	return nil
}

// selectedLayout returns the layout named by --variant / unit.variant
func selectedLayout() (*sinclair.Layout, error) {
	return sinclair.LookupVariant(variantName)
}

// unitOptions builds unit options from the effective config
func unitOptions(layout *sinclair.Layout, name string) unit.Options {
	// already checked by config.Validate
	policy, _ := unit.ParseRangePolicy(cfg.Unit.RangePolicy)
	return unit.Options{
		Layout:               layout,
		Logger:               logging.Named(name),
		RangePolicy:          policy,
		TemperatureThreshold: float64(cfg.Unit.TemperatureThreshold),
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
