// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/climastat/pkg/sinclair"
	"github.com/Thermoquad/climastat/pkg/unit"
)

var (
	setWait    int
	setConfirm int
)

var setCmd = &cobra.Command{
	Use:   "set key=value...",
	Short: "Send a one-shot parameter request",
	Long: `Change unit parameters and exit.

The request is merged onto the unit's last reported state, so the command
first waits (--wait seconds) for a unit report. Without one it starts from
defaults: power off, setpoint 24°C.

Keys: power, mode, target, fan, swing, vswing, hswing, display, unit,
      plasma, beeper, sleep, xfan, save

Examples:
  climastat set -p /dev/ttyUSB0 mode=cool target=24 fan=high swing=both
  climastat set --demo power=off`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSet,
}

func init() {
	rootCmd.AddCommand(setCmd)
	setCmd.Flags().IntVar(&setWait, "wait", 5, "Seconds to wait for a unit report before sending (0 to send immediately)")
	setCmd.Flags().IntVar(&setConfirm, "confirm", 3, "Seconds to wait for a report confirming the change (0 to skip)")
}

func runSet(cmd *cobra.Command, args []string) error {
	req, err := unit.ParseRequest(args)
	if err != nil {
		return err
	}

	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	u, err := newUnit(conn, "set")
	if err != nil {
		return err
	}

	fmt.Printf("Connection: %s\n", connInfo)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	reports := make(chan struct{}, 1)
	unsubscribe := u.Store().Subscribe(func(unit.Change) {
		select {
		case reports <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	go u.Run(ctx, cfg.PollInterval())

	if setWait > 0 {
		select {
		case <-reports:
			fmt.Printf("Current state: %s\n", u.State())
		case <-time.After(time.Duration(setWait) * time.Second):
			fmt.Printf("No unit report within %d seconds, starting from defaults\n", setWait)
		}
	}

	before := u.Stats().ValidFrames
	sent, err := u.Apply(req)
	if err != nil {
		return err
	}
	if !sent {
		fmt.Printf("Unit already in requested state, nothing sent\n")
		return nil
	}
	requested := u.State()
	fmt.Printf("Sent: %s\n", requested)

	if setConfirm <= 0 {
		return nil
	}

	// The store already holds the request, so any later report that
	// leaves it unchanged confirms it
	ticker := time.NewTicker(cfg.PollInterval())
	defer ticker.Stop()
	deadline := time.After(time.Duration(setConfirm) * time.Second)
	for {
		select {
		case <-ticker.C:
			if u.Stats().ValidFrames == before {
				continue
			}
			if st := u.State(); confirms(requested, st) {
				fmt.Printf("Confirmed: %s\n", st)
				return nil
			}
		case <-deadline:
			fmt.Printf("No confirming report within %d seconds, unit reports %s\n", setConfirm, u.State())
			return nil
		}
	}
}

// confirms reports whether a unit report reflects the requested parameters
func confirms(requested, reported sinclair.ClimateState) bool {
	requested.CurrentTemperature = reported.CurrentTemperature
	return requested == reported
}
