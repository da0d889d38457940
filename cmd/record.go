// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Thermoquad/climastat/internal/logging"
	"github.com/Thermoquad/climastat/pkg/sinclair"
	"github.com/Thermoquad/climastat/pkg/unit"
)

var (
	recordOutput   string
	recordDuration time.Duration
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record frames to a capture file",
	Long: `Record every frame received from the unit into a capture file.

Captures are CBOR sequences with one record per frame (timestamp, direction,
layout variant, raw bytes) and can be replayed offline with 'replay'.
Recording stops on Ctrl+C, after --duration, or when the connection closes.`,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().StringVarP(&recordOutput, "output", "o", "", "Capture file (default capture.path from config)")
	recordCmd.Flags().DurationVar(&recordDuration, "duration", 0, "Stop after this long (0 records until interrupted)")
}

func runRecord(cmd *cobra.Command, args []string) error {
	layout, err := selectedLayout()
	if err != nil {
		return err
	}

	path := recordOutput
	if path == "" {
		path = cfg.Capture.Path
	}
	if path == "" {
		return fmt.Errorf("no capture file: use --output or set capture.path")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create capture file: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	opts := unitOptions(layout, "record")
	opts.Capture = sinclair.NewCaptureWriter(w, layout.Name)
	u := unit.New(unit.NewStreamSource(conn), nil, opts)

	fmt.Printf("Recording %s to %s\n", connInfo, path)
	fmt.Printf("Press Ctrl+C to stop\n")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if recordDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, recordDuration)
		defer cancel()
	}

	start := time.Now()
	runErr := u.Run(ctx, cfg.PollInterval())
	if runErr != nil && !connectionClosed(runErr) {
		logging.Error("recording stopped", zap.Error(runErr))
	}

	stats := u.Stats()
	stats.CalculateRates()
	fmt.Printf("\nRecorded %d frames in %s\n", stats.TotalFrames, time.Since(start).Round(time.Second))
	fmt.Print(stats.String())
	return nil
}
