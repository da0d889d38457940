// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/climastat/pkg/sinclair"
)

var (
	replayStats   bool
	replayHexDump bool
)

var replayCmd = &cobra.Command{
	Use:   "replay FILE",
	Short: "Decode a capture file offline",
	Long: `Decode and print every frame in a capture written by 'record'.

Each record is decoded with the layout it was captured with; --variant only
applies to records that carry none. With --stats only the summary is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().BoolVar(&replayStats, "stats", false, "Print only the statistics summary")
	replayCmd.Flags().BoolVar(&replayHexDump, "hex", false, "Also print a hex dump of every frame")
}

func runReplay(cmd *cobra.Command, args []string) error {
	fallback, err := selectedLayout()
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	reader := sinclair.NewCaptureReader(bufio.NewReader(f))
	stats := sinclair.NewStatistics()
	codecs := map[string]sinclair.Codec{}

	for {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		codec, ok := codecs[rec.Variant]
		if !ok {
			layout := fallback
			if rec.Variant != "" {
				if layout, err = sinclair.LookupVariant(rec.Variant); err != nil {
					return err
				}
			}
			codec = sinclair.NewCodec(layout)
			codecs[rec.Variant] = codec
		}

		frame := sinclair.Frame(rec.Frame)
		state, decodeErr := codec.Decode(frame)
		var anomalies []sinclair.ValidationError
		if decodeErr == nil {
			anomalies = sinclair.ValidateFrame(codec.Layout(), frame)
		}
		stats.Update(decodeErr, anomalies)

		if replayStats {
			continue
		}
		fmt.Printf("%s ", rec.Direction)
		if decodeErr != nil {
			fmt.Print(sinclair.FormatFrame(rec.Timestamp.Local(), frame, nil))
			fmt.Printf("  [ERROR] %v\n", decodeErr)
		} else {
			fmt.Print(sinclair.FormatFrame(rec.Timestamp.Local(), frame, &state))
		}
		for _, a := range anomalies {
			fmt.Printf("  [ANOMALY] %s\n", a.Message)
		}
		if replayHexDump {
			fmt.Print(sinclair.FormatHexDump(frame))
		}
	}

	if replayStats || stats.TotalFrames > 0 {
		fmt.Println()
		fmt.Print(stats.String())
	}
	return nil
}
