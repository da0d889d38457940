// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/climastat/internal/logging"
	"github.com/Thermoquad/climastat/pkg/sinclair"
)

var rawHexDump bool

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display raw frame log in human-readable format",
	Long: `Continuously decode and display frames as they arrive.

Each frame is shown with timestamp, command and decoded climate state. Frames
that fail the checksum are shown as hex with the error.

Supports serial, WebSocket and demo connections.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
	rawLogCmd.Flags().BoolVar(&rawHexDump, "hex", false, "Also print a hex dump of every frame")
}

func runRawLog(cmd *cobra.Command, args []string) error {
	layout, err := selectedLayout()
	if err != nil {
		return err
	}

	// Open connection (serial, WebSocket or demo)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Climastat - Raw Frame Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Layout: %s\n", layout.Name)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	framer := sinclair.NewFramer()
	codec := sinclair.NewCodec(layout)
	buf := make([]byte, 128)

	for {
		n, err := conn.Read(buf)
		if err != nil {
			if connectionClosed(err) {
				log.Printf("Connection closed")
				return nil
			}
			log.Printf("Read error: %v", err)
			continue
		}

		for rest := buf[:n]; len(rest) > 0; {
			rest = rest[framer.FeedBytes(rest):]
			if framer.State() != sinclair.StateComplete {
				continue
			}
			frame := framer.Frame()
			framer.Restart()
			printRawFrame(codec, frame)
		}
	}
}

func printRawFrame(codec sinclair.Codec, frame sinclair.Frame) {
	logging.LogRawBytes("RX frame", frame)
	now := time.Now()
	state, err := codec.Decode(frame)
	if err != nil {
		fmt.Print(sinclair.FormatFrame(now, frame, nil))
		fmt.Printf("  [ERROR] %v\n", err)
	} else {
		fmt.Print(sinclair.FormatFrame(now, frame, &state))
	}
	if rawHexDump {
		fmt.Print(sinclair.FormatHexDump(frame))
	}
}
