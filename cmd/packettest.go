// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/climastat/pkg/sinclair"
)

var (
	packetTestTimeout int
)

var packetTestCmd = &cobra.Command{
	Use:   "packet_test",
	Short: "Test connection by waiting for a valid frame",
	Long: `Wait for a valid frame on the connection until timeout.

This command connects to a serial port or WebSocket and waits for any frame
that passes the checksum. Line noise and corrupt frames are skipped.

Exit codes:
  0 - Frame received before timeout
  1 - Timeout reached without receiving a valid frame
  2 - Connection error

Useful for checking wiring, baud rate and parity against an indoor unit.`,
	RunE: runPacketTest,
}

func init() {
	rootCmd.AddCommand(packetTestCmd)
	packetTestCmd.Flags().IntVar(&packetTestTimeout, "timeout", 10, "Timeout in seconds to wait for a frame")
}

func runPacketTest(cmd *cobra.Command, args []string) error {
	layout, err := selectedLayout()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}

	// Open connection (serial, WebSocket or demo)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Climastat - Frame Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", packetTestTimeout)
	fmt.Printf("Waiting for valid frame...\n\n")

	framer := sinclair.NewFramer()
	codec := sinclair.NewCodec(layout)
	buf := make([]byte, 128)

	frameChan := make(chan sinclair.Frame, 1)
	errChan := make(chan error, 1)

	// Reader goroutine
	go func() {
		rejected := 0
		for {
			n, err := conn.Read(buf)
			if err != nil {
				errChan <- err
				return
			}

			for rest := buf[:n]; len(rest) > 0; {
				rest = rest[framer.FeedBytes(rest):]
				if framer.State() != sinclair.StateComplete {
					continue
				}
				frame := framer.Frame()
				framer.Restart()

				if _, err := codec.Decode(frame); err != nil {
					rejected++
					continue
				}
				if rejected > 0 {
					fmt.Printf("(skipped %d corrupt frames)\n", rejected)
				}
				frameChan <- frame
				return
			}
		}
	}()

	// Wait for frame or timeout
	select {
	case frame := <-frameChan:
		state, _ := codec.Decode(frame)
		fmt.Printf("SUCCESS: Received valid frame\n")
		fmt.Printf("  Command: %s (0x%02X)\n", sinclair.FormatCommand(frame.Command()), frame.Command())
		fmt.Printf("  Length: %d bytes (declared %d)\n", len(frame), frame.DeclaredLength())
		fmt.Printf("  Checksum: 0x%02X\n", frame.Checksum())
		fmt.Print(sinclair.FormatState(state))
		conn.Close()
		os.Exit(0)

	case err := <-errChan:
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(2)

	case <-time.After(time.Duration(packetTestTimeout) * time.Second):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No valid frame received within %d seconds\n", packetTestTimeout)
		os.Exit(1)
	}

	return nil
}
