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

var wsTestCmd = &cobra.Command{
	Use:   "ws_test",
	Short: "Test raw link stability",
	Long: `Listen on the link without transmitting anything.

This command connects (usually to a WebSocket serial bridge) and just waits,
logging every chunk received and how many complete frames it contained.
Useful for debugging bridge stability and baud/parity mismatches: bytes that
never form a frame point at the serial settings, no bytes at all at wiring.

Exit codes:
  0 - Test completed normally
  1 - Test failed
  2 - Connection error`,
	RunE: runWsTest,
}

var wsTestDuration int

func init() {
	rootCmd.AddCommand(wsTestCmd)
	wsTestCmd.Flags().IntVar(&wsTestDuration, "duration", 30, "Test duration in seconds")
}

func runWsTest(cmd *cobra.Command, args []string) error {
	// Open connection (serial, WebSocket or demo)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Link Stability Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Duration: %d seconds\n\n", wsTestDuration)

	readChan := make(chan []byte, 100)
	errChan := make(chan error, 1)

	go func() {
		buf := make([]byte, 256)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				errChan <- err
				return
			}
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				readChan <- data
			}
		}
	}()

	start := time.Now()
	endTime := start.Add(time.Duration(wsTestDuration) * time.Second)
	framer := sinclair.NewFramer()
	bytesReceived := 0
	chunksReceived := 0
	framesReceived := 0

	printResults := func() {
		fmt.Printf("\n--- Test Results ---\n")
		fmt.Printf("Duration: %v\n", time.Since(start).Round(time.Millisecond))
		fmt.Printf("Chunks received: %d\n", chunksReceived)
		fmt.Printf("Bytes received: %d\n", bytesReceived)
		fmt.Printf("Frames received: %d\n", framesReceived)
		fmt.Printf("Framer overflows: %d\n", framer.Overflows())
	}

	fmt.Printf("Listening for data...\n\n")

	for time.Now().Before(endTime) {
		select {
		case data := <-readChan:
			bytesReceived += len(data)
			chunksReceived++
			frames := 0
			for rest := data; len(rest) > 0; {
				rest = rest[framer.FeedBytes(rest):]
				if framer.State() == sinclair.StateComplete {
					frames++
					framer.Restart()
				}
			}
			framesReceived += frames
			fmt.Printf("[%s] Received %d bytes (%d frames): %x\n",
				time.Now().Format("15:04:05.000"), len(data), frames, data)

		case err := <-errChan:
			fmt.Printf("\n[%s] Connection error: %v\n",
				time.Now().Format("15:04:05.000"), err)
			printResults()
			fmt.Printf("Result: FAILED (connection error)\n")
			os.Exit(1)

		case <-time.After(1 * time.Second):
			remaining := time.Until(endTime).Seconds()
			fmt.Printf("[%s] Still connected... (%.0fs remaining)\n",
				time.Now().Format("15:04:05.000"), remaining)
		}
	}

	printResults()
	fmt.Printf("Result: PASSED (connection stable)\n")

	return nil
}
