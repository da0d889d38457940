// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/climastat/pkg/sinclair"
)

var (
	showAll       bool
	statsInterval int
	useTUI        bool
)

var errorDetectionCmd = &cobra.Command{
	Use:   "error_detection",
	Short: "Detect and analyze malformed frames and errors",
	Long: `Track frame errors, malformed data, and anomalous values with statistics.

This command validates each frame and detects:
  - Checksum errors and underlength frames
  - Length mismatches and unknown commands
  - Undefined mode, swing and display codes
  - Implausible room temperatures
  - Framer overflows (runaway declared lengths)
  - Statistics and trends (frame rate, error rate, success rate)

By default, only errors are displayed. Use --show-all to display valid frames too.

Frames are validated in real-time, with errors highlighted immediately and
periodic statistics summaries displayed at configurable intervals.`,
	RunE: runErrorDetection,
}

func init() {
	rootCmd.AddCommand(errorDetectionCmd)
	errorDetectionCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all frames (not just errors)")
	errorDetectionCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	errorDetectionCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
}

// frameEvent is one completed frame with its decode and validation result
type frameEvent struct {
	timestamp        time.Time
	frame            sinclair.Frame
	state            *sinclair.ClimateState
	decodeErr        error
	validationErrors []sinclair.ValidationError
}

// frameScanner turns a byte stream into frame events
type frameScanner struct {
	layout *sinclair.Layout
	codec  sinclair.Codec
	framer *sinclair.Framer
}

func newFrameScanner(layout *sinclair.Layout) *frameScanner {
	return &frameScanner{
		layout: layout,
		codec:  sinclair.NewCodec(layout),
		framer: sinclair.NewFramer(),
	}
}

// scan feeds data through the framer, calling emit for every completed
// frame. It returns the framer's running overflow count.
func (s *frameScanner) scan(data []byte, emit func(frameEvent)) uint64 {
	for rest := data; len(rest) > 0; {
		rest = rest[s.framer.FeedBytes(rest):]
		if s.framer.State() != sinclair.StateComplete {
			continue
		}
		frame := s.framer.Frame()
		s.framer.Restart()

		ev := frameEvent{timestamp: time.Now(), frame: frame}
		state, err := s.codec.Decode(frame)
		if err != nil {
			ev.decodeErr = err
		} else {
			ev.state = &state
			ev.validationErrors = sinclair.ValidateFrame(s.layout, frame)
		}
		emit(ev)
	}
	return s.framer.Overflows()
}

func runErrorDetection(cmd *cobra.Command, args []string) error {
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

	if useTUI {
		return runTUIMode(conn, connInfo, layout)
	}
	return runTextMode(conn, connInfo, layout)
}

// printDecodeError prints a dropped frame in highlighted format
func printDecodeError(ev frameEvent) {
	timestamp := ev.timestamp.Format("15:04:05.000")
	fmt.Printf("[%s] \033[1;31mDECODE ERROR:\033[0m %v\n", timestamp, ev.decodeErr)
	fmt.Printf("  %s\n", sinclair.FormatHex(ev.frame))
	fmt.Printf("  >>> FRAME DROPPED <<<\n\n")
}

// printValidationErrors prints validation errors for a frame
func printValidationErrors(ev frameEvent) {
	timestamp := ev.timestamp.Format("15:04:05.000")
	cmdByte := ev.frame.Command()

	fmt.Printf("[%s] \033[1;33mVALIDATION ERROR:\033[0m %s (0x%02X)\n", timestamp, sinclair.FormatCommand(cmdByte), cmdByte)
	fmt.Printf("  Checksum: \033[1;32mOK\033[0m\n")

	for i, err := range ev.validationErrors {
		switch err.Type {
		case sinclair.AnomalyLengthMismatch, sinclair.AnomalyUnknownCommand:
			fmt.Printf("  Issue %d: \033[1;31m%s\033[0m\n", i+1, err.Message)

		case sinclair.AnomalyInvalidTemp:
			fmt.Printf("  Issue %d: \033[1;33m%s\033[0m\n", i+1, err.Message)
			if temp, ok := err.Details["current"].(float64); ok {
				fmt.Printf("    Current=%.1f°C (threshold %d°C)\n", temp, sinclair.TemperatureThreshold)
			}

		default:
			fmt.Printf("  Issue %d: \033[1;33m%s\033[0m\n", i+1, err.Message)
		}
	}

	if ev.state != nil {
		fmt.Print(sinclair.FormatState(*ev.state))
	}
	fmt.Printf("  >>> FRAME FLAGGED <<<\n\n")
}

// runTUIMode runs error detection in TUI mode
func runTUIMode(conn Connection, connInfo string, layout *sinclair.Layout) error {
	scanner := newFrameScanner(layout)
	synchronized := false
	rejectedBeforeSync := 0

	// Create TUI program
	m := initialModel(connInfo, layout.Name, statsInterval, showAll)
	p := tea.NewProgram(m)

	// Reader goroutine
	go func() {
		buf := make([]byte, 128)
		var overflows uint64
		for {
			n, err := conn.Read(buf)
			if err != nil {
				if connectionClosed(err) {
					p.Send(connectionClosedMsg{err: err})
					return
				}
				log.Printf("Read error: %v", err)
				continue
			}

			total := scanner.scan(buf[:n], func(ev frameEvent) {
				if ev.decodeErr != nil && !synchronized {
					// Not synced yet, a partial frame at start-up is expected
					rejectedBeforeSync++
					return
				}
				if !synchronized {
					synchronized = true
					p.Send(syncMsg{rejectedFrames: rejectedBeforeSync})
				}
				p.Send(frameDataMsg(ev))
			})
			if total != overflows {
				overflows = total
				p.Send(overflowMsg{total: total})
			}
		}
	}()

	// Run TUI
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}

	return nil
}

// runTextMode runs error detection in text mode
func runTextMode(conn Connection, connInfo string, layout *sinclair.Layout) error {
	fmt.Printf("Climastat - Error Detection Mode\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Layout: %s\n", layout.Name)
	fmt.Printf("Statistics interval: %d seconds\n", statsInterval)
	if showAll {
		fmt.Printf("Mode: All frames\n")
	} else {
		fmt.Printf("Mode: Errors only\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	scanner := newFrameScanner(layout)
	stats := sinclair.NewStatistics()

	// Sync tracking - ignore decode errors until first valid frame
	synchronized := false
	rejectedBeforeSync := 0

	// Statistics ticker
	statsTicker := time.NewTicker(time.Duration(statsInterval) * time.Second)
	defer statsTicker.Stop()

	// Channel for non-blocking reads
	readBuf := make(chan []byte, 10)
	readErr := make(chan error, 1)
	go func() {
		buf := make([]byte, 128)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				if connectionClosed(err) {
					readErr <- err
					return
				}
				log.Printf("Read error: %v", err)
				continue
			}
			data := make([]byte, n)
			copy(data, buf[:n])
			readBuf <- data
		}
	}()

	for {
		select {
		case data := <-readBuf:
			overflows := scanner.scan(data, func(ev frameEvent) {
				if ev.decodeErr != nil && !synchronized {
					rejectedBeforeSync++
					return
				}
				if !synchronized {
					synchronized = true
					if rejectedBeforeSync > 0 {
						fmt.Printf("[SYNC] Synchronized after skipping %d corrupt frames\n\n", rejectedBeforeSync)
					} else {
						fmt.Printf("[SYNC] Synchronized\n\n")
					}
				}

				stats.Update(ev.decodeErr, ev.validationErrors)

				switch {
				case ev.decodeErr != nil:
					printDecodeError(ev)
				case len(ev.validationErrors) > 0:
					printValidationErrors(ev)
				case showAll:
					fmt.Print(sinclair.FormatFrame(ev.timestamp, ev.frame, ev.state))
				}
			})
			stats.SetOverflows(overflows)

		case err := <-readErr:
			fmt.Printf("\nConnection closed: %v\n\n", err)
			fmt.Print(stats.String())
			return nil

		case <-statsTicker.C:
			// Print statistics
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()
		}
	}
}
