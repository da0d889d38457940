// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package sinclair implements the serial protocol spoken by the control unit
// of Sinclair split-system air conditioners.
//
// The package has two parts. A Framer scans a raw UART byte stream for the
// 0x7E 0x7E sync marker and captures one length-prefixed frame at a time. A
// Codec validates the trailing sum checksum of a complete frame and unpacks
// its bit fields into a ClimateState, or packs a ClimateState into a frame
// ready for transmission. The bit positions live in a Layout table that both
// directions share.
//
// Nothing in this package performs I/O or starts goroutines.
package sinclair

// Protocol framing bytes
const (
	SyncByte   = 0x7E
	HeaderSize = 3 // two sync bytes + length byte
)

// DataMax bounds the Framer buffer. A frame that has not completed by the
// time the buffer holds DataMax bytes is discarded.
const DataMax = 200

// Command codes (payload byte 0)
const (
	CmdParamsSet  = 0x01 // controller → unit
	CmdUnitReport = 0x31 // unit → controller
)

// CNT frame geometry
const (
	cntDeclaredLength = 0x2D // command + 43 field bytes + checksum
)

// Temperature limits
const (
	MinTemperature       = 16
	MaxTemperature       = 30
	TemperatureStep      = 1
	TemperatureThreshold = 100  // reports above this are sensor garbage
	TemperatureTolerance = 0.25 // hysteresis used by Action
)

// FramerState is the state of the Framer state machine
type FramerState int

// Framer states
const (
	StateAwaitingSync FramerState = iota
	StateReceiving
	StateComplete
	StateRestart
)

// String returns the state name
func (s FramerState) String() string {
	switch s {
	case StateAwaitingSync:
		return "AWAITING_SYNC"
	case StateReceiving:
		return "RECEIVING"
	case StateComplete:
		return "COMPLETE"
	case StateRestart:
		return "RESTART"
	default:
		return "UNKNOWN"
	}
}
