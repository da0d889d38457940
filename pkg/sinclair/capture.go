// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sinclair

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Direction of a captured frame relative to the controller
type Direction uint8

const (
	DirectionRX Direction = iota // unit → controller
	DirectionTX                  // controller → unit
)

func (d Direction) String() string {
	if d == DirectionTX {
		return "TX"
	}
	return "RX"
}

// CaptureRecord is one frame in a capture file.
// Files are a CBOR sequence: records concatenated with no outer array.
type CaptureRecord struct {
	Timestamp time.Time `cbor:"1,keyasint"`
	Direction Direction `cbor:"2,keyasint"`
	Variant   string    `cbor:"3,keyasint,omitempty"`
	Frame     []byte    `cbor:"4,keyasint"`
}

var captureEncMode = func() cbor.EncMode {
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	em, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("sinclair: capture encoder: %v", err))
	}
	return em
}()

// CaptureWriter appends records to a capture stream
type CaptureWriter struct {
	enc     *cbor.Encoder
	variant string
}

// NewCaptureWriter creates a writer tagging every record with variant
func NewCaptureWriter(w io.Writer, variant string) *CaptureWriter {
	return &CaptureWriter{enc: captureEncMode.NewEncoder(w), variant: variant}
}

// Write appends one frame
func (c *CaptureWriter) Write(ts time.Time, dir Direction, f Frame) error {
	rec := CaptureRecord{
		Timestamp: ts.UTC(),
		Direction: dir,
		Variant:   c.variant,
		Frame:     append([]byte(nil), f...),
	}
	if err := c.enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to encode capture record: %w", err)
	}
	return nil
}

// CaptureReader reads records from a capture stream
type CaptureReader struct {
	dec *cbor.Decoder
}

// NewCaptureReader creates a reader over a capture stream
func NewCaptureReader(r io.Reader) *CaptureReader {
	return &CaptureReader{dec: cbor.NewDecoder(r)}
}

// Next returns the next record, or io.EOF at the end of the stream
func (c *CaptureReader) Next() (CaptureRecord, error) {
	var rec CaptureRecord
	if err := c.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return CaptureRecord{}, io.EOF
		}
		return CaptureRecord{}, fmt.Errorf("failed to decode capture record: %w", err)
	}
	return rec, nil
}
