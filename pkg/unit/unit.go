// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package unit drives one air-conditioner over a byte transport: it polls a
// ByteSource through a sinclair.Framer, decodes reports into a Store, and
// encodes requests onto a FrameSink.
package unit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Thermoquad/climastat/pkg/sinclair"
)

// DefaultTargetTemperature is the setpoint assumed before the unit has reported
const DefaultTargetTemperature = 24

// Options configures a Unit. The zero value is usable.
type Options struct {
	Layout               *sinclair.Layout // nil selects the CNT layout
	Logger               *zap.Logger      // nil disables logging
	RangePolicy          RangePolicy
	TemperatureThreshold float64
	Capture              *sinclair.CaptureWriter // optional RX/TX recording
}

// Unit is the host side of one serial link
type Unit struct {
	src    ByteSource
	sink   FrameSink
	codec  sinclair.Codec
	framer *sinclair.Framer
	store  *Store
	log    *zap.Logger
	policy RangePolicy

	mu        sync.Mutex // guards stats, capture and the TX path
	stats     *sinclair.Statistics
	capture   *sinclair.CaptureWriter
	overflows uint64 // framer overflows already counted; Poll goroutine only
}

// New creates a unit reading from src and writing to sink. sink may be nil
// for receive-only use.
func New(src ByteSource, sink FrameSink, opts Options) *Unit {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Unit{
		src:     src,
		sink:    sink,
		codec:   sinclair.NewCodec(opts.Layout),
		framer:  sinclair.NewFramer(),
		store:   NewStore(opts.TemperatureThreshold),
		log:     logger,
		policy:  opts.RangePolicy,
		stats:   sinclair.NewStatistics(),
		capture: opts.Capture,
	}
}

// Store returns the unit's state store
func (u *Unit) Store() *Store {
	return u.store
}

// Layout returns the layout in use
func (u *Unit) Layout() *sinclair.Layout {
	return u.codec.Layout()
}

// State returns the last known state, or a default state if the unit has
// not reported yet
func (u *Unit) State() sinclair.ClimateState {
	s, ok := u.store.State()
	if !ok {
		return sinclair.ClimateState{TargetTemperature: DefaultTargetTemperature}
	}
	return s
}

// Stats returns a snapshot of the frame statistics
func (u *Unit) Stats() sinclair.Statistics {
	u.mu.Lock()
	defer u.mu.Unlock()
	return *u.stats
}

// ResetStats clears the frame statistics
func (u *Unit) ResetStats() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.stats.Reset()
}

// Poll drains available bytes until one frame completes or the source runs
// dry. It reports whether a frame was processed. Decode failures are
// counted and logged, never returned; only source errors are.
func (u *Unit) Poll() (bool, error) {
	for u.src.Available() {
		b, err := u.src.ReadByte()
		if err != nil {
			return false, err
		}
		u.framer.Feed(b)
		u.noteOverflow()

		if u.framer.State() == sinclair.StateComplete {
			frame := u.framer.Frame()
			u.framer.Restart()
			u.handleFrame(frame)
			return true, nil
		}
	}
	return false, nil
}

func (u *Unit) noteOverflow() {
	n := u.framer.Overflows()
	if n == u.overflows {
		return
	}
	delta := n - u.overflows
	u.overflows = n
	u.log.Debug("framer overflow, buffer discarded", zap.Uint64("overflows", n))
	u.mu.Lock()
	u.stats.SetOverflows(u.stats.Overflows + delta)
	u.mu.Unlock()
}

func (u *Unit) handleFrame(frame sinclair.Frame) {
	u.log.Debug("RX", zap.String("hex", sinclair.FormatHex(frame)))
	u.record(sinclair.DirectionRX, frame)

	state, err := u.codec.Decode(frame)
	var anomalies []sinclair.ValidationError
	if err == nil {
		anomalies = sinclair.ValidateFrame(u.codec.Layout(), frame)
	}

	u.mu.Lock()
	u.stats.Update(err, anomalies)
	u.mu.Unlock()

	if err != nil {
		u.log.Warn("frame dropped", zap.Error(err), zap.Int("length", len(frame)))
		return
	}
	for _, a := range anomalies {
		u.log.Debug("frame anomaly", zap.String("anomaly", a.Message))
	}
	if frame.Command() == u.codec.Layout().Command {
		// our own parameter frame echoed on a shared line
		u.log.Debug("ignoring parameter-set frame")
		return
	}

	for _, c := range u.store.Update(state) {
		u.log.Debug("state changed", zap.String("field", c.Field), zap.Any("value", c.New))
	}
}

func (u *Unit) record(dir sinclair.Direction, frame sinclair.Frame) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.capture == nil {
		return
	}
	if err := u.capture.Write(time.Now(), dir, frame); err != nil {
		u.log.Warn("capture write failed, recording stopped", zap.Error(err))
		u.capture = nil
	}
}

// Run polls the source once per interval until ctx is cancelled or the
// source fails. Each tick processes every frame that is available.
func (u *Unit) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		for {
			got, err := u.Poll()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return fmt.Errorf("read failed: %w", err)
			}
			if !got {
				break
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Apply merges req into the current state and transmits the result.
// It returns false without sending when the request changes nothing in the
// last reported state; before the first report every request is sent.
// Values the layout cannot carry are clamped or rejected according to the
// range policy.
func (u *Unit) Apply(req Request) (bool, error) {
	if u.sink == nil {
		return false, fmt.Errorf("unit has no transmit path")
	}

	base := u.State()
	next := req.Merge(base)

	if err := next.CheckRange(); err != nil {
		if u.policy == RangeReject {
			return false, fmt.Errorf("%w: %v", ErrOutOfRange, err)
		}
		u.log.Info("request clamped", zap.String("reason", err.Error()))
		next = next.Clamp()
	}

	// only a reported state can make a request redundant
	if _, known := u.store.State(); known && sameCommand(base, next) {
		u.log.Debug("request unchanged, nothing sent")
		return false, nil
	}

	frame := u.codec.Encode(next)

	u.mu.Lock()
	err := u.sink.WriteFrame(frame)
	u.mu.Unlock()
	if err != nil {
		return false, fmt.Errorf("write failed: %w", err)
	}

	u.log.Debug("TX", zap.String("hex", sinclair.FormatHex(frame)))
	u.log.Info("request sent", zap.String("state", next.String()))
	u.record(sinclair.DirectionTX, frame)

	u.store.Update(next)
	return true, nil
}

// sameCommand compares the fields a parameter-set frame carries
func sameCommand(a, b sinclair.ClimateState) bool {
	a.CurrentTemperature, b.CurrentTemperature = 0, 0
	if !a.Power || a.Mode == sinclair.ModeOff {
		a.Power, a.Mode = false, sinclair.ModeOff
	}
	if !b.Power || b.Mode == sinclair.ModeOff {
		b.Power, b.Mode = false, sinclair.ModeOff
	}
	return a == b
}
