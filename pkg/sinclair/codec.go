// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sinclair

import (
	"errors"
	"fmt"
	"math"
)

// Decode errors. Both are non-fatal: the frame is dropped and the Framer
// resynchronizes on the next sync marker.
var (
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrUnderlengthFrame = errors.New("underlength frame")
)

// Codec packs and unpacks frames for one layout
type Codec struct {
	layout *Layout
}

// NewCodec creates a codec bound to a layout. A nil layout selects CNTLayout.
func NewCodec(layout *Layout) Codec {
	if layout == nil {
		layout = CNTLayout
	}
	return Codec{layout: layout}
}

// Layout returns the layout the codec is bound to
func (c Codec) Layout() *Layout {
	if c.layout == nil {
		return CNTLayout
	}
	return c.layout
}

// Decode validates a complete frame and unpacks it into a ClimateState.
// On error no state is returned. Decode does not check the command byte;
// report-only fields are read from every frame except parameter sets.
func (c Codec) Decode(frame []byte) (ClimateState, error) {
	l := c.Layout()
	if len(frame) < l.FrameSize() {
		return ClimateState{}, fmt.Errorf("%w: %d bytes, need %d", ErrUnderlengthFrame, len(frame), l.FrameSize())
	}

	expected := CalculateChecksum(checksumRange(frame))
	if actual := frame[len(frame)-1]; actual != expected {
		return ClimateState{}, fmt.Errorf("%w: expected 0x%02X, got 0x%02X", ErrChecksumMismatch, expected, actual)
	}

	payload := frame[HeaderSize : len(frame)-1]
	raw := func(name string) (uint8, bool) {
		f, ok := l.Field(name)
		if !ok {
			return 0, false
		}
		return f.Extract(payload), true
	}
	flag := func(name string) bool {
		v, _ := raw(name)
		return v != 0
	}
	value := func(name string) float64 {
		f, ok := l.Field(name)
		if !ok {
			return 0
		}
		return f.Value(f.Extract(payload))
	}

	var s ClimateState
	s.Power = flag(FieldPower)
	if s.Power {
		code, _ := raw(FieldMode)
		s.Mode = modeFromCode(code)
	} else {
		s.Mode = ModeOff
	}

	s.TargetTemperature = int(math.Round(value(FieldTargetTemperature)))
	// parameter-set frames carry no report-only fields
	if f, ok := l.Field(FieldCurrentTemperature); ok && !(f.ReportOnly && frame[HeaderSize] == l.Command) {
		s.CurrentTemperature = value(FieldCurrentTemperature)
	}

	if flag(FieldTurbo) {
		s.Fan = FanTurbo
	} else {
		code, _ := raw(FieldFanSpeed)
		s.Fan = fanFromCode(code)
	}

	v, _ := raw(FieldVerticalSwing)
	s.VerticalSwing = VerticalSwing(v)
	h, _ := raw(FieldHorizontalSwing)
	s.HorizontalSwing = HorizontalSwing(h)
	d, _ := raw(FieldDisplay)
	s.Display = DisplayMode(d)
	u, _ := raw(FieldDisplayUnit)
	s.DisplayUnit = DisplayUnit(u)

	s.Plasma = flag(FieldPlasma)
	s.Beeper = flag(FieldBeeper)
	s.Sleep = flag(FieldSleep)
	s.XFan = flag(FieldXFan)
	s.Save = flag(FieldSave)

	return s, nil
}

// Encode packs a ClimateState into a parameter-set frame.
// Report-only fields are left zero. Callers keep values in range; see
// ClimateState.Clamp and ClimateState.CheckRange.
func (c Codec) Encode(s ClimateState) Frame {
	l := c.Layout()
	return c.pack(s, l.Command, false)
}

// EncodeReport packs a ClimateState into a unit-report frame, report-only
// fields included. This is what the unit itself sends.
func (c Codec) EncodeReport(s ClimateState) Frame {
	l := c.Layout()
	return c.pack(s, l.ReportCommand, true)
}

func (c Codec) pack(s ClimateState, command uint8, report bool) Frame {
	l := c.Layout()
	frame := make(Frame, l.FrameSize())
	frame[0] = SyncByte
	frame[1] = SyncByte
	frame[2] = l.DeclaredLength
	frame[HeaderSize] = command

	payload := frame[HeaderSize : len(frame)-1]
	put := func(name string, raw uint8) {
		f, ok := l.Field(name)
		if !ok || (f.ReportOnly && !report) {
			return
		}
		f.Insert(payload, raw)
	}
	putValue := func(name string, v float64) {
		f, ok := l.Field(name)
		if !ok || (f.ReportOnly && !report) {
			return
		}
		f.Insert(payload, f.Raw(v))
	}

	if s.Power && s.Mode != ModeOff {
		put(FieldPower, 1)
		put(FieldMode, modeCode(s.Mode))
	}

	putValue(FieldTargetTemperature, float64(s.TargetTemperature))
	putValue(FieldCurrentTemperature, s.CurrentTemperature)

	if s.Fan == FanTurbo {
		put(FieldTurbo, 1)
		put(FieldFanSpeed, fanCodeHigh)
	} else {
		put(FieldFanSpeed, fanCode(s.Fan))
	}

	put(FieldVerticalSwing, uint8(s.VerticalSwing))
	put(FieldHorizontalSwing, uint8(s.HorizontalSwing))
	put(FieldDisplay, uint8(s.Display))
	put(FieldDisplayUnit, uint8(s.DisplayUnit))

	put(FieldPlasma, boolBit(s.Plasma))
	put(FieldBeeper, boolBit(s.Beeper))
	put(FieldSleep, boolBit(s.Sleep))
	put(FieldXFan, boolBit(s.XFan))
	put(FieldSave, boolBit(s.Save))

	frame[len(frame)-1] = CalculateChecksum(checksumRange(frame))
	return frame
}

func modeCode(m Mode) uint8 {
	switch m {
	case ModeCool:
		return modeCodeCool
	case ModeDry:
		return modeCodeDry
	case ModeFanOnly:
		return modeCodeFanOnly
	case ModeHeat:
		return modeCodeHeat
	default:
		// Auto, and HeatCool which has no code of its own
		return modeCodeAuto
	}
}

func modeFromCode(code uint8) Mode {
	switch code {
	case modeCodeCool:
		return ModeCool
	case modeCodeDry:
		return ModeDry
	case modeCodeFanOnly:
		return ModeFanOnly
	case modeCodeHeat:
		return ModeHeat
	default:
		return ModeAuto
	}
}

func fanCode(f FanMode) uint8 {
	switch f {
	case FanLow:
		return fanCodeLow
	case FanMedium:
		return fanCodeMedium
	case FanHigh, FanTurbo:
		return fanCodeHigh
	default:
		return fanCodeAuto
	}
}

func fanFromCode(code uint8) FanMode {
	switch code {
	case fanCodeLow:
		return FanLow
	case fanCodeMedium:
		return FanMedium
	case fanCodeHigh:
		return FanHigh
	default:
		return FanAuto
	}
}

func boolBit(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
