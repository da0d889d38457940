// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sinclair

import (
	"errors"
	"fmt"
)

// Field names used by the codec
const (
	FieldPower              = "power"
	FieldMode               = "mode"
	FieldSleep              = "sleep"
	FieldFanSpeed           = "fan_speed"
	FieldTargetTemperature  = "target_temperature"
	FieldTurbo              = "turbo"
	FieldPlasma             = "plasma"
	FieldXFan               = "xfan"
	FieldBeeper             = "beeper"
	FieldSave               = "save"
	FieldDisplayUnit        = "display_unit"
	FieldHorizontalSwing    = "horizontal_swing"
	FieldVerticalSwing      = "vertical_swing"
	FieldDisplay            = "display"
	FieldCurrentTemperature = "current_temperature"
)

// Wire codes of the mode field
const (
	modeCodeAuto    = 0
	modeCodeCool    = 1
	modeCodeDry     = 2
	modeCodeFanOnly = 3
	modeCodeHeat    = 4
)

// Wire codes of the fan_speed field
const (
	fanCodeAuto   = 0
	fanCodeLow    = 1
	fanCodeMedium = 2
	fanCodeHigh   = 3
)

// Field locates one bit-field inside the payload.
//
// Offset is relative to the payload start, where payload byte 0 is the
// command. The raw value is (payload[Offset] >> Shift) & Mask. Numeric
// fields use raw = value*Scale + Bias; a Scale of zero means 1.
type Field struct {
	Name       string
	Offset     int
	Mask       uint8
	Shift      uint8
	Scale      float64
	Bias       float64
	ReportOnly bool // sent by the unit, never by the controller
}

func (f Field) scale() float64 {
	if f.Scale == 0 {
		return 1
	}
	return f.Scale
}

// bits returns the in-byte bit mask covered by the field
func (f Field) bits() uint16 {
	return uint16(f.Mask) << f.Shift
}

// Extract reads the raw bit-field value from a payload
func (f Field) Extract(payload []byte) uint8 {
	return (payload[f.Offset] >> f.Shift) & f.Mask
}

// Insert ORs a raw value into a payload. Bits outside the mask are dropped.
func (f Field) Insert(payload []byte, raw uint8) {
	payload[f.Offset] |= (raw & f.Mask) << f.Shift
}

// Value applies the inverse transform to a raw value
func (f Field) Value(raw uint8) float64 {
	return (float64(raw) - f.Bias) / f.scale()
}

// Raw applies the forward transform to a semantic value
func (f Field) Raw(value float64) uint8 {
	v := value*f.scale() + f.Bias
	if v < 0 {
		return 0
	}
	if v > float64(f.Mask) {
		return f.Mask
	}
	return uint8(v + 0.5)
}

// Layout is the bit layout of one device variant
type Layout struct {
	Name           string
	DeclaredLength uint8 // value of the length byte
	Command        uint8 // parameter-set command sent by the controller
	ReportCommand  uint8 // command of frames sent by the unit
	Fields         []Field

	index map[string]int
}

// FrameSize returns the total frame length in bytes
func (l *Layout) FrameSize() int {
	return HeaderSize + int(l.DeclaredLength)
}

// PayloadSize returns the number of bytes between the length byte and the checksum
func (l *Layout) PayloadSize() int {
	return int(l.DeclaredLength) - 1
}

// Field looks up a field by name
func (l *Layout) Field(name string) (Field, bool) {
	if l.index == nil {
		for _, f := range l.Fields {
			if f.Name == name {
				return f, true
			}
		}
		return Field{}, false
	}
	i, ok := l.index[name]
	if !ok {
		return Field{}, false
	}
	return l.Fields[i], true
}

// Layout validation errors
var (
	ErrFieldOverlap     = errors.New("overlapping bit-fields")
	ErrFieldOutOfBounds = errors.New("bit-field outside payload")
	ErrDuplicateField   = errors.New("duplicate field name")
)

// Validate checks that every field fits inside the payload, does not
// overlap another field and does not touch the command byte.
func (l *Layout) Validate() error {
	if l.DeclaredLength < 2 {
		return fmt.Errorf("layout %s: declared length %d too short", l.Name, l.DeclaredLength)
	}
	used := make(map[int]uint16)
	owner := make(map[int]map[uint16]string)
	names := make(map[string]bool)

	for _, f := range l.Fields {
		if names[f.Name] {
			return fmt.Errorf("layout %s: %w: %s", l.Name, ErrDuplicateField, f.Name)
		}
		names[f.Name] = true

		if f.Mask == 0 {
			return fmt.Errorf("layout %s: field %s has empty mask", l.Name, f.Name)
		}
		if f.Offset < 1 || f.Offset >= l.PayloadSize() {
			return fmt.Errorf("layout %s: %w: %s at offset %d (payload %d bytes)",
				l.Name, ErrFieldOutOfBounds, f.Name, f.Offset, l.PayloadSize())
		}
		if f.bits() > 0xFF {
			return fmt.Errorf("layout %s: %w: %s mask 0x%02X << %d exceeds one byte",
				l.Name, ErrFieldOutOfBounds, f.Name, f.Mask, f.Shift)
		}
		if overlap := used[f.Offset] & f.bits(); overlap != 0 {
			other := ""
			for bits, name := range owner[f.Offset] {
				if bits&overlap != 0 {
					other = name
				}
			}
			return fmt.Errorf("layout %s: %w: %s and %s at offset %d",
				l.Name, ErrFieldOverlap, f.Name, other, f.Offset)
		}
		used[f.Offset] |= f.bits()
		if owner[f.Offset] == nil {
			owner[f.Offset] = make(map[uint16]string)
		}
		owner[f.Offset][f.bits()] = f.Name
	}
	return nil
}

// Traits describes the capabilities a layout exposes to a host
type Traits struct {
	MinTemperature  int
	MaxTemperature  int
	TemperatureStep int
	CurrentTemp     bool
	Modes           []Mode
	FanModes        []FanMode
	SwingModes      []SwingMode
}

// Traits returns the capabilities supported by the layout
func (l *Layout) Traits() Traits {
	t := Traits{
		MinTemperature:  MinTemperature,
		MaxTemperature:  MaxTemperature,
		TemperatureStep: TemperatureStep,
		Modes:           []Mode{ModeOff, ModeAuto, ModeCool, ModeHeat, ModeFanOnly, ModeDry},
		FanModes:        []FanMode{FanAuto, FanLow, FanMedium, FanHigh},
		SwingModes:      []SwingMode{SwingOff},
	}
	if _, ok := l.Field(FieldCurrentTemperature); ok {
		t.CurrentTemp = true
	}
	if _, ok := l.Field(FieldTurbo); ok {
		t.FanModes = append(t.FanModes, FanTurbo)
	}
	_, v := l.Field(FieldVerticalSwing)
	_, h := l.Field(FieldHorizontalSwing)
	if v {
		t.SwingModes = append(t.SwingModes, SwingVertical)
	}
	if h {
		t.SwingModes = append(t.SwingModes, SwingHorizontal)
	}
	if v && h {
		t.SwingModes = append(t.SwingModes, SwingBoth)
	}
	return t
}

func newLayout(l Layout) *Layout {
	l.index = make(map[string]int, len(l.Fields))
	for i, f := range l.Fields {
		l.index[f.Name] = i
	}
	return &l
}

// CNTLayout is the layout of the CNT control board
var CNTLayout = newLayout(Layout{
	Name:           "cnt",
	DeclaredLength: cntDeclaredLength,
	Command:        CmdParamsSet,
	ReportCommand:  CmdUnitReport,
	Fields: []Field{
		{Name: FieldPower, Offset: 1, Mask: 0x01, Shift: 7},
		{Name: FieldMode, Offset: 1, Mask: 0x07, Shift: 4},
		{Name: FieldSleep, Offset: 1, Mask: 0x01, Shift: 3},
		{Name: FieldFanSpeed, Offset: 1, Mask: 0x03, Shift: 0},
		{Name: FieldTargetTemperature, Offset: 2, Mask: 0x0F, Shift: 4, Scale: 1, Bias: -MinTemperature},
		{Name: FieldTurbo, Offset: 3, Mask: 0x01, Shift: 0},
		{Name: FieldPlasma, Offset: 3, Mask: 0x01, Shift: 2},
		{Name: FieldXFan, Offset: 3, Mask: 0x01, Shift: 3},
		{Name: FieldBeeper, Offset: 4, Mask: 0x01, Shift: 0},
		{Name: FieldSave, Offset: 4, Mask: 0x01, Shift: 3},
		{Name: FieldDisplayUnit, Offset: 4, Mask: 0x01, Shift: 7},
		{Name: FieldHorizontalSwing, Offset: 5, Mask: 0x07, Shift: 0},
		{Name: FieldVerticalSwing, Offset: 5, Mask: 0x0F, Shift: 4},
		{Name: FieldDisplay, Offset: 6, Mask: 0x07, Shift: 4},
		{Name: FieldCurrentTemperature, Offset: 39, Mask: 0xFF, Shift: 0, Scale: 2, Bias: 40, ReportOnly: true},
	},
})
