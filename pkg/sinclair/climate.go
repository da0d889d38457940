// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sinclair

import (
	"fmt"
	"strings"
)

// Mode represents the climate operating mode
type Mode int

// Mode values. HeatCool is internal-only and never decoded from a frame.
const (
	ModeOff Mode = iota
	ModeAuto
	ModeCool
	ModeHeat
	ModeFanOnly
	ModeDry
	ModeHeatCool
)

var modeNames = []string{"OFF", "AUTO", "COOL", "HEAT", "FAN_ONLY", "DRY", "HEAT_COOL"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "UNKNOWN"
	}
	return modeNames[m]
}

// ParseMode parses a mode name (case-insensitive, "fan-only" and "fan_only" both accepted)
func ParseMode(s string) (Mode, error) {
	i, err := parseName(modeNames, s)
	if err != nil {
		return ModeOff, fmt.Errorf("invalid mode %q", s)
	}
	return Mode(i), nil
}

// FanMode represents the fan speed selection
type FanMode int

// Fan mode values
const (
	FanAuto FanMode = iota
	FanLow
	FanMedium
	FanHigh
	FanTurbo
)

var fanNames = []string{"AUTO", "LOW", "MEDIUM", "HIGH", "TURBO"}

func (f FanMode) String() string {
	if f < 0 || int(f) >= len(fanNames) {
		return "UNKNOWN"
	}
	return fanNames[f]
}

// ParseFanMode parses a fan mode name
func ParseFanMode(s string) (FanMode, error) {
	i, err := parseName(fanNames, s)
	if err != nil {
		return FanAuto, fmt.Errorf("invalid fan mode %q", s)
	}
	return FanMode(i), nil
}

// SwingMode is the climate-level swing summary derived from the two louvres
type SwingMode int

// Swing mode values
const (
	SwingOff SwingMode = iota
	SwingVertical
	SwingHorizontal
	SwingBoth
)

var swingNames = []string{"OFF", "VERTICAL", "HORIZONTAL", "BOTH"}

func (s SwingMode) String() string {
	if s < 0 || int(s) >= len(swingNames) {
		return "UNKNOWN"
	}
	return swingNames[s]
}

// ParseSwingMode parses a swing mode name
func ParseSwingMode(s string) (SwingMode, error) {
	i, err := parseName(swingNames, s)
	if err != nil {
		return SwingOff, fmt.Errorf("invalid swing mode %q", s)
	}
	return SwingMode(i), nil
}

// VerticalSwing is the vertical louvre position. Values are wire codes.
type VerticalSwing int

// Vertical louvre positions
const (
	VSwingOff VerticalSwing = iota
	VSwingFull
	VSwingUp
	VSwingMiddleUp
	VSwingMiddle
	VSwingMiddleDown
	VSwingDown
	VSwingDownSwing
	VSwingMiddleSwing
	VSwingUpSwing
)

var verticalSwingOptions = []string{
	"Off", "Full", "Up", "Middle-up", "Middle", "Middle-down", "Down",
	"Swing down", "Swing middle", "Swing up",
}

// VerticalSwingOptions returns the select options in wire-code order
func VerticalSwingOptions() []string {
	return append([]string(nil), verticalSwingOptions...)
}

func (v VerticalSwing) String() string {
	if v < 0 || int(v) >= len(verticalSwingOptions) {
		return "Unknown"
	}
	return verticalSwingOptions[v]
}

// ParseVerticalSwing parses a vertical swing option
func ParseVerticalSwing(s string) (VerticalSwing, error) {
	i, err := parseName(verticalSwingOptions, s)
	if err != nil {
		return VSwingOff, fmt.Errorf("invalid vertical swing %q", s)
	}
	return VerticalSwing(i), nil
}

// HorizontalSwing is the horizontal louvre position. Values are wire codes.
type HorizontalSwing int

// Horizontal louvre positions
const (
	HSwingOff HorizontalSwing = iota
	HSwingFull
	HSwingLeft
	HSwingMiddleLeft
	HSwingMiddle
	HSwingMiddleRight
	HSwingRight
)

var horizontalSwingOptions = []string{
	"Off", "Full", "Left", "Middle-left", "Middle", "Middle-right", "Right",
}

// HorizontalSwingOptions returns the select options in wire-code order
func HorizontalSwingOptions() []string {
	return append([]string(nil), horizontalSwingOptions...)
}

func (h HorizontalSwing) String() string {
	if h < 0 || int(h) >= len(horizontalSwingOptions) {
		return "Unknown"
	}
	return horizontalSwingOptions[h]
}

// ParseHorizontalSwing parses a horizontal swing option
func ParseHorizontalSwing(s string) (HorizontalSwing, error) {
	i, err := parseName(horizontalSwingOptions, s)
	if err != nil {
		return HSwingOff, fmt.Errorf("invalid horizontal swing %q", s)
	}
	return HorizontalSwing(i), nil
}

// DisplayMode selects what the indoor unit display shows
type DisplayMode int

// Display modes
const (
	DisplayOff DisplayMode = iota
	DisplayAuto
	DisplaySetTemp
	DisplayActualTemp
	DisplayOutsideTemp
)

var displayOptions = []string{"Off", "Auto", "Set temp", "Actual temp", "Outside temp"}

// DisplayOptions returns the display select options in wire-code order
func DisplayOptions() []string {
	return append([]string(nil), displayOptions...)
}

func (d DisplayMode) String() string {
	if d < 0 || int(d) >= len(displayOptions) {
		return "Unknown"
	}
	return displayOptions[d]
}

// ParseDisplayMode parses a display option
func ParseDisplayMode(s string) (DisplayMode, error) {
	i, err := parseName(displayOptions, s)
	if err != nil {
		return DisplayOff, fmt.Errorf("invalid display %q", s)
	}
	return DisplayMode(i), nil
}

// DisplayUnit is the temperature unit shown on the indoor unit
type DisplayUnit int

// Display units
const (
	DisplayCelsius DisplayUnit = iota
	DisplayFahrenheit
)

var displayUnitOptions = []string{"C", "F"}

// DisplayUnitOptions returns the display unit select options
func DisplayUnitOptions() []string {
	return append([]string(nil), displayUnitOptions...)
}

func (u DisplayUnit) String() string {
	if u < 0 || int(u) >= len(displayUnitOptions) {
		return "Unknown"
	}
	return displayUnitOptions[u]
}

// ParseDisplayUnit parses a display unit option
func ParseDisplayUnit(s string) (DisplayUnit, error) {
	i, err := parseName(displayUnitOptions, s)
	if err != nil {
		return DisplayCelsius, fmt.Errorf("invalid display unit %q", s)
	}
	return DisplayUnit(i), nil
}

// Action is what the unit is currently doing, derived from mode and temperatures
type Action int

// Action values
const (
	ActionOff Action = iota
	ActionIdle
	ActionCooling
	ActionHeating
	ActionDrying
	ActionFan
)

var actionNames = []string{"OFF", "IDLE", "COOLING", "HEATING", "DRYING", "FAN"}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "UNKNOWN"
	}
	return actionNames[a]
}

// ClimateState is the structured form of a frame
type ClimateState struct {
	Power              bool
	Mode               Mode
	TargetTemperature  int
	CurrentTemperature float64 // report-only
	Fan                FanMode
	VerticalSwing      VerticalSwing
	HorizontalSwing    HorizontalSwing
	Display            DisplayMode
	DisplayUnit        DisplayUnit

	Plasma bool
	Beeper bool
	Sleep  bool
	XFan   bool
	Save   bool
}

// Swing derives the climate-level swing mode from the louvre positions
func (s ClimateState) Swing() SwingMode {
	v := s.VerticalSwing == VSwingFull
	h := s.HorizontalSwing == HSwingFull
	switch {
	case v && h:
		return SwingBoth
	case v:
		return SwingVertical
	case h:
		return SwingHorizontal
	default:
		return SwingOff
	}
}

// SetSwing sets the louvre positions for a climate-level swing mode.
// Fixed louvre positions are kept on the axis that is not swinging.
func (s *ClimateState) SetSwing(mode SwingMode) {
	switch mode {
	case SwingBoth:
		s.VerticalSwing = VSwingFull
		s.HorizontalSwing = HSwingFull
	case SwingVertical:
		s.VerticalSwing = VSwingFull
		if s.HorizontalSwing == HSwingFull {
			s.HorizontalSwing = HSwingOff
		}
	case SwingHorizontal:
		s.HorizontalSwing = HSwingFull
		if s.VerticalSwing == VSwingFull {
			s.VerticalSwing = VSwingOff
		}
	default:
		if s.VerticalSwing == VSwingFull {
			s.VerticalSwing = VSwingOff
		}
		if s.HorizontalSwing == HSwingFull {
			s.HorizontalSwing = HSwingOff
		}
	}
}

// Action derives the current climate action
func (s ClimateState) Action() Action {
	if !s.Power || s.Mode == ModeOff {
		return ActionOff
	}
	switch s.Mode {
	case ModeFanOnly:
		return ActionFan
	case ModeDry:
		return ActionDrying
	}
	target := float64(s.TargetTemperature)
	if (s.Mode == ModeCool || s.Mode == ModeHeatCool) &&
		s.CurrentTemperature+TemperatureTolerance >= target {
		return ActionCooling
	}
	if (s.Mode == ModeHeat || s.Mode == ModeHeatCool) &&
		s.CurrentTemperature-TemperatureTolerance <= target {
		return ActionHeating
	}
	return ActionIdle
}

// CheckRange returns an error describing the first field outside the range
// the CNT layout can transmit
func (s ClimateState) CheckRange() error {
	if s.TargetTemperature < MinTemperature || s.TargetTemperature > MaxTemperature {
		return fmt.Errorf("target temperature %d out of range [%d, %d]",
			s.TargetTemperature, MinTemperature, MaxTemperature)
	}
	if s.Mode < ModeOff || s.Mode > ModeHeatCool {
		return fmt.Errorf("mode %d out of range", s.Mode)
	}
	if s.Fan < FanAuto || s.Fan > FanTurbo {
		return fmt.Errorf("fan mode %d out of range", s.Fan)
	}
	if s.VerticalSwing < VSwingOff || s.VerticalSwing > VSwingUpSwing {
		return fmt.Errorf("vertical swing %d out of range", s.VerticalSwing)
	}
	if s.HorizontalSwing < HSwingOff || s.HorizontalSwing > HSwingRight {
		return fmt.Errorf("horizontal swing %d out of range", s.HorizontalSwing)
	}
	if s.Display < DisplayOff || s.Display > DisplayOutsideTemp {
		return fmt.Errorf("display %d out of range", s.Display)
	}
	if s.DisplayUnit < DisplayCelsius || s.DisplayUnit > DisplayFahrenheit {
		return fmt.Errorf("display unit %d out of range", s.DisplayUnit)
	}
	return nil
}

// Clamp returns a copy with the target temperature forced into range.
// Enum fields outside their range are reset to their neutral value.
func (s ClimateState) Clamp() ClimateState {
	if s.TargetTemperature < MinTemperature {
		s.TargetTemperature = MinTemperature
	}
	if s.TargetTemperature > MaxTemperature {
		s.TargetTemperature = MaxTemperature
	}
	if s.Mode < ModeOff || s.Mode > ModeHeatCool {
		s.Mode = ModeOff
	}
	if s.Fan < FanAuto || s.Fan > FanTurbo {
		s.Fan = FanAuto
	}
	if s.VerticalSwing < VSwingOff || s.VerticalSwing > VSwingUpSwing {
		s.VerticalSwing = VSwingOff
	}
	if s.HorizontalSwing < HSwingOff || s.HorizontalSwing > HSwingRight {
		s.HorizontalSwing = HSwingOff
	}
	if s.Display < DisplayOff || s.Display > DisplayOutsideTemp {
		s.Display = DisplayOff
	}
	if s.DisplayUnit < DisplayCelsius || s.DisplayUnit > DisplayFahrenheit {
		s.DisplayUnit = DisplayCelsius
	}
	return s
}

// String returns a one-line summary
func (s ClimateState) String() string {
	return fmt.Sprintf("power=%t mode=%s target=%d°C current=%.1f°C fan=%s swing=%s vswing=%q hswing=%q display=%q unit=%s plasma=%t beeper=%t sleep=%t xfan=%t save=%t",
		s.Power, s.Mode, s.TargetTemperature, s.CurrentTemperature, s.Fan, s.Swing(),
		s.VerticalSwing, s.HorizontalSwing, s.Display, s.DisplayUnit,
		s.Plasma, s.Beeper, s.Sleep, s.XFan, s.Save)
}

// parseName finds s in names ignoring case, spaces, dashes and underscores
func parseName(names []string, s string) (int, error) {
	want := normalizeName(s)
	for i, n := range names {
		if normalizeName(n) == want {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown name %q", s)
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}
