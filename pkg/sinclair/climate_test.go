// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sinclair

import "testing"

func TestClimateState_Swing(t *testing.T) {
	tests := []struct {
		v    VerticalSwing
		h    HorizontalSwing
		want SwingMode
	}{
		{VSwingOff, HSwingOff, SwingOff},
		{VSwingFull, HSwingOff, SwingVertical},
		{VSwingOff, HSwingFull, SwingHorizontal},
		{VSwingFull, HSwingFull, SwingBoth},
		{VSwingMiddle, HSwingLeft, SwingOff},
		{VSwingUpSwing, HSwingFull, SwingHorizontal},
	}

	for _, tt := range tests {
		s := ClimateState{VerticalSwing: tt.v, HorizontalSwing: tt.h}
		if got := s.Swing(); got != tt.want {
			t.Errorf("v=%s h=%s: expected %s, got %s", tt.v, tt.h, tt.want, got)
		}
	}
}

func TestClimateState_SetSwing(t *testing.T) {
	s := ClimateState{VerticalSwing: VSwingDown, HorizontalSwing: HSwingLeft}

	s.SetSwing(SwingBoth)
	if s.VerticalSwing != VSwingFull || s.HorizontalSwing != HSwingFull {
		t.Errorf("Both: got v=%s h=%s", s.VerticalSwing, s.HorizontalSwing)
	}

	s.SetSwing(SwingVertical)
	if s.VerticalSwing != VSwingFull || s.HorizontalSwing != HSwingOff {
		t.Errorf("Vertical: got v=%s h=%s", s.VerticalSwing, s.HorizontalSwing)
	}

	s.SetSwing(SwingOff)
	if s.VerticalSwing != VSwingOff || s.HorizontalSwing != HSwingOff {
		t.Errorf("Off: got v=%s h=%s", s.VerticalSwing, s.HorizontalSwing)
	}

	// fixed positions survive on the axis that is not swinging
	s = ClimateState{VerticalSwing: VSwingDown}
	s.SetSwing(SwingHorizontal)
	if s.VerticalSwing != VSwingDown || s.HorizontalSwing != HSwingFull {
		t.Errorf("Horizontal: got v=%s h=%s", s.VerticalSwing, s.HorizontalSwing)
	}
	if s.Swing() != SwingHorizontal {
		t.Errorf("expected HORIZONTAL, got %s", s.Swing())
	}
}

func TestClimateState_Action(t *testing.T) {
	tests := []struct {
		name  string
		state ClimateState
		want  Action
	}{
		{"power off", ClimateState{Mode: ModeCool, TargetTemperature: 20, CurrentTemperature: 30}, ActionOff},
		{"mode off", ClimateState{Power: true, Mode: ModeOff}, ActionOff},
		{"fan", ClimateState{Power: true, Mode: ModeFanOnly}, ActionFan},
		{"dry", ClimateState{Power: true, Mode: ModeDry}, ActionDrying},
		{"cooling", ClimateState{Power: true, Mode: ModeCool, TargetTemperature: 22, CurrentTemperature: 25}, ActionCooling},
		{"cooling within tolerance", ClimateState{Power: true, Mode: ModeCool, TargetTemperature: 22, CurrentTemperature: 21.75}, ActionCooling},
		{"cool idle", ClimateState{Power: true, Mode: ModeCool, TargetTemperature: 22, CurrentTemperature: 21}, ActionIdle},
		{"heating", ClimateState{Power: true, Mode: ModeHeat, TargetTemperature: 22, CurrentTemperature: 19}, ActionHeating},
		{"heat idle", ClimateState{Power: true, Mode: ModeHeat, TargetTemperature: 22, CurrentTemperature: 23}, ActionIdle},
		{"heat-cool warm", ClimateState{Power: true, Mode: ModeHeatCool, TargetTemperature: 22, CurrentTemperature: 26}, ActionCooling},
		{"heat-cool cold", ClimateState{Power: true, Mode: ModeHeatCool, TargetTemperature: 22, CurrentTemperature: 18}, ActionHeating},
		{"auto", ClimateState{Power: true, Mode: ModeAuto, TargetTemperature: 22, CurrentTemperature: 30}, ActionIdle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.Action(); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestClimateState_CheckRangeAndClamp(t *testing.T) {
	ok := ClimateState{Power: true, Mode: ModeCool, TargetTemperature: 24}
	if err := ok.CheckRange(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if ok.Clamp() != ok {
		t.Error("clamp changed an in-range state")
	}

	tests := []struct {
		name  string
		state ClimateState
		check func(ClimateState) bool
	}{
		{"too cold", ClimateState{TargetTemperature: 5}, func(s ClimateState) bool { return s.TargetTemperature == MinTemperature }},
		{"too hot", ClimateState{TargetTemperature: 45}, func(s ClimateState) bool { return s.TargetTemperature == MaxTemperature }},
		{"bad mode", ClimateState{TargetTemperature: 20, Mode: Mode(42)}, func(s ClimateState) bool { return s.Mode == ModeOff }},
		{"bad fan", ClimateState{TargetTemperature: 20, Fan: FanMode(-1)}, func(s ClimateState) bool { return s.Fan == FanAuto }},
		{"bad vswing", ClimateState{TargetTemperature: 20, VerticalSwing: 15}, func(s ClimateState) bool { return s.VerticalSwing == VSwingOff }},
		{"bad hswing", ClimateState{TargetTemperature: 20, HorizontalSwing: 7}, func(s ClimateState) bool { return s.HorizontalSwing == HSwingOff }},
		{"bad display", ClimateState{TargetTemperature: 20, Display: 9}, func(s ClimateState) bool { return s.Display == DisplayOff }},
		{"bad unit", ClimateState{TargetTemperature: 20, DisplayUnit: 2}, func(s ClimateState) bool { return s.DisplayUnit == DisplayCelsius }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.state.CheckRange(); err == nil {
				t.Error("expected range error")
			}
			c := tt.state.Clamp()
			if !tt.check(c) {
				t.Errorf("unexpected clamp result %s", c)
			}
			if err := c.CheckRange(); err != nil {
				t.Errorf("clamped state still out of range: %v", err)
			}
		})
	}
}

func TestParseEnums(t *testing.T) {
	if m, err := ParseMode("fan-only"); err != nil || m != ModeFanOnly {
		t.Errorf("ParseMode: got %s, %v", m, err)
	}
	if m, err := ParseMode("Heat_Cool"); err != nil || m != ModeHeatCool {
		t.Errorf("ParseMode: got %s, %v", m, err)
	}
	if _, err := ParseMode("warm"); err == nil {
		t.Error("expected error for unknown mode")
	}
	if f, err := ParseFanMode("TURBO"); err != nil || f != FanTurbo {
		t.Errorf("ParseFanMode: got %s, %v", f, err)
	}
	if s, err := ParseSwingMode("both"); err != nil || s != SwingBoth {
		t.Errorf("ParseSwingMode: got %s, %v", s, err)
	}
	if v, err := ParseVerticalSwing("Swing middle"); err != nil || v != VSwingMiddleSwing {
		t.Errorf("ParseVerticalSwing: got %s, %v", v, err)
	}
	if h, err := ParseHorizontalSwing("middle-right"); err != nil || h != HSwingMiddleRight {
		t.Errorf("ParseHorizontalSwing: got %s, %v", h, err)
	}
	if d, err := ParseDisplayMode("Actual temp"); err != nil || d != DisplayActualTemp {
		t.Errorf("ParseDisplayMode: got %s, %v", d, err)
	}
	if u, err := ParseDisplayUnit("f"); err != nil || u != DisplayFahrenheit {
		t.Errorf("ParseDisplayUnit: got %s, %v", u, err)
	}
}

func TestOptionsMatchWireCodes(t *testing.T) {
	for i, name := range VerticalSwingOptions() {
		if VerticalSwing(i).String() != name {
			t.Errorf("vertical option %d: %q != %q", i, VerticalSwing(i), name)
		}
	}
	for i, name := range HorizontalSwingOptions() {
		if HorizontalSwing(i).String() != name {
			t.Errorf("horizontal option %d: %q != %q", i, HorizontalSwing(i), name)
		}
	}
	for i, name := range DisplayOptions() {
		if DisplayMode(i).String() != name {
			t.Errorf("display option %d: %q != %q", i, DisplayMode(i), name)
		}
	}
	if len(DisplayUnitOptions()) != 2 {
		t.Errorf("unexpected display units %v", DisplayUnitOptions())
	}

	// callers cannot mutate the option tables
	opts := DisplayOptions()
	opts[0] = "changed"
	if DisplayOff.String() != "Off" {
		t.Error("option table was mutated")
	}
}

func TestEnumStrings_Unknown(t *testing.T) {
	if Mode(99).String() != "UNKNOWN" || FanMode(99).String() != "UNKNOWN" ||
		SwingMode(99).String() != "UNKNOWN" || Action(99).String() != "UNKNOWN" {
		t.Error("expected UNKNOWN for out-of-range enums")
	}
	if VerticalSwing(99).String() != "Unknown" || DisplayUnit(5).String() != "Unknown" {
		t.Error("expected Unknown for out-of-range options")
	}
}
