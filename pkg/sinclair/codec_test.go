// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sinclair

import (
	"errors"
	"testing"
)

// ============================================================
// Decode Tests
// ============================================================

func TestDecode_PoweredAutoScenario(t *testing.T) {
	// 7E 7E 2D 04 <field bytes> <checksum>: mode bits 000 with power set
	fields := cntFields()
	fields[0] = 0x80 // power, mode Auto, fan Auto
	fields[1] = 0x80 // target 16 + 8 = 24
	f := buildFrame(0x04, fields)

	s, err := NewCodec(nil).Decode(f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Power {
		t.Error("expected power on")
	}
	if s.Mode != ModeAuto {
		t.Errorf("expected AUTO, got %s", s.Mode)
	}
	if s.TargetTemperature != 24 {
		t.Errorf("expected 24°C, got %d", s.TargetTemperature)
	}
	if s.Fan != FanAuto {
		t.Errorf("expected fan AUTO, got %s", s.Fan)
	}
}

func TestDecode_AllModes(t *testing.T) {
	tests := []struct {
		code uint8
		want Mode
	}{
		{0, ModeAuto},
		{1, ModeCool},
		{2, ModeDry},
		{3, ModeFanOnly},
		{4, ModeHeat},
		{5, ModeAuto},
		{7, ModeAuto},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			fields := cntFields()
			fields[0] = 0x80 | tt.code<<4
			s, err := NewCodec(nil).Decode(buildFrame(CmdUnitReport, fields))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.Mode != tt.want {
				t.Errorf("code %d: expected %s, got %s", tt.code, tt.want, s.Mode)
			}
		})
	}
}

func TestDecode_PowerGating(t *testing.T) {
	for code := uint8(0); code < 8; code++ {
		fields := cntFields()
		fields[0] = code << 4 // power bit clear
		s, err := NewCodec(nil).Decode(buildFrame(CmdUnitReport, fields))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Power {
			t.Error("expected power off")
		}
		if s.Mode != ModeOff {
			t.Errorf("mode bits %d with power off: expected OFF, got %s", code, s.Mode)
		}
	}
}

func TestDecode_FanAndTurbo(t *testing.T) {
	tests := []struct {
		name  string
		fan   uint8
		turbo bool
		want  FanMode
	}{
		{"auto", 0, false, FanAuto},
		{"low", 1, false, FanLow},
		{"medium", 2, false, FanMedium},
		{"high", 3, false, FanHigh},
		{"turbo", 3, true, FanTurbo},
		{"turbo bit alone", 0, true, FanTurbo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := cntFields()
			fields[0] = 0x80 | tt.fan
			if tt.turbo {
				fields[2] = 0x01
			}
			s, err := NewCodec(nil).Decode(buildFrame(CmdUnitReport, fields))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.Fan != tt.want {
				t.Errorf("expected %s, got %s", tt.want, s.Fan)
			}
		})
	}
}

func TestDecode_CurrentTemperature(t *testing.T) {
	fields := cntFields()
	fields[38] = 85 // (85 - 40) / 2
	s, err := NewCodec(nil).Decode(buildFrame(CmdUnitReport, fields))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.CurrentTemperature != 22.5 {
		t.Errorf("expected 22.5°C, got %.2f", s.CurrentTemperature)
	}
}

func TestDecode_Underlength(t *testing.T) {
	full := buildFrame(CmdUnitReport, cntFields())
	for _, n := range []int{0, 3, 10, len(full) - 1} {
		_, err := NewCodec(nil).Decode(full[:n])
		if !errors.Is(err, ErrUnderlengthFrame) {
			t.Errorf("length %d: expected ErrUnderlengthFrame, got %v", n, err)
		}
	}
}

func TestDecode_ChecksumMismatch(t *testing.T) {
	f := buildFrame(CmdUnitReport, cntFields())
	f[len(f)-1]++

	s, err := NewCodec(nil).Decode(f)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
	if s != (ClimateState{}) {
		t.Error("expected zero state on checksum failure")
	}
}

func TestDecode_SingleByteCorruptionDetected(t *testing.T) {
	codec := NewCodec(nil)
	base := codec.EncodeReport(ClimateState{
		Power: true, Mode: ModeHeat, TargetTemperature: 27, Fan: FanMedium,
		CurrentTemperature: 19.5, Plasma: true,
	})

	// Every byte from the length byte through the checksum
	for i := 2; i < len(base); i++ {
		for _, delta := range []uint8{0x01, 0x80, 0xFF} {
			f := append(Frame(nil), base...)
			f[i] += delta
			_, err := codec.Decode(f)
			if !errors.Is(err, ErrChecksumMismatch) {
				t.Errorf("byte %d += 0x%02X: expected ErrChecksumMismatch, got %v", i, delta, err)
			}
		}
	}
}

// ============================================================
// Encode Tests
// ============================================================

func TestEncode_CoolScenario(t *testing.T) {
	s := ClimateState{Power: true, Mode: ModeCool, TargetTemperature: 24, Fan: FanHigh}
	s.SetSwing(SwingBoth)

	f := NewCodec(nil).Encode(s)
	if len(f) != 48 {
		t.Fatalf("expected 48 bytes, got %d", len(f))
	}
	if f[0] != 0x7E || f[1] != 0x7E || f[2] != 0x2D || f[3] != CmdParamsSet {
		t.Fatalf("unexpected header % X", f[:4])
	}

	p := f.Payload()
	if p[1]&0x80 == 0 {
		t.Error("expected power bit set")
	}
	if code := (p[1] >> 4) & 0x07; code != modeCodeCool {
		t.Errorf("expected Cool code %d, got %d", modeCodeCool, code)
	}
	if p[1]&0x03 != fanCodeHigh {
		t.Errorf("expected High fan code, got %d", p[1]&0x03)
	}
	if raw := p[2] >> 4; int(raw) != 24-MinTemperature {
		t.Errorf("expected temperature raw %d, got %d", 24-MinTemperature, raw)
	}
	if p[5]&0x07 != uint8(HSwingFull) {
		t.Errorf("expected horizontal swing Full, got %d", p[5]&0x07)
	}
	if p[5]>>4 != uint8(VSwingFull) {
		t.Errorf("expected vertical swing Full, got %d", p[5]>>4)
	}
	if !f.ChecksumValid() {
		t.Error("expected valid checksum")
	}
}

func TestEncode_TurboDualWrite(t *testing.T) {
	f := NewCodec(nil).Encode(ClimateState{Power: true, Mode: ModeCool, TargetTemperature: 20, Fan: FanTurbo})
	p := f.Payload()
	if p[3]&0x01 == 0 {
		t.Error("expected turbo bit set")
	}
	if p[1]&0x03 != fanCodeHigh {
		t.Errorf("expected High fan code with turbo, got %d", p[1]&0x03)
	}

	// only Turbo sets the turbo bit
	for _, fan := range []FanMode{FanAuto, FanLow, FanMedium, FanHigh} {
		f := NewCodec(nil).Encode(ClimateState{Power: true, Mode: ModeCool, TargetTemperature: 20, Fan: fan})
		if f.Payload()[3]&0x01 != 0 {
			t.Errorf("fan %s: turbo bit unexpectedly set", fan)
		}
	}
}

func TestEncode_PowerGating(t *testing.T) {
	tests := []struct {
		name  string
		state ClimateState
	}{
		{"mode off", ClimateState{Power: true, Mode: ModeOff, TargetTemperature: 22}},
		{"power false", ClimateState{Power: false, Mode: ModeHeat, TargetTemperature: 22}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewCodec(nil).Encode(tt.state).Payload()
			if p[1]&0xF0 != 0 {
				t.Errorf("expected power and mode bits clear, got 0x%02X", p[1])
			}
		})
	}
}

func TestEncode_HeatCoolSentAsAuto(t *testing.T) {
	f := NewCodec(nil).Encode(ClimateState{Power: true, Mode: ModeHeatCool, TargetTemperature: 22})
	s, err := NewCodec(nil).Decode(f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Mode != ModeAuto {
		t.Errorf("expected AUTO, got %s", s.Mode)
	}
}

func TestEncode_ZeroState(t *testing.T) {
	f := NewCodec(nil).Encode(ClimateState{TargetTemperature: MinTemperature})
	for i, b := range f.Payload()[1:] {
		if b != 0 {
			t.Errorf("payload byte %d: expected 0, got 0x%02X", i+1, b)
		}
	}
}

func TestEncode_SkipsReportOnlyFields(t *testing.T) {
	s := ClimateState{Power: true, Mode: ModeCool, TargetTemperature: 22, CurrentTemperature: 30}
	if b := NewCodec(nil).Encode(s).Payload()[39]; b != 0 {
		t.Errorf("expected current temperature not sent, got 0x%02X", b)
	}
	r := NewCodec(nil).EncodeReport(s)
	if r.Command() != CmdUnitReport {
		t.Errorf("expected report command, got 0x%02X", r.Command())
	}
	if b := r.Payload()[39]; b != 100 {
		t.Errorf("expected raw 100 in report, got %d", b)
	}
}

func TestEncode_FreshBuffers(t *testing.T) {
	codec := NewCodec(nil)
	a := codec.Encode(ClimateState{Power: true, Mode: ModeCool, TargetTemperature: 24})
	b := codec.Encode(ClimateState{Power: true, Mode: ModeCool, TargetTemperature: 24})
	a[5] = 0xFF
	if b[5] == 0xFF {
		t.Error("encode results share a buffer")
	}
}

// ============================================================
// Round Trip
// ============================================================

func TestRoundTrip_TransmissibleFields(t *testing.T) {
	tests := []ClimateState{
		{TargetTemperature: 16},
		{Power: true, Mode: ModeAuto, TargetTemperature: 22},
		{Power: true, Mode: ModeCool, TargetTemperature: 30, Fan: FanTurbo, VerticalSwing: VSwingFull, HorizontalSwing: HSwingFull},
		{Power: true, Mode: ModeHeat, TargetTemperature: 18, Fan: FanLow, VerticalSwing: VSwingUpSwing, HorizontalSwing: HSwingRight},
		{Power: true, Mode: ModeDry, TargetTemperature: 25, Fan: FanMedium, Display: DisplayOutsideTemp, DisplayUnit: DisplayFahrenheit},
		{Power: true, Mode: ModeFanOnly, TargetTemperature: 26, Fan: FanHigh, Plasma: true, Beeper: true, Sleep: true, XFan: true, Save: true},
	}

	codec := NewCodec(nil)
	for _, want := range tests {
		got, err := codec.Decode(codec.Encode(want))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want.Mode == ModeOff {
			want.Power = false
		}
		if got != want {
			t.Errorf("round trip mismatch:\n got %s\nwant %s", got, want)
		}
	}
}

func TestRoundTrip_Report(t *testing.T) {
	codec := NewCodec(nil)
	want := ClimateState{Power: true, Mode: ModeHeat, TargetTemperature: 21, CurrentTemperature: 18.5, Fan: FanLow}
	got, err := codec.Decode(codec.EncodeReport(want))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("round trip mismatch:\n got %s\nwant %s", got, want)
	}
}
