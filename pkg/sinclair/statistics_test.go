// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sinclair

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// ============================================================
// Validator Tests
// ============================================================

func TestValidateFrame_Clean(t *testing.T) {
	codec := NewCodec(nil)
	for _, f := range []Frame{
		codec.Encode(ClimateState{Power: true, Mode: ModeCool, TargetTemperature: 24}),
		codec.EncodeReport(ClimateState{Power: true, Mode: ModeHeat, TargetTemperature: 20, CurrentTemperature: 18}),
	} {
		if errs := ValidateFrame(CNTLayout, f); len(errs) != 0 {
			t.Errorf("unexpected anomalies: %v", errs)
		}
	}
}

func TestValidateFrame_Anomalies(t *testing.T) {
	tests := []struct {
		name   string
		cmd    uint8
		mutate func(fields []byte)
		want   AnomalyType
	}{
		{"unknown command", 0x04, func([]byte) {}, AnomalyUnknownCommand},
		{"mode code", CmdUnitReport, func(p []byte) { p[0] = 0x80 | 6<<4 }, AnomalyInvalidMode},
		{"vertical swing", CmdUnitReport, func(p []byte) { p[4] = 0xF0 }, AnomalyInvalidSwing},
		{"horizontal swing", CmdUnitReport, func(p []byte) { p[4] = 0x07 }, AnomalyInvalidSwing},
		{"display", CmdUnitReport, func(p []byte) { p[5] = 0x70 }, AnomalyInvalidDisplay},
		{"target temperature", CmdUnitReport, func(p []byte) { p[1] = 0xF0 }, AnomalyInvalidTemp},
		{"current temperature", CmdUnitReport, func(p []byte) { p[38] = 250 }, AnomalyInvalidTemp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := cntFields()
			tt.mutate(fields)
			errs := ValidateFrame(CNTLayout, buildFrame(tt.cmd, fields))
			if len(errs) != 1 {
				t.Fatalf("expected 1 anomaly, got %d: %v", len(errs), errs)
			}
			if errs[0].Type != tt.want {
				t.Errorf("expected anomaly %d, got %d (%s)", tt.want, errs[0].Type, errs[0].Message)
			}
		})
	}
}

func TestValidateFrame_LengthMismatch(t *testing.T) {
	f := buildFrame(CmdUnitReport, make([]byte, 10))
	errs := ValidateFrame(nil, f)
	if len(errs) != 1 || errs[0].Type != AnomalyLengthMismatch {
		t.Errorf("expected a single length mismatch, got %v", errs)
	}
}

// ============================================================
// Statistics Tests
// ============================================================

func TestStatistics_Update(t *testing.T) {
	s := NewStatistics()

	s.Update(nil, nil)
	s.Update(fmt.Errorf("frame 3: %w", ErrChecksumMismatch), nil)
	s.Update(ErrUnderlengthFrame, nil)
	s.Update(errors.New("other"), nil)
	s.Update(nil, []ValidationError{{Type: AnomalyInvalidMode}, {Type: AnomalyInvalidTemp}})
	s.Update(nil, []ValidationError{{Type: AnomalyUnknownCommand}})
	s.SetOverflows(2)

	if s.TotalFrames != 6 {
		t.Errorf("expected 6 frames, got %d", s.TotalFrames)
	}
	if s.ValidFrames != 1 {
		t.Errorf("expected 1 valid, got %d", s.ValidFrames)
	}
	if s.ChecksumErrors != 1 || s.UnderlengthFrames != 1 || s.DecodeErrors != 1 {
		t.Errorf("unexpected error counters: %+v", s)
	}
	if s.AnomalousFrames != 2 || s.InvalidValues != 1 || s.InvalidTemp != 1 || s.UnknownCommands != 1 {
		t.Errorf("unexpected anomaly counters: %+v", s)
	}
	if s.Errors() != 5 {
		t.Errorf("expected 5 errors, got %d", s.Errors())
	}

	out := s.String()
	for _, want := range []string{"Total Frames:", "Checksum Errors:", "Underlength:", "Overflows:", "Unknown Command:"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	s.Reset()
	if s.TotalFrames != 0 || s.Overflows != 0 {
		t.Error("expected counters cleared by Reset")
	}
}

func TestStatistics_NoErrorLinesWhenClean(t *testing.T) {
	s := NewStatistics()
	s.Update(nil, nil)
	out := s.String()
	if strings.Contains(out, "Checksum Errors") || strings.Contains(out, "Overflows") {
		t.Errorf("unexpected error lines in clean summary:\n%s", out)
	}
}
