// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Thermoquad/climastat/pkg/sinclair"
)

// frameSink records written frames
type frameSink struct {
	frames [][]byte
	err    error
}

func (s *frameSink) WriteFrame(frame []byte) error {
	if s.err != nil {
		return s.err
	}
	s.frames = append(s.frames, append([]byte(nil), frame...))
	return nil
}

func report(s sinclair.ClimateState) []byte {
	return sinclair.NewCodec(nil).EncodeReport(s)
}

// pollUntil polls u until cond holds or the deadline passes
func pollUntil(t *testing.T, u *Unit, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for unit state")
		}
		if _, err := u.Poll(); err != nil {
			t.Fatalf("poll: %v", err)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestUnit_PollDecodesReport(t *testing.T) {
	want := sinclair.ClimateState{Power: true, Mode: sinclair.ModeHeat, TargetTemperature: 21, CurrentTemperature: 19.5, Fan: sinclair.FanLow}
	stream := append([]byte{0x00, 0x7E, 0x12}, report(want)...)

	u := New(NewBytesSource(stream), nil, Options{})
	got, err := u.Poll()
	if err != nil || !got {
		t.Fatalf("expected a frame, got %v %v", got, err)
	}
	if u.State() != want {
		t.Errorf("state mismatch:\n got %s\nwant %s", u.State(), want)
	}
	if st := u.Stats(); st.TotalFrames != 1 || st.ValidFrames != 1 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestUnit_DropsCorruptFrame(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	bad := report(sinclair.ClimateState{Power: true, Mode: sinclair.ModeCool, TargetTemperature: 20})
	bad[10] ^= 0x40
	good := report(sinclair.ClimateState{Power: true, Mode: sinclair.ModeDry, TargetTemperature: 25})

	u := New(NewBytesSource(append(bad, good...)), nil, Options{Logger: zap.New(core)})

	if got, err := u.Poll(); err != nil || !got {
		t.Fatalf("expected first frame, got %v %v", got, err)
	}
	if _, ok := u.Store().State(); ok {
		t.Error("corrupt frame must not update state")
	}
	if logs.FilterMessage("frame dropped").Len() != 1 {
		t.Error("expected a warning for the dropped frame")
	}

	if got, err := u.Poll(); err != nil || !got {
		t.Fatalf("expected second frame, got %v %v", got, err)
	}
	if u.State().Mode != sinclair.ModeDry {
		t.Errorf("expected DRY after recovery, got %s", u.State().Mode)
	}

	st := u.Stats()
	if st.ChecksumErrors != 1 || st.ValidFrames != 1 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestUnit_CountsOverflow(t *testing.T) {
	stream := append([]byte{0x7E, 0x7E, 0xF0}, bytes.Repeat([]byte{0x55}, sinclair.DataMax)...)
	u := New(NewBytesSource(stream), nil, Options{})
	if _, err := u.Poll(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
	if st := u.Stats(); st.Overflows != 1 || st.TotalFrames != 0 {
		t.Errorf("unexpected stats %+v", st)
	}
	u.ResetStats()
	if u.Stats().Overflows != 0 {
		t.Error("expected overflows cleared")
	}
}

func TestUnit_IgnoresEchoedParameterFrame(t *testing.T) {
	echo := sinclair.NewCodec(nil).Encode(sinclair.ClimateState{Power: true, Mode: sinclair.ModeCool, TargetTemperature: 18})
	u := New(NewBytesSource(echo), nil, Options{})
	if got, _ := u.Poll(); !got {
		t.Fatal("expected a frame")
	}
	if _, ok := u.Store().State(); ok {
		t.Error("parameter-set frame must not update state")
	}
}

func TestUnit_Notifications(t *testing.T) {
	first := sinclair.ClimateState{Power: true, Mode: sinclair.ModeCool, TargetTemperature: 24}
	second := first
	second.Plasma = true
	second.Display = sinclair.DisplaySetTemp

	u := New(NewBytesSource(append(report(first), report(second)...)), nil, Options{})
	u.Poll()

	var fields []string
	u.Store().Subscribe(func(c Change) { fields = append(fields, c.Field) })
	u.Poll()

	if len(fields) != 2 || fields[0] != FieldDisplay || fields[1] != FieldPlasma {
		t.Errorf("unexpected notifications %v", fields)
	}
}

func TestUnit_Apply(t *testing.T) {
	sink := &frameSink{}
	u := New(NewBytesSource(nil), sink, Options{})

	req, _ := ParseRequest([]string{"mode=cool", "target=24", "fan=high", "swing=both"})
	sent, err := u.Apply(req)
	if err != nil || !sent {
		t.Fatalf("expected frame sent, got %v %v", sent, err)
	}
	if len(sink.frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(sink.frames))
	}

	s, err := sinclair.NewCodec(nil).Decode(sink.frames[0])
	if err != nil {
		t.Fatalf("sent frame does not decode: %v", err)
	}
	if !s.Power || s.Mode != sinclair.ModeCool || s.TargetTemperature != 24 || s.Fan != sinclair.FanHigh || s.Swing() != sinclair.SwingBoth {
		t.Errorf("unexpected sent state %s", s)
	}
	if u.State().Mode != sinclair.ModeCool {
		t.Error("expected store updated after send")
	}
}

func TestUnit_ApplyUnchangedSendsNothing(t *testing.T) {
	sink := &frameSink{}
	u := New(NewBytesSource(report(sinclair.ClimateState{Power: true, Mode: sinclair.ModeHeat, TargetTemperature: 20, Plasma: true})), sink, Options{})
	u.Poll()

	req, _ := ParseRequest([]string{"mode=heat", "plasma=on"})
	sent, err := u.Apply(req)
	if err != nil || sent {
		t.Errorf("expected no-op, got %v %v", sent, err)
	}
	if len(sink.frames) != 0 {
		t.Errorf("expected no frames, got %d", len(sink.frames))
	}
}

func TestUnit_ApplyBeforeFirstReport(t *testing.T) {
	// Nothing reported yet, so power=off must reach a unit that may be running
	sink := &frameSink{}
	u := New(NewBytesSource(nil), sink, Options{})

	off := false
	sent, err := u.Apply(Request{Power: &off})
	if err != nil || !sent {
		t.Fatalf("expected frame sent, got %v %v", sent, err)
	}
	if len(sink.frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(sink.frames))
	}
	s, err := sinclair.NewCodec(nil).Decode(sink.frames[0])
	if err != nil {
		t.Fatalf("sent frame does not decode: %v", err)
	}
	if s.Power || s.Mode != sinclair.ModeOff {
		t.Errorf("expected power off, got %s", s)
	}

	// The optimistic update makes the same request redundant afterwards
	if sent, err := u.Apply(Request{Power: &off}); err != nil || sent {
		t.Errorf("expected no-op on repeat, got %v %v", sent, err)
	}
}

func TestUnit_ApplyRangePolicy(t *testing.T) {
	req, _ := ParseRequest([]string{"mode=cool", "target=40"})

	clampSink := &frameSink{}
	u := New(NewBytesSource(nil), clampSink, Options{RangePolicy: RangeClamp})
	if sent, err := u.Apply(req); err != nil || !sent {
		t.Fatalf("clamp: expected send, got %v %v", sent, err)
	}
	s, _ := sinclair.NewCodec(nil).Decode(clampSink.frames[0])
	if s.TargetTemperature != sinclair.MaxTemperature {
		t.Errorf("expected clamp to %d, got %d", sinclair.MaxTemperature, s.TargetTemperature)
	}

	rejectSink := &frameSink{}
	u = New(NewBytesSource(nil), rejectSink, Options{RangePolicy: RangeReject})
	if _, err := u.Apply(req); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("reject: expected ErrOutOfRange, got %v", err)
	}
	if len(rejectSink.frames) != 0 {
		t.Error("reject: nothing must be sent")
	}
}

func TestUnit_ApplyErrors(t *testing.T) {
	on := true
	if _, err := New(NewBytesSource(nil), nil, Options{}).Apply(Request{Power: &on}); err == nil {
		t.Error("expected error without sink")
	}
	sink := &frameSink{err: io.ErrClosedPipe}
	if _, err := New(NewBytesSource(nil), sink, Options{}).Apply(Request{Power: &on}); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("expected wrapped write error, got %v", err)
	}
}

func TestUnit_Capture(t *testing.T) {
	var buf bytes.Buffer
	sink := &frameSink{}
	rx := report(sinclair.ClimateState{Power: true, Mode: sinclair.ModeAuto, TargetTemperature: 23})
	u := New(NewBytesSource(rx), sink, Options{Capture: sinclair.NewCaptureWriter(&buf, "cnt")})

	u.Poll()
	on := true
	if _, err := u.Apply(Request{Sleep: &on}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	r := sinclair.NewCaptureReader(&buf)
	first, err := r.Next()
	if err != nil || first.Direction != sinclair.DirectionRX || !bytes.Equal(first.Frame, rx) {
		t.Errorf("unexpected first record %+v %v", first, err)
	}
	second, err := r.Next()
	if err != nil || second.Direction != sinclair.DirectionTX || !bytes.Equal(second.Frame, sink.frames[0]) {
		t.Errorf("unexpected second record %+v %v", second, err)
	}
}

func TestUnit_RunStopsAtEOF(t *testing.T) {
	u := New(NewBytesSource(report(sinclair.ClimateState{TargetTemperature: 20})), nil, Options{})
	if err := u.Run(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := u.Store().State(); !ok {
		t.Error("expected state from run")
	}
}

func TestUnit_RunStopsOnCancel(t *testing.T) {
	sim := NewSimulator(SimulatorOptions{})
	defer sim.Close()

	u := New(NewStreamSource(sim), NewWriterSink(sim), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- u.Run(ctx, time.Millisecond) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}

// ============================================================
// Simulator Tests
// ============================================================

func TestSimulator_RoundTrip(t *testing.T) {
	sim := NewSimulator(SimulatorOptions{})
	defer sim.Close()
	u := New(NewStreamSource(sim), NewWriterSink(sim), Options{})

	req, _ := ParseRequest([]string{"mode=cool", "target=20", "fan=turbo", "xfan=on"})
	if _, err := u.Apply(req); err != nil {
		t.Fatalf("apply: %v", err)
	}

	st := sim.State()
	if !st.Power || st.Mode != sinclair.ModeCool || st.TargetTemperature != 20 || st.Fan != sinclair.FanTurbo || !st.XFan {
		t.Fatalf("simulator did not apply request: %s", st)
	}

	sim.Tick()
	pollUntil(t, u, func() bool {
		s, ok := u.Store().State()
		return ok && s.CurrentTemperature == 25.5
	})
	if u.State().Action() != sinclair.ActionCooling {
		t.Errorf("expected COOLING, got %s", u.State().Action())
	}
}

func TestSimulator_Heating(t *testing.T) {
	sim := NewSimulator(SimulatorOptions{Initial: sinclair.ClimateState{Power: true, Mode: sinclair.ModeHeat, TargetTemperature: 27, CurrentTemperature: 25}})
	defer sim.Close()

	for i := 0; i < 10; i++ {
		sim.Tick()
	}
	if got := sim.State().CurrentTemperature; got != 27 {
		t.Errorf("expected room at setpoint 27, got %.1f", got)
	}
}

func TestSimulator_IgnoresReports(t *testing.T) {
	sim := NewSimulator(SimulatorOptions{})
	defer sim.Close()
	before := sim.State()

	if _, err := sim.Write(report(sinclair.ClimateState{Power: true, Mode: sinclair.ModeHeat, TargetTemperature: 30})); err != nil {
		t.Fatalf("write: %v", err)
	}
	if sim.State() != before {
		t.Error("report frames must not change the simulator")
	}
}

func TestSimulator_Noise(t *testing.T) {
	sim := NewSimulator(SimulatorOptions{NoiseRate: 1, Seed: 7})
	defer sim.Close()
	u := New(NewStreamSource(sim), nil, Options{})

	for i := 0; i < 40; i++ {
		sim.Tick()
	}
	pollUntil(t, u, func() bool { return u.Stats().TotalFrames >= 15 })

	st := u.Stats()
	if st.ChecksumErrors == 0 {
		t.Errorf("expected corrupt frames with noise, got %+v", st)
	}
}

func TestSimulator_CloseUnblocksRead(t *testing.T) {
	sim := NewSimulator(SimulatorOptions{ReportInterval: time.Hour})
	done := make(chan error, 1)
	go func() {
		_, err := sim.Read(make([]byte, 8))
		done <- err
	}()

	sim.Close()
	select {
	case err := <-done:
		if !errors.Is(err, io.EOF) {
			t.Errorf("expected EOF, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Read did not unblock")
	}
	if _, err := sim.Write([]byte{0x7E}); err == nil {
		t.Error("expected write after close to fail")
	}
}

// ============================================================
// Source / Sink Tests
// ============================================================

func TestStreamSource(t *testing.T) {
	src := NewStreamSource(bytes.NewReader([]byte{1, 2, 3}))
	<-src.Done()

	var got []byte
	for src.Available() {
		b, err := src.ReadByte()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				t.Fatalf("unexpected error: %v", err)
			}
			break
		}
		got = append(got, b)
	}
	if !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("unexpected bytes % X", got)
	}
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) / 2, nil }

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriterSink(&buf).WriteFrame([]byte{1, 2, 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{1, 2, 3}) {
		t.Errorf("unexpected output % X", buf.Bytes())
	}
	if err := NewWriterSink(shortWriter{}).WriteFrame([]byte{1, 2}); !errors.Is(err, io.ErrShortWrite) {
		t.Errorf("expected ErrShortWrite, got %v", err)
	}
}
