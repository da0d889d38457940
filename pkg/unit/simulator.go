// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unit

import (
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/Thermoquad/climastat/pkg/sinclair"
)

// SimulatorOptions configures a Simulator
type SimulatorOptions struct {
	Layout         *sinclair.Layout
	Initial        sinclair.ClimateState
	ReportInterval time.Duration // 0 disables periodic reports; call Tick instead
	NoiseRate      float64       // probability per report of line noise or a corrupt frame
	Seed           int64
}

// Simulator is an in-memory air-conditioner. Parameter-set frames written to
// it change its state and are answered with a unit report; the room
// temperature drifts towards the setpoint while the unit runs.
type Simulator struct {
	codec  sinclair.Codec
	framer *sinclair.Framer
	rng    *rand.Rand
	noise  float64

	mu     sync.Mutex
	cond   *sync.Cond
	state  sinclair.ClimateState
	out    []byte
	closed bool

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewSimulator creates a simulator. The initial room temperature defaults
// to 26°C and the setpoint to 24°C when not given.
func NewSimulator(opts SimulatorOptions) *Simulator {
	s := &Simulator{
		codec:  sinclair.NewCodec(opts.Layout),
		framer: sinclair.NewFramer(),
		rng:    rand.New(rand.NewSource(opts.Seed)),
		noise:  opts.NoiseRate,
		state:  opts.Initial,
		stop:   make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	if s.state.TargetTemperature == 0 {
		s.state.TargetTemperature = DefaultTargetTemperature
	}
	if s.state.CurrentTemperature == 0 {
		s.state.CurrentTemperature = 26
	}

	if opts.ReportInterval > 0 {
		s.wg.Add(1)
		go s.loop(opts.ReportInterval)
	}
	return s
}

func (s *Simulator) loop(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// State returns the simulated unit's state
func (s *Simulator) State() sinclair.ClimateState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Tick advances the room temperature one step and queues a report
func (s *Simulator) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	const step = 0.5
	switch s.state.Action() {
	case sinclair.ActionCooling:
		if s.state.CurrentTemperature > float64(s.state.TargetTemperature) {
			s.state.CurrentTemperature -= step
		}
	case sinclair.ActionHeating:
		if s.state.CurrentTemperature < float64(s.state.TargetTemperature) {
			s.state.CurrentTemperature += step
		}
	}
	s.queueReportLocked()
}

func (s *Simulator) queueReportLocked() {
	if s.closed {
		return
	}
	frame := s.codec.EncodeReport(s.state)
	if s.noise > 0 && s.rng.Float64() < s.noise {
		if s.rng.Intn(2) == 0 {
			garbage := make([]byte, 1+s.rng.Intn(8))
			s.rng.Read(garbage)
			s.out = append(s.out, garbage...)
		} else {
			frame[corruptOffset(s.rng, len(frame))] ^= byte(1 + s.rng.Intn(255))
		}
	}
	s.out = append(s.out, frame...)
	s.cond.Broadcast()
}

// corruptOffset picks a byte to corrupt, after the sync bytes
func corruptOffset(rng *rand.Rand, n int) int {
	return 2 + rng.Intn(n-2)
}

// Read blocks until report bytes are available or the simulator is closed
func (s *Simulator) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.out) == 0 && !s.closed {
		s.cond.Wait()
	}
	if len(s.out) == 0 {
		return 0, io.EOF
	}
	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

// Write accepts controller bytes. Complete parameter-set frames update the
// state and trigger a report; anything else is ignored like on the wire.
func (s *Simulator) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, io.ErrClosedPipe
	}

	for rest := p; len(rest) > 0; {
		n := s.framer.FeedBytes(rest)
		rest = rest[n:]
		if s.framer.State() != sinclair.StateComplete {
			continue
		}
		frame := s.framer.Frame()
		s.framer.Restart()

		if frame.Command() != s.codec.Layout().Command {
			continue
		}
		next, err := s.codec.Decode(frame)
		if err != nil {
			continue
		}
		next.CurrentTemperature = s.state.CurrentTemperature
		s.state = next
		s.queueReportLocked()
	}
	return len(p), nil
}

// Close stops the report loop and unblocks readers
func (s *Simulator) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()

	close(s.stop)
	s.wg.Wait()
	return nil
}
