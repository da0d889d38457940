// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unit

import (
	"fmt"
	"sync"

	"github.com/Thermoquad/climastat/pkg/sinclair"
)

// Field names reported in Change.Field
const (
	FieldPower              = "power"
	FieldMode               = "mode"
	FieldAction             = "action"
	FieldTargetTemperature  = "target_temperature"
	FieldCurrentTemperature = "current_temperature"
	FieldFan                = "fan"
	FieldSwing              = "swing"
	FieldVerticalSwing      = "vertical_swing"
	FieldHorizontalSwing    = "horizontal_swing"
	FieldDisplay            = "display"
	FieldDisplayUnit        = "display_unit"
	FieldPlasma             = "plasma"
	FieldBeeper             = "beeper"
	FieldSleep              = "sleep"
	FieldXFan               = "xfan"
	FieldSave               = "save"
)

// Change describes one field that differs between two snapshots.
// Old is nil for the first snapshot the store receives.
type Change struct {
	Field string
	Old   interface{}
	New   interface{}
}

func (c Change) String() string {
	if c.Old == nil {
		return fmt.Sprintf("%s=%v", c.Field, c.New)
	}
	return fmt.Sprintf("%s: %v -> %v", c.Field, c.Old, c.New)
}

type fieldValue struct {
	name  string
	value interface{}
}

// values lists every observable field of a state in a fixed order
func values(s sinclair.ClimateState) []fieldValue {
	return []fieldValue{
		{FieldPower, s.Power},
		{FieldMode, s.Mode},
		{FieldAction, s.Action()},
		{FieldTargetTemperature, s.TargetTemperature},
		{FieldCurrentTemperature, s.CurrentTemperature},
		{FieldFan, s.Fan},
		{FieldSwing, s.Swing()},
		{FieldVerticalSwing, s.VerticalSwing},
		{FieldHorizontalSwing, s.HorizontalSwing},
		{FieldDisplay, s.Display},
		{FieldDisplayUnit, s.DisplayUnit},
		{FieldPlasma, s.Plasma},
		{FieldBeeper, s.Beeper},
		{FieldSleep, s.Sleep},
		{FieldXFan, s.XFan},
		{FieldSave, s.Save},
	}
}

// Diff returns the fields that differ between two snapshots
func Diff(old, new sinclair.ClimateState) []Change {
	a, b := values(old), values(new)
	var changes []Change
	for i := range a {
		if a[i].value != b[i].value {
			changes = append(changes, Change{Field: a[i].name, Old: a[i].value, New: b[i].value})
		}
	}
	return changes
}

// Store holds the last known climate state and notifies subscribers of
// changed fields. It is safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	state     sinclair.ClimateState
	known     bool
	threshold float64
	nextID    int
	subs      map[int]func(Change)
}

// NewStore creates an empty store. Reported temperatures above threshold
// are ignored; a threshold <= 0 selects sinclair.TemperatureThreshold.
func NewStore(threshold float64) *Store {
	if threshold <= 0 {
		threshold = sinclair.TemperatureThreshold
	}
	return &Store{threshold: threshold, subs: make(map[int]func(Change))}
}

// State returns the current snapshot and whether any state has been stored
func (s *Store) State() (sinclair.ClimateState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.known
}

// Subscribe registers fn for change notifications and returns a function
// that removes it. Callbacks run on the goroutine calling Update.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Update stores a snapshot and notifies subscribers of every changed field.
// The first snapshot reports every field.
func (s *Store) Update(next sinclair.ClimateState) []Change {
	s.mu.Lock()
	prev, known := s.state, s.known

	if next.CurrentTemperature > s.threshold {
		next.CurrentTemperature = prev.CurrentTemperature
	}
	if float64(next.TargetTemperature) > s.threshold {
		next.TargetTemperature = prev.TargetTemperature
	}

	var changes []Change
	if known {
		changes = Diff(prev, next)
	} else {
		for _, v := range values(next) {
			changes = append(changes, Change{Field: v.name, New: v.value})
		}
	}
	s.state = next
	s.known = true

	subs := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, c := range changes {
		for _, fn := range subs {
			fn(c)
		}
	}
	return changes
}
