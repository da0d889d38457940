// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Thermoquad/climastat/pkg/sinclair"
)

// ErrOutOfRange is returned by Apply under RangeReject when the merged
// state cannot be transmitted
var ErrOutOfRange = errors.New("value out of range")

// RangePolicy decides what happens to untransmissible requests
type RangePolicy int

const (
	RangeClamp RangePolicy = iota
	RangeReject
)

func (p RangePolicy) String() string {
	if p == RangeReject {
		return "reject"
	}
	return "clamp"
}

// ParseRangePolicy parses "clamp" or "reject"
func ParseRangePolicy(s string) (RangePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clamp":
		return RangeClamp, nil
	case "reject":
		return RangeReject, nil
	default:
		return RangeClamp, fmt.Errorf("invalid range policy %q", s)
	}
}

// Request is a partial change to the climate state. Nil fields are left as
// they are.
type Request struct {
	Power             *bool
	Mode              *sinclair.Mode
	TargetTemperature *int
	Fan               *sinclair.FanMode
	Swing             *sinclair.SwingMode
	VerticalSwing     *sinclair.VerticalSwing
	HorizontalSwing   *sinclair.HorizontalSwing
	Display           *sinclair.DisplayMode
	DisplayUnit       *sinclair.DisplayUnit
	Plasma            *bool
	Beeper            *bool
	Sleep             *bool
	XFan              *bool
	Save              *bool
}

// Empty reports whether the request changes nothing
func (r Request) Empty() bool {
	return r == Request{}
}

// Merge applies the request on top of base.
// Selecting a mode other than Off powers the unit on; selecting Off or
// clearing Power turns it off. A climate swing mode is applied before
// explicit louvre positions.
func (r Request) Merge(base sinclair.ClimateState) sinclair.ClimateState {
	s := base
	if r.Power != nil {
		s.Power = *r.Power
		if s.Power && s.Mode == sinclair.ModeOff {
			s.Mode = sinclair.ModeAuto
		}
		if !s.Power {
			s.Mode = sinclair.ModeOff
		}
	}
	if r.Mode != nil {
		s.Mode = *r.Mode
		s.Power = s.Mode != sinclair.ModeOff
	}
	if r.TargetTemperature != nil {
		s.TargetTemperature = *r.TargetTemperature
	}
	if r.Fan != nil {
		s.Fan = *r.Fan
	}
	if r.Swing != nil {
		s.SetSwing(*r.Swing)
	}
	if r.VerticalSwing != nil {
		s.VerticalSwing = *r.VerticalSwing
	}
	if r.HorizontalSwing != nil {
		s.HorizontalSwing = *r.HorizontalSwing
	}
	if r.Display != nil {
		s.Display = *r.Display
	}
	if r.DisplayUnit != nil {
		s.DisplayUnit = *r.DisplayUnit
	}
	setBool := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	setBool(&s.Plasma, r.Plasma)
	setBool(&s.Beeper, r.Beeper)
	setBool(&s.Sleep, r.Sleep)
	setBool(&s.XFan, r.XFan)
	setBool(&s.Save, r.Save)
	return s
}

// ParseRequest builds a request from key=value arguments, e.g.
// "mode=cool", "target=24", "swing=both", "plasma=on".
func ParseRequest(args []string) (Request, error) {
	var r Request
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return Request{}, fmt.Errorf("expected key=value, got %q", arg)
		}
		if err := r.Set(key, value); err != nil {
			return Request{}, err
		}
	}
	return r, nil
}

// Set parses one field by name
func (r *Request) Set(key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)

	switch key {
	case "power":
		b, err := parseSwitch(value)
		if err != nil {
			return fmt.Errorf("power: %w", err)
		}
		r.Power = &b
	case "mode":
		m, err := sinclair.ParseMode(value)
		if err != nil {
			return err
		}
		r.Mode = &m
	case "target", "temp", "temperature", "target_temperature":
		t, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("target temperature: %w", err)
		}
		r.TargetTemperature = &t
	case "fan":
		f, err := sinclair.ParseFanMode(value)
		if err != nil {
			return err
		}
		r.Fan = &f
	case "swing":
		s, err := sinclair.ParseSwingMode(value)
		if err != nil {
			return err
		}
		r.Swing = &s
	case "vswing", "vertical_swing":
		v, err := sinclair.ParseVerticalSwing(value)
		if err != nil {
			return err
		}
		r.VerticalSwing = &v
	case "hswing", "horizontal_swing":
		h, err := sinclair.ParseHorizontalSwing(value)
		if err != nil {
			return err
		}
		r.HorizontalSwing = &h
	case "display":
		d, err := sinclair.ParseDisplayMode(value)
		if err != nil {
			return err
		}
		r.Display = &d
	case "unit", "display_unit":
		u, err := sinclair.ParseDisplayUnit(value)
		if err != nil {
			return err
		}
		r.DisplayUnit = &u
	case "plasma", "beeper", "sleep", "xfan", "save":
		b, err := parseSwitch(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		switch key {
		case "plasma":
			r.Plasma = &b
		case "beeper":
			r.Beeper = &b
		case "sleep":
			r.Sleep = &b
		case "xfan":
			r.XFan = &b
		case "save":
			r.Save = &b
		}
	default:
		return fmt.Errorf("unknown field %q", key)
	}
	return nil
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	default:
		return false, fmt.Errorf("invalid switch value %q", s)
	}
}
