// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sinclair

import (
	"fmt"
	"strings"
	"time"
)

// FormatFrame formats a frame and its decoded state into a human-readable string
func FormatFrame(ts time.Time, f Frame, state *ClimateState) string {
	result := fmt.Sprintf("[%s] %s (0x%02X) len=%d\n",
		ts.Format("15:04:05.000"), FormatCommand(f.Command()), f.Command(), f.DeclaredLength())
	if state != nil {
		result += FormatState(*state)
	} else {
		result += "  " + FormatHex(f) + "\n"
	}
	return result
}

// FormatCommand returns the human-readable name for a command byte
func FormatCommand(cmd uint8) string {
	switch cmd {
	case CmdParamsSet:
		return "PARAMS_SET"
	case CmdUnitReport:
		return "UNIT_REPORT"
	default:
		return "UNKNOWN"
	}
}

// FormatState formats a climate state as indented lines
func FormatState(s ClimateState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  Power: %s, Mode: %s, Action: %s\n", onOff(s.Power), s.Mode, s.Action())
	fmt.Fprintf(&b, "  Target: %d°C, Current: %.1f°C, Fan: %s\n", s.TargetTemperature, s.CurrentTemperature, s.Fan)
	fmt.Fprintf(&b, "  Swing: %s (vertical %s, horizontal %s)\n", s.Swing(), s.VerticalSwing, s.HorizontalSwing)
	fmt.Fprintf(&b, "  Display: %s, Unit: %s\n", s.Display, s.DisplayUnit)
	fmt.Fprintf(&b, "  Plasma: %s, Beeper: %s, Sleep: %s, X-Fan: %s, Save: %s\n",
		onOff(s.Plasma), onOff(s.Beeper), onOff(s.Sleep), onOff(s.XFan), onOff(s.Save))
	return b.String()
}

// FormatHex returns bytes as space separated uppercase hex
func FormatHex(data []byte) string {
	var b strings.Builder
	for i, v := range data {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02X", v)
	}
	return b.String()
}

// FormatHexDump returns a 16-bytes-per-line hex dump with offsets
func FormatHexDump(data []byte) string {
	var b strings.Builder
	for i := 0; i < len(data); i += 16 {
		end := i + 16
		if end > len(data) {
			end = len(data)
		}
		fmt.Fprintf(&b, "  %04X: %s\n", i, FormatHex(data[i:end]))
	}
	return b.String()
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
