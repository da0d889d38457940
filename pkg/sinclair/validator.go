// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sinclair

import "fmt"

// AnomalyType represents different types of frame anomalies
type AnomalyType int

const (
	AnomalyLengthMismatch AnomalyType = iota
	AnomalyUnknownCommand
	AnomalyInvalidMode
	AnomalyInvalidSwing
	AnomalyInvalidDisplay
	AnomalyInvalidTemp
)

// ValidationError represents a frame that decoded but carries values the
// layout does not define
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidateFrame checks a checksum-valid frame for anomalies.
// Returns a slice of validation errors (empty if the frame is clean).
func ValidateFrame(layout *Layout, f Frame) []ValidationError {
	errs := []ValidationError{}
	if layout == nil {
		layout = CNTLayout
	}

	if f.DeclaredLength() != layout.DeclaredLength || len(f) != layout.FrameSize() {
		errs = append(errs, ValidationError{
			Type: AnomalyLengthMismatch,
			Message: fmt.Sprintf("Declared length %d, %d bytes (layout %s expects %d, %d bytes)",
				f.DeclaredLength(), len(f), layout.Name, layout.DeclaredLength, layout.FrameSize()),
			Details: map[string]interface{}{"declared": f.DeclaredLength(), "length": len(f)},
		})
	}
	if len(f) < layout.FrameSize() {
		return errs
	}

	if cmd := f.Command(); cmd != layout.Command && cmd != layout.ReportCommand {
		errs = append(errs, ValidationError{
			Type:    AnomalyUnknownCommand,
			Message: fmt.Sprintf("Unknown command 0x%02X", cmd),
			Details: map[string]interface{}{"command": cmd},
		})
	}

	payload := f.Payload()
	if field, ok := layout.Field(FieldMode); ok {
		if code := field.Extract(payload); code > modeCodeHeat {
			errs = append(errs, ValidationError{
				Type:    AnomalyInvalidMode,
				Message: fmt.Sprintf("Invalid mode code %d", code),
				Details: map[string]interface{}{"mode": code},
			})
		}
	}
	if field, ok := layout.Field(FieldVerticalSwing); ok {
		if code := field.Extract(payload); int(code) >= len(verticalSwingOptions) {
			errs = append(errs, ValidationError{
				Type:    AnomalyInvalidSwing,
				Message: fmt.Sprintf("Invalid vertical swing code %d", code),
				Details: map[string]interface{}{"vertical_swing": code},
			})
		}
	}
	if field, ok := layout.Field(FieldHorizontalSwing); ok {
		if code := field.Extract(payload); int(code) >= len(horizontalSwingOptions) {
			errs = append(errs, ValidationError{
				Type:    AnomalyInvalidSwing,
				Message: fmt.Sprintf("Invalid horizontal swing code %d", code),
				Details: map[string]interface{}{"horizontal_swing": code},
			})
		}
	}
	if field, ok := layout.Field(FieldDisplay); ok {
		if code := field.Extract(payload); int(code) >= len(displayOptions) {
			errs = append(errs, ValidationError{
				Type:    AnomalyInvalidDisplay,
				Message: fmt.Sprintf("Invalid display code %d", code),
				Details: map[string]interface{}{"display": code},
			})
		}
	}
	if field, ok := layout.Field(FieldTargetTemperature); ok {
		t := field.Value(field.Extract(payload))
		if t > MaxTemperature {
			errs = append(errs, ValidationError{
				Type:    AnomalyInvalidTemp,
				Message: fmt.Sprintf("Target temperature %.0f°C above %d°C", t, MaxTemperature),
				Details: map[string]interface{}{"target": t},
			})
		}
	}
	if field, ok := layout.Field(FieldCurrentTemperature); ok && f.Command() == layout.ReportCommand {
		t := field.Value(field.Extract(payload))
		if t > TemperatureThreshold {
			errs = append(errs, ValidationError{
				Type:    AnomalyInvalidTemp,
				Message: fmt.Sprintf("Current temperature %.1f°C above %d°C", t, TemperatureThreshold),
				Details: map[string]interface{}{"current": t},
			})
		}
	}

	return errs
}
