// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/climastat/internal/logging"
	"github.com/Thermoquad/climastat/pkg/sinclair"
	"github.com/Thermoquad/climastat/pkg/unit"
)

var (
	encodeReport  bool
	encodeCurrent float64
	encodeDump    bool
)

var encodeCmd = &cobra.Command{
	Use:   "encode [key=value...]",
	Short: "Encode a climate state into a frame (offline)",
	Long: `Build the frame for a climate state and print it as hex.

The state starts from defaults (power off, setpoint 24°C) and the given
key=value pairs are applied as with 'set'. Out-of-range values follow
unit.range_policy. With --report a unit report frame is built instead of a
parameter-set frame, including --current as the room temperature.

Examples:
  climastat encode mode=cool target=24 fan=high swing=both
  climastat encode --report --current 22.5 mode=heat`,
	RunE: runEncode,
}

var decodeCmd = &cobra.Command{
	Use:   "decode HEX...",
	Short: "Decode a hex frame (offline)",
	Long: `Decode one frame given as hex and print the climate state.

Whitespace, colons and a leading 0x are ignored, so captures pasted from a
logic analyser or from 'raw_log --hex' work as-is. Validation anomalies are
listed after the state.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(decodeCmd)
	encodeCmd.Flags().BoolVar(&encodeReport, "report", false, "Build a unit report frame instead of a parameter-set frame")
	encodeCmd.Flags().Float64Var(&encodeCurrent, "current", 0, "Room temperature for --report frames")
	encodeCmd.Flags().BoolVar(&encodeDump, "dump", false, "Print a hex dump with offsets")
}

func runEncode(cmd *cobra.Command, args []string) error {
	layout, err := selectedLayout()
	if err != nil {
		return err
	}
	req, err := unit.ParseRequest(args)
	if err != nil {
		return err
	}

	state := req.Merge(sinclair.ClimateState{TargetTemperature: unit.DefaultTargetTemperature})
	state.CurrentTemperature = encodeCurrent
	if err := state.CheckRange(); err != nil {
		policy, _ := unit.ParseRangePolicy(cfg.Unit.RangePolicy)
		if policy == unit.RangeReject {
			return fmt.Errorf("%w: %v", unit.ErrOutOfRange, err)
		}
		fmt.Printf("Clamped: %v\n", err)
		state = state.Clamp()
	}

	codec := sinclair.NewCodec(layout)
	var frame sinclair.Frame
	if encodeReport {
		frame = codec.EncodeReport(state)
	} else {
		frame = codec.Encode(state)
	}

	fmt.Print(sinclair.FormatState(state))
	if encodeDump {
		fmt.Print(sinclair.FormatHexDump(frame))
	} else {
		fmt.Println(sinclair.FormatHex(frame))
	}
	return nil
}

// parseHexFrame accepts hex with arbitrary separators
func parseHexFrame(args []string) (sinclair.Frame, error) {
	s := strings.Join(args, "")
	s = strings.NewReplacer("0x", "", "0X", "", " ", "", ":", "", "\t", "", "\n", "").Replace(s)
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("empty frame")
	}
	return sinclair.Frame(data), nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	layout, err := selectedLayout()
	if err != nil {
		return err
	}
	frame, err := parseHexFrame(args)
	if err != nil {
		return err
	}
	logging.LogRawBytes("decode input", frame)

	state, err := sinclair.NewCodec(layout).Decode(frame)
	if err != nil {
		fmt.Print(sinclair.FormatFrame(time.Now(), frame, nil))
		return err
	}

	fmt.Print(sinclair.FormatFrame(time.Now(), frame, &state))
	for _, v := range sinclair.ValidateFrame(layout, frame) {
		fmt.Printf("  anomaly: %s\n", v.Message)
	}
	return nil
}
