// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Climastat - Sinclair split-AC UART protocol tool

package main

import (
	"os"

	"github.com/Thermoquad/climastat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
