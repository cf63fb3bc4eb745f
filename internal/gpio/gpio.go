// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2025 Pierre Jay

// Package gpio abstracts physical pin access behind a single interface with a
// real implementation on the Linux GPIO character device and a simulation
// implementation for off-target operation and tests.
package gpio

import "log/slog"

// Pins is the only path to hardware state. The bridge owns the sole instance;
// no other component touches pins directly.
type Pins interface {
	// ReadPin returns the electrical level of an input line (true = high).
	ReadPin(pin int) (bool, error)

	// WritePin drives an output line to the given electrical level.
	WritePin(pin int, high bool) error

	// ReleaseAll releases every requested line. Outputs must be deasserted
	// by the caller before release.
	ReleaseAll() error
}

// Detect opens the GPIO chip and requests the given lines, degrading to the
// simulation implementation when the hardware access layer is unavailable
// (no chip device, permission denied, or a line request rejected). The
// degraded mode is logged once and is not an error: the bridge keeps serving
// Modbus traffic with all pins behaving as inert memory.
func Detect(chipName string, inputs, outputs []int, logger *slog.Logger) Pins {
	pins, err := NewChipPins(chipName, inputs, outputs)
	if err != nil {
		logger.Warn("GPIO unavailable, running in simulation mode",
			"chip", chipName, "error", err)
		return NewSimPins()
	}
	logger.Info("GPIO configured",
		"chip", chipName, "inputs", len(inputs), "outputs", len(outputs))
	return pins
}
