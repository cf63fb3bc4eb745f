// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2025 Pierre Jay

package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CoilValue is a gauge for coil states (0/1)
	CoilValue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "plcedge_coil_value",
			Help: "Current coil value (0 or 1)",
		},
		[]string{"coil", "name", "role"},
	)

	// RequestsTotal counts Modbus requests by function code and result
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plcedge_modbus_requests_total",
			Help: "Total Modbus requests by function code and result",
		},
		[]string{"function", "result"},
	)

	// PinWritesTotal counts physical pin writes
	PinWritesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "plcedge_pin_writes_total",
			Help: "Total GPIO output writes",
		},
	)

	// HardwareMode indicates real GPIO (1) or simulation (0)
	HardwareMode = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "plcedge_hardware_mode",
			Help: "GPIO mode: hardware (1) or simulation (0)",
		},
	)
)

// SetHardwareMode updates the hardware mode metric
func SetHardwareMode(hardware bool) {
	if hardware {
		HardwareMode.Set(1)
	} else {
		HardwareMode.Set(0)
	}
}

// SetCoil updates a coil value metric
func SetCoil(coil int, name, role string, on bool) {
	v := 0.0
	if on {
		v = 1.0
	}
	CoilValue.WithLabelValues(strconv.Itoa(coil), name, role).Set(v)
}

// CountRequest increments the request counter for a function code
func CountRequest(function uint8, result string) {
	RequestsTotal.WithLabelValues(strconv.Itoa(int(function)), result).Inc()
}
