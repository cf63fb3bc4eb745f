// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2025 Pierre Jay

// Package bridge keeps the protocol-visible coil store consistent with
// physical pin state in both directions. All store and hardware access is
// serialized behind one mutex; this is the single mutual-exclusion boundary
// for the whole process.
package bridge

import (
	"errors"
	"log/slog"
	"sync"

	"plc-edge/internal/config"
	"plc-edge/internal/gpio"
	"plc-edge/internal/iomap"
	"plc-edge/internal/metrics"
)

// Store sizes. Dimensioned for the Micro 820 style layouts: well above the
// 18 coils the largest built-in scene uses.
const (
	CoilCount     = 100
	RegisterCount = 100
)

// ErrIllegalAddress reports a read or write outside store capacity. The
// Modbus layer turns it into an illegal-data-address exception response.
var ErrIllegalAddress = errors.New("illegal data address")

// Bridge owns the coil and holding register stores and the pin layer.
type Bridge struct {
	logger *slog.Logger
	iomap  *iomap.Map
	labels []config.RegisterLabel
	pins   gpio.Pins

	mu    sync.Mutex
	coils []bool
	regs  []uint16

	// Subscribers receive pre-marshaled JSON state updates (WebSocket and
	// MQTT surfaces).
	subsMu sync.RWMutex
	subs   map[chan []byte]struct{}
}

// New creates a bridge over the given address map and pin layer.
func New(m *iomap.Map, labels []config.RegisterLabel, pins gpio.Pins, logger *slog.Logger) *Bridge {
	return &Bridge{
		logger: logger,
		iomap:  m,
		labels: labels,
		pins:   pins,
		coils:  make([]bool, CoilCount),
		regs:   make([]uint16, RegisterCount),
		subs:   make(map[chan []byte]struct{}),
	}
}

// Map returns the address map the bridge serves.
func (b *Bridge) Map() *iomap.Map { return b.iomap }

// ReadCoils samples every input-bound pin overlapping [addr, addr+count)
// into the store, then returns the range. A read of an input coil therefore
// reflects the hardware level at the time of that read, never an earlier
// poll. Non-input coils are served from the store unchanged.
func (b *Bridge) ReadCoils(addr, count int) ([]bool, error) {
	if addr < 0 || count <= 0 || addr+count > CoilCount {
		return nil, ErrIllegalAddress
	}

	b.mu.Lock()
	changed := b.refreshInputsLocked(addr, count)
	out := make([]bool, count)
	copy(out, b.coils[addr:addr+count])
	b.mu.Unlock()

	if changed {
		b.broadcastState()
	}
	return out, nil
}

// refreshInputsLocked samples input pins in range into the store and reports
// whether any stored value changed. Pin read errors keep the cached value;
// the simulation layer never errors so this only fires on a failing line.
func (b *Bridge) refreshInputsLocked(addr, count int) bool {
	changed := false
	for _, in := range b.iomap.Inputs() {
		if in.Coil < addr || in.Coil >= addr+count {
			continue
		}
		high, err := b.pins.ReadPin(in.GPIO)
		if err != nil {
			b.logger.Debug("Pin read failed", "gpio", in.GPIO, "error", err)
			continue
		}
		v := high == in.ActiveHigh
		if b.coils[in.Coil] != v {
			changed = true
		}
		b.coils[in.Coil] = v
		metrics.SetCoil(in.Coil, in.Name, iomap.RoleInput.String(), v)
	}
	return changed
}

// WriteCoils lands values in the store, then immediately drives every
// output-bound pin among the written addresses. Coils without an output
// binding only affect the store and never touch hardware.
func (b *Bridge) WriteCoils(addr int, values []bool) error {
	if addr < 0 || len(values) == 0 || addr+len(values) > CoilCount {
		return ErrIllegalAddress
	}

	b.mu.Lock()
	for i, v := range values {
		coil := addr + i
		b.coils[coil] = v

		bind, ok := b.iomap.Binding(coil)
		if ok && b.iomap.Role(coil) == iomap.RoleOutput {
			if err := b.pins.WritePin(bind.GPIO, v == bind.ActiveHigh); err != nil {
				b.logger.Warn("Pin write failed", "gpio", bind.GPIO, "coil", coil, "error", err)
			} else {
				metrics.PinWritesTotal.Inc()
			}
			b.logger.Debug("Output driven", "name", bind.Name, "coil", coil, "value", v)
		}
		metrics.SetCoil(coil, b.iomap.Name(coil), b.iomap.Role(coil).String(), v)
	}
	b.mu.Unlock()

	b.broadcastState()
	return nil
}

// ReadRegisters returns a holding register range. Pure store passthrough.
func (b *Bridge) ReadRegisters(addr, count int) ([]uint16, error) {
	if addr < 0 || count <= 0 || addr+count > RegisterCount {
		return nil, ErrIllegalAddress
	}
	b.mu.Lock()
	out := make([]uint16, count)
	copy(out, b.regs[addr:addr+count])
	b.mu.Unlock()
	return out, nil
}

// WriteRegisters lands values in the holding register store.
func (b *Bridge) WriteRegisters(addr int, values []uint16) error {
	if addr < 0 || len(values) == 0 || addr+len(values) > RegisterCount {
		return ErrIllegalAddress
	}
	b.mu.Lock()
	copy(b.regs[addr:], values)
	b.mu.Unlock()

	b.broadcastState()
	return nil
}

// Close deasserts every output and releases all pins. Called on normal
// process termination so actuators are never left energized.
func (b *Bridge) Close() error {
	b.mu.Lock()
	for _, out := range b.iomap.Outputs() {
		b.coils[out.Coil] = false
		if err := b.pins.WritePin(out.GPIO, false == out.ActiveHigh); err != nil {
			b.logger.Warn("Deassert failed", "gpio", out.GPIO, "error", err)
		}
	}
	b.mu.Unlock()

	err := b.pins.ReleaseAll()
	if err == nil {
		b.logger.Info("GPIO released")
	}
	return err
}
