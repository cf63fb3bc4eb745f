// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2025 Pierre Jay

// Package iomap translates a declarative coil/GPIO configuration into the
// validated address map the bridge serves.
package iomap

import (
	"fmt"
	"log/slog"
	"sort"

	"plc-edge/internal/config"
)

// Role classifies a coil address.
type Role uint8

const (
	// RoleVariable is plain read/write storage with no hardware backing.
	// Unmapped addresses behave as variables holding false.
	RoleVariable Role = iota
	// RoleInput is backed by a GPIO read; read-only from the wire's
	// perspective in the sense that writes never reach hardware.
	RoleInput
	// RoleOutput is backed by a GPIO write.
	RoleOutput
)

func (r Role) String() string {
	switch r {
	case RoleInput:
		return "input"
	case RoleOutput:
		return "output"
	default:
		return "variable"
	}
}

// Binding is the immutable relation between one coil and one GPIO line.
type Binding struct {
	Coil       int
	GPIO       int
	Name       string
	ActiveHigh bool
}

// ConfigError reports a malformed or conflicting coil/pin mapping.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid coil mapping: " + e.Reason
}

func configErrf(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// Map is the validated coil address space: a role for every address in
// [0, capacity) plus the input/output binding lists sorted by coil.
// Built once at startup, immutable afterwards.
type Map struct {
	capacity int
	roles    []Role
	inputs   []Binding
	outputs  []Binding
	byCoil   map[int]Binding
}

// Build validates cfg against the store capacity and assigns roles.
// It is a pure function over the configuration data.
func Build(cfg *config.Config, capacity int) (*Map, error) {
	if capacity <= 0 {
		return nil, configErrf("capacity must be positive, got %d", capacity)
	}

	m := &Map{
		capacity: capacity,
		roles:    make([]Role, capacity),
		byCoil:   make(map[int]Binding, len(cfg.Inputs)+len(cfg.Outputs)),
	}

	claimed := make(map[int]string) // coil -> name that claimed it
	outPins := make(map[int]string) // output GPIO -> name

	for _, in := range cfg.Inputs {
		if in.Coil < 0 || in.Coil >= capacity {
			return nil, configErrf("input %q: coil %d out of range (0-%d)", in.Name, in.Coil, capacity-1)
		}
		if prev, ok := claimed[in.Coil]; ok {
			return nil, configErrf("coil %d claimed by both %q and %q", in.Coil, prev, in.Name)
		}
		claimed[in.Coil] = in.Name

		b := Binding{Coil: in.Coil, GPIO: in.GPIO, Name: in.Name, ActiveHigh: in.Polarity()}
		m.roles[in.Coil] = RoleInput
		m.inputs = append(m.inputs, b)
		m.byCoil[in.Coil] = b
	}

	for _, out := range cfg.Outputs {
		if out.Coil < 0 || out.Coil >= capacity {
			return nil, configErrf("output %q: coil %d out of range (0-%d)", out.Name, out.Coil, capacity-1)
		}
		if prev, ok := claimed[out.Coil]; ok {
			return nil, configErrf("coil %d claimed by both %q and %q", out.Coil, prev, out.Name)
		}
		claimed[out.Coil] = out.Name

		if prev, ok := outPins[out.GPIO]; ok {
			return nil, configErrf("GPIO %d driven by both %q and %q", out.GPIO, prev, out.Name)
		}
		outPins[out.GPIO] = out.Name

		b := Binding{Coil: out.Coil, GPIO: out.GPIO, Name: out.Name, ActiveHigh: out.Polarity()}
		m.roles[out.Coil] = RoleOutput
		m.outputs = append(m.outputs, b)
		m.byCoil[out.Coil] = b
	}

	sort.Slice(m.inputs, func(i, j int) bool { return m.inputs[i].Coil < m.inputs[j].Coil })
	sort.Slice(m.outputs, func(i, j int) bool { return m.outputs[i].Coil < m.outputs[j].Coil })

	return m, nil
}

// Resolve builds the address map from cfg, falling back to the built-in
// default mapping if cfg is missing or rejected. The fallback favors
// availability over strict validation: a bridge that serves the default
// layout beats one that refuses to start. Returns the map together with the
// configuration that actually produced it.
func Resolve(cfg *config.Config, capacity int, logger *slog.Logger) (*Map, *config.Config) {
	if cfg != nil {
		m, err := Build(cfg, capacity)
		if err == nil {
			return m, cfg
		}
		logger.Error("Configuration rejected, using built-in default mapping", "error", err)
	}

	def := config.Default()
	m, err := Build(def, capacity)
	if err != nil {
		// The built-in mapping is static and covered by tests.
		panic(fmt.Sprintf("built-in default mapping invalid: %v", err))
	}
	return m, def
}

// Capacity returns the size of the coil address space.
func (m *Map) Capacity() int { return m.capacity }

// Role returns the role of a coil address. Out-of-range addresses report
// RoleVariable; callers bound-check against Capacity first.
func (m *Map) Role(coil int) Role {
	if coil < 0 || coil >= m.capacity {
		return RoleVariable
	}
	return m.roles[coil]
}

// Binding returns the pin binding for a coil, if any.
func (m *Map) Binding(coil int) (Binding, bool) {
	b, ok := m.byCoil[coil]
	return b, ok
}

// Inputs returns the input bindings sorted by coil. Callers must not mutate.
func (m *Map) Inputs() []Binding { return m.inputs }

// Outputs returns the output bindings sorted by coil. Callers must not mutate.
func (m *Map) Outputs() []Binding { return m.outputs }

// Name returns the display name of a coil, or "" for unmapped addresses.
func (m *Map) Name(coil int) string {
	if b, ok := m.byCoil[coil]; ok {
		return b.Name
	}
	return ""
}
