// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2025 Pierre Jay

package config

// Config is the root configuration structure.
// It declares the coil-to-GPIO mapping served by the edge bridge plus the
// optional transport sections.
type Config struct {
	Name        string          `json:"name,omitempty" yaml:"name,omitempty"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Server      ServerConfig    `json:"server,omitempty" yaml:"server,omitempty"`
	MQTT        *MQTTConfig     `json:"mqtt,omitempty" yaml:"mqtt,omitempty"`
	Inputs      []PinMapping    `json:"inputs" yaml:"inputs"`
	Outputs     []PinMapping    `json:"outputs" yaml:"outputs"`
	Registers   []RegisterLabel `json:"holding_registers,omitempty" yaml:"holding_registers,omitempty"`
}

// ServerConfig defines the listening endpoints and the GPIO chip device.
type ServerConfig struct {
	Host string `json:"host,omitempty" yaml:"host,omitempty"`
	Port int    `json:"port,omitempty" yaml:"port,omitempty"`
	HTTP string `json:"http,omitempty" yaml:"http,omitempty"` // status server address
	Chip string `json:"chip,omitempty" yaml:"chip,omitempty"` // e.g. "gpiochip0"
}

// MQTTConfig defines MQTT publisher settings.
// Presence of this section enables MQTT.
type MQTTConfig struct {
	Broker      string `json:"broker" yaml:"broker"` // tcp://host:1883
	ClientID    string `json:"client_id,omitempty" yaml:"client_id,omitempty"`
	Username    string `json:"username,omitempty" yaml:"username,omitempty"`
	Password    string `json:"password,omitempty" yaml:"password,omitempty"`
	TopicPrefix string `json:"topic_prefix,omitempty" yaml:"topic_prefix,omitempty"`
}

// PinMapping binds one Modbus coil to one GPIO line (BCM numbering).
type PinMapping struct {
	Coil       int    `json:"coil" yaml:"coil"`
	GPIO       int    `json:"gpio" yaml:"gpio"`
	Name       string `json:"name,omitempty" yaml:"name,omitempty"`
	ActiveHigh *bool  `json:"active_high,omitempty" yaml:"active_high,omitempty"`
}

// Polarity returns the active-high convention for the mapping.
// A missing active_high field means active-high.
func (m PinMapping) Polarity() bool {
	return m.ActiveHigh == nil || *m.ActiveHigh
}

// RegisterLabel names a holding register for display surfaces.
// Registers have no hardware backing; the label carries a value range hint
// for clients.
type RegisterLabel struct {
	Address int    `json:"address" yaml:"address"`
	Name    string `json:"name" yaml:"name"`
	Min     int    `json:"min,omitempty" yaml:"min,omitempty"`
	Max     int    `json:"max,omitempty" yaml:"max,omitempty"`
}
