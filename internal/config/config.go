// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2025 Pierre Jay

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotFound marks a missing config file, as opposed to a malformed one.
// Callers use the distinction to decide how loudly to engage the built-in
// default mapping.
var ErrNotFound = errors.New("config file not found")

// Load reads and parses a configuration file. JSON is the primary format;
// .yaml/.yml files are accepted by extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults sets default values for missing config
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 502
	}
	if c.Server.HTTP == "" {
		c.Server.HTTP = ":8080"
	}
	if c.Server.Chip == "" {
		c.Server.Chip = "gpiochip0"
	}

	for i := range c.Inputs {
		if c.Inputs[i].Name == "" {
			c.Inputs[i].Name = fmt.Sprintf("Input_%d", c.Inputs[i].Coil)
		}
	}
	for i := range c.Outputs {
		if c.Outputs[i].Name == "" {
			c.Outputs[i].Name = fmt.Sprintf("Output_%d", c.Outputs[i].Coil)
		}
	}
}

// InputPins returns the GPIO line offsets of all input mappings.
func (c *Config) InputPins() []int {
	pins := make([]int, len(c.Inputs))
	for i, m := range c.Inputs {
		pins[i] = m.GPIO
	}
	return pins
}

// OutputPins returns the GPIO line offsets of all output mappings.
func (c *Config) OutputPins() []int {
	pins := make([]int, len(c.Outputs))
	for i, m := range c.Outputs {
		pins[i] = m.GPIO
	}
	return pins
}
