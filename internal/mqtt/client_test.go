// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2025 Pierre Jay

package mqtt

import (
	"io"
	"log/slog"
	"testing"

	"plc-edge/internal/api"
	"plc-edge/internal/bridge"
	"plc-edge/internal/config"
	"plc-edge/internal/gpio"
	"plc-edge/internal/iomap"
)

func TestNewClientDefaults(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m, err := iomap.Build(config.Default(), bridge.CoilCount)
	if err != nil {
		t.Fatalf("build mapping: %v", err)
	}
	b := bridge.New(m, nil, gpio.NewSimPins(), logger)
	h := api.NewHandler(b, api.Info{})

	cfg := &config.MQTTConfig{Broker: "tcp://localhost:1883"}
	c := NewClient(cfg, b, h, logger)

	if c.cfg.TopicPrefix != "plc-edge" || c.cfg.ClientID != "plc-edge" {
		t.Errorf("client defaults = %q/%q, want plc-edge/plc-edge", c.cfg.TopicPrefix, c.cfg.ClientID)
	}
	// Defaults must not leak into the caller's configuration.
	if cfg.TopicPrefix != "" || cfg.ClientID != "" {
		t.Errorf("caller config mutated: %+v", cfg)
	}
}
