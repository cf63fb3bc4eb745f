// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2025 Pierre Jay

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"name": "test-cell",
		"server": {"port": 5020},
		"inputs": [
			{"coil": 0, "gpio": 17, "name": "Start"},
			{"coil": 2, "gpio": 22, "name": "E_Stop", "active_high": false}
		],
		"outputs": [
			{"coil": 10, "gpio": 5}
		],
		"holding_registers": [
			{"address": 0, "name": "Speed", "min": 0, "max": 3000}
		]
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Name != "test-cell" {
		t.Errorf("Name = %q, want %q", cfg.Name, "test-cell")
	}
	if cfg.Server.Port != 5020 {
		t.Errorf("Server.Port = %d, want 5020", cfg.Server.Port)
	}
	if len(cfg.Inputs) != 2 || len(cfg.Outputs) != 1 {
		t.Fatalf("got %d inputs, %d outputs, want 2, 1", len(cfg.Inputs), len(cfg.Outputs))
	}
	if cfg.Inputs[0].Polarity() != true {
		t.Error("input 0 polarity = false, want true (default active-high)")
	}
	if cfg.Inputs[1].Polarity() != false {
		t.Error("input 1 polarity = true, want false (explicit active_high: false)")
	}
	if cfg.Registers[0].Max != 3000 {
		t.Errorf("register max = %d, want 3000", cfg.Registers[0].Max)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"inputs": [{"coil": 1, "gpio": 27}],
		"outputs": [{"coil": 11, "gpio": 6}]
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("default host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 502 {
		t.Errorf("default port = %d, want 502", cfg.Server.Port)
	}
	if cfg.Server.Chip != "gpiochip0" {
		t.Errorf("default chip = %q, want %q", cfg.Server.Chip, "gpiochip0")
	}
	if cfg.Inputs[0].Name != "Input_1" {
		t.Errorf("default input name = %q, want %q", cfg.Inputs[0].Name, "Input_1")
	}
	if cfg.Outputs[0].Name != "Output_11" {
		t.Errorf("default output name = %q, want %q", cfg.Outputs[0].Name, "Output_11")
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
name: yaml-cell
inputs:
  - coil: 0
    gpio: 17
outputs:
  - coil: 10
    gpio: 5
    active_high: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Name != "yaml-cell" {
		t.Errorf("Name = %q, want %q", cfg.Name, "yaml-cell")
	}
	if cfg.Outputs[0].Polarity() != false {
		t.Error("output polarity = true, want false")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := writeFile(t, "bad.json", `{"inputs": [`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() succeeded on malformed JSON")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("malformed file reported as ErrNotFound")
	}
}

func TestDefaultMapping(t *testing.T) {
	cfg := Default()

	if len(cfg.Inputs) == 0 || len(cfg.Outputs) == 0 {
		t.Fatal("built-in default has no mappings")
	}
	if cfg.Inputs[0].Name != "Start_Button" || cfg.Inputs[0].Coil != 0 || cfg.Inputs[0].GPIO != 17 {
		t.Errorf("unexpected first input: %+v", cfg.Inputs[0])
	}
	// The NC emergency stop is wired active-low.
	for _, in := range cfg.Inputs {
		if in.Name == "E_Stop_NC" && in.Polarity() {
			t.Error("E_Stop_NC should be active-low")
		}
	}
}

func TestSceneLookup(t *testing.T) {
	cfg, ok := Scene("sorting_basic")
	if !ok {
		t.Fatal("Scene(sorting_basic) not found")
	}
	if len(cfg.Inputs) == 0 {
		t.Error("scene has no inputs")
	}
	if cfg.Server.Port != 502 {
		t.Errorf("scene port = %d, want defaults applied", cfg.Server.Port)
	}

	if _, ok := Scene("no_such_scene"); ok {
		t.Error("Scene() found a nonexistent scene")
	}

	names := SceneNames()
	if len(names) == 0 {
		t.Fatal("SceneNames() empty")
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("SceneNames() not sorted: %q >= %q", names[i-1], names[i])
		}
	}
}

func TestSceneReturnsCopy(t *testing.T) {
	a, _ := Scene("sorting_basic")
	a.Inputs[0].Name = "mutated"

	b, _ := Scene("sorting_basic")
	if b.Inputs[0].Name == "mutated" {
		t.Error("Scene() shares mapping slices between calls")
	}
}
