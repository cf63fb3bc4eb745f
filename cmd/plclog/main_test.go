// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2025 Pierre Jay

package main

import "testing"

func TestResolveNames(t *testing.T) {
	names := resolveNames("", "")
	if names == nil {
		t.Fatal("resolveNames returned nil")
	}
	if names[0] != "Start_Button" {
		t.Errorf("names[0] = %q, want Start_Button", names[0])
	}
	// Bindings above any small --coils value are still labeled.
	if names[13] != "Relay2" {
		t.Errorf("names[13] = %q, want Relay2", names[13])
	}
}

func TestResolveNamesMissingConfig(t *testing.T) {
	names := resolveNames("", "no-such-file.json")
	if names[0] != "Start_Button" {
		t.Errorf("names[0] = %q, want default mapping fallback", names[0])
	}
}

func TestLabel(t *testing.T) {
	names := map[int]string{3: "Sensor"}
	if got := label(names, 3); got != "Sensor" {
		t.Errorf("label(3) = %q, want Sensor", got)
	}
	if got := label(names, 7); got != "7" {
		t.Errorf("label(7) = %q, want 7", got)
	}
}
