// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2025 Pierre Jay

package main

import "testing"

func TestResolveLabels(t *testing.T) {
	m := resolveLabels("", "")
	if m == nil {
		t.Fatal("resolveLabels returned nil map")
	}
	if m.Name(0) != "Start_Button" {
		t.Errorf("Name(0) = %q, want Start_Button", m.Name(0))
	}

	// The polled coil count is independent of the mapping: a layout whose
	// bindings reach past a small --coils value must still resolve.
	if m.Name(13) != "Relay2" {
		t.Errorf("Name(13) = %q, want Relay2", m.Name(13))
	}
}

func TestResolveLabelsScene(t *testing.T) {
	m := resolveLabels("micro820_mirror", "")
	if m == nil {
		t.Fatal("resolveLabels returned nil map")
	}
	if m.Name(15) != "DO_00_LED_Power" {
		t.Errorf("Name(15) = %q, want DO_00_LED_Power", m.Name(15))
	}

	// Unknown scenes fall back to the default mapping.
	m = resolveLabels("no_such_scene", "")
	if m == nil {
		t.Fatal("resolveLabels returned nil map for unknown scene")
	}
	if m.Name(0) != "Start_Button" {
		t.Errorf("Name(0) = %q, want Start_Button", m.Name(0))
	}
}
