// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2025 Pierre Jay

package monitor

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestUnpackBits(t *testing.T) {
	tests := []struct {
		name  string
		raw   []byte
		count int
		want  []bool
	}{
		{"single set", []byte{0x01}, 1, []bool{true}},
		{"lsb first", []byte{0x05}, 4, []bool{true, false, true, false}},
		{"two bytes", []byte{0xFF, 0x01}, 9, []bool{true, true, true, true, true, true, true, true, true}},
		{"truncated count", []byte{0xFF}, 3, []bool{true, true, true}},
		{"short payload", []byte{0x01}, 12, []bool{true, false, false, false, false, false, false, false, false, false, false, false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UnpackBits(tt.raw, tt.count); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("UnpackBits(% x, %d) = %v, want %v", tt.raw, tt.count, got, tt.want)
			}
		})
	}
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name string
		prev []bool
		cur  []bool
		want []int
	}{
		{"no change", []bool{true, false}, []bool{true, false}, nil},
		{"one rising", []bool{false, false}, []bool{false, true}, []int{1}},
		{"one falling", []bool{true, true}, []bool{true, false}, []int{1}},
		{"several", []bool{false, true, false}, []bool{true, false, false}, []int{0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Diff(tt.prev, tt.cur); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Diff() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecorderBaseline(t *testing.T) {
	rec := NewRecorder(nil)

	// First sample is the baseline, even with coils already on.
	if got := rec.Observe(time.Now(), []bool{true, true}); got != nil {
		t.Errorf("first Observe() = %v, want nil", got)
	}
	if rec.Len() != 0 {
		t.Errorf("Len() = %d after baseline, want 0", rec.Len())
	}
}

func TestRecorderTransitions(t *testing.T) {
	rec := NewRecorder(map[int]string{1: "Stop_Button"})
	now := time.Now()

	rec.Observe(now, []bool{false, false, true})

	fresh := rec.Observe(now.Add(time.Second), []bool{false, true, true})
	if len(fresh) != 1 {
		t.Fatalf("got %d transitions, want 1", len(fresh))
	}
	tr := fresh[0]
	if tr.Coil != 1 || tr.Name != "Stop_Button" || tr.From || !tr.To {
		t.Errorf("transition = %+v", tr)
	}

	fresh = rec.Observe(now.Add(2*time.Second), []bool{true, false, true})
	if len(fresh) != 2 {
		t.Fatalf("got %d transitions, want 2", len(fresh))
	}
	if rec.Len() != 3 {
		t.Errorf("Len() = %d, want 3", rec.Len())
	}
}

func TestWriteCSV(t *testing.T) {
	rec := NewRecorder(map[int]string{0: "Start_Button"})
	now := time.Now()
	rec.Observe(now, []bool{false})
	rec.Observe(now.Add(50*time.Millisecond), []bool{true})
	rec.Observe(now.Add(120*time.Millisecond), []bool{false})

	var buf bytes.Buffer
	if err := rec.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV() error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d CSV lines, want header + 2 rows:\n%s", len(lines), buf.String())
	}
	if lines[0] != "timestamp,elapsed_sec,coil,name,old_value,new_value" {
		t.Errorf("header = %q", lines[0])
	}

	first := strings.Split(lines[1], ",")
	if first[2] != "0" || first[3] != "Start_Button" || first[4] != "0" || first[5] != "1" {
		t.Errorf("first row = %q", lines[1])
	}
	second := strings.Split(lines[2], ",")
	if second[4] != "1" || second[5] != "0" {
		t.Errorf("second row = %q", lines[2])
	}
}
