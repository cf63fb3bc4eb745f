// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2025 Pierre Jay

// Package monitor is the client side of the bridge: polling a Modbus TCP
// endpoint, diffing coil samples and recording transitions. Used by the
// plcmon and plclog tools.
package monitor

import (
	"encoding/binary"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/goburrow/modbus"
)

// Client wraps a Modbus TCP connection for periodic coil polling.
type Client struct {
	handler *modbus.TCPClientHandler
	mb      modbus.Client
}

// Dial connects to a Modbus TCP endpoint.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	handler := modbus.NewTCPClientHandler(addr)
	handler.Timeout = timeout
	handler.SlaveId = 1
	if err := handler.Connect(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}
	return &Client{handler: handler, mb: modbus.NewClient(handler)}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.handler.Close()
}

// ReadCoils reads count coils starting at addr and unpacks the bit field
// (LSB first, packed Modbus coil format).
func (c *Client) ReadCoils(addr, count uint16) ([]bool, error) {
	raw, err := c.mb.ReadCoils(addr, count)
	if err != nil {
		return nil, err
	}
	return UnpackBits(raw, int(count)), nil
}

// ReadRegisters reads count holding registers starting at addr.
func (c *Client) ReadRegisters(addr, count uint16) ([]uint16, error) {
	raw, err := c.mb.ReadHoldingRegisters(addr, count)
	if err != nil {
		return nil, err
	}
	if len(raw) < int(count)*2 {
		return nil, fmt.Errorf("short register response: %d bytes for %d registers", len(raw), count)
	}
	values := make([]uint16, count)
	for i := range values {
		values[i] = binary.BigEndian.Uint16(raw[i*2:])
	}
	return values, nil
}

// UnpackBits expands a packed Modbus coil response to booleans.
func UnpackBits(raw []byte, count int) []bool {
	bits := make([]bool, count)
	for i := range bits {
		if i/8 < len(raw) {
			bits[i] = raw[i/8]&(1<<(i%8)) != 0
		}
	}
	return bits
}

// Transition is one observed coil state change.
type Transition struct {
	At      time.Time
	Elapsed time.Duration
	Coil    int
	Name    string
	From    bool
	To      bool
}

// Diff returns the coil indexes whose values differ between two samples.
// Samples of unequal length compare only the common prefix.
func Diff(prev, cur []bool) []int {
	n := len(prev)
	if len(cur) < n {
		n = len(cur)
	}
	var changed []int
	for i := 0; i < n; i++ {
		if prev[i] != cur[i] {
			changed = append(changed, i)
		}
	}
	return changed
}

// Recorder accumulates transitions between successive samples for CSV export.
type Recorder struct {
	start   time.Time
	names   map[int]string
	prev    []bool
	entries []Transition
}

// NewRecorder creates a recorder. names labels coil indexes in the output
// and may be nil.
func NewRecorder(names map[int]string) *Recorder {
	return &Recorder{start: time.Now(), names: names}
}

// Observe compares the sample against the previous one and records any
// transitions, returning the new ones. The first sample establishes the
// baseline and records nothing.
func (r *Recorder) Observe(now time.Time, sample []bool) []Transition {
	if r.prev == nil {
		r.prev = append([]bool(nil), sample...)
		return nil
	}

	var fresh []Transition
	for _, coil := range Diff(r.prev, sample) {
		fresh = append(fresh, Transition{
			At:      now,
			Elapsed: now.Sub(r.start),
			Coil:    coil,
			Name:    r.names[coil],
			From:    r.prev[coil],
			To:      sample[coil],
		})
	}
	r.prev = append(r.prev[:0], sample...)
	r.entries = append(r.entries, fresh...)
	return fresh
}

// Len returns the number of recorded transitions.
func (r *Recorder) Len() int { return len(r.entries) }

// WriteCSV writes all recorded transitions.
func (r *Recorder) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "elapsed_sec", "coil", "name", "old_value", "new_value"}); err != nil {
		return err
	}
	for _, e := range r.entries {
		record := []string{
			e.At.Format(time.RFC3339Nano),
			strconv.FormatFloat(e.Elapsed.Seconds(), 'f', 3, 64),
			strconv.Itoa(e.Coil),
			e.Name,
			boolStr(e.From),
			boolStr(e.To),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func boolStr(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
