// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2025 Pierre Jay

package gpio

import "sync"

// SimPins is the simulation implementation of Pins. It backs the degraded
// off-target mode and doubles as the spy for tests: every write is recorded
// and input levels can be forced with SetPin.
type SimPins struct {
	mu       sync.Mutex
	levels   map[int]bool
	writes   []Write
	released bool
}

// Write records one WritePin call.
type Write struct {
	Pin  int
	High bool
}

// NewSimPins creates a simulation pin layer with all lines low.
func NewSimPins() *SimPins {
	return &SimPins{levels: make(map[int]bool)}
}

func (p *SimPins) ReadPin(pin int) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.levels[pin], nil
}

func (p *SimPins) WritePin(pin int, high bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.levels[pin] = high
	p.writes = append(p.writes, Write{Pin: pin, High: high})
	return nil
}

func (p *SimPins) ReleaseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released = true
	return nil
}

// SetPin forces the electrical level of a line, simulating an external
// signal change on an input.
func (p *SimPins) SetPin(pin int, high bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.levels[pin] = high
}

// Level returns the current electrical level of a line.
func (p *SimPins) Level(pin int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.levels[pin]
}

// Writes returns all recorded WritePin calls in order.
func (p *SimPins) Writes() []Write {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Write, len(p.writes))
	copy(out, p.writes)
	return out
}

// Released reports whether ReleaseAll has been called.
func (p *SimPins) Released() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.released
}

// Reset clears recorded writes and levels.
func (p *SimPins) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.levels = make(map[int]bool)
	p.writes = nil
	p.released = false
}
