// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2025 Pierre Jay

package bridge

import "encoding/json"

// CoilState is one mapped coil in a state snapshot.
type CoilState struct {
	Coil  int    `json:"coil"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"`
	GPIO  int    `json:"gpio,omitempty"`
	Value bool   `json:"value"`
}

// RegisterState is one labeled holding register in a state snapshot.
type RegisterState struct {
	Address int    `json:"address"`
	Name    string `json:"name"`
	Value   uint16 `json:"value"`
	Min     int    `json:"min,omitempty"`
	Max     int    `json:"max,omitempty"`
}

// StateUpdate is the event sent to subscribers and served by the status API.
type StateUpdate struct {
	Type      string          `json:"type"` // always "state"
	Coils     []CoilState     `json:"coils"`
	Registers []RegisterState `json:"registers,omitempty"`
}

// Snapshot samples input pins and returns the current state of all mapped
// coils and labeled registers. Observer surfaces get the same freshness as
// protocol reads.
func (b *Bridge) Snapshot() StateUpdate {
	b.mu.Lock()
	b.refreshInputsLocked(0, CoilCount)
	update := b.stateLocked()
	b.mu.Unlock()
	return update
}

// stateLocked assembles a StateUpdate from stored values. Caller holds mu.
func (b *Bridge) stateLocked() StateUpdate {
	update := StateUpdate{Type: "state"}

	for _, in := range b.iomap.Inputs() {
		update.Coils = append(update.Coils, CoilState{
			Coil: in.Coil, Name: in.Name, Role: "input",
			GPIO: in.GPIO, Value: b.coils[in.Coil],
		})
	}
	for _, out := range b.iomap.Outputs() {
		update.Coils = append(update.Coils, CoilState{
			Coil: out.Coil, Name: out.Name, Role: "output",
			GPIO: out.GPIO, Value: b.coils[out.Coil],
		})
	}
	for _, reg := range b.labels {
		if reg.Address < 0 || reg.Address >= RegisterCount {
			continue
		}
		update.Registers = append(update.Registers, RegisterState{
			Address: reg.Address, Name: reg.Name,
			Value: b.regs[reg.Address], Min: reg.Min, Max: reg.Max,
		})
	}
	return update
}

// Subscribe returns a channel that receives pre-marshaled JSON state updates.
func (b *Bridge) Subscribe() chan []byte {
	ch := make(chan []byte, 100)
	b.subsMu.Lock()
	b.subs[ch] = struct{}{}
	b.subsMu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber.
func (b *Bridge) Unsubscribe(ch chan []byte) {
	b.subsMu.Lock()
	delete(b.subs, ch)
	close(ch)
	b.subsMu.Unlock()
}

// broadcastState sends current state to all subscribers.
// Marshals under the store lock so updates are never torn.
func (b *Bridge) broadcastState() {
	b.subsMu.RLock()
	empty := len(b.subs) == 0
	b.subsMu.RUnlock()
	if empty {
		return
	}

	b.mu.Lock()
	data, _ := json.Marshal(b.stateLocked())
	b.mu.Unlock()

	b.subsMu.RLock()
	defer b.subsMu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- data:
		default:
			// Channel full, skip
		}
	}
}
