// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2025 Pierre Jay

package api

import (
	"encoding/json"
	"time"

	"plc-edge/internal/bridge"
	"plc-edge/internal/config"
	"plc-edge/internal/iomap"
)

// Request is the unified JSON request format for the observer surfaces
// (HTTP POST /api and the MQTT command topic). All commands are read-only:
// mutation happens exclusively on the Modbus surface.
type Request struct {
	Cmd string `json:"cmd"` // status, state, bindings, scenes
}

// Response is the unified JSON response format
type Response struct {
	Type  string      `json:"type"` // status, state, bindings, scenes, error
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// Info describes the running bridge for status responses.
type Info struct {
	Mapping  string `json:"mapping"`
	Hardware bool   `json:"hardware"`
	Addr     string `json:"addr"`
}

// StatusData is the status command payload.
type StatusData struct {
	Info
	UptimeSec int `json:"uptime_sec"`
	Inputs    int `json:"inputs"`
	Outputs   int `json:"outputs"`
	Coils     int `json:"coils"`
	Registers int `json:"registers"`
}

// BindingsData lists the configured pin bindings.
type BindingsData struct {
	Inputs  []iomap.Binding `json:"inputs"`
	Outputs []iomap.Binding `json:"outputs"`
}

// Handler processes unified API requests
type Handler struct {
	bridge  *bridge.Bridge
	info    Info
	started time.Time
}

// NewHandler creates a new API handler
func NewHandler(b *bridge.Bridge, info Info) *Handler {
	return &Handler{bridge: b, info: info, started: time.Now()}
}

// Handle processes a request and returns a response
func (h *Handler) Handle(req *Request) *Response {
	switch req.Cmd {
	case "status":
		return h.handleStatus()
	case "state":
		return &Response{Type: "state", Data: h.bridge.Snapshot()}
	case "bindings":
		m := h.bridge.Map()
		return &Response{Type: "bindings", Data: BindingsData{
			Inputs:  m.Inputs(),
			Outputs: m.Outputs(),
		}}
	case "scenes":
		return &Response{Type: "scenes", Data: config.SceneNames()}
	default:
		return &Response{Type: "error", Error: "unknown command: " + req.Cmd}
	}
}

func (h *Handler) handleStatus() *Response {
	m := h.bridge.Map()
	return &Response{Type: "status", Data: StatusData{
		Info:      h.info,
		UptimeSec: int(time.Since(h.started).Seconds()),
		Inputs:    len(m.Inputs()),
		Outputs:   len(m.Outputs()),
		Coils:     bridge.CoilCount,
		Registers: bridge.RegisterCount,
	}}
}

// HandleJSON parses JSON and returns JSON response
func (h *Handler) HandleJSON(data []byte) []byte {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		resp := &Response{Type: "error", Error: "invalid JSON: " + err.Error()}
		out, _ := json.Marshal(resp)
		return out
	}
	resp := h.Handle(&req)
	out, _ := json.Marshal(resp)
	return out
}
