// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2025 Pierre Jay

package web

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"plc-edge/internal/api"
	"plc-edge/internal/bridge"
	"plc-edge/internal/config"
	"plc-edge/internal/gpio"
	"plc-edge/internal/iomap"
)

func testWebServer(t *testing.T) (*Server, *bridge.Bridge) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m, err := iomap.Build(config.Default(), bridge.CoilCount)
	if err != nil {
		t.Fatalf("build mapping: %v", err)
	}
	b := bridge.New(m, config.Default().Registers, gpio.NewSimPins(), logger)
	h := api.NewHandler(b, api.Info{Mapping: "test", Addr: "127.0.0.1:5020"})
	return NewServer(":0", b, h, logger), b
}

func TestHandleState(t *testing.T) {
	s, b := testWebServer(t)
	if err := b.WriteCoils(10, []bool{true}); err != nil {
		t.Fatalf("WriteCoils() error: %v", err)
	}

	rec := httptest.NewRecorder()
	s.handleState(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var st bridge.StateUpdate
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	found := false
	for _, c := range st.Coils {
		if c.Name == "LED_Green" && c.Value {
			found = true
		}
	}
	if !found {
		t.Error("state response missing the written coil")
	}
}

func TestHandleStateRejectsPost(t *testing.T) {
	s, _ := testWebServer(t)

	rec := httptest.NewRecorder()
	s.handleState(rec, httptest.NewRequest(http.MethodPost, "/api/state", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleAPI(t *testing.T) {
	s, _ := testWebServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api", strings.NewReader(`{"cmd":"status"}`))
	rec := httptest.NewRecorder()
	s.handleAPI(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if resp.Type != "status" {
		t.Errorf("type = %q, want status", resp.Type)
	}

	rec = httptest.NewRecorder()
	s.handleAPI(rec, httptest.NewRequest(http.MethodGet, "/api", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	s, _ := testWebServer(t)

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var health HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if health.Goroutines <= 0 || health.GoVersion == "" {
		t.Errorf("health = %+v", health)
	}
}
