// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2025 Pierre Jay

package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"plc-edge/internal/api"
	"plc-edge/internal/bridge"
)

var startTime = time.Now()

// Server is the read-only HTTP/WebSocket status surface. Writes stay on the
// Modbus port.
type Server struct {
	addr     string
	bridge   *bridge.Bridge
	api      *api.Handler
	logger   *slog.Logger
	server   *http.Server
	upgrader websocket.Upgrader
}

// HealthResponse for the /healthz endpoint
type HealthResponse struct {
	UptimeSec  int     `json:"uptime_sec"`
	Goroutines int     `json:"goroutines"`
	MemAllocMB float64 `json:"mem_alloc_mb"`
	GoVersion  string  `json:"go_version"`
}

// NewServer creates the status server.
func NewServer(addr string, b *bridge.Bridge, handler *api.Handler, logger *slog.Logger) *Server {
	s := &Server{
		addr:   addr,
		bridge: b,
		api:    handler,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/api", s.handleAPI)
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	s.server = &http.Server{Addr: addr, Handler: mux}
	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("Status server starting", "addr", s.addr)
	go func() {
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Error("Status server error", "error", err)
		}
	}()
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// handleAPI serves the unified read-only query endpoint (JSON POST).
func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 4096))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(s.api.HandleJSON(body))
}

// handleState returns a fresh state snapshot.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.bridge.Snapshot())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{
		UptimeSec:  int(time.Since(startTime).Seconds()),
		Goroutines: runtime.NumGoroutine(),
		MemAllocMB: float64(mem.Alloc) / 1024 / 1024,
		GoVersion:  runtime.Version(),
	})
}

// handleWebSocket streams state updates: one full snapshot on connect, then
// every subsequent change.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.logger.Debug("WebSocket client connected", "remote", r.RemoteAddr)

	updates := s.bridge.Subscribe()
	defer s.bridge.Unsubscribe(updates)

	init, _ := json.Marshal(s.bridge.Snapshot())
	if err := conn.WriteMessage(websocket.TextMessage, init); err != nil {
		return
	}

	// Drain reads so pings and closes are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case data, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Debug("WebSocket client disconnected", "remote", r.RemoteAddr)
				return
			}
		case <-done:
			return
		}
	}
}
