// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2025 Pierre Jay

package server

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/tbrandon/mbserver"

	"plc-edge/internal/bridge"
	"plc-edge/internal/metrics"
)

// Modbus function codes served by the bridge.
const (
	fcReadCoils          = 1
	fcReadHoldingRegs    = 3
	fcWriteSingleCoil    = 5
	fcWriteSingleReg     = 6
	fcWriteMultipleCoils = 15
	fcWriteMultipleRegs  = 16
)

// BindError reports that the listening transport could not start. Fatal to
// process startup; everything else the server returns is a per-request
// Modbus exception.
type BindError struct {
	Addr string
	Port int
	Err  error
}

func (e *BindError) Error() string {
	msg := fmt.Sprintf("bind %s: %v", e.Addr, e.Err)
	if e.Port < 1024 {
		msg += fmt.Sprintf(" (port %d requires elevated privilege; retry with sudo or use --port 5020)", e.Port)
	} else {
		msg += " (is another Modbus server running on this port?)"
	}
	return msg
}

func (e *BindError) Unwrap() error { return e.Err }

// Server is the Modbus TCP server for the edge bridge.
// Coil mapping: defined by the configured address map; coil traffic routes
// through the GPIO sync layer. Holding registers 0-99 are plain storage.
type Server struct {
	bridge *bridge.Bridge
	logger *slog.Logger
	mb     *mbserver.Server
	addr   string
}

// NewServer creates a new Modbus TCP server over the bridge.
func NewServer(b *bridge.Bridge, logger *slog.Logger) *Server {
	return &Server{bridge: b, logger: logger}
}

// Start binds the listening socket and begins accepting connections.
// mbserver funnels every framed request into a single handler goroutine, so
// requests on one connection are served in receipt order and a stalled
// client never blocks the accept loop.
func (s *Server) Start(host string, port int) error {
	s.mb = mbserver.NewServer()

	s.mb.RegisterFunctionHandler(fcReadCoils, s.handleReadCoils)
	s.mb.RegisterFunctionHandler(fcWriteSingleCoil, s.handleWriteSingleCoil)
	s.mb.RegisterFunctionHandler(fcWriteMultipleCoils, s.handleWriteMultipleCoils)
	s.mb.RegisterFunctionHandler(fcReadHoldingRegs, s.handleReadHoldingRegisters)
	s.mb.RegisterFunctionHandler(fcWriteSingleReg, s.handleWriteSingleRegister)
	s.mb.RegisterFunctionHandler(fcWriteMultipleRegs, s.handleWriteMultipleRegisters)

	s.addr = net.JoinHostPort(host, strconv.Itoa(port))
	if err := s.mb.ListenTCP(s.addr); err != nil {
		return &BindError{Addr: s.addr, Port: port, Err: err}
	}

	s.logger.Info("Modbus TCP server listening", "addr", s.addr)
	return nil
}

// Stop closes the listening socket.
func (s *Server) Stop() {
	if s.mb != nil {
		s.mb.Close()
		s.logger.Info("Modbus TCP server stopped")
	}
}

// exception maps a bridge error to a Modbus exception response and counts
// the request.
func (s *Server) exception(function uint8, err error) ([]byte, *mbserver.Exception) {
	if errors.Is(err, bridge.ErrIllegalAddress) {
		metrics.CountRequest(function, "illegal_address")
		return []byte{}, &mbserver.IllegalDataAddress
	}
	metrics.CountRequest(function, "failure")
	return []byte{}, &mbserver.SlaveDeviceFailure
}

// FC01: Read Coils
func (s *Server) handleReadCoils(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	data := frame.GetData()
	if len(data) < 4 {
		metrics.CountRequest(fcReadCoils, "malformed")
		return []byte{}, &mbserver.IllegalDataValue
	}

	startAddr := binary.BigEndian.Uint16(data[0:2])
	quantity := binary.BigEndian.Uint16(data[2:4])
	if quantity == 0 || quantity > 2000 {
		metrics.CountRequest(fcReadCoils, "malformed")
		return []byte{}, &mbserver.IllegalDataValue
	}

	values, err := s.bridge.ReadCoils(int(startAddr), int(quantity))
	if err != nil {
		return s.exception(fcReadCoils, err)
	}

	resp := make([]byte, 1+(len(values)+7)/8)
	resp[0] = byte((len(values) + 7) / 8)
	for i, v := range values {
		if v {
			resp[1+i/8] |= 1 << (i % 8)
		}
	}

	metrics.CountRequest(fcReadCoils, "ok")
	return resp, &mbserver.Success
}

// FC05: Write Single Coil
func (s *Server) handleWriteSingleCoil(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	data := frame.GetData()
	if len(data) < 4 {
		metrics.CountRequest(fcWriteSingleCoil, "malformed")
		return []byte{}, &mbserver.IllegalDataValue
	}

	addr := binary.BigEndian.Uint16(data[0:2])
	value := binary.BigEndian.Uint16(data[2:4])
	if value != 0x0000 && value != 0xFF00 {
		metrics.CountRequest(fcWriteSingleCoil, "malformed")
		return []byte{}, &mbserver.IllegalDataValue
	}

	if err := s.bridge.WriteCoils(int(addr), []bool{value == 0xFF00}); err != nil {
		return s.exception(fcWriteSingleCoil, err)
	}

	s.logger.Debug("Coil written", "coil", addr, "value", value == 0xFF00)
	metrics.CountRequest(fcWriteSingleCoil, "ok")

	// Echo request as response
	return data[:4], &mbserver.Success
}

// FC15: Write Multiple Coils
func (s *Server) handleWriteMultipleCoils(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	data := frame.GetData()
	if len(data) < 5 {
		metrics.CountRequest(fcWriteMultipleCoils, "malformed")
		return []byte{}, &mbserver.IllegalDataValue
	}

	startAddr := binary.BigEndian.Uint16(data[0:2])
	quantity := binary.BigEndian.Uint16(data[2:4])
	byteCount := int(data[4])

	if quantity == 0 || quantity > 1968 || byteCount != int(quantity+7)/8 || len(data) < 5+byteCount {
		metrics.CountRequest(fcWriteMultipleCoils, "malformed")
		return []byte{}, &mbserver.IllegalDataValue
	}

	values := make([]bool, quantity)
	for i := range values {
		values[i] = data[5+i/8]&(1<<(i%8)) != 0
	}

	if err := s.bridge.WriteCoils(int(startAddr), values); err != nil {
		return s.exception(fcWriteMultipleCoils, err)
	}

	s.logger.Debug("Coils written", "start", startAddr, "count", quantity)
	metrics.CountRequest(fcWriteMultipleCoils, "ok")

	resp := make([]byte, 4)
	binary.BigEndian.PutUint16(resp[0:2], startAddr)
	binary.BigEndian.PutUint16(resp[2:4], quantity)
	return resp, &mbserver.Success
}

// FC03: Read Holding Registers
func (s *Server) handleReadHoldingRegisters(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	data := frame.GetData()
	if len(data) < 4 {
		metrics.CountRequest(fcReadHoldingRegs, "malformed")
		return []byte{}, &mbserver.IllegalDataValue
	}

	startAddr := binary.BigEndian.Uint16(data[0:2])
	quantity := binary.BigEndian.Uint16(data[2:4])
	if quantity == 0 || quantity > 125 {
		metrics.CountRequest(fcReadHoldingRegs, "malformed")
		return []byte{}, &mbserver.IllegalDataValue
	}

	values, err := s.bridge.ReadRegisters(int(startAddr), int(quantity))
	if err != nil {
		return s.exception(fcReadHoldingRegs, err)
	}

	resp := make([]byte, 1+len(values)*2)
	resp[0] = byte(len(values) * 2)
	for i, v := range values {
		binary.BigEndian.PutUint16(resp[1+i*2:], v)
	}

	metrics.CountRequest(fcReadHoldingRegs, "ok")
	return resp, &mbserver.Success
}

// FC06: Write Single Register
func (s *Server) handleWriteSingleRegister(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	data := frame.GetData()
	if len(data) < 4 {
		metrics.CountRequest(fcWriteSingleReg, "malformed")
		return []byte{}, &mbserver.IllegalDataValue
	}

	addr := binary.BigEndian.Uint16(data[0:2])
	value := binary.BigEndian.Uint16(data[2:4])

	if err := s.bridge.WriteRegisters(int(addr), []uint16{value}); err != nil {
		return s.exception(fcWriteSingleReg, err)
	}

	s.logger.Debug("Register written", "address", addr, "value", value)
	metrics.CountRequest(fcWriteSingleReg, "ok")

	// Echo request as response
	return data[:4], &mbserver.Success
}

// FC16: Write Multiple Registers
func (s *Server) handleWriteMultipleRegisters(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	data := frame.GetData()
	if len(data) < 5 {
		metrics.CountRequest(fcWriteMultipleRegs, "malformed")
		return []byte{}, &mbserver.IllegalDataValue
	}

	startAddr := binary.BigEndian.Uint16(data[0:2])
	quantity := binary.BigEndian.Uint16(data[2:4])
	byteCount := int(data[4])

	if quantity == 0 || quantity > 123 || byteCount != int(quantity)*2 || len(data) < 5+byteCount {
		metrics.CountRequest(fcWriteMultipleRegs, "malformed")
		return []byte{}, &mbserver.IllegalDataValue
	}

	values := make([]uint16, quantity)
	for i := range values {
		values[i] = binary.BigEndian.Uint16(data[5+i*2:])
	}

	if err := s.bridge.WriteRegisters(int(startAddr), values); err != nil {
		return s.exception(fcWriteMultipleRegs, err)
	}

	s.logger.Debug("Registers written", "start", startAddr, "count", quantity)
	metrics.CountRequest(fcWriteMultipleRegs, "ok")

	resp := make([]byte, 4)
	binary.BigEndian.PutUint16(resp[0:2], startAddr)
	binary.BigEndian.PutUint16(resp[2:4], quantity)
	return resp, &mbserver.Success
}
