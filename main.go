// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2025 Pierre Jay

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"plc-edge/internal/api"
	"plc-edge/internal/bridge"
	"plc-edge/internal/config"
	"plc-edge/internal/gpio"
	"plc-edge/internal/iomap"
	"plc-edge/internal/metrics"
	"plc-edge/internal/mqtt"
	"plc-edge/internal/server"
	"plc-edge/internal/web"
)

func main() {
	var (
		host       = flag.String("host", "", "Bind address (overrides config)")
		port       = flag.Int("port", 0, "Modbus TCP port (overrides config; 502 needs elevated privilege, use 5020 for testing)")
		configPath = flag.String("config", "config.json", "Path to configuration file")
		scene      = flag.String("scene", "", "Built-in scene preset instead of a config file ("+strings.Join(config.SceneNames(), ", ")+")")
		chip       = flag.String("chip", "", "GPIO chip device (overrides config)")
		httpAddr   = flag.String("http", "", "Status server address (overrides config, \"off\" to disable)")
		logLevel   = flag.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
		dryRun     = flag.Bool("dry-run", false, "Resolve the coil mapping, print it and exit")
	)
	flag.Parse()

	// Setup slog
	opts := &slog.HandlerOptions{Level: parseLogLevel(*logLevel)}
	logger := slog.New(slog.NewTextHandler(os.Stdout, opts))
	slog.SetDefault(logger)

	logger.Info("PLC edge bridge starting", "version", "1.0.0")

	// Resolve configuration: scene preset, config file, or built-in default.
	// A rejected configuration never prevents startup.
	var cfg *config.Config
	if *scene != "" {
		var ok bool
		if cfg, ok = config.Scene(*scene); !ok {
			logger.Error("Unknown scene, using built-in default mapping",
				"scene", *scene, "available", strings.Join(config.SceneNames(), ", "))
		}
	} else {
		var err error
		cfg, err = config.Load(*configPath)
		switch {
		case err == nil:
		case errors.Is(err, config.ErrNotFound):
			logger.Warn("Config file not found, using built-in default mapping", "path", *configPath)
		default:
			logger.Error("Failed to load configuration, using built-in default mapping",
				"path", *configPath, "error", err)
		}
	}

	m, cfg := iomap.Resolve(cfg, bridge.CoilCount, logger)

	// Flags override config.
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *chip != "" {
		cfg.Server.Chip = *chip
	}
	if *httpAddr != "" {
		cfg.Server.HTTP = *httpAddr
	}

	logger.Info("Coil mapping resolved",
		"name", cfg.Name,
		"inputs", len(m.Inputs()),
		"outputs", len(m.Outputs()))
	for _, in := range m.Inputs() {
		logger.Info("Input", "coil", in.Coil, "gpio", in.GPIO, "name", in.Name, "active_high", in.ActiveHigh)
	}
	for _, out := range m.Outputs() {
		logger.Info("Output", "coil", out.Coil, "gpio", out.GPIO, "name", out.Name, "active_high", out.ActiveHigh)
	}

	if *dryRun {
		logger.Info("Dry run mode - mapping is valid")
		os.Exit(0)
	}

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	// Hardware layer: real chip if available, simulation otherwise.
	pins := gpio.Detect(cfg.Server.Chip, cfg.InputPins(), cfg.OutputPins(), logger)
	_, simulated := pins.(*gpio.SimPins)
	metrics.SetHardwareMode(!simulated)

	b := bridge.New(m, cfg.Registers, pins, logger)

	modbusAddr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	apiHandler := api.NewHandler(b, api.Info{
		Mapping:  cfg.Name,
		Hardware: !simulated,
		Addr:     modbusAddr,
	})

	// Status server (read-only HTTP/WebSocket/metrics surface)
	var statusServer *web.Server
	if cfg.Server.HTTP != "off" {
		statusServer = web.NewServer(cfg.Server.HTTP, b, apiHandler, logger)
		if err := statusServer.Start(); err != nil {
			logger.Error("Failed to start status server", "error", err)
			os.Exit(1)
		}
	}

	// Modbus TCP server: bind failure is the one fatal startup error.
	modbusServer := server.NewServer(b, logger)
	if err := modbusServer.Start(cfg.Server.Host, cfg.Server.Port); err != nil {
		logger.Error("Failed to start Modbus server", "error", err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	// MQTT publisher if configured
	var mqttClient *mqtt.Client
	if cfg.MQTT != nil {
		mqttClient = mqtt.NewClient(cfg.MQTT, b, apiHandler, logger)
		if err := mqttClient.Start(); err != nil {
			logger.Error("Failed to start MQTT client", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("PLC edge bridge ready",
		"modbus", modbusAddr,
		"http", cfg.Server.HTTP,
		"gpio", map[bool]string{true: "simulation", false: "hardware"}[simulated],
		"mqtt", cfg.MQTT != nil)

	// Wait for shutdown
	<-ctx.Done()

	// Graceful shutdown
	logger.Info("Initiating graceful shutdown...")

	if mqttClient != nil {
		mqttClient.Stop()
	}

	modbusServer.Stop()

	if statusServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := statusServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Status server shutdown error", "error", err)
		}
	}

	// Deassert outputs and release pins last.
	if err := b.Close(); err != nil {
		logger.Warn("GPIO release failed", "error", err)
	}

	logger.Info("PLC edge bridge stopped")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
