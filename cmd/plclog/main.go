// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2025 Pierre Jay

// plclog records coil transitions on a Modbus TCP device for a bounded
// duration and writes them to CSV, for timing analysis of control sequences.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"plc-edge/internal/bridge"
	"plc-edge/internal/config"
	"plc-edge/internal/iomap"
	"plc-edge/internal/monitor"
)

func main() {
	var (
		host     = flag.String("host", "127.0.0.1", "Bridge host")
		port     = flag.Int("port", 502, "Bridge Modbus TCP port")
		duration = flag.Duration("duration", 30*time.Second, "Recording duration")
		interval = flag.Duration("interval", 10*time.Millisecond, "Sampling interval")
		coils    = flag.Int("coils", 18, "Number of coils to read from address 0")
		output   = flag.String("output", "", "CSV output path (default plc_log_<timestamp>.csv)")
		scene    = flag.String("scene", "", "Scene preset used to label coils")
		cfgPath  = flag.String("config", "", "Config file used to label coils")
	)
	flag.Parse()

	outPath := *output
	if outPath == "" {
		outPath = fmt.Sprintf("plc_log_%s.csv", time.Now().Format("20060102_150405"))
	}

	names := resolveNames(*scene, *cfgPath)

	addr := net.JoinHostPort(*host, strconv.Itoa(*port))
	client, err := monitor.Dial(addr, 3*time.Second)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to connect:", err)
		os.Exit(1)
	}
	defer client.Close()

	fmt.Printf("Logging %d coils from %s every %v for %v\n", *coils, addr, *interval, *duration)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	rec := monitor.NewRecorder(names)

	// Initial state line before the first tick.
	initial, err := client.ReadCoils(0, uint16(*coils))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Initial read failed:", err)
		os.Exit(1)
	}
	rec.Observe(time.Now(), initial)
	fmt.Print("Initial state:")
	for coil, v := range initial {
		if v {
			fmt.Printf(" %s", label(names, coil))
		}
	}
	fmt.Println()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	deadline := time.NewTimer(*duration)
	defer deadline.Stop()

	samples := 0
	errors := 0

loop:
	for {
		select {
		case <-sigChan:
			fmt.Println("\nInterrupted.")
			break loop
		case <-deadline.C:
			break loop
		case <-ticker.C:
			bits, err := client.ReadCoils(0, uint16(*coils))
			if err != nil {
				errors++
				continue
			}
			samples++
			for _, tr := range rec.Observe(time.Now(), bits) {
				fmt.Printf("  %8.3fs  coil %2d  %-20s %s -> %s\n",
					tr.Elapsed.Seconds(), tr.Coil, tr.Name, onOff(tr.From), onOff(tr.To))
			}
		}
	}

	f, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to create output file:", err)
		os.Exit(1)
	}
	if err := rec.WriteCSV(f); err != nil {
		f.Close()
		fmt.Fprintln(os.Stderr, "Failed to write CSV:", err)
		os.Exit(1)
	}
	if err := f.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to close output file:", err)
		os.Exit(1)
	}

	fmt.Printf("\nSamples: %d  Transitions: %d  Read errors: %d\n", samples, rec.Len(), errors)
	fmt.Printf("Saved %s\n", outPath)
}

// resolveNames labels coil indexes for the log output. The map is built at
// full store capacity so a small --coils value never invalidates the mapping.
func resolveNames(scene, cfgPath string) map[int]string {
	var cfg *config.Config
	if scene != "" {
		cfg, _ = config.Scene(scene)
	} else if cfgPath != "" {
		cfg, _ = config.Load(cfgPath)
	}
	m, _ := iomap.Resolve(cfg, bridge.CoilCount, slog.New(slog.NewTextHandler(io.Discard, nil)))
	names := make(map[int]string)
	for _, b := range m.Inputs() {
		names[b.Coil] = b.Name
	}
	for _, b := range m.Outputs() {
		names[b.Coil] = b.Name
	}
	return names
}

func label(names map[int]string, coil int) string {
	if name, ok := names[coil]; ok {
		return name
	}
	return strconv.Itoa(coil)
}

func onOff(v bool) string {
	if v {
		return "ON"
	}
	return "off"
}
