// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2025 Pierre Jay

// plcmon is a real-time I/O panel for the edge bridge (or any Modbus TCP
// device): it polls the coil range at a fixed interval and renders the state
// like the LED panel on a PLC front.
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

const (
	colorReset = "\033[0m"
	colorBold  = "\033[1m"
	colorDim   = "\033[2m"
	colorCyan  = "\033[96m"
	bgGreen    = "\033[42m"
)

func indicator(on bool) string {
	if on {
		return bgGreen + colorBold + " ON  " + colorReset
	}
	return colorDim + " off " + colorReset
}

func clearScreen() {
	fmt.Print("\033[2J\033[H")
}

func main() {
	var (
		host     = flag.String("host", "127.0.0.1", "Bridge host")
		port     = flag.Int("port", 502, "Bridge Modbus TCP port")
		interval = flag.Duration("interval", 50*time.Millisecond, "Poll interval")
		coils    = flag.Int("coils", 18, "Number of coils to read from address 0")
		scene    = flag.String("scene", "", "Scene preset used to label coils")
		cfgPath  = flag.String("config", "", "Config file used to label coils")
	)
	flag.Parse()

	m := resolveLabels(*scene, *cfgPath)

	addr := net.JoinHostPort(*host, strconv.Itoa(*port))
	fmt.Printf("Connecting to %s...\n", addr)

	client, err := monitor.Dial(addr, 3*time.Second)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to connect:", err)
		os.Exit(1)
	}
	defer client.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	cycle := 0
	for {
		select {
		case <-sigChan:
			fmt.Println("\n\nMonitor stopped.")
			return
		case <-ticker.C:
			start := time.Now()
			bits, err := client.ReadCoils(0, uint16(*coils))
			took := time.Since(start)
			cycle++
			if err != nil {
				clearScreen()
				fmt.Printf("read error: %v\n", err)
				continue
			}
			drawPanel(addr, m, bits, took, cycle)
		}
	}
}

// resolveLabels builds the address map used only to label the display.
// Built at full store capacity: the polled coil count is independent of the
// mapping, and bindings above the polled range are simply not shown.
func resolveLabels(scene, cfgPath string) *iomap.Map {
	var cfg *config.Config
	if scene != "" {
		cfg, _ = config.Scene(scene)
	} else if cfgPath != "" {
		cfg, _ = config.Load(cfgPath)
	}
	m, _ := iomap.Resolve(cfg, bridge.CoilCount, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return m
}

func drawPanel(addr string, m *iomap.Map, bits []bool, took time.Duration, cycle int) {
	clearScreen()

	now := time.Now().Format("15:04:05.000")
	line := colorBold + colorCyan + "========================================================================" + colorReset

	fmt.Println(line)
	fmt.Printf("  %sPLC EDGE BRIDGE - REAL-TIME I/O MONITOR%s\n", colorBold, colorReset)
	fmt.Printf("  %s%s%s    %s    Cycle: %d  (%.1fms)\n", colorDim, addr, colorReset, now, cycle, float64(took.Microseconds())/1000)
	fmt.Println(line)

	fmt.Printf("  %sPHYSICAL INPUTS%s\n", colorBold, colorReset)
	for _, in := range m.Inputs() {
		if in.Coil < len(bits) {
			fmt.Printf("    coil %2d  %-20s %s\n", in.Coil, in.Name, indicator(bits[in.Coil]))
		}
	}

	fmt.Printf("  %sPHYSICAL OUTPUTS%s\n", colorBold, colorReset)
	for _, out := range m.Outputs() {
		if out.Coil < len(bits) {
			fmt.Printf("    coil %2d  %-20s %s\n", out.Coil, out.Name, indicator(bits[out.Coil]))
		}
	}

	fmt.Printf("  %sPROGRAM VARIABLES%s\n", colorBold, colorReset)
	row := "   "
	for coil, v := range bits {
		if m.Role(coil) != iomap.RoleVariable {
			continue
		}
		row += fmt.Sprintf(" %2d:%s", coil, indicator(v))
	}
	fmt.Println(row)

	// Active summary
	var active []string
	for coil, v := range bits {
		if !v {
			continue
		}
		name := m.Name(coil)
		if name == "" {
			name = strconv.Itoa(coil)
		}
		active = append(active, name)
	}
	fmt.Println(line)
	if len(active) == 0 {
		fmt.Printf("  %sACTIVE:%s none\n", colorBold, colorReset)
	} else {
		fmt.Printf("  %sACTIVE:%s", colorBold, colorReset)
		for _, name := range active {
			fmt.Printf(" %s", name)
		}
		fmt.Println()
	}
	fmt.Println(line)
	fmt.Printf("\n  %sPress Ctrl+C to exit%s\n", colorDim, colorReset)
}
