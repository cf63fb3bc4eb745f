// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2025 Pierre Jay

package config

import "sort"

// Built-in mappings for the Factory I/O training scenes. A scene is a named
// preset selectable with --scene instead of a config file; every preset goes
// through the same address-map build path as file-based configuration.

func falseP() *bool { b := false; return &b }

// Default returns the built-in fallback mapping.
// This is the layout the bridge serves when no configuration is supplied or
// the supplied one is rejected.
func Default() *Config {
	cfg := &Config{
		Name:        "Factory I/O Default",
		Description: "Basic simulation with buttons and LEDs",
		Inputs: []PinMapping{
			{Coil: 0, GPIO: 17, Name: "Start_Button"},
			{Coil: 1, GPIO: 27, Name: "Stop_Button"},
			{Coil: 2, GPIO: 22, Name: "E_Stop_NC", ActiveHigh: falseP()},
		},
		Outputs: []PinMapping{
			{Coil: 10, GPIO: 5, Name: "LED_Green"},
			{Coil: 11, GPIO: 6, Name: "LED_Red"},
			{Coil: 12, GPIO: 13, Name: "Relay1"},
			{Coil: 13, GPIO: 19, Name: "Relay2"},
		},
		Registers: []RegisterLabel{
			{Address: 0, Name: "Motor_Speed", Min: 0, Max: 100},
			{Address: 1, Name: "Setpoint", Min: 0, Max: 1000},
		},
	}
	cfg.applyDefaults()
	return cfg
}

var scenes = map[string]*Config{
	"sorting_basic": {
		Name:        "Sorting Station Basic",
		Description: "Basic sorting conveyor with vision sensor",
		Inputs: []PinMapping{
			{Coil: 0, GPIO: 17, Name: "At_Entry"},
			{Coil: 1, GPIO: 27, Name: "At_Exit"},
			{Coil: 2, GPIO: 22, Name: "Vision_Blue"},
			{Coil: 3, GPIO: 23, Name: "Vision_Green"},
			{Coil: 4, GPIO: 24, Name: "Vision_Metal"},
		},
		Outputs: []PinMapping{
			{Coil: 10, GPIO: 5, Name: "Entry_Conveyor"},
			{Coil: 11, GPIO: 6, Name: "Exit_Conveyor"},
			{Coil: 12, GPIO: 13, Name: "Pusher_1"},
			{Coil: 13, GPIO: 19, Name: "Pusher_2"},
			{Coil: 14, GPIO: 26, Name: "Pusher_3"},
		},
	},
	"pick_and_place": {
		Name:        "Pick and Place Basic",
		Description: "XZ pick and place with gripper",
		Inputs: []PinMapping{
			{Coil: 0, GPIO: 17, Name: "Part_Present"},
			{Coil: 1, GPIO: 27, Name: "X_Home"},
			{Coil: 2, GPIO: 22, Name: "X_End"},
			{Coil: 3, GPIO: 23, Name: "Z_Home"},
			{Coil: 4, GPIO: 24, Name: "Z_End"},
			{Coil: 5, GPIO: 25, Name: "Gripper_Closed"},
		},
		Outputs: []PinMapping{
			{Coil: 10, GPIO: 5, Name: "X_Move_Plus"},
			{Coil: 11, GPIO: 6, Name: "X_Move_Minus"},
			{Coil: 12, GPIO: 13, Name: "Z_Move_Plus"},
			{Coil: 13, GPIO: 19, Name: "Z_Move_Minus"},
			{Coil: 14, GPIO: 26, Name: "Gripper_Close"},
			{Coil: 15, GPIO: 16, Name: "Conveyor"},
		},
	},
	"assembler": {
		Name:        "Assembler Basic",
		Description: "Assembly station with feeders and clamp",
		Inputs: []PinMapping{
			{Coil: 0, GPIO: 17, Name: "Part_In_Position"},
			{Coil: 1, GPIO: 27, Name: "Base_Sensor"},
			{Coil: 2, GPIO: 22, Name: "Lid_Sensor"},
			{Coil: 3, GPIO: 23, Name: "Clamp_Open"},
			{Coil: 4, GPIO: 24, Name: "Clamp_Closed"},
		},
		Outputs: []PinMapping{
			{Coil: 10, GPIO: 5, Name: "Conveyor"},
			{Coil: 11, GPIO: 6, Name: "Base_Feeder"},
			{Coil: 12, GPIO: 13, Name: "Lid_Feeder"},
			{Coil: 13, GPIO: 19, Name: "Clamp_Close"},
			{Coil: 14, GPIO: 26, Name: "Clamp_Open"},
		},
	},
	"level_control": {
		Name:        "Level Control",
		Description: "Tank level control with pump and valve",
		Inputs: []PinMapping{
			{Coil: 0, GPIO: 17, Name: "Level_High"},
			{Coil: 1, GPIO: 27, Name: "Level_Low"},
			{Coil: 2, GPIO: 22, Name: "Flow_Sensor"},
		},
		Outputs: []PinMapping{
			{Coil: 10, GPIO: 5, Name: "Pump_Start"},
			{Coil: 11, GPIO: 6, Name: "Inlet_Valve"},
			{Coil: 12, GPIO: 13, Name: "Outlet_Valve"},
		},
		Registers: []RegisterLabel{
			{Address: 0, Name: "Level_Setpoint", Min: 0, Max: 100},
			{Address: 1, Name: "Current_Level", Min: 0, Max: 100},
			{Address: 2, Name: "Flow_Rate", Min: 0, Max: 1000},
		},
	},
	"micro820_mirror": {
		Name:        "Micro 820 Mirror",
		Description: "Mirror the Micro 820 I/O layout",
		Inputs: []PinMapping{
			{Coil: 7, GPIO: 17, Name: "DI_00_3pos_Center"},
			{Coil: 8, GPIO: 27, Name: "DI_01_Estop_NO"},
			{Coil: 9, GPIO: 22, Name: "DI_02_Estop_NC"},
			{Coil: 10, GPIO: 23, Name: "DI_03_3pos_Right"},
			{Coil: 11, GPIO: 24, Name: "DI_04_Pushbutton"},
		},
		Outputs: []PinMapping{
			{Coil: 15, GPIO: 5, Name: "DO_00_LED_Power"},
			{Coil: 16, GPIO: 6, Name: "DO_01_LED_Fault"},
			{Coil: 17, GPIO: 13, Name: "DO_03_LED_Aux"},
		},
	},
}

// Scene returns the named preset, or false if it does not exist.
func Scene(name string) (*Config, bool) {
	cfg, ok := scenes[name]
	if !ok {
		return nil, false
	}
	// Copy so callers cannot mutate the preset.
	out := *cfg
	out.Inputs = append([]PinMapping(nil), cfg.Inputs...)
	out.Outputs = append([]PinMapping(nil), cfg.Outputs...)
	out.Registers = append([]RegisterLabel(nil), cfg.Registers...)
	out.applyDefaults()
	return &out, true
}

// SceneNames returns the available preset names, sorted.
func SceneNames() []string {
	names := make([]string, 0, len(scenes))
	for name := range scenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
