// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2025 Pierre Jay

package gpio

import (
	"fmt"

	gpiod "github.com/warthog618/go-gpiocdev"
)

// ChipPins drives real GPIO lines through the Linux character device.
// Lines are requested once at startup with a fixed direction and never
// reconfigured for the life of the process.
type ChipPins struct {
	chip  *gpiod.Chip
	lines map[int]*gpiod.Line
}

// NewChipPins opens the chip and requests all configured lines. Inputs get
// an internal pull-down so a floating line reads low; outputs start low.
func NewChipPins(chipName string, inputs, outputs []int) (*ChipPins, error) {
	chip, err := gpiod.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", chipName, err)
	}

	p := &ChipPins{
		chip:  chip,
		lines: make(map[int]*gpiod.Line, len(inputs)+len(outputs)),
	}

	for _, pin := range inputs {
		line, err := chip.RequestLine(pin, gpiod.AsInput, gpiod.WithPullDown)
		if err != nil {
			p.ReleaseAll()
			return nil, fmt.Errorf("request input line %d: %w", pin, err)
		}
		p.lines[pin] = line
	}

	for _, pin := range outputs {
		line, err := chip.RequestLine(pin, gpiod.AsOutput(0))
		if err != nil {
			p.ReleaseAll()
			return nil, fmt.Errorf("request output line %d: %w", pin, err)
		}
		p.lines[pin] = line
	}

	return p, nil
}

func (p *ChipPins) ReadPin(pin int) (bool, error) {
	line, ok := p.lines[pin]
	if !ok {
		return false, fmt.Errorf("gpio %d not requested", pin)
	}
	v, err := line.Value()
	if err != nil {
		return false, fmt.Errorf("read gpio %d: %w", pin, err)
	}
	return v != 0, nil
}

func (p *ChipPins) WritePin(pin int, high bool) error {
	line, ok := p.lines[pin]
	if !ok {
		return fmt.Errorf("gpio %d not requested", pin)
	}
	v := 0
	if high {
		v = 1
	}
	if err := line.SetValue(v); err != nil {
		return fmt.Errorf("write gpio %d: %w", pin, err)
	}
	return nil
}

// ReleaseAll closes every requested line and the chip handle.
func (p *ChipPins) ReleaseAll() error {
	var firstErr error
	for pin, line := range p.lines {
		if err := line.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("release gpio %d: %w", pin, err)
		}
	}
	p.lines = nil
	if err := p.chip.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
