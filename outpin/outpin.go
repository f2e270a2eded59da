// https://github.com/usbarmory/usb-trigger-analyzer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package outpin implements the analyzer's trigger_out line as a
// periph.io gpio.PinOut, so the same interface that drives a physical
// front-panel pin on real hardware also works against a software-only
// simulation target.
package outpin

import (
	"errors"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Pin is a software-backed gpio.PinOut. It has no physical backing; Out
// simply records the requested level, and Read reports it back.
type Pin struct {
	name string

	mu    sync.Mutex
	level gpio.Level
}

var _ gpio.PinOut = (*Pin)(nil)

// New returns a Pin reporting String() == name, initially low.
func New(name string) *Pin {
	return &Pin{name: name}
}

func (p *Pin) String() string {
	return p.name
}

// Name implements gpio.Pin.
func (p *Pin) Name() string {
	return p.name
}

func (p *Pin) Halt() error {
	return nil
}

// Number has no meaning for a software pin.
func (p *Pin) Number() int {
	return -1
}

func (p *Pin) Function() string {
	if p.Read() {
		return "OUT/high"
	}
	return "OUT/low"
}

// Out sets the pin's current level. The analyzer core calls this once per
// firing when output_enable is set.
func (p *Pin) Out(l gpio.Level) error {
	p.mu.Lock()
	p.level = l
	p.mu.Unlock()
	return nil
}

// Read returns the pin's current level.
func (p *Pin) Read() gpio.Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

var errPWMUnsupported = errors.New("outpin: PWM not supported, trigger_out is a single toggled line")

// PWM is unsupported; trigger_out is a single toggled line, never a duty
// cycle.
func (p *Pin) PWM(duty gpio.Duty, freq physic.Frequency) error {
	return errPWMUnsupported
}
