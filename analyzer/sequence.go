// https://github.com/usbarmory/usb-trigger-analyzer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package analyzer

import (
	"periph.io/x/conn/v3/gpio"

	"github.com/usbarmory/usb-trigger-analyzer/internal/reg"
)

// Status-flags bit positions. These are exactly the bit positions
// GET_TRIGGER_STATUS reports: bit0 enable, bit1 armed, bit2
// output_enable, bit3 trigger_out, bits 4-7 reserved.
const (
	flagEnable = iota
	flagArmed
	flagOutputEnable
	flagTriggerOut
)

// TriggerControl is the trigger subsystem's runtime state: the
// host-writable enable/armed/output_enable/stage_count bits, and the
// sequence FSM's runtime sequence_stage/fire_count/trigger_out.
type TriggerControl struct {
	flags reg.Register

	StageCount    int
	SequenceStage int
	FireCount     uint16

	// Out drives the physical (or simulated) trigger_out line. It may
	// be nil, in which case trigger_out is tracked only in flags and is
	// observable solely via TriggerOut()/StatusFlags().
	Out gpio.PinOut
}

// NewTriggerControl returns a trigger control block with everything
// disabled/disarmed/zeroed.
func NewTriggerControl() *TriggerControl {
	return &TriggerControl{}
}

func (tc *TriggerControl) Enable() bool       { return tc.flags.Get(flagEnable, 1) == 1 }
func (tc *TriggerControl) Armed() bool        { return tc.flags.Get(flagArmed, 1) == 1 }
func (tc *TriggerControl) OutputEnable() bool { return tc.flags.Get(flagOutputEnable, 1) == 1 }
func (tc *TriggerControl) TriggerOut() bool   { return tc.flags.Get(flagTriggerOut, 1) == 1 }

// StatusFlags returns the 4-bit status byte GET_TRIGGER_STATUS reports.
func (tc *TriggerControl) StatusFlags() byte {
	return byte(tc.flags.Read() & 0x0F)
}

// ActiveStage is sequence_stage clamped to < MaxStages.
func (tc *TriggerControl) ActiveStage() int {
	if tc.SequenceStage >= MaxStages {
		return MaxStages - 1
	}

	return tc.SequenceStage
}

// ActiveValid reports whether the active stage currently participates in
// matching: the trigger must be enabled and armed, and the active stage
// must lie within the programmed stage count.
func (tc *TriggerControl) ActiveValid() bool {
	return tc.Enable() && tc.Armed() && tc.ActiveStage() < tc.StageCount
}

// SetEnable sets or clears the trigger-level enable bit. Clearing it
// disarms and zeroes sequence_stage.
func (tc *TriggerControl) SetEnable(v bool) {
	if v {
		tc.flags.Set(flagEnable)
		return
	}

	tc.flags.Clear(flagEnable)
	tc.disarm()
}

func (tc *TriggerControl) SetOutputEnable(v bool) {
	if v {
		tc.flags.Set(flagOutputEnable)
	} else {
		tc.flags.Clear(flagOutputEnable)
	}
}

// Arm sets armed and zeroes sequence_stage, so a re-arm always restarts
// the sequence from stage 0.
func (tc *TriggerControl) Arm() {
	tc.flags.Set(flagArmed)
	tc.SequenceStage = 0
}

// Disarm clears armed and zeroes sequence_stage.
func (tc *TriggerControl) Disarm() {
	tc.disarm()
}

func (tc *TriggerControl) disarm() {
	tc.flags.Clear(flagArmed)
	tc.SequenceStage = 0
}

// resetSequence zeroes sequence_stage without touching armed/enable, as
// happens when capture is disabled.
func (tc *TriggerControl) resetSequence() {
	tc.SequenceStage = 0
}

func (tc *TriggerControl) toggleOut() {
	level := gpio.Low

	if tc.flags.Get(flagTriggerOut, 1) == 1 {
		tc.flags.Clear(flagTriggerOut)
	} else {
		tc.flags.Set(flagTriggerOut)
		level = gpio.High
	}

	if tc.Out != nil {
		tc.Out.Out(level)
	}
}

// evaluate runs the sequence FSM at packet end, given the
// match pipeline's accumulated state for the packet just captured. It
// reports whether the trigger fired.
func (tc *TriggerControl) evaluate(table *TriggerTable, m *matcher, packetSize int) (fired bool) {
	activeStage := tc.ActiveStage()

	if !tc.ActiveValid() {
		return false
	}

	stage := table.Stage(activeStage)

	fullMatch := stage.Length > 0 &&
		!m.mismatch &&
		m.matchCount == int(stage.Length) &&
		packetSize >= int(stage.Offset)+int(stage.Length)

	if !fullMatch {
		// Neither a final-stage fire nor an advance. This includes the
		// case where the active window was touched but mismatched:
		// sequence_stage is deliberately left unchanged, so a later
		// packet can re-match the same stage and resume the sequence.
		return false
	}

	if activeStage+1 == tc.StageCount {
		tc.SequenceStage = 0

		if tc.OutputEnable() {
			tc.toggleOut()
		}

		if tc.FireCount < 0xFFFF {
			tc.FireCount++
		}

		return true
	}

	tc.SequenceStage++

	return false
}
