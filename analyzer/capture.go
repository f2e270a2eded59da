// https://github.com/usbarmory/usb-trigger-analyzer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package analyzer

import "github.com/usbarmory/usb-trigger-analyzer/internal/ring"

// State is one of the capture FSM's four states.
type State int

const (
	AwaitStart State = iota
	AwaitPacket
	CapturePacket
	Overrun
)

func (s State) String() string {
	switch s {
	case AwaitStart:
		return "AWAIT_START"
	case AwaitPacket:
		return "AWAIT_PACKET"
	case CapturePacket:
		return "CAPTURE_PACKET"
	case Overrun:
		return "OVERRUN"
	default:
		return "UNKNOWN"
	}
}

// Core wires together the capture FSM, record framer, trigger tables,
// match pipeline, and sequence FSM. It models the hardware as a step
// function: callers drive it one byte-source event at a time
// (Enable/Disable/IdleCycle/PacketStart/PacketByte/PacketEnd) rather than
// it running its own goroutine or clock.
type Core struct {
	State State

	Trigger *TriggerControl
	Table   *TriggerTable

	framer *Framer
	ts     Timestamp
	match  matcher

	speed      Speed
	packetTime uint16
	packetSize int
	payload    []byte
}

// NewCore returns a Capture FSM in AWAIT_START, writing records into buf.
func NewCore(buf *ring.Buffer) *Core {
	return &Core{
		State:   AwaitStart,
		Trigger: NewTriggerControl(),
		Table:   NewTriggerTable(),
		framer:  NewFramer(buf),
	}
}

// Speed returns the speed recorded by the last Enable call.
func (c *Core) Speed() Speed {
	return c.speed
}

// Overruns reports how many record commits have been rejected for overrun.
func (c *Core) Overruns() uint64 {
	return c.framer.Overruns
}

// Enable transitions AWAIT_START -> AWAIT_PACKET: zeroes the timestamp
// counter and sequence-matching state, then emits a capture-start event
// carrying the capture speed.
func (c *Core) Enable(speed Speed) {
	if c.State != AwaitStart {
		return
	}

	c.ts.Reset()
	c.Trigger.resetSequence()
	c.match.reset()

	c.speed = speed
	c.State = AwaitPacket

	c.framer.CommitEvent(captureStartCode(speed), c.ts.Value())
}

// Disable is the unconditional capture cancel: from any state other than
// AWAIT_START (including OVERRUN) it emits one capture-stop record and
// returns to AWAIT_START, zeroing sequence_stage. In AWAIT_START it does
// nothing.
func (c *Core) Disable() {
	if c.State == AwaitStart {
		return
	}

	c.framer.CommitEvent(EventCaptureStop, c.ts.Value())

	c.State = AwaitStart
	c.Trigger.resetSequence()
}

// IdleCycle advances the free-running timestamp counter by one cycle while
// no packet is in flight (AWAIT_PACKET), emitting a rollover event if the
// counter wraps.
func (c *Core) IdleCycle() {
	if c.State != AwaitPacket {
		return
	}

	if preWrap, wrapped := c.ts.Advance(); wrapped {
		c.framer.CommitEvent(EventRollover, preWrap)
	}
}

// PacketStart is the byte source's rx_active rising edge: AWAIT_PACKET ->
// CAPTURE_PACKET. It records the current timestamp as the packet's time
// and resets the per-packet match state.
func (c *Core) PacketStart() {
	if c.State != AwaitPacket {
		return
	}

	c.packetTime = c.ts.Value()
	c.packetSize = 0
	c.payload = c.payload[:0]
	c.match.reset()

	c.State = CapturePacket
}

// PacketByte delivers one byte with rx_valid && rx_active asserted,
// driving the match pipeline against the active trigger stage.
func (c *Core) PacketByte(b byte) {
	if c.State != CapturePacket {
		return
	}

	stage := c.Table.Stage(c.Trigger.ActiveStage())
	c.match.compare(stage, c.Trigger.ActiveValid(), c.packetSize, b)

	c.payload = append(c.payload, b)
	c.packetSize++
}

// PacketEnd is the byte source's rx_active falling edge: commits the
// packet record, evaluates the Sequence FSM, and returns to AWAIT_PACKET
// — or, if the ring buffer has no room for the record, to OVERRUN.
func (c *Core) PacketEnd() {
	if c.State != CapturePacket {
		return
	}

	if overrun := c.framer.CommitPacket(c.payload, c.packetTime); overrun {
		c.State = Overrun
		return
	}

	if c.Trigger.evaluate(c.Table, &c.match, c.packetSize) {
		// The trigger-fired record is always the very next record
		// written after the packet that fired it.
		c.framer.CommitEvent(EventTriggerFired, c.ts.Value())
	}

	c.State = AwaitPacket
}
