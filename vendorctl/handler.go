// https://github.com/usbarmory/usb-trigger-analyzer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package vendorctl implements the vendor control request handler and
// capability/status view that a host uses to configure, arm, and report
// on the trigger engine.
//
// The handler claims a fixed set of request codes, builds a fixed-length
// response for data-in requests, and requires the complete data-out
// payload before committing any state change.
package vendorctl

import (
	"fmt"
	"log"

	"github.com/usbarmory/usb-trigger-analyzer/analyzer"
	"github.com/usbarmory/usb-trigger-analyzer/internal/reg"
)

// Vendor request codes recognized on bmRequestType type=VENDOR,
// recipient=INTERFACE, wIndex=0.
const (
	GetState          uint8 = 0
	SetState          uint8 = 1
	GetSpeeds         uint8 = 2
	SetTestConfig     uint8 = 3
	GetMinorVersion   uint8 = 4
	GetTriggerCaps    uint8 = 5
	SetTriggerControl uint8 = 6
	SetTriggerStage   uint8 = 7
	GetTriggerStatus  uint8 = 9
	ArmTrigger        uint8 = 10
	DisarmTrigger     uint8 = 11
	GetTriggerStage   uint8 = 12
)

// Payload lengths.
const (
	TriggerControlPayloadLen = 2
	TriggerStagePayloadLen   = 4 + analyzer.MaxPattern + analyzer.MaxPattern // 68
	TriggerCapsPayloadLen    = 4
	TriggerStatusPayloadLen  = 5
)

// State register bit positions.
const (
	stateBitCaptureEnable = 0
	stateBitSpeedLo       = 1
	stateBitSpeedMask     = 0b11
)

// Speed bitmask bits for GET_SPEEDS.
const (
	speedAuto uint8 = 1 << 0
	speedLow  uint8 = 1 << 1
	speedFull uint8 = 1 << 2
	speedHigh uint8 = 1 << 3
)

// SetupData mirrors a USB vendor control setup packet. The caller is
// responsible for restricting dispatch to type=VENDOR, recipient=INTERFACE,
// wIndex=0 setup packets before calling HandleSetup; the USB device stack
// that delivers and answers the transfers is an external collaborator,
// this handler only implements request meanings and payload layouts.
type SetupData struct {
	Request uint8
	Value   uint16
	Index   uint16
	Length  uint16
}

// Capabilities are the board-level facts GET_TRIGGER_CAPS, GET_SPEEDS and
// GET_MINOR_VERSION report.
type Capabilities struct {
	MinorVersion    uint8
	AutoSpeedDetect bool
}

// DefaultCapabilities matches the reference device's MINOR_VERSION = 2.
var DefaultCapabilities = Capabilities{MinorVersion: 2, AutoSpeedDetect: true}

// Handler is the vendor control handler and capability/status view,
// driving an analyzer.Core.
type Handler struct {
	Core *analyzer.Core
	Caps Capabilities

	// state is the opaque GET_STATE/SET_STATE register: bit0 capture
	// enable, bits1-2 speed, bits3-6 VBUS passthrough, bit7 power
	// control enable. Only bits 0-2 are interpreted by this handler;
	// bits 3-7 are stored and echoed back but otherwise owned by the
	// external power/VBUS plumbing.
	state reg.Register

	// testConfig is the SET_TEST_CONFIG opaque register, used by
	// host-side bring-up tooling. It is inert with respect to the
	// trigger/capture core.
	testConfig reg.Register
}

// NewHandler returns a handler wired to core, reporting caps.
func NewHandler(core *analyzer.Core, caps Capabilities) *Handler {
	return &Handler{Core: core, Caps: caps}
}

// HandleSetup dispatches one vendor control request. out is the complete
// data-out payload already received from the host (empty for data-in or
// no-data requests). It returns the data-in response bytes (nil for
// no-data/data-out requests), whether the status stage should STALL, and
// whether the request was claimed at all (false means the upper-level
// stack should treat it as unsupported).
func (h *Handler) HandleSetup(setup SetupData, out []byte) (resp []byte, stall bool, claimed bool) {
	switch setup.Request {
	case GetState:
		return []byte{byte(h.state.Read())}, false, true

	case SetState:
		if len(out) < 1 {
			return nil, true, true
		}
		h.setState(out[0])
		return nil, false, true

	case GetSpeeds:
		return []byte{h.speeds()}, false, true

	case SetTestConfig:
		if len(out) < 1 {
			return nil, true, true
		}
		h.testConfig.Write(uint32(out[0]))
		return nil, false, true

	case GetMinorVersion:
		return []byte{h.Caps.MinorVersion}, false, true

	case GetTriggerCaps:
		return h.triggerCaps(), false, true

	case SetTriggerControl:
		if len(out) < TriggerControlPayloadLen {
			return nil, true, true
		}
		h.setTriggerControl(out)
		return nil, false, true

	case SetTriggerStage:
		stage := int(setup.Value & 0xFF)
		if stage < 0 || stage >= analyzer.MaxStages {
			return nil, true, true
		}
		if len(out) < TriggerStagePayloadLen {
			return nil, true, true
		}
		h.setTriggerStage(stage, out)
		return nil, false, true

	case GetTriggerStage:
		stage := int(setup.Value & 0xFF)
		if stage < 0 || stage >= analyzer.MaxStages {
			return nil, true, true
		}
		return h.triggerStage(stage), false, true

	case GetTriggerStatus:
		return h.triggerStatus(), false, true

	case ArmTrigger:
		h.Core.Trigger.Arm()
		return nil, false, true

	case DisarmTrigger:
		h.Core.Trigger.Disarm()
		return nil, false, true

	default:
		log.Printf("vendorctl: unclaimed request %#x", setup.Request)
		return nil, false, false
	}
}

func (h *Handler) setState(b byte) {
	prevEnable := h.state.Get(stateBitCaptureEnable, 1) == 1

	h.state.Write(uint32(b))

	enable := h.state.Get(stateBitCaptureEnable, 1) == 1
	speed := analyzer.Speed(h.state.Get(stateBitSpeedLo, stateBitSpeedMask))

	switch {
	case enable && !prevEnable:
		h.Core.Enable(speed)
	case !enable && prevEnable:
		h.Core.Disable()
	}
}

func (h *Handler) speeds() byte {
	mask := speedLow | speedFull | speedHigh

	if h.Caps.AutoSpeedDetect {
		mask |= speedAuto
	}

	return mask
}

func (h *Handler) triggerCaps() []byte {
	return []byte{
		analyzer.MaxStages,
		analyzer.MaxPattern,
		byte(TriggerStagePayloadLen),
		byte(TriggerStagePayloadLen >> 8),
	}
}

func (h *Handler) setTriggerControl(out []byte) {
	flags := out[0]
	stageCount := out[1]

	enable := flags&0x01 != 0
	outputEnable := flags&0x02 != 0

	h.Core.Trigger.SetEnable(enable)
	h.Core.Trigger.SetOutputEnable(outputEnable)

	if int(stageCount) > analyzer.MaxStages {
		stageCount = analyzer.MaxStages
	}
	h.Core.Trigger.StageCount = int(stageCount)

	if !enable {
		h.Core.Trigger.Disarm()
	}
}

func (h *Handler) setTriggerStage(stage int, out []byte) {
	offset := uint16(out[0]) | uint16(out[1])<<8
	length := out[2]
	// out[3] is reserved, ignored.

	h.Core.Table.SetOffset(stage, offset)
	h.Core.Table.SetLength(stage, length)

	for i := 0; i < analyzer.MaxPattern; i++ {
		h.Core.Table.SetPatternByte(stage, i, out[4+i])
	}

	for i := 0; i < analyzer.MaxPattern; i++ {
		h.Core.Table.SetMaskByte(stage, i, out[4+analyzer.MaxPattern+i])
	}
}

func (h *Handler) triggerStage(stage int) []byte {
	s := h.Core.Table.Stage(stage)

	buf := make([]byte, 0, TriggerStagePayloadLen)
	buf = append(buf, byte(s.Offset), byte(s.Offset>>8), s.Length, 0x00)
	buf = append(buf, s.Pattern[:]...)
	buf = append(buf, s.Mask[:]...)

	return buf
}

func (h *Handler) triggerStatus() []byte {
	t := h.Core.Trigger

	return []byte{
		t.StatusFlags(),
		byte(t.SequenceStage),
		byte(t.FireCount),
		byte(t.FireCount >> 8),
		byte(t.StageCount),
	}
}

// String satisfies fmt.Stringer for diagnostic logging.
func (h *Handler) String() string {
	return fmt.Sprintf("vendorctl.Handler{state=%#x}", h.state.Read())
}
