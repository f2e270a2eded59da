package vendorctl

import (
	"bytes"
	"testing"

	"github.com/usbarmory/usb-trigger-analyzer/analyzer"
	"github.com/usbarmory/usb-trigger-analyzer/internal/ring"
)

func newHandler() *Handler {
	core := analyzer.NewCore(ring.NewBuffer(512))
	return NewHandler(core, DefaultCapabilities)
}

func TestGetMinorVersion(t *testing.T) {
	h := newHandler()

	resp, stall, claimed := h.HandleSetup(SetupData{Request: GetMinorVersion}, nil)

	if !claimed || stall {
		t.Fatalf("claimed=%v stall=%v", claimed, stall)
	}

	if len(resp) != 1 || resp[0] != 2 {
		t.Fatalf("got %v, want [2]", resp)
	}
}

func TestSetStateDrivesCaptureEnable(t *testing.T) {
	h := newHandler()

	_, stall, _ := h.HandleSetup(SetupData{Request: SetState}, []byte{0x01})
	if stall {
		t.Fatalf("unexpected stall")
	}

	if h.Core.State != analyzer.AwaitPacket {
		t.Fatalf("state = %s, want AWAIT_PACKET", h.Core.State)
	}

	if h.Core.Speed() != analyzer.SpeedHS {
		t.Fatalf("speed = %v, want HS", h.Core.Speed())
	}

	resp, _, _ := h.HandleSetup(SetupData{Request: GetState}, nil)
	if resp[0] != 0x01 {
		t.Fatalf("GET_STATE = %#x, want 0x01", resp[0])
	}

	h.HandleSetup(SetupData{Request: SetState}, []byte{0x00})

	if h.Core.State != analyzer.AwaitStart {
		t.Fatalf("state = %s, want AWAIT_START after disable", h.Core.State)
	}
}

func TestSetStateShortPayloadStalls(t *testing.T) {
	h := newHandler()

	_, stall, claimed := h.HandleSetup(SetupData{Request: SetState}, nil)

	if !claimed || !stall {
		t.Fatalf("claimed=%v stall=%v, want claimed and stalled", claimed, stall)
	}
}

func TestSetTriggerControlAndStatus(t *testing.T) {
	h := newHandler()

	_, stall, _ := h.HandleSetup(SetupData{Request: SetTriggerControl}, []byte{0b011, 2})
	if stall {
		t.Fatalf("unexpected stall")
	}

	resp, _, _ := h.HandleSetup(SetupData{Request: GetTriggerStatus}, nil)

	if len(resp) != TriggerStatusPayloadLen {
		t.Fatalf("len = %d, want %d", len(resp), TriggerStatusPayloadLen)
	}

	// status-flags byte: bit0 enable, bit1 armed, bit2 output_enable,
	// bit3 trigger_out. flags 0b011 set enable and output_enable, so
	// status bit0 and bit2 are set -> 0b0101.
	want := []byte{0b0101, 0, 0, 0, 2}
	if !bytes.Equal(resp, want) {
		t.Fatalf("status = % x, want % x", resp, want)
	}
}

func TestSetTriggerControlShortPayloadStalls(t *testing.T) {
	h := newHandler()

	_, stall, claimed := h.HandleSetup(SetupData{Request: SetTriggerControl}, []byte{0x01})

	if !claimed || !stall {
		t.Fatalf("claimed=%v stall=%v, want claimed and stalled", claimed, stall)
	}
}

func TestSetTriggerControlDisableDisarms(t *testing.T) {
	h := newHandler()

	h.HandleSetup(SetupData{Request: SetTriggerControl}, []byte{0x01, 1})
	h.HandleSetup(SetupData{Request: ArmTrigger}, nil)

	if !h.Core.Trigger.Armed() {
		t.Fatalf("expected armed")
	}

	h.HandleSetup(SetupData{Request: SetTriggerControl}, []byte{0x00, 1})

	if h.Core.Trigger.Armed() {
		t.Fatalf("expected disarmed when flags[0]==0")
	}
}

func TestTriggerStageRoundTrip(t *testing.T) {
	h := newHandler()

	payload := make([]byte, TriggerStagePayloadLen)
	payload[0] = 0x34 // offset low
	payload[1] = 0x12 // offset high
	payload[2] = 3    // length

	for i := 0; i < 3; i++ {
		payload[4+i] = byte(0xA0 + i)
		payload[4+analyzer.MaxPattern+i] = 0xFF
	}

	_, stall, _ := h.HandleSetup(SetupData{Request: SetTriggerStage, Value: 2}, payload)
	if stall {
		t.Fatalf("unexpected stall")
	}

	resp, stall, claimed := h.HandleSetup(SetupData{Request: GetTriggerStage, Value: 2}, nil)
	if stall || !claimed {
		t.Fatalf("stall=%v claimed=%v", stall, claimed)
	}

	if !bytes.Equal(resp, payload) {
		t.Fatalf("round trip mismatch:\ngot  % x\nwant % x", resp, payload)
	}
}

func TestTriggerStageLengthClamped(t *testing.T) {
	h := newHandler()

	payload := make([]byte, TriggerStagePayloadLen)
	payload[2] = 200 // length, exceeds MaxPattern

	h.HandleSetup(SetupData{Request: SetTriggerStage, Value: 0}, payload)

	resp, _, _ := h.HandleSetup(SetupData{Request: GetTriggerStage, Value: 0}, nil)

	if resp[2] != analyzer.MaxPattern {
		t.Fatalf("length = %d, want clamp to %d", resp[2], analyzer.MaxPattern)
	}
}

func TestTriggerStageOutOfRangeStalls(t *testing.T) {
	h := newHandler()

	payload := make([]byte, TriggerStagePayloadLen)

	_, stall, claimed := h.HandleSetup(SetupData{Request: SetTriggerStage, Value: analyzer.MaxStages}, payload)
	if !claimed || !stall {
		t.Fatalf("claimed=%v stall=%v, want claimed and stalled", claimed, stall)
	}

	_, stall, claimed = h.HandleSetup(SetupData{Request: GetTriggerStage, Value: analyzer.MaxStages}, nil)
	if !claimed || !stall {
		t.Fatalf("claimed=%v stall=%v, want claimed and stalled", claimed, stall)
	}
}

func TestTriggerStageShortPayloadStalls(t *testing.T) {
	h := newHandler()

	_, stall, claimed := h.HandleSetup(SetupData{Request: SetTriggerStage, Value: 0}, make([]byte, 10))
	if !claimed || !stall {
		t.Fatalf("claimed=%v stall=%v, want claimed and stalled", claimed, stall)
	}
}

func TestGetTriggerCaps(t *testing.T) {
	h := newHandler()

	resp, _, _ := h.HandleSetup(SetupData{Request: GetTriggerCaps}, nil)

	want := []byte{analyzer.MaxStages, analyzer.MaxPattern, byte(TriggerStagePayloadLen), 0x00}
	if !bytes.Equal(resp, want) {
		t.Fatalf("caps = % x, want % x", resp, want)
	}
}

func TestGetSpeedsAutoGating(t *testing.T) {
	h := newHandler()
	h.Caps.AutoSpeedDetect = false

	resp, _, _ := h.HandleSetup(SetupData{Request: GetSpeeds}, nil)

	if resp[0]&0x01 != 0 {
		t.Fatalf("expected auto bit clear when AutoSpeedDetect is false")
	}

	h.Caps.AutoSpeedDetect = true
	resp, _, _ = h.HandleSetup(SetupData{Request: GetSpeeds}, nil)

	if resp[0]&0x01 == 0 {
		t.Fatalf("expected auto bit set when AutoSpeedDetect is true")
	}
}

func TestUnknownRequestNotClaimed(t *testing.T) {
	h := newHandler()

	_, _, claimed := h.HandleSetup(SetupData{Request: 0xEE}, nil)

	if claimed {
		t.Fatalf("expected unknown request to be unclaimed")
	}
}

func TestArmDisarmTrigger(t *testing.T) {
	h := newHandler()

	h.HandleSetup(SetupData{Request: ArmTrigger}, nil)
	if !h.Core.Trigger.Armed() {
		t.Fatalf("expected armed")
	}

	h.HandleSetup(SetupData{Request: DisarmTrigger}, nil)
	if h.Core.Trigger.Armed() {
		t.Fatalf("expected disarmed")
	}
}
