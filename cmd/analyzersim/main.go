// https://github.com/usbarmory/usb-trigger-analyzer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Command analyzersim wires an analyzer.Core and vendorctl.Handler
// together and replays a synthetic capture, printing the resulting
// trigger status. It exercises the vendor control protocol end to end
// without a real USB device or FPGA target.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/usbarmory/usb-trigger-analyzer/analyzer"
	"github.com/usbarmory/usb-trigger-analyzer/bytesource"
	"github.com/usbarmory/usb-trigger-analyzer/hostconfig"
	"github.com/usbarmory/usb-trigger-analyzer/internal/ring"
	"github.com/usbarmory/usb-trigger-analyzer/outpin"
	"github.com/usbarmory/usb-trigger-analyzer/vendorctl"
)

// defaultProgram is the built-in single-stage demo trigger: match
// AA BB CC at offset 1.
func defaultProgram() hostconfig.TriggerProgram {
	stage := hostconfig.StageProgram{Offset: 1, Length: 3}
	copy(stage.Pattern[:], []byte{0xAA, 0xBB, 0xCC})
	for i := range stage.Mask {
		stage.Mask[i] = 0xFF
	}

	return hostconfig.TriggerProgram{
		Name:         "demo",
		OutputEnable: true,
		Stages:       []hostconfig.StageProgram{stage},
	}
}

// applyProgram replays a trigger program through the same vendor requests
// a host uses on every connect.
func applyProgram(handler *vendorctl.Handler, prog hostconfig.TriggerProgram) error {
	for i, stage := range prog.Stages {
		payload := make([]byte, 0, vendorctl.TriggerStagePayloadLen)
		payload = append(payload, byte(stage.Offset), byte(stage.Offset>>8), stage.Length, 0x00)
		payload = append(payload, stage.Pattern[:]...)
		payload = append(payload, stage.Mask[:]...)

		setup := vendorctl.SetupData{Request: vendorctl.SetTriggerStage, Value: uint16(i)}
		if _, stall, _ := handler.HandleSetup(setup, payload); stall {
			return fmt.Errorf("SET_TRIGGER_STAGE %d stalled", i)
		}
	}

	flags := byte(0x01)
	if prog.OutputEnable {
		flags |= 0x02
	}

	setup := vendorctl.SetupData{Request: vendorctl.SetTriggerControl}
	if _, stall, _ := handler.HandleSetup(setup, []byte{flags, byte(len(prog.Stages))}); stall {
		return fmt.Errorf("SET_TRIGGER_CONTROL stalled")
	}

	return nil
}

func main() {
	ringWords := flag.Int("ring-words", 4096, "ring buffer depth in 16-bit words")
	idleCycles := flag.Int("idle-cycles", 0x123, "idle cycles before the first packet")
	preset := flag.String("preset", "", "trigger preset file (CBOR, see hostconfig)")
	flag.Parse()

	prog := defaultProgram()

	if *preset != "" {
		p, err := hostconfig.LoadPreset(*preset)
		if err != nil {
			log.Fatalf("analyzersim: %v", err)
		}
		prog = p
	}

	core := analyzer.NewCore(ring.NewBuffer(*ringWords))
	core.Trigger.Out = outpin.New("trigger_out")

	handler := vendorctl.NewHandler(core, vendorctl.DefaultCapabilities)

	if _, stall, _ := handler.HandleSetup(vendorctl.SetupData{Request: vendorctl.SetState}, []byte{0x01}); stall {
		log.Fatal("analyzersim: SET_STATE stalled")
	}

	if err := applyProgram(handler, prog); err != nil {
		log.Fatalf("analyzersim: apply %s: %v", prog.Name, err)
	}

	handler.HandleSetup(vendorctl.SetupData{Request: vendorctl.ArmTrigger}, nil)

	bytesource.Idle(core, *idleCycles)

	packets := [][]byte{
		{0x10, 0xAA, 0xBB, 0xCC},
		{0x2D, 0x01, 0x02},
	}

	if err := bytesource.Replay(context.Background(), core, packets, nil); err != nil {
		log.Fatalf("analyzersim: replay: %v", err)
	}

	statusResp, _, _ := handler.HandleSetup(vendorctl.SetupData{Request: vendorctl.GetTriggerStatus}, nil)
	fireCount := uint16(statusResp[2]) | uint16(statusResp[3])<<8

	fmt.Printf("fire_count=%d sequence_stage=%d trigger_out=%v overruns=%d\n",
		fireCount, statusResp[1], core.Trigger.TriggerOut(), core.Overruns())
}
