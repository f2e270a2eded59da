// https://github.com/usbarmory/usb-trigger-analyzer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package hostconfig

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/usbarmory/usb-trigger-analyzer/analyzer"
)

// StageProgram is the CBOR-serializable form of one trigger stage.
type StageProgram struct {
	Offset  uint16
	Length  uint8
	Pattern [analyzer.MaxPattern]byte
	Mask    [analyzer.MaxPattern]byte
}

// TriggerProgram is a named, host-persisted trigger preset: everything a
// host needs to replay via SET_TRIGGER_CONTROL/SET_TRIGGER_STAGE on every
// connect. The device's own volatile runtime state (sequence_stage,
// fire_count, armed) is never serialized here; only host-side
// configuration is saved, re-applied through the ordinary vendor requests
// each time.
type TriggerProgram struct {
	Name         string
	OutputEnable bool
	Stages       []StageProgram
}

// encMode uses deterministic encoding so a saved preset file is
// byte-stable across re-saves with identical content.
var encMode = func() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return mode
}()

// SavePreset writes prog to path as CBOR.
func SavePreset(path string, prog TriggerProgram) error {
	data, err := encMode.Marshal(prog)
	if err != nil {
		return fmt.Errorf("hostconfig: marshal trigger program: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("hostconfig: write %s: %w", path, err)
	}

	return nil
}

// LoadPreset reads a trigger program previously written by SavePreset.
func LoadPreset(path string) (TriggerProgram, error) {
	var prog TriggerProgram

	data, err := os.ReadFile(path)
	if err != nil {
		return prog, fmt.Errorf("hostconfig: read %s: %w", path, err)
	}

	if err := cbor.Unmarshal(data, &prog); err != nil {
		return prog, fmt.Errorf("hostconfig: unmarshal trigger program: %w", err)
	}

	return prog, nil
}
