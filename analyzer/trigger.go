// https://github.com/usbarmory/usb-trigger-analyzer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package analyzer

// MaxStages and MaxPattern bound the trigger table.
const (
	MaxStages  = 8
	MaxPattern = 32
)

// Stage is one trigger table entry: a byte-offset window within a packet
// and the masked pattern that must match it.
type Stage struct {
	Offset  uint16
	Length  uint8
	Pattern [MaxPattern]byte
	Mask    [MaxPattern]byte
}

func newStage() Stage {
	var s Stage
	for i := range s.Mask {
		s.Mask[i] = 0xFF
	}
	return s
}

// TriggerTable is the MaxStages x MaxPattern backing store for pattern
// and mask bytes plus per-stage offset/length. The FPGA core addresses
// pattern/mask storage as a flat array keyed by stage*MaxPattern + index;
// the Go representation is an array of structs, addressed the same way
// through Stage() and the setters below.
type TriggerTable struct {
	stages [MaxStages]Stage
}

// NewTriggerTable returns a table with the documented reset contents:
// mask bytes 0xFF (exact match), pattern bytes 0x00, lengths 0 (inactive).
func NewTriggerTable() *TriggerTable {
	t := &TriggerTable{}

	for i := range t.stages {
		t.stages[i] = newStage()
	}

	return t
}

// Stage returns a copy of stage i's current contents.
func (t *TriggerTable) Stage(i int) Stage {
	return t.stages[i]
}

func (t *TriggerTable) SetOffset(i int, offset uint16) {
	t.stages[i].Offset = offset
}

// SetLength clamps length to MaxPattern on write rather than rejecting an
// oversized value; GET_TRIGGER_CAPS tells the host the limit.
func (t *TriggerTable) SetLength(i int, length uint8) {
	if length > MaxPattern {
		length = MaxPattern
	}

	t.stages[i].Length = length
}

func (t *TriggerTable) SetPatternByte(i, idx int, b byte) {
	t.stages[i].Pattern[idx] = b
}

func (t *TriggerTable) SetMaskByte(i, idx int, b byte) {
	t.stages[i].Mask[idx] = b
}
