// https://github.com/usbarmory/usb-trigger-analyzer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package analyzer

// matcher accumulates the sticky per-packet compare state the match
// pipeline builds while a packet is being captured.
//
// The FPGA core pipelines the pattern/mask block-RAM read one cycle behind
// the incoming byte, so the actual compare lands a cycle after the byte
// that triggered it. The set of bytes compared and the match/mismatch
// outcome visible at packet end are identical whether the compare happens
// on the same cycle as the byte or one cycle later, since nothing observes
// the intermediate state; this model compares immediately byte-by-byte.
type matcher struct {
	matchCount int
	mismatch   bool
}

func (m *matcher) reset() {
	m.matchCount = 0
	m.mismatch = false
}

// compare feeds one packet byte, at packet-offset p, through the active
// stage's window (if any). activeValid gates whether matching applies at
// all (enable & armed & active_stage < stage_count).
func (m *matcher) compare(stage Stage, activeValid bool, p int, b byte) {
	if !activeValid {
		return
	}

	offset := int(stage.Offset)
	length := int(stage.Length)

	if p < offset || p >= offset+length {
		return
	}

	idx := p - offset

	if b&stage.Mask[idx] == stage.Pattern[idx]&stage.Mask[idx] {
		m.matchCount++
	} else {
		m.mismatch = true
	}
}
