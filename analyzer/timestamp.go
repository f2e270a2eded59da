// https://github.com/usbarmory/usb-trigger-analyzer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package analyzer

// Timestamp is the 16-bit free-running cycle counter. It
// counts byte-source clock cycles and reports when it has wrapped so the
// caller can emit a rollover event carrying the pre-wrap value.
type Timestamp struct {
	cycles uint16
}

// Value returns the current counter value.
func (t *Timestamp) Value() uint16 {
	return t.cycles
}

// Reset zeroes the counter, as happens on entry to AWAIT_START.
func (t *Timestamp) Reset() {
	t.cycles = 0
}

// Advance ticks the counter by one cycle. When the counter was already at
// its maximum value, it wraps to 0 and Advance returns the pre-wrap value
// with wrapped=true, so the caller can emit a rollover event before any
// other record referencing the new (wrapped) time.
func (t *Timestamp) Advance() (preWrap uint16, wrapped bool) {
	if t.cycles == 0xFFFF {
		t.cycles = 0
		return 0xFFFF, true
	}

	t.cycles++

	return 0, false
}
