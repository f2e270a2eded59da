// https://github.com/usbarmory/usb-trigger-analyzer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package analyzer

import "github.com/usbarmory/usb-trigger-analyzer/internal/ring"

// Framer writes length/timestamp-framed packet records and 4-byte event
// records into a ring buffer, producing the exact byte stream a host-side
// reader demultiplexes by the 0xFF sentinel rule.
//
// The FPGA core holds the address of a pending header slot and a pending
// word count, committing both atomically so a reader never observes a
// partial record. This model instead builds the complete record bytes
// up front and performs a single ring.Buffer.CommitRecord call, which
// gives the same atomicity guarantee without a two-phase header mechanism.
type Framer struct {
	buf *ring.Buffer

	// Overruns counts rejected commits. It is a diagnostic counter only,
	// not part of the wire protocol: a host detects overrun by polling
	// GET_STATE while no new records arrive.
	Overruns uint64
}

// NewFramer wraps buf as a record framer.
func NewFramer(buf *ring.Buffer) *Framer {
	return &Framer{buf: buf}
}

// CommitPacket writes a complete packet record: 2-byte big-endian length,
// 2-byte big-endian timestamp, the payload, and (if the payload length is
// odd) one pad byte.
func (f *Framer) CommitPacket(payload []byte, ts uint16) (overrun bool) {
	l := len(payload)

	rec := make([]byte, 0, 4+l+1)
	rec = append(rec, byte(l>>8), byte(l), byte(ts>>8), byte(ts))
	rec = append(rec, payload...)

	if l%2 == 1 {
		rec = append(rec, 0x00)
	}

	return f.commit(rec)
}

// CommitEvent writes a 4-byte event record.
func (f *Framer) CommitEvent(code uint8, ts uint16) (overrun bool) {
	return f.commit(encodeEvent(code, ts))
}

func (f *Framer) commit(rec []byte) (overrun bool) {
	if f.buf.CommitRecord(rec) {
		f.Overruns++
		return true
	}

	return false
}
