// https://github.com/usbarmory/usb-trigger-analyzer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package ring implements the capture core's backing store: a fixed-size
// circular byte buffer that only ever exposes whole records to a reader.
//
// The FPGA core backs this with word-addressed block RAM and a two-phase
// pending-header mechanism so a reader polling the memory never observes a
// length-prefixed record before its payload has been fully written. A
// single-threaded software model has no such hazard: CommitRecord receives
// the complete, already-encoded record and appends it to the buffer in one
// step, which trivially satisfies the same "no partial record is ever
// visible" invariant.
package ring

import "sync"

// Buffer is a circular byte store of fixed capacity, word-aligned the way
// the packet and event record formats require.
type Buffer struct {
	mu       sync.Mutex
	data     []byte
	capacity int
	head     int // next write position
	tail     int // next read position
	used     int
}

// NewBuffer allocates a ring of capacity depthWords 16-bit words, mirroring
// the FPGA core's word-addressed memory.
func NewBuffer(depthWords int) *Buffer {
	capacity := depthWords * 2

	return &Buffer{
		data:     make([]byte, capacity),
		capacity: capacity,
	}
}

// Capacity returns the ring's total byte capacity.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Used returns the number of unread bytes currently buffered.
func (b *Buffer) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// Free returns the number of bytes available before the next commit would
// overrun the buffer. The FPGA core reserves one word of slack
// (mem_size_words - 1) so head and tail never coincide ambiguously; this
// model reserves the equivalent one word (2 bytes) of slack.
func (b *Buffer) Free() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.capacity - b.used - 2
}

// CommitRecord atomically appends a complete record (header+payload+pad, or
// a 4-byte event) to the ring. It reports overrun=true, without writing
// anything, if the record would not fit within the available slack.
func (b *Buffer) CommitRecord(record []byte) (overrun bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(record) > b.capacity-b.used-2 {
		return true
	}

	for _, c := range record {
		b.data[b.head] = c
		b.head = (b.head + 1) % b.capacity
	}

	b.used += len(record)

	return false
}

// ReadByte removes and returns the oldest unread byte. ok is false if the
// ring is empty.
func (b *Buffer) ReadByte() (c byte, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.used == 0 {
		return 0, false
	}

	c = b.data[b.tail]
	b.tail = (b.tail + 1) % b.capacity
	b.used--

	return c, true
}

// Reset discards all buffered data.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.head = 0
	b.tail = 0
	b.used = 0
}
