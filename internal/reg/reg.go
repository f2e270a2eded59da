// https://github.com/usbarmory/usb-trigger-analyzer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package reg provides primitives for retrieving and modifying bit fields of
// in-process registers.
//
// A hardware target backs each Register with a real memory-mapped word; this
// software model backs it with a plain uint32 guarded by a mutex, so the
// same Get/Set/Clear/SetN/ClearN/Wait/WaitFor idiom used for a memory-mapped
// peripheral also works for simulated or host-testable state.
package reg

import (
	"runtime"
	"sync"
	"time"
)

// Register is an addressable 32-bit bit field, safe for concurrent use.
type Register struct {
	mu  sync.Mutex
	val uint32
}

func (r *Register) Get(pos int, mask int) (val uint32) {
	r.mu.Lock()
	val = uint32((int(r.val) >> pos) & mask)
	r.mu.Unlock()
	return
}

func (r *Register) Set(pos int) {
	r.mu.Lock()
	r.val |= (1 << uint(pos))
	r.mu.Unlock()
}

func (r *Register) Clear(pos int) {
	r.mu.Lock()
	r.val &= ^(uint32(1) << uint(pos))
	r.mu.Unlock()
}

func (r *Register) SetN(pos int, mask int, val uint32) {
	r.mu.Lock()
	r.val = (r.val & ^(uint32(mask) << uint(pos))) | (val << uint(pos))
	r.mu.Unlock()
}

func (r *Register) ClearN(pos int, mask int) {
	r.mu.Lock()
	r.val &= ^(uint32(mask) << uint(pos))
	r.mu.Unlock()
}

func (r *Register) Read() (val uint32) {
	r.mu.Lock()
	val = r.val
	r.mu.Unlock()
	return
}

func (r *Register) Write(val uint32) {
	r.mu.Lock()
	r.val = val
	r.mu.Unlock()
}

func (r *Register) Or(val uint32) {
	r.mu.Lock()
	r.val |= val
	r.mu.Unlock()
}

// Wait blocks until the masked bit field matches val.
func (r *Register) Wait(pos int, mask int, val uint32) {
	for r.Get(pos, mask) != val {
		runtime.Gosched()
	}
}

// WaitFor blocks, until timeout expires, for the masked bit field to match
// val. The returned bool reports whether the condition was met (true) or
// the wait timed out (false).
func (r *Register) WaitFor(timeout time.Duration, pos int, mask int, val uint32) bool {
	start := time.Now()

	for r.Get(pos, mask) != val {
		runtime.Gosched()

		if time.Since(start) >= timeout {
			return false
		}
	}

	return true
}
