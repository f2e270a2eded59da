// https://github.com/usbarmory/usb-trigger-analyzer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package bytesource provides a host-testable stand-in for the analyzer's
// external byte source, which delivers a stream of (byte, valid, active)
// triples with one USB packet delimited by active, plus a driver loop
// that replays recorded packets through an analyzer.Core at a paced rate.
//
// The FPGA core is driven by a real byte-source clock; a host-side
// simulator or test fixture drives the same core with a single-threaded
// loop instead. This is that loop.
package bytesource

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/usbarmory/usb-trigger-analyzer/analyzer"
)

// Sample is one byte-source cycle's (byte, valid, active) triple.
type Sample struct {
	Data   byte
	Valid  bool
	Active bool
}

// Recording is an in-memory sequence of packets, replayable through a
// Core via Replay. It exists so tests can describe a capture scenario as
// plain data rather than a sequence of direct Core calls.
type Recording struct {
	Packets [][]byte
}

// Replay drives core through packets in order, framing each with
// PacketStart/PacketByte/PacketEnd.
//
// limiter paces packet delivery, one reservation of len(packet) tokens per
// packet, so a demo can replay a capture at a rate approximating real USB
// transfer timing instead of as fast as the CPU allows. limiter may be nil
// for unpaced, back-to-back delivery (the normal case in tests).
func Replay(ctx context.Context, core *analyzer.Core, packets [][]byte, limiter *rate.Limiter) error {
	for _, p := range packets {
		if limiter != nil {
			if err := limiter.WaitN(ctx, len(p)); err != nil {
				return err
			}
		}

		core.PacketStart()

		for _, b := range p {
			core.PacketByte(b)
		}

		core.PacketEnd()
	}

	return nil
}

// Idle advances core by n idle cycles, modeling elapsed time between
// packets (e.g. to exercise timestamp rollover).
func Idle(core *analyzer.Core, n int) {
	for i := 0; i < n; i++ {
		core.IdleCycle()
	}
}
