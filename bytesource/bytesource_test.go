package bytesource

import (
	"context"
	"testing"

	"golang.org/x/time/rate"

	"github.com/usbarmory/usb-trigger-analyzer/analyzer"
	"github.com/usbarmory/usb-trigger-analyzer/internal/ring"
)

func TestReplayUnpaced(t *testing.T) {
	buf := ring.NewBuffer(1024)
	core := analyzer.NewCore(buf)
	core.Enable(analyzer.SpeedHS)

	packets := [][]byte{
		{0x01, 0x02, 0x03},
		{0xAA, 0xBB},
	}

	if err := Replay(context.Background(), core, packets, nil); err != nil {
		t.Fatalf("replay: %v", err)
	}

	if core.State != analyzer.AwaitPacket {
		t.Fatalf("state = %s, want AWAIT_PACKET", core.State)
	}
}

func TestReplayPaced(t *testing.T) {
	buf := ring.NewBuffer(1024)
	core := analyzer.NewCore(buf)
	core.Enable(analyzer.SpeedHS)

	limiter := rate.NewLimiter(rate.Inf, 0)

	packets := [][]byte{{0x01}}

	if err := Replay(context.Background(), core, packets, limiter); err != nil {
		t.Fatalf("replay: %v", err)
	}
}

func TestIdle(t *testing.T) {
	buf := ring.NewBuffer(1024)
	core := analyzer.NewCore(buf)
	core.Enable(analyzer.SpeedHS)

	Idle(core, 10)

	core.PacketStart()
	core.PacketByte(0x01)
	core.PacketEnd()
}
