// https://github.com/usbarmory/usb-trigger-analyzer
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package analyzer

// sentinel is the leading byte of every 4-byte event record. Valid packet
// records never have this value as their length's high byte, since the
// largest packet (1027 bytes) keeps the high byte below 0xFF.
const sentinel = 0xFF

// Event codes.
const (
	EventRollover       uint8 = 0x00
	EventCaptureStop    uint8 = 0x01
	eventCaptureStartLo uint8 = 0x04
	EventTriggerFired   uint8 = 0x05
)

// Speed is the 2-bit capture speed field carried in capture-start events
// and the GET_STATE/SET_STATE register.
type Speed uint8

const (
	SpeedHS Speed = 0b00
	SpeedFS Speed = 0b01
	// 0b10 is unassigned; see vendorctl for SET_STATE handling.
	SpeedLS Speed = 0b11
)

func encodeEvent(code uint8, ts uint16) []byte {
	return []byte{sentinel, code, byte(ts >> 8), byte(ts)}
}

func captureStartCode(speed Speed) uint8 {
	return eventCaptureStartLo | uint8(speed)
}
