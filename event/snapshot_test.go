package event

import (
	"testing"

	"github.com/bradleyjkemp/cupaloy"
)

// TestEventSerializeSnapshot pins the wire layout Serialize produces so an
// accidental field reordering or width change in event.go is caught even
// though nothing else in this package asserts on the exact byte sequence.
func TestEventSerializeSnapshot(t *testing.T) {
	e := NewEvent(2)
	e.Header.Flags = 0x01020304
	e.Header.Timestamp = 123.456
	e.Touches[0] = Touch{Timestamp: 1, TapCount: 1, Phase: Began, Where: Rect{Origin: Point{X: 1, Y: 2}, Size: Size{Width: 3, Height: 4}}}
	e.Touches[1] = Touch{Timestamp: 2, TapCount: 2, Phase: KeepAlive, Where: Rect{Origin: Point{X: 5, Y: 6}, Size: Size{Width: 7, Height: 8}}}

	// Copy into a slice with cap == len so the snapshot's hex dump is
	// stable regardless of bytes.Buffer's internal growth strategy.
	raw := e.Serialize()
	fixed := make([]byte, len(raw))
	copy(fixed, raw)

	cupaloy.SnapshotT(t, fixed)
}
