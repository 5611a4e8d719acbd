package event

import (
	"bytes"
	"encoding/binary"
	"sync"
)

// headerSize and touchSize are the encoded sizes of the fixed-width
// records Serialize lays out back to back. They are not required to match
// any particular C ABI — this library only promises internal
// self-consistency (Serialize()[:headerSize] decodes to Header, and
// Length() == headerSize + touchCount*touchSize), per spec invariant 1.
const (
	headerSize = 16 // Flags(4) + Timestamp(8) + TouchCount(2) + reserved(2)
	touchSize  = 48 // Timestamp(8) + TapCount(4) + Phase(4) + Rect(32)
)

// Header is the fixed portion of an Event, shared by every Touch it carries.
type Header struct {
	Flags     uint32
	Timestamp float64
	// TouchCount is fixed at construction time and always equals len(Touches).
	TouchCount uint16
}

// Event is a flat, serializable record of a header plus N touch samples.
// Its size is fixed at construction (NewEvent); Touches may be written by
// the producing driver up until the event is first serialized, after which
// it is treated as logically immutable while it propagates through the
// library.
type Event struct {
	Header Header
	Touches []Touch

	once    sync.Once
	encoded []byte
}

// NewEvent allocates an Event with n zero-valued touches. The size is fixed
// for the Event's lifetime: Touches must not be appended to or truncated.
func NewEvent(n int) *Event {
	return &Event{
		Header:  Header{TouchCount: uint16(n)},
		Touches: make([]Touch, n),
	}
}

// Length reports the size, in bytes, of Serialize's output.
func (e *Event) Length() int {
	return headerSize + len(e.Touches)*touchSize
}

// Serialize returns the canonical binary encoding of the event: the header
// followed by each touch in order, little-endian fixed-width fields. The
// result is computed once and cached — callers must not mutate Header or
// Touches after the first call to Serialize.
func (e *Event) Serialize() []byte {
	e.once.Do(func() {
		var buf bytes.Buffer
		buf.Grow(e.Length())

		_ = binary.Write(&buf, binary.LittleEndian, e.Header.Flags)
		_ = binary.Write(&buf, binary.LittleEndian, e.Header.Timestamp)
		_ = binary.Write(&buf, binary.LittleEndian, e.Header.TouchCount)
		_ = binary.Write(&buf, binary.LittleEndian, uint16(0)) // reserved

		for _, t := range e.Touches {
			_ = binary.Write(&buf, binary.LittleEndian, t.Timestamp)
			_ = binary.Write(&buf, binary.LittleEndian, t.TapCount)
			_ = binary.Write(&buf, binary.LittleEndian, int32(t.Phase))
			_ = binary.Write(&buf, binary.LittleEndian, t.Where.Origin.X)
			_ = binary.Write(&buf, binary.LittleEndian, t.Where.Origin.Y)
			_ = binary.Write(&buf, binary.LittleEndian, t.Where.Size.Width)
			_ = binary.Write(&buf, binary.LittleEndian, t.Where.Size.Height)
		}

		e.encoded = buf.Bytes()
	})
	return e.encoded
}

// Copy returns a fresh Event of identical size with byte-wise copied
// contents. The copy has its own serialization cache.
func (e *Event) Copy() *Event {
	cp := NewEvent(len(e.Touches))
	cp.Header = e.Header
	copy(cp.Touches, e.Touches)
	return cp
}

var eventPool = sync.Pool{}

// pooledEventOfSize returns a zeroed *Event with exactly n touches, reusing
// a pooled allocation when one of the right size is available. This backs
// the "standard event destroyer" that Packet.Copy attaches to event
// packets (see packet.go) so the disposer concept has a genuine resource
// to manage rather than being a no-op under Go's GC.
func pooledEventOfSize(n int) *Event {
	if v := eventPool.Get(); v != nil {
		if e, ok := v.(*Event); ok && len(e.Touches) == n {
			e.Header = Header{TouchCount: uint16(n)}
			for i := range e.Touches {
				e.Touches[i] = Touch{}
			}
			e.once = sync.Once{}
			e.encoded = nil
			return e
		}
	}
	return NewEvent(n)
}

func releaseEventToPool(e *Event) {
	if e == nil {
		return
	}
	eventPool.Put(e)
}
