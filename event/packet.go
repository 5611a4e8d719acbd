package event

// Disposer releases whatever resources a Packet's payload holds. It is
// invoked exactly once, when the Packet is closed. Most payloads need no
// disposer under Go's GC; it exists for the boundary where a payload is
// backed by something that does — a pooled Event, or raw bytes owned by a
// foreign allocator reached over cgo.
type Disposer func()

type kind int

const (
	kindEmpty kind = iota
	kindEvent
	kindRaw
)

// Packet is a tagged envelope holding either an Event or opaque bytes. A
// Packet exclusively owns its payload: Copy is the sole means of
// duplication, and Close is the sole means of release.
type Packet struct {
	kind     kind
	event    *Event
	raw      []byte
	disposer Disposer
	closed   bool
}

// EmptyPacket returns a packet carrying no payload.
func EmptyPacket() *Packet {
	return &Packet{kind: kindEmpty}
}

// NewEventPacket wraps event, transferring its ownership to the packet.
// disposer may be nil.
func NewEventPacket(e *Event, disposer Disposer) *Packet {
	return &Packet{kind: kindEvent, event: e, disposer: disposer}
}

// NewRawPacket wraps data, transferring its ownership to the packet.
// disposer may be nil.
func NewRawPacket(data []byte, disposer Disposer) *Packet {
	return &Packet{kind: kindRaw, raw: data, disposer: disposer}
}

// Close invokes the packet's disposer, if any. Close is idempotent: a
// second call is a no-op.
func (p *Packet) Close() {
	if p == nil || p.closed {
		return
	}
	p.closed = true
	if p.disposer != nil {
		p.disposer()
	}
}

// Length reports the size, in bytes, of Serialize's output.
func (p *Packet) Length() int {
	switch p.kind {
	case kindEvent:
		return p.event.Length()
	case kindRaw:
		return len(p.raw)
	default:
		return 0
	}
}

// Serialize returns a view of the packet's payload, valid until the packet
// is closed. It returns nil for an empty packet.
func (p *Packet) Serialize() []byte {
	switch p.kind {
	case kindEvent:
		return p.event.Serialize()
	case kindRaw:
		return p.raw
	default:
		return nil
	}
}

// Event returns the wrapped Event and true, or (nil, false) if this is not
// an event packet.
func (p *Packet) Event() (*Event, bool) {
	if p.kind != kindEvent {
		return nil, false
	}
	return p.event, true
}

// Copy produces an independent packet that owns a deep clone of the
// payload, with the library's standard disposer attached: an event clone
// is returned to the shared Event pool on Close, a raw clone is released
// to the garbage collector (a no-op disposer).
func (p *Packet) Copy() *Packet {
	switch p.kind {
	case kindEvent:
		cp := pooledEventOfSize(len(p.event.Touches))
		cp.Header = p.event.Header
		copy(cp.Touches, p.event.Touches)
		return NewEventPacket(cp, func() { releaseEventToPool(cp) })
	case kindRaw:
		buf := make([]byte, len(p.raw))
		copy(buf, p.raw)
		return NewRawPacket(buf, nil)
	default:
		return EmptyPacket()
	}
}
