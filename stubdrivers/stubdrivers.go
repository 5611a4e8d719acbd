// Package stubdrivers provides small, deterministic driver implementations
// for exercising the library in tests: a recording input
// that emits a fixed sequence of packets, a couple of simple chain layers,
// and a recording output that captures everything it is asked to
// transmit.
package stubdrivers

import (
	"context"
	"sync"
	"time"

	"github.com/gomultitouch/multitouch/chain"
	"github.com/gomultitouch/multitouch/event"
)

// RecordingInput replays a fixed slice of events, one per tick, then idles
// until ctx is cancelled before returning.
type RecordingInput struct {
	Events []*event.Event
	Tick   time.Duration
}

func (r *RecordingInput) Init(chain.Options) (any, error) { return nil, nil }
func (r *RecordingInput) Destroy(any)                      {}

func (r *RecordingInput) Run(ctx context.Context, _ any, commit func(*event.Packet) error) error {
	tick := r.Tick
	if tick <= 0 {
		tick = time.Millisecond
	}
	for _, e := range r.Events {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(tick):
		}
		if err := commit(event.NewEventPacket(e, nil)); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return nil
}

// DropFirstByte is a chain layer driver that drops any packet whose
// serialized form starts with Byte (raw and event packets alike),
// forwarding everything else unchanged.
type DropFirstByte struct {
	Byte byte
}

func (d DropFirstByte) Init(chain.Options) (any, error) { return nil, nil }
func (d DropFirstByte) Destroy(any)                       {}

func (d DropFirstByte) Process(_ *chain.Layer, _ any, from string, pkt *event.Packet, accept chain.AcceptFunc) error {
	raw := pkt.Serialize()
	if len(raw) > 0 && raw[0] == d.Byte {
		pkt.Close()
		return nil
	}
	return accept(from, pkt)
}

// DuplicateLayer is a chain layer driver that forwards every packet it
// sees twice: once as-is, once as an independent copy.
type DuplicateLayer struct{}

func (DuplicateLayer) Init(chain.Options) (any, error) { return nil, nil }
func (DuplicateLayer) Destroy(any)                      {}

func (DuplicateLayer) Process(_ *chain.Layer, _ any, from string, pkt *event.Packet, accept chain.AcceptFunc) error {
	cp := pkt.Copy()
	if err := accept(from, pkt); err != nil {
		cp.Close()
		return err
	}
	return accept(from, cp)
}

// RecordingOutput captures every packet handed to Transmit, serialized to
// bytes so the caller can compare payloads after the originating Packet
// has been closed by the output worker.
type RecordingOutput struct {
	mu       sync.Mutex
	received [][]byte
}

func (r *RecordingOutput) Init(chain.Options) (any, error) { return nil, nil }
func (r *RecordingOutput) Destroy(any)                       {}

func (r *RecordingOutput) Transmit(_ any, _ string, pkt *event.Packet) error {
	raw := pkt.Serialize()
	cp := make([]byte, len(raw))
	copy(cp, raw)

	r.mu.Lock()
	r.received = append(r.received, cp)
	r.mu.Unlock()
	return nil
}

// Received returns a snapshot of every payload transmitted so far.
func (r *RecordingOutput) Received() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]byte, len(r.received))
	copy(out, r.received)
	return out
}
