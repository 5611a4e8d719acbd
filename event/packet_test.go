package event

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmptyPacket(t *testing.T) {
	p := EmptyPacket()
	require.Equal(t, 0, p.Length())
	require.Nil(t, p.Serialize())
	_, ok := p.Event()
	require.False(t, ok)
}

func TestEventPacketRoundTrip(t *testing.T) {
	e := NewEvent(1)
	p := NewEventPacket(e, nil)

	got, ok := p.Event()
	require.True(t, ok)
	require.Same(t, e, got)
	require.Equal(t, e.Length(), p.Length())
}

func TestRawPacket(t *testing.T) {
	data := []byte{1, 2, 3}
	p := NewRawPacket(data, nil)

	require.Equal(t, 3, p.Length())
	require.Equal(t, data, p.Serialize())
	_, ok := p.Event()
	require.False(t, ok)
}

func TestPacketCloseIsIdempotent(t *testing.T) {
	calls := 0
	p := NewRawPacket([]byte{1}, func() { calls++ })

	p.Close()
	p.Close()
	require.Equal(t, 1, calls)
}

func TestPacketCopyEventReturnsToPool(t *testing.T) {
	e := NewEvent(2)
	e.Touches[0].TapCount = 42
	p := NewEventPacket(e, nil)

	cp := p.Copy()
	cpEvent, ok := cp.Event()
	require.True(t, ok)
	require.NotSame(t, e, cpEvent)
	require.Equal(t, e.Touches[0].TapCount, cpEvent.Touches[0].TapCount)

	// Closing the copy runs the pool disposer; it must not panic.
	cp.Close()
}

func TestPacketCopyRawIsIndependent(t *testing.T) {
	data := []byte{9, 8, 7}
	p := NewRawPacket(data, nil)

	cp := p.Copy()
	raw, _ := cp.Event()
	require.Nil(t, raw)

	cpRaw := cp.Serialize()
	cpRaw[0] = 0
	require.Equal(t, byte(9), data[0], "copy must not alias the original backing array")
}
