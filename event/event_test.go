package event

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventLength(t *testing.T) {
	e := NewEvent(3)
	require.Equal(t, headerSize+3*touchSize, e.Length())
	require.Len(t, e.Serialize(), e.Length())
}

func TestEventSerializeLayout(t *testing.T) {
	e := NewEvent(1)
	e.Header.Flags = 0xdeadbeef
	e.Header.Timestamp = 1.5
	e.Touches[0] = Touch{Timestamp: 2.5, TapCount: 1, Phase: Moved}

	buf := e.Serialize()
	require.Equal(t, uint32(0xdeadbeef), binary.LittleEndian.Uint32(buf[0:4]))
	require.Equal(t, uint16(1), binary.LittleEndian.Uint16(buf[12:14]))
}

func TestEventSerializeCached(t *testing.T) {
	e := NewEvent(2)
	first := e.Serialize()
	e.Header.Flags = 99 // mutating after first Serialize is documented as unsupported
	second := e.Serialize()
	require.Same(t, &first[0], &second[0])
}

func TestEventCopyIsIndependent(t *testing.T) {
	e := NewEvent(2)
	e.Touches[0].TapCount = 5
	cp := e.Copy()
	cp.Touches[0].TapCount = 9

	require.Equal(t, uint32(5), e.Touches[0].TapCount)
	require.Equal(t, uint32(9), cp.Touches[0].TapCount)
	require.NotSame(t, e, cp)
}

func TestPooledEventOfSizeReusesMatchingSize(t *testing.T) {
	e := pooledEventOfSize(4)
	e.Header.Flags = 7
	releaseEventToPool(e)

	reused := pooledEventOfSize(4)
	require.Equal(t, uint32(0), reused.Header.Flags, "pooled event must be reset before reuse")
	require.Len(t, reused.Touches, 4)
}
