package chain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gomultitouch/multitouch/event"
)

func newCollectingListener() (AcceptFunc, func() []string) {
	var received []string
	return func(from string, pkt *event.Packet) error {
			received = append(received, from)
			pkt.Close()
			return nil
		}, func() []string {
			return received
		}
}

func TestChainDefaultLayerForwardsToListener(t *testing.T) {
	listener, received := newCollectingListener()
	c := New(listener)

	require.NoError(t, c.Transmit("probe", event.EmptyPacket()))
	require.Equal(t, []string{"probe"}, received())
}

func TestChainPopLayerOnDefaultOnlyFails(t *testing.T) {
	listener, _ := newCollectingListener()
	c := New(listener)

	err := c.PopLayer()
	require.ErrorIs(t, err, ErrDefaultLayerOnly)
}

// passThroughDriver forwards every packet unchanged; used to verify that
// pushed layers interpose correctly on the way to the listener.
type passThroughDriver struct {
	destroyed *bool
}

func (d passThroughDriver) Init(Options) (any, error) { return nil, nil }
func (d passThroughDriver) Destroy(any) {
	if d.destroyed != nil {
		*d.destroyed = true
	}
}
func (d passThroughDriver) Process(_ *Layer, _ any, from string, pkt *event.Packet, accept AcceptFunc) error {
	return accept(from, pkt)
}

func TestChainPushLayerInterposesOnPath(t *testing.T) {
	listener, received := newCollectingListener()
	c := New(listener)

	require.NoError(t, c.PushLayer(passThroughDriver{}, nil))
	require.NoError(t, c.Transmit("probe", event.EmptyPacket()))
	require.Equal(t, []string{"probe"}, received())
}

func TestChainPopLayerCallsDestroy(t *testing.T) {
	listener, _ := newCollectingListener()
	c := New(listener)

	destroyed := false
	require.NoError(t, c.PushLayer(passThroughDriver{destroyed: &destroyed}, nil))
	require.NoError(t, c.PopLayer())
	require.True(t, destroyed)

	require.ErrorIs(t, c.PopLayer(), ErrDefaultLayerOnly)
}

// droppingDriver never calls accept, simulating a filtering layer.
type droppingDriver struct{}

func (droppingDriver) Init(Options) (any, error) { return nil, nil }
func (droppingDriver) Destroy(any)                {}
func (droppingDriver) Process(_ *Layer, _ any, from string, pkt *event.Packet, accept AcceptFunc) error {
	pkt.Close()
	return nil
}

func TestChainLayerCanDropPacket(t *testing.T) {
	listener, received := newCollectingListener()
	c := New(listener)

	require.NoError(t, c.PushLayer(droppingDriver{}, nil))
	require.NoError(t, c.Transmit("probe", event.EmptyPacket()))
	require.Empty(t, received())
}

// duplicatingDriver calls accept twice per packet, simulating a fan-out layer.
type duplicatingDriver struct{}

func (duplicatingDriver) Init(Options) (any, error) { return nil, nil }
func (duplicatingDriver) Destroy(any)                {}
func (duplicatingDriver) Process(_ *Layer, _ any, from string, pkt *event.Packet, accept AcceptFunc) error {
	if err := accept(from, pkt); err != nil {
		return err
	}
	return accept(from, event.EmptyPacket())
}

func TestChainLayerCanDuplicatePacket(t *testing.T) {
	listener, received := newCollectingListener()
	c := New(listener)

	require.NoError(t, c.PushLayer(duplicatingDriver{}, nil))
	require.NoError(t, c.Transmit("probe", event.EmptyPacket()))
	require.Equal(t, []string{"probe", "probe"}, received())
}

func TestChainCloseDestroysEveryLayer(t *testing.T) {
	listener, _ := newCollectingListener()
	c := New(listener)

	destroyed := false
	require.NoError(t, c.PushLayer(passThroughDriver{destroyed: &destroyed}, nil))
	c.Close()
	require.True(t, destroyed)
}
