// Package chain implements the ordered stack of pluggable processing
// layers that every Input and Output pipeline drives a packet through
// before it reaches its terminal listener.
package chain

import (
	"errors"
	"fmt"

	"github.com/gomultitouch/multitouch/event"
)

// ErrDefaultLayerOnly is returned by PopLayer when the chain holds only its
// default layer, which can never be popped.
var ErrDefaultLayerOnly = errors.New("chain: only the default layer remains")

// AcceptFunc forwards a packet to whatever sits above a layer in the
// stack — either the next layer down, or (for the default layer) the
// chain's terminal listener. It is the polymorphic "where do accepted
// packets go next" capability that Design Note 9 substitutes for a
// tagged union of function pointers.
type AcceptFunc func(from string, pkt *event.Packet) error

// Driver implements one processing stage. Process may call accept zero,
// one, or multiple times: dropping, forwarding (possibly after rewriting
// the packet), or duplicating it are all legal.
type Driver interface {
	Init(options Options) (state any, err error)
	Destroy(state any)
	Process(layer *Layer, state any, from string, pkt *event.Packet, accept AcceptFunc) error
}

// Options is the immutable, string-keyed bag of driver configuration
// handed to Init. Recognized keys are defined by each driver.
type Options map[string]any

func (o Options) String(key string) (string, bool) {
	v, ok := o[key].(string)
	return v, ok
}

func (o Options) Int(key string) (int, bool) {
	v, ok := o[key].(int)
	return v, ok
}

// Layer is one stage of a Chain: a driver instance plus the capability to
// forward packets it accepts to whatever is above it. The upper link is
// fixed at push time and never changes.
type Layer struct {
	driver Driver
	state  any
	upper  AcceptFunc
}

func (l *Layer) process(from string, pkt *event.Packet) error {
	return l.driver.Process(l, l.state, from, pkt, l.upper)
}

// Chain is an ordered stack of Layers terminating in a listener. Index 0
// is the default terminal layer, always present, which simply forwards
// every packet it is given to the listener.
type Chain struct {
	layers   []*Layer
	listener AcceptFunc
}

// New creates a chain holding only the default layer, whose accepted
// packets are delivered to listener.
func New(listener AcceptFunc) *Chain {
	c := &Chain{listener: listener}
	c.layers = []*Layer{
		{driver: defaultDriver{}, upper: c.deliverToListener},
	}
	return c
}

func (c *Chain) deliverToListener(from string, pkt *event.Packet) error {
	return c.listener(from, pkt)
}

func (c *Chain) top() *Layer {
	return c.layers[len(c.layers)-1]
}

// Transmit dispatches pkt to the topmost layer and returns the status that
// layer's processing (and everything it forwards to) produced.
func (c *Chain) Transmit(from string, pkt *event.Packet) error {
	return c.top().process(from, pkt)
}

// PushLayer initializes driver with options and pushes it as the new top
// of the stack; its upper link is the layer that was previously on top.
// If driver.Init fails, the chain is left unchanged.
func (c *Chain) PushLayer(driver Driver, options Options) error {
	below := c.top()
	state, err := driver.Init(options)
	if err != nil {
		return fmt.Errorf("chain: initializing layer driver: %w", err)
	}

	layer := &Layer{driver: driver, state: state, upper: below.process}
	c.layers = append(c.layers, layer)
	return nil
}

// PopLayer removes the topmost layer, invoking its driver's Destroy. It
// fails with ErrDefaultLayerOnly when only the default layer remains.
func (c *Chain) PopLayer() error {
	if len(c.layers) == 1 {
		return ErrDefaultLayerOnly
	}
	top := c.layers[len(c.layers)-1]
	c.layers = c.layers[:len(c.layers)-1]
	top.driver.Destroy(top.state)
	return nil
}

// Close tears the chain down top-to-bottom, invoking each layer's driver's
// Destroy, including the default layer's (a no-op).
func (c *Chain) Close() {
	for i := len(c.layers) - 1; i >= 0; i-- {
		c.layers[i].driver.Destroy(c.layers[i].state)
	}
	c.layers = nil
}

// defaultDriver is the chain's permanent index-0 layer: it forwards every
// packet it sees, unmodified, to whatever is above it.
type defaultDriver struct{}

func (defaultDriver) Init(Options) (any, error) { return nil, nil }
func (defaultDriver) Destroy(any)                {}
func (defaultDriver) Process(_ *Layer, _ any, from string, pkt *event.Packet, accept AcceptFunc) error {
	return accept(from, pkt)
}
