// Package output implements the consumer side of the pipeline: packets
// submitted via Transmit are queued and drained by a dedicated worker
// goroutine that runs them through a pre-processing Chain before handing
// them to a transmitting Driver.
package output

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gomultitouch/multitouch/chain"
	"github.com/gomultitouch/multitouch/event"
)

// DefaultQueueCapacity is the queue depth Output uses when New is called
// with capacity <= 0. The original C output worker used an unbounded
// mutex+condvar FIFO; a bounded channel with a blocking Transmit gives the
// same single-consumer ordering with real backpressure instead of
// unbounded growth under a slow transmitter.
const DefaultQueueCapacity = 256

// ErrClosed is returned by Transmit once the Output has been closed.
var ErrClosed = errors.New("output: transmit after close")

// Driver performs the actual transmission of a packet to wherever an
// Output sends it (network socket, shared memory segment, log file, ...).
type Driver interface {
	Init(options chain.Options) (state any, err error)
	Destroy(state any)
	Transmit(state any, from string, pkt *event.Packet) error
}

var (
	transmitErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "multitouch_output_transmit_errors_total",
		Help: "Errors returned by an output driver's Transmit.",
	}, []string{"output"})
)

type queuedPacket struct {
	from string
	pkt  *event.Packet
}

// Output binds one Driver to a pre-processing Chain and a bounded queue
// drained by a dedicated worker goroutine.
type Output struct {
	name   string
	driver Driver
	state  any
	chain  *chain.Chain

	queue  chan queuedPacket
	cancel context.CancelFunc
	done   chan struct{}

	closeOnce sync.Once
}

// New initializes driver with options, wires it behind a fresh Chain, and
// starts the worker goroutine. capacity <= 0 selects DefaultQueueCapacity.
func New(name string, driver Driver, options chain.Options, capacity int) (*Output, error) {
	state, err := driver.Init(options)
	if err != nil {
		return nil, fmt.Errorf("output: initializing driver %q: %w", name, err)
	}
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}

	out := &Output{
		name:   name,
		driver: driver,
		state:  state,
		queue:  make(chan queuedPacket, capacity),
		done:   make(chan struct{}),
	}
	out.chain = chain.New(out.transmit)

	ctx, cancel := context.WithCancel(context.Background())
	out.cancel = cancel
	go out.run(ctx)

	registerQueueGauge(out)
	return out, nil
}

func (out *Output) transmit(from string, pkt *event.Packet) error {
	return out.driver.Transmit(out.state, from, pkt)
}

func (out *Output) run(ctx context.Context) {
	defer close(out.done)
	for {
		select {
		case q := <-out.queue:
			out.process(q)
		case <-ctx.Done():
			out.drain()
			return
		}
	}
}

// drain runs every packet left in the queue at shutdown through the chain
// (closing each one after it is processed) and returns once the queue is
// empty. This avoids silently dropping packets that were already accepted
// by Transmit.
func (out *Output) drain() {
	for {
		select {
		case q := <-out.queue:
			out.process(q)
		default:
			return
		}
	}
}

func (out *Output) process(q queuedPacket) {
	defer q.pkt.Close()
	if err := out.chain.Transmit(q.from, q.pkt); err != nil {
		transmitErrors.WithLabelValues(out.name).Inc()
		log.WithError(err).WithField("output", out.name).Error("output: transmit failed")
	}
}

// Transmit enqueues a copy of pkt, tagged with from, for the worker
// goroutine to process. It blocks if the queue is full. Transmit always
// copies pkt: the caller retains ownership of the original and must close
// it itself.
func (out *Output) Transmit(from string, pkt *event.Packet) error {
	select {
	case <-out.done:
		return ErrClosed
	default:
	}

	cp := pkt.Copy()
	select {
	case out.queue <- queuedPacket{from: from, pkt: cp}:
		return nil
	case <-out.done:
		cp.Close()
		return ErrClosed
	}
}

// PushPreProcessingEngine pushes a chain layer driver. Unlike Input's
// PushPostProcessingEngine, this is intentionally ungated: the source
// library lets an output's chain be reshaped regardless of whether the
// worker is actively transmitting, and this keeps that asymmetry.
func (out *Output) PushPreProcessingEngine(driver chain.Driver, options chain.Options) error {
	return out.chain.PushLayer(driver, options)
}

// PopPreProcessingEngine pops the topmost chain layer. Also ungated.
func (out *Output) PopPreProcessingEngine() error {
	return out.chain.PopLayer()
}

// Close stops the worker goroutine (draining any queued packets first),
// tears down the chain, and destroys the driver. Close is idempotent.
func (out *Output) Close() {
	out.closeOnce.Do(func() {
		out.cancel()
		<-out.done
		unregisterQueueGauge(out)
		out.chain.Close()
		out.driver.Destroy(out.state)
		log.WithField("output", out.name).Info("output: closed")
	})
}
