// Package input implements the producer side of the pipeline: a polling
// driver running on a dedicated goroutine, a post-processing Chain, and a
// set of listeners that receive every packet the chain's default layer
// delivers.
package input

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

var (
	// ErrAlreadyPolling is returned by PollingStart when polling is already
	// active.
	ErrAlreadyPolling = errors.New("input: polling already started")
	// ErrAlreadyStopped is returned by PollingStop when polling is not active.
	ErrAlreadyStopped = errors.New("input: polling already stopped")
	// ErrPollingInProgress is returned by PushPostProcessingEngine while the
	// driver's polling loop is running: the chain may only be reshaped
	// between runs.
	ErrPollingInProgress = errors.New("input: cannot modify chain while polling")
)

// Listener receives every packet that reaches the end of an Input's chain.
type Listener func(from string, pkt *event.Packet) error

// Driver drives one physical or virtual touch source. Run blocks, pushing
// packets to commit, until ctx is cancelled; it must return promptly once
// ctx.Done() fires. This replaces the original C driver's
// must_stop_polling flag, polled cooperatively from inside a pthread, with
// a single cancellation signal a driver selects on directly.
type Driver interface {
	Init(options chain.Options) (state any, err error)
	Destroy(state any)
	Run(ctx context.Context, state any, commit func(*event.Packet) error) error
}

var (
	packetsCommitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "multitouch_input_packets_committed_total",
		Help: "Packets committed by an input driver to its post-processing chain.",
	}, []string{"input"})
	listenerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "multitouch_input_listener_errors_total",
		Help: "Errors returned by input listeners.",
	}, []string{"input"})
)

// boundListener is one entry in an Input's listener set: an id (used only
// to find the entry again on unbind) paired with the callback itself. A
// slice in append order, rather than a map, is what lets deliverToListeners
// fan out in insertion order — Go map iteration order is randomized, even
// over monotonically increasing int keys.
type boundListener struct {
	id       int
	listener Listener
}

// Input binds one Driver to a post-processing Chain and a set of
// listeners. Packets the driver commits are run through the chain; packets
// that reach the chain's default layer are fanned out to every listener, in
// the order they were bound.
type Input struct {
	name   string
	driver Driver
	state  any
	chain  *chain.Chain

	mu        sync.Mutex
	listeners []boundListener
	nextID    int

	runMu   sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	polling bool
}

// New initializes driver with options, wires it to a fresh Chain, and
// immediately starts the polling worker — matching the source library's
// mt_input_init, which starts its polling thread unconditionally before
// returning.
func New(name string, driver Driver, options chain.Options) (*Input, error) {
	state, err := driver.Init(options)
	if err != nil {
		return nil, fmt.Errorf("input: initializing driver %q: %w", name, err)
	}
	in := &Input{
		name:   name,
		driver: driver,
		state:  state,
	}
	in.chain = chain.New(in.deliverToListeners)

	in.runMu.Lock()
	in.startPollingLocked()
	in.runMu.Unlock()

	return in, nil
}

func (in *Input) deliverToListeners(from string, pkt *event.Packet) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	var result error
	for _, bl := range in.listeners {
		err := bl.listener(from, pkt)
		if err != nil {
			listenerErrors.WithLabelValues(in.name).Inc()
			log.WithError(err).WithField("input", in.name).Error("input: listener returned error")
		}
		result = err
	}
	return result
}

// Bind registers listener and returns a function that unbinds it. Safe to
// call while polling.
func (in *Input) Bind(listener Listener) (unbind func()) {
	in.mu.Lock()
	defer in.mu.Unlock()

	id := in.nextID
	in.nextID++
	in.listeners = append(in.listeners, boundListener{id: id, listener: listener})

	return func() {
		in.mu.Lock()
		defer in.mu.Unlock()
		for i, bl := range in.listeners {
			if bl.id == id {
				in.listeners = append(in.listeners[:i], in.listeners[i+1:]...)
				break
			}
		}
	}
}

// PushPostProcessingEngine pushes a chain layer driver. It fails with
// ErrPollingInProgress if the driver is currently running, mirroring the
// source library's refusal to reshape a chain out from under a live
// polling thread.
func (in *Input) PushPostProcessingEngine(driver chain.Driver, options chain.Options) error {
	in.runMu.Lock()
	defer in.runMu.Unlock()

	if in.polling {
		return ErrPollingInProgress
	}
	return in.chain.PushLayer(driver, options)
}

// PopPostProcessingEngine pops the topmost chain layer. Same gating as
// PushPostProcessingEngine.
func (in *Input) PopPostProcessingEngine() error {
	in.runMu.Lock()
	defer in.runMu.Unlock()

	if in.polling {
		return ErrPollingInProgress
	}
	return in.chain.PopLayer()
}

// PollingStart launches the driver's Run loop on a dedicated goroutine.
// It returns ErrAlreadyPolling if a loop is already running. Note that New
// already starts polling, so this is only needed after a PollingStop.
func (in *Input) PollingStart() error {
	in.runMu.Lock()
	defer in.runMu.Unlock()

	if in.polling {
		return ErrAlreadyPolling
	}
	in.startPollingLocked()
	return nil
}

// startPollingLocked launches the driver's Run loop on a dedicated
// goroutine. Callers must hold runMu and must have already verified that
// no loop is currently running.
func (in *Input) startPollingLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	in.cancel = cancel
	in.done = make(chan struct{})
	in.polling = true

	log.WithField("input", in.name).Info("input: starting polling")

	go func() {
		defer close(in.done)
		if err := in.driver.Run(ctx, in.state, in.commit); err != nil && ctx.Err() == nil {
			log.WithError(err).WithField("input", in.name).Error("input: driver run exited with error")
		}
	}()
}

func (in *Input) commit(pkt *event.Packet) error {
	packetsCommitted.WithLabelValues(in.name).Inc()
	return in.chain.Transmit(in.name, pkt)
}

// PollingStop signals the driver's Run loop to exit and blocks until it
// has. It returns ErrAlreadyStopped if no loop is running.
func (in *Input) PollingStop() error {
	in.runMu.Lock()
	if !in.polling {
		in.runMu.Unlock()
		return ErrAlreadyStopped
	}
	cancel, done := in.cancel, in.done
	in.runMu.Unlock()

	cancel()
	<-done

	in.runMu.Lock()
	in.polling = false
	in.cancel = nil
	in.done = nil
	in.runMu.Unlock()

	log.WithField("input", in.name).Info("input: polling stopped")
	return nil
}

// Close stops polling if active and tears down the chain and driver.
func (in *Input) Close() {
	in.runMu.Lock()
	polling := in.polling
	in.runMu.Unlock()
	if polling {
		_ = in.PollingStop()
	}
	in.chain.Close()
	in.driver.Destroy(in.state)
}
