package chain

import (
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// ErrDuplicateName is returned by Register when name is already taken.
var ErrDuplicateName = errors.New("registry: duplicate driver name")

// DriverRegistry is a name-indexed catalog of layer drivers. It is the
// process-wide store described in spec.md §4.2, re-architected per Design
// Note 9 as an explicit object (rather than a bare global) that callers
// load during startup and treat as read-only once pipelines are running;
// concurrent registration and lookup is not part of its contract, though
// the map is still mutex-guarded so that "load during startup, read after"
// callers don't need their own external synchronization.
//
// Shaped after the teacher's BuildService.builds map (flow/builds.go in
// github.com/estuary/flow): a name/id keyed map behind a single mutex,
// with Register rejecting collisions rather than silently overwriting.
type DriverRegistry struct {
	mu      sync.Mutex
	drivers map[string]Driver
}

// NewDriverRegistry creates an empty registry. This is the Go equivalent
// of mt_chain_layer_driver_loader_init.
func NewDriverRegistry() *DriverRegistry {
	return &DriverRegistry{drivers: make(map[string]Driver)}
}

// Close releases the registry. The Go equivalent of
// mt_chain_layer_driver_loader_destroy; present for symmetry with the
// spec's explicit loader lifecycle, even though Go's GC makes it optional.
func (r *DriverRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drivers = nil
}

// Register adds driver under name. It fails if name is already registered.
func (r *DriverRegistry) Register(name string, driver Driver) error {
	if name == "" {
		return fmt.Errorf("registry: driver name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.drivers[name]; exists {
		return ErrDuplicateName
	}
	r.drivers[name] = driver
	log.WithField("driver", name).Debug("chain: registered layer driver")
	return nil
}

// Unregister removes name from the registry. It fails if name is absent.
func (r *DriverRegistry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.drivers[name]; !exists {
		return fmt.Errorf("registry: %q is not registered", name)
	}
	delete(r.drivers, name)
	log.WithField("driver", name).Debug("chain: unregistered layer driver")
	return nil
}

// Get returns the driver registered under name, or (nil, false).
func (r *DriverRegistry) Get(name string) (Driver, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.drivers[name]
	return d, ok
}
