package input

import (
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// ErrDuplicateName is returned by DriverRegistry.Register when name is
// already taken.
var ErrDuplicateName = errors.New("input: duplicate driver name")

// DriverRegistry is a name-indexed catalog of input Drivers, mirroring the
// shape of chain.DriverRegistry (itself grounded on the teacher's
// BuildService.builds map) so that input and chain drivers are loaded and
// looked up the same way throughout the library.
type DriverRegistry struct {
	mu      sync.Mutex
	drivers map[string]Driver
}

// NewDriverRegistry creates an empty registry.
func NewDriverRegistry() *DriverRegistry {
	return &DriverRegistry{drivers: make(map[string]Driver)}
}

// Register adds driver under name. It fails if name is already registered.
func (r *DriverRegistry) Register(name string, driver Driver) error {
	if name == "" {
		return fmt.Errorf("input: driver name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.drivers[name]; exists {
		return ErrDuplicateName
	}
	r.drivers[name] = driver
	log.WithField("driver", name).Debug("input: registered driver")
	return nil
}

// Unregister removes name from the registry. It fails if name is absent.
func (r *DriverRegistry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.drivers[name]; !exists {
		return fmt.Errorf("input: %q is not registered", name)
	}
	delete(r.drivers, name)
	return nil
}

// Get returns the driver registered under name, or (nil, false).
func (r *DriverRegistry) Get(name string) (Driver, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.drivers[name]
	return d, ok
}
